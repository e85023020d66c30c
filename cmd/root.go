/*
Copyright © 2025 Ambor <saltbo@foxmail.com>

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/entity"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "vocdrill",
	Short: "单词默写练习引擎",
	Long:  "vocdrill 按今日、复习、薄弱三个词池安排单词默写练习，并记录每日统计。",
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// withToolbox builds the command line dependencies and releases them afterwards.
func withToolbox(fn func(tb *app.Toolbox) error) error {
	tb, cleanup, err := app.InitializeToolbox()
	if err != nil {
		return fmt.Errorf("初始化失败: %w", err)
	}
	defer cleanup()
	return fn(tb)
}

// lookupLearner resolves a learner by name and returns the principal acting as them.
func lookupLearner(ctx context.Context, tb *app.Toolbox, name string) (*entity.Learner, entity.Principal, error) {
	l, err := tb.Learners.FindByName(ctx, name)
	if err != nil {
		return nil, entity.Principal{}, fmt.Errorf("查找学习者 %q 失败: %w", name, err)
	}
	return l, entity.Principal{LearnerID: l.ID, Role: l.Role}, nil
}
