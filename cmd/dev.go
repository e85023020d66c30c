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
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/usecase"
)

// statusCmd prints a learner's stored history for debugging.
var statusCmd = &cobra.Command{
	Use:   "status <name>",
	Short: "(dev) 查看学习者的学习记录概况",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToolbox(func(tb *app.Toolbox) error {
			ctx := cmd.Context()
			l, _, err := lookupLearner(ctx, tb, args[0])
			if err != nil {
				return err
			}
			st, err := tb.Maintenance.Status(ctx, l.ID)
			if err != nil {
				return fmt.Errorf("查询状态失败: %w", err)
			}
			printStatus(cmd.OutOrStdout(), st, tb.Policy)
			return nil
		})
	},
}

// shiftCmd moves a learner's history in time to exercise day rollover.
var shiftCmd = &cobra.Command{
	Use:   "shift <name> <days>",
	Short: "(dev) 将学习者的学习记录整体平移若干天",
	Long:  "负数表示移到过去。例如 shift ann -1 相当于让今天的记录变成昨天的。",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		days, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("天数无效 %q: %w", args[1], err)
		}
		return withToolbox(func(tb *app.Toolbox) error {
			ctx := cmd.Context()
			l, _, err := lookupLearner(ctx, tb, args[0])
			if err != nil {
				return err
			}
			n, err := tb.Maintenance.Shift(ctx, l.ID, days)
			if err != nil {
				return fmt.Errorf("平移记录失败: %w", err)
			}
			cmd.Printf("已平移 %s 的 %d 条记录 %+d 天\n", l.Name, n, days)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(statusCmd, shiftCmd)
}

func printStatus(w io.Writer, st *usecase.LearnerStatus, policy usecase.Policy) {
	fmt.Fprintf(w, "学习者: %s (id=%d, role=%s)\n", st.Learner.Name, st.Learner.ID, st.Learner.Role)
	fmt.Fprintf(w, "学习记录: %d 词, 作答 %d 次, 薄弱词 %d\n", st.Records, st.Answers, st.WeakWords)
	loc := policy.Calendar.Location
	if loc == nil {
		loc = time.UTC
	}
	last := "从未学习"
	if st.LastStudiedAt != nil {
		last = st.LastStudiedAt.In(loc).Format(time.DateTime)
	}
	fmt.Fprintf(w, "最近学习: %s\n", last)
	fmt.Fprintf(w, "今日作答: 正确 %d, 提示 %d, 错误 %d\n", st.Today.Correct, st.Today.Hint, st.Today.Incorrect)
}
