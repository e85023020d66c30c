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
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/usecase/session"
)

const hintCommand = "?"

// quizCmd runs an interactive session in the terminal.
var quizCmd = &cobra.Command{
	Use:   "quiz <name>",
	Short: "在终端进行一次默写练习",
	Long:  "显示提示词后输入对应单词，输入 ? 查看读音提示，Ctrl-D 结束。",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rawPool, _ := cmd.Flags().GetString("pool")
		period, _ := cmd.Flags().GetString("period")

		return withToolbox(func(tb *app.Toolbox) error {
			ctx := cmd.Context()
			pool, err := entity.ParsePool(rawPool)
			if err != nil {
				return err
			}
			_, principal, err := lookupLearner(ctx, tb, args[0])
			if err != nil {
				return err
			}
			words, err := tb.Learning.ListWords(ctx, principal.LearnerID, string(pool), period)
			if err != nil {
				return fmt.Errorf("加载单词失败: %w", err)
			}
			if len(words) == 0 {
				cmd.Println("没有需要练习的单词")
				return nil
			}
			s := session.New(principal, pool, words, tb.Learning)
			_, err = runQuiz(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), s)
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.Flags().String("pool", string(entity.PoolToday), "词池: today, review, weak")
	quizCmd.Flags().String("period", "", "时间段: week, month, over_month, all")
}

// runQuiz drives s from the lines of in until the batch is done or input ends.
func runQuiz(ctx context.Context, in io.Reader, out io.Writer, s *session.Session) (entity.Counters, error) {
	scanner := bufio.NewScanner(in)
	for s.Phase() != session.PhaseComplete {
		word, pos, total := s.Current()
		fmt.Fprintf(out, "[%d/%d] %s > ", pos, total, word.PromptText)
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == hintCommand {
			hint, err := s.Hint()
			if err != nil {
				return s.Score(), err
			}
			fmt.Fprintf(out, "提示: %s\n", hint)
			continue
		}

		res, err := s.Submit(ctx, line)
		if errors.Is(err, entity.ErrEmptyAnswer) {
			fmt.Fprintln(out, "请输入答案")
			continue
		}
		if err != nil {
			return s.Score(), err
		}
		switch res.Outcome {
		case entity.OutcomeCorrect:
			fmt.Fprintln(out, "○ 正确")
		case entity.OutcomeHintCorrect:
			fmt.Fprintln(out, "△ 正确 (使用了提示)")
		default:
			fmt.Fprintf(out, "× 错误, 正确答案: %s (%s)\n", res.CorrectAnswer, res.Reading)
		}
		if err := s.Advance(); err != nil {
			return s.Score(), err
		}
	}
	if err := scanner.Err(); err != nil {
		return s.Score(), err
	}

	score := s.Score()
	fmt.Fprintf(out, "结果: 正确 %d, 提示 %d, 错误 %d\n", score.Correct, score.Hint, score.Incorrect)
	return score, nil
}
