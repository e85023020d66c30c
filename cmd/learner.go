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
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/entity"
)

var learnerCmd = &cobra.Command{
	Use:   "learner",
	Short: "管理学习者与监护人账号",
}

var learnerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "新增学习者",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asGuardian, _ := cmd.Flags().GetBool("guardian")
		guardianName, _ := cmd.Flags().GetString("guardian-of")

		return withToolbox(func(tb *app.Toolbox) error {
			ctx := cmd.Context()
			role := entity.RoleLearner
			if asGuardian {
				role = entity.RoleGuardian
			}
			var guardianID *int64
			if guardianName != "" {
				g, _, err := lookupLearner(ctx, tb, guardianName)
				if err != nil {
					return err
				}
				guardianID = &g.ID
			}
			l, err := tb.Learners.Register(ctx, args[0], role, guardianID)
			if err != nil {
				return fmt.Errorf("创建学习者失败: %w", err)
			}
			cmd.Printf("已创建 %s (id=%d, role=%s)\n", l.Name, l.ID, l.Role)
			return nil
		})
	},
}

var learnerListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出全部学习者",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToolbox(func(tb *app.Toolbox) error {
			learners, err := tb.Learners.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("查询学习者失败: %w", err)
			}
			return printLearners(cmd.OutOrStdout(), learners)
		})
	},
}

var learnerDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "删除学习者及其学习记录",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToolbox(func(tb *app.Toolbox) error {
			ctx := cmd.Context()
			l, _, err := lookupLearner(ctx, tb, args[0])
			if err != nil {
				return err
			}
			if err := tb.Learners.Delete(ctx, l.ID); err != nil {
				return fmt.Errorf("删除学习者失败: %w", err)
			}
			cmd.Printf("已删除 %s\n", l.Name)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(learnerCmd)
	learnerCmd.AddCommand(learnerAddCmd, learnerListCmd, learnerDeleteCmd)

	learnerAddCmd.Flags().Bool("guardian", false, "创建监护人账号")
	learnerAddCmd.Flags().String("guardian-of", "", "所属监护人名称")
}

func printLearners(w io.Writer, learners []*entity.Learner) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tROLE\tGUARDIAN\tCREATED")
	for _, l := range learners {
		guardian := "-"
		if l.GuardianID != nil {
			guardian = fmt.Sprint(*l.GuardianID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", l.ID, l.Name, l.Role, guardian, l.CreatedAt.Format("2006-01-02"))
	}
	return tw.Flush()
}
