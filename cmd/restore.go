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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/usecase/backup"
)

const (
	restoreInputKey  = "backup.restore.input"
	restoreGzipKey   = "backup.restore.gzip"
	restoreTablesKey = "backup.restore.tables"
	restoreBatchKey  = "backup.restore.batch_size"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "从备份文件恢复数据库内容",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToolbox(func(tb *app.Toolbox) error {
			return runRestore(cmd, tb)
		})
	},
}

func runRestore(cmd *cobra.Command, tb *app.Toolbox) (err error) {
	ctx := cmd.Context()
	in := newBackupStream(viper.GetString(restoreInputKey), viper.GetBool(restoreGzipKey))
	if in.path == "" {
		return fmt.Errorf("请通过 --input 指定备份文件或使用 - 表示标准输入")
	}

	if err := runMigrations(ctx, tb); err != nil {
		return err
	}
	service, err := backup.NewService(tb.Driver, backup.WithBatchSize(viper.GetInt(restoreBatchKey)))
	if err != nil {
		return fmt.Errorf("创建备份服务失败: %w", err)
	}

	r, closeIn, err := in.open(cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeIn(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	var opts []backup.ImportOption
	if tables := tablesFromConfig(restoreTablesKey); len(tables) > 0 {
		opts = append(opts, backup.WithImportTables(tables))
	}
	if err := service.Import(ctx, r, opts...); err != nil {
		return fmt.Errorf("恢复备份失败: %w", err)
	}

	if in.stdio() {
		cmd.Println("恢复完成: 数据来源于标准输入")
	} else {
		cmd.Printf("恢复完成: %s\n", in.path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(restoreCmd)

	restoreCmd.Flags().StringP("input", "i", "", "备份文件路径，使用 - 表示标准输入")
	restoreCmd.Flags().Bool("gzip", false, "输入为 gzip 压缩格式")
	restoreCmd.Flags().StringSlice("tables", nil, "仅恢复指定表，逗号分隔或重复指定")
	restoreCmd.Flags().Int("batch-size", 0, "恢复批处理大小 (默认 512)")

	bindRestoreConfig()
}

func bindRestoreConfig() {
	bindFlags(restoreCmd.Flags(), map[string]string{
		"input":      restoreInputKey,
		"gzip":       restoreGzipKey,
		"tables":     restoreTablesKey,
		"batch-size": restoreBatchKey,
	})
}
