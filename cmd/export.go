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
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/usecase/backup"
)

const (
	exportOutputKey = "backup.export.output"
	exportGzipKey   = "backup.export.gzip"
	exportTablesKey = "backup.export.tables"
	exportBatchKey  = "backup.export.batch_size"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "导出数据库内容为 NDJSON 备份",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withToolbox(func(tb *app.Toolbox) error {
			return runExport(cmd, tb)
		})
	},
}

func runExport(cmd *cobra.Command, tb *app.Toolbox) (err error) {
	out := newBackupStream(viper.GetString(exportOutputKey), viper.GetBool(exportGzipKey))
	if out.path == "" {
		out = newBackupStream(defaultExportFilename(out.gzip), out.gzip)
	}

	service, err := backup.NewService(tb.Driver, backup.WithBatchSize(viper.GetInt(exportBatchKey)))
	if err != nil {
		return fmt.Errorf("创建备份服务失败: %w", err)
	}

	w, closeOut, err := out.create(cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeOut(); cerr != nil && err == nil {
			err = fmt.Errorf("写入备份失败: %w", cerr)
		}
	}()

	opts := []backup.ExportOption{backup.WithProgressReporter(newCLIProgress(cmd.ErrOrStderr()))}
	if tables := tablesFromConfig(exportTablesKey); len(tables) > 0 {
		opts = append(opts, backup.WithTables(tables))
	}
	if err := service.Export(cmd.Context(), w, opts...); err != nil {
		return fmt.Errorf("导出备份失败: %w", err)
	}

	if out.stdio() {
		cmd.PrintErrln("导出完成: 输出到标准输出")
	} else {
		cmd.PrintErrf("导出完成: %s\n", out.path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "备份输出文件路径，使用 - 表示标准输出")
	exportCmd.Flags().Bool("gzip", false, "使用 gzip 压缩输出")
	exportCmd.Flags().StringSlice("tables", nil, "仅导出指定表，逗号分隔或重复指定")
	exportCmd.Flags().Int("batch-size", 0, "导出批处理大小 (默认 512)")

	bindExportConfig()
}

func defaultExportFilename(gzipEnabled bool) string {
	ts := time.Now().UTC().Format("20060102-150405")
	filename := fmt.Sprintf("vocdrill-backup-%s.jsonl", ts)
	if gzipEnabled {
		filename += ".gz"
	}
	return filename
}

func bindExportConfig() {
	bindFlags(exportCmd.Flags(), map[string]string{
		"output":     exportOutputKey,
		"gzip":       exportGzipKey,
		"tables":     exportTablesKey,
		"batch-size": exportBatchKey,
	})
}
