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
	"hash/crc32"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/eslsoft/vocdrill/internal/app"
	"github.com/eslsoft/vocdrill/internal/entity"
	"github.com/eslsoft/vocdrill/internal/infrastructure/database"
)

// dbInitCmd creates the engine tables and optionally loads a word catalog.
var dbInitCmd = &cobra.Command{
	Use:   "db-init",
	Short: "初始化数据库并导入词库",
	Long:  "执行数据库迁移，并可从本地 CSV (--csv) 或下载地址 (--url) 导入词库。注意: go-sqlite3 需要 CGO_ENABLED=1 构建。",
	RunE: func(cmd *cobra.Command, args []string) error {
		csvPath, _ := cmd.Flags().GetString("csv")
		url, _ := cmd.Flags().GetString("url")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		noCache, _ := cmd.Flags().GetBool("no-cache")

		return withToolbox(func(tb *app.Toolbox) error {
			ctx := cmd.Context()
			if err := runMigrations(ctx, tb); err != nil {
				return err
			}
			if csvPath == "" && url != "" {
				path, err := fetchCatalog(ctx, url, cacheDir, noCache)
				if err != nil {
					return err
				}
				csvPath = path
			}
			if csvPath == "" {
				return nil
			}
			report, err := importCatalogFile(ctx, tb, csvPath, cmd.InOrStdin())
			if err != nil {
				return err
			}
			printImportReport(cmd.OutOrStdout(), report)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(dbInitCmd)
	dbInitCmd.Flags().String("csv", "", "词库 CSV 文件路径")
	dbInitCmd.Flags().String("url", "", "词库 CSV 下载地址")
	dbInitCmd.Flags().String("cache-dir", "", "词库缓存目录 (默认: 用户缓存目录/vocdrill)")
	dbInitCmd.Flags().Bool("no-cache", false, "忽略本地缓存, 强制重新下载")
}

func runMigrations(ctx context.Context, tb *app.Toolbox) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := database.Migrate(ctx, tb.Driver); err != nil {
		return fmt.Errorf("执行数据库迁移失败: %w", err)
	}
	tb.Logger.Info("数据库迁移完成")
	return nil
}

func importCatalogFile(ctx context.Context, tb *app.Toolbox, path string, stdin io.Reader) (*entity.ImportReport, error) {
	r := stdin
	if path != "-" {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("打开词库文件失败: %w", err)
		}
		defer f.Close()
		r = f
	}
	report, err := tb.Catalog.ImportWords(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("导入词库失败: %w", err)
	}
	return report, nil
}

func printImportReport(w io.Writer, report *entity.ImportReport) {
	fmt.Fprintf(w, "导入完成: 新增 %d, 跳过 %d, 错误 %d\n", report.Imported, report.Skipped, len(report.Errors))
	for _, e := range report.Errors {
		fmt.Fprintf(w, "  %s\n", e)
	}
}

// fetchCatalog downloads url into the cache unless a cached copy exists.
func fetchCatalog(ctx context.Context, url, cacheDirFlag string, noCache bool) (string, error) {
	cacheDir, csvPath, fromCache, err := prepareCachePath(url, cacheDirFlag, noCache)
	if err != nil {
		return "", err
	}
	if fromCache {
		return csvPath, nil
	}
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("创建缓存目录失败: %w", err)
	}
	tmp := csvPath + ".part"
	if err := downloadFile(ctx, url, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("下载词库失败: %w", err)
	}
	if err := os.Rename(tmp, csvPath); err != nil {
		return "", fmt.Errorf("保存词库缓存失败: %w", err)
	}
	return csvPath, nil
}

func downloadFile(ctx context.Context, url, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("下载失败: %s", resp.Status)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := io.Copy(f, resp.Body); err != nil {
		return err
	}
	return nil
}

// prepareCachePath decides cache location and returns (cacheDir, csvPath, fromCache, error)
func prepareCachePath(url, cacheDirFlag string, noCache bool) (string, string, bool, error) {
	var base string
	if cacheDirFlag != "" {
		base = cacheDirFlag
	} else {
		userCache, err := os.UserCacheDir()
		if err != nil {
			return "", "", false, fmt.Errorf("获取用户缓存目录失败: %w", err)
		}
		base = filepath.Join(userCache, "vocdrill")
	}
	// stable filename from URL hash
	h := crc32.ChecksumIEEE([]byte(url))
	csvPath := filepath.Join(base, fmt.Sprintf("words-%08x.csv", h))
	if !noCache {
		if st, err := os.Stat(csvPath); err == nil && st.Size() > 0 {
			return base, csvPath, true, nil
		}
	}
	return base, csvPath, false, nil
}
