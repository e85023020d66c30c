package cmd

import (
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const stdioPath = "-"

// backupStream is a backup file location; "-" means stdin or stdout. A .gz
// suffix turns on gzip even without the flag.
type backupStream struct {
	path string
	gzip bool
}

func newBackupStream(path string, gzipFlag bool) backupStream {
	path = strings.TrimSpace(path)
	return backupStream{
		path: path,
		gzip: gzipFlag || (path != stdioPath && strings.HasSuffix(strings.ToLower(path), ".gz")),
	}
}

func (s backupStream) stdio() bool { return s.path == stdioPath }

// create opens the stream for writing. The returned close flushes gzip before
// closing the file.
func (s backupStream) create(stdout io.Writer) (io.Writer, func() error, error) {
	w, closeFile := stdout, func() error { return nil }
	if !s.stdio() {
		if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
			return nil, nil, fmt.Errorf("创建输出目录失败: %w", err)
		}
		f, err := os.Create(s.path)
		if err != nil {
			return nil, nil, fmt.Errorf("创建备份文件失败: %w", err)
		}
		w, closeFile = f, f.Close
	}
	if !s.gzip {
		return w, closeFile, nil
	}
	gz := gzip.NewWriter(w)
	return gz, func() error { return errors.Join(gz.Close(), closeFile()) }, nil
}

// open opens the stream for reading.
func (s backupStream) open(stdin io.Reader) (io.Reader, func() error, error) {
	r, closeFile := stdin, func() error { return nil }
	if !s.stdio() {
		f, err := os.Open(filepath.Clean(s.path))
		if err != nil {
			return nil, nil, fmt.Errorf("打开备份文件失败: %w", err)
		}
		r, closeFile = f, f.Close
	}
	if !s.gzip {
		return r, closeFile, nil
	}
	gz, err := gzip.NewReader(r)
	if err != nil {
		_ = closeFile()
		return nil, nil, fmt.Errorf("创建 gzip 读取器失败: %w", err)
	}
	return gz, func() error { return errors.Join(gz.Close(), closeFile()) }, nil
}
