// Package export writes workflow results to JSON files.
package export

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
)

const (
	EnrollmentsFile = "Enrollments.json"
	WorksitesFile   = "Worksites.json"

	gzipExt  = ".gz"
	fileMode = 0o644
)

// Writer stores JSON exports under Dir
type Writer struct {
	dir  string
	gzip bool
	log  zerolog.Logger
}

// NewWriter creates a writer. Nothing touches the disk until the first write.
func NewWriter(dir string, gzip bool, log zerolog.Logger) *Writer {
	return &Writer{dir: dir, gzip: gzip, log: log}
}

// Path returns where name is written, with .gz appended when compressing.
func (w *Writer) Path(name string) string {
	path := filepath.Join(w.dir, name)
	if w.gzip {
		path += gzipExt
	}
	return path
}

// WriteJSON writes v as indented JSON to name and returns the file path.
// The file is replaced atomically.
func (w *Writer) WriteJSON(name string, v any) (string, error) {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s: %w", name, err)
	}

	path := w.Path(name)
	tmp, err := os.CreateTemp(w.dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := w.encode(tmp, data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Chmod(fileMode); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}

	w.log.Info().Str("path", path).Int("bytes", len(data)).Bool("gzip", w.gzip).Msg("export written")
	return path, nil
}

func (w *Writer) encode(dst io.Writer, data []byte) error {
	if !w.gzip {
		_, err := dst.Write(data)
		return err
	}
	zw := gzip.NewWriter(dst)
	if _, err := zw.Write(data); err != nil {
		_ = zw.Close()
		return err
	}
	return zw.Close()
}
