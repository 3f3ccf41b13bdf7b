// Package writer places generated files in the output tree.
//
// Every write goes through a temporary file and a rename so a concurrent
// reader (the preview server) never observes a half written page.
package writer

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/natefinch/atomic"

	"git.home.luguber.info/inful/sitegen/internal/foundation/errors"
	"git.home.luguber.info/inful/sitegen/internal/logfields"
)

const (
	dirMode  = 0o755
	fileMode = 0o644

	// IndexName is the page name that maps onto its directory's own document.
	IndexName = "index"
	// GzipExt is appended to sidecar files.
	GzipExt = ".gz"
)

// Writer writes documents and assets. It is safe for concurrent use.
type Writer struct {
	compress bool
	logger   *slog.Logger
}

// Option configures a Writer.
type Option func(*Writer)

// WithCompression enables .gz sidecars next to documents and text assets.
func WithCompression(enabled bool) Option {
	return func(w *Writer) { w.compress = enabled }
}

// WithLogger sets the logger used for non-fatal problems.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Writer) { w.logger = logger }
}

// New returns a Writer.
func New(opts ...Option) *Writer {
	w := &Writer{logger: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// DocumentPath maps an output path without extension to the file that is
// written: "out/posts/index" becomes "out/posts/index.html" and "out/about"
// becomes "out/about/index.html".
func DocumentPath(pathNoExt string) string {
	if filepath.Base(pathNoExt) == IndexName {
		return pathNoExt + ".html"
	}
	return filepath.Join(pathNoExt, IndexName+".html")
}

// WriteDocument writes html for the page at pathNoExt and returns the file
// path that was written.
func (w *Writer) WriteDocument(pathNoExt, html string) (string, error) {
	path := DocumentPath(pathNoExt)
	if err := w.WriteAsset(path, []byte(html)); err != nil {
		return "", err
	}
	return path, nil
}

// WriteAsset atomically writes data to path, creating parent directories.
func (w *Writer) WriteAsset(path string, data []byte) error {
	if err := w.write(path, bytes.NewReader(data)); err != nil {
		return err
	}
	if w.compress {
		if err := w.writeGzip(path, data); err != nil {
			w.logger.Warn("Failed to write compressed sidecar",
				logfields.Output(path+GzipExt),
				logfields.Error(err))
		}
	}
	return nil
}

// CopyFile streams src to dst. Copies never get a compressed sidecar.
func (w *Writer) CopyFile(src, dst string) error {
	// #nosec G304 -- src comes from walking the input tree.
	f, err := os.Open(src)
	if err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "open source file").
			WithContext("path", src).
			Build()
	}
	defer func() { _ = f.Close() }()
	return w.write(dst, f)
}

func (w *Writer) write(path string, r io.Reader) error {
	if err := os.MkdirAll(filepath.Dir(path), dirMode); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "create output directory").
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	if err := atomic.WriteFile(path, r); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "write output file").
			WithContext("path", path).
			Build()
	}
	// atomic creates its temporary file owner-only; output is meant to be served.
	if err := os.Chmod(path, fileMode); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "set output file mode").
			WithContext("path", path).
			Build()
	}
	return nil
}

func (w *Writer) writeGzip(path string, data []byte) error {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, gzip.BestCompression)
	if err != nil {
		return err
	}
	zw.Name = filepath.Base(path)
	if _, err := zw.Write(data); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return w.write(path+GzipExt, &buf)
}
