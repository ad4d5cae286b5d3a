package sitemap

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// File is the handle the Writer streams into. Sync must only return once the
// written data is durable.
type File interface {
	io.Writer
	Sync() error
	Close() error
	Name() string
}

// OpenFunc creates a new temporary file in dir whose name matches pattern.
type OpenFunc func(dir, pattern string) (File, error)

func openTemp(dir, pattern string) (File, error) {
	return os.CreateTemp(dir, pattern)
}

// Writer persists a byte stream as a named file inside a directory. The target
// is replaced only after the stream was fully written and synced, so an
// interrupted write never leaves a truncated file behind.
type Writer struct {
	name string
	open OpenFunc
	mode os.FileMode
}

// WriterOption customizes a Writer.
type WriterOption func(*Writer)

// WithOpenFunc overrides how the temporary file is created.
func WithOpenFunc(fn OpenFunc) WriterOption {
	return func(w *Writer) { w.open = fn }
}

// NewWriter returns a Writer producing files called name.
func NewWriter(name string, opts ...WriterOption) *Writer {
	w := &Writer{name: name, open: openTemp, mode: 0o644}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Pending tracks an in-flight write.
type Pending struct {
	done    chan struct{}
	path    string
	err     error
	written atomic.Int64
}

// Done is closed once the file is durable and in place, or the write failed.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Path is the final location of the file.
func (p *Pending) Path() string { return p.path }

// Written is the number of bytes copied so far.
func (p *Pending) Written() int64 { return p.written.Load() }

// Wait blocks until the write finished or ctx is done. There is no timeout of
// its own: a handle that never reports completion keeps Wait blocked.
func (p *Pending) Wait(ctx context.Context) error {
	select {
	case <-p.Done():
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Write starts copying src into dir/<name> and returns immediately. If ctx is
// canceled before the file is renamed into place, the temporary file is
// discarded and any existing target is left untouched.
func (w *Writer) Write(ctx context.Context, dir string, src io.Reader) *Pending {
	p := &Pending{done: make(chan struct{}), path: filepath.Join(dir, w.name)}
	go func() {
		defer close(p.done)
		p.err = w.write(ctx, dir, src, p)
	}()
	return p
}

func (w *Writer) write(ctx context.Context, dir string, src io.Reader, p *Pending) error {
	st, err := os.Stat(dir)
	if err != nil {
		return errors.FileSystemError("output directory is not accessible").
			WithCause(err).
			WithContext("dir", dir).
			Build()
	}
	if !st.IsDir() {
		return errors.FileSystemError("output path is not a directory").
			WithContext("dir", dir).
			Build()
	}

	f, err := w.open(dir, "."+w.name+".tmp-*")
	if err != nil {
		return errors.FileSystemError("create temporary file").
			WithCause(err).
			WithContext("dir", dir).
			Build()
	}
	tmp := f.Name()
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	if _, err := io.Copy(countingWriter{f, &p.written}, src); err != nil {
		_ = f.Close()
		return errors.FileSystemError("write "+w.name).
			WithCause(err).
			WithContext("path", tmp).
			Build()
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return errors.FileSystemError("sync "+w.name).
			WithCause(err).
			WithContext("path", tmp).
			Build()
	}
	if err := f.Close(); err != nil {
		return errors.FileSystemError("close "+w.name).
			WithCause(err).
			WithContext("path", tmp).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Chmod(tmp, w.mode); err != nil {
		return errors.FileSystemError("chmod "+w.name).
			WithCause(err).
			WithContext("path", tmp).
			Build()
	}
	if err := os.Rename(tmp, p.path); err != nil {
		return errors.FileSystemError("replace "+w.name).
			WithCause(err).
			WithContext("path", p.path).
			Build()
	}
	committed = true
	return nil
}

type countingWriter struct {
	w io.Writer
	n *atomic.Int64
}

func (c countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n.Add(int64(n))
	return n, err
}
