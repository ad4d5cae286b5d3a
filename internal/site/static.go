package site

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/render"
)

// stageCopyStatic publishes the built-in stylesheet and then copies the public
// directory verbatim, so site files may replace the stylesheet.
func stageCopyStatic(ctx context.Context, bs *buildState) error {
	if err := writeStaged(bs.stagePath(render.StylesheetPath), render.Stylesheet()); err != nil {
		return err
	}

	src := bs.g.publicDir
	info, err := os.Stat(src)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil || !info.IsDir() {
		return errors.FileSystemError("public directory is not readable").
			WithCause(err).
			WithContext("path", src).
			Build()
	}

	return filepath.WalkDir(src, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dst := filepath.Join(bs.stageDir, rel)
		if d.IsDir() {
			return os.MkdirAll(dst, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if err := copyFile(path, dst); err != nil {
			return errors.FileSystemError("failed to copy static file").
				WithCause(err).
				WithContext("path", path).
				Build()
		}
		return nil
	})
}

func copyFile(src, dst string) error {
	// #nosec G304 -- src is inside the configured public directory
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	// #nosec G302 G304 -- published site files are world readable
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// writeStaged writes a file into the staging tree, creating parents.
func writeStaged(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.FileSystemError("failed to create output directory").
			WithCause(err).
			WithContext("path", filepath.Dir(path)).
			Build()
	}
	// #nosec G306 -- published site files are world readable
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.FileSystemError("failed to write output file").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
