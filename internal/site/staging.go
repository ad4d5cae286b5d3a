package site

import (
	"context"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
	"git.home.luguber.info/inful/docsite/internal/logfields"
)

// stagePrepareOutput creates a fresh staging directory next to the output
// directory: <output>_stage. The default output lives inside the content
// directory, so a missing content directory is reported before anything is created.
func stagePrepareOutput(_ context.Context, bs *buildState) error {
	if err := bs.g.checkContentDir(); err != nil {
		return err
	}
	stage := bs.g.outputDir + "_stage"
	// leftovers from an interrupted build
	if err := os.RemoveAll(stage); err != nil {
		return errors.FileSystemError("failed to clear staging directory").
			WithCause(err).
			WithContext("path", stage).
			Build()
	}
	if err := os.MkdirAll(stage, 0o755); err != nil {
		return errors.FileSystemError("failed to create staging directory").
			WithCause(err).
			WithContext("path", stage).
			Build()
	}
	bs.stageDir = stage
	bs.g.logger.Debug("Initialized staging directory", "staging", stage, logfields.Output(bs.g.outputDir))
	return nil
}

// stagePromote replaces the output directory with the staging directory.
// The previous output is kept as <output>.prev until the swap succeeded.
func stagePromote(_ context.Context, bs *buildState) error {
	out := bs.g.outputDir
	prev := out + ".prev"

	if err := os.RemoveAll(prev); err != nil {
		bs.g.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
	}
	hadOutput := false
	if _, err := os.Stat(out); err == nil {
		if err := os.Rename(out, prev); err != nil {
			return errors.FileSystemError("failed to back up existing output").
				WithCause(err).
				WithContext("path", out).
				Build()
		}
		hadOutput = true
	}
	if err := os.Rename(bs.stageDir, out); err != nil {
		if hadOutput {
			_ = os.Rename(prev, out)
		}
		return errors.FileSystemError("failed to promote staging directory").
			WithCause(err).
			WithContext("path", out).
			Build()
	}
	bs.stageDir = ""
	if hadOutput {
		if err := os.RemoveAll(prev); err != nil {
			bs.g.logger.Warn("Failed to remove previous backup", logfields.Path(prev), logfields.Error(err))
		}
	}
	bs.g.logger.Debug("Promoted staging directory", logfields.Output(out))
	return nil
}

// abortStaging removes the staging directory after a failed build.
func (bs *buildState) abortStaging() {
	if bs.stageDir == "" {
		return
	}
	dir := bs.stageDir
	bs.stageDir = ""
	if err := os.RemoveAll(dir); err != nil {
		bs.g.logger.Warn("Failed to remove staging directory after abort", "staging", dir, logfields.Error(err))
		return
	}
	bs.g.logger.Debug("Removed staging directory after abort", "staging", dir)
}

// stagePath maps a slash separated output path into the staging directory.
func (bs *buildState) stagePath(rel string) string {
	return filepath.Join(bs.stageDir, filepath.FromSlash(rel))
}
