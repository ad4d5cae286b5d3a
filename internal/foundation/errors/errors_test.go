package errors

import (
	"bytes"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError(t *testing.T) {
	t.Run("builder fields", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "docsite.yaml").
			Build()

		assert.Equal(t, CategoryConfig, err.Category())
		assert.Equal(t, SeverityFatal, err.Severity())
		assert.Equal(t, "invalid configuration", err.Message())
		file, ok := err.Context().GetString("file")
		require.True(t, ok)
		assert.Equal(t, "docsite.yaml", file)
	})

	t.Run("config errors are fatal and need the operator", func(t *testing.T) {
		err := ConfigError("hostname missing").Build()
		assert.True(t, err.IsFatal())
		assert.False(t, err.CanRetry())
		assert.Equal(t, "[config:fatal] hostname missing", err.Error())
	})

	t.Run("found through wrapping", func(t *testing.T) {
		cause := stdErrors.New("disk full")
		inner := FileSystemError("write sitemap").WithCause(cause).Build()
		wrapped := fmt.Errorf("build end: %w", inner)

		assert.True(t, IsClassified(wrapped))
		assert.True(t, HasCategory(wrapped, CategoryFileSystem))
		assert.True(t, HasSeverity(wrapped, SeverityFatal))
		assert.ErrorIs(t, wrapped, cause)
		assert.Equal(t, CategoryInternal, GetCategory(cause))
	})

	t.Run("sentinel match on category and message", func(t *testing.T) {
		sentinel := BuildError("stage aborted").Build()
		other := BuildError("stage aborted").WithContext("stage", "render_pages").Build()
		assert.ErrorIs(t, other, sentinel)
		assert.NotErrorIs(t, RenderError("stage aborted").Build(), sentinel)
	})

	t.Run("WithContext does not mutate the receiver", func(t *testing.T) {
		base := InternalError("boom").Build()
		derived := base.WithContext("k", "v")
		_, ok := base.Context().Get("k")
		assert.False(t, ok)
		v, ok := derived.Context().GetString("k")
		require.True(t, ok)
		assert.Equal(t, "v", v)
	})
}

func TestCLIErrorAdapter(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"nil", nil, 0},
		{"plain", stdErrors.New("x"), 1},
		{"validation", ValidationError("x").Build(), 2},
		{"config", ConfigError("x").Build(), 7},
		{"filesystem", FileSystemError("x").Build(), 11},
		{"render", RenderError("x").Build(), 11},
		{"internal", InternalError("x").Build(), 10},
	}
	a := NewCLIErrorAdapter(false, logger)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, a.ExitCodeFor(tc.err))
		})
	}

	t.Run("report prints message and returns code", func(t *testing.T) {
		var buf bytes.Buffer
		a := NewCLIErrorAdapter(false, logger)
		a.out = &buf
		code := a.Report(ConfigError("sitemap hostname is not configured").Build())
		assert.Equal(t, 7, code)
		assert.Equal(t, "Error: sitemap hostname is not configured\n", buf.String())
	})
}
