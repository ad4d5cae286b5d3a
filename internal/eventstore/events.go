package eventstore

import (
	"encoding/json"
	"time"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Event type names.
const (
	TypeBuildStarted   = "BuildStarted"
	TypePagesRendered  = "PagesRendered"
	TypeSitemapWritten = "SitemapWritten"
	TypeBuildCompleted = "BuildCompleted"
	TypeBuildFailed    = "BuildFailed"
)

func newEvent(buildID, eventType string, payload any) (*BuildEvent, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.EventStoreError("failed to marshal "+eventType+" payload").
			WithCause(err).
			WithContext("build_id", buildID).
			Build()
	}
	return &BuildEvent{
		Build: buildID,
		Kind:  eventType,
		At:    time.Now(),
		Data:  b,
	}, nil
}

// BuildStartedPayload describes the inputs of a build.
type BuildStartedPayload struct {
	ContentDir string `json:"content_dir"`
	OutputDir  string `json:"output_dir"`
	Version    string `json:"version"`
}

func NewBuildStarted(buildID string, p BuildStartedPayload) (*BuildEvent, error) {
	return newEvent(buildID, TypeBuildStarted, p)
}

// NewPagesRendered is emitted after the render stage.
func NewPagesRendered(buildID string, pages int) (*BuildEvent, error) {
	return newEvent(buildID, TypePagesRendered, map[string]any{"pages": pages})
}

// NewSitemapWritten is emitted once sitemap.xml is durable.
func NewSitemapWritten(buildID, path string, entries int, bytes int64) (*BuildEvent, error) {
	return newEvent(buildID, TypeSitemapWritten, map[string]any{
		"path":    path,
		"entries": entries,
		"bytes":   bytes,
	})
}

func NewBuildCompleted(buildID string, duration time.Duration, pages int) (*BuildEvent, error) {
	return newEvent(buildID, TypeBuildCompleted, map[string]any{
		"duration_ms": duration.Milliseconds(),
		"pages":       pages,
	})
}

func NewBuildFailed(buildID, stage string, cause error) (*BuildEvent, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return newEvent(buildID, TypeBuildFailed, map[string]any{
		"stage": stage,
		"error": msg,
	})
}
