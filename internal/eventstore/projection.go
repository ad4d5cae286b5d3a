package eventstore

import (
	"context"
	"sort"
	"time"
)

const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// BuildSummary is a read model folded from the events of one build.
type BuildSummary struct {
	BuildID        string
	Status         string
	StartedAt      time.Time
	CompletedAt    *time.Time
	Pages          int
	SitemapEntries int
	SitemapPath    string
	ErrorStage     string
	ErrorMessage   string
}

// Summarize folds events into one summary per build, newest first.
func Summarize(events []Event) []*BuildSummary {
	builds := make(map[string]*BuildSummary)
	for _, ev := range events {
		id := ev.BuildID()
		if id == "" {
			continue
		}
		s, ok := builds[id]
		if !ok {
			s = &BuildSummary{BuildID: id, Status: StatusRunning, StartedAt: ev.Timestamp()}
			builds[id] = s
		}
		applyEvent(s, ev)
	}

	out := make([]*BuildSummary, 0, len(builds))
	for _, s := range builds {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].BuildID > out[j].BuildID
		}
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out
}

func applyEvent(s *BuildSummary, ev Event) {
	switch ev.Type() {
	case TypeBuildStarted:
		s.StartedAt = ev.Timestamp()
	case TypePagesRendered:
		var p struct {
			Pages int `json:"pages"`
		}
		if decodePayload(ev, &p) {
			s.Pages = p.Pages
		}
	case TypeSitemapWritten:
		var p struct {
			Path    string `json:"path"`
			Entries int    `json:"entries"`
		}
		if decodePayload(ev, &p) {
			s.SitemapPath = p.Path
			s.SitemapEntries = p.Entries
		}
	case TypeBuildCompleted:
		t := ev.Timestamp()
		s.CompletedAt = &t
		s.Status = StatusCompleted
	case TypeBuildFailed:
		t := ev.Timestamp()
		s.CompletedAt = &t
		s.Status = StatusFailed
		var p struct {
			Stage string `json:"stage"`
			Error string `json:"error"`
		}
		if decodePayload(ev, &p) {
			s.ErrorStage = p.Stage
			s.ErrorMessage = p.Error
		}
	}
}

// History returns up to limit build summaries, newest first.
func History(ctx context.Context, s Store, limit int) ([]*BuildSummary, error) {
	events, err := s.GetRange(ctx, time.Time{}, time.Now().Add(time.Hour))
	if err != nil {
		return nil, err
	}
	out := Summarize(events)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
