package eventstore

import (
	"encoding/json"
	"time"
)

// Event is one recorded fact about a build.
type Event interface {
	ID() int64
	BuildID() string
	Type() string
	Timestamp() time.Time
	Payload() []byte
	Metadata() map[string]string
}

// BuildEvent is the stored form of an Event. Seq is assigned by the store.
type BuildEvent struct {
	Seq    int64
	Build  string
	Kind   string
	At     time.Time
	Data   []byte
	Labels map[string]string
}

func (e *BuildEvent) ID() int64                   { return e.Seq }
func (e *BuildEvent) BuildID() string             { return e.Build }
func (e *BuildEvent) Type() string                { return e.Kind }
func (e *BuildEvent) Timestamp() time.Time        { return e.At }
func (e *BuildEvent) Payload() []byte             { return e.Data }
func (e *BuildEvent) Metadata() map[string]string { return e.Labels }

// decodePayload unmarshals the JSON payload of ev into v and reports success.
func decodePayload(ev Event, v any) bool {
	return len(ev.Payload()) > 0 && json.Unmarshal(ev.Payload(), v) == nil
}
