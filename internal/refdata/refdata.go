// Package refdata loads the structured reference tables (configuration
// options, emitted events and admin commands) that documentation pages embed.
package refdata

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/docsite/internal/foundation/errors"
)

// Data file names inside the data directory.
const (
	OptionsFile  = "configuration.yaml"
	EventsFile   = "events.yaml"
	CommandsFile = "doveadm.yaml"
)

// Field is a named, Markdown-described entry.
type Field struct {
	Name        string
	Description string
}

// Option is a configuration setting.
type Option struct {
	Name    string `yaml:"-"`
	Default string `yaml:"default"`
	// Value describes the accepted values (Markdown).
	Value   string `yaml:"value"`
	Summary string `yaml:"summary"`
}

// EventOption lists the values an event field may take.
type EventOption struct {
	Field  string
	Values []string
}

// Event is an emitted event with its fields.
type Event struct {
	Name    string       `yaml:"-"`
	Summary string       `yaml:"summary"`
	Fields  Fields       `yaml:"fields"`
	Options EventOptions `yaml:"options"`
}

// Command is an administrative command with its output fields.
type Command struct {
	Cmd     string `yaml:"cmd"`
	Args    string `yaml:"args"`
	Summary string `yaml:"summary"`
	Fields  Fields `yaml:"fields"`
}

// Data is the full reference data set.
type Data struct {
	Options  []Option
	Events   []Event
	Commands []Command
}

// Empty reports whether no reference data was found.
func (d *Data) Empty() bool {
	return d == nil || len(d.Options)+len(d.Events)+len(d.Commands) == 0
}

// Load reads the data files from dir. Missing files yield empty sections;
// malformed files are configuration errors.
func Load(dir string) (*Data, error) {
	data := &Data{}

	var options map[string]Option
	if err := decodeFile(filepath.Join(dir, OptionsFile), &options); err != nil {
		return nil, err
	}
	for name, o := range options {
		o.Name = name
		data.Options = append(data.Options, o)
	}
	sort.Slice(data.Options, func(i, j int) bool { return data.Options[i].Name < data.Options[j].Name })

	var events map[string]Event
	if err := decodeFile(filepath.Join(dir, EventsFile), &events); err != nil {
		return nil, err
	}
	for name, e := range events {
		e.Name = name
		data.Events = append(data.Events, e)
	}
	sort.Slice(data.Events, func(i, j int) bool { return data.Events[i].Name < data.Events[j].Name })

	var commands struct {
		Doveadm []Command `yaml:"doveadm"`
	}
	if err := decodeFile(filepath.Join(dir, CommandsFile), &commands); err != nil {
		return nil, err
	}
	data.Commands = commands.Doveadm

	slog.Debug("Loaded reference data",
		slog.String("path", dir),
		slog.Int("options", len(data.Options)),
		slog.Int("events", len(data.Events)),
		slog.Int("commands", len(data.Commands)))
	return data, nil
}

func decodeFile(path string, out any) error {
	// #nosec G304 -- path is built from the configured data directory
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.FileSystemError("failed to read reference data").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return errors.ConfigError("malformed reference data").
			WithCause(err).
			WithContext("path", path).
			Build()
	}
	return nil
}
