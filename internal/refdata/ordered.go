package refdata

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Fields is a YAML mapping of name to description kept in declaration order.
type Fields []Field

// UnmarshalYAML implements yaml.Unmarshaler.
func (f *Fields) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: fields must be a mapping", node.Line)
	}
	out := make(Fields, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var desc string
		if err := node.Content[i+1].Decode(&desc); err != nil {
			return err
		}
		out = append(out, Field{Name: node.Content[i].Value, Description: desc})
	}
	*f = out
	return nil
}

// EventOptions is a YAML mapping of field name to allowed values kept in
// declaration order.
type EventOptions []EventOption

// UnmarshalYAML implements yaml.Unmarshaler.
func (o *EventOptions) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: options must be a mapping", node.Line)
	}
	out := make(EventOptions, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var values []string
		if err := node.Content[i+1].Decode(&values); err != nil {
			return err
		}
		out = append(out, EventOption{Field: node.Content[i].Value, Values: values})
	}
	*o = out
	return nil
}
