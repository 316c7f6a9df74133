package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like
// "500ms" or "7d"-free Go duration syntax ("168h").
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML accepts either a Go duration string or a bare number
// of nanoseconds.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var asString string
	if err := node.Decode(&asString); err == nil {
		parsed, perr := time.ParseDuration(asString)
		if perr != nil {
			return fmt.Errorf("invalid duration %q: %w", asString, perr)
		}
		*d = Duration(parsed)
		return nil
	}
	var asInt int64
	if err := node.Decode(&asInt); err == nil {
		*d = Duration(asInt)
		return nil
	}
	return fmt.Errorf("invalid duration node %q", node.Value)
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}
