// Package dialect adapts standard Malayalam text to regional dialects and
// provides the voice parameters and labels used when the adapted text is
// handed to a speech synthesizer.
//
// All tables are built once at package initialisation and are read-only
// afterwards, so every function in this package is safe for concurrent use.
package dialect

import (
	"errors"
	"fmt"
	"strings"
)

// Tag selects one of the supported Malayalam speech variants.
type Tag uint8

const (
	Standard Tag = iota
	Travancore
	Malabar
	Cochin
	Thrissur
)

// ErrUnknownDialect is returned by ParseTag for names outside the supported set.
var ErrUnknownDialect = errors.New("unknown dialect")

var tagNames = [...]string{
	Standard:   "standard",
	Travancore: "travancore",
	Malabar:    "malabar",
	Cochin:     "cochin",
	Thrissur:   "thrissur",
}

// All returns every supported tag in declaration order.
func All() []Tag {
	return []Tag{Standard, Travancore, Malabar, Cochin, Thrissur}
}

// String returns the lowercase wire name of the tag.
func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return tagNames[Standard]
}

// ParseTag converts a wire name (case-insensitive, surrounding space ignored)
// into a Tag. An empty name selects Standard.
func ParseTag(name string) (Tag, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Standard, nil
	}
	for i, n := range tagNames {
		if n == name {
			return Tag(i), nil
		}
	}
	return Standard, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
}

// MarshalText implements encoding.TextMarshaler.
func (t Tag) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
