package notebook

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Lines is an nbformat multiline string. In JSON it is either an array of
// strings (each usually ending in "\n") or a single string.
type Lines []string

// SplitLines splits s after every newline, the way nbformat writers split
// sources. A trailing empty element is not produced.
func SplitLines(s string) Lines {
	if s == "" {
		return nil
	}
	parts := strings.SplitAfter(s, "\n")
	if parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return Lines(parts)
}

// String concatenates the lines.
func (l Lines) String() string {
	return strings.Join(l, "")
}

// UnmarshalJSON accepts a string, an array of strings, or null.
func (l *Lines) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = nil
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = SplitLines(s)
		return nil
	}

	var arr []string
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("notebook: multiline string: %w", err)
	}
	*l = arr

	return nil
}
