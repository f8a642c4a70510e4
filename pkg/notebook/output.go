package notebook

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// OutputType is the kind of a recorded execution output.
type OutputType string

const (
	DisplayData   OutputType = "display_data"
	Stream        OutputType = "stream"
	Error         OutputType = "error"
	ExecuteResult OutputType = "execute_result"
)

// Output is one recorded execution result of a code cell.
type Output struct {
	OutputType     OutputType `json:"output_type"`
	Name           string     `json:"name,omitempty"`
	Text           Lines      `json:"text,omitempty"`
	Data           MimeBundle `json:"data,omitempty"`
	ExecutionCount *int       `json:"execution_count,omitempty"`
	EName          string     `json:"ename,omitempty"`
	EValue         string     `json:"evalue,omitempty"`
	Traceback      []string   `json:"traceback,omitempty"`
}

// MimeEntry is one MIME type and its payload in a display bundle.
// Payloads that are not strings (e.g. application/json objects) are kept as
// their raw JSON text in a single line.
type MimeEntry struct {
	Type  string
	Value Lines
}

// MimeBundle maps MIME types to payloads, preserving document key order.
type MimeBundle []MimeEntry

// UnmarshalJSON decodes a JSON object keeping its keys in order.
func (b *MimeBundle) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("notebook: mime bundle: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("notebook: mime bundle: expected object")
	}

	var out MimeBundle
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("notebook: mime bundle: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return errors.New("notebook: mime bundle: expected key")
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("notebook: mime bundle %q: %w", key, err)
		}

		var value Lines
		if err := json.Unmarshal(raw, &value); err != nil {
			value = Lines{string(raw)}
		}

		out = append(out, MimeEntry{Type: key, Value: value})
	}

	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("notebook: mime bundle: %w", err)
	}

	*b = out

	return nil
}

// MarshalJSON encodes the bundle as a JSON object in entry order.
func (b MimeBundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Type)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal([]string(e.Value))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
