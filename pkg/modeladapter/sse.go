package modeladapter

import (
	"bufio"
	"bytes"
	"errors"
	"io"
)

// Event is one Server-Sent Event.
type Event struct {
	Type string // "event:" field; empty for unnamed events.
	ID   string // "id:" field.
	Data []byte // "data:" lines joined with "\n".
}

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{reader: bufio.NewReader(r)}
}

// Next reads the next event. Events without data lines are skipped. It
// returns io.EOF once the stream ends; a final event not followed by a blank
// line is still delivered.
func (s *SSEReader) Next() (Event, error) {
	var (
		ev      Event
		data    [][]byte
		hasData bool
	)

	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return Event{}, err
		}
		eof := err != nil

		line = bytes.TrimRight(line, "\r\n")

		if len(line) == 0 {
			if hasData {
				ev.Data = bytes.Join(data, []byte("\n"))
				return ev, nil
			}
			if eof {
				return Event{}, io.EOF
			}
			ev = Event{}
			continue
		}

		// Lines starting with a colon are comments (keep-alives).
		if line[0] != ':' {
			field, value, _ := bytes.Cut(line, []byte(":"))
			value = bytes.TrimPrefix(value, []byte(" "))

			switch string(field) {
			case "event":
				ev.Type = string(value)
			case "data":
				data = append(data, append([]byte(nil), value...))
				hasData = true
			case "id":
				ev.ID = string(value)
			}
		}

		if eof {
			if hasData {
				ev.Data = bytes.Join(data, []byte("\n"))
				return ev, nil
			}
			return Event{}, io.EOF
		}
	}
}
