package kernel

import "encoding/json"

// Request types.
const (
	TypeExecute  = "execute"
	TypeShutdown = "shutdown"
)

// Response types.
const (
	TypeStream       = "stream"
	TypeDisplay      = "display"
	TypeExecuteReply = "execute_reply"
)

// Reply statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is one line sent by the notebook front end.
type Request struct {
	ID       string          `json:"id"`
	Type     string          `json:"type"`
	CellID   string          `json:"cell_id,omitempty"`
	Code     string          `json:"code,omitempty"`
	Notebook json.RawMessage `json:"notebook,omitempty"` // {"ipynb": {...}} envelope or bare nbformat
}

// Response is one line sent back to the front end. Every response carries
// the id of the request it belongs to.
type Response struct {
	ID   string `json:"id"`
	Type string `json:"type"`

	// stream
	Name string `json:"name,omitempty"`
	Text string `json:"text,omitempty"`

	// display
	DisplayID string `json:"display_id,omitempty"`
	HTML      string `json:"html,omitempty"`
	Update    bool   `json:"update,omitempty"`

	// execute_reply
	Status string `json:"status,omitempty"`
	Error  string `json:"error,omitempty"`
}
