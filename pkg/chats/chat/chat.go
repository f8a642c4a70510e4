// Package chat holds the conversation sent to a model for one ask: an
// optional system prompt, the replayed notebook history and the query.
package chat

import (
	"github.com/germanamz/nbask/pkg/chats/message"
	"github.com/germanamz/nbask/pkg/chats/role"
)

// SystemSender names the sender of the system prompt message.
const SystemSender = "system"

// Chat is an ordered list of messages. The zero value is empty and usable.
// It is not safe for concurrent use.
type Chat struct {
	messages []message.Message
}

// New returns a chat holding msgs.
func New(msgs ...message.Message) *Chat {
	return &Chat{messages: msgs}
}

// Seeded returns a chat opening with systemPrompt, followed by history.
// A blank prompt is left out.
func Seeded(systemPrompt string, history ...message.Message) *Chat {
	c := &Chat{messages: make([]message.Message, 0, len(history)+1)}
	if systemPrompt != "" {
		c.messages = append(c.messages, message.NewText(SystemSender, role.System, systemPrompt))
	}
	c.messages = append(c.messages, history...)
	return c
}

// Append adds msgs at the end.
func (c *Chat) Append(msgs ...message.Message) {
	c.messages = append(c.messages, msgs...)
}

// Len returns the message count, system prompt included.
func (c *Chat) Len() int {
	return len(c.messages)
}

// Messages returns a copy of every message in order.
func (c *Chat) Messages() []message.Message {
	return append([]message.Message(nil), c.messages...)
}

// Turns returns the user and assistant messages in order, without system
// messages. APIs that take the system prompt as a separate field send these.
func (c *Chat) Turns() []message.Message {
	turns := make([]message.Message, 0, len(c.messages))
	for _, m := range c.messages {
		if m.Role != role.System {
			turns = append(turns, m)
		}
	}
	return turns
}

// SystemPrompt returns the text of the first system message, or "".
func (c *Chat) SystemPrompt() string {
	for _, m := range c.messages {
		if m.Role == role.System {
			return m.TextContent()
		}
	}
	return ""
}
