// Package chats provides a provider-agnostic data model for LLM chat interactions.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/nbask/pkg/chats/role]: conversation roles (system, user, assistant)
//   - [github.com/germanamz/nbask/pkg/chats/content]: multi-modal content parts (text, image)
//   - [github.com/germanamz/nbask/pkg/chats/message]: messages composed of a role, sender, and content parts
//   - [github.com/germanamz/nbask/pkg/chats/chat]: mutable conversation container
//
// No provider or API code is included; chats is a foundation layer
// that adapters can build on.
package chats
