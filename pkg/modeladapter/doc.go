// Package modeladapter defines the interface and types for streaming LLM
// chat adapters.
//
// It contains:
//   - [Streamer] interface and embeddable [ModelAdapter] base struct with HTTP helpers, auth, and custom headers
//   - [SSEReader], a Server-Sent Events parser used by [ModelAdapter.PostStream]
//   - [Middleware] and [Chain] for wrapping a Streamer ([Recovery], [Logger])
//   - [github.com/germanamz/nbask/pkg/modeladapter/usage]: thread-safe token usage tracker
//
// Model configuration (name, temperature, max tokens) is inlined directly on
// the ModelAdapter struct. This package contains no provider-specific code; concrete
// adapters live in separate packages that import modeladapter.
package modeladapter
