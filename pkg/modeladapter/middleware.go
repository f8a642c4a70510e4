package modeladapter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/germanamz/nbask/pkg/chats/chat"
	"github.com/germanamz/nbask/pkg/chats/message"
)

// StreamerFunc adapts a plain function to the Streamer interface.
type StreamerFunc func(ctx context.Context, c *chat.Chat, onDelta DeltaFunc) (message.Message, error)

// Stream calls the underlying function.
func (f StreamerFunc) Stream(ctx context.Context, c *chat.Chat, onDelta DeltaFunc) (message.Message, error) {
	return f(ctx, c, onDelta)
}

// Middleware wraps a Streamer, returning a new Streamer with added behaviour.
type Middleware func(next Streamer) Streamer

// Chain applies mws to s so that the first middleware is the outermost.
func Chain(s Streamer, mws ...Middleware) Streamer {
	for i := len(mws) - 1; i >= 0; i-- {
		s = mws[i](s)
	}
	return s
}

// --- Recovery middleware ---

// Recovery returns a Middleware that converts panics into errors.
func Recovery() Middleware {
	return func(next Streamer) Streamer {
		return StreamerFunc(func(ctx context.Context, c *chat.Chat, onDelta DeltaFunc) (msg message.Message, err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("adapter: stream panicked: %v", r)
				}
			}()

			return next.Stream(ctx, c, onDelta)
		})
	}
}

// --- Logger middleware ---

// Logger returns a Middleware that logs stream start, duration, delta count
// and error at debug level.
func Logger(log *slog.Logger, name string) Middleware {
	return func(next Streamer) Streamer {
		return StreamerFunc(func(ctx context.Context, c *chat.Chat, onDelta DeltaFunc) (message.Message, error) {
			log.DebugContext(ctx, "stream started", "model", name, "messages", c.Len())

			start := time.Now()
			deltas := 0

			msg, err := next.Stream(ctx, c, func(d string) error {
				deltas++
				return onDelta(d)
			})

			duration := time.Since(start)

			if err != nil {
				log.DebugContext(ctx, "stream finished with error",
					"model", name,
					"duration", duration,
					"deltas", deltas,
					"error", err,
				)
			} else {
				log.DebugContext(ctx, "stream finished",
					"model", name,
					"duration", duration,
					"deltas", deltas,
				)
			}

			return msg, err
		})
	}
}
