package main

import (
	"context"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/germanamz/nbask/pkg/engine"
)

// startBridge forwards engine events to the program as tea messages. The
// goroutine only calls send and never touches model state. The returned
// function cancels the bridge and waits for it to exit, so no stale messages
// are sent after it returns.
func startBridge(ctx context.Context, send func(tea.Msg), events *engine.EventBus) context.CancelFunc {
	bridgeCtx, cancel := context.WithCancel(ctx)

	var wg sync.WaitGroup
	sub := events.Subscribe(64)

	wg.Go(func() {
		defer events.Unsubscribe(sub)
		for {
			select {
			case <-bridgeCtx.Done():
				return
			case ev, ok := <-sub.C:
				if !ok {
					return
				}
				if ev.Kind != engine.EventAskStart {
					continue
				}
				d, _ := ev.Data.(engine.AskStart)
				send(askStartMsg{
					model:    ev.Model,
					provider: d.Provider,
					messages: d.Messages,
					boundary: d.BoundaryFound,
				})
			}
		}
	})

	return func() {
		cancel()
		wg.Wait()
	}
}
