package adapter

import (
	"context"
	"sync"

	"github.com/eya46/adapter-onebot/pkg/logger"
	"github.com/eya46/adapter-onebot/pkg/onebot"
)

// EventHandler is the boundary to the downstream event framework. Each
// decoded event is handed over in its own goroutine; handlers for
// different events run independently and may complete out of order.
type EventHandler func(*Bot, onebot.Event)

// Dispatcher spawns one tracked unit of work per decoded event. Tracking
// exists so shutdown can optionally drain in-flight handlers; dispatch
// itself is fire-and-forget and never blocks the receiving connection.
type Dispatcher struct {
	handler EventHandler
	wg      sync.WaitGroup
}

func NewDispatcher(handler EventHandler) *Dispatcher {
	return &Dispatcher{handler: handler}
}

// Dispatch runs the handler for ev on its own goroutine. A panicking
// handler is contained and logged; it never takes down the adapter.
func (d *Dispatcher) Dispatch(bot *Bot, ev onebot.Event) {
	if d.handler == nil {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorCF("dispatch", "Event handler panicked", map[string]interface{}{
					"self_id": ev.SelfIdentity(),
					"type":    ev.TypeKey(),
					"panic":   rec,
				})
			}
		}()
		d.handler(bot, ev)
	}()
}

// Drain waits for in-flight handlers to finish or ctx to expire.
func (d *Dispatcher) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
