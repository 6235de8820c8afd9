package adapter

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eya46/adapter-onebot/pkg/logger"
	"github.com/eya46/adapter-onebot/pkg/onebot"
)

// startForward validates each configured forward URL and launches its
// reconnect loop. A malformed URL is logged and skipped; it never stops
// the other loops from starting.
func (a *Adapter) startForward(ctx context.Context) {
	for _, raw := range a.cfg.OneBot.WSUrls {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			logger.ErrorCF("forward", "Bad forward websocket url, loop not started", map[string]interface{}{
				"url": raw,
			})
			continue
		}
		target := u.String()
		a.forwardWG.Add(1)
		go func() {
			defer a.forwardWG.Done()
			a.runForward(ctx, target)
		}()
	}
}

// runForward is the per-URL reconnect loop: dial, consume until the
// connection dies, sleep a fixed interval, dial again. No backoff
// growth, no retry cap, no terminal state short of ctx cancellation.
// One URL's failures never touch another URL's loop.
func (a *Adapter) runForward(ctx context.Context, target string) {
	header := http.Header{}
	if token := a.cfg.OneBot.AccessToken; token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	interval := a.cfg.OneBot.ReconnectInterval.Std()

	for {
		conn, resp, err := websocket.DefaultDialer.DialContext(ctx, target, header)
		if err != nil {
			if resp != nil && resp.Body != nil {
				_ = resp.Body.Close()
			}
			if ctx.Err() != nil {
				return
			}
			logger.ErrorCF("forward", "Error while connecting to websocket, retrying", map[string]interface{}{
				"url":   target,
				"error": err.Error(),
			})
			if !sleepCtx(ctx, interval) {
				return
			}
			continue
		}

		a.consumeForward(ctx, conn, target)

		if ctx.Err() != nil {
			return
		}
		if !sleepCtx(ctx, interval) {
			return
		}
	}
}

// consumeForward reads one forward connection to exhaustion. The session
// starts unidentified: events are dropped until a lifecycle "connect"
// meta event carrying the remote identity arrives. After identification
// every decoded event (the connect event included) is dispatched.
// Teardown on any exit: best-effort close, unregister if a session was
// bound.
func (a *Adapter) consumeForward(ctx context.Context, conn *websocket.Conn, target string) {
	var bot *Bot

	// ReadMessage cannot be interrupted directly; closing the socket on
	// ctx cancellation unblocks it.
	watch := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-watch:
		}
	}()

	defer func() {
		close(watch)
		_ = conn.Close()
		if bot != nil {
			a.registry.Disconnect(bot.Identity)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				logger.ErrorCF("forward", "Error while receiving from websocket, reconnecting", map[string]interface{}{
					"url":   target,
					"error": err.Error(),
				})
			}
			return
		}

		ev := a.decoder.ClassifyAndDecode(data)
		if ev == nil {
			continue
		}

		if bot == nil {
			lifecycle, ok := ev.(*onebot.LifecycleMetaEvent)
			if !ok || !lifecycle.IsConnect() || lifecycle.SelfID == 0 {
				continue
			}
			candidate := newBot(lifecycle.SelfIdentity(), KindForwardWS, conn, a.results, a.cfg.OneBot.APITimeout.Std())
			if err := a.registry.Connect(candidate); err != nil {
				logger.WarnCF("forward", "Identity already has an active session, staying unidentified", map[string]interface{}{
					"url":     target,
					"self_id": candidate.Identity,
				})
				continue
			}
			bot = candidate
		}

		a.dispatcher.Dispatch(bot, ev)
	}
}

// sleepCtx waits d, returning false when ctx is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
