package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/eya46/adapter-onebot/pkg/onebot"
)

// TransportKind distinguishes how a bot session is connected.
type TransportKind string

const (
	// KindHTTP: sessions created lazily from webhook requests. No
	// persistent socket, so API calls are unsupported.
	KindHTTP TransportKind = "http"
	// KindPassiveWS: the gateway connected to our WebSocket server.
	KindPassiveWS TransportKind = "ws"
	// KindForwardWS: we dialed out to the gateway.
	KindForwardWS TransportKind = "ws_forward"
)

// ErrNoAPISupport is returned by CallAPI on sessions without a socket.
var ErrNoAPISupport = errors.New("adapter: transport does not support api calls")

// Bot is one logical session with a remote bot account. At most one Bot
// exists per identity at any time; the registry owns that invariant.
type Bot struct {
	Identity string
	Kind     TransportKind

	conn    *websocket.Conn // nil for HTTP sessions
	writeMu sync.Mutex      // gorilla allows a single concurrent writer
	results *onebot.ResultStore
	timeout time.Duration
}

func newBot(identity string, kind TransportKind, conn *websocket.Conn, results *onebot.ResultStore, timeout time.Duration) *Bot {
	return &Bot{
		Identity: identity,
		Kind:     kind,
		conn:     conn,
		results:  results,
		timeout:  timeout,
	}
}

// CallAPI issues an OneBot v11 action on this session's socket and waits
// for the correlated result. The ctx deadline (or the configured API
// timeout as a default) bounds the wait.
func (b *Bot) CallAPI(ctx context.Context, action string, params interface{}) (json.RawMessage, error) {
	if b.conn == nil {
		return nil, ErrNoAPISupport
	}

	if _, ok := ctx.Deadline(); !ok && b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	echo := uuid.NewString()
	ch := b.results.Register(echo)

	req := onebot.APIRequest{Action: action, Params: params, Echo: echo}
	if err := b.writeJSON(req); err != nil {
		b.results.Discard(echo)
		return nil, err
	}

	raw, err := b.results.Wait(ctx, echo, ch)
	if err != nil {
		return nil, err
	}
	return onebot.HandleAPIResult(action, raw)
}

func (b *Bot) writeJSON(v interface{}) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.WriteJSON(v)
}

// closeConn best-effort closes the underlying socket. Close errors are
// swallowed: teardown must always proceed.
func (b *Bot) closeConn() {
	if b.conn != nil {
		_ = b.conn.Close()
	}
}
