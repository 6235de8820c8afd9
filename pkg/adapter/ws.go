package adapter

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/eya46/adapter-onebot/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Gateways dial in from arbitrary hosts; auth is header-based, not
	// cookie-based, so origin checking buys nothing here.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWS serves GET /onebot/v11/ws. Identity, duplicate, and token
// checks run at the handshake; rejections complete the upgrade and then
// close with 1008 (policy violation) so the reason reaches the client.
// No signature check on this path: only the HTTP webhook has a fixed
// signable body.
func (a *Adapter) handleWS(w http.ResponseWriter, r *http.Request) {
	var reject string

	selfID, authErr := checkSelfID(r.Header)
	switch {
	case authErr != nil:
		reject = authErr.Reason
	default:
		if _, dup := a.registry.Get(selfID); dup {
			logger.WarnCF("ws", "Duplicate X-Self-ID, rejecting", map[string]interface{}{
				"self_id": selfID,
			})
			reject = "Duplicate X-Self-ID"
		} else if authErr := checkAccessToken(a.cfg.OneBot.AccessToken, r.Header); authErr != nil {
			reject = authErr.Reason
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorCF("ws", "WebSocket upgrade failed", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if reject != "" {
		closePolicyViolation(conn, reject)
		_ = conn.Close()
		return
	}

	bot := newBot(selfID, KindPassiveWS, conn, a.results, a.cfg.OneBot.APITimeout.Std())
	if err := a.registry.Connect(bot); err != nil {
		// A second handshake for the same identity won the race between
		// our duplicate check and the upgrade.
		closePolicyViolation(conn, "Duplicate X-Self-ID")
		_ = conn.Close()
		return
	}

	// Single teardown path for every exit: best-effort close, then
	// unconditional unregister.
	defer func() {
		bot.closeConn()
		a.registry.Disconnect(selfID)
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.ErrorCF("ws", "Error while receiving from websocket", map[string]interface{}{
					"self_id": selfID,
					"error":   err.Error(),
				})
			}
			return
		}
		if ev := a.decoder.ClassifyAndDecode(data); ev != nil {
			a.dispatcher.Dispatch(bot, ev)
		}
	}
}

// closePolicyViolation sends a 1008 close frame with the given reason.
// Write errors are ignored; the connection is being discarded anyway.
func closePolicyViolation(conn *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(5*time.Second))
}
