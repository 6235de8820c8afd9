package adapter

import (
	"io"
	"net/http"

	"github.com/eya46/adapter-onebot/pkg/logger"
)

// handleHTTP serves the webhook: POST /onebot/v11/http and the legacy
// alias POST /onebot/v11/. Full authentication (identity, signature,
// token), then decode and fire-and-forget dispatch. The response is 204
// for every authenticated request, whether or not an event came out.
func (a *Adapter) handleHTTP(w http.ResponseWriter, r *http.Request) {
	selfID, authErr := checkSelfID(r.Header)
	if authErr != nil {
		http.Error(w, authErr.Reason, authErr.Status)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		logger.WarnCF("http", "Failed to read request body", map[string]interface{}{
			"self_id": selfID,
			"error":   err.Error(),
		})
		body = nil
	}
	if len(body) == 0 {
		body = nil
	}

	if authErr := checkSignature(a.cfg.OneBot.Secret, r.Header, body); authErr != nil {
		http.Error(w, authErr.Reason, authErr.Status)
		return
	}
	if authErr := checkAccessToken(a.cfg.OneBot.AccessToken, r.Header); authErr != nil {
		http.Error(w, authErr.Reason, authErr.Status)
		return
	}

	if body != nil {
		if ev := a.decoder.ClassifyAndDecode(body); ev != nil {
			if bot := a.httpBot(selfID); bot != nil {
				a.dispatcher.Dispatch(bot, ev)
			}
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

// httpBot resolves the logical session for a webhook identity, creating
// it on first contact. Webhook sessions are per-request on the wire but
// keyed by the persistent identity, so repeat requests share one Bot.
func (a *Adapter) httpBot(selfID string) *Bot {
	if bot, ok := a.registry.Get(selfID); ok {
		return bot
	}
	bot := newBot(selfID, KindHTTP, nil, a.results, a.cfg.OneBot.APITimeout.Std())
	if err := a.registry.Connect(bot); err != nil {
		// Lost a race with a concurrent request; the winner's session is
		// the session.
		existing, _ := a.registry.Get(selfID)
		return existing
	}
	return bot
}
