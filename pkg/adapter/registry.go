package adapter

import (
	"errors"
	"sync"

	"github.com/eya46/adapter-onebot/pkg/logger"
)

// ErrDuplicateBot is returned by Connect when the identity already has an
// active session.
var ErrDuplicateBot = errors.New("adapter: bot already connected")

// LifecycleHook is notified synchronously when a bot session becomes
// usable or stops being usable. Hooks run on the connecting/tearing-down
// goroutine and should return quickly.
type LifecycleHook func(*Bot)

// BotRegistry is the shared identity→session map. Connect upholds the
// uniqueness invariant with an atomic check-then-insert; Disconnect is
// idempotent. One registry is shared by every transport.
type BotRegistry struct {
	mu   sync.RWMutex
	bots map[string]*Bot

	onConnect    LifecycleHook
	onDisconnect LifecycleHook
}

func NewBotRegistry(onConnect, onDisconnect LifecycleHook) *BotRegistry {
	return &BotRegistry{
		bots:         make(map[string]*Bot),
		onConnect:    onConnect,
		onDisconnect: onDisconnect,
	}
}

// Connect registers bot under its identity. On conflict the map is left
// untouched and ErrDuplicateBot is returned. The connect hook fires after
// the insert, so the external framework observes the session the moment
// it is usable.
func (r *BotRegistry) Connect(bot *Bot) error {
	r.mu.Lock()
	if _, exists := r.bots[bot.Identity]; exists {
		r.mu.Unlock()
		return ErrDuplicateBot
	}
	r.bots[bot.Identity] = bot
	r.mu.Unlock()

	logger.InfoCF("registry", "Bot connected", map[string]interface{}{
		"self_id":   bot.Identity,
		"transport": string(bot.Kind),
	})
	if r.onConnect != nil {
		r.onConnect(bot)
	}
	return nil
}

// Disconnect removes the session for identity, if any. Safe to call when
// the identity is already absent (for example after a failed Connect).
func (r *BotRegistry) Disconnect(identity string) {
	r.mu.Lock()
	bot, exists := r.bots[identity]
	if exists {
		delete(r.bots, identity)
	}
	r.mu.Unlock()

	if !exists {
		return
	}
	logger.InfoCF("registry", "Bot disconnected", map[string]interface{}{
		"self_id":   identity,
		"transport": string(bot.Kind),
	})
	if r.onDisconnect != nil {
		r.onDisconnect(bot)
	}
}

// Get returns the active session for identity.
func (r *BotRegistry) Get(identity string) (*Bot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bot, ok := r.bots[identity]
	return bot, ok
}

// Bots snapshots the active sessions.
func (r *BotRegistry) Bots() []*Bot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Bot, 0, len(r.bots))
	for _, bot := range r.bots {
		out = append(out, bot)
	}
	return out
}
