// Package adapter terminates the three OneBot v11 transports (HTTP
// webhook, WebSocket server, forward WebSocket client), authenticates
// inbound traffic, maintains one bot session per remote identity, and
// hands decoded events to the downstream framework.
package adapter

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/eya46/adapter-onebot/pkg/config"
	"github.com/eya46/adapter-onebot/pkg/logger"
	"github.com/eya46/adapter-onebot/pkg/onebot"
)

// Options wires the external framework into the adapter. All hooks are
// optional; a nil OnEvent makes the adapter decode-and-drop.
type Options struct {
	// OnEvent receives every decoded event as an independent unit of work.
	OnEvent EventHandler
	// OnBotConnect and OnBotDisconnect fire synchronously at the session
	// registry boundary.
	OnBotConnect    LifecycleHook
	OnBotDisconnect LifecycleHook
}

// Adapter is the OneBot v11 bridge. Construct with New, then Start; the
// same instance serves all transports for the process lifetime.
type Adapter struct {
	cfg        *config.Config
	registry   *BotRegistry
	results    *onebot.ResultStore
	decoder    *onebot.Decoder
	dispatcher *Dispatcher

	server    *http.Server
	forwardWG sync.WaitGroup
}

func New(cfg *config.Config, opts Options) *Adapter {
	results := onebot.NewResultStore()
	return &Adapter{
		cfg:        cfg,
		registry:   NewBotRegistry(opts.OnBotConnect, opts.OnBotDisconnect),
		results:    results,
		decoder:    onebot.NewDecoder(results),
		dispatcher: NewDispatcher(opts.OnEvent),
	}
}

// Registry exposes the shared session registry (status surfaces, tests).
func (a *Adapter) Registry() *BotRegistry { return a.registry }

// Handler returns the passive-transport routes. Split out of Start so
// tests can mount the adapter on httptest servers.
func (a *Adapter) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /onebot/v11/http", a.handleHTTP)
	// Legacy alias kept for gateways configured against the old path.
	mux.HandleFunc("POST /onebot/v11/", a.handleHTTP)
	mux.HandleFunc("GET /onebot/v11/ws", a.handleWS)
	return mux
}

// Start binds the passive server and launches one reconnect loop per
// configured forward URL. Cancelling ctx stops the forward loops;
// Stop shuts down the server.
func (a *Adapter) Start(ctx context.Context) error {
	// No Read/WriteTimeout: the ws route holds connections open
	// indefinitely. Slowloris protection comes from ReadHeaderTimeout.
	a.server = &http.Server{
		Addr:              a.cfg.Addr(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.InfoCF("adapter", "OneBot v11 adapter starting", map[string]interface{}{
		"addr":         a.cfg.Addr(),
		"forward_urls": len(a.cfg.OneBot.WSUrls),
	})

	a.startForward(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorCF("adapter", "Server error", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	return nil
}

// Stop gracefully shuts down the passive server and waits for forward
// loops and in-flight event handlers, bounded by ctx.
func (a *Adapter) Stop(ctx context.Context) error {
	var err error
	if a.server != nil {
		err = a.server.Shutdown(ctx)
	}

	done := make(chan struct{})
	go func() {
		a.forwardWG.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if drainErr := a.dispatcher.Drain(ctx); drainErr != nil && err == nil {
		err = drainErr
	}
	return err
}
