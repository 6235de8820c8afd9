package adapter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eya46/adapter-onebot/pkg/config"
	"github.com/eya46/adapter-onebot/pkg/onebot"
)

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(*http.Request) bool { return true },
}

const lifecycleConnectBody = `{"time":1,"self_id":42,"post_type":"meta_event",` +
	`"meta_event_type":"lifecycle","sub_type":"connect"}`

const forwardMessageBody = `{"time":1,"self_id":42,"post_type":"message",` +
	`"message_type":"private","sub_type":"friend","message_id":2,"user_id":5,` +
	`"message":"hi","raw_message":"hi","font":0,"sender":{}}`

func forwardTarget(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func startForwardLoops(t *testing.T, a *Adapter) context.CancelFunc {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	a.startForward(ctx)
	t.Cleanup(func() {
		cancel()
		a.forwardWG.Wait()
	})
	return cancel
}

func TestForwardRetriesWithoutTerminating(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "not yet", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, _ := newTestAdapter(func(cfg *config.Config) {
		cfg.OneBot.WSUrls = []string{forwardTarget(srv)}
	})
	startForwardLoops(t, a)

	// Failed dials keep coming at the fixed interval; the loop never
	// gives up and never deadlocks.
	require.Eventually(t, func() bool {
		return attempts.Load() >= 4
	}, 5*time.Second, 10*time.Millisecond)
	assert.Empty(t, a.Registry().Bots())
}

func TestForwardSkipsBadURLs(t *testing.T) {
	var attempts atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		http.Error(w, "no", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a, _ := newTestAdapter(func(cfg *config.Config) {
		cfg.OneBot.WSUrls = []string{
			"://not-a-url",
			"http://wrong-scheme.example",
			forwardTarget(srv),
		}
	})
	startForwardLoops(t, a)

	// Only the well-formed ws:// URL gets a loop.
	require.Eventually(t, func() bool {
		return attempts.Load() >= 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestForwardIdentificationGate(t *testing.T) {
	authHeader := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case authHeader <- r.Header.Get("Authorization"):
		default:
		}
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// An ordinary event before identification must be dropped.
		conn.WriteMessage(websocket.TextMessage, []byte(forwardMessageBody))
		conn.WriteMessage(websocket.TextMessage, []byte(lifecycleConnectBody))
		conn.WriteMessage(websocket.TextMessage, []byte(forwardMessageBody))

		// Hold the connection open until the adapter goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	a, events := newTestAdapter(func(cfg *config.Config) {
		cfg.OneBot.AccessToken = "tok"
		cfg.OneBot.WSUrls = []string{forwardTarget(srv)}
	})
	startForwardLoops(t, a)

	// The dial carried the configured bearer token.
	select {
	case h := <-authHeader:
		assert.Equal(t, "Bearer tok", h)
	case <-time.After(2 * time.Second):
		t.Fatal("gateway never dialed")
	}

	// Dispatched handlers run independently and may arrive in any order,
	// so count by type: the connect event plus exactly one message. A
	// second message would mean the pre-identification event leaked
	// through.
	var connects, messages int
	for i := 0; i < 2; i++ {
		d := waitDispatch(t, events)
		assert.Equal(t, "42", d.bot.Identity)
		assert.Equal(t, KindForwardWS, d.bot.Kind)
		switch ev := d.ev.(type) {
		case *onebot.LifecycleMetaEvent:
			assert.True(t, ev.IsConnect())
			connects++
		case *onebot.PrivateMessageEvent:
			messages++
		default:
			t.Fatalf("unexpected event %T", d.ev)
		}
	}
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, messages)
	assertNoDispatch(t, events)

	bot, ok := a.Registry().Get("42")
	require.True(t, ok)
	assert.Equal(t, KindForwardWS, bot.Kind)
}

func TestForwardTeardownAndReconnect(t *testing.T) {
	var conns atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := conns.Add(1)
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conn.WriteMessage(websocket.TextMessage, []byte(lifecycleConnectBody))
		if n == 1 {
			// Kill the first connection right after identification.
			conn.Close()
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	a, events := newTestAdapter(func(cfg *config.Config) {
		cfg.OneBot.WSUrls = []string{forwardTarget(srv)}
	})
	startForwardLoops(t, a)

	// First connection identifies, then dies; the loop reconnects and
	// identifies again on the second connection.
	waitDispatch(t, events)
	require.Eventually(t, func() bool {
		return conns.Load() >= 2
	}, 5*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		_, ok := a.Registry().Get("42")
		return ok
	}, 5*time.Second, 10*time.Millisecond)
}
