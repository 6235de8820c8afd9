package adapter

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryConnectDisconnect(t *testing.T) {
	var connected, disconnected []string
	r := NewBotRegistry(
		func(b *Bot) { connected = append(connected, b.Identity) },
		func(b *Bot) { disconnected = append(disconnected, b.Identity) },
	)

	bot := newBot("123", KindPassiveWS, nil, nil, 0)
	require.NoError(t, r.Connect(bot))

	got, ok := r.Get("123")
	require.True(t, ok)
	assert.Same(t, bot, got)
	assert.Equal(t, []string{"123"}, connected)

	// Second session for the same identity is rejected without touching
	// the registered one.
	err := r.Connect(newBot("123", KindPassiveWS, nil, nil, 0))
	assert.ErrorIs(t, err, ErrDuplicateBot)
	got, _ = r.Get("123")
	assert.Same(t, bot, got)
	assert.Equal(t, []string{"123"}, connected)

	r.Disconnect("123")
	_, ok = r.Get("123")
	assert.False(t, ok)
	assert.Equal(t, []string{"123"}, disconnected)

	// Idempotent: absent identity is a no-op and fires no hook.
	r.Disconnect("123")
	assert.Equal(t, []string{"123"}, disconnected)
}

func TestRegistryConcurrentConnect(t *testing.T) {
	var hookCalls atomic.Int64
	r := NewBotRegistry(func(*Bot) { hookCalls.Add(1) }, nil)

	const attempts = 32
	var wg sync.WaitGroup
	var wins atomic.Int64
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r.Connect(newBot("42", KindForwardWS, nil, nil, 0)) == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins.Load())
	assert.Equal(t, int64(1), hookCalls.Load())
	assert.Len(t, r.Bots(), 1)
}
