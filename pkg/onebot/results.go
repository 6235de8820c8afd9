package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/eya46/adapter-onebot/pkg/logger"
)

// ErrNoEcho is returned by Resolve when the payload carries no usable
// echo field.
var ErrNoEcho = errors.New("onebot: api result without echo")

// ResultStore correlates asynchronous API results with the calls that
// produced them. Callers register an echo id before sending the call and
// wait on the returned channel; every payload the decoder classifies as
// an API result is resolved against the pending set.
//
// One store is shared by all connections; access is mutex-guarded.
type ResultStore struct {
	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

func NewResultStore() *ResultStore {
	return &ResultStore{pending: make(map[string]chan json.RawMessage)}
}

// Register reserves a slot for echo and returns the channel the result
// will be delivered on. The channel is buffered so delivery never blocks
// the receiving connection.
func (s *ResultStore) Register(echo string) <-chan json.RawMessage {
	ch := make(chan json.RawMessage, 1)
	s.mu.Lock()
	s.pending[echo] = ch
	s.mu.Unlock()
	return ch
}

// Discard drops a pending slot. Idempotent; called when a waiter gives up.
func (s *ResultStore) Discard(echo string) {
	s.mu.Lock()
	delete(s.pending, echo)
	s.mu.Unlock()
}

// Resolve delivers an API-result payload to its waiter, keyed by the
// payload's echo field. Results nobody is waiting for are logged at
// debug level and dropped.
func (s *ResultStore) Resolve(data []byte) error {
	var envelope struct {
		Echo string `json:"echo"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil || envelope.Echo == "" {
		logger.DebugC("results", "API result without echo, dropped")
		return ErrNoEcho
	}

	s.mu.Lock()
	ch, ok := s.pending[envelope.Echo]
	if ok {
		delete(s.pending, envelope.Echo)
	}
	s.mu.Unlock()

	if !ok {
		logger.DebugCF("results", "API result with unknown echo, dropped", map[string]interface{}{
			"echo": envelope.Echo,
		})
		return nil
	}

	// Copy: the caller may reuse the read buffer after Resolve returns.
	ch <- json.RawMessage(append([]byte(nil), data...))
	return nil
}

// Wait blocks until the result for echo arrives or ctx is done. The slot
// is discarded on timeout so late results do not leak.
func (s *ResultStore) Wait(ctx context.Context, echo string, ch <-chan json.RawMessage) (json.RawMessage, error) {
	select {
	case data := <-ch:
		return data, nil
	case <-ctx.Done():
		s.Discard(echo)
		return nil, ctx.Err()
	}
}
