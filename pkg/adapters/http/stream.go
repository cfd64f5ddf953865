package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/loadbank/internal/logging"
	"github.com/aretw0/loadbank/pkg/domain"
)

// streamBuffer is the per-subscriber backlog before events are dropped.
const streamBuffer = 16

// StreamManager fans invocation events out to active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[chan StreamEvent]struct{}
	logger      *slog.Logger
}

// StreamEvent is one encoded invocation event.
type StreamEvent struct {
	Type    domain.EventType
	Payload []byte
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[chan StreamEvent]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a new subscriber. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe() (<-chan StreamEvent, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan StreamEvent, streamBuffer)
	sm.subscribers[ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subscribers, ch)
			close(ch)
		})
	}
}

// Subscribers returns the number of active subscribers.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends e to every subscriber without blocking.
func (sm *StreamManager) Broadcast(e *domain.InvokeEvent) {
	payload, err := json.Marshal(e)
	if err != nil {
		sm.logger.Error("StreamManager: encode failed", "error", err)
		return
	}

	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers {
		select {
		case ch <- StreamEvent{Type: e.Type, Payload: payload}:
		default:
			// Slow client
			sm.logger.Warn("SSE: Client buffer full, dropping event", "type", e.Type, "invocation_id", e.Invocation.ID)
		}
	}
}

// Hooks returns invoker hooks that broadcast every event.
func (sm *StreamManager) Hooks() domain.InvokeHooks {
	return domain.InvokeHooks{
		OnStart:  func(_ context.Context, e *domain.InvokeEvent) { sm.Broadcast(e) },
		OnFinish: func(_ context.Context, e *domain.InvokeEvent) { sm.Broadcast(e) },
	}
}
