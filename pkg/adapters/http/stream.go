package http

import (
	"log/slog"
	"sync"
)

// historyLimit bounds the number of finished runs whose terminal message is kept.
const historyLimit = 256

// StreamManager fans run messages out to SSE subscribers.
// Intermediate messages are dropped for slow clients; the terminal message of
// a run is kept and handed to every subscriber, including late ones.
type StreamManager struct {
	mu          sync.Mutex
	subscribers map[string]map[chan string]struct{} // RunID -> set of channels
	terminal    map[string]string
	order       []string
	logger      *slog.Logger
}

func NewStreamManager(logger *slog.Logger) *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan string]struct{}),
		terminal:    make(map[string]string),
		logger:      logger,
	}
}

// Subscribe registers a subscriber for runID. When the run already finished,
// the channel is nil and done carries the terminal message.
func (sm *StreamManager) Subscribe(runID string) (ch chan string, done string, cancel func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if msg, ok := sm.terminal[runID]; ok {
		return nil, msg, func() {}
	}

	ch = make(chan string, 16)
	if _, ok := sm.subscribers[runID]; !ok {
		sm.subscribers[runID] = make(map[chan string]struct{})
	}
	sm.subscribers[runID][ch] = struct{}{}

	return ch, "", func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[runID]; ok {
			if _, live := subs[ch]; live {
				delete(subs, ch)
				close(ch)
			}
			if len(subs) == 0 {
				delete(sm.subscribers, runID)
			}
		}
	}
}

// Broadcast delivers an intermediate message.
func (sm *StreamManager) Broadcast(runID string, msg string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	for ch := range sm.subscribers[runID] {
		select {
		case ch <- msg:
		default:
			sm.logger.Warn("SSE: client buffer full, dropping message", "run_id", runID)
		}
	}
}

// Finish records the terminal message and closes every subscriber channel.
// Subscribers read the terminal message through Terminal once their channel
// is closed.
func (sm *StreamManager) Finish(runID string, msg string) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.terminal[runID] = msg
	sm.order = append(sm.order, runID)
	if len(sm.order) > historyLimit {
		delete(sm.terminal, sm.order[0])
		sm.order = sm.order[1:]
	}

	for ch := range sm.subscribers[runID] {
		close(ch)
	}
	delete(sm.subscribers, runID)
}

// Terminal returns the terminal message of a finished run.
func (sm *StreamManager) Terminal(runID string) (string, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	msg, ok := sm.terminal[runID]
	return msg, ok
}
