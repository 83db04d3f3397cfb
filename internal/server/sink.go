package server

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/mlgudi/chance-man-sub000/internal/item"
)

// frameInterval is the icon substitution cadence during a spin.
const frameInterval = 100 * time.Millisecond

type frameMessage struct {
	Type string  `json:"type"`
	Item item.ID `json:"item"`
	Name string  `json:"name"`
}

// BroadcastSink renders the roll animation by pushing one frame per icon
// substitution to every connected WebSocket client. The last frame pushed
// before the spin deadline is the final item.
type BroadcastSink struct {
	hub   *WebSocketServer
	names func(item.ID) string

	mu   sync.Mutex
	last item.ID
}

func NewBroadcastSink(hub *WebSocketServer, names func(item.ID) string) *BroadcastSink {
	if names == nil {
		names = func(item.ID) string { return "" }
	}
	return &BroadcastSink{hub: hub, names: names}
}

func (s *BroadcastSink) Start(duration time.Duration, next func() item.ID) {
	deadline := time.Now().Add(duration)
	s.frame(next())

	go func() {
		ticker := time.NewTicker(frameInterval)
		defer ticker.Stop()
		for now := range ticker.C {
			if !now.Before(deadline) {
				return
			}
			s.frame(next())
		}
	}()
}

func (s *BroadcastSink) frame(id item.ID) {
	if id == 0 {
		return
	}
	s.mu.Lock()
	s.last = id
	s.mu.Unlock()

	data, err := json.Marshal(frameMessage{Type: "frame", Item: id, Name: s.names(id)})
	if err != nil {
		return
	}
	s.hub.Broadcast(data)
}

func (s *BroadcastSink) FinalItem() item.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
