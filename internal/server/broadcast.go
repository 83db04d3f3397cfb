package server

import (
	"context"
	"encoding/json"

	"github.com/mlgudi/chance-man-sub000/internal/event"
	"github.com/mlgudi/chance-man-sub000/internal/item"
)

type eventMessage struct {
	Type     string  `json:"type"`
	Message  string  `json:"message"`
	Trigger  item.ID `json:"trigger,omitempty"`
	Unlocked item.ID `json:"unlocked,omitempty"`
	Manual   bool    `json:"manual,omitempty"`
	Profile  string  `json:"profile,omitempty"`
}

// EventBroadcaster forwards bus events to every connected client so the UI
// panel can mirror unlocks and profile changes without polling.
func EventBroadcaster(hub *WebSocketServer) event.Handler {
	return func(_ context.Context, e event.Event) error {
		var msg eventMessage
		switch evt := e.(type) {
		case event.RollCompletedEvent:
			msg = eventMessage{
				Type:     "unlock",
				Message:  evt.Message(),
				Trigger:  evt.Trigger,
				Unlocked: evt.Unlocked,
				Manual:   evt.Manual,
			}
		case event.ProfileActivatedEvent:
			msg = eventMessage{Type: "profile", Message: evt.Message(), Profile: evt.Profile}
		case event.ProfileDeactivatedEvent:
			msg = eventMessage{Type: "profile", Message: evt.Message(), Profile: evt.Profile}
		case event.ConfigReloadedEvent:
			msg = eventMessage{Type: "config", Message: evt.Message()}
		default:
			return nil
		}

		data, err := json.Marshal(msg)
		if err != nil {
			return err
		}
		hub.Broadcast(data)
		return nil
	}
}
