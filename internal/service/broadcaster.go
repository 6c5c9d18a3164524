package service

import "github.com/mesmerism/api/internal/domain"

// EventBroadcaster pushes envelopes onto the shared realtime channel. The
// websocket hub implements it; tests substitute a recorder.
type EventBroadcaster interface {
	BroadcastEvent(event domain.EventType, payload any)
	BroadcastRowChange(table, action string, record any)
}
