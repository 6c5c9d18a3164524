// Package client implements the realtime synchronization layer an interactive
// frontend builds on: one shared channel connection, a typed event dispatcher,
// a derived-state store mirroring server-authoritative data, and the feature
// consumers (chat, leaderboard, suspension banner, coin purchase) that fold
// pushed events into local state.
package client

import (
	"sync"

	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/domain"
)

// Callback receives the parsed payload of a dispatched event. For broadcast
// events the payload is the narrowed type domain.ParseBroadcast returns; for
// chat row changes it is a RowChange.
type Callback func(payload any)

// EventChatRowChange is the dispatcher key chat row images are delivered
// under, alongside the named broadcast tags.
const EventChatRowChange domain.EventType = "ROW_CHANGE:chat_messages"

// RowChange is the payload dispatched under EventChatRowChange.
type RowChange struct {
	Action  string
	Message domain.ChatMessage
}

// Dispatcher is a typed publish/subscribe registry decoupling the channel
// reader from feature consumers. Dispatch is synchronous; a callback that
// panics is logged and never takes its siblings down.
type Dispatcher struct {
	mu        sync.Mutex
	nextID    int
	listeners map[domain.EventType]map[int]Callback
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		listeners: make(map[domain.EventType]map[int]Callback),
	}
}

// Subscribe registers cb under eventType and returns a function that removes
// exactly this registration. Calling the returned function more than once is
// a no-op.
func (d *Dispatcher) Subscribe(eventType domain.EventType, cb Callback) (unsubscribe func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.nextID++
	id := d.nextID

	set, ok := d.listeners[eventType]
	if !ok {
		set = make(map[int]Callback)
		d.listeners[eventType] = set
	}
	set[id] = cb

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()

		set, ok := d.listeners[eventType]
		if !ok {
			return
		}
		delete(set, id)
		if len(set) == 0 {
			delete(d.listeners, eventType)
		}
	}
}

// Dispatch invokes every callback currently registered for eventType with
// payload. Dispatching a type with no listeners is a defined no-op.
func (d *Dispatcher) Dispatch(eventType domain.EventType, payload any) {
	d.mu.Lock()
	set := d.listeners[eventType]
	cbs := make([]Callback, 0, len(set))
	for _, cb := range set {
		cbs = append(cbs, cb)
	}
	d.mu.Unlock()

	for _, cb := range cbs {
		d.invoke(eventType, cb, payload)
	}
}

func (d *Dispatcher) invoke(eventType domain.EventType, cb Callback, payload any) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("event callback panicked",
				zap.String("event", string(eventType)),
				zap.Any("panic", r))
		}
	}()

	cb(payload)
}
