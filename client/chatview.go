package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/mesmerism/api/internal/domain"
)

const defaultChatPageSize = 50

// ChatView maintains the visible chat list: ascending by created_at, merged
// from an initial page fetch and live row-change pushes, with soft-deleted
// messages excluded. Merging is idempotent; duplicate delivery of the same
// message id replaces rather than appends.
type ChatView struct {
	backend    Backend
	dispatcher *Dispatcher
	pageSize   int

	mu       sync.Mutex
	messages []domain.ChatMessage
	hasMore  bool

	unsubs []func()
}

func NewChatView(backend Backend, dispatcher *Dispatcher) *ChatView {
	v := &ChatView{
		backend:  backend,
		pageSize: defaultChatPageSize,
	}

	if dispatcher != nil {
		v.dispatcher = dispatcher
		v.unsubs = append(v.unsubs,
			dispatcher.Subscribe(EventChatRowChange, v.onRowChange),
			dispatcher.Subscribe(domain.EventChatMessage, v.onChatMessage),
		)
	}

	return v
}

// Close unregisters the live subscriptions. Idempotent.
func (v *ChatView) Close() {
	v.mu.Lock()
	unsubs := v.unsubs
	v.unsubs = nil
	v.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Load fetches the most recent page and replaces the list.
func (v *ChatView) Load(ctx context.Context) error {
	page, err := v.backend.ListMessages(ctx, nil, v.pageSize)
	if err != nil {
		return fmt.Errorf("backend.ListMessages -> %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.messages = v.messages[:0]
	for _, m := range page {
		if !m.Deleted() {
			v.messages = append(v.messages, m)
		}
	}
	v.sortLocked()
	// An exact full page suggests more history; a short page means exhausted.
	v.hasMore = len(page) == v.pageSize

	return nil
}

// LoadMore fetches messages strictly older than the oldest loaded one and
// prepends them. Returns whether more history may remain.
func (v *ChatView) LoadMore(ctx context.Context) (bool, error) {
	v.mu.Lock()
	if len(v.messages) == 0 {
		v.mu.Unlock()
		return v.hasMore, nil
	}
	oldest := v.messages[0].CreatedAt
	v.mu.Unlock()

	before := oldest
	page, err := v.backend.ListMessages(ctx, &before, v.pageSize)
	if err != nil {
		return false, fmt.Errorf("backend.ListMessages -> %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	for _, m := range page {
		if !m.Deleted() {
			v.mergeLocked(m)
		}
	}
	v.hasMore = len(page) == v.pageSize

	return v.hasMore, nil
}

// Messages returns a copy of the visible list, ascending by created_at.
func (v *ChatView) Messages() []domain.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]domain.ChatMessage, len(v.messages))
	copy(out, v.messages)
	return out
}

// HasMore reports whether older history may remain, per the page-size
// heuristic.
func (v *ChatView) HasMore() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.hasMore
}

func (v *ChatView) onRowChange(payload any) {
	change, ok := payload.(RowChange)
	if !ok {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	switch change.Action {
	case domain.RowActionInsert, domain.RowActionUpdate:
		if change.Message.Deleted() {
			v.removeLocked(change.Message.ID)
			return
		}
		v.mergeLocked(change.Message)
	case domain.RowActionDelete:
		v.removeLocked(change.Message.ID)
	}
}

func (v *ChatView) onChatMessage(payload any) {
	message, ok := payload.(domain.ChatMessage)
	if !ok || message.Deleted() {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.mergeLocked(message)
}

// mergeLocked inserts or replaces by id, then restores the created_at order.
// Pushed delivery order does not match timestamp order, so the re-sort is
// load-bearing.
func (v *ChatView) mergeLocked(message domain.ChatMessage) {
	for i := range v.messages {
		if v.messages[i].ID == message.ID {
			v.messages[i] = message
			v.sortLocked()
			return
		}
	}

	v.messages = append(v.messages, message)
	v.sortLocked()
}

func (v *ChatView) removeLocked(id uint) {
	for i := range v.messages {
		if v.messages[i].ID == id {
			v.messages = append(v.messages[:i], v.messages[i+1:]...)
			return
		}
	}
}

func (v *ChatView) sortLocked() {
	sort.SliceStable(v.messages, func(i, j int) bool {
		a, b := v.messages[i], v.messages[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.ID < b.ID
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
