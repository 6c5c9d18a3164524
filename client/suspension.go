package client

import (
	"sync"
	"time"

	"github.com/mesmerism/api/internal/domain"
)

type NoticeKind int

const (
	NoticeNone NoticeKind = iota
	// NoticeBlocking is the non-dismissible suspension banner.
	NoticeBlocking
	// NoticeCleared is the short-lived success notice after a lift.
	NoticeCleared
)

// Notice is what the suspension banner should currently show.
type Notice struct {
	Kind      NoticeKind
	Reason    string
	Permanent bool
	// Remaining is the time left on a temporary suspension, zero for
	// permanent.
	Remaining time.Duration
}

// SuspensionBanner derives the banner state for the locally loaded user from
// the initial snapshot and live USER_SUSPENSION pushes. Events targeting
// other users are ignored.
type SuspensionBanner struct {
	store *StateStore
	now   func() time.Time

	mu      sync.Mutex
	cleared bool

	unsub func()
}

func NewSuspensionBanner(store *StateStore, dispatcher *Dispatcher) *SuspensionBanner {
	b := &SuspensionBanner{
		store: store,
		now:   time.Now,
	}

	if dispatcher != nil {
		b.unsub = dispatcher.Subscribe(domain.EventUserSuspension, b.onSuspension)
	}

	return b
}

// Close unregisters the live subscription. Idempotent.
func (b *SuspensionBanner) Close() {
	b.mu.Lock()
	unsub := b.unsub
	b.unsub = nil
	b.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (b *SuspensionBanner) onSuspension(payload any) {
	p, ok := payload.(domain.SuspensionPayload)
	if !ok {
		return
	}

	user := b.store.User()
	if user == nil || user.ID != p.TargetUserID {
		return
	}

	b.mu.Lock()
	b.cleared = p.ClearedSuspension
	b.mu.Unlock()
}

// Current returns what the banner should show right now. The store is read
// fresh on every call; the session manager has already folded any suspension
// events into it.
func (b *SuspensionBanner) Current() Notice {
	user := b.store.User()
	if user == nil {
		return Notice{Kind: NoticeNone}
	}

	if !user.Suspended {
		b.mu.Lock()
		cleared := b.cleared
		b.mu.Unlock()

		if cleared {
			return Notice{Kind: NoticeCleared}
		}
		return Notice{Kind: NoticeNone}
	}

	notice := Notice{
		Kind:   NoticeBlocking,
		Reason: user.SuspensionReason,
	}
	if user.SuspensionExpiresAt == nil {
		notice.Permanent = true
		return notice
	}

	remaining := user.SuspensionExpiresAt.Sub(b.now())
	if remaining <= 0 {
		// Expired but not yet re-fetched; treat as lifted.
		return Notice{Kind: NoticeNone}
	}
	notice.Remaining = remaining

	return notice
}

// AcknowledgeCleared resets the short-lived success notice once shown.
func (b *SuspensionBanner) AcknowledgeCleared() {
	b.mu.Lock()
	b.cleared = false
	b.mu.Unlock()
}
