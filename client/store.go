package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesmerism/api/internal/domain"
)

// StateStore holds the shared derived snapshot: who am I, what week is
// current, am I connected. Every read returns a copy taken under the lock, so
// callers always see the latest committed state rather than a stale capture.
type StateStore struct {
	mu            sync.RWMutex
	user          *domain.UserOverview
	currentWeekID uint
	connected     bool
}

func NewStateStore() *StateStore {
	return &StateStore{
		currentWeekID: domain.DefaultWeekID,
	}
}

// User returns a copy of the loaded overview, or nil when signed out.
func (s *StateStore) User() *domain.UserOverview {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// SetUser replaces the loaded overview. Passing nil clears it (sign-out).
func (s *StateStore) SetUser(overview *domain.UserOverview) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if overview == nil {
		s.user = nil
		return
	}
	u := *overview
	s.user = &u
}

// SetBalance patches only the balance of the loaded user. A no-op when no
// user is loaded.
func (s *StateStore) SetBalance(newBalance int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return
	}
	s.user.Balance = newBalance
}

// ApplyPaymentEvent folds a balance-affecting push into the store. Events for
// a different user than the one loaded are silently ignored; on a shared
// channel every client sees every event.
func (s *StateStore) ApplyPaymentEvent(p domain.PaymentEventPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || s.user.ID != p.UserID {
		return
	}
	if p.Status != domain.TopupStatusConfirmed {
		return
	}
	s.user.Balance = p.NewBalance
}

// ApplyVoteEvent folds a vote purchase push into the store under the same
// user-id guard.
func (s *StateStore) ApplyVoteEvent(p domain.VoteCreatedPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || s.user.ID != p.UserID {
		return
	}
	s.user.Balance = p.NewBalance
}

// ApplySuspensionEvent updates the loaded user's suspension fields when the
// event targets them.
func (s *StateStore) ApplySuspensionEvent(p domain.SuspensionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil || s.user.ID != p.TargetUserID {
		return
	}

	if p.ClearedSuspension {
		s.user.Suspended = false
		s.user.SuspensionReason = ""
		s.user.SuspensionExpiresAt = nil
		return
	}

	s.user.Suspended = true
	s.user.SuspensionReason = p.Reason
	s.user.SuspensionExpiresAt = p.ExpiresAt
}

func (s *StateStore) CurrentWeekID() uint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentWeekID
}

func (s *StateStore) SetCurrentWeekID(id uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentWeekID = id
}

func (s *StateStore) Connected() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connected
}

func (s *StateStore) SetConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = connected
}

// RefreshUserBalance re-reads the authoritative balance and overwrites the
// local copy. The reconciliation fallback for a missed or reordered event.
func (s *StateStore) RefreshUserBalance(ctx context.Context, backend Backend) error {
	balance, err := backend.GetBalance(ctx)
	if err != nil {
		return fmt.Errorf("backend.GetBalance -> %w", err)
	}

	s.SetBalance(balance)
	return nil
}
