package client

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mesmerism/api/internal/domain"
)

func TestStateStore_SetBalanceWithoutUserIsNoop(t *testing.T) {
	s := NewStateStore()

	assert.NotPanics(t, func() { s.SetBalance(100) })
	assert.Nil(t, s.User())
}

func TestStateStore_ApplyPaymentEventIgnoresOtherUsers(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1, Balance: 0})

	s.ApplyPaymentEvent(domain.PaymentEventPayload{
		UserID:     2,
		Status:     domain.TopupStatusConfirmed,
		NewBalance: 500,
	})

	assert.Equal(t, 0, s.User().Balance)
}

func TestStateStore_ApplyPaymentEventConfirmedUpdatesBalance(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1, Balance: 0})

	s.ApplyPaymentEvent(domain.PaymentEventPayload{
		UserID:     1,
		Status:     domain.TopupStatusConfirmed,
		NewBalance: 20,
	})

	assert.Equal(t, 20, s.User().Balance)
}

func TestStateStore_ApplyPaymentEventFailedLeavesBalance(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1, Balance: 7})

	s.ApplyPaymentEvent(domain.PaymentEventPayload{
		UserID: 1,
		Status: domain.TopupStatusFailed,
	})

	assert.Equal(t, 7, s.User().Balance)
}

func TestStateStore_UserReturnsCopy(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1, Balance: 10})

	u := s.User()
	u.Balance = 999

	assert.Equal(t, 10, s.User().Balance)
}

func TestStateStore_ApplySuspensionEvent(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1})

	expires := time.Now().Add(5 * time.Minute)
	s.ApplySuspensionEvent(domain.SuspensionPayload{
		TargetUserID: 1,
		Reason:       "spam",
		ExpiresAt:    &expires,
	})

	user := s.User()
	assert.True(t, user.Suspended)
	assert.Equal(t, "spam", user.SuspensionReason)

	s.ApplySuspensionEvent(domain.SuspensionPayload{
		TargetUserID:      1,
		ClearedSuspension: true,
	})

	user = s.User()
	assert.False(t, user.Suspended)
	assert.Empty(t, user.SuspensionReason)
	assert.Nil(t, user.SuspensionExpiresAt)
}

func TestStateStore_ApplySuspensionEventIgnoresOtherUsers(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1})

	s.ApplySuspensionEvent(domain.SuspensionPayload{
		TargetUserID: 99,
		Reason:       "spam",
	})

	assert.False(t, s.User().Suspended)
}

func TestStateStore_SetUserNilClears(t *testing.T) {
	s := NewStateStore()
	s.SetUser(&domain.UserOverview{ID: 1})
	s.SetUser(nil)

	assert.Nil(t, s.User())
}
