package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesmerism/api/internal/domain"
)

func newTestPurchase(backend *fakeBackend) (*PurchaseFlow, *Dispatcher, *StateStore) {
	d := NewDispatcher()
	store := NewStateStore()
	store.SetUser(&domain.UserOverview{ID: 1, Balance: 0})
	return NewPurchaseFlow(backend, d, store), d, store
}

func TestPurchaseFlow_ConfirmationCompletesTheFlow(t *testing.T) {
	backend := &fakeBackend{
		topup: domain.CoinTopup{ID: 1, UserID: 1, Status: domain.TopupStatusPending, ProviderRef: "ref-1"},
	}
	f, d, _ := newTestPurchase(backend)
	defer f.Close()

	secret, err := f.Begin(context.Background(), 20)
	require.NoError(t, err)
	assert.Equal(t, "secret_ref-1", secret)

	phase, _ := f.Phase()
	assert.Equal(t, PurchaseWaiting, phase)

	d.Dispatch(domain.EventPaymentEvent, domain.PaymentEventPayload{
		UserID:      1,
		Status:      domain.TopupStatusConfirmed,
		ProviderRef: "ref-1",
		NewBalance:  20,
	})

	phase, balance := f.Phase()
	assert.Equal(t, PurchaseConfirmed, phase)
	assert.Equal(t, 20, balance)
}

func TestPurchaseFlow_PushDuringCreateIsNotLost(t *testing.T) {
	backend := &fakeBackend{
		topup: domain.CoinTopup{ID: 1, UserID: 1, Status: domain.TopupStatusPending, ProviderRef: "ref-1"},
	}
	f, d, _ := newTestPurchase(backend)
	defer f.Close()

	// The confirmation lands while the create call is still in flight; the
	// flow must hold it and apply it once the reference is known.
	backend.topupHook = func() {
		d.Dispatch(domain.EventPaymentEvent, domain.PaymentEventPayload{
			UserID:      1,
			Status:      domain.TopupStatusConfirmed,
			ProviderRef: "ref-1",
			NewBalance:  20,
		})
	}

	_, err := f.Begin(context.Background(), 20)
	require.NoError(t, err)

	phase, balance := f.Phase()
	assert.Equal(t, PurchaseConfirmed, phase)
	assert.Equal(t, 20, balance)
}

func TestPurchaseFlow_MismatchedReferenceIsIgnored(t *testing.T) {
	backend := &fakeBackend{
		topup: domain.CoinTopup{ID: 1, UserID: 1, Status: domain.TopupStatusPending, ProviderRef: "ref-1"},
	}
	f, d, _ := newTestPurchase(backend)
	defer f.Close()

	_, err := f.Begin(context.Background(), 20)
	require.NoError(t, err)

	d.Dispatch(domain.EventPaymentEvent, domain.PaymentEventPayload{
		UserID:      1,
		Status:      domain.TopupStatusConfirmed,
		ProviderRef: "someone-elses-ref",
		NewBalance:  99,
	})

	phase, _ := f.Phase()
	assert.Equal(t, PurchaseWaiting, phase)
}

func TestPurchaseFlow_OtherUsersEventIsIgnored(t *testing.T) {
	backend := &fakeBackend{
		topup: domain.CoinTopup{ID: 1, UserID: 1, Status: domain.TopupStatusPending, ProviderRef: "ref-1"},
	}
	f, d, _ := newTestPurchase(backend)
	defer f.Close()

	_, err := f.Begin(context.Background(), 20)
	require.NoError(t, err)

	// Same reference, wrong user: a shared channel delivers everyone's
	// payments, so both guards must hold.
	d.Dispatch(domain.EventPaymentEvent, domain.PaymentEventPayload{
		UserID:      2,
		Status:      domain.TopupStatusConfirmed,
		ProviderRef: "ref-1",
	})

	phase, _ := f.Phase()
	assert.Equal(t, PurchaseWaiting, phase)
}

func TestPurchaseFlow_FailedEventFailsTheFlow(t *testing.T) {
	backend := &fakeBackend{
		topup: domain.CoinTopup{ID: 1, UserID: 1, Status: domain.TopupStatusPending, ProviderRef: "ref-1"},
	}
	f, d, _ := newTestPurchase(backend)
	defer f.Close()

	_, err := f.Begin(context.Background(), 20)
	require.NoError(t, err)

	d.Dispatch(domain.EventPaymentEvent, domain.PaymentEventPayload{
		UserID:      1,
		Status:      domain.TopupStatusFailed,
		ProviderRef: "ref-1",
	})

	phase, _ := f.Phase()
	assert.Equal(t, PurchaseFailed, phase)
}

func TestPurchaseFlow_BeginErrorStaysIdle(t *testing.T) {
	backend := &fakeBackend{topupErr: assert.AnError}
	f, _, _ := newTestPurchase(backend)
	defer f.Close()

	_, err := f.Begin(context.Background(), 20)
	require.Error(t, err)

	phase, _ := f.Phase()
	assert.Equal(t, PurchaseIdle, phase)
}

func TestPurchaseFlow_CloseStopsListening(t *testing.T) {
	backend := &fakeBackend{
		topup: domain.CoinTopup{ID: 1, UserID: 1, Status: domain.TopupStatusPending, ProviderRef: "ref-1"},
	}
	f, d, _ := newTestPurchase(backend)

	_, err := f.Begin(context.Background(), 20)
	require.NoError(t, err)

	f.Close()

	d.Dispatch(domain.EventPaymentEvent, domain.PaymentEventPayload{
		UserID:      1,
		Status:      domain.TopupStatusConfirmed,
		ProviderRef: "ref-1",
		NewBalance:  20,
	})

	phase, _ := f.Phase()
	assert.Equal(t, PurchaseIdle, phase)
}
