package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/mesmerism/api/internal/domain"
)

type PurchasePhase int

const (
	PurchaseIdle PurchasePhase = iota
	// PurchaseWaiting means the top-up is pending and the flow is waiting for
	// the provider confirmation push. There is no client-side timeout.
	PurchaseWaiting
	PurchaseConfirmed
	PurchaseFailed
)

// PurchaseFlow drives one coin top-up: create the pending record, then wait
// for a payment push whose user id and reference token both match. The
// subscription is torn down when the flow closes or a new purchase begins,
// so a stale handler can never fire against a later attempt.
type PurchaseFlow struct {
	backend    Backend
	dispatcher *Dispatcher
	store      *StateStore

	mu           sync.Mutex
	phase        PurchasePhase
	providerRef  string
	clientSecret string
	newBalance   int

	// pending holds payment events for the loaded user that arrived before
	// the create call returned the reference; they replay once it is known.
	pending []domain.PaymentEventPayload

	unsubs []func()
}

func NewPurchaseFlow(backend Backend, dispatcher *Dispatcher, store *StateStore) *PurchaseFlow {
	return &PurchaseFlow{
		backend:    backend,
		dispatcher: dispatcher,
		store:      store,
	}
}

// Begin opens a pending top-up of amount coins and starts waiting for its
// confirmation. The wait is armed before the create call, so a push arriving
// while the create is still in flight is held and replayed once the reference
// is known. Any previous wait is torn down first.
func (f *PurchaseFlow) Begin(ctx context.Context, amount int) (clientSecret string, err error) {
	f.teardownSubscriptions()

	f.mu.Lock()
	f.phase = PurchaseWaiting
	f.providerRef = ""
	f.clientSecret = ""
	f.newBalance = 0
	f.pending = nil
	f.unsubs = append(f.unsubs,
		f.dispatcher.Subscribe(domain.EventPaymentEvent, f.onPaymentEvent),
		f.dispatcher.Subscribe(domain.EventPaymentConfirmed, f.onPaymentEvent),
	)
	f.mu.Unlock()

	topup, secret, err := f.backend.CreateTopup(ctx, amount)
	if err != nil {
		f.teardownSubscriptions()

		f.mu.Lock()
		f.phase = PurchaseIdle
		f.pending = nil
		f.mu.Unlock()
		return "", fmt.Errorf("backend.CreateTopup -> %w", err)
	}

	f.mu.Lock()
	f.providerRef = topup.ProviderRef
	f.clientSecret = secret
	held := f.pending
	f.pending = nil
	for _, p := range held {
		f.applyLocked(p)
	}
	f.mu.Unlock()

	return secret, nil
}

// Phase returns the current flow phase and, when confirmed, the balance the
// event reported.
func (f *PurchaseFlow) Phase() (PurchasePhase, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase, f.newBalance
}

// Close tears the wait down regardless of outcome. Idempotent.
func (f *PurchaseFlow) Close() {
	f.teardownSubscriptions()

	f.mu.Lock()
	f.phase = PurchaseIdle
	f.providerRef = ""
	f.clientSecret = ""
	f.pending = nil
	f.mu.Unlock()
}

func (f *PurchaseFlow) onPaymentEvent(payload any) {
	p, ok := payload.(domain.PaymentEventPayload)
	if !ok {
		return
	}

	// Both guards must hold: the event is for the loaded user AND for this
	// exact purchase. A shared channel delivers everyone's payments.
	user := f.store.User()
	if user == nil || user.ID != p.UserID {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.phase != PurchaseWaiting {
		return
	}

	// The create call has not returned yet; hold the event until the
	// reference is known.
	if f.providerRef == "" {
		f.pending = append(f.pending, p)
		return
	}

	f.applyLocked(p)
}

func (f *PurchaseFlow) applyLocked(p domain.PaymentEventPayload) {
	if f.phase != PurchaseWaiting || p.ProviderRef != f.providerRef {
		return
	}

	switch p.Status {
	case domain.TopupStatusConfirmed:
		f.phase = PurchaseConfirmed
		f.newBalance = p.NewBalance
	case domain.TopupStatusFailed:
		f.phase = PurchaseFailed
	}
}

func (f *PurchaseFlow) teardownSubscriptions() {
	f.mu.Lock()
	unsubs := f.unsubs
	f.unsubs = nil
	f.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}
