package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/domain"
)

// AuthEvent is an authentication lifecycle notification fed into the session
// manager from the auth layer.
type AuthEvent string

const (
	AuthSignedIn       AuthEvent = "SIGNED_IN"
	AuthSignedOut      AuthEvent = "SIGNED_OUT"
	AuthTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

type SessionState int

const (
	SessionDisconnected SessionState = iota
	SessionInitializing
	SessionConnected
	SessionFailed
)

const (
	// defaultSettleDelay lets auth state resolve before the first connect.
	defaultSettleDelay = 300 * time.Millisecond
	initTimeout        = 15 * time.Second
)

// SessionManager owns the single realtime connection for an authenticated
// session and keeps it aligned with auth state. Re-initialization tears the
// prior channel down first; there is never more than one live subscription.
//
// Every attempt carries a generation number captured at its start. Any step
// that completes after the generation has moved on (a newer attempt started,
// sign-out, or Close) abandons its result without touching shared state.
type SessionManager struct {
	transport   Transport
	backend     Backend
	dispatcher  *Dispatcher
	store       *StateStore
	settleDelay time.Duration

	mu          sync.Mutex
	generation  int
	state       SessionState
	conn        Conn
	token       string
	settleTimer *time.Timer
	closed      bool

	unsubs []func()
}

func NewSessionManager(transport Transport, backend Backend, dispatcher *Dispatcher, store *StateStore) *SessionManager {
	m := &SessionManager{
		transport:   transport,
		backend:     backend,
		dispatcher:  dispatcher,
		store:       store,
		settleDelay: defaultSettleDelay,
		state:       SessionDisconnected,
	}

	m.bindStoreConsumers()

	return m
}

// bindStoreConsumers folds the balance- and suspension-affecting events into
// the shared store. The store itself enforces the user-id guard.
func (m *SessionManager) bindStoreConsumers() {
	m.unsubs = append(m.unsubs,
		m.dispatcher.Subscribe(domain.EventPaymentConfirmed, func(payload any) {
			if p, ok := payload.(domain.PaymentEventPayload); ok {
				m.store.ApplyPaymentEvent(p)
			}
		}),
		m.dispatcher.Subscribe(domain.EventPaymentEvent, func(payload any) {
			if p, ok := payload.(domain.PaymentEventPayload); ok {
				m.store.ApplyPaymentEvent(p)
			}
		}),
		m.dispatcher.Subscribe(domain.EventVoteCreated, func(payload any) {
			if p, ok := payload.(domain.VoteCreatedPayload); ok {
				m.store.ApplyVoteEvent(p)
			}
		}),
		m.dispatcher.Subscribe(domain.EventUserSuspension, func(payload any) {
			if p, ok := payload.(domain.SuspensionPayload); ok {
				m.store.ApplySuspensionEvent(p)
			}
		}),
	)
}

// State returns the current connection state.
func (m *SessionManager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Start schedules the first initialization attempt after the settle delay.
// Close before the delay elapses cancels the attempt; no connection is opened
// after teardown.
func (m *SessionManager) Start(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.token = token

	if m.settleTimer != nil {
		m.settleTimer.Stop()
	}
	m.settleTimer = time.AfterFunc(m.settleDelay, m.initialize)
}

// HandleAuthEvent reacts to an auth lifecycle notification. Signed-in and
// token-refreshed re-run the full initialization with fresh credentials;
// signed-out clears derived state and stays down.
func (m *SessionManager) HandleAuthEvent(event AuthEvent, token string) {
	switch event {
	case AuthSignedIn, AuthTokenRefreshed:
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			return
		}
		m.token = token
		m.mu.Unlock()

		go m.initialize()

	case AuthSignedOut:
		m.mu.Lock()
		m.generation++ // abandon any in-flight attempt
		m.teardownConnLocked()
		m.state = SessionDisconnected
		m.store.SetUser(nil)
		m.store.SetConnected(false)
		m.mu.Unlock()
	}
}

// Close tears the session down. Idempotent, and safe even if initialization
// never completed.
func (m *SessionManager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	m.generation++
	if m.settleTimer != nil {
		m.settleTimer.Stop()
		m.settleTimer = nil
	}
	m.teardownConnLocked()
	m.state = SessionDisconnected
	unsubs := m.unsubs
	m.unsubs = nil
	m.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
	m.store.SetConnected(false)
}

func (m *SessionManager) teardownConnLocked() {
	if m.conn != nil {
		m.conn.Close()
		m.conn = nil
	}
}

// initialize runs the full sequence: fetch the authoritative user snapshot,
// fetch the current week, then subscribe the channel. Safe to trigger
// concurrently; the generation counter guarantees at most one attempt wins
// and at most one channel stays open.
func (m *SessionManager) initialize() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	gen := m.generation
	token := m.token
	m.teardownConnLocked()
	m.state = SessionInitializing
	m.mu.Unlock()

	m.store.SetConnected(false)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	overview, err := m.backend.GetSelfOverview(ctx)
	if err != nil {
		m.fail(gen, err)
		return
	}

	week, err := m.backend.CurrentWeek(ctx)
	if err != nil {
		m.fail(gen, err)
		return
	}

	conn, err := m.transport.Dial(ctx, token)
	if err != nil {
		m.fail(gen, err)
		return
	}

	m.mu.Lock()
	if m.closed || gen != m.generation {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.state = SessionConnected
	// The store commit stays inside the generation check: a sign-out landing
	// after the unlock must never be overwritten by a stale attempt.
	m.store.SetUser(&overview)
	m.store.SetCurrentWeekID(week.ID)
	m.store.SetConnected(true)
	m.mu.Unlock()

	go m.readLoop(gen, conn)
}

// fail marks the attempt not-connected. All failures look the same to the
// caller; the next external trigger retries.
func (m *SessionManager) fail(gen int, err error) {
	m.mu.Lock()
	stale := m.closed || gen != m.generation
	if !stale {
		m.state = SessionFailed
		m.store.SetConnected(false)
	}
	m.mu.Unlock()

	if stale {
		return
	}

	zap.L().Warn("realtime session initialization failed", zap.Error(err))
}

func (m *SessionManager) readLoop(gen int, conn Conn) {
	for {
		env, err := conn.ReadEnvelope()
		if err != nil {
			m.mu.Lock()
			stale := m.closed || gen != m.generation
			if !stale {
				m.state = SessionFailed
				m.teardownConnLocked()
				m.store.SetConnected(false)
			}
			m.mu.Unlock()

			if !stale {
				zap.L().Warn("realtime channel closed", zap.Error(err))
			}
			return
		}

		m.dispatchEnvelope(env)
	}
}

func (m *SessionManager) dispatchEnvelope(env domain.Envelope) {
	switch env.Type {
	case domain.EnvelopeBroadcast:
		payload, err := domain.ParseBroadcast(env)
		if err != nil {
			if !errors.Is(err, domain.ErrUnknownEvent) {
				zap.L().Warn("dropping malformed broadcast",
					zap.String("event", string(env.Event)), zap.Error(err))
			}
			return
		}
		m.dispatcher.Dispatch(env.Event, payload)

	case domain.EnvelopeRowChange:
		message, err := domain.ParseRowChange(env)
		if err != nil {
			zap.L().Warn("dropping malformed row change",
				zap.String("table", env.Table), zap.Error(err))
			return
		}
		m.dispatcher.Dispatch(EventChatRowChange, RowChange{
			Action:  env.Action,
			Message: message,
		})

	default:
		// Unknown envelope type; ignorable by contract.
	}
}
