package client

import (
	"context"
	"sync"
	"time"

	"github.com/mesmerism/api/internal/domain"
)

// fakeBackend serves canned responses for the sync-layer tests.
type fakeBackend struct {
	mu sync.Mutex

	overview    domain.UserOverview
	overviewErr error

	week    domain.CompetitionWeek
	weekErr error

	balance int

	standings    []domain.WeekStanding
	standingsErr error

	profiles    map[uint]domain.Profile
	profilesErr error

	// pages are returned in order by ListMessages.
	pages     [][]domain.ChatMessage
	pageCalls int

	topup     domain.CoinTopup
	topupErr  error
	topupRefs []string

	// topupHook, when set, runs while CreateTopup is still in flight.
	topupHook func()
}

func (f *fakeBackend) GetSelfOverview(context.Context) (domain.UserOverview, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.overview, f.overviewErr
}

func (f *fakeBackend) GetBalance(context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeBackend) CurrentWeek(context.Context) (domain.CompetitionWeek, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.week, f.weekErr
}

func (f *fakeBackend) WeekLeaderboard(context.Context, uint) ([]domain.WeekStanding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.standings, f.standingsErr
}

func (f *fakeBackend) Profiles(_ context.Context, userIDs []uint) ([]domain.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.profilesErr != nil {
		return nil, f.profilesErr
	}

	out := make([]domain.Profile, 0, len(userIDs))
	for _, id := range userIDs {
		if p, ok := f.profiles[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeBackend) ListMessages(context.Context, *time.Time, int) ([]domain.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.pageCalls >= len(f.pages) {
		return nil, nil
	}
	page := f.pages[f.pageCalls]
	f.pageCalls++
	return page, nil
}

func (f *fakeBackend) PurchaseVotes(context.Context, uint, uint, int) (domain.VoteOrder, int, error) {
	return domain.VoteOrder{}, 0, nil
}

func (f *fakeBackend) CreateTopup(_ context.Context, amount int) (domain.CoinTopup, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.topupErr != nil {
		return domain.CoinTopup{}, "", f.topupErr
	}

	topup := f.topup
	topup.Amount = amount
	f.topupRefs = append(f.topupRefs, topup.ProviderRef)

	if f.topupHook != nil {
		f.topupHook()
	}
	return topup, "secret_" + topup.ProviderRef, nil
}

// fakeConn feeds scripted envelopes to the session read loop, then blocks
// until closed.
type fakeConn struct {
	envelopes chan domain.Envelope
	closed    chan struct{}
	closeOnce sync.Once
}

func newFakeConn() *fakeConn {
	return &fakeConn{
		envelopes: make(chan domain.Envelope, 16),
		closed:    make(chan struct{}),
	}
}

func (c *fakeConn) ReadEnvelope() (domain.Envelope, error) {
	select {
	case env := <-c.envelopes:
		return env, nil
	case <-c.closed:
		return domain.Envelope{}, context.Canceled
	}
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

// fakeTransport counts dials and hands out fakeConns.
type fakeTransport struct {
	mu    sync.Mutex
	conns []*fakeConn
	err   error
}

func (t *fakeTransport) Dial(context.Context, string) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.err != nil {
		return nil, t.err
	}

	conn := newFakeConn()
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.conns)
}

func (t *fakeTransport) openCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	open := 0
	for _, c := range t.conns {
		select {
		case <-c.closed:
		default:
			open++
		}
	}
	return open
}
