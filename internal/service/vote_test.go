package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

type recordedEvent struct {
	event   domain.EventType
	payload any
}

// recordingBroadcaster captures fan-out calls for assertions.
type recordingBroadcaster struct {
	events     []recordedEvent
	rowChanges []string
}

func (b *recordingBroadcaster) BroadcastEvent(event domain.EventType, payload any) {
	b.events = append(b.events, recordedEvent{event: event, payload: payload})
}

func (b *recordingBroadcaster) BroadcastRowChange(table, action string, _ any) {
	b.rowChanges = append(b.rowChanges, table+":"+action)
}

type stubCoinRepo struct {
	order      domain.VoteOrder
	newBalance int
	err        error

	gotVotes    int
	gotCoinCost int
}

func (r *stubCoinRepo) PurchaseVotes(_ context.Context, _, _, _ uint, votes, coinCost int) (domain.VoteOrder, int, error) {
	r.gotVotes = votes
	r.gotCoinCost = coinCost
	if r.err != nil {
		return domain.VoteOrder{}, 0, r.err
	}
	return r.order, r.newBalance, nil
}

type stubWeekRepo struct {
	week          domain.CompetitionWeek
	weekErr       error
	isParticipant bool
}

func (r *stubWeekRepo) FindByID(context.Context, uint) (domain.CompetitionWeek, error) {
	return r.week, r.weekErr
}

func (r *stubWeekRepo) IsParticipant(context.Context, uint, uint) (bool, error) {
	return r.isParticipant, nil
}

type stubSuspensionRepo struct {
	suspension domain.UserSuspension
	err        error
}

func (r *stubSuspensionRepo) FindActiveSuspension(context.Context, uint, time.Time) (domain.UserSuspension, error) {
	return r.suspension, r.err
}

type stubLeaderboard struct {
	standings   []domain.WeekStanding
	err         error
	invalidated []uint
}

func (l *stubLeaderboard) WeekLeaderboard(context.Context, uint) ([]domain.WeekStanding, error) {
	return l.standings, l.err
}

func (l *stubLeaderboard) Invalidate(weekID uint) {
	l.invalidated = append(l.invalidated, weekID)
}

func activeWeek(now time.Time) domain.CompetitionWeek {
	start := now.Add(-time.Hour)
	end := now.Add(time.Hour)
	return domain.CompetitionWeek{ID: 1, IsActive: true, StartsAt: &start, EndsAt: &end}
}

func newVoteFixture(coins *stubCoinRepo, weeks *stubWeekRepo, users *stubSuspensionRepo, lb *stubLeaderboard) (*VoteService, *recordingBroadcaster) {
	broadcaster := &recordingBroadcaster{}
	svc := NewVoteService(coins, weeks, users, lb, broadcaster, 2)
	return svc, broadcaster
}

func TestVoteService_PurchaseVotes(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	coins := &stubCoinRepo{
		order:      domain.VoteOrder{ID: 10, UserID: 1, CreatorID: 3, WeekID: 1, Votes: 5, CoinsSpent: 10},
		newBalance: 90,
	}
	weeks := &stubWeekRepo{week: activeWeek(now), isParticipant: true}
	users := &stubSuspensionRepo{err: repository.ErrSuspensionNotFound}
	lb := &stubLeaderboard{standings: []domain.WeekStanding{{WeekID: 1, CreatorID: 3, Votes: 5, Rank: 1}}}

	svc, broadcaster := newVoteFixture(coins, weeks, users, lb)
	svc.now = func() time.Time { return now }

	order, balance, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 5)
	require.NoError(t, err)

	assert.Equal(t, uint(10), order.ID)
	assert.Equal(t, 90, balance)
	// 5 votes at 2 coins each.
	assert.Equal(t, 5, coins.gotVotes)
	assert.Equal(t, 10, coins.gotCoinCost)
	assert.Equal(t, []uint{1}, lb.invalidated)

	require.Len(t, broadcaster.events, 2)
	assert.Equal(t, domain.EventVoteCreated, broadcaster.events[0].event)
	created := broadcaster.events[0].payload.(domain.VoteCreatedPayload)
	assert.Equal(t, uint(1), created.UserID)
	assert.Equal(t, 90, created.NewBalance)

	assert.Equal(t, domain.EventVoteCreator, broadcaster.events[1].event)
	creator := broadcaster.events[1].payload.(domain.VoteCreatorPayload)
	assert.Equal(t, uint(1), creator.WeekID)
	assert.Len(t, creator.Leaderboard, 1)
}

func TestVoteService_PurchaseVotesRejectsNonPositiveCount(t *testing.T) {
	svc, broadcaster := newVoteFixture(&stubCoinRepo{}, &stubWeekRepo{}, &stubSuspensionRepo{}, &stubLeaderboard{})

	_, _, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidVoteCount)

	_, _, err = svc.PurchaseVotes(context.Background(), 1, 3, 1, -5)
	assert.ErrorIs(t, err, ErrInvalidVoteCount)
	assert.Empty(t, broadcaster.events)
}

func TestVoteService_PurchaseVotesRejectsSuspendedUser(t *testing.T) {
	now := time.Now()
	users := &stubSuspensionRepo{suspension: domain.UserSuspension{ID: 1, TargetUserID: 1}}
	svc, broadcaster := newVoteFixture(&stubCoinRepo{}, &stubWeekRepo{week: activeWeek(now), isParticipant: true}, users, &stubLeaderboard{})

	_, _, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 2)
	assert.ErrorIs(t, err, ErrUserSuspended)
	assert.Empty(t, broadcaster.events)
}

func TestVoteService_PurchaseVotesRejectsClosedWeek(t *testing.T) {
	now := time.Now()
	past := now.Add(-2 * time.Hour)
	ended := now.Add(-time.Hour)
	weeks := &stubWeekRepo{
		week:          domain.CompetitionWeek{ID: 1, IsActive: true, StartsAt: &past, EndsAt: &ended},
		isParticipant: true,
	}
	svc, _ := newVoteFixture(&stubCoinRepo{}, weeks, &stubSuspensionRepo{err: repository.ErrSuspensionNotFound}, &stubLeaderboard{})

	_, _, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 2)
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestVoteService_PurchaseVotesRejectsInactiveWeek(t *testing.T) {
	now := time.Now()
	week := activeWeek(now)
	week.IsActive = false
	weeks := &stubWeekRepo{week: week, isParticipant: true}
	svc, _ := newVoteFixture(&stubCoinRepo{}, weeks, &stubSuspensionRepo{err: repository.ErrSuspensionNotFound}, &stubLeaderboard{})

	_, _, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 2)
	assert.ErrorIs(t, err, ErrVotingClosed)
}

func TestVoteService_PurchaseVotesRejectsNonParticipant(t *testing.T) {
	now := time.Now()
	weeks := &stubWeekRepo{week: activeWeek(now), isParticipant: false}
	svc, _ := newVoteFixture(&stubCoinRepo{}, weeks, &stubSuspensionRepo{err: repository.ErrSuspensionNotFound}, &stubLeaderboard{})

	_, _, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 2)
	assert.ErrorIs(t, err, ErrNotParticipant)
}

func TestVoteService_PurchaseVotesPassesThroughInsufficientFunds(t *testing.T) {
	now := time.Now()
	coins := &stubCoinRepo{err: repository.ErrInsufficientFunds}
	weeks := &stubWeekRepo{week: activeWeek(now), isParticipant: true}
	svc, broadcaster := newVoteFixture(coins, weeks, &stubSuspensionRepo{err: repository.ErrSuspensionNotFound}, &stubLeaderboard{})

	_, _, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 2)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Empty(t, broadcaster.events)
}

func TestVoteService_PurchaseVotesSurvivesLeaderboardFailure(t *testing.T) {
	now := time.Now()
	coins := &stubCoinRepo{order: domain.VoteOrder{ID: 1}, newBalance: 5}
	weeks := &stubWeekRepo{week: activeWeek(now), isParticipant: true}
	lb := &stubLeaderboard{err: assert.AnError}
	svc, broadcaster := newVoteFixture(coins, weeks, &stubSuspensionRepo{err: repository.ErrSuspensionNotFound}, lb)

	order, balance, err := svc.PurchaseVotes(context.Background(), 1, 3, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(1), order.ID)
	assert.Equal(t, 5, balance)

	// VOTE_CREATED still went out; only the leaderboard push is skipped.
	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, domain.EventVoteCreated, broadcaster.events[0].event)
}

func TestVoteService_DefaultRateWhenUnconfigured(t *testing.T) {
	svc := NewVoteService(&stubCoinRepo{}, &stubWeekRepo{}, &stubSuspensionRepo{}, &stubLeaderboard{}, &recordingBroadcaster{}, 0)
	assert.Equal(t, DefaultCoinsPerVote, svc.CoinsPerVote())
}
