package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesmerism/api/internal/domain"
)

type stubTallyRepo struct {
	votes map[uint]int
	order []uint
	err   error
	calls int
}

func (r *stubTallyRepo) TallyWeek(context.Context, uint) (map[uint]int, []uint, error) {
	r.calls++
	if r.err != nil {
		return nil, nil, r.err
	}
	return r.votes, r.order, nil
}

type stubProfileRepo struct {
	profiles []domain.Profile
	err      error
}

func (r *stubProfileRepo) FindProfiles(context.Context, []uint) ([]domain.Profile, error) {
	return r.profiles, r.err
}

func TestLeaderboardService_RanksAndPercentages(t *testing.T) {
	coins := &stubTallyRepo{
		votes: map[uint]int{10: 6, 20: 3, 30: 1},
		order: []uint{10, 20, 30},
	}
	users := &stubProfileRepo{profiles: []domain.Profile{
		{UserID: 10, Username: "alpha", AvatarURL: "a.png", BubbleText: "hi"},
		{UserID: 20, Username: "beta"},
	}}
	svc := NewLeaderboardService(coins, users)

	standings, err := svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, uint(10), standings[0].CreatorID)
	assert.Equal(t, 60.0, standings[0].Percent)
	assert.Equal(t, "alpha", standings[0].Username)
	assert.Equal(t, "hi", standings[0].BubbleText)

	assert.Equal(t, 2, standings[1].Rank)
	assert.Equal(t, 30.0, standings[1].Percent)

	assert.Equal(t, 3, standings[2].Rank)
	assert.Equal(t, 10.0, standings[2].Percent)
	// No profile row; display fields stay empty.
	assert.Empty(t, standings[2].Username)
}

func TestLeaderboardService_ZeroTotalMeansZeroPercent(t *testing.T) {
	coins := &stubTallyRepo{
		votes: map[uint]int{10: 0},
		order: []uint{10},
	}
	svc := NewLeaderboardService(coins, &stubProfileRepo{})

	standings, err := svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 0.0, standings[0].Percent)
}

func TestLeaderboardService_EmptyWeek(t *testing.T) {
	svc := NewLeaderboardService(&stubTallyRepo{votes: map[uint]int{}}, &stubProfileRepo{})

	standings, err := svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, standings)
}

func TestLeaderboardService_CachesUntilInvalidated(t *testing.T) {
	coins := &stubTallyRepo{
		votes: map[uint]int{10: 1},
		order: []uint{10},
	}
	svc := NewLeaderboardService(coins, &stubProfileRepo{})

	_, err := svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	_, err = svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, coins.calls)

	svc.Invalidate(1)

	_, err = svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, coins.calls)
}

func TestLeaderboardService_CacheExpiresAfterTTL(t *testing.T) {
	coins := &stubTallyRepo{
		votes: map[uint]int{10: 1},
		order: []uint{10},
	}
	svc := NewLeaderboardService(coins, &stubProfileRepo{})

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)

	now = now.Add(leaderboardCacheTTL + time.Second)

	_, err = svc.WeekLeaderboard(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, coins.calls)
}

func TestLeaderboardService_TallyErrorPropagates(t *testing.T) {
	svc := NewLeaderboardService(&stubTallyRepo{err: assert.AnError}, &stubProfileRepo{})

	_, err := svc.WeekLeaderboard(context.Background(), 1)
	assert.ErrorIs(t, err, assert.AnError)
}
