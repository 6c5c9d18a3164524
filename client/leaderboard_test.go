package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesmerism/api/internal/domain"
)

func TestLeaderboardView_LoadSortsByRankAndHydratesProfiles(t *testing.T) {
	backend := &fakeBackend{
		standings: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 30, Votes: 1, Rank: 3, Percent: 10},
			{WeekID: 1, CreatorID: 10, Votes: 6, Rank: 1, Percent: 60},
			{WeekID: 1, CreatorID: 20, Votes: 3, Rank: 2, Percent: 30},
		},
		profiles: map[uint]domain.Profile{
			10: {UserID: 10, Username: "alpha", AvatarURL: "a.png"},
			20: {UserID: 20, Username: "beta"},
			30: {UserID: 30, Username: "gamma"},
		},
	}
	v := NewLeaderboardView(backend, NewDispatcher())
	defer v.Close()

	require.NoError(t, v.Load(context.Background(), 1))

	standings := v.Standings()
	require.Len(t, standings, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{standings[0].Rank, standings[1].Rank, standings[2].Rank})
	assert.Equal(t, "alpha", standings[0].Username)
	assert.Equal(t, "a.png", standings[0].AvatarURL)
	assert.Equal(t, "beta", standings[1].Username)
	assert.Equal(t, uint(1), v.WeekID())
}

func TestLeaderboardView_LoadErrorClearsSnapshot(t *testing.T) {
	backend := &fakeBackend{
		standings: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 10, Rank: 1, Username: "alpha"},
		},
	}
	v := NewLeaderboardView(backend, NewDispatcher())
	defer v.Close()

	require.NoError(t, v.Load(context.Background(), 1))
	require.Len(t, v.Standings(), 1)

	backend.mu.Lock()
	backend.standingsErr = assert.AnError
	backend.mu.Unlock()

	require.Error(t, v.Load(context.Background(), 1))
	assert.Empty(t, v.Standings())
}

func TestLeaderboardView_VoteCreatorPushReplacesSnapshot(t *testing.T) {
	backend := &fakeBackend{
		standings: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 10, Votes: 1, Rank: 1, Username: "alpha"},
		},
		profiles: map[uint]domain.Profile{
			20: {UserID: 20, Username: "beta"},
		},
	}
	d := NewDispatcher()
	v := NewLeaderboardView(backend, d)
	defer v.Close()

	require.NoError(t, v.Load(context.Background(), 1))

	d.Dispatch(domain.EventVoteCreator, domain.VoteCreatorPayload{
		WeekID: 1,
		Leaderboard: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 20, Votes: 5, Rank: 1},
			{WeekID: 1, CreatorID: 10, Votes: 1, Rank: 2, Username: "alpha"},
		},
	})

	standings := v.Standings()
	require.Len(t, standings, 2)
	assert.Equal(t, uint(20), standings[0].CreatorID)
	// Creator 20 had no display fields in the push; they were fetched.
	assert.Equal(t, "beta", standings[0].Username)
	assert.Equal(t, "alpha", standings[1].Username)
}

func TestLeaderboardView_PushForOtherWeekIsIgnored(t *testing.T) {
	backend := &fakeBackend{
		standings: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 10, Votes: 1, Rank: 1, Username: "alpha"},
		},
	}
	d := NewDispatcher()
	v := NewLeaderboardView(backend, d)
	defer v.Close()

	require.NoError(t, v.Load(context.Background(), 1))

	d.Dispatch(domain.EventVoteCreator, domain.VoteCreatorPayload{
		WeekID: 2,
		Leaderboard: []domain.WeekStanding{
			{WeekID: 2, CreatorID: 99, Votes: 9, Rank: 1, Username: "other"},
		},
	})

	standings := v.Standings()
	require.Len(t, standings, 1)
	assert.Equal(t, uint(10), standings[0].CreatorID)
}

func TestLeaderboardView_PushProfileFetchErrorClears(t *testing.T) {
	backend := &fakeBackend{
		standings: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 10, Votes: 1, Rank: 1, Username: "alpha"},
		},
		profilesErr: assert.AnError,
	}
	d := NewDispatcher()
	v := NewLeaderboardView(backend, d)
	defer v.Close()

	require.NoError(t, v.Load(context.Background(), 1))

	d.Dispatch(domain.EventVoteCreator, domain.VoteCreatorPayload{
		WeekID: 1,
		Leaderboard: []domain.WeekStanding{
			{WeekID: 1, CreatorID: 55, Votes: 2, Rank: 1},
		},
	})

	assert.Empty(t, v.Standings())
}
