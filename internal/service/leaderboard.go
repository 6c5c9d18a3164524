package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/mesmerism/api/internal/domain"
)

// leaderboardCacheTTL bounds staleness between votes; purchases invalidate
// eagerly, so the TTL only matters for out-of-band writes.
const leaderboardCacheTTL = 30 * time.Second

type LeaderboardCoinRepository interface {
	TallyWeek(ctx context.Context, weekID uint) (map[uint]int, []uint, error)
}

type LeaderboardUserRepository interface {
	FindProfiles(ctx context.Context, userIDs []uint) ([]domain.Profile, error)
}

type leaderboardCacheEntry struct {
	standings []domain.WeekStanding
	expiresAt time.Time
}

// LeaderboardService serves ranked week standings from an in-process cache,
// recomputing from vote orders on miss.
type LeaderboardService struct {
	coins LeaderboardCoinRepository
	users LeaderboardUserRepository
	now   func() time.Time

	mu    sync.Mutex
	cache map[uint]leaderboardCacheEntry
}

func NewLeaderboardService(coins LeaderboardCoinRepository, users LeaderboardUserRepository) *LeaderboardService {
	return &LeaderboardService{
		coins: coins,
		users: users,
		now:   time.Now,
		cache: make(map[uint]leaderboardCacheEntry),
	}
}

// WeekLeaderboard returns the ranked standings for the week. Rank is 1-based,
// votes descending with creator id as the tiebreak; percent is the share of
// the week's total votes, 0 when the total is 0.
func (s *LeaderboardService) WeekLeaderboard(ctx context.Context, weekID uint) ([]domain.WeekStanding, error) {
	s.mu.Lock()
	entry, ok := s.cache[weekID]
	s.mu.Unlock()
	if ok && s.now().Before(entry.expiresAt) {
		return entry.standings, nil
	}

	standings, err := s.compute(ctx, weekID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache[weekID] = leaderboardCacheEntry{
		standings: standings,
		expiresAt: s.now().Add(leaderboardCacheTTL),
	}
	s.mu.Unlock()

	return standings, nil
}

// Invalidate drops the cached standings for the week. Called after every
// vote purchase touching it.
func (s *LeaderboardService) Invalidate(weekID uint) {
	s.mu.Lock()
	delete(s.cache, weekID)
	s.mu.Unlock()
}

func (s *LeaderboardService) compute(ctx context.Context, weekID uint) ([]domain.WeekStanding, error) {
	votes, order, err := s.coins.TallyWeek(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("s.coins.TallyWeek -> %w", err)
	}

	total := 0
	for _, v := range votes {
		total += v
	}

	profiles := make(map[uint]domain.Profile, len(order))
	if len(order) > 0 {
		found, err := s.users.FindProfiles(ctx, order)
		if err != nil {
			return nil, fmt.Errorf("s.users.FindProfiles -> %w", err)
		}
		for _, p := range found {
			profiles[p.UserID] = p
		}
	}

	standings := make([]domain.WeekStanding, 0, len(order))
	for i, creatorID := range order {
		percent := 0.0
		if total > 0 {
			percent = math.Round(float64(votes[creatorID])/float64(total)*10000) / 100
		}

		profile := profiles[creatorID]
		standings = append(standings, domain.WeekStanding{
			WeekID:     weekID,
			CreatorID:  creatorID,
			Votes:      votes[creatorID],
			Rank:       i + 1,
			Percent:    percent,
			Username:   profile.Username,
			AvatarURL:  profile.AvatarURL,
			BubbleText: profile.BubbleText,
		})
	}

	return standings, nil
}
