package client

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/mesmerism/api/internal/domain"
)

// LeaderboardView mirrors the ranked standings for the selected week. The
// initial load fetches the server's cached ranking; a VOTE_CREATOR push
// replaces the snapshot wholesale from the event's embedded leaderboard. Any
// error mid-refresh clears the view: clearly-no-data beats subtly-stale.
type LeaderboardView struct {
	backend    Backend
	dispatcher *Dispatcher

	mu        sync.Mutex
	weekID    uint
	standings []domain.WeekStanding
	profiles  map[uint]domain.Profile

	unsub func()
}

func NewLeaderboardView(backend Backend, dispatcher *Dispatcher) *LeaderboardView {
	v := &LeaderboardView{
		backend:  backend,
		profiles: make(map[uint]domain.Profile),
	}

	if dispatcher != nil {
		v.dispatcher = dispatcher
		v.unsub = dispatcher.Subscribe(domain.EventVoteCreator, v.onVoteCreator)
	}

	return v
}

// Close unregisters the live subscription. Idempotent.
func (v *LeaderboardView) Close() {
	v.mu.Lock()
	unsub := v.unsub
	v.unsub = nil
	v.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Load fetches the ranking for the week and hydrates creator display fields.
func (v *LeaderboardView) Load(ctx context.Context, weekID uint) error {
	standings, err := v.backend.WeekLeaderboard(ctx, weekID)
	if err != nil {
		v.clear()
		return fmt.Errorf("backend.WeekLeaderboard -> %w", err)
	}

	if err := v.apply(ctx, weekID, standings); err != nil {
		v.clear()
		return err
	}

	return nil
}

// Standings returns a copy of the current snapshot, ascending by rank.
func (v *LeaderboardView) Standings() []domain.WeekStanding {
	v.mu.Lock()
	defer v.mu.Unlock()

	out := make([]domain.WeekStanding, len(v.standings))
	copy(out, v.standings)
	return out
}

// WeekID returns the week the snapshot belongs to.
func (v *LeaderboardView) WeekID() uint {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.weekID
}

func (v *LeaderboardView) onVoteCreator(payload any) {
	p, ok := payload.(domain.VoteCreatorPayload)
	if !ok {
		return
	}

	v.mu.Lock()
	currentWeek := v.weekID
	v.mu.Unlock()

	// Pushes for other weeks don't affect this view.
	if currentWeek != 0 && p.WeekID != currentWeek {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	if err := v.apply(ctx, p.WeekID, p.Leaderboard); err != nil {
		v.clear()
	}
}

// apply replaces the snapshot, filling display fields for any creator not
// already known locally with a targeted fetch.
func (v *LeaderboardView) apply(ctx context.Context, weekID uint, standings []domain.WeekStanding) error {
	v.mu.Lock()
	var missing []uint
	for _, s := range standings {
		if s.Username != "" {
			continue
		}
		if _, known := v.profiles[s.CreatorID]; !known {
			missing = append(missing, s.CreatorID)
		}
	}
	v.mu.Unlock()

	if len(missing) > 0 {
		g, gctx := errgroup.WithContext(ctx)
		fetched := make([]domain.Profile, len(missing))
		for i, id := range missing {
			i, id := i, id
			g.Go(func() error {
				profiles, err := v.backend.Profiles(gctx, []uint{id})
				if err != nil {
					return fmt.Errorf("backend.Profiles(%d) -> %w", id, err)
				}
				if len(profiles) > 0 {
					fetched[i] = profiles[0]
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		v.mu.Lock()
		for _, p := range fetched {
			if p.UserID != 0 {
				v.profiles[p.UserID] = p
			}
		}
		v.mu.Unlock()
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	next := make([]domain.WeekStanding, len(standings))
	copy(next, standings)
	for i := range next {
		if next[i].Username == "" {
			if p, ok := v.profiles[next[i].CreatorID]; ok {
				next[i].Username = p.Username
				next[i].AvatarURL = p.AvatarURL
				next[i].BubbleText = p.BubbleText
			}
		}
	}

	sort.Slice(next, func(i, j int) bool { return next[i].Rank < next[j].Rank })

	v.weekID = weekID
	v.standings = next

	return nil
}

func (v *LeaderboardView) clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.standings = nil
}
