package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

var (
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrVotingClosed      = errors.New("voting is not currently open")
	ErrNotParticipant    = errors.New("creator is not a participant in this week")
	ErrInvalidVoteCount  = errors.New("vote count must be positive")
)

// DefaultCoinsPerVote is the server-authoritative exchange rate. Clients
// display it but never set it.
const DefaultCoinsPerVote = 1

type VoteCoinRepository interface {
	PurchaseVotes(ctx context.Context, userID, creatorUserID, weekID uint, votes, coinCost int) (domain.VoteOrder, int, error)
}

type VoteWeekRepository interface {
	FindByID(ctx context.Context, id uint) (domain.CompetitionWeek, error)
	IsParticipant(ctx context.Context, weekID, creatorUserID uint) (bool, error)
}

type VoteUserRepository interface {
	FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (domain.UserSuspension, error)
}

type VoteLeaderboard interface {
	WeekLeaderboard(ctx context.Context, weekID uint) ([]domain.WeekStanding, error)
	Invalidate(weekID uint)
}

// VoteService validates and settles vote purchases. The balance debit and
// vote-order insert happen in one repository transaction; the service layers
// the eligibility checks and the channel fan-out on top.
type VoteService struct {
	coins        VoteCoinRepository
	weeks        VoteWeekRepository
	users        VoteUserRepository
	leaderboard  VoteLeaderboard
	broadcaster  EventBroadcaster
	coinsPerVote int
	now          func() time.Time
}

func NewVoteService(
	coins VoteCoinRepository,
	weeks VoteWeekRepository,
	users VoteUserRepository,
	leaderboard VoteLeaderboard,
	broadcaster EventBroadcaster,
	coinsPerVote int,
) *VoteService {
	if coinsPerVote <= 0 {
		coinsPerVote = DefaultCoinsPerVote
	}

	return &VoteService{
		coins:        coins,
		weeks:        weeks,
		users:        users,
		leaderboard:  leaderboard,
		broadcaster:  broadcaster,
		coinsPerVote: coinsPerVote,
		now:          time.Now,
	}
}

func (s *VoteService) CoinsPerVote() int {
	return s.coinsPerVote
}

// PurchaseVotes spends coins on votes for a creator in the given week. It
// returns the created order and the buyer's new balance. Failure reasons are
// distinguishable: ErrInsufficientFunds, ErrVotingClosed, ErrNotParticipant,
// ErrUserSuspended.
func (s *VoteService) PurchaseVotes(ctx context.Context, userID, creatorUserID, weekID uint, votes int) (domain.VoteOrder, int, error) {
	if votes <= 0 {
		return domain.VoteOrder{}, 0, ErrInvalidVoteCount
	}

	now := s.now()
	if _, err := s.users.FindActiveSuspension(ctx, userID, now); err == nil {
		return domain.VoteOrder{}, 0, ErrUserSuspended
	} else if !errors.Is(err, repository.ErrSuspensionNotFound) {
		return domain.VoteOrder{}, 0, fmt.Errorf("s.users.FindActiveSuspension -> %w", err)
	}

	week, err := s.weeks.FindByID(ctx, weekID)
	if err != nil {
		return domain.VoteOrder{}, 0, fmt.Errorf("s.weeks.FindByID -> %w", err)
	}
	if !week.OpenForVoting(now) {
		return domain.VoteOrder{}, 0, ErrVotingClosed
	}

	isParticipant, err := s.weeks.IsParticipant(ctx, weekID, creatorUserID)
	if err != nil {
		return domain.VoteOrder{}, 0, fmt.Errorf("s.weeks.IsParticipant -> %w", err)
	}
	if !isParticipant {
		return domain.VoteOrder{}, 0, ErrNotParticipant
	}

	order, newBalance, err := s.coins.PurchaseVotes(ctx, userID, creatorUserID, weekID, votes, votes*s.coinsPerVote)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return domain.VoteOrder{}, 0, ErrInsufficientFunds
		}
		return domain.VoteOrder{}, 0, fmt.Errorf("s.coins.PurchaseVotes -> %w", err)
	}

	s.leaderboard.Invalidate(weekID)

	s.broadcaster.BroadcastEvent(domain.EventVoteCreated, domain.VoteCreatedPayload{
		UserID:     userID,
		CreatorID:  creatorUserID,
		WeekID:     weekID,
		Votes:      votes,
		NewBalance: newBalance,
	})

	standings, err := s.leaderboard.WeekLeaderboard(ctx, weekID)
	if err != nil {
		// The order is committed; skipping the leaderboard push only costs
		// listeners a refetch.
		zap.L().Error("failed to recompute leaderboard after vote purchase",
			zap.Uint("week_id", weekID),
			zap.Error(err))
		return order, newBalance, nil
	}

	s.broadcaster.BroadcastEvent(domain.EventVoteCreator, domain.VoteCreatorPayload{
		WeekID:      weekID,
		Leaderboard: standings,
	})

	return order, newBalance, nil
}
