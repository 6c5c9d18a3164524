package repository

import (
	"context"
	"fmt"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository/dao"
)

var (
	ErrInsufficientFunds = dao.ErrInsufficientFunds
	ErrTopupNotFound     = dao.ErrTopupNotFound
	ErrTopupNotPending   = dao.ErrTopupNotPending
	ErrDuplicateTopupRef = dao.ErrDuplicateTopupRef
)

type CoinDAO interface {
	InsertTopup(ctx context.Context, topup dao.CoinTopup) (dao.CoinTopup, error)
	FindTopupByRef(ctx context.Context, providerRef string) (dao.CoinTopup, error)
	FindTopupsByUser(ctx context.Context, userID uint) ([]dao.CoinTopup, error)
	FindAllTopups(ctx context.Context, limit int) ([]dao.CoinTopup, error)
	FindLedgerByUser(ctx context.Context, userID uint, limit int) ([]dao.CoinLedgerEntry, error)
	ConfirmTopup(ctx context.Context, providerRef string) (dao.CoinTopup, int, error)
	FailTopup(ctx context.Context, providerRef string) (dao.CoinTopup, error)
	PurchaseVotes(ctx context.Context, userID, creatorUserID, weekID uint, votes, coinCost int) (dao.VoteOrder, int, error)
	TallyWeek(ctx context.Context, weekID uint) ([]dao.WeekTally, error)
}

type CoinRepository struct {
	dao CoinDAO
}

func NewCoinRepository(dao CoinDAO) *CoinRepository {
	return &CoinRepository{
		dao: dao,
	}
}

func (r *CoinRepository) CreateTopup(ctx context.Context, topup domain.CoinTopup) (domain.CoinTopup, error) {
	created, err := r.dao.InsertTopup(ctx, dao.CoinTopup{
		UserID:      topup.UserID,
		Amount:      topup.Amount,
		Status:      domain.TopupStatusPending,
		ProviderRef: topup.ProviderRef,
	})
	if err != nil {
		return domain.CoinTopup{}, fmt.Errorf("r.dao.InsertTopup -> %w", err)
	}

	return r.topupDaoToDomain(created), nil
}

func (r *CoinRepository) FindTopupByRef(ctx context.Context, providerRef string) (domain.CoinTopup, error) {
	found, err := r.dao.FindTopupByRef(ctx, providerRef)
	if err != nil {
		return domain.CoinTopup{}, fmt.Errorf("r.dao.FindTopupByRef -> %w", err)
	}

	return r.topupDaoToDomain(found), nil
}

func (r *CoinRepository) FindTopupsByUser(ctx context.Context, userID uint) ([]domain.CoinTopup, error) {
	found, err := r.dao.FindTopupsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindTopupsByUser -> %w", err)
	}

	return r.topupsDaoToDomain(found), nil
}

func (r *CoinRepository) FindAllTopups(ctx context.Context, limit int) ([]domain.CoinTopup, error) {
	found, err := r.dao.FindAllTopups(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAllTopups -> %w", err)
	}

	return r.topupsDaoToDomain(found), nil
}

func (r *CoinRepository) FindLedgerByUser(ctx context.Context, userID uint, limit int) ([]domain.CoinLedgerEntry, error) {
	found, err := r.dao.FindLedgerByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindLedgerByUser -> %w", err)
	}

	entries := make([]domain.CoinLedgerEntry, 0, len(found))
	for _, e := range found {
		entries = append(entries, domain.CoinLedgerEntry{
			ID:        e.ID,
			UserID:    e.UserID,
			Delta:     e.Delta,
			Reason:    e.Reason,
			Reference: e.Reference,
			CreatedAt: e.CreatedAt,
		})
	}

	return entries, nil
}

func (r *CoinRepository) ConfirmTopup(ctx context.Context, providerRef string) (domain.CoinTopup, int, error) {
	confirmed, newBalance, err := r.dao.ConfirmTopup(ctx, providerRef)
	if err != nil {
		return domain.CoinTopup{}, 0, fmt.Errorf("r.dao.ConfirmTopup -> %w", err)
	}

	return r.topupDaoToDomain(confirmed), newBalance, nil
}

func (r *CoinRepository) FailTopup(ctx context.Context, providerRef string) (domain.CoinTopup, error) {
	failed, err := r.dao.FailTopup(ctx, providerRef)
	if err != nil {
		return domain.CoinTopup{}, fmt.Errorf("r.dao.FailTopup -> %w", err)
	}

	return r.topupDaoToDomain(failed), nil
}

func (r *CoinRepository) PurchaseVotes(ctx context.Context, userID, creatorUserID, weekID uint, votes, coinCost int) (domain.VoteOrder, int, error) {
	order, newBalance, err := r.dao.PurchaseVotes(ctx, userID, creatorUserID, weekID, votes, coinCost)
	if err != nil {
		return domain.VoteOrder{}, 0, fmt.Errorf("r.dao.PurchaseVotes -> %w", err)
	}

	return domain.VoteOrder{
		ID:         order.ID,
		UserID:     order.UserID,
		CreatorID:  order.CreatorUserID,
		WeekID:     order.WeekID,
		Votes:      order.Votes,
		CoinsSpent: order.CoinsSpent,
		CreatedAt:  order.CreatedAt,
	}, newBalance, nil
}

// TallyWeek returns per-creator vote totals for the week, highest first with
// creator id as the tiebreak.
func (r *CoinRepository) TallyWeek(ctx context.Context, weekID uint) (map[uint]int, []uint, error) {
	tallies, err := r.dao.TallyWeek(ctx, weekID)
	if err != nil {
		return nil, nil, fmt.Errorf("r.dao.TallyWeek -> %w", err)
	}

	votes := make(map[uint]int, len(tallies))
	order := make([]uint, 0, len(tallies))
	for _, t := range tallies {
		votes[t.CreatorUserID] = t.Votes
		order = append(order, t.CreatorUserID)
	}

	return votes, order, nil
}

func (r *CoinRepository) topupDaoToDomain(t dao.CoinTopup) domain.CoinTopup {
	return domain.CoinTopup{
		ID:          t.ID,
		UserID:      t.UserID,
		Amount:      t.Amount,
		Status:      t.Status,
		ProviderRef: t.ProviderRef,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (r *CoinRepository) topupsDaoToDomain(ts []dao.CoinTopup) []domain.CoinTopup {
	topups := make([]domain.CoinTopup, 0, len(ts))
	for _, t := range ts {
		topups = append(topups, r.topupDaoToDomain(t))
	}

	return topups
}
