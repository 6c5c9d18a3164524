package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrTopupNotFound     = errors.New("topup not found")
	ErrTopupNotPending   = errors.New("topup is not pending")
	ErrDuplicateTopupRef = errors.New("duplicate topup reference")
)

type CoinTopup struct {
	ID     uint `gorm:"primaryKey"`
	UserID uint `gorm:"index;not null"`
	Amount int  `gorm:"not null"`

	Status string `gorm:"not null;default:pending"`

	// ProviderRef is the idempotent reference token; the provider's
	// confirmation is matched on it, so it must be unique.
	ProviderRef string `gorm:"unique;not null"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type CoinLedgerEntry struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	Delta     int       `gorm:"not null"`
	Reason    string    `gorm:"not null"`
	Reference string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type VoteOrder struct {
	ID            uint      `gorm:"primaryKey"`
	UserID        uint      `gorm:"index;not null"`
	CreatorUserID uint      `gorm:"index;not null"`
	WeekID        uint      `gorm:"index;not null"`
	Votes         int       `gorm:"not null"`
	CoinsSpent    int       `gorm:"not null"`
	CreatedAt     time.Time `gorm:"not null"`
}

// WeekTally is the aggregate of vote orders per creator for a week.
type WeekTally struct {
	CreatorUserID uint
	Votes         int
}

type CoinDAO struct {
	db *gorm.DB
}

func NewCoinDAO(db *gorm.DB) *CoinDAO {
	return &CoinDAO{
		db: db,
	}
}

func (d *CoinDAO) InsertTopup(ctx context.Context, topup CoinTopup) (CoinTopup, error) {
	result := d.db.WithContext(ctx).Create(&topup)
	if result.Error != nil {
		var pgErr *pgconn.PgError
		if errors.As(result.Error, &pgErr) &&
			pgErr.Code == pgerrcode.UniqueViolation &&
			strings.Contains(pgErr.Message, "provider_ref") {
			return CoinTopup{}, ErrDuplicateTopupRef
		}

		return CoinTopup{}, result.Error
	}

	return topup, nil
}

func (d *CoinDAO) FindTopupByRef(ctx context.Context, providerRef string) (CoinTopup, error) {
	var topup CoinTopup

	result := d.db.WithContext(ctx).First(&topup, "provider_ref = ?", providerRef)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return CoinTopup{}, ErrTopupNotFound
		}

		return CoinTopup{}, result.Error
	}

	return topup, nil
}

func (d *CoinDAO) FindTopupsByUser(ctx context.Context, userID uint) ([]CoinTopup, error) {
	var topups []CoinTopup

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&topups)
	if result.Error != nil {
		return nil, result.Error
	}

	return topups, nil
}

func (d *CoinDAO) FindAllTopups(ctx context.Context, limit int) ([]CoinTopup, error) {
	var topups []CoinTopup

	result := d.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&topups)
	if result.Error != nil {
		return nil, result.Error
	}

	return topups, nil
}

func (d *CoinDAO) FindLedgerByUser(ctx context.Context, userID uint, limit int) ([]CoinLedgerEntry, error) {
	var entries []CoinLedgerEntry

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return entries, nil
}

// ConfirmTopup settles a pending topup in one transaction: the topup row is
// locked, flipped to confirmed, the user's balance credited and a ledger entry
// appended. Returns the new balance.
func (d *CoinDAO) ConfirmTopup(ctx context.Context, providerRef string) (CoinTopup, int, error) {
	var (
		topup      CoinTopup
		newBalance int
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&topup, "provider_ref = ?", providerRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTopupNotFound
			}
			return err
		}
		if topup.Status != "pending" {
			return ErrTopupNotPending
		}

		var user User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, topup.UserID).Error; err != nil {
			return err
		}

		user.Balance += topup.Amount
		newBalance = user.Balance
		if err := tx.Model(&User{}).Where("id = ?", user.ID).Update("balance", user.Balance).Error; err != nil {
			return err
		}

		topup.Status = "confirmed"
		if err := tx.Save(&topup).Error; err != nil {
			return err
		}

		return tx.Create(&CoinLedgerEntry{
			UserID:    user.ID,
			Delta:     topup.Amount,
			Reason:    "topup",
			Reference: topup.ProviderRef,
		}).Error
	})
	if err != nil {
		return CoinTopup{}, 0, err
	}

	return topup, newBalance, nil
}

// FailTopup marks a pending topup failed without touching the balance.
func (d *CoinDAO) FailTopup(ctx context.Context, providerRef string) (CoinTopup, error) {
	var topup CoinTopup

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&topup, "provider_ref = ?", providerRef).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTopupNotFound
			}
			return err
		}
		if topup.Status != "pending" {
			return ErrTopupNotPending
		}

		topup.Status = "failed"
		return tx.Save(&topup).Error
	})
	if err != nil {
		return CoinTopup{}, err
	}

	return topup, nil
}

// PurchaseVotes atomically debits the buyer and records the order plus a
// ledger entry. The buyer's row is locked for the balance check so concurrent
// purchases cannot overspend. Returns the order and the new balance.
func (d *CoinDAO) PurchaseVotes(ctx context.Context, userID, creatorUserID, weekID uint, votes, coinCost int) (VoteOrder, int, error) {
	var (
		order      VoteOrder
		newBalance int
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return err
		}

		if user.Balance < coinCost {
			return ErrInsufficientFunds
		}

		user.Balance -= coinCost
		newBalance = user.Balance
		if err := tx.Model(&User{}).Where("id = ?", user.ID).Update("balance", user.Balance).Error; err != nil {
			return err
		}

		order = VoteOrder{
			UserID:        userID,
			CreatorUserID: creatorUserID,
			WeekID:        weekID,
			Votes:         votes,
			CoinsSpent:    coinCost,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		return tx.Create(&CoinLedgerEntry{
			UserID:    userID,
			Delta:     -coinCost,
			Reason:    "vote_purchase",
			Reference: "",
		}).Error
	})
	if err != nil {
		return VoteOrder{}, 0, err
	}

	return order, newBalance, nil
}

// TallyWeek aggregates vote orders per creator for the week, highest first.
func (d *CoinDAO) TallyWeek(ctx context.Context, weekID uint) ([]WeekTally, error) {
	var tallies []WeekTally

	result := d.db.WithContext(ctx).Model(&VoteOrder{}).
		Select("creator_user_id, SUM(votes) AS votes").
		Where("week_id = ?", weekID).
		Group("creator_user_id").
		Order("votes DESC, creator_user_id ASC").
		Scan(&tallies)
	if result.Error != nil {
		return nil, result.Error
	}

	return tallies, nil
}
