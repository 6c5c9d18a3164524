package domain

import "time"

const (
	TopupStatusPending   = "pending"
	TopupStatusConfirmed = "confirmed"
	TopupStatusFailed    = "failed"
)

// CoinTopup is a pending or settled balance purchase. ProviderRef is the
// client-generated idempotent reference token that the payment provider's
// confirmation is later matched against.
type CoinTopup struct {
	ID          uint      `json:"id"`
	UserID      uint      `json:"user_id"`
	Amount      int       `json:"amount"`
	Status      string    `json:"status"`
	ProviderRef string    `json:"provider_ref"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

const (
	LedgerReasonTopup = "topup"
	LedgerReasonVote  = "vote_purchase"
)

// CoinLedgerEntry is an append-only accounting record. Balances are never
// recomputed from the ledger on the client side; the server aggregate wins.
type CoinLedgerEntry struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	Delta     int       `json:"delta"`
	Reason    string    `json:"reason"`
	Reference string    `json:"reference"`
	CreatedAt time.Time `json:"created_at"`
}

type VoteOrder struct {
	ID         uint      `json:"id"`
	UserID     uint      `json:"user_id"`
	CreatorID  uint      `json:"creator_id"`
	WeekID     uint      `json:"week_id"`
	Votes      int       `json:"votes"`
	CoinsSpent int       `json:"coins_spent"`
	CreatedAt  time.Time `json:"created_at"`
}
