package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/paymentintent"
	"github.com/stripe/stripe-go/v72/webhook"
	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

var (
	ErrTopupNotFound    = repository.ErrTopupNotFound
	ErrTopupNotPending  = repository.ErrTopupNotPending
	ErrInvalidAmount    = errors.New("top-up amount must be positive")
	ErrWebhookSignature = errors.New("invalid webhook signature")
)

// DefaultCoinPriceCents is the charge per coin in the smallest currency unit.
const DefaultCoinPriceCents = 10

const providerRefMetadataKey = "provider_ref"

type PaymentCoinRepository interface {
	CreateTopup(ctx context.Context, topup domain.CoinTopup) (domain.CoinTopup, error)
	FindTopupByRef(ctx context.Context, providerRef string) (domain.CoinTopup, error)
	FindTopupsByUser(ctx context.Context, userID uint) ([]domain.CoinTopup, error)
	FindAllTopups(ctx context.Context, limit int) ([]domain.CoinTopup, error)
	FindLedgerByUser(ctx context.Context, userID uint, limit int) ([]domain.CoinLedgerEntry, error)
	ConfirmTopup(ctx context.Context, providerRef string) (domain.CoinTopup, int, error)
	FailTopup(ctx context.Context, providerRef string) (domain.CoinTopup, error)
}

// PaymentService sells coins through Stripe. A top-up is created pending with
// a fresh provider ref, then settled by the provider webhook; the balance
// credit happens exactly once, inside the repository transaction.
type PaymentService struct {
	coins          PaymentCoinRepository
	broadcaster    EventBroadcaster
	webhookSecret  string
	coinPriceCents int64
}

func NewPaymentService(coins PaymentCoinRepository, broadcaster EventBroadcaster, stripeKey, webhookSecret string, coinPriceCents int64) *PaymentService {
	stripe.Key = stripeKey

	if coinPriceCents <= 0 {
		coinPriceCents = DefaultCoinPriceCents
	}

	return &PaymentService{
		coins:          coins,
		broadcaster:    broadcaster,
		webhookSecret:  webhookSecret,
		coinPriceCents: coinPriceCents,
	}
}

// CreateTopup opens a pending top-up of the given coin amount and returns it
// together with the Stripe client secret the frontend needs to collect
// payment.
func (s *PaymentService) CreateTopup(ctx context.Context, userID uint, amount int) (domain.CoinTopup, string, error) {
	if amount <= 0 {
		return domain.CoinTopup{}, "", ErrInvalidAmount
	}

	providerRef := uuid.NewString()

	topup, err := s.coins.CreateTopup(ctx, domain.CoinTopup{
		UserID:      userID,
		Amount:      amount,
		ProviderRef: providerRef,
	})
	if err != nil {
		return domain.CoinTopup{}, "", fmt.Errorf("s.coins.CreateTopup -> %w", err)
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(int64(amount) * s.coinPriceCents),
		Currency: stripe.String(string(stripe.CurrencyEUR)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			"card",
		}),
	}
	params.AddMetadata(providerRefMetadataKey, providerRef)

	intent, err := paymentintent.New(params)
	if err != nil {
		if _, failErr := s.coins.FailTopup(ctx, providerRef); failErr != nil {
			zap.L().Error("failed to mark topup failed after stripe error",
				zap.String("provider_ref", providerRef),
				zap.Error(failErr))
		}
		return domain.CoinTopup{}, "", fmt.Errorf("paymentintent.New -> %w", err)
	}

	return topup, intent.ClientSecret, nil
}

// HandleProviderWebhook verifies and applies a Stripe event. Unhandled event
// types are acknowledged without effect.
func (s *PaymentService) HandleProviderWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	switch event.Type {
	case "payment_intent.succeeded":
		providerRef, err := providerRefFromEvent(event)
		if err != nil {
			return err
		}
		return s.ConfirmTopup(ctx, providerRef)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		providerRef, err := providerRefFromEvent(event)
		if err != nil {
			return err
		}
		return s.RejectTopup(ctx, providerRef)
	default:
		zap.L().Debug("ignoring provider event", zap.String("type", event.Type))
		return nil
	}
}

// ConfirmTopup credits the buyer and announces the settled payment on the
// channel. Settling an already-settled topup returns ErrTopupNotPending.
func (s *PaymentService) ConfirmTopup(ctx context.Context, providerRef string) error {
	topup, newBalance, err := s.coins.ConfirmTopup(ctx, providerRef)
	if err != nil {
		return fmt.Errorf("s.coins.ConfirmTopup -> %w", err)
	}

	payload := domain.PaymentEventPayload{
		UserID:      topup.UserID,
		Status:      domain.TopupStatusConfirmed,
		ProviderRef: topup.ProviderRef,
		NewBalance:  newBalance,
	}
	s.broadcaster.BroadcastEvent(domain.EventPaymentConfirmed, payload)
	s.broadcaster.BroadcastEvent(domain.EventPaymentEvent, payload)

	return nil
}

// RejectTopup marks a pending top-up failed without touching the balance.
func (s *PaymentService) RejectTopup(ctx context.Context, providerRef string) error {
	topup, err := s.coins.FailTopup(ctx, providerRef)
	if err != nil {
		return fmt.Errorf("s.coins.FailTopup -> %w", err)
	}

	s.broadcaster.BroadcastEvent(domain.EventPaymentEvent, domain.PaymentEventPayload{
		UserID:      topup.UserID,
		Status:      domain.TopupStatusFailed,
		ProviderRef: topup.ProviderRef,
	})

	return nil
}

func (s *PaymentService) GetTopup(ctx context.Context, providerRef string) (domain.CoinTopup, error) {
	topup, err := s.coins.FindTopupByRef(ctx, providerRef)
	if err != nil {
		return domain.CoinTopup{}, fmt.Errorf("s.coins.FindTopupByRef -> %w", err)
	}

	return topup, nil
}

func (s *PaymentService) ListUserTopups(ctx context.Context, userID uint) ([]domain.CoinTopup, error) {
	topups, err := s.coins.FindTopupsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("s.coins.FindTopupsByUser -> %w", err)
	}

	return topups, nil
}

func (s *PaymentService) ListAllTopups(ctx context.Context, limit int) ([]domain.CoinTopup, error) {
	topups, err := s.coins.FindAllTopups(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("s.coins.FindAllTopups -> %w", err)
	}

	return topups, nil
}

func (s *PaymentService) ListUserLedger(ctx context.Context, userID uint, limit int) ([]domain.CoinLedgerEntry, error) {
	entries, err := s.coins.FindLedgerByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("s.coins.FindLedgerByUser -> %w", err)
	}

	return entries, nil
}

func providerRefFromEvent(event stripe.Event) (string, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return "", fmt.Errorf("decode payment intent from event -> %w", err)
	}

	providerRef := intent.Metadata[providerRefMetadataKey]
	if providerRef == "" {
		return "", fmt.Errorf("event %s carries no %s metadata", event.ID, providerRefMetadataKey)
	}

	return providerRef, nil
}
