package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

var ErrSuspensionNotFound = repository.ErrSuspensionNotFound

type SuspensionUserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	CreateSuspension(ctx context.Context, suspension domain.UserSuspension) (domain.UserSuspension, error)
	FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (domain.UserSuspension, error)
	ClearSuspensions(ctx context.Context, userID uint, now time.Time) error
}

// SuspensionService manages moderation suspensions and announces every change
// on the channel so the banner on affected clients updates without a reload.
type SuspensionService struct {
	repo        SuspensionUserRepository
	broadcaster EventBroadcaster
	now         func() time.Time
}

func NewSuspensionService(repo SuspensionUserRepository, broadcaster EventBroadcaster) *SuspensionService {
	return &SuspensionService{
		repo:        repo,
		broadcaster: broadcaster,
		now:         time.Now,
	}
}

// Suspend records a suspension against the target. A nil expiresAt means
// permanent until cleared.
func (s *SuspensionService) Suspend(ctx context.Context, targetUserID uint, reason string, expiresAt *time.Time) (domain.UserSuspension, error) {
	if _, err := s.repo.FindByID(ctx, targetUserID); err != nil {
		return domain.UserSuspension{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	created, err := s.repo.CreateSuspension(ctx, domain.UserSuspension{
		TargetUserID: targetUserID,
		Reason:       reason,
		ExpiresAt:    expiresAt,
	})
	if err != nil {
		return domain.UserSuspension{}, fmt.Errorf("s.repo.CreateSuspension -> %w", err)
	}

	s.broadcaster.BroadcastEvent(domain.EventUserSuspension, domain.SuspensionPayload{
		TargetUserID: created.TargetUserID,
		Reason:       created.Reason,
		ExpiresAt:    created.ExpiresAt,
	})

	return created, nil
}

// Clear lifts every open suspension on the target and announces the lift.
func (s *SuspensionService) Clear(ctx context.Context, targetUserID uint) error {
	if err := s.repo.ClearSuspensions(ctx, targetUserID, s.now()); err != nil {
		return fmt.Errorf("s.repo.ClearSuspensions -> %w", err)
	}

	s.broadcaster.BroadcastEvent(domain.EventUserSuspension, domain.SuspensionPayload{
		TargetUserID:      targetUserID,
		ClearedSuspension: true,
	})

	return nil
}

// ActiveSuspension returns the target's active suspension, or
// ErrSuspensionNotFound when the user is in good standing.
func (s *SuspensionService) ActiveSuspension(ctx context.Context, userID uint) (domain.UserSuspension, error) {
	suspension, err := s.repo.FindActiveSuspension(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, repository.ErrSuspensionNotFound) {
			return domain.UserSuspension{}, ErrSuspensionNotFound
		}
		return domain.UserSuspension{}, fmt.Errorf("s.repo.FindActiveSuspension -> %w", err)
	}

	return suspension, nil
}
