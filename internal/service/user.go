package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
	"github.com/mesmerism/api/internal/storage"
)

var (
	ErrUserNotFound = repository.ErrUserNotFound
	ErrInvalidRole  = errors.New("invalid role")
)

type UserRepository interface {
	FindByID(ctx context.Context, id uint) (domain.User, error)
	FindProfile(ctx context.Context, userID uint) (domain.Profile, error)
	FindProfiles(ctx context.Context, userIDs []uint) ([]domain.Profile, error)
	UpdateAvatar(ctx context.Context, userID uint, avatarURL string) error
	FindRoles(ctx context.Context, userID uint) ([]string, error)
	GrantRole(ctx context.Context, userID uint, role string) error
	RevokeRole(ctx context.Context, userID uint, role string) error
	FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (domain.UserSuspension, error)
}

type UserService struct {
	repo     UserRepository
	uploader storage.Uploader
}

func NewUserService(repo UserRepository, uploader storage.Uploader) *UserService {
	return &UserService{
		repo:     repo,
		uploader: uploader,
	}
}

func (s *UserService) GetUser(ctx context.Context, id uint) (domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user, nil
}

func (s *UserService) GetProfile(ctx context.Context, userID uint) (domain.Profile, error) {
	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("s.repo.FindProfile -> %w", err)
	}

	return profile, nil
}

func (s *UserService) GetProfiles(ctx context.Context, userIDs []uint) ([]domain.Profile, error) {
	profiles, err := s.repo.FindProfiles(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindProfiles -> %w", err)
	}

	return profiles, nil
}

// GetSelfOverview assembles the authoritative self snapshot: identity,
// display fields, balance, roles and the active suspension, if any.
func (s *UserService) GetSelfOverview(ctx context.Context, userID uint) (domain.UserOverview, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return domain.UserOverview{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	profile, err := s.repo.FindProfile(ctx, userID)
	if err != nil {
		return domain.UserOverview{}, fmt.Errorf("s.repo.FindProfile -> %w", err)
	}

	roles, err := s.repo.FindRoles(ctx, userID)
	if err != nil {
		return domain.UserOverview{}, fmt.Errorf("s.repo.FindRoles -> %w", err)
	}

	overview := domain.UserOverview{
		ID:        user.ID,
		Username:  user.Username,
		AvatarURL: profile.AvatarURL,
		Color:     profile.Color,
		Balance:   user.Balance,
		Roles:     roles,
	}

	suspension, err := s.repo.FindActiveSuspension(ctx, userID, time.Now())
	switch {
	case err == nil:
		overview.Suspended = true
		overview.SuspensionReason = suspension.Reason
		overview.SuspensionExpiresAt = suspension.ExpiresAt
	case errors.Is(err, repository.ErrSuspensionNotFound):
		// Not suspended.
	default:
		return domain.UserOverview{}, fmt.Errorf("s.repo.FindActiveSuspension -> %w", err)
	}

	return overview, nil
}

// GetBalance is the reconciliation point read clients fall back to when they
// suspect a missed balance event.
func (s *UserService) GetBalance(ctx context.Context, userID uint) (int, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return user.Balance, nil
}

// UploadAvatar stores the image and records its public URL on the profile.
func (s *UserService) UploadAvatar(ctx context.Context, userID uint, filename string, contentType string, body io.Reader) (string, error) {
	key := fmt.Sprintf("avatars/%d/%s", userID, filename)

	url, err := s.uploader.Upload(ctx, key, contentType, body)
	if err != nil {
		return "", fmt.Errorf("s.uploader.Upload -> %w", err)
	}

	if err := s.repo.UpdateAvatar(ctx, userID, url); err != nil {
		return "", fmt.Errorf("s.repo.UpdateAvatar -> %w", err)
	}

	return url, nil
}

// HasRole reports whether the user carries the given role. Admins implicitly
// satisfy moderator checks.
func (s *UserService) HasRole(ctx context.Context, userID uint, role string) (bool, error) {
	roles, err := s.repo.FindRoles(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("s.repo.FindRoles -> %w", err)
	}

	for _, r := range roles {
		if r == role {
			return true, nil
		}
		if r == domain.RoleAdmin && role == domain.RoleModerator {
			return true, nil
		}
	}

	return false, nil
}

func (s *UserService) GrantRole(ctx context.Context, userID uint, role string) error {
	if !validRole(role) {
		return ErrInvalidRole
	}

	if err := s.repo.GrantRole(ctx, userID, role); err != nil {
		return fmt.Errorf("s.repo.GrantRole -> %w", err)
	}

	return nil
}

func (s *UserService) RevokeRole(ctx context.Context, userID uint, role string) error {
	if !validRole(role) {
		return ErrInvalidRole
	}

	if err := s.repo.RevokeRole(ctx, userID, role); err != nil {
		return fmt.Errorf("s.repo.RevokeRole -> %w", err)
	}

	return nil
}

func validRole(role string) bool {
	switch role {
	case domain.RoleAdmin, domain.RoleModerator, domain.RoleCreator:
		return true
	}
	return false
}
