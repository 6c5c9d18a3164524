package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository/dao"
)

var (
	ErrUserEmailExists    = dao.ErrUserEmailExists
	ErrUserNotFound       = dao.ErrUserNotFound
	ErrSuspensionNotFound = dao.ErrSuspensionNotFound
)

type UserDAO interface {
	Insert(ctx context.Context, user dao.User, profile dao.Profile) (dao.User, error)
	FindByID(ctx context.Context, id uint) (dao.User, error)
	FindByEmail(ctx context.Context, email string) (dao.User, error)
	FindProfile(ctx context.Context, userID uint) (dao.Profile, error)
	FindProfiles(ctx context.Context, userIDs []uint) ([]dao.Profile, error)
	UpdateProfileAvatar(ctx context.Context, userID uint, avatarURL string) error
	FindRoles(ctx context.Context, userID uint) ([]dao.UserRole, error)
	GrantRole(ctx context.Context, userID uint, role string) error
	RevokeRole(ctx context.Context, userID uint, role string) error
	InsertSuspension(ctx context.Context, s dao.UserSuspension) (dao.UserSuspension, error)
	FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (dao.UserSuspension, error)
	ClearSuspensions(ctx context.Context, userID uint, now time.Time) error
}

type UserRepository struct {
	dao UserDAO
}

func NewUserRepository(dao UserDAO) *UserRepository {
	return &UserRepository{
		dao: dao,
	}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User, color string) (domain.User, error) {
	created, err := r.dao.Insert(ctx, dao.User{
		Email:    user.Email,
		Password: user.Password,
		Username: user.Username,
	}, dao.Profile{
		Color: color,
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id uint) (domain.User, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	found, err := r.dao.FindByEmail(ctx, email)
	if err != nil {
		return domain.User{}, fmt.Errorf("r.dao.FindByEmail -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *UserRepository) FindProfile(ctx context.Context, userID uint) (domain.Profile, error) {
	found, err := r.dao.FindProfile(ctx, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("r.dao.FindProfile -> %w", err)
	}

	return r.profileDaoToDomain(found), nil
}

func (r *UserRepository) FindProfiles(ctx context.Context, userIDs []uint) ([]domain.Profile, error) {
	found, err := r.dao.FindProfiles(ctx, userIDs)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindProfiles -> %w", err)
	}

	profiles := make([]domain.Profile, 0, len(found))
	for _, p := range found {
		profiles = append(profiles, r.profileDaoToDomain(p))
	}

	return profiles, nil
}

func (r *UserRepository) UpdateAvatar(ctx context.Context, userID uint, avatarURL string) error {
	if err := r.dao.UpdateProfileAvatar(ctx, userID, avatarURL); err != nil {
		return fmt.Errorf("r.dao.UpdateProfileAvatar -> %w", err)
	}

	return nil
}

func (r *UserRepository) FindRoles(ctx context.Context, userID uint) ([]string, error) {
	found, err := r.dao.FindRoles(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindRoles -> %w", err)
	}

	roles := make([]string, 0, len(found))
	for _, role := range found {
		roles = append(roles, role.Role)
	}

	return roles, nil
}

func (r *UserRepository) GrantRole(ctx context.Context, userID uint, role string) error {
	if err := r.dao.GrantRole(ctx, userID, role); err != nil {
		return fmt.Errorf("r.dao.GrantRole -> %w", err)
	}

	return nil
}

func (r *UserRepository) RevokeRole(ctx context.Context, userID uint, role string) error {
	if err := r.dao.RevokeRole(ctx, userID, role); err != nil {
		return fmt.Errorf("r.dao.RevokeRole -> %w", err)
	}

	return nil
}

func (r *UserRepository) CreateSuspension(ctx context.Context, s domain.UserSuspension) (domain.UserSuspension, error) {
	created, err := r.dao.InsertSuspension(ctx, dao.UserSuspension{
		TargetUserID: s.TargetUserID,
		Reason:       s.Reason,
		ExpiresAt:    s.ExpiresAt,
	})
	if err != nil {
		return domain.UserSuspension{}, fmt.Errorf("r.dao.InsertSuspension -> %w", err)
	}

	return r.suspensionDaoToDomain(created), nil
}

func (r *UserRepository) FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (domain.UserSuspension, error) {
	found, err := r.dao.FindActiveSuspension(ctx, userID, now)
	if err != nil {
		return domain.UserSuspension{}, fmt.Errorf("r.dao.FindActiveSuspension -> %w", err)
	}

	return r.suspensionDaoToDomain(found), nil
}

func (r *UserRepository) ClearSuspensions(ctx context.Context, userID uint, now time.Time) error {
	if err := r.dao.ClearSuspensions(ctx, userID, now); err != nil {
		return fmt.Errorf("r.dao.ClearSuspensions -> %w", err)
	}

	return nil
}

func (r *UserRepository) daoToDomain(u dao.User) domain.User {
	return domain.User{
		ID:        u.ID,
		Email:     u.Email,
		Password:  u.Password,
		Username:  u.Username,
		Balance:   u.Balance,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (r *UserRepository) profileDaoToDomain(p dao.Profile) domain.Profile {
	return domain.Profile{
		UserID:     p.UserID,
		Username:   p.Username,
		AvatarURL:  p.AvatarURL,
		Color:      p.Color,
		BubbleText: p.BubbleText,
	}
}

func (r *UserRepository) suspensionDaoToDomain(s dao.UserSuspension) domain.UserSuspension {
	return domain.UserSuspension{
		ID:           s.ID,
		TargetUserID: s.TargetUserID,
		Reason:       s.Reason,
		ExpiresAt:    s.ExpiresAt,
		ClearedAt:    s.ClearedAt,
		CreatedAt:    s.CreatedAt,
	}
}
