package dao

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserEmailExists    = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrSuspensionNotFound = errors.New("suspension not found")
)

type User struct {
	ID uint `gorm:"primaryKey"`

	Email    string `gorm:"unique;not null"`
	Password string `gorm:"not null"`
	Username string `gorm:"unique;not null"`

	// Balance is the authoritative coin count; mutated only inside
	// transactions alongside a ledger entry.
	Balance int `gorm:"not null;default:0"`

	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

type Profile struct {
	UserID     uint `gorm:"primaryKey"`
	User       User `gorm:"foreignKey:UserID"`
	Username   string
	AvatarURL  string
	Color      string
	BubbleText string
	UpdatedAt  time.Time
}

type UserRole struct {
	ID     uint   `gorm:"primaryKey"`
	UserID uint   `gorm:"index;not null;uniqueIndex:idx_user_role"`
	Role   string `gorm:"not null;uniqueIndex:idx_user_role"`
}

type UserSuspension struct {
	ID           uint   `gorm:"primaryKey"`
	TargetUserID uint   `gorm:"index;not null"`
	Reason       string `gorm:"not null"`
	ExpiresAt    *time.Time
	ClearedAt    *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

type UserDAO struct {
	db *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{
		db: db,
	}
}

func (d *UserDAO) Insert(ctx context.Context, user User, profile Profile) (User, error) {
	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if result := tx.Create(&user); result.Error != nil {
			return result.Error
		}
		profile.UserID = user.ID
		profile.Username = user.Username
		if result := tx.Create(&profile); result.Error != nil {
			return result.Error
		}
		return nil
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) &&
			pgErr.Code == pgerrcode.UniqueViolation &&
			(strings.Contains(pgErr.Message, `uni_users_email`) || strings.Contains(pgErr.Message, `uni_users_username`)) {
			return User{}, ErrUserEmailExists
		}

		return User{}, err
	}

	return user, nil
}

func (d *UserDAO) FindByID(ctx context.Context, id uint) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindByEmail(ctx context.Context, email string) (User, error) {
	var user User

	result := d.db.WithContext(ctx).First(&user, "email = ?", email)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return User{}, ErrUserNotFound
		}

		return User{}, result.Error
	}

	return user, nil
}

func (d *UserDAO) FindProfile(ctx context.Context, userID uint) (Profile, error) {
	var profile Profile

	result := d.db.WithContext(ctx).First(&profile, "user_id = ?", userID)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return Profile{}, ErrUserNotFound
		}

		return Profile{}, result.Error
	}

	return profile, nil
}

func (d *UserDAO) FindProfiles(ctx context.Context, userIDs []uint) ([]Profile, error) {
	var profiles []Profile

	result := d.db.WithContext(ctx).Where("user_id IN ?", userIDs).Find(&profiles)
	if result.Error != nil {
		return nil, result.Error
	}

	return profiles, nil
}

func (d *UserDAO) UpdateProfileAvatar(ctx context.Context, userID uint, avatarURL string) error {
	result := d.db.WithContext(ctx).Model(&Profile{}).
		Where("user_id = ?", userID).
		Update("avatar_url", avatarURL)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (d *UserDAO) FindRoles(ctx context.Context, userID uint) ([]UserRole, error) {
	var roles []UserRole

	result := d.db.WithContext(ctx).Where("user_id = ?", userID).Find(&roles)
	if result.Error != nil {
		return nil, result.Error
	}

	return roles, nil
}

func (d *UserDAO) GrantRole(ctx context.Context, userID uint, role string) error {
	err := d.db.WithContext(ctx).Create(&UserRole{UserID: userID, Role: role}).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Already granted, treat as a no-op.
			return nil
		}
		return err
	}

	return nil
}

func (d *UserDAO) RevokeRole(ctx context.Context, userID uint, role string) error {
	return d.db.WithContext(ctx).
		Where("user_id = ? AND role = ?", userID, role).
		Delete(&UserRole{}).Error
}

func (d *UserDAO) InsertSuspension(ctx context.Context, s UserSuspension) (UserSuspension, error) {
	result := d.db.WithContext(ctx).Create(&s)
	if result.Error != nil {
		return UserSuspension{}, result.Error
	}

	return s, nil
}

// FindActiveSuspension returns the latest uncleared, unexpired suspension for
// the user.
func (d *UserDAO) FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (UserSuspension, error) {
	var s UserSuspension

	result := d.db.WithContext(ctx).
		Where("target_user_id = ? AND cleared_at IS NULL AND (expires_at IS NULL OR expires_at > ?)", userID, now).
		Order("created_at DESC").
		First(&s)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return UserSuspension{}, ErrSuspensionNotFound
		}

		return UserSuspension{}, result.Error
	}

	return s, nil
}

// ClearSuspensions marks every uncleared suspension for the user as cleared.
func (d *UserDAO) ClearSuspensions(ctx context.Context, userID uint, now time.Time) error {
	result := d.db.WithContext(ctx).Model(&UserSuspension{}).
		Where("target_user_id = ? AND cleared_at IS NULL", userID).
		Update("cleared_at", now)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrSuspensionNotFound
	}

	return nil
}
