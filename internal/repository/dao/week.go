package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrWeekNotFound = errors.New("competition week not found")
)

type CompetitionWeek struct {
	ID         uint   `gorm:"primaryKey"`
	WeekNumber int    `gorm:"not null"`
	Title      string `gorm:"not null"`
	StartsAt   *time.Time
	EndsAt     *time.Time
	IsActive   bool      `gorm:"not null;default:false"`
	CreatedAt  time.Time `gorm:"not null"`
	UpdatedAt  time.Time `gorm:"not null"`
}

type WeekParticipant struct {
	ID            uint            `gorm:"primaryKey"`
	WeekID        uint            `gorm:"index;not null;uniqueIndex:idx_week_creator"`
	Week          CompetitionWeek `gorm:"foreignKey:WeekID"`
	CreatorUserID uint            `gorm:"not null;uniqueIndex:idx_week_creator"`
	CreatedAt     time.Time       `gorm:"not null"`
}

type WeekDAO struct {
	db *gorm.DB
}

func NewWeekDAO(db *gorm.DB) *WeekDAO {
	return &WeekDAO{
		db: db,
	}
}

func (d *WeekDAO) Insert(ctx context.Context, week CompetitionWeek) (CompetitionWeek, error) {
	result := d.db.WithContext(ctx).Create(&week)
	if result.Error != nil {
		return CompetitionWeek{}, result.Error
	}

	return week, nil
}

func (d *WeekDAO) Update(ctx context.Context, week CompetitionWeek) (CompetitionWeek, error) {
	result := d.db.WithContext(ctx).Save(&week)
	if result.Error != nil {
		return CompetitionWeek{}, result.Error
	}

	return week, nil
}

func (d *WeekDAO) FindByID(ctx context.Context, id uint) (CompetitionWeek, error) {
	var week CompetitionWeek

	result := d.db.WithContext(ctx).First(&week, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return CompetitionWeek{}, ErrWeekNotFound
		}

		return CompetitionWeek{}, result.Error
	}

	return week, nil
}

func (d *WeekDAO) FindAll(ctx context.Context) ([]CompetitionWeek, error) {
	var weeks []CompetitionWeek

	result := d.db.WithContext(ctx).Order("week_number ASC").Find(&weeks)
	if result.Error != nil {
		return nil, result.Error
	}

	return weeks, nil
}

func (d *WeekDAO) FindActive(ctx context.Context) ([]CompetitionWeek, error) {
	var weeks []CompetitionWeek

	result := d.db.WithContext(ctx).Where("is_active = ?", true).Order("week_number ASC").Find(&weeks)
	if result.Error != nil {
		return nil, result.Error
	}

	return weeks, nil
}

func (d *WeekDAO) SetActive(ctx context.Context, id uint, active bool) error {
	result := d.db.WithContext(ctx).Model(&CompetitionWeek{}).
		Where("id = ?", id).
		Update("is_active", active)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrWeekNotFound
	}

	return nil
}

func (d *WeekDAO) AddParticipant(ctx context.Context, weekID, creatorUserID uint) error {
	return d.db.WithContext(ctx).Create(&WeekParticipant{
		WeekID:        weekID,
		CreatorUserID: creatorUserID,
	}).Error
}

func (d *WeekDAO) IsParticipant(ctx context.Context, weekID, creatorUserID uint) (bool, error) {
	var count int64

	result := d.db.WithContext(ctx).Model(&WeekParticipant{}).
		Where("week_id = ? AND creator_user_id = ?", weekID, creatorUserID).
		Count(&count)
	if result.Error != nil {
		return false, result.Error
	}

	return count > 0, nil
}

func (d *WeekDAO) FindParticipants(ctx context.Context, weekID uint) ([]WeekParticipant, error) {
	var participants []WeekParticipant

	result := d.db.WithContext(ctx).Where("week_id = ?", weekID).Find(&participants)
	if result.Error != nil {
		return nil, result.Error
	}

	return participants, nil
}
