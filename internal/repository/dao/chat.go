package dao

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	ErrMessageNotFound = errors.New("chat message not found")
)

type ChatMessage struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`

	// Message goes nil on soft delete; the row itself is kept.
	Message      *string
	AuthorUserID uint `gorm:"index;not null"`

	AuthorUsername  string
	AuthorAvatarURL string
	AuthorColor     string

	MessageSource string `gorm:"not null;default:user"`

	DeletedAt *time.Time
	DeletedBy *uint
}

type ChatDAO struct {
	db *gorm.DB
}

func NewChatDAO(db *gorm.DB) *ChatDAO {
	return &ChatDAO{
		db: db,
	}
}

func (d *ChatDAO) Insert(ctx context.Context, message ChatMessage) (ChatMessage, error) {
	result := d.db.WithContext(ctx).Create(&message)
	if result.Error != nil {
		return ChatMessage{}, result.Error
	}

	return message, nil
}

func (d *ChatDAO) FindByID(ctx context.Context, id uint) (ChatMessage, error) {
	var message ChatMessage

	result := d.db.WithContext(ctx).First(&message, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return ChatMessage{}, ErrMessageNotFound
		}

		return ChatMessage{}, result.Error
	}

	return message, nil
}

// FindPage returns up to limit messages strictly older than before, newest
// first. A nil before starts from the newest message.
func (d *ChatDAO) FindPage(ctx context.Context, before *time.Time, limit int) ([]ChatMessage, error) {
	var messages []ChatMessage

	query := d.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if before != nil {
		query = query.Where("created_at < ?", *before)
	}

	result := query.Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}

	return messages, nil
}

// MarkDeleted nulls the message body and stamps the soft-delete markers.
func (d *ChatDAO) MarkDeleted(ctx context.Context, id uint, deletedBy uint, now time.Time) (ChatMessage, error) {
	result := d.db.WithContext(ctx).Model(&ChatMessage{}).
		Where("id = ? AND deleted_at IS NULL", id).
		Updates(map[string]any{
			"message":    nil,
			"deleted_at": now,
			"deleted_by": deletedBy,
		})
	if result.Error != nil {
		return ChatMessage{}, result.Error
	}
	if result.RowsAffected == 0 {
		return ChatMessage{}, ErrMessageNotFound
	}

	return d.FindByID(ctx, id)
}
