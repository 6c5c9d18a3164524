package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository/dao"
)

var (
	ErrMessageNotFound = dao.ErrMessageNotFound
)

type ChatDAO interface {
	Insert(ctx context.Context, message dao.ChatMessage) (dao.ChatMessage, error)
	FindByID(ctx context.Context, id uint) (dao.ChatMessage, error)
	FindPage(ctx context.Context, before *time.Time, limit int) ([]dao.ChatMessage, error)
	MarkDeleted(ctx context.Context, id uint, deletedBy uint, now time.Time) (dao.ChatMessage, error)
}

type ChatRepository struct {
	dao ChatDAO
}

func NewChatRepository(dao ChatDAO) *ChatRepository {
	return &ChatRepository{
		dao: dao,
	}
}

func (r *ChatRepository) Create(ctx context.Context, message domain.ChatMessage) (domain.ChatMessage, error) {
	created, err := r.dao.Insert(ctx, dao.ChatMessage{
		Message:         message.Message,
		AuthorUserID:    message.AuthorUserID,
		AuthorUsername:  message.AuthorUsername,
		AuthorAvatarURL: message.AuthorAvatarURL,
		AuthorColor:     message.AuthorColor,
		MessageSource:   message.MessageSource,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *ChatRepository) FindByID(ctx context.Context, id uint) (domain.ChatMessage, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

// FindPage returns up to limit messages strictly older than before, newest
// first, matching how the client paginates backwards.
func (r *ChatRepository) FindPage(ctx context.Context, before *time.Time, limit int) ([]domain.ChatMessage, error) {
	found, err := r.dao.FindPage(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindPage -> %w", err)
	}

	messages := make([]domain.ChatMessage, 0, len(found))
	for _, m := range found {
		messages = append(messages, r.daoToDomain(m))
	}

	return messages, nil
}

func (r *ChatRepository) MarkDeleted(ctx context.Context, id uint, deletedBy uint, now time.Time) (domain.ChatMessage, error) {
	updated, err := r.dao.MarkDeleted(ctx, id, deletedBy, now)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("r.dao.MarkDeleted -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *ChatRepository) daoToDomain(m dao.ChatMessage) domain.ChatMessage {
	return domain.ChatMessage{
		ID:              m.ID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Message:         m.Message,
		AuthorUserID:    m.AuthorUserID,
		AuthorUsername:  m.AuthorUsername,
		AuthorAvatarURL: m.AuthorAvatarURL,
		AuthorColor:     m.AuthorColor,
		MessageSource:   m.MessageSource,
		DeletedAt:       m.DeletedAt,
		DeletedBy:       m.DeletedBy,
	}
}
