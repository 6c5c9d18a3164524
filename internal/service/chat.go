package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

var (
	ErrMessageNotFound = repository.ErrMessageNotFound
	ErrUserSuspended   = errors.New("user is suspended")
)

type ChatRepository interface {
	Create(ctx context.Context, message domain.ChatMessage) (domain.ChatMessage, error)
	FindByID(ctx context.Context, id uint) (domain.ChatMessage, error)
	FindPage(ctx context.Context, before *time.Time, limit int) ([]domain.ChatMessage, error)
	MarkDeleted(ctx context.Context, id uint, deletedBy uint, now time.Time) (domain.ChatMessage, error)
}

type ChatUserRepository interface {
	FindProfile(ctx context.Context, userID uint) (domain.Profile, error)
	FindRoles(ctx context.Context, userID uint) ([]string, error)
	FindActiveSuspension(ctx context.Context, userID uint, now time.Time) (domain.UserSuspension, error)
}

const (
	defaultChatPageSize = 50
	maxChatPageSize     = 100
)

type ChatService struct {
	repo        ChatRepository
	userRepo    ChatUserRepository
	broadcaster EventBroadcaster
}

func NewChatService(repo ChatRepository, userRepo ChatUserRepository, broadcaster EventBroadcaster) *ChatService {
	return &ChatService{
		repo:        repo,
		userRepo:    userRepo,
		broadcaster: broadcaster,
	}
}

// PostMessage stores a message from the user and pushes it to the channel as
// both a row-change notification and a CHAT_MESSAGE broadcast. Suspended
// users are rejected.
func (s *ChatService) PostMessage(ctx context.Context, authorID uint, text string) (domain.ChatMessage, error) {
	if _, err := s.userRepo.FindActiveSuspension(ctx, authorID, time.Now()); err == nil {
		return domain.ChatMessage{}, ErrUserSuspended
	} else if !errors.Is(err, repository.ErrSuspensionNotFound) {
		return domain.ChatMessage{}, fmt.Errorf("s.userRepo.FindActiveSuspension -> %w", err)
	}

	profile, err := s.userRepo.FindProfile(ctx, authorID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("s.userRepo.FindProfile -> %w", err)
	}

	roles, err := s.userRepo.FindRoles(ctx, authorID)
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("s.userRepo.FindRoles -> %w", err)
	}

	created, err := s.repo.Create(ctx, domain.ChatMessage{
		Message:         &text,
		AuthorUserID:    authorID,
		AuthorUsername:  profile.Username,
		AuthorAvatarURL: profile.AvatarURL,
		AuthorColor:     profile.Color,
		MessageSource:   messageSourceFor(roles),
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.broadcaster.BroadcastRowChange("chat_messages", domain.RowActionInsert, created)
	s.broadcaster.BroadcastEvent(domain.EventChatMessage, created)

	return created, nil
}

// PostSystemMessage stores an announcement attributed to the system author.
func (s *ChatService) PostSystemMessage(ctx context.Context, adminID uint, text string) (domain.ChatMessage, error) {
	created, err := s.repo.Create(ctx, domain.ChatMessage{
		Message:        &text,
		AuthorUserID:   adminID,
		AuthorUsername: "Mesmerism",
		MessageSource:  domain.MessageSourceSystem,
	})
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	s.broadcaster.BroadcastRowChange("chat_messages", domain.RowActionInsert, created)
	s.broadcaster.BroadcastEvent(domain.EventSystemAnnouncement, domain.AnnouncementPayload{Message: text})

	return created, nil
}

// ListMessages returns up to limit messages strictly older than before,
// newest first. A nil before starts from the newest message.
func (s *ChatService) ListMessages(ctx context.Context, before *time.Time, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = defaultChatPageSize
	}
	if limit > maxChatPageSize {
		limit = maxChatPageSize
	}

	messages, err := s.repo.FindPage(ctx, before, limit)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindPage -> %w", err)
	}

	return messages, nil
}

// MarkMessageDeleted soft-deletes a message and pushes the updated row image
// so clients drop it from their visible lists.
func (s *ChatService) MarkMessageDeleted(ctx context.Context, messageID, deletedBy uint) (domain.ChatMessage, error) {
	updated, err := s.repo.MarkDeleted(ctx, messageID, deletedBy, time.Now())
	if err != nil {
		return domain.ChatMessage{}, fmt.Errorf("s.repo.MarkDeleted -> %w", err)
	}

	s.broadcaster.BroadcastRowChange("chat_messages", domain.RowActionUpdate, updated)

	return updated, nil
}

// messageSourceFor maps the author's highest-privilege role onto the message
// source shown in chat.
func messageSourceFor(roles []string) string {
	source := domain.MessageSourceUser
	for _, role := range roles {
		switch role {
		case domain.RoleAdmin:
			return domain.MessageSourceAdmin
		case domain.RoleModerator:
			source = domain.MessageSourceModerator
		case domain.RoleCreator:
			if source == domain.MessageSourceUser {
				source = domain.MessageSourceCreator
			}
		}
	}
	return source
}
