package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

type stubChatRepo struct {
	created domain.ChatMessage
	page    []domain.ChatMessage

	gotLimit int
}

func (r *stubChatRepo) Create(_ context.Context, message domain.ChatMessage) (domain.ChatMessage, error) {
	message.ID = 42
	message.CreatedAt = time.Now()
	r.created = message
	return message, nil
}

func (r *stubChatRepo) FindByID(context.Context, uint) (domain.ChatMessage, error) {
	return r.created, nil
}

func (r *stubChatRepo) FindPage(_ context.Context, _ *time.Time, limit int) ([]domain.ChatMessage, error) {
	r.gotLimit = limit
	return r.page, nil
}

func (r *stubChatRepo) MarkDeleted(_ context.Context, id uint, deletedBy uint, now time.Time) (domain.ChatMessage, error) {
	m := r.created
	m.ID = id
	m.Message = nil
	m.DeletedAt = &now
	m.DeletedBy = &deletedBy
	return m, nil
}

type stubChatUserRepo struct {
	profile   domain.Profile
	roles     []string
	suspended bool
}

func (r *stubChatUserRepo) FindProfile(context.Context, uint) (domain.Profile, error) {
	return r.profile, nil
}

func (r *stubChatUserRepo) FindRoles(context.Context, uint) ([]string, error) {
	return r.roles, nil
}

func (r *stubChatUserRepo) FindActiveSuspension(context.Context, uint, time.Time) (domain.UserSuspension, error) {
	if r.suspended {
		return domain.UserSuspension{ID: 1}, nil
	}
	return domain.UserSuspension{}, repository.ErrSuspensionNotFound
}

func TestChatService_PostMessageBroadcastsRowChangeAndEvent(t *testing.T) {
	repo := &stubChatRepo{}
	users := &stubChatUserRepo{profile: domain.Profile{Username: "alpha", Color: "#f00"}}
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(repo, users, broadcaster)

	created, err := svc.PostMessage(context.Background(), 1, "hello")
	require.NoError(t, err)

	assert.Equal(t, "alpha", created.AuthorUsername)
	assert.Equal(t, domain.MessageSourceUser, created.MessageSource)

	require.Len(t, broadcaster.rowChanges, 1)
	assert.Equal(t, "chat_messages:insert", broadcaster.rowChanges[0])
	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, domain.EventChatMessage, broadcaster.events[0].event)
}

func TestChatService_PostMessageRejectsSuspendedAuthor(t *testing.T) {
	users := &stubChatUserRepo{suspended: true}
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(&stubChatRepo{}, users, broadcaster)

	_, err := svc.PostMessage(context.Background(), 1, "hello")
	assert.ErrorIs(t, err, ErrUserSuspended)
	assert.Empty(t, broadcaster.rowChanges)
}

func TestChatService_PostSystemMessageAnnounces(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(&stubChatRepo{}, &stubChatUserRepo{}, broadcaster)

	created, err := svc.PostSystemMessage(context.Background(), 9, "maintenance at noon")
	require.NoError(t, err)
	assert.Equal(t, domain.MessageSourceSystem, created.MessageSource)

	require.Len(t, broadcaster.events, 1)
	assert.Equal(t, domain.EventSystemAnnouncement, broadcaster.events[0].event)
	announcement := broadcaster.events[0].payload.(domain.AnnouncementPayload)
	assert.Equal(t, "maintenance at noon", announcement.Message)
}

func TestChatService_ListMessagesClampsLimit(t *testing.T) {
	repo := &stubChatRepo{}
	svc := NewChatService(repo, &stubChatUserRepo{}, &recordingBroadcaster{})

	_, err := svc.ListMessages(context.Background(), nil, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultChatPageSize, repo.gotLimit)

	_, err = svc.ListMessages(context.Background(), nil, 500)
	require.NoError(t, err)
	assert.Equal(t, maxChatPageSize, repo.gotLimit)
}

func TestChatService_MarkMessageDeletedPushesUpdatedRow(t *testing.T) {
	broadcaster := &recordingBroadcaster{}
	svc := NewChatService(&stubChatRepo{}, &stubChatUserRepo{}, broadcaster)

	updated, err := svc.MarkMessageDeleted(context.Background(), 7, 2)
	require.NoError(t, err)
	assert.True(t, updated.Deleted())

	require.Len(t, broadcaster.rowChanges, 1)
	assert.Equal(t, "chat_messages:update", broadcaster.rowChanges[0])
}

func TestMessageSourceFor(t *testing.T) {
	assert.Equal(t, domain.MessageSourceUser, messageSourceFor(nil))
	assert.Equal(t, domain.MessageSourceCreator, messageSourceFor([]string{domain.RoleCreator}))
	assert.Equal(t, domain.MessageSourceModerator, messageSourceFor([]string{domain.RoleCreator, domain.RoleModerator}))
	assert.Equal(t, domain.MessageSourceAdmin, messageSourceFor([]string{domain.RoleModerator, domain.RoleAdmin}))
}
