package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

type stubAuthRepo struct {
	created  domain.User
	gotColor string
	byEmail  domain.User
	emailErr error
}

func (r *stubAuthRepo) Create(_ context.Context, user domain.User, color string) (domain.User, error) {
	user.ID = 1
	r.created = user
	r.gotColor = color
	return user, nil
}

func (r *stubAuthRepo) FindByEmail(context.Context, string) (domain.User, error) {
	if r.emailErr != nil {
		return domain.User{}, r.emailErr
	}
	return r.byEmail, nil
}

func TestAuthService_SignupHashesPassword(t *testing.T) {
	repo := &stubAuthRepo{}
	svc := NewAuthService(repo)

	_, err := svc.Signup(context.Background(), domain.User{
		Email:    "user@example.com",
		Username: "someone",
		Password: "abcdefg1",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "abcdefg1", repo.created.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.created.Password), []byte("abcdefg1")))
	assert.NotEmpty(t, repo.gotColor)
}

func TestAuthService_SignupColorIsDeterministic(t *testing.T) {
	assert.Equal(t, colorFor("someone"), colorFor("someone"))
	assert.Contains(t, chatColors, colorFor("someone"))
}

func TestAuthService_LoginChecksPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("abcdefg1"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := &stubAuthRepo{byEmail: domain.User{ID: 1, Email: "user@example.com", Password: string(hash)}}
	svc := NewAuthService(repo)

	user, err := svc.Login(context.Background(), "user@example.com", "abcdefg1")
	require.NoError(t, err)
	assert.Equal(t, uint(1), user.ID)

	_, err = svc.Login(context.Background(), "user@example.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrWrongPassword)
}

func TestAuthService_LoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&stubAuthRepo{emailErr: repository.ErrUserNotFound})

	_, err := svc.Login(context.Background(), "ghost@example.com", "abcdefg1")
	assert.ErrorIs(t, err, ErrUserNotFound)
}
