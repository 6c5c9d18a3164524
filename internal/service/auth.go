package service

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

var (
	ErrUserEmailExists = repository.ErrUserEmailExists
	ErrWrongPassword   = errors.New("wrong password")
)

// chatColors is the palette a new user's display color is drawn from.
var chatColors = []string{
	"#f87171", "#fb923c", "#facc15", "#4ade80",
	"#2dd4bf", "#38bdf8", "#818cf8", "#e879f9",
}

type AuthUserRepository interface {
	Create(ctx context.Context, user domain.User, color string) (domain.User, error)
	FindByEmail(ctx context.Context, email string) (domain.User, error)
}

type AuthService struct {
	repo AuthUserRepository
}

func NewAuthService(repo AuthUserRepository) *AuthService {
	return &AuthService{
		repo: repo,
	}
}

func (s *AuthService) Signup(ctx context.Context, user domain.User) (domain.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, err
	}
	user.Password = string(hash)

	created, err := s.repo.Create(ctx, user, colorFor(user.Username))
	if err != nil {
		return domain.User{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (domain.User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return domain.User{}, ErrUserNotFound
		}

		return domain.User{}, fmt.Errorf("s.repo.FindByEmail -> %w", err)
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return domain.User{}, ErrWrongPassword
	}

	return user, nil
}

// colorFor deterministically assigns a chat color so the same username always
// renders the same.
func colorFor(username string) string {
	h := fnv.New32a()
	h.Write([]byte(username))
	return chatColors[h.Sum32()%uint32(len(chatColors))]
}
