package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository"
)

var (
	ErrWeekNotFound = repository.ErrWeekNotFound
)

type WeekRepository interface {
	Create(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error)
	Update(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error)
	FindByID(ctx context.Context, id uint) (domain.CompetitionWeek, error)
	FindAll(ctx context.Context) ([]domain.CompetitionWeek, error)
	FindActive(ctx context.Context) ([]domain.CompetitionWeek, error)
	SetActive(ctx context.Context, id uint, active bool) error
	AddParticipant(ctx context.Context, weekID, creatorUserID uint) error
	IsParticipant(ctx context.Context, weekID, creatorUserID uint) (bool, error)
	FindParticipantIDs(ctx context.Context, weekID uint) ([]uint, error)
}

type WeekService struct {
	repo WeekRepository
	now  func() time.Time
}

func NewWeekService(repo WeekRepository) *WeekService {
	return &WeekService{
		repo: repo,
		now:  time.Now,
	}
}

func (s *WeekService) CreateWeek(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error) {
	created, err := s.repo.Create(ctx, week)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("s.repo.Create -> %w", err)
	}

	return created, nil
}

func (s *WeekService) UpdateWeek(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error) {
	updated, err := s.repo.Update(ctx, week)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("s.repo.Update -> %w", err)
	}

	return updated, nil
}

func (s *WeekService) GetWeek(ctx context.Context, id uint) (domain.CompetitionWeek, error) {
	week, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return week, nil
}

func (s *WeekService) ListWeeks(ctx context.Context) ([]domain.CompetitionWeek, error) {
	weeks, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	return weeks, nil
}

// CurrentWeek picks the active week whose interval contains now. When no
// active week matches, it falls back to the default week id.
func (s *WeekService) CurrentWeek(ctx context.Context) (domain.CompetitionWeek, error) {
	active, err := s.repo.FindActive(ctx)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("s.repo.FindActive -> %w", err)
	}

	now := s.now()
	for _, week := range active {
		if week.Contains(now) {
			return week, nil
		}
	}

	fallback, err := s.repo.FindByID(ctx, domain.DefaultWeekID)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	return fallback, nil
}

func (s *WeekService) AddParticipant(ctx context.Context, weekID, creatorUserID uint) error {
	if _, err := s.repo.FindByID(ctx, weekID); err != nil {
		return fmt.Errorf("s.repo.FindByID -> %w", err)
	}

	if err := s.repo.AddParticipant(ctx, weekID, creatorUserID); err != nil {
		return fmt.Errorf("s.repo.AddParticipant -> %w", err)
	}

	return nil
}

func (s *WeekService) IsParticipant(ctx context.Context, weekID, creatorUserID uint) (bool, error) {
	ok, err := s.repo.IsParticipant(ctx, weekID, creatorUserID)
	if err != nil {
		return false, fmt.Errorf("s.repo.IsParticipant -> %w", err)
	}

	return ok, nil
}

// AutoUpdateWeekStatusesByDates flips is_active on weeks whose start or end
// has passed. The scheduler in cmd/app runs it periodically.
func (s *WeekService) AutoUpdateWeekStatusesByDates(ctx context.Context) error {
	weeks, err := s.repo.FindAll(ctx)
	if err != nil {
		return fmt.Errorf("s.repo.FindAll -> %w", err)
	}

	now := s.now()
	for _, week := range weeks {
		shouldBeActive := week.Contains(now) && week.StartsAt != nil
		if shouldBeActive == week.IsActive {
			continue
		}

		if err := s.repo.SetActive(ctx, week.ID, shouldBeActive); err != nil {
			return fmt.Errorf("s.repo.SetActive -> %w", err)
		}
		zap.L().Info("week status updated by scheduler",
			zap.Uint("week_id", week.ID),
			zap.Bool("is_active", shouldBeActive))
	}

	return nil
}
