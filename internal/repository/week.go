package repository

import (
	"context"
	"fmt"

	"github.com/mesmerism/api/internal/domain"
	"github.com/mesmerism/api/internal/repository/dao"
)

var (
	ErrWeekNotFound = dao.ErrWeekNotFound
)

type WeekDAO interface {
	Insert(ctx context.Context, week dao.CompetitionWeek) (dao.CompetitionWeek, error)
	Update(ctx context.Context, week dao.CompetitionWeek) (dao.CompetitionWeek, error)
	FindByID(ctx context.Context, id uint) (dao.CompetitionWeek, error)
	FindAll(ctx context.Context) ([]dao.CompetitionWeek, error)
	FindActive(ctx context.Context) ([]dao.CompetitionWeek, error)
	SetActive(ctx context.Context, id uint, active bool) error
	AddParticipant(ctx context.Context, weekID, creatorUserID uint) error
	IsParticipant(ctx context.Context, weekID, creatorUserID uint) (bool, error)
	FindParticipants(ctx context.Context, weekID uint) ([]dao.WeekParticipant, error)
}

type WeekRepository struct {
	dao WeekDAO
}

func NewWeekRepository(dao WeekDAO) *WeekRepository {
	return &WeekRepository{
		dao: dao,
	}
}

func (r *WeekRepository) Create(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error) {
	created, err := r.dao.Insert(ctx, dao.CompetitionWeek{
		WeekNumber: week.WeekNumber,
		Title:      week.Title,
		StartsAt:   week.StartsAt,
		EndsAt:     week.EndsAt,
		IsActive:   week.IsActive,
	})
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return r.daoToDomain(created), nil
}

func (r *WeekRepository) Update(ctx context.Context, week domain.CompetitionWeek) (domain.CompetitionWeek, error) {
	existing, err := r.dao.FindByID(ctx, week.ID)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	existing.WeekNumber = week.WeekNumber
	existing.Title = week.Title
	existing.StartsAt = week.StartsAt
	existing.EndsAt = week.EndsAt
	existing.IsActive = week.IsActive

	updated, err := r.dao.Update(ctx, existing)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("r.dao.Update -> %w", err)
	}

	return r.daoToDomain(updated), nil
}

func (r *WeekRepository) FindByID(ctx context.Context, id uint) (domain.CompetitionWeek, error) {
	found, err := r.dao.FindByID(ctx, id)
	if err != nil {
		return domain.CompetitionWeek{}, fmt.Errorf("r.dao.FindByID -> %w", err)
	}

	return r.daoToDomain(found), nil
}

func (r *WeekRepository) FindAll(ctx context.Context) ([]domain.CompetitionWeek, error) {
	found, err := r.dao.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindAll -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *WeekRepository) FindActive(ctx context.Context) ([]domain.CompetitionWeek, error) {
	found, err := r.dao.FindActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindActive -> %w", err)
	}

	return r.daosToDomain(found), nil
}

func (r *WeekRepository) SetActive(ctx context.Context, id uint, active bool) error {
	if err := r.dao.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("r.dao.SetActive -> %w", err)
	}

	return nil
}

func (r *WeekRepository) AddParticipant(ctx context.Context, weekID, creatorUserID uint) error {
	if err := r.dao.AddParticipant(ctx, weekID, creatorUserID); err != nil {
		return fmt.Errorf("r.dao.AddParticipant -> %w", err)
	}

	return nil
}

func (r *WeekRepository) IsParticipant(ctx context.Context, weekID, creatorUserID uint) (bool, error) {
	ok, err := r.dao.IsParticipant(ctx, weekID, creatorUserID)
	if err != nil {
		return false, fmt.Errorf("r.dao.IsParticipant -> %w", err)
	}

	return ok, nil
}

func (r *WeekRepository) FindParticipantIDs(ctx context.Context, weekID uint) ([]uint, error) {
	found, err := r.dao.FindParticipants(ctx, weekID)
	if err != nil {
		return nil, fmt.Errorf("r.dao.FindParticipants -> %w", err)
	}

	ids := make([]uint, 0, len(found))
	for _, p := range found {
		ids = append(ids, p.CreatorUserID)
	}

	return ids, nil
}

func (r *WeekRepository) daoToDomain(w dao.CompetitionWeek) domain.CompetitionWeek {
	return domain.CompetitionWeek{
		ID:         w.ID,
		WeekNumber: w.WeekNumber,
		Title:      w.Title,
		StartsAt:   w.StartsAt,
		EndsAt:     w.EndsAt,
		IsActive:   w.IsActive,
		CreatedAt:  w.CreatedAt,
		UpdatedAt:  w.UpdatedAt,
	}
}

func (r *WeekRepository) daosToDomain(ws []dao.CompetitionWeek) []domain.CompetitionWeek {
	weeks := make([]domain.CompetitionWeek, 0, len(ws))
	for _, w := range ws {
		weeks = append(weeks, r.daoToDomain(w))
	}

	return weeks
}
