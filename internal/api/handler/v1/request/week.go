package request

import (
	"errors"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

var errEndBeforeStart = errors.New("ends_at must be after starts_at")

type CreateWeekRequest struct {
	Title    string     `json:"title"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	IsActive bool       `json:"is_active"`
}

func (req *CreateWeekRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 100)),
	)
	if err != nil {
		return err
	}

	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return errEndBeforeStart
	}

	return nil
}

type UpdateWeekRequest struct {
	Title    string     `json:"title"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
	IsActive bool       `json:"is_active"`
}

func (req *UpdateWeekRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 100)),
	)
	if err != nil {
		return err
	}

	if req.StartsAt != nil && req.EndsAt != nil && !req.EndsAt.After(*req.StartsAt) {
		return errEndBeforeStart
	}

	return nil
}

type AddParticipantRequest struct {
	CreatorUserID uint `json:"creator_user_id"`
}

func (req *AddParticipantRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CreatorUserID, validation.Required),
	)
}
