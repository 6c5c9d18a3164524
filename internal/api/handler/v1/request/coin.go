package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

type TopupRequest struct {
	Amount int `json:"amount"`
}

func (req *TopupRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Amount, validation.Required, validation.Min(1), validation.Max(100000)),
	)
}

type PurchaseVotesRequest struct {
	CreatorUserID uint `json:"creator_user_id"`
	WeekID        uint `json:"week_id"`
	Votes         int  `json:"votes"`
}

func (req *PurchaseVotesRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.CreatorUserID, validation.Required),
		validation.Field(&req.WeekID, validation.Required),
		validation.Field(&req.Votes, validation.Required, validation.Min(1), validation.Max(10000)),
	)
}
