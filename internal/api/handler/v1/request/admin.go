package request

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
)

type SuspendUserRequest struct {
	UserID    uint       `json:"user_id"`
	Reason    string     `json:"reason"`
	ExpiresAt *time.Time `json:"expires_at"`
}

func (req *SuspendUserRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Reason, validation.Required, validation.Length(1, 300)),
	)
}

type RoleRequest struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
}

func (req *RoleRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.UserID, validation.Required),
		validation.Field(&req.Role, validation.Required, validation.In("admin", "moderator", "creator")),
	)
}
