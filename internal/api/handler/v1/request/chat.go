package request

import (
	validation "github.com/go-ozzo/ozzo-validation"
)

const maxChatMessageLength = 500

type PostMessageRequest struct {
	Message string `json:"message"`
}

func (req *PostMessageRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Message, validation.Required, validation.Length(1, maxChatMessageLength)),
	)
}

type AnnouncementRequest struct {
	Message string `json:"message"`
}

func (req *AnnouncementRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Message, validation.Required, validation.Length(1, maxChatMessageLength)),
	)
}
