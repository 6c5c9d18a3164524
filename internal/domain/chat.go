package domain

import "time"

const (
	MessageSourceUser      = "user"
	MessageSourceCreator   = "creator"
	MessageSourceModerator = "moderator"
	MessageSourceAdmin     = "admin"
	MessageSourceSystem    = "system"
)

type ChatMessage struct {
	ID        uint      `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Message is nil once the row has been soft-deleted.
	Message      *string `json:"message"`
	AuthorUserID uint    `json:"author_user_id"`

	// Denormalized author display fields, frozen at send time.
	AuthorUsername  string `json:"author_username"`
	AuthorAvatarURL string `json:"author_avatar_url"`
	AuthorColor     string `json:"author_color"`

	MessageSource string `json:"message_source"`

	DeletedAt *time.Time `json:"deleted_at"`
	DeletedBy *uint      `json:"deleted_by"`
}

// Deleted reports whether the message has been soft-deleted.
func (m ChatMessage) Deleted() bool {
	return m.DeletedAt != nil
}
