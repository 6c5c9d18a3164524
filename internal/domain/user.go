package domain

import "time"

const (
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleCreator   = "creator"
)

type User struct {
	ID        uint      `json:"id"`
	Email     string    `json:"email"`
	Password  string    `json:"-"`
	Username  string    `json:"username"`
	Balance   int       `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Profile holds the public display fields shown next to a user in chat and
// on the leaderboard.
type Profile struct {
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url"`
	Color      string `json:"color"`
	BubbleText string `json:"bubble_text"`
}

// UserOverview is the self snapshot returned to an authenticated caller:
// identity, display fields, coin balance, roles and the active suspension,
// if any. The balance here is authoritative; clients never compute it.
type UserOverview struct {
	ID                  uint       `json:"id"`
	Username            string     `json:"username"`
	AvatarURL           string     `json:"avatar_url"`
	Color               string     `json:"color"`
	Balance             int        `json:"balance"`
	Roles               []string   `json:"roles"`
	Suspended           bool       `json:"suspended"`
	SuspensionReason    string     `json:"suspension_reason,omitempty"`
	SuspensionExpiresAt *time.Time `json:"suspension_expires_at,omitempty"`
}

// HasRole reports whether the overview carries the given role.
func (o UserOverview) HasRole(role string) bool {
	for _, r := range o.Roles {
		if r == role {
			return true
		}
	}
	return false
}
