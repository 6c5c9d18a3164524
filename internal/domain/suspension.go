package domain

import "time"

// UserSuspension blocks a user from mutating actions. A nil ExpiresAt means
// the suspension is permanent. At most one uncleared suspension is meaningful
// per user at a time, even though history is kept.
type UserSuspension struct {
	ID           uint       `json:"id"`
	TargetUserID uint       `json:"target_user_id"`
	Reason       string     `json:"reason"`
	ExpiresAt    *time.Time `json:"expires_at"`
	ClearedAt    *time.Time `json:"cleared_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Active reports whether the suspension is in force at t.
func (s UserSuspension) Active(t time.Time) bool {
	if s.ClearedAt != nil {
		return false
	}
	if s.ExpiresAt == nil {
		return true
	}
	return t.Before(*s.ExpiresAt)
}

// Remaining returns the time left until expiry, or zero for a permanent
// suspension or one that has already lapsed.
func (s UserSuspension) Remaining(t time.Time) time.Duration {
	if s.ExpiresAt == nil {
		return 0
	}
	if d := s.ExpiresAt.Sub(t); d > 0 {
		return d
	}
	return 0
}
