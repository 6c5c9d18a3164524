package domain

import "time"

// DefaultWeekID is the fallback when no active week interval contains now.
const DefaultWeekID uint = 1

type CompetitionWeek struct {
	ID         uint       `json:"id"`
	WeekNumber int        `json:"week_number"` // 1..4
	Title      string     `json:"title"`
	StartsAt   *time.Time `json:"starts_at"`
	EndsAt     *time.Time `json:"ends_at"`
	IsActive   bool       `json:"is_active"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Contains reports whether the week's interval contains t. A nil bound is
// treated as open on that side.
func (w CompetitionWeek) Contains(t time.Time) bool {
	if w.StartsAt != nil && t.Before(*w.StartsAt) {
		return false
	}
	if w.EndsAt != nil && !t.Before(*w.EndsAt) {
		return false
	}
	return true
}

// OpenForVoting reports whether votes may be purchased against this week.
func (w CompetitionWeek) OpenForVoting(now time.Time) bool {
	return w.IsActive && w.Contains(now)
}
