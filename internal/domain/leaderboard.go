package domain

// WeekStanding is one leaderboard row for a week. Rank is 1-based, ordered by
// votes descending with ties broken by creator id ascending. Percent is the
// creator's share of the week's total votes, 0 when the total is 0.
type WeekStanding struct {
	WeekID    uint    `json:"week_id"`
	CreatorID uint    `json:"creator_user_id"`
	Votes     int     `json:"votes"`
	Rank      int     `json:"rank"`
	Percent   float64 `json:"percent"`

	// Denormalized display fields.
	Username   string `json:"username"`
	AvatarURL  string `json:"avatar_url"`
	BubbleText string `json:"bubble_text"`
}
