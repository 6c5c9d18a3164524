package request

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTopupRequestValidate(t *testing.T) {
	assert.NoError(t, (&TopupRequest{Amount: 20}).Validate())
	assert.Error(t, (&TopupRequest{}).Validate())
	assert.Error(t, (&TopupRequest{Amount: -5}).Validate())
	assert.Error(t, (&TopupRequest{Amount: 100001}).Validate())
}

func TestPurchaseVotesRequestValidate(t *testing.T) {
	valid := PurchaseVotesRequest{CreatorUserID: 3, WeekID: 1, Votes: 5}
	assert.NoError(t, valid.Validate())

	noCreator := valid
	noCreator.CreatorUserID = 0
	assert.Error(t, noCreator.Validate())

	noWeek := valid
	noWeek.WeekID = 0
	assert.Error(t, noWeek.Validate())

	zeroVotes := valid
	zeroVotes.Votes = 0
	assert.Error(t, zeroVotes.Validate())

	tooMany := valid
	tooMany.Votes = 10001
	assert.Error(t, tooMany.Validate())
}

func TestCreateWeekRequestValidate(t *testing.T) {
	start := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	end := start.Add(7 * 24 * time.Hour)

	assert.NoError(t, (&CreateWeekRequest{Title: "Week 1", StartsAt: &start, EndsAt: &end}).Validate())
	assert.NoError(t, (&CreateWeekRequest{Title: "Open-ended"}).Validate())
	assert.Error(t, (&CreateWeekRequest{StartsAt: &start, EndsAt: &end}).Validate())

	err := (&CreateWeekRequest{Title: "Backwards", StartsAt: &end, EndsAt: &start}).Validate()
	assert.ErrorIs(t, err, errEndBeforeStart)
}
