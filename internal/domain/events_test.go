package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBroadcast_NarrowsByEventTag(t *testing.T) {
	tests := []struct {
		name    string
		event   EventType
		payload string
		check   func(t *testing.T, got any)
	}{
		{
			name:    "chat message",
			event:   EventChatMessage,
			payload: `{"id": 5, "author_user_id": 2}`,
			check: func(t *testing.T, got any) {
				m, ok := got.(ChatMessage)
				require.True(t, ok)
				assert.Equal(t, uint(5), m.ID)
			},
		},
		{
			name:    "payment confirmed",
			event:   EventPaymentConfirmed,
			payload: `{"user_id": 1, "status": "confirmed", "provider_ref": "ref-1", "new_balance": 20}`,
			check: func(t *testing.T, got any) {
				p, ok := got.(PaymentEventPayload)
				require.True(t, ok)
				assert.Equal(t, TopupStatusConfirmed, p.Status)
				assert.Equal(t, "ref-1", p.ProviderRef)
				assert.Equal(t, 20, p.NewBalance)
			},
		},
		{
			name:    "payment event",
			event:   EventPaymentEvent,
			payload: `{"user_id": 1, "status": "failed"}`,
			check: func(t *testing.T, got any) {
				p, ok := got.(PaymentEventPayload)
				require.True(t, ok)
				assert.Equal(t, TopupStatusFailed, p.Status)
			},
		},
		{
			name:    "vote created",
			event:   EventVoteCreated,
			payload: `{"user_id": 1, "creator_id": 3, "week_id": 2, "votes": 4, "new_balance": 6}`,
			check: func(t *testing.T, got any) {
				p, ok := got.(VoteCreatedPayload)
				require.True(t, ok)
				assert.Equal(t, uint(3), p.CreatorID)
				assert.Equal(t, 4, p.Votes)
			},
		},
		{
			name:    "vote creator",
			event:   EventVoteCreator,
			payload: `{"week_id": 2, "leaderboard": [{"creator_user_id": 3, "votes": 4, "rank": 1}]}`,
			check: func(t *testing.T, got any) {
				p, ok := got.(VoteCreatorPayload)
				require.True(t, ok)
				require.Len(t, p.Leaderboard, 1)
				assert.Equal(t, 1, p.Leaderboard[0].Rank)
			},
		},
		{
			name:    "user suspension",
			event:   EventUserSuspension,
			payload: `{"target_user_id": 7, "reason": "spam", "cleared_suspension": false}`,
			check: func(t *testing.T, got any) {
				p, ok := got.(SuspensionPayload)
				require.True(t, ok)
				assert.Equal(t, uint(7), p.TargetUserID)
				assert.Equal(t, "spam", p.Reason)
			},
		},
		{
			name:    "system announcement",
			event:   EventSystemAnnouncement,
			payload: `{"message": "maintenance at noon"}`,
			check: func(t *testing.T, got any) {
				p, ok := got.(AnnouncementPayload)
				require.True(t, ok)
				assert.Equal(t, "maintenance at noon", p.Message)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseBroadcast(Envelope{
				Type:    EnvelopeBroadcast,
				Event:   tt.event,
				Payload: json.RawMessage(tt.payload),
			})
			require.NoError(t, err)
			tt.check(t, got)
		})
	}
}

func TestParseBroadcast_UnknownTagIsIgnorable(t *testing.T) {
	_, err := ParseBroadcast(Envelope{
		Type:    EnvelopeBroadcast,
		Event:   EventType("SOMETHING_NEW"),
		Payload: json.RawMessage(`{}`),
	})

	assert.ErrorIs(t, err, ErrUnknownEvent)
}

func TestParseBroadcast_RejectsWrongEnvelopeType(t *testing.T) {
	_, err := ParseBroadcast(Envelope{Type: EnvelopeRowChange, Event: EventChatMessage})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownEvent)
}

func TestParseBroadcast_MalformedPayloadIsNotIgnorable(t *testing.T) {
	_, err := ParseBroadcast(Envelope{
		Type:    EnvelopeBroadcast,
		Event:   EventVoteCreated,
		Payload: json.RawMessage(`not json`),
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownEvent)
}

func TestParseRowChange_DecodesChatRow(t *testing.T) {
	m, err := ParseRowChange(Envelope{
		Type:   EnvelopeRowChange,
		Table:  "chat_messages",
		Action: RowActionInsert,
		Record: json.RawMessage(`{"id": 9, "author_user_id": 2}`),
	})

	require.NoError(t, err)
	assert.Equal(t, uint(9), m.ID)
	assert.Equal(t, uint(2), m.AuthorUserID)
}

func TestParseRowChange_RejectsOtherTables(t *testing.T) {
	_, err := ParseRowChange(Envelope{
		Type:   EnvelopeRowChange,
		Table:  "coin_topups",
		Action: RowActionInsert,
		Record: json.RawMessage(`{}`),
	})

	assert.Error(t, err)
}
