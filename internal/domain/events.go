package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventType tags a named broadcast event on the realtime channel.
type EventType string

const (
	EventChatMessage        EventType = "CHAT_MESSAGE"
	EventPaymentConfirmed   EventType = "PAYMENT_CONFIRMED"
	EventPaymentEvent       EventType = "PAYMENT_EVENT"
	EventVoteCreated        EventType = "VOTE_CREATED"
	EventVoteCreator        EventType = "VOTE_CREATOR"
	EventUserSuspension     EventType = "USER_SUSPENSION"
	EventSystemAnnouncement EventType = "SYSTEM_ANNOUNCEMENT"
)

const (
	EnvelopeBroadcast = "broadcast"
	EnvelopeRowChange = "row_change"
)

const (
	RowActionInsert = "insert"
	RowActionUpdate = "update"
	RowActionDelete = "delete"
)

// Envelope is the single message shape carried on the realtime channel.
// Broadcast envelopes carry a named event with an opaque payload; row-change
// envelopes carry a table row image for insert/update/delete.
type Envelope struct {
	Type    string          `json:"type"`
	Event   EventType       `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Table   string          `json:"table,omitempty"`
	Action  string          `json:"action,omitempty"`
	Record  json.RawMessage `json:"record,omitempty"`
}

// ErrUnknownEvent marks envelopes carrying a tag this build does not consume.
// Receivers treat it as an ignorable condition, never a failure.
var ErrUnknownEvent = errors.New("unknown event tag")

type PaymentEventPayload struct {
	UserID      uint   `json:"user_id"`
	Status      string `json:"status"` // "confirmed" or "failed"
	ProviderRef string `json:"provider_ref"`
	NewBalance  int    `json:"new_balance"`
}

type VoteCreatedPayload struct {
	UserID     uint `json:"user_id"`
	CreatorID  uint `json:"creator_id"`
	WeekID     uint `json:"week_id"`
	Votes      int  `json:"votes"`
	NewBalance int  `json:"new_balance"`
}

// VoteCreatorPayload carries the fresh leaderboard for the affected week so
// consumers can replace their snapshot without a round-trip.
type VoteCreatorPayload struct {
	WeekID      uint           `json:"week_id"`
	Leaderboard []WeekStanding `json:"leaderboard"`
}

type SuspensionPayload struct {
	TargetUserID      uint       `json:"target_user_id"`
	Reason            string     `json:"reason"`
	ExpiresAt         *time.Time `json:"expires_at"`
	ClearedSuspension bool       `json:"cleared_suspension"`
}

type AnnouncementPayload struct {
	Message string `json:"message"`
}

// ParseBroadcast narrows a broadcast envelope into its typed payload. The
// result is one of the *Payload structs above, or ChatMessage for
// CHAT_MESSAGE. Unrecognized tags return ErrUnknownEvent so callers can
// silently skip them.
func ParseBroadcast(env Envelope) (any, error) {
	if env.Type != EnvelopeBroadcast {
		return nil, fmt.Errorf("envelope type %q is not a broadcast", env.Type)
	}

	switch env.Event {
	case EventChatMessage:
		var p ChatMessage
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s -> %w", env.Event, err)
		}
		return p, nil
	case EventPaymentConfirmed, EventPaymentEvent:
		var p PaymentEventPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s -> %w", env.Event, err)
		}
		return p, nil
	case EventVoteCreated:
		var p VoteCreatedPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s -> %w", env.Event, err)
		}
		return p, nil
	case EventVoteCreator:
		var p VoteCreatorPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s -> %w", env.Event, err)
		}
		return p, nil
	case EventUserSuspension:
		var p SuspensionPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s -> %w", env.Event, err)
		}
		return p, nil
	case EventSystemAnnouncement:
		var p AnnouncementPayload
		if err := json.Unmarshal(env.Payload, &p); err != nil {
			return nil, fmt.Errorf("decode %s -> %w", env.Event, err)
		}
		return p, nil
	default:
		return nil, ErrUnknownEvent
	}
}

// ParseRowChange decodes the chat row image of a row-change envelope.
func ParseRowChange(env Envelope) (ChatMessage, error) {
	if env.Type != EnvelopeRowChange {
		return ChatMessage{}, fmt.Errorf("envelope type %q is not a row change", env.Type)
	}
	if env.Table != "chat_messages" {
		return ChatMessage{}, fmt.Errorf("unexpected row-change table %q", env.Table)
	}

	var m ChatMessage
	if err := json.Unmarshal(env.Record, &m); err != nil {
		return ChatMessage{}, fmt.Errorf("decode chat row -> %w", err)
	}
	return m, nil
}
