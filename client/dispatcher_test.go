package client

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesmerism/api/internal/domain"
)

func TestDispatcher_DispatchWithoutListeners(t *testing.T) {
	d := NewDispatcher()

	assert.NotPanics(t, func() {
		d.Dispatch(domain.EventChatMessage, "anything")
	})
}

func TestDispatcher_UnsubscribeRemovesExactlyOneCallback(t *testing.T) {
	d := NewDispatcher()

	var calledA, calledB, calledOther int
	unsubA := d.Subscribe(domain.EventChatMessage, func(any) { calledA++ })
	d.Subscribe(domain.EventChatMessage, func(any) { calledB++ })
	d.Subscribe(domain.EventVoteCreated, func(any) { calledOther++ })

	unsubA()

	d.Dispatch(domain.EventChatMessage, nil)
	d.Dispatch(domain.EventVoteCreated, nil)

	assert.Equal(t, 0, calledA)
	assert.Equal(t, 1, calledB)
	assert.Equal(t, 1, calledOther)
}

func TestDispatcher_DoubleUnsubscribeIsNoop(t *testing.T) {
	d := NewDispatcher()

	var called int
	unsub := d.Subscribe(domain.EventChatMessage, func(any) { called++ })
	other := d.Subscribe(domain.EventChatMessage, func(any) { called++ })
	_ = other

	unsub()
	assert.NotPanics(t, unsub)

	d.Dispatch(domain.EventChatMessage, nil)
	assert.Equal(t, 1, called)
}

func TestDispatcher_PanickingCallbackDoesNotStopSiblings(t *testing.T) {
	d := NewDispatcher()

	var survived bool
	d.Subscribe(domain.EventChatMessage, func(any) { panic("boom") })
	d.Subscribe(domain.EventChatMessage, func(any) { survived = true })

	assert.NotPanics(t, func() {
		d.Dispatch(domain.EventChatMessage, nil)
	})
	assert.True(t, survived)
}

func TestDispatcher_AllCallbacksSeeSamePayload(t *testing.T) {
	d := NewDispatcher()

	payload := domain.VoteCreatedPayload{UserID: 7, Votes: 3}
	var got []any
	d.Subscribe(domain.EventVoteCreated, func(p any) { got = append(got, p) })
	d.Subscribe(domain.EventVoteCreated, func(p any) { got = append(got, p) })

	d.Dispatch(domain.EventVoteCreated, payload)

	assert.Len(t, got, 2)
	assert.Equal(t, payload, got[0])
	assert.Equal(t, payload, got[1])
}
