package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaisedIdentityIgnoresOwnerName(t *testing.T) {
	r := NewRoom("R")
	r.Raised = append(r.Raised, Raised{Object: "hand", OwnerID: 1, OwnerName: "alice"})

	assert.True(t, r.HasRaised("hand", 1))
	assert.False(t, r.HasRaised("hand", 2), "same object, different owner")
	assert.False(t, r.HasRaised("foot", 1), "different object, same owner")

	// removal matches on (object, owner_id) regardless of the name
	assert.True(t, r.RemoveRaised("hand", 1))
	assert.False(t, r.RemoveRaised("hand", 1))
	assert.Empty(t, r.Raised)
}

func TestRemoveUserPurgesOnlyTheirRaises(t *testing.T) {
	r := NewRoom("R")
	r.Connected[1] = &User{Name: "alice", Elevated: true}
	r.Connected[2] = &User{Name: "bob"}
	r.Raised = []Raised{
		{Object: "a", OwnerID: 1, OwnerName: "alice"},
		{Object: "b", OwnerID: 2, OwnerName: "bob"},
		{Object: "c", OwnerID: 2, OwnerName: "bob"},
	}

	r.RemoveUser(2)

	assert.NotContains(t, r.Connected, uint64(2))
	require.Len(t, r.Raised, 1)
	assert.Equal(t, "a", r.Raised[0].Object)
}

func TestSetElevated(t *testing.T) {
	r := NewRoom("R")
	r.Connected[1] = &User{Name: "alice"}

	assert.False(t, r.SetElevated(2, true), "unknown user")
	assert.False(t, r.IsElevated(1))

	assert.True(t, r.SetElevated(1, true))
	assert.True(t, r.IsElevated(1))
	assert.False(t, r.SetElevated(1, true), "already elevated")

	assert.True(t, r.SetElevated(1, false))
	assert.False(t, r.IsElevated(1))
}

func TestFindPollAndOptions(t *testing.T) {
	r := NewRoom("R")
	poll := &Poll{Title: "lunch", Votes: make(map[uint64]string)}
	poll.Options = append(poll.Options, PollOption{Title: "pizza", PollTitle: "lunch"})
	r.Polls = append(r.Polls, poll)

	require.Same(t, poll, r.FindPoll("lunch"))
	assert.Nil(t, r.FindPoll("dinner"))
	assert.True(t, poll.HasOption("pizza"))
	assert.False(t, poll.HasOption("salad"))
}
