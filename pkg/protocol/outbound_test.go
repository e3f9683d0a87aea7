package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnapshotEmptyRaisedIsArray(t *testing.T) {
	data := Snapshot(nil, map[uint64]UserEntry{1: {Name: "alice", Elevated: true}})
	assert.JSONEq(t,
		`{"type":"all","raised":[],"joined":{"1":{"name":"alice","elevated":true}}}`,
		string(data))
}

func TestPrivilegeNaming(t *testing.T) {
	assert.JSONEq(t, `{"type":"elevated","object":2,"elevated":true}`, string(Privilege(2, true)))
	assert.JSONEq(t, `{"type":"receded","object":2,"elevated":false}`, string(Privilege(2, false)))
}

func TestPollClosedAnnouncement(t *testing.T) {
	// the announcement shares the poll shape under a distinct name from
	// the inbound ClosePoll command
	assert.JSONEq(t, `{"type":"closepoll","object":"lunch"}`, string(PollClosed("lunch")))
	cmd, err := Parse([]byte(`{"type":"closepoll","pollobject":"lunch"}`), Origin{UserID: 1})
	assert.NoError(t, err)
	assert.Equal(t, ClosePoll{Origin: Origin{UserID: 1}, PollTitle: "lunch"}, cmd)
}

func TestVoteRedactionSentinels(t *testing.T) {
	// redacted identities are sentinel values, not absent fields
	assert.JSONEq(t,
		`{"type":"vote","pollobject":"lunch","polloptionobject":"pizza","username":"","userid":0}`,
		string(Vote("lunch", "pizza", "", 0)))
	assert.JSONEq(t,
		`{"type":"deletevote","pollobject":"lunch","polloptionobject":"pizza","userid":0}`,
		string(DeleteVote("lunch", "pizza", 0)))
}
