package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var origin = Origin{UserID: 7, UserName: "alice", Room: "Main"}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		want  Command
	}{
		{
			name:  "raise",
			frame: `{"type":"raise","raiseobject":"hand"}`,
			want:  Raise{Origin: origin, Object: "hand"},
		},
		{
			name:  "lower",
			frame: `{"type":"lower","lowerobject":"hand"}`,
			want:  Lower{Origin: origin, Object: "hand"},
		},
		{
			name:  "poll",
			frame: `{"type":"poll","pollobject":"lunch"}`,
			want:  CreatePoll{Origin: origin, Title: "lunch"},
		},
		{
			name:  "polloption",
			frame: `{"type":"polloption","pollobject":"lunch","polloptionobject":"pizza"}`,
			want:  AddPollOption{Origin: origin, PollTitle: "lunch", Title: "pizza"},
		},
		{
			name:  "vote",
			frame: `{"type":"vote","pollobject":"lunch","polloptionobject":"pizza"}`,
			want:  CastVote{Origin: origin, PollTitle: "lunch", OptionTitle: "pizza"},
		},
		{
			name:  "closepoll",
			frame: `{"type":"closepoll","pollobject":"lunch"}`,
			want:  ClosePoll{Origin: origin, PollTitle: "lunch"},
		},
		{
			name:  "elevate",
			frame: `{"type":"elevate","object":"2"}`,
			want:  Elevate{Origin: origin, Target: 2},
		},
		{
			name:  "recede",
			frame: `{"type":"recede","object":"2"}`,
			want:  Recede{Origin: origin, Target: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse([]byte(tt.frame), origin)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParseInstantKeepsRawPayload(t *testing.T) {
	cmd, err := Parse([]byte(`{"type":"instant","instantobject":{"emoji":"clap","count":3}}`), origin)
	require.NoError(t, err)
	instant, ok := cmd.(Instant)
	require.True(t, ok)
	assert.JSONEq(t, `{"emoji":"clap","count":3}`, string(instant.Object))
}

func TestParseRejections(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"not json", `{{{`},
		{"no type", `{"raiseobject":"hand"}`},
		{"unknown type", `{"type":"dance"}`},
		{"raise missing field", `{"type":"raise"}`},
		{"lower missing field", `{"type":"lower","raiseobject":"hand"}`},
		{"instant missing field", `{"type":"instant"}`},
		{"poll missing field", `{"type":"poll"}`},
		{"polloption missing option", `{"type":"polloption","pollobject":"lunch"}`},
		{"vote missing poll", `{"type":"vote","polloptionobject":"pizza"}`},
		{"elevate missing object", `{"type":"elevate"}`},
		{"elevate numeric object", `{"type":"elevate","object":2}`},
		{"elevate non-numeric string", `{"type":"elevate","object":"bob"}`},
		{"elevate negative id", `{"type":"recede","object":"-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse([]byte(tt.frame), origin)
			assert.Error(t, err)
			assert.Nil(t, cmd)
		})
	}
}

func TestKindMatchesWireType(t *testing.T) {
	assert.Equal(t, "raise", Raise{}.Kind())
	assert.Equal(t, "lower", Lower{}.Kind())
	assert.Equal(t, "instant", Instant{}.Kind())
	assert.Equal(t, "poll", CreatePoll{}.Kind())
	assert.Equal(t, "polloption", AddPollOption{}.Kind())
	assert.Equal(t, "vote", CastVote{}.Kind())
	assert.Equal(t, "closepoll", ClosePoll{}.Kind())
	assert.Equal(t, "elevate", Elevate{}.Kind())
	assert.Equal(t, "recede", Recede{}.Kind())
}
