// Package protocol defines the wire format spoken over the WebSocket:
// the inbound command taxonomy and the outbound message shapes.
package protocol

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Origin identifies the session a command came from. The session layer
// fills it in; clients never supply their own identity.
type Origin struct {
	UserID   uint64
	UserName string
	Room     string
}

// Command is a parsed inbound frame tagged with its origin.
type Command interface {
	// Kind returns the wire value of the "type" field.
	Kind() string
}

// Raise requests a persistent flag against an object.
type Raise struct {
	Origin
	Object string
}

// Lower removes a previously raised flag.
type Lower struct {
	Origin
	Object string
}

// Instant broadcasts an arbitrary payload without touching room state.
type Instant struct {
	Origin
	Object json.RawMessage
}

// CreatePoll opens a new poll (moderators only).
type CreatePoll struct {
	Origin
	Title string
}

// AddPollOption appends an option to an open poll (moderators only).
type AddPollOption struct {
	Origin
	PollTitle string
	Title     string
}

// CastVote records or replaces the sender's vote on an open poll.
type CastVote struct {
	Origin
	PollTitle   string
	OptionTitle string
}

// ClosePoll freezes a poll (moderators only).
type ClosePoll struct {
	Origin
	PollTitle string
}

// Elevate grants moderator privileges to another user.
type Elevate struct {
	Origin
	Target uint64
}

// Recede revokes moderator privileges from another user.
type Recede struct {
	Origin
	Target uint64
}

func (Raise) Kind() string         { return "raise" }
func (Lower) Kind() string         { return "lower" }
func (Instant) Kind() string       { return "instant" }
func (CreatePoll) Kind() string    { return "poll" }
func (AddPollOption) Kind() string { return "polloption" }
func (CastVote) Kind() string      { return "vote" }
func (ClosePoll) Kind() string     { return "closepoll" }
func (Elevate) Kind() string       { return "elevate" }
func (Recede) Kind() string        { return "recede" }

// envelope is the superset of all inbound frame fields.
type envelope struct {
	Type             string          `json:"type"`
	Object           json.RawMessage `json:"object"`
	RaiseObject      *string         `json:"raiseobject"`
	LowerObject      *string         `json:"lowerobject"`
	InstantObject    json.RawMessage `json:"instantobject"`
	PollObject       *string         `json:"pollobject"`
	PollOptionObject *string         `json:"polloptionobject"`
}

// Parse classifies a text frame into a typed command. A non-nil error
// means the frame is malformed or unknown and must be dropped without
// answering the client.
func Parse(data []byte, origin Origin) (Command, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}

	switch env.Type {
	case "raise":
		if env.RaiseObject == nil {
			return nil, fmt.Errorf("raise without raiseobject")
		}
		return Raise{Origin: origin, Object: *env.RaiseObject}, nil

	case "lower":
		if env.LowerObject == nil {
			return nil, fmt.Errorf("lower without lowerobject")
		}
		return Lower{Origin: origin, Object: *env.LowerObject}, nil

	case "instant":
		if env.InstantObject == nil {
			return nil, fmt.Errorf("instant without instantobject")
		}
		return Instant{Origin: origin, Object: env.InstantObject}, nil

	case "poll":
		if env.PollObject == nil {
			return nil, fmt.Errorf("poll without pollobject")
		}
		return CreatePoll{Origin: origin, Title: *env.PollObject}, nil

	case "polloption":
		if env.PollObject == nil || env.PollOptionObject == nil {
			return nil, fmt.Errorf("polloption without pollobject/polloptionobject")
		}
		return AddPollOption{Origin: origin, PollTitle: *env.PollObject, Title: *env.PollOptionObject}, nil

	case "vote":
		if env.PollObject == nil || env.PollOptionObject == nil {
			return nil, fmt.Errorf("vote without pollobject/polloptionobject")
		}
		return CastVote{Origin: origin, PollTitle: *env.PollObject, OptionTitle: *env.PollOptionObject}, nil

	case "closepoll":
		if env.PollObject == nil {
			return nil, fmt.Errorf("closepoll without pollobject")
		}
		return ClosePoll{Origin: origin, PollTitle: *env.PollObject}, nil

	case "elevate":
		target, err := parseTarget(env.Object)
		if err != nil {
			return nil, err
		}
		return Elevate{Origin: origin, Target: target}, nil

	case "recede":
		target, err := parseTarget(env.Object)
		if err != nil {
			return nil, err
		}
		return Recede{Origin: origin, Target: target}, nil
	}

	return nil, fmt.Errorf("unknown message type %q", env.Type)
}

// parseTarget decodes the elevate/recede target: a JSON string holding
// the decimal user id.
func parseTarget(raw json.RawMessage) (uint64, error) {
	if raw == nil {
		return 0, fmt.Errorf("missing object")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("object is not a string: %w", err)
	}
	target, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("object is not a user id: %w", err)
	}
	return target, nil
}
