package protocol

import "encoding/json"

// RaisedEntry is one raised flag inside the "all" snapshot.
type RaisedEntry struct {
	Object    string `json:"object"`
	OwnerID   uint64 `json:"owner_id"`
	OwnerName string `json:"owner_name"`
}

// UserEntry is one member inside the "all" snapshot, keyed by user id.
type UserEntry struct {
	Name     string `json:"name"`
	Elevated bool   `json:"elevated"`
}

type joinedMsg struct {
	Type   string       `json:"type"`
	Object joinedObject `json:"object"`
}

type joinedObject struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Elevated bool   `json:"elevated"`
}

type allMsg struct {
	Type   string               `json:"type"`
	Raised []RaisedEntry        `json:"raised"`
	Joined map[uint64]UserEntry `json:"joined"`
}

type selfMsg struct {
	Type     string `json:"type"`
	Object   uint64 `json:"object"`
	Elevated bool   `json:"elevated"`
}

type ownedMsg struct {
	Type      string `json:"type"`
	OwnerID   uint64 `json:"owner_id"`
	OwnerName string `json:"owner_name"`
	Object    any    `json:"object"`
	Elevated  bool   `json:"elevated"`
}

type privilegeMsg struct {
	Type     string `json:"type"`
	Object   uint64 `json:"object"`
	Elevated bool   `json:"elevated"`
}

type errorMsg struct {
	Type        string `json:"type"`
	Object      string `json:"object"`
	Description string `json:"description"`
}

type pollMsg struct {
	Type   string `json:"type"`
	Object string `json:"object"`
}

type pollOptionMsg struct {
	Type             string `json:"type"`
	PollObject       string `json:"pollobject"`
	PollOptionObject string `json:"polloptionobject"`
}

type voteMsg struct {
	Type             string `json:"type"`
	PollObject       string `json:"pollobject"`
	PollOptionObject string `json:"polloptionobject"`
	Username         string `json:"username"`
	UserID           uint64 `json:"userid"`
}

type deleteVoteMsg struct {
	Type             string `json:"type"`
	PollObject       string `json:"pollobject"`
	PollOptionObject string `json:"polloptionobject"`
	UserID           uint64 `json:"userid"`
}

func marshal(v any) []byte {
	data, _ := json.Marshal(v)
	return data
}

// Joined announces a new room member to its peers.
func Joined(id uint64, name string, elevated bool) []byte {
	return marshal(joinedMsg{Type: "joined", Object: joinedObject{ID: id, Name: name, Elevated: elevated}})
}

// Snapshot is the full room state sent on join and after a disconnect.
func Snapshot(raised []RaisedEntry, joined map[uint64]UserEntry) []byte {
	if raised == nil {
		raised = []RaisedEntry{}
	}
	return marshal(allMsg{Type: "all", Raised: raised, Joined: joined})
}

// Self tells a session its own id and privilege.
func Self(id uint64, elevated bool) []byte {
	return marshal(selfMsg{Type: "self", Object: id, Elevated: elevated})
}

// Owned renders the raised/lower/instant family. The elevated field
// reflects the owner's privilege at emission time.
func Owned(kind string, ownerID uint64, ownerName string, object any, elevated bool) []byte {
	return marshal(ownedMsg{Type: kind, OwnerID: ownerID, OwnerName: ownerName, Object: object, Elevated: elevated})
}

// Privilege renders "elevated" or "receded" depending on the new flag.
func Privilege(id uint64, elevated bool) []byte {
	kind := "receded"
	if elevated {
		kind = "elevated"
	}
	return marshal(privilegeMsg{Type: kind, Object: id, Elevated: elevated})
}

// Error is a rejection local to the requesting session.
func Error(code, description string) []byte {
	return marshal(errorMsg{Type: "error", Object: code, Description: description})
}

// Poll announces a new poll by title.
func Poll(title string) []byte {
	return marshal(pollMsg{Type: "poll", Object: title})
}

// PollOption announces a new option inside a poll.
func PollOption(pollTitle, optionTitle string) []byte {
	return marshal(pollOptionMsg{Type: "polloption", PollObject: pollTitle, PollOptionObject: optionTitle})
}

// Vote announces a cast vote. Non-elevated recipients get username ""
// and userid 0; real session ids start at 1, so 0 is never ambiguous.
func Vote(pollTitle, optionTitle, username string, userID uint64) []byte {
	return marshal(voteMsg{Type: "vote", PollObject: pollTitle, PollOptionObject: optionTitle, Username: username, UserID: userID})
}

// DeleteVote retracts a previously announced vote.
func DeleteVote(pollTitle, optionTitle string, userID uint64) []byte {
	return marshal(deleteVoteMsg{Type: "deletevote", PollObject: pollTitle, PollOptionObject: optionTitle, UserID: userID})
}

// PollClosed announces a poll freeze.
func PollClosed(title string) []byte {
	return marshal(pollMsg{Type: "closepoll", Object: title})
}
