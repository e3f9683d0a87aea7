// Package room holds the authoritative in-memory meeting state and the
// coordinator that serialises every mutation of it.
package room

// User is one connected member of a room.
type User struct {
	Name     string
	Elevated bool
}

// Raised is a persistent flag a user holds against an object. Identity
// is (Object, OwnerID); OwnerName is carried for display only.
type Raised struct {
	Object    string
	OwnerID   uint64
	OwnerName string
}

// PollOption is one choice inside a poll.
type PollOption struct {
	Title     string
	OwnerID   uint64
	OwnerName string
	PollTitle string
}

// Poll is a named ballot. Votes map voter id to option title, so each
// user contributes at most one entry. A closed poll stays in the room
// but rejects every further mutation.
type Poll struct {
	Title     string
	OwnerID   uint64
	OwnerName string
	Options   []PollOption
	Votes     map[uint64]string
	Closed    bool
}

// HasOption reports whether an option with the given title exists.
func (p *Poll) HasOption(title string) bool {
	for _, opt := range p.Options {
		if opt.Title == title {
			return true
		}
	}
	return false
}

// Room is a named membership group. Rooms are created lazily on first
// join and never destroyed, even when empty.
type Room struct {
	Name      string
	Raised    []Raised
	Polls     []*Poll
	Connected map[uint64]*User
}

// NewRoom creates an empty room.
func NewRoom(name string) *Room {
	return &Room{
		Name:      name,
		Connected: make(map[uint64]*User),
	}
}

// IsElevated reports whether the user is a connected moderator.
func (r *Room) IsElevated(id uint64) bool {
	user, ok := r.Connected[id]
	return ok && user.Elevated
}

// SetElevated flips a member's privilege. Returns false if the user is
// not connected or already holds the requested privilege.
func (r *Room) SetElevated(id uint64, elevated bool) bool {
	user, ok := r.Connected[id]
	if !ok || user.Elevated == elevated {
		return false
	}
	user.Elevated = elevated
	return true
}

// HasRaised reports whether (object, owner) is currently raised.
func (r *Room) HasRaised(object string, ownerID uint64) bool {
	for _, raised := range r.Raised {
		if raised.Object == object && raised.OwnerID == ownerID {
			return true
		}
	}
	return false
}

// RemoveRaised drops the flag matching (object, owner). Returns false
// if no such flag exists.
func (r *Room) RemoveRaised(object string, ownerID uint64) bool {
	for i, raised := range r.Raised {
		if raised.Object == object && raised.OwnerID == ownerID {
			r.Raised = append(r.Raised[:i], r.Raised[i+1:]...)
			return true
		}
	}
	return false
}

// FindPoll returns the poll with the given title, or nil.
func (r *Room) FindPoll(title string) *Poll {
	for _, poll := range r.Polls {
		if poll.Title == title {
			return poll
		}
	}
	return nil
}

// RemoveUser removes a member and purges every flag they own. Votes are
// left alone; the coordinator cleans them up per poll so it can emit
// the matching retraction for each one.
func (r *Room) RemoveUser(id uint64) {
	delete(r.Connected, id)

	kept := r.Raised[:0]
	for _, raised := range r.Raised {
		if raised.OwnerID != id {
			kept = append(kept, raised)
		}
	}
	r.Raised = kept
}
