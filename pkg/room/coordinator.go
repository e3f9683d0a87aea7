package room

import (
	"sync"

	"vimeet/pkg/logging"
	"vimeet/pkg/metrics"
	"vimeet/pkg/protocol"
)

const commandBuffer = 256

// join registers a session and enters it into a room.
type join struct {
	id     uint64
	name   string
	room   string
	outbox chan<- []byte
}

// disconnect tears a session down. Idempotent.
type disconnect struct {
	id uint64
}

// Coordinator owns the session and room maps and is the single
// serialisation point: commands are executed one at a time, to
// completion, by the Run loop. Everything else talks to it through
// the command channel only.
type Coordinator struct {
	commands chan any
	sessions map[uint64]chan<- []byte
	rooms    map[string]*Room
	done     chan struct{}
	stop     sync.Once
}

// NewCoordinator creates an empty coordinator. Call Run in its own
// goroutine before posting anything.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		commands: make(chan any, commandBuffer),
		sessions: make(map[uint64]chan<- []byte),
		rooms:    make(map[string]*Room),
		done:     make(chan struct{}),
	}
}

// Run executes commands until Close is called.
func (c *Coordinator) Run() {
	defer close(c.done)
	for cmd := range c.commands {
		c.execute(cmd)
	}
}

// Done is closed once the Run loop has drained and exited.
func (c *Coordinator) Done() <-chan struct{} {
	return c.done
}

// Close stops the Run loop. Idempotent. Intended for tests and
// shutdown paths; posting after Close panics, so sessions must be
// gone first.
func (c *Coordinator) Close() {
	c.stop.Do(func() { close(c.commands) })
}

// Join registers a session's outbox and enters it into a room. The
// session must not post any other command before Join.
func (c *Coordinator) Join(id uint64, name, roomName string, outbox chan<- []byte) {
	c.commands <- join{id: id, name: name, room: roomName, outbox: outbox}
}

// Disconnect removes a session. Safe to call more than once.
func (c *Coordinator) Disconnect(id uint64) {
	c.commands <- disconnect{id: id}
}

// Dispatch posts a parsed client command.
func (c *Coordinator) Dispatch(cmd protocol.Command) {
	c.commands <- cmd
}

func (c *Coordinator) execute(cmd any) {
	switch m := cmd.(type) {
	case join:
		c.handleJoin(m)
	case disconnect:
		c.handleDisconnect(m)
	case protocol.Raise:
		c.handleRaise(m)
	case protocol.Lower:
		c.handleLower(m)
	case protocol.Instant:
		c.handleInstant(m)
	case protocol.CreatePoll:
		c.handleCreatePoll(m)
	case protocol.AddPollOption:
		c.handleAddPollOption(m)
	case protocol.CastVote:
		c.handleCastVote(m)
	case protocol.ClosePoll:
		c.handleClosePoll(m)
	case protocol.Elevate:
		c.processPrivileges(m.Room, m.UserID, m.Target, true)
	case protocol.Recede:
		c.processPrivileges(m.Room, m.UserID, m.Target, false)
	default:
		logging.S().Warnw("unhandled coordinator command", "command", cmd)
	}
}

// send enqueues one frame to one session, dropping it if the outbox is
// full or the session is gone.
func (c *Coordinator) send(id uint64, msg []byte) {
	outbox, ok := c.sessions[id]
	if !ok {
		return
	}
	select {
	case outbox <- msg:
		metrics.Get().MessagesOutTotal.Inc()
	default:
		metrics.Get().MessagesDropped.Inc()
	}
}

// sendAll delivers to every member of the room.
func (c *Coordinator) sendAll(r *Room, msg []byte) {
	for id := range r.Connected {
		c.send(id, msg)
	}
}

// sendSkip delivers to every member except one.
func (c *Coordinator) sendSkip(r *Room, skip uint64, msg []byte) {
	for id := range r.Connected {
		if id != skip {
			c.send(id, msg)
		}
	}
}

// sendOnly delivers to a single member, if present.
func (c *Coordinator) sendOnly(r *Room, id uint64, msg []byte) {
	if _, ok := r.Connected[id]; ok {
		c.send(id, msg)
	}
}

// sendElevated delivers to the members whose privilege matches
// elevated. Together the two calls partition the room.
func (c *Coordinator) sendElevated(r *Room, elevated bool, msg []byte) {
	for id, user := range r.Connected {
		if user.Elevated == elevated {
			c.send(id, msg)
		}
	}
}

func (c *Coordinator) getOrCreateRoom(name string) *Room {
	if r, ok := c.rooms[name]; ok {
		return r
	}
	r := NewRoom(name)
	c.rooms[name] = r
	metrics.Get().RoomsTotal.Inc()
	logging.S().Infow("room created", "room", name)
	return r
}

// room returns an existing room or nil. Commands other than join can
// only reference rooms their session already entered.
func (c *Coordinator) room(name string) *Room {
	r, ok := c.rooms[name]
	if !ok {
		logging.S().Warnw("command for unknown room", "room", name)
	}
	return r
}

func snapshot(r *Room) []byte {
	raised := make([]protocol.RaisedEntry, 0, len(r.Raised))
	for _, flag := range r.Raised {
		raised = append(raised, protocol.RaisedEntry{
			Object:    flag.Object,
			OwnerID:   flag.OwnerID,
			OwnerName: flag.OwnerName,
		})
	}
	joined := make(map[uint64]protocol.UserEntry, len(r.Connected))
	for id, user := range r.Connected {
		joined[id] = protocol.UserEntry{Name: user.Name, Elevated: user.Elevated}
	}
	return protocol.Snapshot(raised, joined)
}

// handleJoin enters a session into its room. The first member of an
// empty room becomes the moderator. The joiner gets the full state:
// snapshot, its own privilege, and a replay of every open poll with
// vote identities redacted (a joiner of a non-empty room is never
// elevated; the first joiner has no polls to see).
func (c *Coordinator) handleJoin(m join) {
	c.sessions[m.id] = m.outbox

	r := c.getOrCreateRoom(m.room)
	elevated := len(r.Connected) == 0
	r.Connected[m.id] = &User{Name: m.name, Elevated: elevated}

	logging.S().Infow("user joined", "room", m.room, "user", m.name, "id", m.id, "elevated", elevated)

	c.sendSkip(r, m.id, protocol.Joined(m.id, m.name, elevated))
	c.sendOnly(r, m.id, snapshot(r))
	c.sendOnly(r, m.id, protocol.Self(m.id, elevated))

	for _, poll := range r.Polls {
		if poll.Closed {
			continue
		}
		c.sendOnly(r, m.id, protocol.Poll(poll.Title))
		for _, opt := range poll.Options {
			c.sendOnly(r, m.id, protocol.PollOption(poll.Title, opt.Title))
		}
		for _, option := range poll.Votes {
			c.sendOnly(r, m.id, protocol.Vote(poll.Title, option, "", 0))
		}
	}
}

// handleDisconnect removes the session, purges its raised flags, and
// retracts its votes on open polls. Closed polls keep their votes.
func (c *Coordinator) handleDisconnect(m disconnect) {
	outbox, ok := c.sessions[m.id]
	if !ok {
		return
	}
	delete(c.sessions, m.id)
	close(outbox)

	for _, r := range c.rooms {
		if _, ok := r.Connected[m.id]; !ok {
			continue
		}
		r.RemoveUser(m.id)
		logging.S().Infow("user disconnected", "room", r.Name, "id", m.id)

		c.sendAll(r, snapshot(r))

		for _, poll := range r.Polls {
			if poll.Closed {
				continue
			}
			option, voted := poll.Votes[m.id]
			if !voted {
				continue
			}
			delete(poll.Votes, m.id)
			c.sendElevated(r, true, protocol.DeleteVote(poll.Title, option, m.id))
			c.sendElevated(r, false, protocol.DeleteVote(poll.Title, option, 0))
		}
		return
	}
}

func (c *Coordinator) handleRaise(m protocol.Raise) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	if r.HasRaised(m.Object, m.UserID) {
		c.sendOnly(r, m.UserID, protocol.Error("already_raised", "Object is already raised"))
		return
	}
	c.sendAll(r, protocol.Owned("raised", m.UserID, m.UserName, m.Object, r.IsElevated(m.UserID)))
	r.Raised = append(r.Raised, Raised{Object: m.Object, OwnerID: m.UserID, OwnerName: m.UserName})
}

func (c *Coordinator) handleLower(m protocol.Lower) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	if !r.RemoveRaised(m.Object, m.UserID) {
		c.sendOnly(r, m.UserID, protocol.Error("not_raised", "Object is not raised"))
		return
	}
	c.sendAll(r, protocol.Owned("lower", m.UserID, m.UserName, m.Object, r.IsElevated(m.UserID)))
}

func (c *Coordinator) handleInstant(m protocol.Instant) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	c.sendAll(r, protocol.Owned("instant", m.UserID, m.UserName, m.Object, r.IsElevated(m.UserID)))
}

func (c *Coordinator) handleCreatePoll(m protocol.CreatePoll) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	if !r.IsElevated(m.UserID) {
		c.sendOnly(r, m.UserID, protocol.Error("no_permission", "Only elevated users may create polls"))
		return
	}
	if r.FindPoll(m.Title) != nil {
		c.sendOnly(r, m.UserID, protocol.Error("poll_already_exists", "A poll with this title already exists"))
		return
	}
	r.Polls = append(r.Polls, &Poll{
		Title:     m.Title,
		OwnerID:   m.UserID,
		OwnerName: m.UserName,
		Votes:     make(map[uint64]string),
	})
	c.sendAll(r, protocol.Poll(m.Title))
}

func (c *Coordinator) handleAddPollOption(m protocol.AddPollOption) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	if !r.IsElevated(m.UserID) {
		c.sendOnly(r, m.UserID, protocol.Error("no_permission", "Only elevated users may add poll options"))
		return
	}
	poll := r.FindPoll(m.PollTitle)
	if poll == nil {
		c.sendOnly(r, m.UserID, protocol.Error("poll_does_not_exist", "No poll with this title"))
		return
	}
	if poll.Closed {
		c.sendOnly(r, m.UserID, protocol.Error("poll_closed", "Poll is already closed"))
		return
	}
	if poll.HasOption(m.Title) {
		c.sendOnly(r, m.UserID, protocol.Error("poll_option_already_exists", "An option with this title already exists"))
		return
	}
	poll.Options = append(poll.Options, PollOption{
		Title:     m.Title,
		OwnerID:   m.UserID,
		OwnerName: m.UserName,
		PollTitle: m.PollTitle,
	})
	c.sendAll(r, protocol.PollOption(m.PollTitle, m.Title))
}

// handleCastVote records a vote, replacing any earlier one by the same
// user. The retraction pair goes out before the new vote pair, and each
// pair is split by privilege so non-elevated peers only ever see the
// redacted identity.
func (c *Coordinator) handleCastVote(m protocol.CastVote) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	poll := r.FindPoll(m.PollTitle)
	if poll == nil {
		c.sendOnly(r, m.UserID, protocol.Error("poll_does_not_exist", "No poll with this title"))
		return
	}
	if poll.Closed {
		c.sendOnly(r, m.UserID, protocol.Error("poll_closed", "Poll is already closed"))
		return
	}
	if !poll.HasOption(m.OptionTitle) {
		c.sendOnly(r, m.UserID, protocol.Error("poll_option_does_not_exist", "No option with this title"))
		return
	}

	previous, replaced := poll.Votes[m.UserID]
	poll.Votes[m.UserID] = m.OptionTitle

	if replaced {
		c.sendElevated(r, true, protocol.DeleteVote(m.PollTitle, previous, m.UserID))
		c.sendElevated(r, false, protocol.DeleteVote(m.PollTitle, previous, 0))
	}
	c.sendElevated(r, true, protocol.Vote(m.PollTitle, m.OptionTitle, m.UserName, m.UserID))
	c.sendElevated(r, false, protocol.Vote(m.PollTitle, m.OptionTitle, "", 0))
}

func (c *Coordinator) handleClosePoll(m protocol.ClosePoll) {
	r := c.room(m.Room)
	if r == nil {
		return
	}
	if !r.IsElevated(m.UserID) {
		c.sendOnly(r, m.UserID, protocol.Error("no_permission", "Only elevated users may close polls"))
		return
	}
	poll := r.FindPoll(m.PollTitle)
	if poll == nil {
		c.sendOnly(r, m.UserID, protocol.Error("poll_does_not_exist", "No poll with this title"))
		return
	}
	if poll.Closed {
		c.sendOnly(r, m.UserID, protocol.Error("poll_closed", "Poll is already closed"))
		return
	}
	poll.Closed = true
	c.sendAll(r, protocol.PollClosed(m.PollTitle))
}

// processPrivileges handles elevate and recede. The requester must be
// a connected moderator, the target must be connected and must not
// already hold the requested privilege; failed checks do nothing, no
// error goes back.
//
// Before the broadcast, the target alone gets a replay of every vote on
// every open poll: a retraction keyed the way the target knew the vote
// under its old role, then the vote under its new role. That keeps the
// target's view consistent across the identity redaction boundary.
func (c *Coordinator) processPrivileges(roomName string, requester, target uint64, elevated bool) {
	r, ok := c.rooms[roomName]
	if !ok {
		return
	}
	if !r.IsElevated(requester) {
		return
	}
	if _, ok := r.Connected[target]; !ok {
		return
	}
	if !r.SetElevated(target, elevated) {
		return
	}

	logging.S().Infow("privilege changed", "room", roomName, "target", target, "elevated", elevated)

	for _, poll := range r.Polls {
		if poll.Closed {
			continue
		}
		for voter, option := range poll.Votes {
			if elevated {
				c.send(target, protocol.DeleteVote(poll.Title, option, 0))
				c.send(target, protocol.Vote(poll.Title, option, r.Connected[voter].Name, voter))
			} else {
				c.send(target, protocol.DeleteVote(poll.Title, option, voter))
				c.send(target, protocol.Vote(poll.Title, option, "", 0))
			}
		}
	}

	c.sendAll(r, protocol.Privilege(target, elevated))
}
