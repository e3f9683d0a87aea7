// Package handlers terminates WebSocket connections and runs one
// session per client: a read pump feeding parsed commands to the
// coordinator and a write pump draining the session's outbox.
package handlers

import (
	"net/http"
	"runtime/debug"
	"sync/atomic"
	"time"

	"vimeet/pkg/logging"
	"vimeet/pkg/metrics"
	"vimeet/pkg/protocol"
	"vimeet/pkg/room"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	// heartbeatInterval is how often a session checks the client and
	// sends an empty ping.
	heartbeatInterval = 5 * time.Second
	// clientTimeout drops the session when the client has not pinged
	// or ponged for this long.
	clientTimeout = 10 * time.Second

	writeWait  = 10 * time.Second
	outboxSize = 256
)

// nextSessionID hands out process-unique ids starting at 1. Id 0 is
// reserved as the redacted-vote sentinel.
var nextSessionID atomic.Uint64

// Handlers contains the HTTP and WebSocket handlers
type Handlers struct {
	coordinator *room.Coordinator
}

// NewHandlers creates a new handlers instance
func NewHandlers(coordinator *room.Coordinator) *Handlers {
	return &Handlers{coordinator: coordinator}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the URL path is the sole identity claim
	},
}

// session owns one WebSocket. The read pump is the only reader, the
// write pump the only writer; control frames go through WriteControl,
// which is safe next to the write pump.
type session struct {
	id          uint64
	name        string
	room        string
	connID      string // log correlation only
	conn        *websocket.Conn
	outbox      chan []byte
	coordinator *room.Coordinator
	hbLast      atomic.Int64
}

// HandleWebSocket upgrades /ws/{room}/{name}/ and starts the session.
func (h *Handlers) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	roomName := vars["room"]
	userName := vars["name"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.S().Warnw("websocket upgrade failed", "error", err)
		return
	}

	s := &session{
		id:          nextSessionID.Add(1),
		name:        userName,
		room:        roomName,
		connID:      uuid.New().String(),
		conn:        conn,
		outbox:      make(chan []byte, outboxSize),
		coordinator: h.coordinator,
	}
	s.touch()

	conn.SetPingHandler(func(appData string) error {
		s.touch()
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
		if err == websocket.ErrCloseSent {
			return nil
		}
		return err
	})
	conn.SetPongHandler(func(string) error {
		s.touch()
		return nil
	})

	metrics.Get().ConnectionsActive.Inc()
	logging.S().Infow("session opened",
		"conn", s.connID, "id", s.id, "room", s.room, "name", s.name)

	go s.writePump()
	// Join must reach the coordinator before any command the read pump
	// produces; a single command channel keeps them ordered.
	h.coordinator.Join(s.id, s.name, s.room, s.outbox)
	go s.readPump()
}

func (s *session) touch() {
	s.hbLast.Store(time.Now().UnixNano())
}

func (s *session) heartbeatExpired() bool {
	last := time.Unix(0, s.hbLast.Load())
	return time.Since(last) > clientTimeout
}

// readPump reads frames until the socket dies, forwarding parsed
// commands to the coordinator. Malformed frames are dropped silently.
func (s *session) readPump() {
	defer func() {
		if rec := recover(); rec != nil {
			logging.S().Errorw("panic in readPump", "conn", s.connID, "panic", rec, "stack", string(debug.Stack()))
		}
		s.coordinator.Disconnect(s.id)
		s.conn.Close()
		metrics.Get().ConnectionsActive.Dec()
		logging.S().Infow("session closed", "conn", s.connID, "id", s.id)
	}()

	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.S().Debugw("read error", "conn", s.connID, "error", err)
			}
			return
		}

		switch msgType {
		case websocket.TextMessage:
			cmd, err := protocol.Parse(data, protocol.Origin{
				UserID:   s.id,
				UserName: s.name,
				Room:     s.room,
			})
			if err != nil {
				logging.S().Debugw("dropping frame", "conn", s.connID, "error", err)
				continue
			}
			metrics.Get().MessagesInTotal.WithLabelValues(cmd.Kind()).Inc()
			s.coordinator.Dispatch(cmd)

		case websocket.BinaryMessage:
			logging.S().Debugw("ignoring binary frame", "conn", s.connID, "bytes", len(data))
		}
	}
}

// writePump drains the outbox and runs the heartbeat. A closed outbox
// (the coordinator processed our Disconnect) sends the close frame and
// returns; any write error or heartbeat timeout tears the session down
// via the read pump's deferred cleanup.
func (s *session) writePump() {
	ticker := time.NewTicker(heartbeatInterval)
	defer func() {
		ticker.Stop()
		s.coordinator.Disconnect(s.id)
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.outbox:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				logging.S().Debugw("write error", "conn", s.connID, "error", err)
				return
			}

		case <-ticker.C:
			if s.heartbeatExpired() {
				metrics.Get().HeartbeatTimeouts.Inc()
				logging.S().Infow("client heartbeat failed, disconnecting", "conn", s.connID, "id", s.id)
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
