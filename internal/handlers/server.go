package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/repository"
	"github.com/connectx-game/server/internal/service"
)

// outboxSize bounds the per-connection send queue. A client that cannot
// drain this many messages is dropped behind, not waited for.
const outboxSize = 64

// client is one live websocket connection with its authenticated
// identity and, once joined, its room binding. All writes go through the
// outbox so messages reach the socket in publish order.
type client struct {
	id       string
	identity string
	conn     *websocket.Conn
	roomID   string
	outbox   chan []byte
}

func newClient(id, identity string, conn *websocket.Conn) *client {
	return &client{
		id:       id,
		identity: identity,
		conn:     conn,
		outbox:   make(chan []byte, outboxSize),
	}
}

// Server owns the connection registry and routes traffic between the
// websocket layer and the services. The repository remains the
// authoritative session store; the registry only maps live sockets.
type Server struct {
	logger  *logrus.Logger
	rooms   *service.RoomService
	match   *service.MatchService
	users   *service.UserService
	history repository.GameHistoryRepository

	mu      sync.Mutex
	clients map[string]*client            // connID -> client
	byRoom  map[string]map[string]*client // roomID -> connID -> client
}

func NewServer(
	rooms *service.RoomService,
	match *service.MatchService,
	users *service.UserService,
	history repository.GameHistoryRepository,
	logger *logrus.Logger,
) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		logger:  logger,
		rooms:   rooms,
		match:   match,
		users:   users,
		history: history,
		clients: make(map[string]*client),
		byRoom:  make(map[string]map[string]*client),
	}
}

func (s *Server) register(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c.id] = c
}

func (s *Server) unregister(connID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[connID]
	if !ok {
		return
	}
	delete(s.clients, connID)
	close(c.outbox)
	if c.roomID != "" {
		if conns, ok := s.byRoom[c.roomID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(s.byRoom, c.roomID)
			}
		}
	}
}

// bindRoom moves a connection into a room's fan-out set, dropping any
// previous binding.
func (s *Server) bindRoom(connID, roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.clients[connID]
	if !ok {
		return
	}
	if c.roomID != "" {
		if conns, ok := s.byRoom[c.roomID]; ok {
			delete(conns, connID)
			if len(conns) == 0 {
				delete(s.byRoom, c.roomID)
			}
		}
	}
	c.roomID = roomID
	if roomID != "" {
		if s.byRoom[roomID] == nil {
			s.byRoom[roomID] = make(map[string]*client)
		}
		s.byRoom[roomID][connID] = c
	}
}

// roomClients snapshots the connections bound to a room.
func (s *Server) roomClients(roomID string) []*client {
	s.mu.Lock()
	defer s.mu.Unlock()
	conns := s.byRoom[roomID]
	out := make([]*client, 0, len(conns))
	for _, c := range conns {
		out = append(out, c)
	}
	return out
}

// send marshals payload and queues it on the client's outbox. The
// per-connection writer drains the queue in order, so two publishes to
// the same client can never arrive swapped. A full outbox drops the
// message rather than block game logic; messages to an unregistered
// client are discarded.
func (s *Server) send(c *client, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		s.logger.WithError(err).Error("marshaling outbound message")
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c.id]; !ok {
		return
	}
	select {
	case c.outbox <- data:
	default:
		s.logger.WithFields(logrus.Fields{
			"conn_id":  c.id,
			"identity": c.identity,
		}).Warn("outbox full, dropping message")
	}
}

// writeLoop is the single writer for one connection. It runs until
// unregister closes the outbox.
func (s *Server) writeLoop(c *client) {
	for data := range c.outbox {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"conn_id":  c.id,
				"identity": c.identity,
			}).WithError(err).Warn("writing to websocket failed")
		}
	}
}

// errorPayload is sent only to the connection whose intent failed.
type errorPayload struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) sendError(c *client, err error) {
	s.send(c, errorPayload{
		Type:    "error",
		Code:    errorCode(err),
		Message: err.Error(),
	})
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, service.ErrNotYourTurn):
		return "NOT_YOUR_TURN"
	case errors.Is(err, service.ErrInvalidMove):
		return "INVALID_MOVE"
	case errors.Is(err, service.ErrRoomNotFound):
		return "ROOM_NOT_FOUND"
	case errors.Is(err, service.ErrRoomFull):
		return "ROOM_FULL"
	case errors.Is(err, service.ErrMatchInProgress):
		return "MATCH_IN_PROGRESS"
	case errors.Is(err, service.ErrMatchFinished):
		return "MATCH_FINISHED"
	case errors.Is(err, service.ErrAlreadyPlayer):
		return "ALREADY_PLAYER"
	case errors.Is(err, service.ErrNotInRoom):
		return "NOT_IN_ROOM"
	case errors.Is(err, service.ErrUnauthorized):
		return "UNAUTHORIZED"
	case errors.Is(err, service.ErrInvalidData):
		return "INVALID_DATA"
	default:
		return "INTERNAL_ERROR"
	}
}
