package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/connectx-game/server/internal/auth"
	"github.com/connectx-game/server/internal/middleware"
	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/service"
)

// Intent types accepted on the websocket.
const (
	intentRoomJoin       = "room:join"
	intentRoomSpectate   = "room:spectate"
	intentRoomLeave      = "room:leave"
	intentSpectatorLeave = "spectator:leave"
	intentPlayerReady    = "player:ready"
	intentGameMove       = "game:move"
	intentGameRematch    = "game:rematch"
	intentVisibility     = "player:visibility"
)

// wsMessage is the envelope for every inbound intent. Optional fields
// are pointers so absence is distinguishable from the zero value.
type wsMessage struct {
	Type    string `json:"type"`
	RoomID  string `json:"roomId,omitempty"`
	Column  *int   `json:"column,omitempty"`
	Visible *bool  `json:"visible,omitempty"`
}

// WSHandler upgrades the connection, authenticates the token and runs
// the intent read loop until the client goes away.
func WSHandler(logger *logrus.Logger, s *Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromRequest(r)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"*"}, // tighten for production deployments
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept failed")
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		c := newClient(uuid.NewString(), identity, conn)
		s.register(c)
		go s.writeLoop(c)
		middleware.LogWebSocketConnect(logger, r.RemoteAddr, identity)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		readErr := s.readIntents(ctx, c)
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, identity, readErr)

		// The session binding is released but the seat survives, so a
		// reconnecting player resumes the match.
		if roomID, err := s.rooms.Disconnect(context.Background(), c.id); err != nil {
			logger.WithError(err).Warn("releasing session failed")
		} else if roomID != "" {
			logger.WithFields(logrus.Fields{
				"room_id":  roomID,
				"identity": identity,
			}).Info("session released, seat retained")
		}
		s.unregister(c.id)
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

// readIntents processes messages until the connection closes. Malformed
// frames produce an error reply to the sender and the loop continues.
func (s *Server) readIntents(ctx context.Context, c *client) error {
	for {
		msgType, data, err := c.conn.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
				return nil
			}
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if msgType != websocket.MessageText {
			continue
		}

		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(c, service.ErrInvalidData)
			continue
		}
		s.dispatch(ctx, c, msg)
	}
}

func (s *Server) dispatch(ctx context.Context, c *client, msg wsMessage) {
	var err error
	switch msg.Type {
	case intentRoomJoin:
		err = s.handleJoin(ctx, c, msg.RoomID)
	case intentRoomSpectate:
		err = s.handleSpectate(ctx, c, msg.RoomID)
	case intentRoomLeave:
		err = s.handleLeave(ctx, c)
	case intentSpectatorLeave:
		err = s.handleSpectatorLeave(ctx, c)
	case intentPlayerReady, intentGameRematch:
		err = s.requireRoom(c, func(roomID string) error {
			return s.match.SetReady(ctx, roomID, c.identity)
		})
	case intentGameMove:
		if msg.Column == nil {
			err = service.ErrInvalidData
			break
		}
		err = s.requireRoom(c, func(roomID string) error {
			return s.match.MakeMove(ctx, roomID, c.identity, *msg.Column)
		})
	case intentVisibility:
		if msg.Visible == nil {
			err = service.ErrInvalidData
			break
		}
		err = s.requireRoom(c, func(roomID string) error {
			return s.match.UpdateVisibility(ctx, roomID, c.identity, *msg.Visible)
		})
	default:
		err = service.ErrInvalidData
	}
	if err != nil {
		s.sendError(c, err)
	}
}

func (s *Server) handleJoin(ctx context.Context, c *client, roomID string) error {
	if roomID == "" {
		return service.ErrInvalidData
	}
	room, err := s.rooms.JoinRoom(ctx, roomID, c.identity, c.id)
	if err != nil {
		return err
	}
	s.bindRoom(c.id, roomID)
	s.send(c, roomUpdatePayload{
		Type:    "room_joined",
		Room:    room,
		Context: service.ComputeContext(room, c.identity, time.Now()),
	})
	return nil
}

func (s *Server) handleSpectate(ctx context.Context, c *client, roomID string) error {
	if roomID == "" {
		return service.ErrInvalidData
	}
	room, err := s.rooms.JoinAsSpectator(ctx, roomID, c.identity, c.id)
	if err != nil {
		return err
	}
	s.bindRoom(c.id, roomID)
	s.send(c, roomUpdatePayload{
		Type:    "room_joined",
		Room:    room,
		Context: service.ComputeContext(room, c.identity, time.Now()),
	})
	return nil
}

// handleLeave forfeits first when a player walks out of a running match,
// then removes them from the room.
func (s *Server) handleLeave(ctx context.Context, c *client) error {
	roomID := s.clientRoom(c.id)
	if roomID != "" {
		room, err := s.rooms.GetRoom(ctx, roomID)
		if err == nil && room.GameState.Status == models.StatusInProgress && room.Player(c.identity) != nil {
			if err := s.match.HandleForfeit(ctx, roomID, c.identity, service.ReasonOpponentLeft); err != nil {
				s.logger.WithError(err).WithField("room_id", roomID).Warn("forfeit on leave failed")
			}
		}
	}
	if err := s.rooms.LeaveRoom(ctx, c.id, c.identity); err != nil {
		return err
	}
	s.bindRoom(c.id, "")
	return nil
}

func (s *Server) handleSpectatorLeave(ctx context.Context, c *client) error {
	if err := s.rooms.LeaveAsSpectator(ctx, c.id, c.identity); err != nil {
		return err
	}
	s.bindRoom(c.id, "")
	return nil
}

func (s *Server) requireRoom(c *client, fn func(roomID string) error) error {
	roomID := s.clientRoom(c.id)
	if roomID == "" {
		return service.ErrNotInRoom
	}
	return fn(roomID)
}

func (s *Server) clientRoom(connID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.clients[connID]; ok {
		return c.roomID
	}
	return ""
}

// identityFromRequest accepts the token from the Authorization header or
// the token query parameter; browsers cannot set headers on websocket
// upgrades, so the query form is the common path.
func identityFromRequest(r *http.Request) (string, error) {
	token := r.URL.Query().Get("token")
	if token == "" {
		header := r.Header.Get("Authorization")
		token = strings.TrimPrefix(header, "Bearer ")
		if token == header {
			token = ""
		}
	}
	if token == "" {
		return "", service.ErrUnauthorized
	}
	return auth.Authenticate(token)
}
