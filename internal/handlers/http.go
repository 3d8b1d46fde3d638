package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/connectx-game/server/internal/auth"
	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/service"
)

// RegisterRoutes installs the REST surface and the websocket endpoint
// on mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/user/register", s.registerUserHandler)
	mux.HandleFunc("/rooms", s.roomsHandler)
	mux.HandleFunc("/rooms/", s.roomHandler)
	mux.HandleFunc("/history/", s.historyHandler)
	mux.HandleFunc("/ws", WSHandler(s.logger, s))
}

type registerRequest struct {
	Username string `json:"username"`
}

type registerResponse struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func (s *Server) registerUserHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	user, err := s.users.Register(r.Context(), req.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	token, err := auth.CreateToken(user.Username)
	if err != nil {
		s.logger.WithError(err).Error("signing token failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{User: user, Token: token})
}

type createRoomRequest struct {
	Config     *models.BoardConfig `json:"config,omitempty"`
	Difficulty models.Difficulty   `json:"difficulty,omitempty"`
	IsPublic   *bool               `json:"isPublic,omitempty"`
}

// roomsHandler serves POST /rooms (create) and GET /rooms (public list).
func (s *Server) roomsHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		identity, err := identityFromRequest(r)
		if err != nil {
			http.Error(w, "authentication required", http.StatusUnauthorized)
			return
		}
		var req createRoomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid payload", http.StatusBadRequest)
			return
		}
		cfg := models.DefaultBoardConfig()
		if req.Config != nil {
			cfg = *req.Config
		}
		difficulty := models.DifficultyMedium
		if req.Difficulty != "" {
			difficulty = req.Difficulty
		}
		isPublic := true
		if req.IsPublic != nil {
			isPublic = *req.IsPublic
		}

		room, err := s.rooms.CreateRoom(r.Context(), identity, cfg, difficulty, isPublic)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, room)

	case http.MethodGet:
		rooms, err := s.rooms.GetPublicRooms(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if rooms == nil {
			rooms = []*models.Room{}
		}
		writeJSON(w, http.StatusOK, rooms)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// roomHandler serves GET /rooms/{id}.
func (s *Server) roomHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	roomID := strings.TrimPrefix(r.URL.Path, "/rooms/")
	if roomID == "" || strings.Contains(roomID, "/") {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}
	room, err := s.rooms.GetRoom(r.Context(), roomID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

// historyHandler serves GET /history/{id}, /history/room/{roomID} and
// /history/player/{username}.
func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	rest := strings.TrimPrefix(r.URL.Path, "/history/")
	parts := strings.SplitN(rest, "/", 2)

	switch {
	case parts[0] == "room" && len(parts) == 2 && parts[1] != "":
		record, err := s.history.FindByRoomID(r.Context(), parts[1])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if record == nil {
			http.Error(w, "history not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, record)

	case parts[0] == "player" && len(parts) == 2 && parts[1] != "":
		records, err := s.history.FindByPlayer(r.Context(), models.NormalizeUsername(parts[1]))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if records == nil {
			records = []*models.GameHistory{}
		}
		writeJSON(w, http.StatusOK, records)

	case len(parts) == 1 && parts[0] != "":
		record, err := s.history.FindByID(r.Context(), parts[0])
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if record == nil {
			http.Error(w, "history not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, record)

	default:
		http.Error(w, "missing history id", http.StatusBadRequest)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Headers are already out; nothing useful left to do.
		return
	}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrRoomNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidData):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, service.ErrRoomFull),
		errors.Is(err, service.ErrMatchInProgress),
		errors.Is(err, service.ErrMatchFinished),
		errors.Is(err, service.ErrAlreadyPlayer):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
