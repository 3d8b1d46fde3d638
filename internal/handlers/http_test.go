package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/connectx-game/server/internal/auth"
	"github.com/connectx-game/server/internal/events"
	"github.com/connectx-game/server/internal/models"
	"github.com/connectx-game/server/internal/repository/memory"
	"github.com/connectx-game/server/internal/scheduler"
	"github.com/connectx-game/server/internal/service"
)

func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()
	require.NoError(t, auth.Init(0))

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	rooms := memory.NewRoomStore()
	history := memory.NewHistoryStore()
	users := memory.NewUserStore()
	bus := events.NewBus(logger)
	clock := scheduler.New(logger)
	locks := service.NewRoomLocks()

	matchSvc := service.NewMatchService(rooms, history, clock, bus, locks, logger)
	roomSvc := service.NewRoomService(rooms, bus, locks, logger)
	userSvc := service.NewUserService(users, logger)

	s := NewServer(roomSvc, matchSvc, userSvc, history, logger)
	s.SubscribeEvents(bus)

	mux := http.NewServeMux()
	s.RegisterRoutes(mux)
	return s, mux
}

func registerUser(t *testing.T, mux *http.ServeMux, username string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username})
	req := httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp registerResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterIssuesToken(t *testing.T) {
	_, mux := newTestServer(t)
	token := registerUser(t, mux, "Alice")

	identity, err := auth.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", identity)
}

func TestRegisterRejectsShortName(t *testing.T) {
	_, mux := newTestServer(t)
	body, _ := json.Marshal(map[string]string{"username": "x"})
	req := httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateAndFetchRoom(t *testing.T) {
	_, mux := newTestServer(t)
	token := registerUser(t, mux, "alice")

	body, _ := json.Marshal(createRoomRequest{Difficulty: models.DifficultyHard})
	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var room models.Room
	require.NoError(t, json.NewDecoder(w.Body).Decode(&room))
	assert.Equal(t, "alice", room.CreatorID)
	assert.Equal(t, models.DifficultyHard, room.Difficulty)
	require.Len(t, room.Players, 1)
	assert.Equal(t, models.ColorRed, room.Players[0].Color)

	req = httptest.NewRequest(http.MethodGet, "/rooms/"+room.ID, nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched models.Room
	require.NoError(t, json.NewDecoder(w.Body).Decode(&fetched))
	assert.Equal(t, room.ID, fetched.ID)
}

func TestCreateRoomRequiresAuth(t *testing.T) {
	_, mux := newTestServer(t)
	body, _ := json.Marshal(createRoomRequest{})
	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateRoomRejectsBadConfig(t *testing.T) {
	_, mux := newTestServer(t)
	token := registerUser(t, mux, "alice")

	cfg := models.BoardConfig{Rows: 1, Columns: 1, ConnectCount: 1}
	body, _ := json.Marshal(createRoomRequest{Config: &cfg})
	req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListPublicRooms(t *testing.T) {
	_, mux := newTestServer(t)
	token := registerUser(t, mux, "alice")

	hidden := false
	for _, public := range []*bool{nil, &hidden} {
		body, _ := json.Marshal(createRoomRequest{IsPublic: public})
		req := httptest.NewRequest(http.MethodPost, "/rooms", bytes.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/rooms", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var rooms []*models.Room
	require.NoError(t, json.NewDecoder(w.Body).Decode(&rooms))
	assert.Len(t, rooms, 1)
}

func TestRoomNotFound(t *testing.T) {
	_, mux := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/rooms/does-not-exist", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHistoryEndpoints(t *testing.T) {
	s, mux := newTestServer(t)

	record := &models.GameHistory{
		ID:         "hist-1",
		RoomID:     "room-1",
		Players:    []string{"alice", "bob"},
		Winner:     models.ResultPlayerOne,
		Config:     models.DefaultBoardConfig(),
		Difficulty: models.DifficultyMedium,
	}
	require.NoError(t, s.history.Save(httptest.NewRequest(http.MethodGet, "/", nil).Context(), record))

	for _, path := range []string{
		"/history/hist-1",
		"/history/room/room-1",
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	req := httptest.NewRequest(http.MethodGet, "/history/player/Alice", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	var records []*models.GameHistory
	require.NoError(t, json.NewDecoder(w.Body).Decode(&records))
	assert.Len(t, records, 1)

	req = httptest.NewRequest(http.MethodGet, "/history/nope", nil)
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "NOT_YOUR_TURN", errorCode(service.ErrNotYourTurn))
	assert.Equal(t, "INVALID_MOVE", errorCode(service.ErrInvalidMove))
	assert.Equal(t, "ROOM_NOT_FOUND", errorCode(service.ErrRoomNotFound))
	assert.Equal(t, "INVALID_DATA", errorCode(service.ErrInvalidData))
	assert.Equal(t, "INTERNAL_ERROR", errorCode(io.ErrUnexpectedEOF))
}
