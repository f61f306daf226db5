package api_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/coveytown-go/internal/api"
	"github.com/mcoot/coveytown-go/internal/api/apierr"
	"github.com/mcoot/coveytown-go/internal/api/response"
	"github.com/mcoot/coveytown-go/internal/factory"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/ratelimit"
	"github.com/mcoot/coveytown-go/internal/services/towns"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
}

func newTestServer(t *testing.T, limits ...ratelimit.Config) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	townsCfg := towns.DefaultConfig()
	townsCfg.PasswordCost = bcrypt.MinCost

	cfg := factory.Config{TownsConfig: townsCfg}
	if len(limits) > 0 {
		cfg.RateLimitConfig = limits[0]
	}

	// API tests are integration tests - use production factory with real random/clock
	app, err := factory.New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })

	router := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Store:         app.Towns,
		Limiter:       app.Limiter,
		SocketHandler: app.Socket,
	})

	return &testServer{
		handler: router,
		app:     app,
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[apierr.ErrorResponse](t, rr).Error.Code
}

func createTown(t *testing.T, ts *testServer, name string, public bool) response.CreateTownResponse {
	t.Helper()
	body := map[string]any{"friendly_name": name, "is_publicly_listed": public}
	rr := ts.request(http.MethodPost, "/api/v1/towns", body, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.CreateTownResponse](t, rr)
}

func joinTown(t *testing.T, ts *testServer, townID, userName string) response.JoinResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/towns/"+townID+"/sessions", map[string]string{"user_name": userName}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return decode[response.JoinResponse](t, rr)
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, response.HealthResponse{Status: "ok"}, decode[response.HealthResponse](t, rr))

	town := createTown(t, ts, "Hidden", false)
	joinTown(t, ts, town.TownID, "alice")

	rr = ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, response.HealthResponse{Status: "ok", Towns: 1, Players: 1}, decode[response.HealthResponse](t, rr))
}

func TestCreateAndListTowns(t *testing.T) {
	ts := newTestServer(t)

	public := createTown(t, ts, "Public Town", true)
	createTown(t, ts, "Hidden Town", false)

	assert.Len(t, public.TownID, towns.TownIDLength)
	assert.Len(t, public.TownPassword, towns.PasswordLength)

	rr := ts.request(http.MethodGet, "/api/v1/towns", nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	list := decode[response.TownList](t, rr)
	require.Len(t, list.Towns, 1)
	assert.Equal(t, public.TownID, list.Towns[0].TownID)
	assert.Equal(t, "Public Town", list.Towns[0].FriendlyName)
	assert.Equal(t, 0, list.Towns[0].CurrentOccupancy)
	assert.Equal(t, 50, list.Towns[0].MaximumOccupancy)
}

func TestCreateTownRequiresName(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/towns", map[string]any{"friendly_name": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestUpdateTown(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Old Name", true)

	// Wrong password
	rr := ts.request(http.MethodPatch, "/api/v1/towns/"+town.TownID,
		map[string]any{"town_password": "wrong", "friendly_name": "New Name"}, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeInvalidPassword, errorCode(t, rr))

	// Empty name
	rr = ts.request(http.MethodPatch, "/api/v1/towns/"+town.TownID,
		map[string]any{"town_password": town.TownPassword, "friendly_name": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	// Rename and unlist
	rr = ts.request(http.MethodPatch, "/api/v1/towns/"+town.TownID,
		map[string]any{"town_password": town.TownPassword, "friendly_name": "New Name", "is_publicly_listed": false}, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	list := decode[response.TownList](t, ts.request(http.MethodGet, "/api/v1/towns", nil, ""))
	assert.Empty(t, list.Towns)

	controller, err := ts.app.Towns.GetControllerForTown(model.TownID(town.TownID))
	require.NoError(t, err)
	assert.Equal(t, "New Name", controller.FriendlyName())
}

func TestDeleteTown(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Doomed", true)

	rr := ts.request(http.MethodDelete, "/api/v1/towns/"+town.TownID+"/wrong", nil, "")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr = ts.request(http.MethodDelete, "/api/v1/towns/"+town.TownID+"/"+town.TownPassword, nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/towns/"+town.TownID+"/sessions", map[string]string{"user_name": "late"}, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeTownNotFound, errorCode(t, rr))
}

func TestJoinAndLeave(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Join Town", true)

	alice := joinTown(t, ts, town.TownID, "Alice")
	assert.NotEmpty(t, alice.PlayerID)
	assert.NotEmpty(t, alice.SessionToken)
	assert.NotEmpty(t, alice.VideoToken)
	assert.Equal(t, "Join Town", alice.Town.FriendlyName)
	require.Len(t, alice.Town.Players, 1)
	assert.Equal(t, "Alice", alice.Town.Players[0].UserName)
	require.Len(t, alice.Town.Chats, 1)
	assert.Equal(t, "global", alice.Town.Chats[0].ID)

	bob := joinTown(t, ts, town.TownID, "Bob")
	assert.Len(t, bob.Town.Players, 2)

	// Session lookup
	rr := ts.request(http.MethodGet, "/api/v1/towns/"+town.TownID+"/sessions", nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, alice.PlayerID, decode[response.JoinResponse](t, rr).PlayerID)

	// Leave
	rr = ts.request(http.MethodDelete, "/api/v1/towns/"+town.TownID+"/sessions", nil, alice.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/towns/"+town.TownID+"/sessions", nil, alice.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	list := decode[response.TownList](t, ts.request(http.MethodGet, "/api/v1/towns", nil, ""))
	require.Len(t, list.Towns, 1)
	assert.Equal(t, 1, list.Towns[0].CurrentOccupancy)
}

func TestLeaveIsNotTakenForTownDeletion(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Routing Town", true)
	alice := joinTown(t, ts, town.TownID, "Alice")

	rr := ts.request(http.MethodDelete, "/api/v1/towns/"+town.TownID+"/sessions", nil, alice.SessionToken)
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	// The session is gone but the town is not
	rr = ts.request(http.MethodGet, "/api/v1/towns/"+town.TownID+"/sessions", nil, alice.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	health := decode[response.HealthResponse](t, ts.request(http.MethodGet, "/api/v1/health", nil, ""))
	assert.Equal(t, response.HealthResponse{Status: "ok", Towns: 1, Players: 0}, health)

	// Leaving an unknown town still resolves the town first
	rr = ts.request(http.MethodDelete, "/api/v1/towns/NOPE/sessions", nil, alice.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeTownNotFound, errorCode(t, rr))

	// Deletion by password still routes
	rr = ts.request(http.MethodDelete, "/api/v1/towns/"+town.TownID+"/"+town.TownPassword, nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestJoinRequiresUserName(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Town", true)

	rr := ts.request(http.MethodPost, "/api/v1/towns/"+town.TownID+"/sessions", map[string]string{"user_name": ""}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionRequired(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Town", true)

	rr := ts.request(http.MethodGet, "/api/v1/towns/"+town.TownID+"/chats", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = ts.request(http.MethodGet, "/api/v1/towns/"+town.TownID+"/chats", nil, "sess_bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Tokens are scoped to their town
	other := createTown(t, ts, "Other", true)
	alice := joinTown(t, ts, other.TownID, "Alice")
	rr = ts.request(http.MethodGet, "/api/v1/towns/"+town.TownID+"/chats", nil, alice.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	// Unknown towns are reported before the session is checked
	rr = ts.request(http.MethodGet, "/api/v1/towns/NOPE/chats", nil, alice.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestConversationAreas(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Area Town", true)
	alice := joinTown(t, ts, town.TownID, "Alice")
	path := "/api/v1/towns/" + town.TownID + "/conversation-areas"

	box := map[string]float64{"x": 0, "y": 0, "width": 10, "height": 10}
	rr := ts.request(http.MethodPost, path, map[string]any{"label": "spawn", "topic": "hello", "bounding_box": box}, alice.SessionToken)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	area := decode[response.ConversationArea](t, rr)
	assert.Equal(t, "spawn", area.Label)
	assert.Equal(t, []string{alice.PlayerID}, area.Occupants, "players at spawn are seeded into the area")

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{
			name:   "duplicate label",
			body:   map[string]any{"label": "spawn", "topic": "again", "bounding_box": map[string]float64{"x": 100, "y": 100, "width": 5, "height": 5}},
			status: http.StatusConflict,
			code:   apierr.CodeAreaLabelTaken,
		},
		{
			name:   "overlapping",
			body:   map[string]any{"label": "near", "topic": "again", "bounding_box": map[string]float64{"x": 5, "y": 5, "width": 10, "height": 10}},
			status: http.StatusConflict,
			code:   apierr.CodeAreaOverlaps,
		},
		{
			name:   "empty topic",
			body:   map[string]any{"label": "far", "topic": "", "bounding_box": map[string]float64{"x": 100, "y": 100, "width": 5, "height": 5}},
			status: http.StatusBadRequest,
			code:   apierr.CodeAreaInvalid,
		},
		{
			name:   "zero size",
			body:   map[string]any{"label": "flat", "topic": "t", "bounding_box": map[string]float64{"x": 100, "y": 100, "width": 0, "height": 5}},
			status: http.StatusBadRequest,
			code:   apierr.CodeInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := ts.request(http.MethodPost, path, tt.body, alice.SessionToken)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.code, errorCode(t, rr))
		})
	}

	rr = ts.request(http.MethodGet, path, nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]response.ConversationArea](t, rr), 1)
}

func TestChatFlow(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Chat Town", true)
	alice := joinTown(t, ts, town.TownID, "Alice")
	bob := joinTown(t, ts, town.TownID, "Bob")
	chats := "/api/v1/towns/" + town.TownID + "/chats"

	// Alice creates a chat and adds bob
	rr := ts.request(http.MethodPost, chats, map[string]string{"chat_name": "plans"}, alice.SessionToken)
	require.Equal(t, http.StatusCreated, rr.Code)
	chat := decode[response.Chat](t, rr)
	assert.Equal(t, alice.PlayerID, chat.AuthorID)
	assert.Equal(t, []string{alice.PlayerID}, chat.Members)

	// Bob cannot touch a chat he is not in
	rr = ts.request(http.MethodPatch, chats+"/"+chat.ID, map[string]string{"chat_name": "mine"}, bob.SessionToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeNotChatMember, errorCode(t, rr))

	rr = ts.request(http.MethodPost, chats+"/"+chat.ID+"/players", map[string][]string{"player_ids": {bob.PlayerID}}, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.ElementsMatch(t, []string{alice.PlayerID, bob.PlayerID}, decode[response.Chat](t, rr).Members)

	// Bob now sees it and may rename it
	rr = ts.request(http.MethodGet, chats, nil, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.ChatList](t, rr).Chats, 2)

	rr = ts.request(http.MethodPatch, chats+"/"+chat.ID, map[string]string{"chat_name": "better plans"}, bob.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "better plans", decode[response.Chat](t, rr).Name)

	// The global chat cannot be renamed
	rr = ts.request(http.MethodPatch, chats+"/global", map[string]string{"chat_name": "mine"}, bob.SessionToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, apierr.CodeGlobalChat, errorCode(t, rr))

	// Alice leaves the chat and bob inherits it
	rr = ts.request(http.MethodPost, chats+"/"+chat.ID+"/players/remove", map[string][]string{"player_ids": {alice.PlayerID}}, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	remaining := decode[response.Chat](t, rr)
	assert.Equal(t, bob.PlayerID, remaining.AuthorID)
	assert.Equal(t, []string{bob.PlayerID}, remaining.Members)

	// Bob leaving deletes it
	rr = ts.request(http.MethodPost, chats+"/"+chat.ID+"/players/remove", map[string][]string{"player_ids": {bob.PlayerID}}, bob.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = ts.request(http.MethodPatch, chats+"/"+chat.ID, map[string]string{"chat_name": "gone"}, bob.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, apierr.CodeChatNotFound, errorCode(t, rr))
}

func TestChatPlayersRequiresList(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Chat Town", true)
	alice := joinTown(t, ts, town.TownID, "Alice")

	rr := ts.request(http.MethodPost, "/api/v1/towns/"+town.TownID+"/chats/global/players", map[string][]string{"player_ids": {}}, alice.SessionToken)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBlockAndUnblock(t *testing.T) {
	ts := newTestServer(t)
	town := createTown(t, ts, "Block Town", true)
	alice := joinTown(t, ts, town.TownID, "Alice")
	bob := joinTown(t, ts, town.TownID, "Bob")
	blocks := "/api/v1/towns/" + town.TownID + "/blocks"

	rr := ts.request(http.MethodPost, blocks, map[string]string{"player_id": bob.PlayerID}, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{bob.PlayerID}, decode[response.BlockResponse](t, rr).BlockedPlayerIDs)

	// Blocking twice keeps one entry
	rr = ts.request(http.MethodPost, blocks, map[string]string{"player_id": bob.PlayerID}, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[response.BlockResponse](t, rr).BlockedPlayerIDs, 1)

	rr = ts.request(http.MethodPost, blocks, map[string]string{"player_id": "ghost"}, alice.SessionToken)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = ts.request(http.MethodDelete, blocks+"/"+bob.PlayerID, nil, alice.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, decode[response.BlockResponse](t, rr).BlockedPlayerIDs)
}

func TestRateLimitedTownCreation(t *testing.T) {
	limits := ratelimit.DefaultConfig()
	limits.Limits[ratelimit.ScopeCreateTown] = 2
	ts := newTestServer(t, limits)

	createTown(t, ts, "One", true)
	createTown(t, ts, "Two", true)

	rr := ts.request(http.MethodPost, "/api/v1/towns", map[string]any{"friendly_name": "Three"}, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, apierr.CodeRateLimited, errorCode(t, rr))
	assert.Equal(t, "300", rr.Header().Get("Retry-After"))

	// Other scopes are counted separately
	rr = ts.request(http.MethodGet, "/api/v1/towns", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestResponsesAreNotCached(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/towns", nil, "")
	assert.Equal(t, "no-store", rr.Header().Get("Cache-Control"))
}
