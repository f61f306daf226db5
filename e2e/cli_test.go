package e2e_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/coveytown-go/internal/api"
	"github.com/mcoot/coveytown-go/internal/cli"
	"github.com/mcoot/coveytown-go/internal/factory"
	"github.com/mcoot/coveytown-go/internal/services/towns"
	"github.com/mcoot/coveytown-go/internal/testutil"
)

// cliRunner runs covey commands in-process against one server
type cliRunner struct {
	serverURL string
	stateFile string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()
	return &cliRunner{
		serverURL: serverURL,
		stateFile: filepath.Join(t.TempDir(), "session.json"),
	}
}

func (r *cliRunner) args(args ...string) []string {
	return append([]string{
		"--server", r.serverURL,
		"--state-file", r.stateFile,
		"--output", "json",
	}, args...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := cli.NewRootCmd()
	cmd.SetArgs(r.args(args...))
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func runJSON[T any](t *testing.T, r *cliRunner, args ...string) T {
	t.Helper()
	out, err := r.run(args...)
	require.NoError(t, err, out)

	var v T
	require.NoError(t, json.Unmarshal([]byte(out), &v), out)
	return v
}

func startTestServer(t *testing.T) string {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	townsCfg := towns.DefaultConfig()
	townsCfg.PasswordCost = bcrypt.MinCost
	app, err := factory.New(factory.Config{Logger: logger, TownsConfig: townsCfg})
	require.NoError(t, err)

	apiRouter := api.NewRouter(api.RouterConfig{
		Logger:        logger,
		Store:         app.Towns,
		Limiter:       app.Limiter,
		SocketHandler: app.Socket,
	})

	mux := http.NewServeMux()
	mux.Handle("/api/", apiRouter)

	server := httptest.NewServer(mux)
	t.Cleanup(func() {
		_ = app.Close()
		server.Close()
	})
	return server.URL
}

func TestCLIHealth(t *testing.T) {
	r := newCLIRunner(t, startTestServer(t))

	result := runJSON[cli.HealthResult](t, r, "health")
	assert.Equal(t, "ok", result.Status)
}

func TestCLITownWorkflow(t *testing.T) {
	r := newCLIRunner(t, startTestServer(t))

	// Create and list
	created := runJSON[cli.CreateTownResult](t, r, "town", "create", "--name", "CLI Town")
	require.NotEmpty(t, created.TownID)
	require.NotEmpty(t, created.TownPassword)

	list := runJSON[cli.TownList](t, r, "town", "list")
	require.Len(t, list.Towns, 1)
	assert.Equal(t, "CLI Town", list.Towns[0].FriendlyName)

	// Update requires the password
	_, err := r.run("town", "update", created.TownID, "--password", "wrong", "--name", "Nope")
	assert.Error(t, err)

	_, err = r.run("town", "update", created.TownID, "--password", created.TownPassword, "--public=false")
	require.NoError(t, err)
	list = runJSON[cli.TownList](t, r, "town", "list")
	assert.Empty(t, list.Towns)

	// Delete
	_, err = r.run("town", "delete", created.TownID, "--password", created.TownPassword)
	require.NoError(t, err)
	_, err = r.run("join", created.TownID, "--name", "Late")
	assert.Error(t, err)
}

func TestCLISessionWorkflow(t *testing.T) {
	serverURL := startTestServer(t)
	alice := newCLIRunner(t, serverURL)
	bob := newCLIRunner(t, serverURL)

	created := runJSON[cli.CreateTownResult](t, alice, "town", "create", "--name", "Session Town")

	// Commands needing a session fail before joining
	_, err := alice.run("chat", "list")
	assert.Error(t, err)

	aliceJoin := runJSON[cli.JoinResult](t, alice, "join", created.TownID, "--name", "Alice")
	bobJoin := runJSON[cli.JoinResult](t, bob, "join", created.TownID, "--name", "Bob")
	assert.Len(t, bobJoin.Town.Players, 2)

	// The session is remembered in the state file
	session := runJSON[cli.JoinResult](t, alice, "session")
	assert.Equal(t, aliceJoin.PlayerID, session.PlayerID)

	// Areas
	area := runJSON[cli.ConversationArea](t, alice, "area", "create",
		"--label", "spawn", "--topic", "hello", "--width", "10", "--height", "10")
	assert.ElementsMatch(t, []string{aliceJoin.PlayerID, bobJoin.PlayerID}, area.Occupants)

	// Chats
	chat := runJSON[cli.Chat](t, alice, "chat", "create", "plans")
	chat = runJSON[cli.Chat](t, alice, "chat", "add", chat.ID, bobJoin.PlayerID)
	assert.Len(t, chat.Members, 2)

	chat = runJSON[cli.Chat](t, bob, "chat", "rename", chat.ID, "better plans")
	assert.Equal(t, "better plans", chat.Name)

	chats := runJSON[cli.ChatList](t, bob, "chat", "list")
	assert.Len(t, chats.Chats, 2)

	chat = runJSON[cli.Chat](t, alice, "chat", "remove", chat.ID, aliceJoin.PlayerID)
	assert.Equal(t, bobJoin.PlayerID, chat.AuthorID)

	// Blocks
	blocks := runJSON[cli.BlockResult](t, alice, "block", bobJoin.PlayerID)
	assert.Equal(t, []string{bobJoin.PlayerID}, blocks.BlockedPlayerIDs)
	blocks = runJSON[cli.BlockResult](t, alice, "unblock", bobJoin.PlayerID)
	assert.Empty(t, blocks.BlockedPlayerIDs)

	// Leave clears the state file
	_, err = alice.run("leave")
	require.NoError(t, err)
	_, err = os.Stat(alice.stateFile)
	assert.True(t, os.IsNotExist(err))

	_, err = alice.run("session")
	assert.Error(t, err)
}

func TestCLIStaleSessionHint(t *testing.T) {
	r := newCLIRunner(t, startTestServer(t))
	created := runJSON[cli.CreateTownResult](t, r, "town", "create", "--name", "Stale Town")

	out, err := r.run("--town", created.TownID, "--token", "sess_gone", "--verbose", "chat", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "covey join")
	assert.Contains(t, out, "GET /api/v1/towns/"+created.TownID+"/chats -> 401")
}

func TestCLIEventsStream(t *testing.T) {
	serverURL := startTestServer(t)
	owner := newCLIRunner(t, serverURL)
	listener := newCLIRunner(t, serverURL)

	created := runJSON[cli.CreateTownResult](t, owner, "town", "create", "--name", "Event Town")
	runJSON[cli.JoinResult](t, listener, "join", created.TownID, "--name", "Listener")

	// Stream in the background
	out := &testutil.LogBuffer{}
	done := make(chan error, 1)
	go func() {
		cmd := cli.NewRootCmd()
		cmd.SetArgs([]string{"--server", serverURL, "--state-file", listener.stateFile, "events"})
		cmd.SetOut(out)
		cmd.SetIn(strings.NewReader(""))
		done <- cmd.Execute()
	}()

	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "Connected to town")
	}, 5*time.Second, 20*time.Millisecond)

	// Another player's arrival is streamed
	ownerJoin := runJSON[cli.JoinResult](t, owner, "join", created.TownID, "--name", "Owner")
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "newPlayer") && strings.Contains(out.String(), ownerJoin.PlayerID)
	}, 5*time.Second, 20*time.Millisecond)

	// Deleting the town ends the stream
	_, err := owner.run("town", "delete", created.TownID, "--password", created.TownPassword)
	require.NoError(t, err)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("events stream did not end")
	}
	assert.Contains(t, out.String(), "townClosing")
	assert.Contains(t, out.String(), "Disconnected")
}
