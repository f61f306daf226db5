package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/mcoot/coveytown-go/internal/socket"
)

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var chatID string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Stream live events from the current town",
		Long: `Connect to the town socket and stream events in real-time.

Events include:
  - newPlayer / playerMoved / playerDisconnect
  - conversationUpdated / conversationDestroyed
  - chatMessage / playersAddedToChat / playersRemovedFromChat / chatRenamed
  - playerBlocked / playerUnblocked
  - townClosing: the town was deleted

With --chat, every line typed on stdin is posted to that chat.
Disconnecting ends the session in the town. Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			townID, err := cfg.RequireSession()
			if err != nil {
				return err
			}
			return streamEvents(cmd, townID, chatID, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().StringVar(&chatID, "chat", "", "Post stdin lines to this chat")

	return cmd
}

// TownEvent is a socket frame as printed by the events command
type TownEvent struct {
	Time    time.Time       `json:"time"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func socketURL(serverURL, townID, token string) (string, error) {
	u, err := url.Parse(strings.TrimSuffix(serverURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += townPath(townID, "socket")
	u.RawQuery = url.Values{"token": {token}}.Encode()
	return u.String(), nil
}

func streamEvents(cmd *cobra.Command, townID, chatID string, jsonOutput bool) error {
	target, err := socketURL(cfg.ServerURL, townID, cfg.Token)
	if err != nil {
		return err
	}

	conn, _, err := websocket.DefaultDialer.Dial(target, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	w := cmd.OutOrStdout()
	if !jsonOutput {
		_, _ = fmt.Fprintf(w, "Connected to town %s\n", townID)
	}

	// Handle interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		<-sigCh
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
	}()

	if chatID != "" {
		go postLines(conn, cmd.InOrStdin(), chatID)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !jsonOutput {
					_, _ = fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			if ce, ok := err.(*websocket.CloseError); ok {
				return fmt.Errorf("server closed the connection: %s", ce.Text)
			}
			return fmt.Errorf("stream error: %w", err)
		}

		env, err := socket.Decode(data)
		if err != nil {
			continue
		}
		printEvent(w, env, jsonOutput)
	}
}

// postLines sends each stdin line as a chat message until stdin closes
func postLines(conn *websocket.Conn, in io.Reader, chatID string) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		body := strings.TrimSpace(scanner.Text())
		if body == "" {
			continue
		}
		frame, err := socket.Encode(socket.TypeSendChat, socket.SendChatPayload{ChatID: chatID, Body: body})
		if err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			return
		}
	}
}

func printEvent(w io.Writer, env *socket.Envelope, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		evt := TownEvent{
			Time:    now,
			Type:    string(env.Type),
			Payload: env.Payload,
		}
		jsonData, _ := json.Marshal(evt)
		_, _ = fmt.Fprintln(w, string(jsonData))
		return
	}

	timestamp := now.Format("2006-01-02 15:04:05")
	// Truncate data if it's too long for display
	displayData := string(env.Payload)
	if len(displayData) > 100 {
		displayData = displayData[:100] + "..."
	}
	_, _ = fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, env.Type, displayData)
}
