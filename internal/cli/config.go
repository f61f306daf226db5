package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL string
	Token     string
	TownID    string
	StateFile string
	Output    string
	Verbose   bool
}

// State is the session remembered between invocations after `covey join`
type State struct {
	TownID   string `json:"town_id"`
	PlayerID string `json:"player_id"`
	Token    string `json:"token"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL: getEnvOrDefault("COVEY_URL", "http://localhost:8080"),
		Token:     os.Getenv("COVEY_TOKEN"),
		TownID:    os.Getenv("COVEY_TOWN"),
		StateFile: getEnvOrDefault("COVEY_STATE_FILE", defaultStateFile()),
		Output:    "text",
		Verbose:   false,
	}
}

// LoadState fills in the town and token from the state file if not already set
func (c *Config) LoadState() error {
	if c.Token != "" && c.TownID != "" {
		return nil
	}

	data, err := os.ReadFile(c.StateFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // No state file is fine
		}
		return err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return err
	}
	if c.Token == "" {
		c.Token = state.Token
	}
	if c.TownID == "" {
		c.TownID = state.TownID
	}
	return nil
}

// SaveState remembers a session for later commands
func (c *Config) SaveState(state State) error {
	c.Token = state.Token
	c.TownID = state.TownID

	dir := filepath.Dir(c.StateFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	return os.WriteFile(c.StateFile, data, 0600)
}

// ClearState forgets the saved session
func (c *Config) ClearState() error {
	c.Token = ""
	if err := os.Remove(c.StateFile); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// RequireSession returns the town and token, failing if there is no session
func (c *Config) RequireSession() (string, error) {
	if c.TownID == "" || c.Token == "" {
		return "", errors.New("not in a town: run `covey join <town_id>` first")
	}
	return c.TownID, nil
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".covey/session.json"
	}
	return filepath.Join(home, ".covey", "session.json")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
