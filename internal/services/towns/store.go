package towns

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/dependencies/random"
	"github.com/mcoot/coveytown-go/internal/model"
	"github.com/mcoot/coveytown-go/internal/services/town"
	"github.com/mcoot/coveytown-go/internal/services/video"
)

const (
	// TownIDLength is the length of generated town ids
	TownIDLength = 8
	// TownIDAlphabet is the characters used in town ids
	TownIDAlphabet = "1234567890ABCDEF"
	// PasswordLength is the length of generated update passwords
	PasswordLength = 24
	// PasswordAlphabet is the characters used in update passwords
	PasswordAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz_-"
)

// Config holds configuration for the town registry
type Config struct {
	// DefaultCapacity is the advertised maximum occupancy of new towns
	DefaultCapacity int
	// DemoTownID, when a town is created with exactly this friendly name,
	// is used as that town's id
	DemoTownID string
	// PasswordCost is the bcrypt cost for update password hashes
	PasswordCost int
}

// DefaultConfig returns default registry configuration
func DefaultConfig() Config {
	return Config{
		DefaultCapacity: town.DefaultCapacity,
		PasswordCost:    bcrypt.DefaultCost,
	}
}

// Update describes optional changes to a town; nil fields are left alone
type Update struct {
	FriendlyName     *string
	IsPubliclyListed *bool
}

type entry struct {
	controller   *town.Controller
	passwordHash []byte
}

// Store is the process-wide registry of towns
type Store struct {
	cfg    Config
	video  video.Provider
	clock  clock.Clock
	random random.Random
	logger *slog.Logger

	mu    sync.RWMutex
	towns []*entry
}

// New creates an empty registry
func New(cfg Config, videoProvider video.Provider, clock clock.Clock, random random.Random, logger *slog.Logger) *Store {
	if cfg.DefaultCapacity <= 0 {
		cfg.DefaultCapacity = town.DefaultCapacity
	}
	if cfg.PasswordCost == 0 {
		cfg.PasswordCost = bcrypt.DefaultCost
	}
	return &Store{
		cfg:    cfg,
		video:  videoProvider,
		clock:  clock,
		random: random,
		logger: logger,
		towns:  []*entry{},
	}
}

// CreateTown registers a new town and returns it with its update password.
// The plaintext password is never stored.
func (s *Store) CreateTown(ctx context.Context, friendlyName string, isPubliclyListed bool) (*town.Controller, string, error) {
	if friendlyName == "" {
		return nil, "", model.ErrEmptyFriendlyName
	}
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}

	password := s.random.String(PasswordLength, PasswordAlphabet)
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.PasswordCost)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var id model.TownID
	if s.cfg.DemoTownID != "" && friendlyName == s.cfg.DemoTownID && s.find(model.TownID(friendlyName)) == nil {
		id = model.TownID(friendlyName)
	} else {
		// Generate unique town id
		for {
			id = model.TownID(s.random.String(TownIDLength, TownIDAlphabet))
			if s.find(id) == nil {
				break
			}
		}
	}

	controller := town.NewController(town.Config{
		ID:               id,
		FriendlyName:     friendlyName,
		IsPubliclyListed: isPubliclyListed,
		Capacity:         s.cfg.DefaultCapacity,
	}, s.video, s.clock, s.random, s.logger)

	s.towns = append(s.towns, &entry{controller: controller, passwordHash: hash})

	s.logger.Info("town created",
		slog.String("town", string(id)),
		slog.String("friendly_name", friendlyName),
		slog.Bool("public", isPubliclyListed))

	return controller, password, nil
}

// GetControllerForTown returns the coordinator for id
func (s *Store) GetControllerForTown(id model.TownID) (*town.Controller, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.find(id)
	if e == nil {
		return nil, model.ErrTownNotFound
	}
	return e.controller, nil
}

// ListTowns returns the publicly listed towns in creation order
func (s *Store) ListTowns() []model.TownListing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	listings := []model.TownListing{}
	for _, e := range s.towns {
		if e.controller.IsPubliclyListed() {
			listings = append(listings, e.controller.Listing())
		}
	}
	return listings
}

// Stats counts every live town, listed or not, and the players in them
func (s *Store) Stats() (towns, players int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.towns {
		players += e.controller.Occupancy()
	}
	return len(s.towns), players
}

// UpdateTown applies update to the town if password matches
func (s *Store) UpdateTown(id model.TownID, password string, update Update) error {
	if update.FriendlyName != nil && *update.FriendlyName == "" {
		return model.ErrEmptyFriendlyName
	}

	s.mu.RLock()
	e := s.find(id)
	s.mu.RUnlock()
	if e == nil {
		return model.ErrTownNotFound
	}
	if err := e.checkPassword(password); err != nil {
		return err
	}

	if update.FriendlyName != nil {
		e.controller.SetFriendlyName(*update.FriendlyName)
	}
	if update.IsPubliclyListed != nil {
		e.controller.SetPubliclyListed(*update.IsPubliclyListed)
	}
	return nil
}

// DeleteTown disconnects everyone in the town and forgets it if password matches
func (s *Store) DeleteTown(id model.TownID, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.find(id)
	if e == nil {
		return model.ErrTownNotFound
	}
	if err := e.checkPassword(password); err != nil {
		return err
	}

	s.towns = slices.DeleteFunc(s.towns, func(existing *entry) bool {
		return existing == e
	})
	e.controller.DisconnectAllPlayers()

	s.logger.Info("town deleted", slog.String("town", string(id)))
	return nil
}

// Close tears down every town
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.towns {
		e.controller.DisconnectAllPlayers()
	}
	s.towns = []*entry{}
}

func (s *Store) find(id model.TownID) *entry {
	for _, e := range s.towns {
		if e.controller.ID() == id {
			return e
		}
	}
	return nil
}

func (e *entry) checkPassword(password string) error {
	if err := bcrypt.CompareHashAndPassword(e.passwordHash, []byte(password)); err != nil {
		return model.ErrInvalidTownPassword
	}
	return nil
}
