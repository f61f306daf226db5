package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mcoot/coveytown-go/internal/dependencies/clock"
	"github.com/mcoot/coveytown-go/internal/dependencies/random"
	"github.com/mcoot/coveytown-go/internal/model"
)

// Provider mints the credential a player needs to join a town's video room
type Provider interface {
	GetTokenForTown(ctx context.Context, townID model.TownID, playerID model.PlayerID) (string, error)
}

// Config holds signing settings for video access tokens
type Config struct {
	AccountID    string
	APIKeyID     string
	APIKeySecret string
	TTL          time.Duration
}

// DefaultConfig returns settings suitable for local development only
func DefaultConfig() Config {
	return Config{
		AccountID:    "dev-account",
		APIKeyID:     "dev-key",
		APIKeySecret: "dev-secret-change-me",
		TTL:          4 * time.Hour,
	}
}

// Grants is the access grant section of a video token
type Grants struct {
	Identity string     `json:"identity"`
	Video    VideoGrant `json:"video"`
}

// VideoGrant scopes a token to a single room
type VideoGrant struct {
	Room string `json:"room"`
}

// Claims are the JWT claims carried by a video access token
type Claims struct {
	jwt.RegisteredClaims
	Grants Grants `json:"grants"`
}

// JWTProvider signs HS256 access tokens locally
type JWTProvider struct {
	cfg    Config
	clock  clock.Clock
	random random.Random
	logger *slog.Logger
}

// NewJWTProvider creates a provider that signs tokens with the API key secret
func NewJWTProvider(cfg Config, clock clock.Clock, random random.Random, logger *slog.Logger) (*JWTProvider, error) {
	if cfg.APIKeySecret == "" {
		return nil, errors.New("video api key secret is required")
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultConfig().TTL
	}
	return &JWTProvider{
		cfg:    cfg,
		clock:  clock,
		random: random,
		logger: logger.With(slog.String("component", "video")),
	}, nil
}

// Ensure JWTProvider implements Provider
var _ Provider = (*JWTProvider)(nil)

// GetTokenForTown issues a token granting playerID access to the room named after townID
func (p *JWTProvider) GetTokenForTown(ctx context.Context, townID model.TownID, playerID model.PlayerID) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if townID == "" || playerID == "" {
		return "", fmt.Errorf("%w: town and player are required", model.ErrVideoTokenUnavailable)
	}

	now := p.clock.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        p.cfg.APIKeyID + "-" + p.random.UUID(),
			Issuer:    p.cfg.APIKeyID,
			Subject:   p.cfg.AccountID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.cfg.TTL)),
		},
		Grants: Grants{
			Identity: string(playerID),
			Video:    VideoGrant{Room: string(townID)},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(p.cfg.APIKeySecret))
	if err != nil {
		p.logger.Error("failed to sign video token",
			slog.String("town", string(townID)),
			slog.String("player_id", string(playerID)),
			slog.Any("error", err))
		return "", fmt.Errorf("%w: %v", model.ErrVideoTokenUnavailable, err)
	}
	return signed, nil
}

// parseToken verifies a token minted by this provider and returns its claims
func (p *JWTProvider) parseToken(signed string) (*Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(signed, &claims, func(t *jwt.Token) (any, error) {
		return []byte(p.cfg.APIKeySecret), nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.cfg.APIKeyID),
		jwt.WithTimeFunc(p.clock.Now),
	)
	if err != nil {
		return nil, err
	}
	return &claims, nil
}
