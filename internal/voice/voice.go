// Package voice issues access tokens for LiveKit voice rooms where a
// learner talks to a scenario agent in real time.
package voice

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kalike-app/kalike/internal/platform/envutil"
	"github.com/kalike-app/kalike/internal/platform/logger"
)

// DefaultTokenTTL is how long a room token stays valid.
const DefaultTokenTTL = time.Hour

// ErrNotConfigured is returned when no LiveKit credentials are set.
var ErrNotConfigured = errors.New("voice rooms are not configured")

type Config struct {
	APIKey    string
	APISecret string
	URL       string
	TokenTTL  time.Duration
}

// ConfigFromEnv reads KALIKE_LIVEKIT_* and falls back to the LIVEKIT_*
// names the LiveKit tooling uses.
func ConfigFromEnv() Config {
	return Config{
		APIKey:    envutil.String("KALIKE_LIVEKIT_API_KEY", envutil.String("LIVEKIT_API_KEY", "")),
		APISecret: envutil.String("KALIKE_LIVEKIT_API_SECRET", envutil.String("LIVEKIT_API_SECRET", "")),
		URL:       envutil.String("KALIKE_LIVEKIT_URL", envutil.String("LIVEKIT_URL", "")),
		TokenTTL:  envutil.Duration("KALIKE_LIVEKIT_TOKEN_TTL", DefaultTokenTTL),
	}
}

func (c Config) Enabled() bool {
	return c.APIKey != "" && c.APISecret != ""
}

// VideoGrant is the room permission block of a LiveKit token.
type VideoGrant struct {
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	Room           string `json:"room,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

// Claims follow the LiveKit access token layout: the API key is the
// issuer and the participant identity is the subject.
type Claims struct {
	jwt.RegisteredClaims
	Name     string      `json:"name,omitempty"`
	Video    *VideoGrant `json:"video,omitempty"`
	Metadata string      `json:"metadata,omitempty"`
}

// Session is what a client needs to join a scenario room.
type Session struct {
	RoomName    string `json:"room_name"`
	AccessToken string `json:"access_token"`
	URL         string `json:"livekit_url"`
	UserID      string `json:"user_id"`
	DemoMode    bool   `json:"demo_mode"`
}

// DemoToken joins a throwaway room.
type DemoToken struct {
	Token    string `json:"token"`
	RoomName string `json:"room_name"`
	UserID   string `json:"user_id"`
	URL      string `json:"livekit_url"`
}

// Rooms names rooms and signs participant tokens.
type Rooms struct {
	cfg Config
	log *logger.Logger
	now func() time.Time
}

func NewRooms(cfg Config, log *logger.Logger) *Rooms {
	if log == nil {
		log = logger.Nop()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = DefaultTokenTTL
	}
	return &Rooms{cfg: cfg, log: log.With("component", "voice"), now: time.Now}
}

func (r *Rooms) Enabled() bool { return r.cfg.Enabled() }

func (r *Rooms) URL() string { return r.cfg.URL }

// RoomName is {scenario}_{user}_{unix seconds}.
func (r *Rooms) RoomName(scenarioID, userID string) string {
	return fmt.Sprintf("%s_%s_%d", scenarioID, userID, r.now().Unix())
}

// Token signs a token that lets identity join room with publish,
// subscribe and data permissions. metadata is attached as JSON.
func (r *Rooms) Token(room, identity string, metadata map[string]any) (string, error) {
	if !r.cfg.Enabled() {
		return "", ErrNotConfigured
	}
	if room == "" || identity == "" {
		return "", fmt.Errorf("room and identity are required")
	}

	allow := true
	now := r.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    r.cfg.APIKey,
			Subject:   identity,
			ID:        identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(r.cfg.TokenTTL)),
		},
		Name: identity,
		Video: &VideoGrant{
			RoomJoin:       true,
			Room:           room,
			CanPublish:     &allow,
			CanSubscribe:   &allow,
			CanPublishData: &allow,
		},
	}
	if len(metadata) > 0 {
		data, err := json.Marshal(metadata)
		if err != nil {
			return "", fmt.Errorf("encode metadata: %w", err)
		}
		claims.Metadata = string(data)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(r.cfg.APISecret))
	if err != nil {
		return "", fmt.Errorf("sign room token: %w", err)
	}
	return token, nil
}

// CreateSession opens a room for a scenario. An empty userID gets a demo
// identity.
func (r *Rooms) CreateSession(scenarioID, userID string) (Session, error) {
	if userID == "" {
		userID = "demo_user_" + shortID()
	}
	room := r.RoomName(scenarioID, userID)
	token, err := r.Token(room, "user_"+userID, map[string]any{
		"role":            "user",
		"user_id":         userID,
		"simulation_type": scenarioID,
		"demo":            true,
	})
	if err != nil {
		return Session{}, err
	}
	r.log.Info("voice room created", "room", room, "user_id", userID)
	return Session{RoomName: room, AccessToken: token, URL: r.cfg.URL, UserID: userID, DemoMode: true}, nil
}

// Demo issues a token for a fresh demo room and identity.
func (r *Rooms) Demo() (DemoToken, error) {
	userID := "demo_" + shortID()
	room := "demo_room_" + shortID()
	token, err := r.Token(room, "demo_user_"+userID, map[string]any{"role": "demo", "user_id": userID})
	if err != nil {
		return DemoToken{}, err
	}
	return DemoToken{Token: token, RoomName: room, UserID: userID, URL: r.cfg.URL}, nil
}

func shortID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
