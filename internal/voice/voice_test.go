package voice

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testConfig = Config{APIKey: "APIkey", APISecret: "a-secret-long-enough-for-hs256", URL: "wss://voice.example"}

func parse(t *testing.T, token string) *Claims {
	t.Helper()
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(tok *jwt.Token) (any, error) {
		return []byte(testConfig.APISecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	require.NoError(t, err)
	require.True(t, parsed.Valid)
	return claims
}

func TestRoomName(t *testing.T) {
	r := NewRooms(testConfig, nil)
	r.now = func() time.Time { return time.Unix(1760000000, 0) }
	assert.Equal(t, "auto_driver_sim_u1_1760000000", r.RoomName("auto_driver_sim", "u1"))
}

func TestCreateSessionToken(t *testing.T) {
	r := NewRooms(testConfig, nil)
	sess, err := r.CreateSession("auto_driver_sim", "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.RoomName, "auto_driver_sim_u1_"))
	assert.Equal(t, "wss://voice.example", sess.URL)
	assert.True(t, sess.DemoMode)

	c := parse(t, sess.AccessToken)
	assert.Equal(t, "APIkey", c.Issuer)
	assert.Equal(t, "user_u1", c.Subject)
	assert.Equal(t, "user_u1", c.Name)
	require.NotNil(t, c.Video)
	assert.True(t, c.Video.RoomJoin)
	assert.Equal(t, sess.RoomName, c.Video.Room)
	assert.True(t, *c.Video.CanPublish)
	assert.True(t, *c.Video.CanSubscribe)
	assert.True(t, *c.Video.CanPublishData)

	ttl := c.ExpiresAt.Sub(c.NotBefore.Time)
	assert.Equal(t, time.Hour, ttl)

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(c.Metadata), &meta))
	assert.Equal(t, "user", meta["role"])
	assert.Equal(t, "u1", meta["user_id"])
	assert.Equal(t, "auto_driver_sim", meta["simulation_type"])
}

func TestCreateSessionDemoIdentity(t *testing.T) {
	r := NewRooms(testConfig, nil)
	sess, err := r.CreateSession("road_rage_sim", "")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(sess.UserID, "demo_user_"))
	assert.Len(t, sess.UserID, len("demo_user_")+8)
}

func TestDemoToken(t *testing.T) {
	r := NewRooms(testConfig, nil)
	d, err := r.Demo()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(d.RoomName, "demo_room_"))

	c := parse(t, d.Token)
	assert.Equal(t, "demo_user_"+d.UserID, c.Subject)
	assert.Equal(t, d.RoomName, c.Video.Room)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	r := NewRooms(testConfig, nil)
	tok, err := r.Token("room", "someone", nil)
	require.NoError(t, err)

	_, err = jwt.ParseWithClaims(tok, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte("other"), nil
	})
	assert.ErrorIs(t, err, jwt.ErrSignatureInvalid)
}

func TestNotConfigured(t *testing.T) {
	r := NewRooms(Config{URL: "wss://x"}, nil)
	assert.False(t, r.Enabled())
	_, err := r.CreateSession("auto_driver_sim", "u1")
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = r.Demo()
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("KALIKE_LIVEKIT_API_KEY", "")
	t.Setenv("LIVEKIT_API_KEY", "fallback-key")
	t.Setenv("KALIKE_LIVEKIT_API_SECRET", "s")
	t.Setenv("KALIKE_LIVEKIT_URL", "wss://lk")
	t.Setenv("KALIKE_LIVEKIT_TOKEN_TTL", "30m")

	cfg := ConfigFromEnv()
	assert.Equal(t, "fallback-key", cfg.APIKey)
	assert.Equal(t, "s", cfg.APISecret)
	assert.Equal(t, "wss://lk", cfg.URL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.True(t, cfg.Enabled())
}
