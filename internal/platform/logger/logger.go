// Package logger wraps zap with key/value redaction for request and
// provider logging.
package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a sugared zap logger whose key/value pairs are sanitized
// before they are written.
type Logger struct {
	SugaredLogger *zap.SugaredLogger
	salt          string
	redact        bool
}

// New builds a Logger. Mode "prod" emits JSON at info level; anything
// else emits colored console output at debug level.
func New(mode string) (*Logger, error) {
	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &Logger{
		SugaredLogger: z.Sugar(),
		salt:          strings.TrimSpace(os.Getenv("KALIKE_LOG_HASH_SALT")),
		redact:        redactionFromEnv(),
	}, nil
}

// Nop returns a Logger that discards everything. Used by tests and by
// collaborators constructed without a logger.
func Nop() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), redact: true}
}

func (l *Logger) Sync() {
	_ = l.SugaredLogger.Sync()
}

func (l *Logger) Debug(msg string, kv ...any) { l.SugaredLogger.Debugw(msg, l.sanitize(kv)...) }
func (l *Logger) Info(msg string, kv ...any)  { l.SugaredLogger.Infow(msg, l.sanitize(kv)...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.SugaredLogger.Warnw(msg, l.sanitize(kv)...) }
func (l *Logger) Error(msg string, kv ...any) { l.SugaredLogger.Errorw(msg, l.sanitize(kv)...) }

// With returns a child logger carrying the given fields.
func (l *Logger) With(kv ...any) *Logger {
	return &Logger{
		SugaredLogger: l.SugaredLogger.With(l.sanitize(kv)...),
		salt:          l.salt,
		redact:        l.redact,
	}
}

func (l *Logger) sanitize(kv []any) []any {
	if len(kv) == 0 || !l.redact {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		out = append(out, key, l.sanitizeValue(strings.ToLower(key), kv[i+1]))
	}
	return out
}

func (l *Logger) sanitizeValue(key string, val any) any {
	switch {
	case isSecretKey(key):
		return "[REDACTED]"
	case isIdentityKey(key):
		return l.hash(val)
	}
	if s, ok := val.(string); ok && looksLikeJWT(s) {
		return "[REDACTED]"
	}
	return val
}

func isSecretKey(key string) bool {
	for _, frag := range []string{"token", "secret", "password", "api_key", "apikey", "authorization", "cookie"} {
		if strings.Contains(key, frag) {
			return true
		}
	}
	return false
}

func isIdentityKey(key string) bool {
	return key == "user_id" || key == "session_id" || key == "identity"
}

func (l *Logger) hash(val any) string {
	raw := strings.TrimSpace(fmt.Sprint(val))
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(l.salt + raw))
	return "hash:" + hex.EncodeToString(sum[:])[:12]
}

// looksLikeJWT catches livekit room tokens passed as plain values.
func looksLikeJWT(s string) bool {
	parts := strings.Split(s, ".")
	return len(parts) == 3 && len(parts[0]) > 10 && len(parts[1]) > 10
}

func redactionFromEnv() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("KALIKE_LOG_REDACTION"))) {
	case "0", "false", "no", "off":
		return false
	}
	return true
}
