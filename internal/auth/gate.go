// Package auth implements the admin session gate: a shared password check,
// a signed credential with a fixed lifetime, and its cookie transport.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/MyTechPlan/oc-client/internal/config"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// SessionTTL is the lifetime of every issued credential.
const SessionTTL = 24 * time.Hour

// Claims is the credential payload.
type Claims struct {
	Admin bool `json:"admin"`
	jwt.RegisteredClaims
}

// Gate issues and verifies session credentials. Credentials are not stored;
// one stays valid until it expires.
type Gate struct {
	secret []byte
	now    func() time.Time
}

// Option configures a Gate.
type Option func(*Gate)

// WithClock overrides the time source used for issuing and expiry checks.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		g.now = now
	}
}

// NewGate creates a Gate that signs with secret.
func NewGate(secret []byte, opts ...Option) (*Gate, error) {
	if len(secret) == 0 {
		return nil, errors.New("auth: signing secret is empty")
	}
	g := &Gate{
		secret: append([]byte(nil), secret...),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// NewGateFromConfig creates a Gate from cfg. Without a configured secret a
// random one is generated, so sessions end when the process restarts.
func NewGateFromConfig(cfg config.AuthConfig, logger *zap.Logger, opts ...Option) (*Gate, error) {
	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("auth: generating signing secret: %w", err)
		}
		logger.Warn("no jwt_secret configured, using a random secret; sessions will not survive a restart")
	}
	return NewGate(secret, opts...)
}

// Issue signs a new admin credential. Callers check the password first.
func (g *Gate) Issue() (string, time.Time, error) {
	now := g.now()
	expires := now.Add(SessionTTL)

	claims := Claims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(g.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: signing credential: %w", err)
	}
	return token, expires, nil
}

// Verify reports whether token is a valid, unexpired admin credential signed
// by this gate. Any failure is false.
func (g *Gate) Verify(token string) bool {
	if token == "" {
		return false
	}

	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return g.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(g.now),
	)
	if err != nil || !parsed.Valid {
		return false
	}
	return claims.Admin
}
