// apps/go-server/internal/auth/token.go
//
// Token + cookie handling for player accounts.
// Responsibilities:
//   - HS256 JWT sign/parse with id + username claims.
//   - Extract a token from "Authorization: Bearer" or the auth cookie.
//   - Set/clear the auth cookie and the anonymous guest cookie.
//   - Carry the authenticated user through request contexts.

package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for malformed, expired or incomplete tokens.
var ErrInvalidToken = errors.New("invalid token")

const (
	DefaultCookieName = "roulette_token"
	AnonCookieName    = "roulette_anon"
)

// Principal is placed into the request context by auth middleware.
type Principal struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Issuer signs and verifies tokens and owns cookie settings.
type Issuer struct {
	Secret     []byte
	TTL        time.Duration
	CookieName string
	Secure     bool // production: Secure + SameSite=None
}

// Sign creates an HS256 JWT for the user, returning the token and its expiry.
func (i *Issuer) Sign(id, username string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(i.TTL)
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":       id,
		"username": username,
		"exp":      exp.Unix(),
		"iat":      now.Unix(),
	})
	ss, err := t.SignedString(i.Secret)
	return ss, exp, err
}

// Parse verifies tok and returns its principal.
func (i *Issuer) Parse(tok string) (*Principal, error) {
	claims := jwt.MapClaims{}
	t, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (interface{}, error) {
		return i.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return nil, ErrInvalidToken
	}
	id, _ := claims["id"].(string)
	username, _ := claims["username"].(string)
	if id == "" || username == "" {
		return nil, ErrInvalidToken
	}
	return &Principal{ID: id, Username: username}, nil
}

// TokenFromRequest extracts a bearer token from the Authorization header or
// the auth cookie.
func (i *Issuer) TokenFromRequest(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(i.cookieName()); err == nil {
		return c.Value
	}
	return ""
}

// SetCookie writes the auth token cookie.
func (i *Issuer) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	c := i.baseCookie(i.cookieName())
	c.Value = token
	c.Expires = exp
	http.SetCookie(w, c)
}

// ClearCookie deletes the auth token cookie.
func (i *Issuer) ClearCookie(w http.ResponseWriter) {
	c := i.baseCookie(i.cookieName())
	c.MaxAge = -1
	http.SetCookie(w, c)
}

// EnsureAnonID returns the guest cookie value, setting a new one if absent.
func (i *Issuer) EnsureAnonID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(AnonCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	id := GenID()
	c := i.baseCookie(AnonCookieName)
	c.Value = id
	c.Expires = time.Now().Add(180 * 24 * time.Hour)
	http.SetCookie(w, c)
	return id
}

func (i *Issuer) cookieName() string {
	if i.CookieName == "" {
		return DefaultCookieName
	}
	return i.CookieName
}

func (i *Issuer) baseCookie(name string) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if i.Secure {
		sameSite = http.SameSiteNoneMode // required for third-party contexts when Secure
	}
	return &http.Cookie{
		Name:     name,
		Path:     "/",
		HttpOnly: true,
		Secure:   i.Secure,
		SameSite: sameSite,
	}
}

// GenID creates a 22-char URL-safe, crypto-random identifier (no padding).
func GenID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return base64.RawURLEncoding.EncodeToString(b[:])
}

type ctxKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// FromContext returns the authenticated principal or nil for guests.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(ctxKey{}).(*Principal)
	return p
}
