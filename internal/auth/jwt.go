package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const sessionKey contextKey = "session"

// SessionCookie carries the token for browser flows (OAuth callback).
const SessionCookie = "wedding_session"

const tokenTTL = 24 * time.Hour * 7

var (
	ErrNoToken      = errors.New("token is not set")
	ErrInvalidToken = errors.New("invalid token")
)

// Session is the authenticated caller.
type Session struct {
	UserID string
	Email  string
}

type claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Tokens issues and validates HS256 session tokens.
type Tokens struct {
	secret []byte
	now    func() time.Time
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret), now: time.Now}
}

func (t *Tokens) Generate(userID, email string) (string, error) {
	now := t.now()
	c := claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(t.secret)
}

func (t *Tokens) Parse(tokenString string) (*Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if c.Subject == "" {
		return nil, ErrInvalidToken
	}

	return &Session{UserID: c.Subject, Email: c.Email}, nil
}

// tokenFromRequest reads the Authorization header, then the session cookie,
// then the access_token query parameter used by websocket clients.
func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		return strings.TrimPrefix(h, "Bearer ")
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	return r.URL.Query().Get("access_token")
}

// Validate extracts and checks the request's token.
func (t *Tokens) Validate(r *http.Request) (*Session, error) {
	tokenString := tokenFromRequest(r)
	if tokenString == "" {
		return nil, ErrNoToken
	}
	return t.Parse(tokenString)
}

func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the caller's session, or nil for anonymous requests.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey).(*Session)
	return s
}

// UserID returns the caller's id, or "" for anonymous requests.
func UserID(ctx context.Context) string {
	if s := FromContext(ctx); s != nil {
		return s.UserID
	}
	return ""
}

// SetSessionCookie stores token for browser clients.
func SetSessionCookie(w http.ResponseWriter, token string, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(tokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}
