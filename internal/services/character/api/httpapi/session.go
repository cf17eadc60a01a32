package httpapi

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// SessionCookieName carries the signed session token.
	SessionCookieName = "swn_session"

	sessionIssuer = "swnsheet-character"
	sessionTTL    = 30 * 24 * time.Hour
)

// Sessions issues and verifies HS256 session cookies whose subject is the
// session id characters are stored under.
type Sessions struct {
	secret []byte
	secure bool
	now    func() time.Time
}

// NewSessions builds a session codec. secure marks cookies HTTPS-only.
func NewSessions(secret string, secure bool) (*Sessions, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("session secret is required")
	}
	return &Sessions{secret: []byte(secret), secure: secure, now: time.Now}, nil
}

// Resolve returns the session id for r. Missing, expired, or tampered
// cookies start a new session and set a fresh cookie on w.
func (s *Sessions) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	if cookie, err := r.Cookie(SessionCookieName); err == nil {
		sessionID, err := s.verify(cookie.Value)
		if err == nil {
			return sessionID, nil
		}
		log.Printf("session cookie rejected: %v", err)
	}

	sessionID := uuid.NewString()
	token, err := s.sign(sessionID)
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return sessionID, nil
}

func (s *Sessions) sign(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Issuer:    sessionIssuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(sessionTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign session: %w", err)
	}
	return token, nil
}

func (s *Sessions) verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("parse session: %w", err)
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return "", fmt.Errorf("session subject: %w", err)
	}
	return claims.Subject, nil
}
