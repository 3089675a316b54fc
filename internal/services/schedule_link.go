package services

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ScheduleLinkSigner issues the signed, time-limited booking links embedded
// in reminder emails. The booking page itself lives outside this subsystem;
// Verify is what it uses to resolve a token back to a serial number.
type ScheduleLinkSigner struct {
	secret  []byte
	baseURL string
	ttl     time.Duration
}

// NewScheduleLinkSigner returns a signer issuing links valid for ttl
func NewScheduleLinkSigner(secret, baseURL string, ttl time.Duration) *ScheduleLinkSigner {
	return &ScheduleLinkSigner{secret: []byte(secret), baseURL: baseURL, ttl: ttl}
}

// SignedURL builds a scheduling link for the given unit
func (s *ScheduleLinkSigner) SignedURL(serial string) (string, error) {
	claims := jwt.MapClaims{
		"sub": serial,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(s.ttl).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign schedule link for %s: %w", serial, err)
	}
	return fmt.Sprintf("%s/schedule?token=%s", s.baseURL, url.QueryEscape(token)), nil
}

// Verify resolves a scheduling token back to the unit serial it was issued
// for, rejecting expired or tampered tokens
func (s *ScheduleLinkSigner) Verify(tokenStr string) (string, error) {
	t, err := jwt.Parse(tokenStr, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	})
	if err != nil || !t.Valid {
		return "", errors.New("invalid schedule token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}
	serial, ok := claims["sub"].(string)
	if !ok || serial == "" {
		return "", errors.New("missing serial claim")
	}
	return serial, nil
}
