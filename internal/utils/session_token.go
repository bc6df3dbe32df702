// Package utils provides helpers for session token creation and password
// hashing.
package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned by ParseSessionToken for any token that does
// not verify.
var ErrInvalidToken = errors.New("invalid session token")

// SessionToken is a signed HS256 JWT handed to the browser (cookie) or an
// API client (Bearer header). SID is the random session id embedded in the
// token; only its SHA-256 hash is stored server side.
type SessionToken struct {
	Token string
	SID   string
	Exp   time.Time
}

// SessionClaims are the verified contents of a session token.
type SessionClaims struct {
	UserID uint64
	Role   string
	SID    string
	Exp    time.Time
}

type sessionClaims struct {
	Role string `json:"role"`
	SID  string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionToken builds and signs a session token for a user. The token
// carries sub, role, sid, iat and exp claims.
func NewSessionToken(secret string, userID uint64, role string, ttl time.Duration) (SessionToken, error) {
	sid, err := randomHex(48)
	if err != nil {
		return SessionToken{}, err
	}
	now := time.Now().UTC()
	exp := now.Add(ttl)
	claims := sessionClaims{
		Role: role,
		SID:  sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return SessionToken{}, err
	}
	return SessionToken{Token: signed, SID: sid, Exp: exp}, nil
}

// ParseSessionToken verifies the signature and expiry of raw and returns
// its claims.
func ParseSessionToken(secret, raw string) (*SessionClaims, error) {
	var c sessionClaims
	tok, err := jwt.ParseWithClaims(raw, &c, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	uid, err := strconv.ParseUint(c.Subject, 10, 64)
	if err != nil || uid == 0 || c.SID == "" {
		return nil, ErrInvalidToken
	}
	return &SessionClaims{UserID: uid, Role: c.Role, SID: c.SID, Exp: c.ExpiresAt.Time}, nil
}

// HashToken returns the hex SHA-256 of a raw token. Only this hash is
// persisted.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
