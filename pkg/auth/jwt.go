package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken is returned when token is invalid
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when token is expired
	ErrExpiredToken = errors.New("token expired")
	// ErrMissingClaims is returned when required claims are missing
	ErrMissingClaims = errors.New("missing required claims")
	// ErrRevokedToken is returned for tokens revoked by logout
	ErrRevokedToken = errors.New("token revoked")
)

// Identity is what a token asserts about its bearer
type Identity struct {
	UserID   uuid.UUID
	Username string
	Staff    bool
}

// Claims represents JWT claims. RegisteredClaims.ID carries a unique token
// id used by the logout denylist.
type Claims struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	Staff    bool      `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 access tokens
type Issuer struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
	now       func() time.Time
}

// NewIssuer creates a token issuer
func NewIssuer(secretKey string, issuer string, ttl time.Duration) *Issuer {
	return &Issuer{
		secretKey: []byte(secretKey),
		issuer:    issuer,
		ttl:       ttl,
		now:       time.Now,
	}
}

// TTL is the lifetime of issued tokens
func (s *Issuer) TTL() time.Duration {
	return s.ttl
}

// Issue signs a new token for id
func (s *Issuer) Issue(id Identity) (string, *Claims, error) {
	if id.UserID == uuid.Nil {
		return "", nil, ErrMissingClaims
	}

	now := s.now()
	claims := &Claims{
		UserID:   id.UserID,
		Username: id.Username,
		Staff:    id.Staff,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.issuer,
			Subject:   id.UserID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
	if err != nil {
		return "", nil, err
	}
	return token, claims, nil
}

// Parse verifies the signature and expiry of a token and returns its claims
func (s *Issuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.UserID == uuid.Nil || claims.ID == "" {
		return nil, ErrMissingClaims
	}
	return claims, nil
}

// Identity returns the bearer described by the claims
func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, Username: c.Username, Staff: c.Staff}
}

// Expiry returns the expiration time, or the zero time when unset
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
