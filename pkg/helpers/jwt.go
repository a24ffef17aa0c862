package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes are fixed. JWT_EXPIRES_IN only changes what is echoed to clients.
const (
	AccessTokenTTL  = 24 * time.Hour
	RefreshTokenTTL = 7 * 24 * time.Hour
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is not defined in environment variables")
	ErrInvalidToken  = errors.New("invalid or expired token")
)

// Claims is the access token payload. Refresh tokens carry UserID only.
type Claims struct {
	UserID string   `json:"userId"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// TokenPair is the result of issuing tokens for one identity.
type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

// JWTManager handles generation and validation of JWT tokens signed with one HMAC secret.
type JWTManager struct {
	secret []byte
	now    func() time.Time
}

// NewJWTManager does not reject an empty secret. Issuing or parsing with one fails with ErrMissingSecret.
func NewJWTManager(secret string) *JWTManager {
	return &JWTManager{secret: []byte(secret), now: time.Now}
}

// WithClock replaces the time source used for iat, exp and expiry checks.
func (m *JWTManager) WithClock(now func() time.Time) *JWTManager {
	m.now = now
	return m
}

// Ready reports ErrMissingSecret when no secret is configured, so callers can fail
// before doing work that a token is needed to complete.
func (m *JWTManager) Ready() error {
	if len(m.secret) == 0 {
		return ErrMissingSecret
	}
	return nil
}

// Issue signs an access token {userId, email, roles} and a refresh token {userId}.
func (m *JWTManager) Issue(userID, email string, roles []string) (TokenPair, error) {
	access, aexp, err := m.GenerateAccessToken(userID, email, roles)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := m.GenerateRefreshToken(userID)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (m *JWTManager) GenerateAccessToken(userID, email string, roles []string) (string, time.Time, error) {
	return m.sign(&Claims{UserID: userID, Email: email, Roles: roles}, AccessTokenTTL)
}

func (m *JWTManager) GenerateRefreshToken(userID string) (string, time.Time, error) {
	return m.sign(&Claims{UserID: userID}, RefreshTokenTTL)
}

func (m *JWTManager) sign(claims *Claims, ttl time.Duration) (string, time.Time, error) {
	if err := m.Ready(); err != nil {
		return "", time.Time{}, err
	}
	now := m.now()
	exp := now.Add(ttl)
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
		IssuedAt:  jwt.NewNumericDate(now),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return s, exp, nil
}

// ParseAccessToken verifies signature and expiry and requires the full access payload.
func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Email == "" {
		return nil, fmt.Errorf("%w: not an access token", ErrInvalidToken)
	}
	return claims, nil
}

// ParseRefreshToken verifies signature and expiry and rejects tokens carrying an access payload.
func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.Email != "" || len(claims.Roles) > 0 {
		return nil, fmt.Errorf("%w: not a refresh token", ErrInvalidToken)
	}
	return claims, nil
}

func (m *JWTManager) parse(tokenStr string) (*Claims, error) {
	if err := m.Ready(); err != nil {
		return nil, err
	}
	claims := &Claims{}
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
