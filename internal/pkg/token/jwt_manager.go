package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Type string

const (
	TypeAccess  Type = "access"
	TypeRefresh Type = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)

type Claims struct {
	UserId    uuid.UUID
	Type      Type
	TokenId   string
	ExpiresAt time.Time
}

// Manager issues and verifies HS256 tokens. The same secret signs both token
// types; the "type" claim keeps them from being used interchangeably.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (m *Manager) IssueAccessToken(userId uuid.UUID) (string, error) {
	signed, _, err := m.issue(userId, TypeAccess, m.accessTTL)
	return signed, err
}

// IssueRefreshToken returns the signed token and its expiry.
func (m *Manager) IssueRefreshToken(userId uuid.UUID) (string, time.Time, error) {
	return m.issue(userId, TypeRefresh, m.refreshTTL)
}

func (m *Manager) issue(userId uuid.UUID, tokenType Type, ttl time.Duration) (string, time.Time, error) {
	now := m.now()
	expiresAt := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":     userId.String(),
		"user_id": userId.String(),
		"type":    string(tokenType),
		"jti":     uuid.NewString(),
		"iat":     now.Unix(),
		"exp":     expiresAt.Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, expiresAt, nil
}

// Parse verifies signature, expiry and type.
func (m *Manager) Parse(raw string, expected Type) (*Claims, error) {
	parsed, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}

	tokenType, _ := claims["type"].(string)
	if Type(tokenType) != expected {
		return nil, ErrWrongTokenType
	}

	rawUserId, _ := claims["user_id"].(string)
	userId, err := uuid.Parse(rawUserId)
	if err != nil {
		return nil, fmt.Errorf("%w: bad user_id claim", ErrInvalidToken)
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, ErrInvalidToken
	}
	jti, _ := claims["jti"].(string)

	return &Claims{
		UserId:    userId,
		Type:      Type(tokenType),
		TokenId:   jti,
		ExpiresAt: exp.Time,
	}, nil
}
