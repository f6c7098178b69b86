package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	userdomain "github.com/mpsp-digital/jurist-prompts-hub/internal/domain/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	claimRole    = "role"
	claimIsAdmin = "is_admin"
)

// Claims are the identity facts the API trusts after signature verification.
type Claims struct {
	UserID    uint
	Name      string
	Role      string
	IsAdmin   bool
	ExpiresAt time.Time
}

// JWTManager signs and verifies HS256 access tokens.
type JWTManager struct {
	secret    string
	accessTTL time.Duration
}

// NewJWTManager builds a manager with the signing secret and token lifetime.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: secret, accessTTL: accessTTL}
}

// GenerateAccessToken issues a signed token carrying the user's id and role.
func (m *JWTManager) GenerateAccessToken(u *userdomain.User) (string, time.Time, error) {
	if u == nil {
		return "", time.Time{}, errors.New("user is nil")
	}

	ttl := m.accessTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	expiresAt := time.Now().Add(ttl)

	claims := jwt.MapClaims{
		"sub":        fmt.Sprintf("%d", u.ID),
		"name":       u.Name,
		"exp":        expiresAt.Unix(),
		"jti":        uuid.NewString(),
		claimRole:    u.Role,
		claimIsAdmin: u.IsApprover(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(m.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseAccessToken verifies the signature and extracts the identity claims.
func (m *JWTManager) ParseAccessToken(raw string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(raw, mapClaims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrInvalidKeyType
		}
		return []byte(m.secret), nil
	})
	if err != nil {
		return Claims{}, err
	}
	if !parsed.Valid {
		return Claims{}, errors.New("token invalid")
	}

	return ClaimsFromMap(mapClaims)
}

// ClaimsFromMap extracts identity facts out of verified map claims. The
// subject arrives as a string but tolerates numeric encodings.
func ClaimsFromMap(mapClaims jwt.MapClaims) (Claims, error) {
	var subRaw string
	switch v := mapClaims["sub"].(type) {
	case string:
		subRaw = v
	case float64:
		if v < 0 {
			return Claims{}, errors.New("invalid subject")
		}
		subRaw = fmt.Sprintf("%.0f", v)
	default:
		return Claims{}, errors.New("missing subject")
	}

	id64, err := strconv.ParseUint(subRaw, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("parse subject: %w", err)
	}

	claims := Claims{UserID: uint(id64)}
	if name, ok := mapClaims["name"].(string); ok {
		claims.Name = name
	}
	if role, ok := mapClaims[claimRole].(string); ok {
		claims.Role = role
	}
	if admin, ok := mapClaims[claimIsAdmin].(bool); ok {
		claims.IsAdmin = admin
	}
	if exp, ok := mapClaims["exp"].(float64); ok {
		claims.ExpiresAt = time.Unix(int64(exp), 0)
	}

	return claims, nil
}
