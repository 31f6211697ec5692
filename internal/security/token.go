package security

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"rentstock-backend/internal/domain"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrExpiredToken   = errors.New("token has expired")
	ErrWrongTokenType = errors.New("wrong token type for this endpoint")
)

type TokenType string

const (
	TokenTypeAccess TokenType = "access"
)

// Operator roles carried in access tokens
const (
	RoleOperator   = "operator"
	RolePrivileged = "privileged"
)

// OperatorClaims defines the claims of an operator access token
type OperatorClaims struct {
	OperatorID int32     `json:"operator_id"`
	Name       string    `json:"name,omitempty"`
	Type       TokenType `json:"type"`
	Roles      []string  `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token grants role
func (c *OperatorClaims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// IsOperator reports whether the token may use operator endpoints at all
func (c *OperatorClaims) IsOperator() bool {
	return c.HasRole(RoleOperator) || c.HasRole(RolePrivileged)
}

// ParseBearer extracts the token of an "Authorization: Bearer <token>" value.
// The scheme is matched case-insensitively.
func ParseBearer(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	return strings.TrimSpace(header[len(prefix):]), true
}

// Actor is the operator identity used for audit and override decisions
func (c *OperatorClaims) Actor() domain.Actor {
	name := c.Name
	if name == "" {
		name = c.Subject
	}
	return domain.Actor{Name: name, Privileged: c.HasRole(RolePrivileged)}
}

type TokenManager interface {
	GenerateAccessToken(operatorID int32, name string, roles []string) (string, error)
	ValidateToken(tokenString string) (*OperatorClaims, error)
}

type tokenManager struct {
	secret []byte
	expiry time.Duration
}

func NewTokenManager(secret string, expiry time.Duration) TokenManager {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &tokenManager{
		secret: []byte(secret),
		expiry: expiry,
	}
}

func (m *tokenManager) GenerateAccessToken(operatorID int32, name string, roles []string) (string, error) {
	now := time.Now()
	claims := OperatorClaims{
		OperatorID: operatorID,
		Name:       name,
		Type:       TokenTypeAccess,
		Roles:      roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(int(operatorID)),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "rentstock",
			Audience:  jwt.ClaimStrings{"operator-api"},
			ID:        uuid.NewString(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

func (m *tokenManager) ValidateToken(tokenString string) (*OperatorClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &OperatorClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithAudience("operator-api"))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*OperatorClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}
	if claims.OperatorID == 0 && claims.Subject != "" {
		id, _ := strconv.Atoi(claims.Subject)
		claims.OperatorID = int32(id)
	}
	return claims, nil
}
