// Package token validates and mints the bearer tokens operator terminals
// present. Minting is only used by the tokengen tool and tests; production
// tokens come from the external auth service sharing the signing key.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"induct/pkg/platform/middleware/auth"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT claim set for operator tokens. The subject is the
// operator identifier assigned by the external auth service.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Service validates HS256-signed operator tokens.
type Service struct {
	signingKey []byte
}

func NewService(signingKey string) *Service {
	return &Service{signingKey: []byte(signingKey)}
}

// ValidateToken parses and verifies a token, returning the operator claims.
func (s *Service) ValidateToken(tokenString string) (*auth.Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.signingKey, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	return &auth.Claims{
		OperatorID: claims.Subject,
		Role:       claims.Role,
	}, nil
}

// Generate mints a token for the given operator. Used by tokengen and tests.
func (s *Service) Generate(operatorID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   operatorID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	})
	return token.SignedString(s.signingKey)
}
