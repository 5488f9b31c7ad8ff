// Package operatorauth issues and validates the bearer tokens operators use
// to call the API. The token carries the operator's on-ledger address; role
// checks (owner, agent, issuer) stay in the domain services against that
// address.
package operatorauth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"aurum/pkg/domain"
	derrors "aurum/pkg/platform/errs"
)

// Claims are the JWT claims on operator access tokens.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey, issuer, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// GenerateToken mints an operator access token for the given address.
func (s *JWTService) GenerateToken(address domain.Address, expiresIn time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: address.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// ValidateToken parses the token and returns the operator address.
func (s *JWTService) ValidateToken(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Address{}, derrors.New(derrors.CodeUnauthorized, "token has expired")
		}
		return domain.Address{}, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return domain.Address{}, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.Address{}, derrors.New(derrors.CodeUnauthorized, "invalid token claims")
	}
	addr, err := domain.ParseAddress(claims.Address)
	if err != nil {
		return domain.Address{}, derrors.New(derrors.CodeUnauthorized, "invalid operator address in token")
	}
	return addr, nil
}
