package api

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	pooltypes "github.com/ciro-network/ciro/x/workerpool/types"
)

const tokenIssuer = "ciro-poold"

// AuthService issues and validates caller tokens.
type AuthService struct {
	jwtSecret []byte
	ttl       time.Duration
	now       func() time.Time
}

// Claims carries the principal the bearer acts as.
type Claims struct {
	Principal string `json:"principal"`
	jwt.RegisteredClaims
}

// NewAuthService creates an AuthService; a zero ttl means 24 hours.
func NewAuthService(jwtSecret []byte, ttl time.Duration) *AuthService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &AuthService{
		jwtSecret: jwtSecret,
		ttl:       ttl,
		now:       time.Now,
	}
}

// GenerateToken signs a token that lets the bearer act as principal.
func (as *AuthService) GenerateToken(principal string) (string, error) {
	if err := pooltypes.ValidatePrincipal(principal); err != nil {
		return "", err
	}
	now := as.now()

	claims := &Claims{
		Principal: principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			ExpiresAt: jwt.NewNumericDate(now.Add(as.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(as.jwtSecret)
}

// ValidateToken validates a JWT token and returns its claims
func (as *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return as.jwtSecret, nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithTimeFunc(as.now))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Principal == "" {
		return nil, errors.New("token carries no principal")
	}

	return claims, nil
}
