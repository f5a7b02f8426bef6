package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-backend/pkg/common/config"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrEmptySecret  = errors.New("signing secret is not set")
)

// UserInfo is the nested subject block carried by access tokens. Clients
// depend on the exact field casing.
type UserInfo struct {
	Username string `json:"username"`
}

type AccessClaims struct {
	UserInfo UserInfo `json:"UserInfo"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Issuer signs access and refresh tokens with distinct secrets. Validity is
// decided solely by signature and expiry; there is no revocation list.
type Issuer struct {
	accessSecret   []byte
	refreshSecret  []byte
	accessExpires  time.Duration
	refreshExpires time.Duration
	issuer         string
}

func NewIssuer(cfg config.JWTAuthConfig) (*Issuer, error) {
	if cfg.Access.Secret == "" || cfg.Refresh.Secret == "" {
		return nil, ErrEmptySecret
	}
	return &Issuer{
		accessSecret:   []byte(cfg.Access.Secret),
		refreshSecret:  []byte(cfg.Refresh.Secret),
		accessExpires:  cfg.Access.ExpireDuration,
		refreshExpires: cfg.Refresh.ExpireDuration,
		issuer:         cfg.Issuer,
	}, nil
}

// IssueAccessToken signs a short-lived token carrying the username subject.
func (i *Issuer) IssueAccessToken(username string) (string, error) {
	now := time.Now()
	claims := AccessClaims{
		UserInfo: UserInfo{Username: username},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.accessExpires)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
}

// IssueRefreshToken signs a longer-lived token with the refresh secret.
func (i *Issuer) IssueRefreshToken(username string) (string, error) {
	now := time.Now()
	claims := RefreshClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.refreshExpires)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
}

// ParseAccessToken validates signature and expiry and returns the claims.
func (i *Issuer) ParseAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.accessSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// ParseRefreshToken validates a presented refresh token and returns its
// username claim.
func (i *Issuer) ParseRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.refreshSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
