package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrTokenExpired marks a well-formed token past its exp claim.
	ErrTokenExpired = errors.New("access token expired")
	// ErrTokenInvalid covers every other rejection: bad signature, algorithm,
	// issuer, or missing identity claims.
	ErrTokenInvalid = errors.New("access token invalid")
)

var signingMethod = jwt.SigningMethodHS256

// MintAccessToken signs the HS256 access token handed out at login. It is
// valid for cfg.TTL() from now (8h by default).
func MintAccessToken(cfg config.JWTConfig, now time.Time, payload AccessTokenPayload) (string, error) {
	if err := checkSigningConfig(cfg); err != nil {
		return "", err
	}
	if cfg.ExpirationMinutes <= 0 {
		return "", errors.New("jwt expiration minutes must be positive")
	}

	username := strings.TrimSpace(payload.Username)
	role := strings.ToLower(strings.TrimSpace(payload.Role))
	switch {
	case username == "":
		return "", errors.New("username is required")
	case role == "":
		return "", errors.New("role is required")
	}

	jti := strings.TrimSpace(payload.JTI)
	if jti == "" {
		jti = uuid.NewString()
	}

	claims := AccessTokenClaims{
		UserID: payload.UserID,
		Perfil: role,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL())),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(signingMethod, claims).SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken verifies a token and returns its claims. Failures wrap
// ErrTokenExpired or ErrTokenInvalid.
func ParseAccessToken(cfg config.JWTConfig, raw string) (*AccessTokenClaims, error) {
	if err := checkSigningConfig(cfg); err != nil {
		return nil, err
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims,
		func(*jwt.Token) (any, error) { return []byte(cfg.Secret), nil },
		jwt.WithValidMethods([]string{signingMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	)
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, fmt.Errorf("%w: %v", ErrTokenExpired, err)
	case err != nil:
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}

	// role checks need both claims; perfil is accepted for older tokens
	if claims.Role == "" {
		claims.Role = claims.Perfil
	}
	if claims.Subject == "" || claims.Role == "" {
		return nil, fmt.Errorf("%w: identity claims missing", ErrTokenInvalid)
	}
	return claims, nil
}

func checkSigningConfig(cfg config.JWTConfig) error {
	if cfg.Secret == "" {
		return errors.New("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return errors.New("jwt issuer is required")
	}
	return nil
}
