package auth

import "github.com/golang-jwt/jwt/v5"

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID   uint
	Username string
	Role     string
	JTI      string
}

// AccessTokenClaims represents the typed JWT issued to clients. The subject
// is the username; perfil and role carry the same value for clients that read
// either claim.
type AccessTokenClaims struct {
	UserID uint   `json:"userId"`
	Perfil string `json:"perfil"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Username returns the subject claim.
func (c *AccessTokenClaims) Username() string {
	if c == nil {
		return ""
	}
	return c.Subject
}
