package auth

import (
	"time"

	"github.com/clinica-salud/pacientes-api/internal/users"
)

// LoginRequest captures the credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the bearer token and the authenticated user.
type LoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiraEn"`
	User      *users.UserDTO `json:"usuario"`
}
