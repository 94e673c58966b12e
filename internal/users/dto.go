package users

import (
	"time"

	"github.com/clinica-salud/pacientes-api/pkg/db/models"
)

// UserDTO is the transport shape that omits credentials and pending codes.
type UserDTO struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Verified  bool      `json:"verificado"`
	Profile   string    `json:"perfil"`
	CreatedAt time.Time `json:"creadoEn"`
}

// RegisterRequest is the body of POST /api/usuarios/registrar.
type RegisterRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Email    string `json:"email,omitempty" validate:"omitempty,email"`
}

// RegisterResult carries the code the user must echo back to verify.
type RegisterResult struct {
	Username         string `json:"username"`
	VerificationCode string `json:"codigoVerificacion"`
}

type VerifyRequest struct {
	Username string `json:"username" validate:"required"`
	Code     string `json:"codigo" validate:"required"`
}

type ResetRequest struct {
	Username string `json:"username" validate:"required"`
}

type ResetCodeResponse struct {
	Code string `json:"codigo"`
}

type CompleteResetRequest struct {
	Username    string `json:"username" validate:"required"`
	Code        string `json:"codigo" validate:"required"`
	NewPassword string `json:"nuevaContrasena" validate:"required"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Verified:  u.Verified,
		Profile:   u.Profile,
		CreatedAt: u.CreatedAt,
	}
}
