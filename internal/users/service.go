package users

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/clinica-salud/pacientes-api/pkg/metrics"
	"github.com/clinica-salud/pacientes-api/pkg/security"
	"gorm.io/gorm"
)

const defaultProfile = "medico"

// Service owns the user directory: registration, verification, password
// resets, credential checks and admin maintenance.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error)
	Verify(ctx context.Context, username, code string) error
	RequestPasswordReset(ctx context.Context, username string) (string, error)
	CompletePasswordReset(ctx context.Context, req CompleteResetRequest) error
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
	List(ctx context.Context) ([]UserDTO, error)
	Delete(ctx context.Context, id uint) error
}

// ServiceParams packages the dependencies for the user directory.
type ServiceParams struct {
	DB             *db.Client
	PasswordConfig config.PasswordConfig
	UsersConfig    config.UsersConfig
	Logger         *logger.Logger
	Metrics        *metrics.AuthMetrics
}

type service struct {
	db          *db.Client
	repo        *Repository
	passwordCfg config.PasswordConfig
	usersCfg    config.UsersConfig
	logg        *logger.Logger
	metrics     *metrics.AuthMetrics
}

// NewService builds the user directory with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "database client required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		db:          params.DB,
		repo:        NewRepository(params.DB.DB()),
		passwordCfg: params.PasswordConfig,
		usersCfg:    params.UsersConfig,
		logg:        logg,
		metrics:     params.Metrics,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (result *RegisterResult, err error) {
	defer func() { s.metrics.Record("register", err) }()

	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "username and password are required")
	}

	if _, err := s.repo.FindByUsername(ctx, username); err == nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrDuplicateUsername, "username already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check username")
	}

	passwordHash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	code, err := security.GenerateVerificationCode()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate verification code")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		email = s.usersCfg.PlaceholderEmail
		s.logg.Warn(s.logg.WithUsername(ctx, username), "registration without email, storing placeholder address")
	}

	user := &models.User{
		Username:         username,
		Email:            email,
		Verified:         false,
		Profile:          s.profile(),
		PasswordHash:     passwordHash,
		VerificationCode: &code,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, ErrDuplicateUsername, "username already registered")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return &RegisterResult{Username: user.Username, VerificationCode: code}, nil
}

func (s *service) Verify(ctx context.Context, username, code string) (err error) {
	defer func() { s.metrics.Record("verify", err) }()

	username = strings.TrimSpace(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "username and code are required")
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.Verified {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrAlreadyVerified, "user already verified")
	}
	if !security.CodesMatch(user.VerificationCode, code) {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrCodeMismatch, "verification code does not match")
	}

	if err := s.repo.MarkVerified(ctx, user.ID); err != nil {
		return mapNotFound(err, "mark user verified")
	}
	return nil
}

func (s *service) RequestPasswordReset(ctx context.Context, username string) (code string, err error) {
	defer func() { s.metrics.Record("reset_request", err) }()

	username = strings.TrimSpace(username)
	if username == "" {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "username is required")
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return "", err
	}

	code, err = security.GenerateVerificationCode()
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate reset code")
	}
	if err := s.repo.SetVerificationCode(ctx, user.ID, code); err != nil {
		return "", mapNotFound(err, "store reset code")
	}
	return code, nil
}

func (s *service) CompletePasswordReset(ctx context.Context, req CompleteResetRequest) (err error) {
	defer func() { s.metrics.Record("reset_complete", err) }()

	username := strings.TrimSpace(req.Username)
	code := strings.TrimSpace(req.Code)
	if username == "" || code == "" || req.NewPassword == "" {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "username, code and new password are required")
	}
	if utf8.RuneCountInString(req.NewPassword) < s.minPasswordLength() {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "new password is too short").
			WithDetails(map[string]any{"nuevaContrasena": "too short"})
	}

	passwordHash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	if err := s.repo.ResetPassword(ctx, username, code, passwordHash); err != nil {
		return mapNotFound(err, "reset password")
	}
	return nil
}

func (s *service) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, ErrInvalidInput, "username and password are required")
	}

	user, err := s.findByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.Verified {
		return nil, pkgerrors.Wrap(pkgerrors.CodeForbidden, ErrNotVerified, "user not verified")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, ErrBadCredential, "invalid credentials")
	}

	if security.NeedsRehash(user.PasswordHash, s.passwordCfg) {
		if rehashed, err := security.HashPassword(password, s.passwordCfg); err == nil {
			if err := s.repo.UpdatePasswordHash(ctx, user.ID, rehashed); err != nil {
				s.logg.Warn(s.logg.WithUserID(ctx, user.ID), "password rehash not persisted: "+err.Error())
			} else {
				user.PasswordHash = rehashed
			}
		}
	}

	return user, nil
}

func (s *service) List(ctx context.Context) ([]UserDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) Delete(ctx context.Context, id uint) error {
	return s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := NewRepository(tx)

		if _, err := repo.FindByID(ctx, id); err != nil {
			return mapNotFound(err, "load user")
		}

		count, err := repo.CountPatients(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count user patients")
		}
		if count > 0 {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrUserHasPatients, "user still has patients assigned").
				WithDetails(map[string]any{"pacientes": count})
		}

		if err := repo.Delete(ctx, id); err != nil {
			if db.IsForeignKeyViolation(err) {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, ErrUserHasPatients, "user still has patients assigned")
			}
			return mapNotFound(err, "delete user")
		}
		return nil
	})
}

func (s *service) findByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, mapNotFound(err, "load user")
	}
	return user, nil
}

func (s *service) profile() string {
	profile := strings.ToLower(strings.TrimSpace(s.usersCfg.DefaultProfile))
	if profile == "" {
		return defaultProfile
	}
	return profile
}

func (s *service) minPasswordLength() int {
	if s.usersCfg.MinPasswordLength <= 0 {
		return 6
	}
	return s.usersCfg.MinPasswordLength
}

func mapNotFound(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, ErrNotFound, "user not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
