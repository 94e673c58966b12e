package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/clinica-salud/pacientes-api/internal/users"
	pkgAuth "github.com/clinica-salud/pacientes-api/pkg/auth"
	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/metrics"
)

// Service defines the behavior needed by the login controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*models.User, error)
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users     authenticator
	JWTConfig config.JWTConfig
	Metrics   *metrics.AuthMetrics
	Now       func() time.Time
}

type service struct {
	users   authenticator
	jwtCfg  config.JWTConfig
	metrics *metrics.AuthMetrics
	now     func() time.Time
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user directory is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		users:   params.Users,
		jwtCfg:  params.JWTConfig,
		metrics: params.Metrics,
		now:     now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (resp *LoginResponse, err error) {
	defer func() { s.metrics.Record("login", err) }()

	user, err := s.users.Authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Profile,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(s.jwtCfg.TTL()),
		User:      users.FromModel(user),
	}, nil
}
