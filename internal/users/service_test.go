package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/clinica-salud/pacientes-api/pkg/security"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{
		ArgonMemoryKB:    8 * 1024,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	}
}

func newTestClient(t *testing.T) *db.Client {
	t.Helper()
	client, err := db.New(context.Background(), config.DBConfig{
		Driver: "sqlite",
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_")),
	}, nil)
	require.NoError(t, err)
	require.NoError(t, client.DB().AutoMigrate(models.All()...))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()
	client := newTestClient(t)
	svc, err := NewService(ServiceParams{
		DB:             client,
		PasswordConfig: testPasswordConfig(),
		UsersConfig: config.UsersConfig{
			PlaceholderEmail:  "sin-email@clinica.local",
			DefaultProfile:    "medico",
			MinPasswordLength: 6,
		},
		Logger: logger.Nop(),
	})
	require.NoError(t, err)
	return svc, client
}

func assertCode(t *testing.T, err error, code pkgerrors.Code, sentinel error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, pkgerrors.CodeOf(err))
	if sentinel != nil {
		assert.True(t, errors.Is(err, sentinel), "expected %v in chain of %v", sentinel, err)
	}
}

func registerVerified(t *testing.T, svc Service, username, password string) {
	t.Helper()
	res, err := svc.Register(context.Background(), RegisterRequest{Username: username, Password: password})
	require.NoError(t, err)
	require.NoError(t, svc.Verify(context.Background(), username, res.VerificationCode))
}

func TestRegisterCreatesUnverifiedMedico(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Username: "dra.gomez", Password: "secreto1"})
	require.NoError(t, err)
	assert.Equal(t, "dra.gomez", res.Username)
	assert.Len(t, res.VerificationCode, 6)

	user, err := NewRepository(client.DB()).FindByUsername(ctx, "dra.gomez")
	require.NoError(t, err)
	assert.False(t, user.Verified)
	assert.Equal(t, "medico", user.Profile)
	assert.Equal(t, "sin-email@clinica.local", user.Email)
	assert.NotEqual(t, "secreto1", user.PasswordHash)
	require.NotNil(t, user.VerificationCode)
	assert.Equal(t, res.VerificationCode, *user.VerificationCode)
}

func TestRegisterKeepsProvidedEmail(t *testing.T) {
	svc, client := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{Username: "recepcion", Password: "secreto1", Email: "Recepcion@Clinica.com"})
	require.NoError(t, err)

	user, err := NewRepository(client.DB()).FindByUsername(context.Background(), "recepcion")
	require.NoError(t, err)
	assert.Equal(t, "recepcion@clinica.com", user.Email)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterRequest{Username: " ", Password: "x"})
	assertCode(t, err, pkgerrors.CodeValidation, ErrInvalidInput)

	_, err = svc.Register(context.Background(), RegisterRequest{Username: "a"})
	assertCode(t, err, pkgerrors.CodeValidation, ErrInvalidInput)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{Username: "dra.gomez", Password: "secreto1"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, RegisterRequest{Username: "dra.gomez", Password: "otra-clave"})
	assertCode(t, err, pkgerrors.CodeConflict, ErrDuplicateUsername)

	// usernames are case-sensitive
	_, err = svc.Register(ctx, RegisterRequest{Username: "Dra.Gomez", Password: "otra-clave"})
	assert.NoError(t, err)

	// surrounding whitespace is not part of the username
	_, err = svc.Register(ctx, RegisterRequest{Username: "  dra.gomez\t", Password: "otra-clave"})
	assertCode(t, err, pkgerrors.CodeConflict, ErrDuplicateUsername)
}

func TestVerify(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Username: "dra.gomez", Password: "secreto1"})
	require.NoError(t, err)

	wrong := "000000"
	if res.VerificationCode == wrong {
		wrong = "111111"
	}
	assertCode(t, svc.Verify(ctx, "dra.gomez", wrong), pkgerrors.CodeValidation, ErrCodeMismatch)
	assertCode(t, svc.Verify(ctx, "nadie", res.VerificationCode), pkgerrors.CodeNotFound, ErrNotFound)

	require.NoError(t, svc.Verify(ctx, "dra.gomez", res.VerificationCode))

	user, err := NewRepository(client.DB()).FindByUsername(ctx, "dra.gomez")
	require.NoError(t, err)
	assert.True(t, user.Verified)
	assert.False(t, user.HasPendingCode())

	// already verified wins over any code
	assertCode(t, svc.Verify(ctx, "dra.gomez", res.VerificationCode), pkgerrors.CodeConflict, ErrAlreadyVerified)
	assertCode(t, svc.Verify(ctx, "dra.gomez", wrong), pkgerrors.CodeConflict, ErrAlreadyVerified)
}

func TestAuthenticate(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{Username: "dra.gomez", Password: "secreto1"})
	require.NoError(t, err)

	// unverified is rejected before the password is checked
	_, err = svc.Authenticate(ctx, "dra.gomez", "incorrecta")
	assertCode(t, err, pkgerrors.CodeForbidden, ErrNotVerified)

	require.NoError(t, svc.Verify(ctx, "dra.gomez", res.VerificationCode))

	_, err = svc.Authenticate(ctx, "dra.gomez", "incorrecta")
	assertCode(t, err, pkgerrors.CodeUnauthorized, ErrBadCredential)

	_, err = svc.Authenticate(ctx, "nadie", "secreto1")
	assertCode(t, err, pkgerrors.CodeNotFound, ErrNotFound)

	user, err := svc.Authenticate(ctx, "dra.gomez", "secreto1")
	require.NoError(t, err)
	assert.Equal(t, "dra.gomez", user.Username)
}

func TestAuthenticateUpgradesWeakHash(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	registerVerified(t, svc, "dra.gomez", "secreto1")

	weak := testPasswordConfig()
	weak.ArgonTime = 2
	weak.ArgonMemoryKB = 4 * 1024
	weakHash, err := security.HashPassword("secreto1", weak)
	require.NoError(t, err)

	repo := NewRepository(client.DB())
	user, err := repo.FindByUsername(ctx, "dra.gomez")
	require.NoError(t, err)
	require.NoError(t, repo.UpdatePasswordHash(ctx, user.ID, weakHash))

	_, err = svc.Authenticate(ctx, "dra.gomez", "secreto1")
	require.NoError(t, err)

	user, err = repo.FindByUsername(ctx, "dra.gomez")
	require.NoError(t, err)
	assert.NotEqual(t, weakHash, user.PasswordHash)
	assert.False(t, security.NeedsRehash(user.PasswordHash, testPasswordConfig()))
}

func TestPasswordResetFlow(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	registerVerified(t, svc, "dra.gomez", "secreto1")

	_, err := svc.RequestPasswordReset(ctx, "nadie")
	assertCode(t, err, pkgerrors.CodeNotFound, ErrNotFound)

	first, err := svc.RequestPasswordReset(ctx, "dra.gomez")
	require.NoError(t, err)
	second, err := svc.RequestPasswordReset(ctx, "dra.gomez")
	require.NoError(t, err)

	if first != second {
		// the newer code replaces the outstanding one
		err = svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dra.gomez", Code: first, NewPassword: "nueva-clave"})
		assertCode(t, err, pkgerrors.CodeNotFound, ErrNotFound)
	}

	err = svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dra.gomez", Code: second, NewPassword: "corta"})
	assertCode(t, err, pkgerrors.CodeValidation, ErrInvalidInput)

	err = svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dra.gomez", Code: second})
	assertCode(t, err, pkgerrors.CodeValidation, ErrInvalidInput)

	require.NoError(t, svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dra.gomez", Code: second, NewPassword: "nueva-clave"}))

	// reset leaves the verified flag untouched
	_, err = svc.Authenticate(ctx, "dra.gomez", "nueva-clave")
	require.NoError(t, err)
	_, err = svc.Authenticate(ctx, "dra.gomez", "secreto1")
	assertCode(t, err, pkgerrors.CodeUnauthorized, ErrBadCredential)

	// the code is single use
	err = svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dra.gomez", Code: second, NewPassword: "otra-clave"})
	assertCode(t, err, pkgerrors.CodeNotFound, ErrNotFound)
}

func TestPasswordResetLengthCountsCharacters(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	registerVerified(t, svc, "dr.nunez", "secreto1")

	code, err := svc.RequestPasswordReset(ctx, "dr.nunez")
	require.NoError(t, err)

	// three characters, six bytes
	err = svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dr.nunez", Code: code, NewPassword: "ñññ"})
	assertCode(t, err, pkgerrors.CodeValidation, ErrInvalidInput)

	require.NoError(t, svc.CompletePasswordReset(ctx, CompleteResetRequest{Username: "dr.nunez", Code: code, NewPassword: "ñandú1"}))
	_, err = svc.Authenticate(ctx, "dr.nunez", "ñandú1")
	require.NoError(t, err)
}

func TestListAndDelete(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()
	registerVerified(t, svc, "admin", "secreto1")
	registerVerified(t, svc, "dra.gomez", "secreto1")

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "admin", list[0].Username)
	assert.True(t, list[0].Verified)

	doctorID := list[1].ID
	require.NoError(t, client.DB().Create(&models.Patient{DNI: "30111222", FirstName: "Ana", LastName: "Perez", UserID: &doctorID}).Error)

	assertCode(t, svc.Delete(ctx, doctorID), pkgerrors.CodeConflict, ErrUserHasPatients)
	assertCode(t, svc.Delete(ctx, 9999), pkgerrors.CodeNotFound, ErrNotFound)

	require.NoError(t, svc.Delete(ctx, list[0].ID))
	list, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestNewServiceRequiresDB(t *testing.T) {
	_, err := NewService(ServiceParams{})
	require.Error(t, err)
}
