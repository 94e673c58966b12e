package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clinica-salud/pacientes-api/api/middleware"
	"github.com/clinica-salud/pacientes-api/internal/auth"
	"github.com/clinica-salud/pacientes-api/internal/patients"
	"github.com/clinica-salud/pacientes-api/internal/users"
	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db/models"
	pkgerrors "github.com/clinica-salud/pacientes-api/pkg/errors"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

type stubUsers struct {
	users.Service
	registered users.RegisterRequest
	verifyErr  error
	resetCode  string
	deleteErr  error
	deletedID  uint
}

func (s *stubUsers) Register(ctx context.Context, req users.RegisterRequest) (*users.RegisterResult, error) {
	s.registered = req
	return &users.RegisterResult{Username: req.Username, VerificationCode: "123456"}, nil
}

func (s *stubUsers) Verify(ctx context.Context, username, code string) error {
	return s.verifyErr
}

func (s *stubUsers) RequestPasswordReset(ctx context.Context, username string) (string, error) {
	return s.resetCode, nil
}

func (s *stubUsers) Delete(ctx context.Context, id uint) error {
	s.deletedID = id
	return s.deleteErr
}

type stubAuth struct {
	resp *auth.LoginResponse
	err  error
}

func (s stubAuth) Login(ctx context.Context, req auth.LoginRequest) (*auth.LoginResponse, error) {
	return s.resp, s.err
}

type stubPatients struct {
	patients.Service
	added       patients.ConsultationInput
	addedFor    uint
	getErr      error
	updateErr   error
	updatedID   uint
	consultaArg [2]uint
}

func (s *stubPatients) Get(ctx context.Context, id uint) (*patients.PatientDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &patients.PatientDTO{ID: id, DNI: "30111222", FirstName: "Ana", LastName: "Paz"}, nil
}

func (s *stubPatients) Update(ctx context.Context, id uint, in patients.PatientInput) error {
	s.updatedID = id
	return s.updateErr
}

func (s *stubPatients) AddConsultation(ctx context.Context, patientID uint, in patients.ConsultationInput) (*patients.ConsultationDTO, error) {
	s.addedFor = patientID
	s.added = in
	return &patients.ConsultationDTO{ID: 1, PatientID: patientID, Reason: in.Reason}, nil
}

func (s *stubPatients) GetConsultation(ctx context.Context, patientID, id uint) (*patients.ConsultationDTO, error) {
	s.consultaArg = [2]uint{patientID, id}
	return &patients.ConsultationDTO{ID: id, PatientID: patientID}, nil
}

func (s *stubPatients) Stats(ctx context.Context) (*patients.Stats, error) {
	return &patients.Stats{Patients: 3, Consultations: 5}, nil
}

func TestUserRegisterReturnsCreatedWithCode(t *testing.T) {
	svc := &stubUsers{}
	req := httptest.NewRequest(http.MethodPost, "/api/usuarios/registrar", strings.NewReader(`{"username":"dra.paz","password":"secreto"}`))
	rec := httptest.NewRecorder()
	UserRegister(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "dra.paz", svc.registered.Username)
	assert.JSONEq(t, `{"username":"dra.paz","codigoVerificacion":"123456"}`, string(decodeEnvelope(t, rec).Data))
}

func TestUserRegisterRejectsMissingPassword(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/usuarios/registrar", strings.NewReader(`{"username":"dra.paz"}`))
	rec := httptest.NewRecorder()
	UserRegister(&stubUsers{}, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, "is required", env.Error.Details["password"])
}

func TestUserVerifyMapsDomainErrors(t *testing.T) {
	cases := map[error]int{
		nil: http.StatusOK,
		pkgerrors.Wrap(pkgerrors.CodeConflict, users.ErrAlreadyVerified, "user already verified"):     http.StatusConflict,
		pkgerrors.Wrap(pkgerrors.CodeValidation, users.ErrCodeMismatch, "verification code mismatch"): http.StatusBadRequest,
		pkgerrors.Wrap(pkgerrors.CodeNotFound, users.ErrNotFound, "user not found"):                   http.StatusNotFound,
	}
	for verifyErr, status := range cases {
		req := httptest.NewRequest(http.MethodPost, "/api/usuarios/verificar", strings.NewReader(`{"username":"a","codigo":"111111"}`))
		rec := httptest.NewRecorder()
		UserVerify(&stubUsers{verifyErr: verifyErr}, logger.Nop()).ServeHTTP(rec, req)
		assert.Equal(t, status, rec.Code, "%v", verifyErr)
	}
}

func TestUserRequestResetReturnsCode(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/usuarios/solicitar-reset", strings.NewReader(`{"username":"a"}`))
	rec := httptest.NewRecorder()
	UserRequestReset(&stubUsers{resetCode: "654321"}, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"codigo":"654321"}`, string(decodeEnvelope(t, rec).Data))
}

func TestUserLogin(t *testing.T) {
	resp := &auth.LoginResponse{Token: "tok", User: users.FromModel(&models.User{ID: 4, Username: "a", Profile: "medico"})}
	req := httptest.NewRequest(http.MethodPost, "/api/usuarios/login", strings.NewReader(`{"username":"a","password":"b"}`))
	rec := httptest.NewRecorder()
	UserLogin(stubAuth{resp: resp}, logger.Nop()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Token   string `json:"token"`
		Usuario struct {
			ID     uint   `json:"id"`
			Perfil string `json:"perfil"`
		} `json:"usuario"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &body))
	assert.Equal(t, "tok", body.Token)
	assert.Equal(t, uint(4), body.Usuario.ID)
	assert.Equal(t, "medico", body.Usuario.Perfil)

	req = httptest.NewRequest(http.MethodPost, "/api/usuarios/login", strings.NewReader(`{"username":"a","password":"b"}`))
	rec = httptest.NewRecorder()
	badCredential := pkgerrors.Wrap(pkgerrors.CodeUnauthorized, users.ErrBadCredential, "invalid credentials")
	UserLogin(stubAuth{err: badCredential}, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUserWhoAmI(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/usuarios/test", nil)
	req = req.WithContext(middleware.WithIdentity(req.Context(), middleware.Identity{UserID: 2, Username: "recep", Role: "recepcionista"}))
	rec := httptest.NewRecorder()
	UserWhoAmI(logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":2,"username":"recep","role":"recepcionista"}`, string(decodeEnvelope(t, rec).Data))

	rec = httptest.NewRecorder()
	UserWhoAmI(logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/usuarios/test", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPatientGetRejectsBadID(t *testing.T) {
	req := withParams(httptest.NewRequest(http.MethodGet, "/api/pacientes/abc", nil), map[string]string{"id": "abc"})
	rec := httptest.NewRecorder()
	PatientGet(&stubPatients{}, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatientUpdate(t *testing.T) {
	body := `{"id":9,"dni":"30111222","nombre":"Ana","apellido":"Paz"}`

	svc := &stubPatients{}
	req := withParams(httptest.NewRequest(http.MethodPut, "/api/pacientes/9", strings.NewReader(body)), map[string]string{"id": "9"})
	rec := httptest.NewRecorder()
	PatientUpdate(svc, logger.Nop()).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(9), svc.updatedID)

	mismatch := pkgerrors.Wrap(pkgerrors.CodeValidation, patients.ErrIDMismatch, "id mismatch")
	req = withParams(httptest.NewRequest(http.MethodPut, "/api/pacientes/8", strings.NewReader(body)), map[string]string{"id": "8"})
	rec = httptest.NewRecorder()
	PatientUpdate(&stubPatients{updateErr: mismatch}, logger.Nop()).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConsultationRoutesPassBothIDs(t *testing.T) {
	svc := &stubPatients{}
	req := withParams(httptest.NewRequest(http.MethodGet, "/api/pacientes/3/consultas/11", nil), map[string]string{"id": "3", "consultaId": "11"})
	rec := httptest.NewRecorder()
	ConsultationGet(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [2]uint{3, 11}, svc.consultaArg)
}

func TestConsultationCreate(t *testing.T) {
	svc := &stubPatients{}
	body := `{"fecha":"05/03/2024","motivo":"control","hemoglobina":13.2}`
	req := withParams(httptest.NewRequest(http.MethodPost, "/api/pacientes/3/consultas", strings.NewReader(body)), map[string]string{"id": "3"})
	rec := httptest.NewRecorder()
	ConsultationCreate(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(3), svc.addedFor)
	assert.Equal(t, "05/03/2024", svc.added.Date)
	assert.True(t, svc.added.Hemoglobin.Valid)
}

func TestAdminCreateAppointmentRecordsConsultation(t *testing.T) {
	svc := &stubPatients{}
	body := `{"pacienteId":5,"fecha":"2024-06-01","motivo":"turno","nota":"primera vez"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/create-appointment", strings.NewReader(body))
	rec := httptest.NewRecorder()
	AdminCreateAppointment(svc, logger.Nop()).ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, uint(5), svc.addedFor)
	assert.Equal(t, "turno", svc.added.Reason)
	assert.Equal(t, "primera vez", svc.added.ClinicalNote)
}

func TestAdminDeleteUserConflict(t *testing.T) {
	conflict := pkgerrors.Wrap(pkgerrors.CodeConflict, users.ErrUserHasPatients, "user has patients")
	svc := &stubUsers{deleteErr: conflict}
	req := withParams(httptest.NewRequest(http.MethodDelete, "/api/admin/delete-user/4", nil), map[string]string{"id": "4"})
	rec := httptest.NewRecorder()
	AdminDeleteUser(svc, logger.Nop()).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, uint(4), svc.deletedID)
}

func TestAdminMedicalDataAndClinicInfo(t *testing.T) {
	rec := httptest.NewRecorder()
	AdminMedicalData(&stubPatients{}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/medical-data", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"pacientes":3`)

	rec = httptest.NewRecorder()
	AdminClinicInfo(config.ClinicConfig{Name: "Clinica Norte", Phone: "011-4444"}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/clinic-info", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), `"nombre":"Clinica Norte"`)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	rec := httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"db": stubPinger{}, "redis": nil}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"disabled"`)

	rec = httptest.NewRecorder()
	HealthReady(cfg, map[string]Pinger{"db": stubPinger{err: errors.New("down")}}, logger.Nop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
