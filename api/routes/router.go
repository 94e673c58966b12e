package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinica-salud/pacientes-api/api/controllers"
	"github.com/clinica-salud/pacientes-api/api/middleware"
	"github.com/clinica-salud/pacientes-api/internal/access"
	"github.com/clinica-salud/pacientes-api/internal/auth"
	"github.com/clinica-salud/pacientes-api/internal/patients"
	"github.com/clinica-salud/pacientes-api/internal/users"
	"github.com/clinica-salud/pacientes-api/pkg/config"
	"github.com/clinica-salud/pacientes-api/pkg/db"
	"github.com/clinica-salud/pacientes-api/pkg/logger"
	"github.com/clinica-salud/pacientes-api/pkg/metrics"
	"github.com/clinica-salud/pacientes-api/pkg/redis"
)

const (
	pathPatients      = "/api/pacientes"
	pathPatient       = "/api/pacientes/{id}"
	pathConsultations = "/api/pacientes/{id}/consultas"
	pathConsultation  = "/api/pacientes/{id}/consultas/{consultaId}"
)

// AccessTable declares the requirement guarding every authenticated route.
func AccessTable() access.Table {
	personal := access.Policy(config.PolicyPersonalClinica)
	medico := access.Policy(config.PolicyMedicoOrAdmin)
	admin := access.Policy(config.PolicyAdminOnly)

	return access.Table{
		access.RouteKey(http.MethodGet, "/api/usuarios/test"): access.Authenticated(),

		access.RouteKey(http.MethodGet, pathPatients):        personal,
		access.RouteKey(http.MethodPost, pathPatients):       personal,
		access.RouteKey(http.MethodGet, pathPatient):         personal,
		access.RouteKey(http.MethodPut, pathPatient):         personal,
		access.RouteKey(http.MethodDelete, pathPatient):      medico,
		access.RouteKey(http.MethodPost, pathConsultations):  medico,
		access.RouteKey(http.MethodGet, pathConsultations):   personal,
		access.RouteKey(http.MethodGet, pathConsultation):    medico,
		access.RouteKey(http.MethodPut, pathConsultation):    medico,
		access.RouteKey(http.MethodDelete, pathConsultation): medico,

		access.RouteKey(http.MethodGet, "/api/admin/users"):               admin,
		access.RouteKey(http.MethodGet, "/api/admin/medical-data"):        medico,
		access.RouteKey(http.MethodGet, "/api/admin/clinic-info"):         personal,
		access.RouteKey(http.MethodDelete, "/api/admin/delete-user/{id}"): admin,
		access.RouteKey(http.MethodPost, "/api/admin/create-appointment"): access.AnyRole(access.RoleAdmin, access.RoleRecepcionista),
	}
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	engine *access.Engine,
	usersService users.Service,
	authService auth.Service,
	patientsService patients.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(httpMetrics),
		middleware.CORS(cfg.CORS),
	)

	// a nil *redis.Client must not become a non-nil interface
	var limiter middleware.RateLimitStore
	if redisClient != nil {
		limiter = redisClient
	}
	readiness := readinessChecks(dbClient, redisClient)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	loginLimit := middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), limiter, logg)
	registerLimit := middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), limiter, logg)
	resetLimit := middleware.AuthRateLimit(middleware.ResetRateLimitPolicy(cfg.AuthRateLimit), limiter, logg)

	table := AccessTable()
	r.Route("/api/usuarios", func(r chi.Router) {
		r.With(registerLimit).Post("/registrar", controllers.UserRegister(usersService, logg))
		r.With(loginLimit).Post("/login", controllers.UserLogin(authService, logg))
		r.Post("/verificar", controllers.UserVerify(usersService, logg))
		r.With(resetLimit).Post("/solicitar-reset", controllers.UserRequestReset(usersService, logg))
		r.With(resetLimit).Post("/cambiar-contrasena", controllers.UserCompleteReset(usersService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))
			r.Use(middleware.Authorize(engine, table, logg))
			r.Get("/test", controllers.UserWhoAmI(logg))
		})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Authorize(engine, table, logg))

		r.Get(pathPatients, controllers.PatientsList(patientsService, logg))
		r.Post(pathPatients, controllers.PatientCreate(patientsService, logg))
		r.Get(pathPatient, controllers.PatientGet(patientsService, logg))
		r.Put(pathPatient, controllers.PatientUpdate(patientsService, logg))
		r.Delete(pathPatient, controllers.PatientDelete(patientsService, logg))

		r.Post(pathConsultations, controllers.ConsultationCreate(patientsService, logg))
		r.Get(pathConsultations, controllers.ConsultationsList(patientsService, logg))
		r.Get(pathConsultation, controllers.ConsultationGet(patientsService, logg))
		r.Put(pathConsultation, controllers.ConsultationUpdate(patientsService, logg))
		r.Delete(pathConsultation, controllers.ConsultationDelete(patientsService, logg))

		r.Get("/api/admin/users", controllers.AdminListUsers(usersService, logg))
		r.Get("/api/admin/medical-data", controllers.AdminMedicalData(patientsService, logg))
		r.Get("/api/admin/clinic-info", controllers.AdminClinicInfo(cfg.Clinic))
		r.Delete("/api/admin/delete-user/{id}", controllers.AdminDeleteUser(usersService, logg))
		r.Post("/api/admin/create-appointment", controllers.AdminCreateAppointment(patientsService, logg))
	})

	return r
}

// readinessChecks maps each backing store to its pinger. A store that is not
// configured is kept as an untyped nil so the readiness handler reports it as
// disabled instead of calling Ping on a nil pointer.
func readinessChecks(dbClient *db.Client, redisClient *redis.Client) map[string]controllers.Pinger {
	checks := map[string]controllers.Pinger{"database": nil, "redis": nil}
	if dbClient != nil {
		checks["database"] = dbClient
	}
	if redisClient != nil {
		checks["redis"] = redisClient
	}
	return checks
}
