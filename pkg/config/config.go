package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// devJWTSecret only signs tokens when APP_ENV=dev and no secret was configured.
const devJWTSecret = "clinica-dev-only-signing-key"

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Access        AccessConfig
	Users         UsersConfig
	Clinic        ClinicConfig
	CORS          CORSConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.JWT.ensureSecret(cfg.App); err != nil {
		return nil, err
	}
	cfg.Access.Policies = DefaultPolicies().Merge(cfg.Access.Policies)
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"CLINICA_APP_ENV" required:"true"`
	Port         string `envconfig:"CLINICA_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"CLINICA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CLINICA_LOG_WARN_STACK" default:"false"`

	ShutdownTimeout time.Duration `envconfig:"CLINICA_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CLINICA_DB_DSN"`
	Driver string `envconfig:"CLINICA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CLINICA_DB_HOST"`
	LegacyPort     int    `envconfig:"CLINICA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CLINICA_DB_USER"`
	LegacyPassword string `envconfig:"CLINICA_DB_PASSWORD"`
	LegacyName     string `envconfig:"CLINICA_DB_NAME"`
	LegacySSLMode  string `envconfig:"CLINICA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CLINICA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CLINICA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CLINICA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CLINICA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the local single-file driver is selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), "sqlite")
}

// RedisConfig is optional: leaving both URL and address empty disables the
// rate limiter backed by it.
type RedisConfig struct {
	URL          string        `envconfig:"CLINICA_REDIS_URL"`
	Address      string        `envconfig:"CLINICA_REDIS_ADDR"`
	Password     string        `envconfig:"CLINICA_REDIS_PASSWORD"`
	DB           int           `envconfig:"CLINICA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CLINICA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CLINICA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CLINICA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CLINICA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CLINICA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type JWTConfig struct {
	Secret            string `envconfig:"CLINICA_JWT_SECRET"`
	Issuer            string `envconfig:"CLINICA_JWT_ISSUER" default:"clinica-api"`
	ExpirationMinutes int    `envconfig:"CLINICA_JWT_EXPIRATION_MINUTES" default:"480"`

	// UsingDevSecret is set by Load when the development key was substituted.
	UsingDevSecret bool `ignored:"true"`
}

// TTL returns the access token lifetime.
func (j JWTConfig) TTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

func (j *JWTConfig) ensureSecret(app AppConfig) error {
	if strings.TrimSpace(j.Secret) != "" {
		return nil
	}
	if !app.IsDev() {
		return fmt.Errorf("%s is required outside the %s environment", EnvJWTSecret, AppEnvDev)
	}
	j.Secret = devJWTSecret
	j.UsingDevSecret = true
	return nil
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CLINICA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CLINICA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CLINICA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CLINICA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CLINICA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow           time.Duration `envconfig:"CLINICA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginUsernameLimit    int           `envconfig:"CLINICA_AUTH_RATE_LIMIT_LOGIN_USERNAME_LIMIT" default:"5"`
	LoginIPLimit          int           `envconfig:"CLINICA_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow        time.Duration `envconfig:"CLINICA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterUsernameLimit int           `envconfig:"CLINICA_AUTH_RATE_LIMIT_REGISTER_USERNAME_LIMIT" default:"3"`
	RegisterIPLimit       int           `envconfig:"CLINICA_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
	ResetWindow           time.Duration `envconfig:"CLINICA_AUTH_RATE_LIMIT_RESET_WINDOW" default:"15m"`
	ResetUsernameLimit    int           `envconfig:"CLINICA_AUTH_RATE_LIMIT_RESET_USERNAME_LIMIT" default:"5"`
	ResetIPLimit          int           `envconfig:"CLINICA_AUTH_RATE_LIMIT_RESET_IP_LIMIT" default:"20"`

	// TrustedProxies lists the peers allowed to report the client address via
	// forwarding headers. Empty means RemoteAddr is always used.
	TrustedProxies ProxyList `envconfig:"CLINICA_TRUSTED_PROXIES"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CLINICA_AUTO_MIGRATE" default:"true"`
}

type AccessConfig struct {
	// Policies is a JSON object of policy name to allowed roles, merged over
	// DefaultPolicies.
	Policies PolicySet `envconfig:"CLINICA_ACCESS_POLICIES"`
}

type UsersConfig struct {
	PlaceholderEmail  string `envconfig:"CLINICA_USERS_PLACEHOLDER_EMAIL" default:"sin-email@clinica.local"`
	DefaultProfile    string `envconfig:"CLINICA_USERS_DEFAULT_PROFILE" default:"medico"`
	MinPasswordLength int    `envconfig:"CLINICA_USERS_MIN_PASSWORD_LENGTH" default:"6"`
}

type ClinicConfig struct {
	Name    string `envconfig:"CLINICA_CLINIC_NAME" default:"Clinica"`
	Address string `envconfig:"CLINICA_CLINIC_ADDRESS"`
	Phone   string `envconfig:"CLINICA_CLINIC_PHONE"`
	Email   string `envconfig:"CLINICA_CLINIC_EMAIL"`
	Hours   string `envconfig:"CLINICA_CLINIC_HOURS" default:"Lunes a Viernes 8:00-20:00"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"CLINICA_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		db.DSN = "file:clinica.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
