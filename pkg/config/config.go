package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	// EnvPrefix scopes every environment variable this service reads.
	EnvPrefix = "ZALIANT"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv    = "ZALIANT_APP_ENV"
	EnvPort      = "ZALIANT_APP_PORT"
	EnvDBDSN     = "ZALIANT_DB_DSN"
	EnvDBHost    = "ZALIANT_DB_HOST"
	EnvDBUser    = "ZALIANT_DB_USER"
	EnvDBName    = "ZALIANT_DB_NAME"
	EnvRedisURL  = "ZALIANT_REDIS_URL"
	EnvJWTSecret = "ZALIANT_JWT_SECRET"
	EnvJWTIssuer = "ZALIANT_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	Mail         MailConfig
	Licenses     LicenseConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Cron         CronConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ZALIANT_APP_ENV" required:"true"`
	Port         string `envconfig:"ZALIANT_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ZALIANT_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ZALIANT_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"ZALIANT_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"ZALIANT_DB_DSN"`
	Driver string `envconfig:"ZALIANT_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"ZALIANT_DB_HOST"`
	LegacyPort     int    `envconfig:"ZALIANT_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"ZALIANT_DB_USER"`
	LegacyPassword string `envconfig:"ZALIANT_DB_PASSWORD"`
	LegacyName     string `envconfig:"ZALIANT_DB_NAME"`
	LegacySSLMode  string `envconfig:"ZALIANT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ZALIANT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ZALIANT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ZALIANT_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ZALIANT_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ZALIANT_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ZALIANT_REDIS_ADDR"`
	Password     string        `envconfig:"ZALIANT_REDIS_PASSWORD"`
	DB           int           `envconfig:"ZALIANT_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ZALIANT_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ZALIANT_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ZALIANT_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ZALIANT_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ZALIANT_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies bearer tokens minted by the external identity provider.
// This service never issues tokens of its own.
type JWTConfig struct {
	Secret string `envconfig:"ZALIANT_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"ZALIANT_JWT_ISSUER" required:"true"`
}

type RateLimitConfig struct {
	ActivationWindow   time.Duration `envconfig:"ZALIANT_RATE_LIMIT_ACTIVATION_WINDOW" default:"1m"`
	ActivationKeyLimit int           `envconfig:"ZALIANT_RATE_LIMIT_ACTIVATION_KEY_LIMIT" default:"10"`
	ActivationIPLimit  int           `envconfig:"ZALIANT_RATE_LIMIT_ACTIVATION_IP_LIMIT" default:"30"`
	LookupWindow       time.Duration `envconfig:"ZALIANT_RATE_LIMIT_LOOKUP_WINDOW" default:"1m"`
	LookupIPLimit      int           `envconfig:"ZALIANT_RATE_LIMIT_LOOKUP_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"ZALIANT_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"ZALIANT_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"ZALIANT_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// MailConfig controls outbound email rendering. Delivery is stubbed in demo
// deployments: rendered messages are logged rather than handed to Sendgrid.
type MailConfig struct {
	SendgridAPIKey string `envconfig:"ZALIANT_SENDGRID_API_KEY"`
	FromAddress    string `envconfig:"ZALIANT_MAIL_FROM" default:"noreply@zaliant.gg"`
	SupportAddress string `envconfig:"ZALIANT_MAIL_SUPPORT" default:"support@zaliant.gg"`
}

type LicenseConfig struct {
	KeyPrefix string `envconfig:"ZALIANT_LICENSE_KEY_PREFIX" default:"ZLNT"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"ZALIANT_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"ZALIANT_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"ZALIANT_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"ZALIANT_PUBSUB_DOMAIN_TOPIC" default:"zs-domain-events"`
	DomainSubscription string `envconfig:"ZALIANT_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"ZALIANT_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"ZALIANT_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"ZALIANT_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	LockTTL time.Duration `envconfig:"ZALIANT_CRON_LOCK_TTL" default:"25h"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
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
