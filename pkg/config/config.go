package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Password PasswordConfig
	Cache    CacheConfig
	GCP      GCPConfig
	BigQuery BigQueryConfig
	Flags    FeatureFlagsConfig
	Alerts   AlertsConfig
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
	Env          string   `envconfig:"MAGIS_APP_ENV" required:"true"`
	Port         string   `envconfig:"MAGIS_APP_PORT" default:"8080"`
	LogLevel     string   `envconfig:"MAGIS_LOG_LEVEL" default:"info"`
	LogWarnStack bool     `envconfig:"MAGIS_LOG_WARN_STACK" default:"false"`
	CORSOrigins  []string `envconfig:"MAGIS_CORS_ORIGINS" default:"http://localhost:3000"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"MAGIS_DB_DSN"`
	Driver string `envconfig:"MAGIS_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"MAGIS_DB_HOST"`
	Port     int    `envconfig:"MAGIS_DB_PORT" default:"5432"`
	User     string `envconfig:"MAGIS_DB_USER"`
	Password string `envconfig:"MAGIS_DB_PASSWORD"`
	Name     string `envconfig:"MAGIS_DB_NAME"`
	SSLMode  string `envconfig:"MAGIS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAGIS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAGIS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAGIS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAGIS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAGIS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MAGIS_REDIS_ADDR"`
	Password     string        `envconfig:"MAGIS_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAGIS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAGIS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAGIS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAGIS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAGIS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAGIS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MAGIS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MAGIS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MAGIS_JWT_EXPIRATION_MINUTES" default:"60"`
	SessionTTLMinutes int    `envconfig:"MAGIS_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the server-side session lifetime.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MAGIS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MAGIS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MAGIS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MAGIS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MAGIS_ARGON_KEY_LEN" default:"32"`
}

// CacheConfig controls the read-through cache in front of rule-table,
// store-config, and campaign reads.
type CacheConfig struct {
	TTL time.Duration `envconfig:"MAGIS_CACHE_TTL" default:"10m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MAGIS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MAGIS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MAGIS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset             string `envconfig:"MAGIS_BIGQUERY_DATASET" default:"dados_magis"`
	PricingTable        string `envconfig:"MAGIS_BIGQUERY_PRICING_TABLE" default:"pricing_records"`
	CampaignPricesTable string `envconfig:"MAGIS_BIGQUERY_CAMPAIGN_PRICES_TABLE" default:"campaign_prices"`
	ProductsTable       string `envconfig:"MAGIS_BIGQUERY_PRODUCTS_TABLE" default:"products"`
	SalesTable          string `envconfig:"MAGIS_BIGQUERY_SALES_TABLE" default:"sales"`
	AuditTable          string `envconfig:"MAGIS_BIGQUERY_AUDIT_TABLE" default:"audit_log"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MAGIS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MAGIS_AUTO_MIGRATE" default:"false"`
}

// AlertsConfig tunes the dashboard alert thresholds.
type AlertsConfig struct {
	CampaignExpiryDays int `envconfig:"MAGIS_ALERT_CAMPAIGN_EXPIRY_DAYS" default:"7"`
	OutdatedCostDays   int `envconfig:"MAGIS_ALERT_OUTDATED_COST_DAYS" default:"30"`
	StagnantDays       int `envconfig:"MAGIS_ALERT_STAGNANT_DAYS" default:"90"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range partDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
