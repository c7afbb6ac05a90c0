package config

import (
	"fmt"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

type PostgresConfig struct {
	DSN             string
	MaxOpen         int
	MaxIdle         int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type SecurityConfig struct {
	JWTSecret      string
	CookieName     string
	CookieSecure   bool
	CookieDomain   string
	SessionTTL     time.Duration
	VerifyTokenTTL time.Duration
	ResetTokenTTL  time.Duration
	BcryptCost     int

	LoginRateLimit   int
	LoginRateWindow  time.Duration
	ForgotRateLimit  int
	ForgotRateWindow time.Duration
}

// MailConfig with an empty Host degrades to a logging delivery path instead
// of failing the triggering request.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type OriginsConfig struct {
	App string
	API string
}

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Object    string
	UseSSL    bool
	Region    string
}

// StorageConfig selects the storage back-ends. Users is "postgres" or
// "file"; Layout is "file" or "s3". DataDir backs the file variants and the
// tour board.
type StorageConfig struct {
	Users   string
	Layout  string
	DataDir string
	S3      S3Config
}

// BootstrapConfig seeds a pre-verified admin account on first start when no
// admin exists yet. Leave Username empty to disable.
type BootstrapConfig struct {
	Username string
	Email    string
	Password string
}

type AppConfig struct {
	Environment      string
	HTTP             HTTPConfig
	Postgres         PostgresConfig
	Redis            RedisConfig
	Security         SecurityConfig
	Mail             MailConfig
	Origins          OriginsConfig
	Storage          StorageConfig
	Bootstrap        BootstrapConfig
	AllowCORSOrigins []string
}

func Load() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("../config")

	v.SetEnvPrefix("NAVIO")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func validate(cfg *AppConfig) error {
	if cfg.Security.JWTSecret == "" {
		return fmt.Errorf("security.jwtsecret must be set")
	}
	if cfg.Environment == "production" && cfg.Security.JWTSecret == "dev-secret" {
		return fmt.Errorf("security.jwtsecret must not be the dev default in production")
	}
	switch cfg.Storage.Users {
	case "postgres", "file":
	default:
		return fmt.Errorf("storage.users must be postgres or file, got %q", cfg.Storage.Users)
	}
	switch cfg.Storage.Layout {
	case "file", "s3":
	default:
		return fmt.Errorf("storage.layout must be file or s3, got %q", cfg.Storage.Layout)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 3001)
	v.SetDefault("http.readtimeout", "10s")
	v.SetDefault("http.writetimeout", "15s")
	v.SetDefault("http.idletimeout", "60s")

	v.SetDefault("postgres.maxopen", 20)
	v.SetDefault("postgres.maxidle", 5)
	v.SetDefault("postgres.connmaxlifetime", "30m")

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("security.jwtsecret", "dev-secret")
	v.SetDefault("security.cookiename", "navio_session")
	v.SetDefault("security.cookiesecure", false)
	v.SetDefault("security.sessionttl", "168h") // 7 days
	v.SetDefault("security.verifytokenttl", "24h")
	v.SetDefault("security.resettokenttl", "2h")
	v.SetDefault("security.bcryptcost", 12)
	v.SetDefault("security.loginratelimit", 10)
	v.SetDefault("security.loginratewindow", "5m")
	v.SetDefault("security.forgotratelimit", 3)
	v.SetDefault("security.forgotratewindow", "15m")

	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.from", "Navio <no-reply@example.com>")

	v.SetDefault("origins.app", "http://localhost:5173")
	v.SetDefault("origins.api", "http://localhost:3001")

	v.SetDefault("storage.users", "postgres")
	v.SetDefault("storage.layout", "file")
	v.SetDefault("storage.datadir", "./local_data")
	v.SetDefault("storage.s3.bucket", "navio-layouts")
	v.SetDefault("storage.s3.object", "cmr-layout.json")
	v.SetDefault("storage.s3.usessl", false)
	v.SetDefault("storage.s3.region", "us-east-1")
}
