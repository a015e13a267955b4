package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fulfillment/internal/adapters/out/postgres"
	"fulfillment/internal/pkg/errs"
	"fulfillment/internal/pkg/telemetry"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Config is the server configuration, read from the environment and an optional .env file.
type Config struct {
	HTTPPort int

	LogLevel  string
	LogFormat string

	OTLPEndpoint     string
	TraceSampleRatio float64

	StoreBackend string
	DBHost       string
	DBPort       string
	DBUser       string
	DBPassword   string
	DBName       string
	DBSslMode    string
	SQLitePath   string

	BotAPIURL         string
	BotToken          string
	BotRateLimit      float64
	BotRateLimitBurst int
	OperatorChatID    string
	OperatorSecret    string

	NotifyTimeout   time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads and validates the server configuration.
func LoadConfig() (Config, error) {
	LoadDotEnv()

	c := Config{
		HTTPPort: env.GetInt("HTTP_PORT", 8080),

		LogLevel:  env.GetString("LOG_LEVEL", "info"),
		LogFormat: env.GetString("LOG_FORMAT", "json"),

		OTLPEndpoint:     env.GetString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		TraceSampleRatio: env.GetFloat64("OTEL_TRACES_SAMPLER_ARG", 1),

		StoreBackend: strings.ToLower(env.GetString("STORE_BACKEND", BackendPostgres)),
		DBHost:       env.GetString("DB_HOST", "localhost"),
		DBPort:       env.GetString("DB_PORT", "5432"),
		DBUser:       env.GetString("DB_USER", "postgres"),
		DBPassword:   env.GetString("DB_PASSWORD", ""),
		DBName:       env.GetString("DB_NAME", "fulfillment"),
		DBSslMode:    env.GetString("DB_SSLMODE", "disable"),
		SQLitePath:   env.GetString("SQLITE_PATH", "fulfillment.db"),

		BotAPIURL:         env.GetString("BOT_API_URL", "https://api.telegram.org"),
		BotToken:          env.GetString("BOT_TOKEN", ""),
		BotRateLimit:      env.GetFloat64("BOT_RATE_LIMIT", 25),
		BotRateLimitBurst: env.GetInt("BOT_RATE_LIMIT_BURST", 5),
		OperatorChatID:    env.GetString("OPERATOR_CHAT_ID", ""),
		OperatorSecret:    env.GetString("OPERATOR_SECRET", ""),

		NotifyTimeout:   env.GetDuration("NOTIFY_TIMEOUT_SECONDS", 5, time.Second),
		ShutdownTimeout: env.GetDuration("SHUTDOWN_TIMEOUT_SECONDS", 10, time.Second),
	}

	return c, c.Validate()
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errList []error

	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("HTTP_PORT", fmt.Errorf("%d is out of range", c.HTTPPort)))
	}

	switch c.StoreBackend {
	case BackendPostgres:
		if c.DBHost == "" || c.DBName == "" {
			errList = append(errList, errs.NewValueIsRequiredError("DB_HOST and DB_NAME"))
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			errList = append(errList, errs.NewValueIsRequiredError("SQLITE_PATH"))
		}
	case BackendMemory:
	default:
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("STORE_BACKEND",
			fmt.Errorf("%q is not one of %s, %s, %s", c.StoreBackend, BackendPostgres, BackendSQLite, BackendMemory)))
	}

	if c.BotToken == "" {
		errList = append(errList, errs.NewValueIsRequiredError("BOT_TOKEN"))
	}
	if c.OperatorChatID == "" {
		errList = append(errList, errs.NewValueIsRequiredError("OPERATOR_CHAT_ID"))
	}
	if c.NotifyTimeout <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("NOTIFY_TIMEOUT_SECONDS", errors.New("must be positive")))
	}
	if c.ShutdownTimeout <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("SHUTDOWN_TIMEOUT_SECONDS", errors.New("must be positive")))
	}
	if c.TraceSampleRatio < 0 || c.TraceSampleRatio > 1 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause("OTEL_TRACES_SAMPLER_ARG",
			fmt.Errorf("%v is outside [0, 1]", c.TraceSampleRatio)))
	}

	return errors.Join(errList...)
}

// PostgresOptions returns the connection settings of the PostgreSQL backend.
func (c Config) PostgresOptions() postgres.Options {
	return postgres.Options{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSslMode,
	}
}

// TracingConfig returns the span export settings. A plain http:// endpoint
// disables TLS; an empty one disables export.
func (c Config) TracingConfig(serviceName string) telemetry.TracingConfig {
	endpoint, insecure := strings.CutPrefix(c.OTLPEndpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")
	return telemetry.TracingConfig{
		ServiceName:  serviceName,
		Endpoint:     endpoint,
		Insecure:     insecure,
		SamplingRate: c.TraceSampleRatio,
	}
}

// LoadDotEnv loads the nearest .env file found walking up from the working directory.
// A missing file is not an error: the environment alone may carry the configuration.
func LoadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
