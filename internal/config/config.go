// Package config manages environment variables.
//
// It reads variables from the process environment (and a `.env` file when
// present), loads them into structured Go types, and validates that required
// values are present so they can be reused across the application runtime.
//
// Responsibilities:
//   - Load environment variables (optionally from a `.env` file).
//   - Map env vars into a structured Go config (structs).
//   - Validate required values so the app fails fast on bad config.
//   - Provide sane defaults for every optional block.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	// Side-effect import: if a `.env` file exists it is loaded into the
	// process env before anything below reads it.
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

/*
	Env vars are read using the FORMS_ prefix. After the prefix is removed
	the key is lowercased and every double underscore becomes a "." so it
	maps onto the nested struct layout:

		FORMS_SERVER__PORT                 -> server.port
		FORMS_UPLOADS__S3__BUCKET          -> uploads.s3.bucket
		FORMS_SERVER__CORS_ALLOWED_ORIGINS -> server.cors_allowed_origins

	Single underscores stay part of the key name.
*/

// EnvPrefix is the prefix every configuration variable must carry.
const EnvPrefix = "FORMS_"

// ServiceName is the fixed name used in logs, traces and the root descriptor.
const ServiceName = "ycl-backend"

// Config is the root configuration object for the application.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database" validate:"required"`
	Redis         RedisConfig          `koanf:"redis" validate:"required"`
	Email         EmailConfig          `koanf:"email"`
	Uploads       UploadsConfig        `koanf:"uploads" validate:"required"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

// Primary holds top-level information about the runtime environment.
type Primary struct {
	Env     string `koanf:"env" validate:"required"`
	Version string `koanf:"version" validate:"required"`
}

// ServerConfig groups settings for the HTTP server runtime.
// Timeouts are expressed in seconds.
type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`

	// BodyLimit caps request bodies, multipart uploads included ("20M", "512K").
	BodyLimit string `koanf:"body_limit" validate:"required"`
}

// DatabaseConfig contains PostgreSQL connection parameters and pool tuning.
type DatabaseConfig struct {
	Host            string `koanf:"host" validate:"required"`
	Port            int    `koanf:"port" validate:"required"`
	User            string `koanf:"user" validate:"required"`
	Password        string `koanf:"password"`
	Name            string `koanf:"name" validate:"required"`
	SSLMode         string `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int    `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int    `koanf:"max_idle_conns"`
	ConnMaxLifetime int    `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime int    `koanf:"conn_max_idle_time" validate:"required"`
}

// RedisConfig contains Redis connection details used by the job queue.
// Address is "host:port".
type RedisConfig struct {
	Address string `koanf:"address" validate:"required"`
}

// EmailConfig holds the outbound mail settings.
//
// An empty ResendAPIKey is a valid configuration: the service keeps running
// and reports the mailer as "not configured".
type EmailConfig struct {
	ResendAPIKey    string `koanf:"resend_api_key"`
	FromAddress     string `koanf:"from_address" validate:"required,email"`
	FromName        string `koanf:"from_name" validate:"required"`
	OperatorAddress string `koanf:"operator_address" validate:"required,email"`
}

// Configured reports whether outbound email can be sent.
func (e EmailConfig) Configured() bool {
	return strings.TrimSpace(e.ResendAPIKey) != ""
}

// UploadsConfig selects where uploaded application files are written.
type UploadsConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=local s3"`
	Dir    string `koanf:"dir"`

	// MaxMemory is the number of bytes of a multipart body kept in memory
	// before the remainder spills to temporary files.
	MaxMemory int64 `koanf:"max_memory" validate:"required"`

	S3 S3Config `koanf:"s3"`
}

// S3Config configures the S3 upload backend.
// Static keys are optional; the default AWS credential chain is used otherwise.
type S3Config struct {
	Bucket          string `koanf:"bucket"`
	Region          string `koanf:"region"`
	Endpoint        string `koanf:"endpoint"`
	Prefix          string `koanf:"prefix"`
	AccessKeyID     string `koanf:"access_key_id"`
	SecretAccessKey string `koanf:"secret_access_key"`
}

// Validate checks the driver-specific requirements that struct tags can't express.
func (u UploadsConfig) Validate() error {
	switch u.Driver {
	case "local":
		if u.Dir == "" {
			return fmt.Errorf("uploads.dir is required for the local driver")
		}
	case "s3":
		if u.S3.Bucket == "" {
			return fmt.Errorf("uploads.s3.bucket is required for the s3 driver")
		}
		if u.S3.Region == "" {
			return fmt.Errorf("uploads.s3.region is required for the s3 driver")
		}
	}
	return nil
}

// DefaultCORSAllowedOrigins is used when no origin list is configured.
var DefaultCORSAllowedOrigins = []string{
	"https://yourconsultingltd.co.uk",
	"https://www.yourconsultingltd.co.uk",
	"http://localhost:3000",
	"http://localhost:5000",
	"http://localhost:8080",
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Primary.Env == "production"
}

// Default returns the configuration used when no environment overrides exist.
// It mirrors a local development setup.
func Default() *Config {
	return &Config{
		Primary: Primary{
			Env:     "development",
			Version: "1.0.0",
		},
		Server: ServerConfig{
			Port:         "5001",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
			BodyLimit:    "20M",
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "ycl_website",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 3600,
			ConnMaxIdleTime: 300,
		},
		Redis: RedisConfig{
			Address: "localhost:6379",
		},
		Email: EmailConfig{
			FromAddress:     "noreply@yourconsultingltd.co.uk",
			FromName:        "YCL",
			OperatorAddress: "contact@yourconsultingltd.co.uk",
		},
		Uploads: UploadsConfig{
			Driver:    "local",
			Dir:       "uploads",
			MaxMemory: 10 << 20,
		},
		Observability: DefaultObservabilityConfig(),
	}
}

// LoadConfig loads configuration from environment variables on top of
// Default(), validates it, applies observability defaults, and returns it.
//
// Behavior summary:
//   - Loads env vars with prefix FORMS_ ("__" marks nesting)
//   - Splits comma separated values for list keys
//   - Honors a bare PORT variable when FORMS_SERVER__PORT is unset
//   - Validates struct tags, then the custom Validate() hooks
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "__", ".")
		if strings.HasSuffix(key, "origins") || strings.HasSuffix(key, ".checks") {
			return key, splitList(value)
		}
		return key, value
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("could not load env variables: %w", err)
	}

	mainConfig := Default()
	if err := k.Unmarshal("", mainConfig); err != nil {
		return nil, fmt.Errorf("could not unmarshal main config: %w", err)
	}

	// Hosting platforms hand out the listening port as plain PORT.
	if port := os.Getenv("PORT"); port != "" && !k.Exists("server.port") {
		mainConfig.Server.Port = port
	}

	// Slices are applied after the overlay: decoding a shorter env list on
	// top of a populated default would keep the default's tail.
	if len(mainConfig.Server.CORSAllowedOrigins) == 0 {
		mainConfig.Server.CORSAllowedOrigins = append([]string(nil), DefaultCORSAllowedOrigins...)
	}

	validate := validator.New()
	if err := validate.Struct(mainConfig); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	if err := mainConfig.Uploads.Validate(); err != nil {
		return nil, fmt.Errorf("invalid uploads config: %w", err)
	}

	if mainConfig.Observability == nil {
		mainConfig.Observability = DefaultObservabilityConfig()
	}

	if len(mainConfig.Observability.HealthChecks.Checks) == 0 {
		mainConfig.Observability.HealthChecks.Checks = append([]string(nil), DefaultHealthChecks...)
	}

	// Service name and environment are forced so every log line and trace
	// carries the same labels regardless of what was configured.
	mainConfig.Observability.ServiceName = ServiceName
	mainConfig.Observability.Environment = mainConfig.Primary.Env

	if err := mainConfig.Observability.Validate(); err != nil {
		return nil, fmt.Errorf("invalid observability config: %w", err)
	}

	return mainConfig, nil
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
