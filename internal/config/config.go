package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the location of the optional YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPaths are tried in order when CONFIG_PATH is not set.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// Config captures the runtime configuration for the application.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Auth     AuthConfig     `koanf:"auth"`
	Media    MediaConfig    `koanf:"media"`
	HTTP     HTTPConfig     `koanf:"http"`
	API      APIConfig      `koanf:"api"`
}

// ServerConfig configures the HTTP server runtime behavior.
type ServerConfig struct {
	Addr string `koanf:"addr"`
	// PublicURL is the externally visible origin used for short links. When empty
	// the origin is derived from the incoming request.
	PublicURL         string        `koanf:"public_url"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig contains the database connection settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time"`
	UseMock         bool          `koanf:"use_mock"`
}

type LoggingConfig struct {
	Level string `koanf:"level"`
}

type AuthConfig struct {
	Session SessionConfig `koanf:"session"`
}

// SessionConfig controls the session manager backing authentication.
type SessionConfig struct {
	Lifetime     time.Duration `koanf:"lifetime"`
	CookieName   string        `koanf:"cookie_name"`
	CookieDomain string        `koanf:"cookie_domain"`
	CookieSecure bool          `koanf:"cookie_secure"`
}

// MediaConfig selects where uploaded recipe images and avatars are stored.
type MediaConfig struct {
	Backend       string   `koanf:"backend"`
	Root          string   `koanf:"root"`
	BaseURL       string   `koanf:"base_url"`
	MaxImageBytes int64    `koanf:"max_image_bytes"`
	S3            S3Config `koanf:"s3"`
}

type S3Config struct {
	Bucket       string `koanf:"bucket"`
	Region       string `koanf:"region"`
	Endpoint     string `koanf:"endpoint"`
	AccessKey    string `koanf:"access_key"`
	SecretKey    string `koanf:"secret_key"`
	PublicURL    string `koanf:"public_url"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

// HTTPConfig holds the cross-cutting middleware settings.
type HTTPConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitRequests int           `koanf:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// APIConfig controls list pagination.
type APIConfig struct {
	PageSize    int `koanf:"page_size"`
	MaxPageSize int `koanf:"max_page_size"`
}

const (
	MediaBackendLocal = "local"
	MediaBackendS3    = "s3"
)

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		Logging: LoggingConfig{Level: "info"},
		Auth: AuthConfig{
			Session: SessionConfig{
				Lifetime:     12 * time.Hour,
				CookieName:   "foodgram_session",
				CookieSecure: true,
			},
		},
		Media: MediaConfig{
			Backend:       MediaBackendLocal,
			Root:          "media",
			BaseURL:       "/media/",
			MaxImageBytes: 10 << 20,
		},
		HTTP: HTTPConfig{
			CORSOrigins:       []string{},
			RateLimitRequests: 300,
			RateLimitWindow:   time.Minute,
		},
		API: APIConfig{
			PageSize:    6,
			MaxPageSize: 100,
		},
	}
}

// envMappings maps environment variable names to koanf paths.
var envMappings = map[string]string{
	"server_addr":                 "server.addr",
	"addr":                        "server.addr",
	"public_url":                  "server.public_url",
	"server_read_header_timeout":  "server.read_header_timeout",
	"server_shutdown_timeout":     "server.shutdown_timeout",
	"database_url":                "database.url",
	"db_url":                      "database.url",
	"database_max_idle_conns":     "database.max_idle_conns",
	"database_max_open_conns":     "database.max_open_conns",
	"database_conn_max_lifetime":  "database.conn_max_lifetime",
	"database_conn_max_idle_time": "database.conn_max_idle_time",
	"database_use_mock":           "database.use_mock",
	"log_level":                   "logging.level",
	"session_lifetime":            "auth.session.lifetime",
	"session_cookie_name":         "auth.session.cookie_name",
	"session_cookie_domain":       "auth.session.cookie_domain",
	"session_cookie_secure":       "auth.session.cookie_secure",
	"media_backend":               "media.backend",
	"media_root":                  "media.root",
	"media_base_url":              "media.base_url",
	"media_max_image_bytes":       "media.max_image_bytes",
	"s3_bucket":                   "media.s3.bucket",
	"s3_region":                   "media.s3.region",
	"s3_endpoint":                 "media.s3.endpoint",
	"s3_access_key":               "media.s3.access_key",
	"s3_secret_key":               "media.s3.secret_key",
	"s3_public_url":               "media.s3.public_url",
	"s3_use_path_style":           "media.s3.use_path_style",
	"cors_origins":                "http.cors_origins",
	"rate_limit_requests":         "http.rate_limit_requests",
	"rate_limit_window":           "http.rate_limit_window",
	"rate_limit_disabled":         "http.rate_limit_disabled",
	"page_size":                   "api.page_size",
	"max_page_size":               "api.max_page_size",
}

// legacyFallbacks are only honoured when the preferred variable is unset.
var legacyFallbacks = map[string]string{
	"addr":   "SERVER_ADDR",
	"db_url": "DATABASE_URL",
}

var sliceConfigPaths = []string{
	"http.cors_origins",
}

// Load builds a Config from defaults, an optional YAML file and the environment,
// in increasing order of precedence.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate rejects configurations the server cannot start with.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server address must not be empty")
	}

	switch c.Media.Backend {
	case MediaBackendLocal:
		if strings.TrimSpace(c.Media.Root) == "" {
			return errors.New("media root must not be empty for the local backend")
		}
	case MediaBackendS3:
		if strings.TrimSpace(c.Media.S3.Bucket) == "" {
			return errors.New("s3 bucket must be set for the s3 media backend")
		}
	default:
		return fmt.Errorf("unknown media backend: %q", c.Media.Backend)
	}

	if c.Media.MaxImageBytes <= 0 {
		return errors.New("media max image bytes must be positive")
	}
	if c.API.PageSize <= 0 || c.API.MaxPageSize <= 0 {
		return errors.New("page sizes must be positive")
	}
	if c.API.PageSize > c.API.MaxPageSize {
		return fmt.Errorf("page size %d exceeds max page size %d", c.API.PageSize, c.API.MaxPageSize)
	}
	return nil
}

func envTransform(key string) string {
	if strings.TrimSpace(os.Getenv(key)) == "" {
		return ""
	}
	name := strings.ToLower(key)
	if preferred, ok := legacyFallbacks[name]; ok && strings.TrimSpace(os.Getenv(preferred)) != "" {
		return ""
	}
	return envMappings[name]
}

func findConfigFile() string {
	candidates := append([]string{os.Getenv(ConfigPathEnvVar)}, DefaultConfigPaths...)
	for _, path := range candidates {
		if strings.TrimSpace(path) == "" {
			continue
		}
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		if err := k.Set(path, splitList(raw)); err != nil {
			return fmt.Errorf("set %s: %w", path, err)
		}
	}
	return nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}
