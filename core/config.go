package core

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConnectionConfig identifies the credential database. It is read once at startup.
type ConnectionConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Validate enforces that every field is set and the port is a usable TCP port.
func (c ConnectionConfig) Validate() error {
	var errs []error
	for _, f := range []struct{ name, value string }{
		{"host", c.Host},
		{"port", c.Port},
		{"name", c.Name},
		{"user", c.User},
		{"password", c.Password},
	} {
		if strings.TrimSpace(f.value) == "" {
			errs = append(errs, fmt.Errorf("database %s is empty", f.name))
		}
	}
	if c.Port != "" {
		if p, err := strconv.Atoi(c.Port); err != nil || p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("database port %q is not a valid port", c.Port))
		}
	}
	return errors.Join(errs...)
}

// defaultAllowedOrigin is the local development frontend.
const defaultAllowedOrigin = "http://localhost:3000"

// Config holds runtime settings for the API process.
type Config struct {
	Port           string           // HTTP listen port (e.g., "3000")
	Database       ConnectionConfig // credential store connection
	SessionKey     string           // Cookie signing key
	SessionBackend string           // "cookie" or "redis"
	CookieSecure   bool             // Whether to set Secure flag on session cookie
	CookieSameSite string           // SameSite policy: Strict/Lax/None
	RedisURL       string           // Redis URL (redis://host:port/db), used by the redis session backend
	LogDir         string           // Directory to write application logs
	AllowedOrigins []string         // allowed origins for CORS
	DigestScheme   string           // legacy, sha256 or pbkdf2
	DigestSalt     string           // salt for the pbkdf2 scheme
	MetricsEnabled bool
	EnsureSchema   bool // create the users table at startup (development)
}

// fileConfig mirrors Config for the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Port     string           `yaml:"port"`
	Database ConnectionConfig `yaml:"database"`
	Session  struct {
		Key      string `yaml:"key"`
		Backend  string `yaml:"backend"`
		Secure   *bool  `yaml:"secure"`
		SameSite string `yaml:"same_site"`
	} `yaml:"session"`
	RedisURL       string   `yaml:"redis_url"`
	LogDir         string   `yaml:"log_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	Digest         struct {
		Scheme string `yaml:"scheme"`
		Salt   string `yaml:"salt"`
	} `yaml:"digest"`
	MetricsEnabled *bool `yaml:"metrics_enabled"`
	EnsureSchema   *bool `yaml:"ensure_schema"`
}

// Load populates Config from environment variables, falling back to the YAML file
// named by CONFIG_FILE and then to defaults. The result is validated.
func Load() (Config, error) {
	var file fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, &file); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Port: firstNonEmpty(os.Getenv("PORT"), file.Port, "3000"),
		Database: ConnectionConfig{
			Host:     firstNonEmpty(os.Getenv("DB_HOST"), file.Database.Host, "localhost"),
			Port:     firstNonEmpty(os.Getenv("DB_PORT"), file.Database.Port, "5432"),
			Name:     firstNonEmpty(os.Getenv("DB_NAME"), file.Database.Name, "faculty"),
			User:     firstNonEmpty(os.Getenv("DB_USER"), file.Database.User, "postgres"),
			Password: firstNonEmpty(os.Getenv("DB_PASSWORD"), file.Database.Password),
		},
		SessionKey:     firstNonEmpty(os.Getenv("SESSION_KEY"), file.Session.Key, "change-this-session-key"),
		SessionBackend: strings.ToLower(firstNonEmpty(os.Getenv("SESSION_BACKEND"), file.Session.Backend, "cookie")),
		CookieSecure:   boolFromEnv("COOKIE_SECURE", derefBool(file.Session.Secure, false)),
		CookieSameSite: firstNonEmpty(os.Getenv("COOKIE_SAMESITE"), file.Session.SameSite, "None"),
		RedisURL:       firstNonEmpty(os.Getenv("REDIS_URL"), file.RedisURL, "redis://localhost:6379/0"),
		LogDir:         firstNonEmpty(os.Getenv("LOG_DIR"), file.LogDir, "./log"),
		AllowedOrigins: parseCSV(os.Getenv("ALLOWED_ORIGINS")),
		DigestScheme:   strings.ToLower(firstNonEmpty(os.Getenv("DIGEST_SCHEME"), file.Digest.Scheme, DigestLegacy)),
		DigestSalt:     firstNonEmpty(os.Getenv("DIGEST_SALT"), file.Digest.Salt),
		MetricsEnabled: boolFromEnv("METRICS_ENABLED", derefBool(file.MetricsEnabled, true)),
		EnsureSchema:   boolFromEnv("ENSURE_SCHEMA", derefBool(file.EnsureSchema, false)),
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = file.AllowedOrigins
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{defaultAllowedOrigin}
	}

	return cfg, cfg.Validate()
}

// Validate checks the settings that cannot be defaulted sensibly.
func (c Config) Validate() error {
	errs := []error{c.Database.Validate()}
	switch c.SessionBackend {
	case "cookie", "redis":
	default:
		errs = append(errs, fmt.Errorf("unknown session backend %q", c.SessionBackend))
	}
	switch c.DigestScheme {
	case DigestLegacy, DigestSHA256:
	case DigestPBKDF2:
		if c.DigestSalt == "" {
			errs = append(errs, errors.New("pbkdf2 digest requires DIGEST_SALT"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown digest scheme %q", c.DigestScheme))
	}
	return errors.Join(errs...)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// boolFromEnv reads a boolean from env var name, falling back to defaultVal when empty or invalid.
func boolFromEnv(name string, defaultVal bool) bool {
	if v := os.Getenv(name); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

func derefBool(p *bool, defaultVal bool) bool {
	if p == nil {
		return defaultVal
	}
	return *p
}

// parseCSV splits comma-separated list and trims spaces; empty entries are skipped.
func parseCSV(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
