package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Match policies understood by the matcher.
const (
	PolicyFirst = "first"
	PolicyBest  = "best"
)

// Storage backends.
const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
)

type Config struct {
	Backend      string `yaml:"backend"`
	RegistryPath string `yaml:"registry_path"`
	LedgerPath   string `yaml:"ledger_path"`
	Timezone     string `yaml:"timezone"`

	Match     MatchConfig     `yaml:"match"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Database  DatabaseConfig  `yaml:"database"`
	Log       LogConfig       `yaml:"log"`
	Admin     AdminConfig     `yaml:"-"`
	Web       WebConfig       `yaml:"web"`
}

type MatchConfig struct {
	Threshold float64 `yaml:"threshold"` // maximum Euclidean distance, exclusive
	Policy    string  `yaml:"policy"`    // "first" or "best"
}

type EmbeddingConfig struct {
	Dim          int    `yaml:"dim"`           // vector length produced by the extractor
	ExtractorURL string `yaml:"extractor_url"` // face embedding service
}

type DatabaseConfig struct {
	URL          string `yaml:"-"` // PostgreSQL connection URL
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
	File   string `yaml:"file"`   // optional, tee to file
}

// AdminConfig holds the credential used to guard administrative HTTP routes.
// PasswordHash is a bcrypt hash, never a plain password.
type AdminConfig struct {
	Username     string
	PasswordHash string
}

// Configured reports whether admin credentials have been provided.
func (a AdminConfig) Configured() bool {
	return a.Username != "" && a.PasswordHash != ""
}

type WebConfig struct {
	Host           string   `yaml:"host"`
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"` // CORS, localhost is always allowed
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString returns the env var value, or defaultVal when unset or empty.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envList splits a comma-separated env var, dropping empty items.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func defaults() Config {
	var cfg Config
	if err := yaml.Unmarshal(defaultsYAML, &cfg); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}
	return cfg
}

func Load() *Config {
	d := defaults()

	return &Config{
		Backend:      envString("ATTENDANCE_BACKEND", d.Backend),
		RegistryPath: envString("ATTENDANCE_REGISTRY_PATH", d.RegistryPath),
		LedgerPath:   envString("ATTENDANCE_LEDGER_PATH", d.LedgerPath),
		Timezone:     envString("ATTENDANCE_TIMEZONE", d.Timezone),
		Match: MatchConfig{
			Threshold: envFloat("MATCH_THRESHOLD", d.Match.Threshold),
			Policy:    envString("MATCH_POLICY", d.Match.Policy),
		},
		Embedding: EmbeddingConfig{
			Dim:          envInt("EMBEDDING_DIM", d.Embedding.Dim),
			ExtractorURL: envString("EXTRACTOR_URL", d.Embedding.ExtractorURL),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", d.Database.MaxOpenConns),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", d.Database.MaxIdleConns),
		},
		Log: LogConfig{
			Level:  envString("LOG_LEVEL", d.Log.Level),
			Format: envString("LOG_FORMAT", d.Log.Format),
			File:   envString("LOG_FILE", d.Log.File),
		},
		Admin: AdminConfig{
			Username:     os.Getenv("ADMIN_USERNAME"),
			PasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		},
		Web: WebConfig{
			Host:           envString("WEB_HOST", d.Web.Host),
			Port:           envInt("WEB_PORT", d.Web.Port),
			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS", d.Web.AllowedOrigins),
		},
	}
}

// Location resolves the configured timezone used to derive attendance dates.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks values that cannot be silently defaulted.
func (c *Config) Validate() error {
	var errs []error
	if c.Match.Threshold <= 0 {
		errs = append(errs, fmt.Errorf("match threshold must be positive, got %v", c.Match.Threshold))
	}
	if c.Match.Policy != PolicyFirst && c.Match.Policy != PolicyBest {
		errs = append(errs, fmt.Errorf("unknown match policy %q (want %q or %q)", c.Match.Policy, PolicyFirst, PolicyBest))
	}
	if c.Embedding.Dim <= 0 {
		errs = append(errs, fmt.Errorf("embedding dim must be positive, got %d", c.Embedding.Dim))
	}
	switch c.Backend {
	case BackendJSON:
		if c.RegistryPath == "" || c.LedgerPath == "" {
			errs = append(errs, errors.New("json backend requires registry and ledger paths"))
		}
	case BackendPostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("postgres backend requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q", c.Backend))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
