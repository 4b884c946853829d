// Package config resolves recondash runtime settings from defaults, an
// optional YAML file and RECONDASH_* environment variables, in that order.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	AuthBaseURL          string
	RequestTimeout       time.Duration
	AuditDBPath          string
	NoticeTTL            time.Duration
	NotificationCapacity int
	LogPath              string
	SchedulerBuffer      int
	Currency             string
}

func Default() RuntimeConfig {
	return RuntimeConfig{
		AuthBaseURL:          "http://localhost:8000/api",
		RequestTimeout:       15 * time.Second,
		AuditDBPath:          ".recondash_audit.db",
		NoticeTTL:            6 * time.Second,
		NotificationCapacity: 50,
		LogPath:              ".recondash.log",
		SchedulerBuffer:      64,
		Currency:             "USD",
	}
}

// fileConfig mirrors RuntimeConfig for YAML; nil fields keep the base value.
type fileConfig struct {
	AuthBaseURL           *string `yaml:"auth_base_url"`
	RequestTimeoutSeconds *int    `yaml:"request_timeout_seconds"`
	AuditDBPath           *string `yaml:"audit_db_path"`
	NoticeTTLSeconds      *int    `yaml:"notice_ttl_seconds"`
	NotificationCapacity  *int    `yaml:"notification_capacity"`
	LogPath               *string `yaml:"log_path"`
	SchedulerBuffer       *int    `yaml:"scheduler_buffer"`
	Currency              *string `yaml:"currency"`
}

// LoadFile layers the YAML file at path over base. A missing file is not an
// error; an unparseable one is.
func LoadFile(path string, base RuntimeConfig) (RuntimeConfig, error) {
	cfg := base
	path = strings.TrimSpace(path)
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if fc.AuthBaseURL != nil {
		cfg.AuthBaseURL = strings.TrimSpace(*fc.AuthBaseURL)
	}
	if fc.RequestTimeoutSeconds != nil && *fc.RequestTimeoutSeconds > 0 {
		cfg.RequestTimeout = time.Duration(*fc.RequestTimeoutSeconds) * time.Second
	}
	if fc.AuditDBPath != nil {
		cfg.AuditDBPath = strings.TrimSpace(*fc.AuditDBPath)
	}
	if fc.NoticeTTLSeconds != nil && *fc.NoticeTTLSeconds > 0 {
		cfg.NoticeTTL = time.Duration(*fc.NoticeTTLSeconds) * time.Second
	}
	if fc.NotificationCapacity != nil && *fc.NotificationCapacity >= 0 {
		cfg.NotificationCapacity = *fc.NotificationCapacity
	}
	if fc.LogPath != nil {
		cfg.LogPath = strings.TrimSpace(*fc.LogPath)
	}
	if fc.SchedulerBuffer != nil && *fc.SchedulerBuffer > 0 {
		cfg.SchedulerBuffer = *fc.SchedulerBuffer
	}
	if fc.Currency != nil && strings.TrimSpace(*fc.Currency) != "" {
		cfg.Currency = strings.ToUpper(strings.TrimSpace(*fc.Currency))
	}
	return cfg, nil
}

func FromEnv(base RuntimeConfig) RuntimeConfig {
	cfg := base
	if v, ok := getEnvString("RECONDASH_AUTH_URL"); ok {
		cfg.AuthBaseURL = v
	}
	if v, ok := getEnvInt("RECONDASH_REQUEST_TIMEOUT_SECONDS"); ok && v > 0 {
		cfg.RequestTimeout = time.Duration(v) * time.Second
	}
	if v, ok := os.LookupEnv("RECONDASH_AUDIT_DB"); ok {
		cfg.AuditDBPath = strings.TrimSpace(v)
	}
	if v, ok := getEnvInt("RECONDASH_NOTICE_TTL_SECONDS"); ok && v > 0 {
		cfg.NoticeTTL = time.Duration(v) * time.Second
	}
	if v, ok := getEnvInt("RECONDASH_NOTIFICATION_CAPACITY"); ok && v >= 0 {
		cfg.NotificationCapacity = v
	}
	if v, ok := getEnvString("RECONDASH_LOG_FILE"); ok {
		cfg.LogPath = v
	}
	if v, ok := getEnvInt("RECONDASH_SCHEDULER_BUFFER"); ok && v > 0 {
		cfg.SchedulerBuffer = v
	}
	if v, ok := getEnvString("RECONDASH_CURRENCY"); ok {
		cfg.Currency = strings.ToUpper(v)
	}
	return cfg
}

// Load resolves defaults, then the YAML file, then the environment.
func Load(path string) (RuntimeConfig, error) {
	cfg, err := LoadFile(path, Default())
	if err != nil {
		return cfg, err
	}
	return FromEnv(cfg), nil
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return "", false
	}
	return raw, true
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}
