// Package config loads orbitd settings from the environment and an
// optional YAML file.
//
// Every key can be set as ORBITD_<SECTION>_<KEY>, e.g. ORBITD_HTTP_ADDR.
// ORBITD_CONFIG names a YAML file with the same keys nested by section;
// environment variables win over the file. Invalid numeric or boolean
// values are logged and replaced by their default. Auth settings are the
// exception: a bad auth value is an error.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/svr93/military-ed--tle-to-cartesian/internal/auth"
	"github.com/svr93/military-ed--tle-to-cartesian/internal/tle"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "ORBITD"

// HTTPConfig holds server settings.
type HTTPConfig struct {
	Addr               string
	MaxSamples         int  // per request
	MaxConcurrentPerIP int  // concurrent propagation requests per client
	TrustProxy         bool // honour X-Forwarded-For
}

// CatalogConfig holds TLE catalog settings.
type CatalogConfig struct {
	EnableFetch bool
	SourceURL   string
	ExtraURLs   []string
	ArchiveDir  string
	MaxFiles    int
	MaxAge      time.Duration // refetch once the dataset is older
}

// Config is the complete daemon configuration.
type Config struct {
	HTTP     HTTPConfig
	Auth     auth.Config
	Catalog  CatalogConfig
	Workers  int
	LogLevel slog.Level
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:               ":8080",
			MaxSamples:         100000,
			MaxConcurrentPerIP: 4,
		},
		Catalog: CatalogConfig{
			EnableFetch: true,
			SourceURL:   tle.DefaultSourceURL,
			ArchiveDir:  "/tmp/orbitd/tle",
			MaxFiles:    5,
			MaxAge:      24 * time.Hour,
		},
		Workers:  0,
		LogLevel: slog.LevelInfo,
	}
}

// Load reads the configuration from the process environment and the file
// named by ORBITD_CONFIG, if any.
func Load(logger *slog.Logger) (Config, error) {
	v := viper.New()
	if path := os.Getenv(EnvPrefix + "_CONFIG"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("reading config file %s: %w", path, err)
		}
		logger.Info("config file loaded", "component", "config", "path", path)
	}
	return FromViper(v, logger)
}

// FromViper builds a Config from v, binding it to the ORBITD_ environment.
func FromViper(v *viper.Viper, logger *slog.Logger) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	l := loader{v: v, logger: logger}

	var err error
	if cfg.Auth, err = l.auth(); err != nil {
		return Config{}, err
	}

	cfg.HTTP.Addr = l.str("http.addr", cfg.HTTP.Addr)
	cfg.HTTP.MaxSamples = l.positiveInt("http.max_samples", cfg.HTTP.MaxSamples)
	cfg.HTTP.MaxConcurrentPerIP = l.positiveInt("http.max_concurrent_per_ip", cfg.HTTP.MaxConcurrentPerIP)
	cfg.HTTP.TrustProxy = l.boolean("http.trust_proxy", cfg.HTTP.TrustProxy)

	cfg.Catalog.EnableFetch = l.boolean("catalog.enable_fetch", cfg.Catalog.EnableFetch)
	cfg.Catalog.SourceURL = l.str("catalog.source_url", cfg.Catalog.SourceURL)
	cfg.Catalog.ExtraURLs = l.list("catalog.extra_urls")
	cfg.Catalog.ArchiveDir = l.str("catalog.archive_dir", cfg.Catalog.ArchiveDir)
	cfg.Catalog.MaxFiles = l.positiveInt("catalog.max_files", cfg.Catalog.MaxFiles)
	cfg.Catalog.MaxAge = time.Duration(l.positiveInt("catalog.max_age", int(cfg.Catalog.MaxAge.Seconds()))) * time.Second

	cfg.Workers = l.positiveInt("propagation.workers", cfg.Workers)
	cfg.LogLevel = l.level("log.level", cfg.LogLevel)

	logger.Info("config loaded",
		"component", "config",
		"addr", cfg.HTTP.Addr,
		"max_samples", cfg.HTTP.MaxSamples,
		"auth_enabled", cfg.Auth.Enabled,
		"catalog_fetch_enabled", cfg.Catalog.EnableFetch,
		"source_url", cfg.Catalog.SourceURL,
		"extra_urls", cfg.Catalog.ExtraURLs,
		"archive_dir", cfg.Catalog.ArchiveDir,
		"workers", cfg.Workers,
	)
	return cfg, nil
}

type loader struct {
	v      *viper.Viper
	logger *slog.Logger
}

func (l loader) envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

func (l loader) str(key, def string) string {
	if s := strings.TrimSpace(l.v.GetString(key)); s != "" {
		return s
	}
	return def
}

func (l loader) positiveInt(key string, def int) int {
	s := strings.TrimSpace(l.v.GetString(key))
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		l.logger.Warn("invalid "+l.envName(key)+" value, using default", "component", "config", "value", s, "default", def)
		return def
	}
	return n
}

func (l loader) boolean(key string, def bool) bool {
	s := strings.TrimSpace(l.v.GetString(key))
	if s == "" {
		return def
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		l.logger.Warn("invalid "+l.envName(key)+" value, using default", "component", "config", "value", s, "default", def)
		return def
	}
	return b
}

// list accepts a YAML sequence or a comma separated string.
func (l loader) list(key string) []string {
	var raw []string
	switch val := l.v.Get(key).(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(val, ",")
	default:
		raw = l.v.GetStringSlice(key)
	}
	var out []string
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func (l loader) level(key string, def slog.Level) slog.Level {
	s := strings.TrimSpace(l.v.GetString(key))
	if s == "" {
		return def
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		l.logger.Warn("invalid "+l.envName(key)+" value, using default", "component", "config", "value", s, "default", def.String())
		return def
	}
	return lvl
}

func (l loader) auth() (auth.Config, error) {
	var cfg auth.Config
	if s := strings.TrimSpace(l.v.GetString("auth.enabled")); s != "" {
		enabled, err := strconv.ParseBool(s)
		if err != nil {
			return cfg, fmt.Errorf("%s must be a boolean value (true/false/1/0)", l.envName("auth.enabled"))
		}
		cfg.Enabled = enabled
	}
	if cfg.Enabled {
		cfg.Token = l.v.GetString("auth.token")
		if err := cfg.Validate(); err != nil {
			return cfg, fmt.Errorf("%s: %w", l.envName("auth.token"), err)
		}
	}
	return cfg, nil
}
