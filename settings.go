package contextplus

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/contextplus/internal/logging"
	"github.com/aretw0/contextplus/pkg/cache"
	"github.com/aretw0/contextplus/pkg/resource"
	backend "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"
)

// RedisSettings configures the redis client and state store of a site.
type RedisSettings struct {
	Addr     string `yaml:"addr" json:"addr"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
	Prefix   string `yaml:"prefix" json:"prefix"`
	TTL      string `yaml:"ttl" json:"ttl"`
}

// Settings is the configuration a site provides to its descendants.
type Settings struct {
	Name              string         `yaml:"name" json:"name"`
	LogLevel          string         `yaml:"log_level" json:"log_level"`
	ResourceCacheSize int            `yaml:"resource_cache_size" json:"resource_cache_size"`
	CacheTTL          string         `yaml:"cache_ttl" json:"cache_ttl"`
	Redis             RedisSettings  `yaml:"redis" json:"redis"`
	Values            map[string]any `yaml:"values" json:"values"`
}

// DefaultSettings returns the settings used when no file is present.
func DefaultSettings() Settings {
	return Settings{
		Name:              "site",
		LogLevel:          "info",
		ResourceCacheSize: resource.DefaultCacheSize,
		CacheTTL:          "10m",
		Values:            map[string]any{},
	}
}

// LoadSettings reads a configuration file (YAML or JSON) over the defaults.
// A missing file yields the defaults.
func LoadSettings(path string) (Settings, error) {
	settings := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, fmt.Errorf("failed to read settings: %w", err)
	}
	return settings, settings.parse(data, strings.ToLower(filepath.Ext(path)) == ".json")
}

// ParseSettings parses YAML settings over the defaults.
func ParseSettings(data []byte) (Settings, error) {
	settings := DefaultSettings()
	return settings, settings.parse(data, false)
}

func (s *Settings) parse(data []byte, isJSON bool) error {
	if isJSON {
		if err := json.Unmarshal(data, s); err != nil {
			return fmt.Errorf("failed to parse settings json: %w", err)
		}
		return nil
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return fmt.Errorf("failed to parse settings yaml: %w", err)
	}
	return nil
}

// Value returns a free-form setting.
func (s Settings) Value(key string) (any, bool) {
	v, ok := s.Values[key]
	return v, ok
}

// Logger builds the logger described by the settings.
func (s Settings) Logger() *slog.Logger {
	return logging.New(logging.ParseLevel(s.LogLevel)).With("site", s.Name)
}

// CacheExpiration parses CacheTTL. An empty or invalid value yields zero.
func (s Settings) CacheExpiration() time.Duration {
	d, err := time.ParseDuration(s.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// RedisTTL parses Redis.TTL. An empty or invalid value yields zero (no expiry).
func (s Settings) RedisTTL() time.Duration {
	d, err := time.ParseDuration(s.Redis.TTL)
	if err != nil {
		return 0
	}
	return d
}

// RedisClient builds a client for the configured address, or nil when none is set.
func (s Settings) RedisClient() backend.UniversalClient {
	if s.Redis.Addr == "" {
		return nil
	}
	return backend.NewUniversalClient(&backend.UniversalOptions{
		Addrs:    []string{s.Redis.Addr},
		Password: s.Redis.Password,
		DB:       s.Redis.DB,
	})
}

// Options translates the settings into site options: settings, logger,
// resource cache, value cache and redis client.
func (s Settings) Options() []SiteOption {
	opts := []SiteOption{
		WithSettings(s),
		WithLogger(s.Logger()),
		WithValueCache(cache.NewTTL(s.CacheExpiration(), 0)),
	}
	if s.ResourceCacheSize > 0 {
		opts = append(opts, WithResourceCache(resource.NewCache(s.ResourceCacheSize)))
	}
	if client := s.RedisClient(); client != nil {
		opts = append(opts, WithRedis(client))
	}
	return opts
}
