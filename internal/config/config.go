package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xxxsen/common/logger"

	"github.com/xxxsen/redline/internal/ai"
)

const (
	envPrefix = "REDLINE"
	envFile   = ".env"
)

const (
	DriverMemory   = "memory"
	DriverSqlite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Port        int              `json:"port"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Snapshot    SnapshotConfig   `json:"snapshot"`
	CORSOrigins []string         `json:"cors_origins"`
}

type DatabaseConfig struct {
	Driver string `json:"driver"`
	DSN    string `json:"dsn"`
}

type AIConfig struct {
	DefaultProvider   string           `json:"default_provider"`
	FallbackProvider  string           `json:"fallback_provider"`
	SynthesisProvider string           `json:"synthesis_provider"`
	Timeout           int              `json:"timeout"`
	MaxInputChars     int              `json:"max_input_chars"`
	MaxTokens         int              `json:"max_tokens"`
	RateLimit         int              `json:"rate_limit"`
	Providers         []ProviderConfig `json:"providers"`
	Cache             CacheConfig      `json:"cache"`
}

// ProviderConfig is passed to the vendor factory registered under Name.
type ProviderConfig struct {
	Name string                 `json:"name"`
	Data map[string]interface{} `json:"data"`
}

type CacheConfig struct {
	Type  string      `json:"type"`
	Size  int         `json:"size"`
	TTL   int         `json:"ttl"`
	Redis RedisConfig `json:"redis"`
}

type RedisConfig struct {
	Addr     string `json:"addr"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	Prefix   string `json:"prefix"`
}

type FileStoreConfig struct {
	Type string   `json:"type"`
	Dir  string   `json:"dir"`
	S3   S3Config `json:"s3"`
}

type S3Config struct {
	Endpoint  string `json:"endpoint"`
	SecretID  string `json:"secret_id"`
	SecretKey string `json:"secret_key"`
	Bucket    string `json:"bucket"`
	Region    string `json:"region"`
	Prefix    string `json:"prefix"`
	UseSSL    bool   `json:"use_ssl"`
}

type SnapshotConfig struct {
	Enabled bool   `json:"enabled"`
	Cron    string `json:"cron"`
	Key     string `json:"key"`
}

// Load reads the JSON config at path, overlays secrets from the environment
// (and an optional .env file) and fills defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	overlayEnv(&cfg, newEnvViper())
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func newEnvViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// overlayEnv fills secrets from REDLINE_* variables. A vendor key found in
// the environment enables that vendor even when the file does not list it.
func overlayEnv(cfg *Config, v *viper.Viper) {
	if dsn := v.GetString("database.dsn"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if pwd := v.GetString("ai.cache.redis.password"); pwd != "" {
		cfg.AI.Cache.Redis.Password = pwd
	}
	if key := v.GetString("file_store.s3.secret_key"); key != "" {
		cfg.FileStore.S3.SecretKey = key
	}
	configured := make(map[string]int, len(cfg.AI.Providers))
	for i, p := range cfg.AI.Providers {
		configured[strings.ToLower(strings.TrimSpace(p.Name))] = i
	}
	for _, name := range ai.SupportedProviders() {
		key := v.GetString(name + ".api_key")
		if key == "" {
			continue
		}
		idx, ok := configured[name]
		if !ok {
			cfg.AI.Providers = append(cfg.AI.Providers, ProviderConfig{Name: name})
			idx = len(cfg.AI.Providers) - 1
		}
		if cfg.AI.Providers[idx].Data == nil {
			cfg.AI.Providers[idx].Data = make(map[string]interface{})
		}
		if existing, _ := cfg.AI.Providers[idx].Data["api_key"].(string); existing == "" {
			cfg.AI.Providers[idx].Data["api_key"] = key
		}
	}
}

func (c *Config) normalize() error {
	if c.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch c.Database.Driver {
	case "":
		c.Database.Driver = DriverMemory
	case DriverMemory:
	case DriverSqlite, DriverPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for %s", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be memory, sqlite or postgres")
	}
	if err := c.AI.normalize(); err != nil {
		return err
	}
	if c.FileStore.Type == "" {
		c.FileStore.Type = "local"
	}
	switch c.FileStore.Type {
	case "local":
		if c.FileStore.Dir == "" && c.Snapshot.Enabled {
			return fmt.Errorf("file_store.dir is required for local store")
		}
	case "s3":
		if c.FileStore.S3.Bucket == "" || c.FileStore.S3.SecretID == "" || c.FileStore.S3.SecretKey == "" {
			return fmt.Errorf("file_store.s3 bucket/secret_id/secret_key are required for s3 store")
		}
		if c.FileStore.S3.Region == "" {
			c.FileStore.S3.Region = "us-east-1"
		}
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	if c.Snapshot.Enabled {
		if c.Database.Driver != DriverMemory {
			return fmt.Errorf("snapshot requires the memory database driver")
		}
		if c.Snapshot.Cron == "" {
			c.Snapshot.Cron = "@every 10m"
		}
		if c.Snapshot.Key == "" {
			c.Snapshot.Key = "snapshots/redline.json"
		}
	}
	return nil
}

func (c *AIConfig) normalize() error {
	if c.Timeout <= 0 {
		c.Timeout = 120
	}
	if c.MaxInputChars <= 0 {
		c.MaxInputChars = 100000
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = ai.DefaultMaxTokens
	}
	if c.DefaultProvider == "" {
		c.DefaultProvider = ai.DefaultProvider
	}
	if c.SynthesisProvider == "" {
		c.SynthesisProvider = c.DefaultProvider
	}
	for i, p := range c.Providers {
		name := strings.ToLower(strings.TrimSpace(p.Name))
		if name == "" {
			return fmt.Errorf("ai.providers[%d].name is required", i)
		}
		c.Providers[i].Name = name
	}
	switch c.Cache.Type {
	case "", "none":
		c.Cache.Type = "none"
	case "lru":
		if c.Cache.Size <= 0 {
			c.Cache.Size = 256
		}
	case "redis":
		if c.Cache.Redis.Addr == "" {
			return fmt.Errorf("ai.cache.redis.addr is required for redis cache")
		}
		if c.Cache.Redis.Prefix == "" {
			c.Cache.Redis.Prefix = "redline:ai:"
		}
	default:
		return fmt.Errorf("ai.cache.type must be none, lru or redis")
	}
	if c.Cache.Type != "none" && c.Cache.TTL <= 0 {
		c.Cache.TTL = 3600
	}
	return nil
}
