// Package config loads process configuration: built-in defaults, then an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	platformstrings "cropchain/pkg/platform/strings"
)

// EnvPrefix prefixes every environment variable, e.g. CROPCHAIN_SERVER_ADDR.
// Fields with an explicit envconfig tag also accept the bare name.
const EnvPrefix = "cropchain"

const (
	BatchBackendMemory = "memory"
	BatchBackendRedis  = "redis"
	BatchBackendBadger = "badger"

	UserBackendMemory   = "memory"
	UserBackendPostgres = "postgres"

	PriceCacheMemory = "memory"
	PriceCacheRedis  = "redis"
)

// RelinkPolicy decides what happens to a live credential when the user links
// a different wallet.
type RelinkPolicy string

const (
	RelinkKeepVerification  RelinkPolicy = "keep"
	RelinkResetVerification RelinkPolicy = "reset"
)

type Config struct {
	Server   Server   `yaml:"server"`
	Auth     Auth     `yaml:"auth"`
	Storage  Storage  `yaml:"storage"`
	Redis    Redis    `yaml:"redis"`
	AI       AI       `yaml:"ai"`
	Pricing  Pricing  `yaml:"pricing"`
	Audit    Audit    `yaml:"audit"`
	Identity Identity `yaml:"identity"`
	Dev      Dev      `yaml:"dev"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `yaml:"addr"`
	LogLevel        string        `yaml:"logLevel"        split_words:"true"`
	LogFormat       string        `yaml:"logFormat"       split_words:"true"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"  split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" split_words:"true"`
}

type Auth struct {
	JWTSigningKey string        `yaml:"jwtSigningKey" envconfig:"JWT_SIGNING_KEY"`
	TokenTTL      time.Duration `yaml:"tokenTTL"      split_words:"true"`
	AdminToken    string        `yaml:"adminToken"    envconfig:"ADMIN_API_TOKEN"`
}

type Storage struct {
	BatchBackend string `yaml:"batchBackend" split_words:"true"`
	BadgerPath   string `yaml:"badgerPath"   split_words:"true"`
	UserBackend  string `yaml:"userBackend"  split_words:"true"`
	PostgresDSN  string `yaml:"postgresDSN"  envconfig:"DATABASE_URL"`
}

type Redis struct {
	URL          string        `yaml:"url"          envconfig:"REDIS_URL"`
	PoolSize     int           `yaml:"poolSize"     split_words:"true"`
	MinIdleConns int           `yaml:"minIdleConns" split_words:"true"`
	DialTimeout  time.Duration `yaml:"dialTimeout"  split_words:"true"`
	ReadTimeout  time.Duration `yaml:"readTimeout"  split_words:"true"`
	WriteTimeout time.Duration `yaml:"writeTimeout" split_words:"true"`
}

// AI configures the assistant's language model. An empty APIKey runs the
// assistant on canned replies only.
type AI struct {
	APIKey           string        `yaml:"apiKey"           envconfig:"OPENAI_API_KEY"`
	BaseURL          string        `yaml:"baseURL"          envconfig:"OPENAI_BASE_URL"`
	Model            string        `yaml:"model"            envconfig:"OPENAI_MODEL"`
	MaxTokens        int           `yaml:"maxTokens"        split_words:"true"`
	Temperature      float32       `yaml:"temperature"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold int           `yaml:"failureThreshold" split_words:"true"`
	Cooldown         time.Duration `yaml:"cooldown"`
	ChatPerMinute    int           `yaml:"chatPerMinute"    split_words:"true"`
}

// Pricing configures the coin price feed. A zero RefreshInterval disables the
// background refresher; prices are then fetched on demand.
type Pricing struct {
	BaseURL         string        `yaml:"baseURL"         envconfig:"COINGECKO_BASE_URL"`
	Timeout         time.Duration `yaml:"timeout"`
	RefreshInterval time.Duration `yaml:"refreshInterval" split_words:"true"`
	CacheTTL        time.Duration `yaml:"cacheTTL"        split_words:"true"`
	CacheBackend    string        `yaml:"cacheBackend"    split_words:"true"`
}

// Audit configures the event sink. With no brokers events stay in memory.
type Audit struct {
	KafkaBrokers []string `yaml:"kafkaBrokers" envconfig:"KAFKA_BROKERS"`
	KafkaTopic   string   `yaml:"kafkaTopic"   split_words:"true"`
	Buffer       int      `yaml:"buffer"`
}

type Identity struct {
	RelinkPolicy RelinkPolicy `yaml:"relinkPolicy" split_words:"true"`
	AllowReissue bool         `yaml:"allowReissue" split_words:"true"`
}

type Dev struct {
	SeedBatches bool `yaml:"seedBatches" split_words:"true"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: Server{
			Addr:            ":8080",
			LogLevel:        "info",
			LogFormat:       "json",
			RequestTimeout:  30 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Auth: Auth{
			JWTSigningKey: "dev-secret-key-change-in-production",
			TokenTTL:      24 * time.Hour,
		},
		Storage: Storage{
			BatchBackend: BatchBackendMemory,
			BadgerPath:   "data/batches",
			UserBackend:  UserBackendMemory,
		},
		Redis: Redis{
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		AI: AI{
			Model:            "gpt-4o-mini",
			MaxTokens:        500,
			Temperature:      0.7,
			Timeout:          20 * time.Second,
			FailureThreshold: 3,
			Cooldown:         time.Minute,
			ChatPerMinute:    30,
		},
		Pricing: Pricing{
			BaseURL:         "https://api.coingecko.com/api/v3",
			Timeout:         5 * time.Second,
			RefreshInterval: time.Minute,
			CacheTTL:        time.Minute,
			CacheBackend:    PriceCacheMemory,
		},
		Audit: Audit{
			KafkaTopic: "cropchain.audit",
			Buffer:     256,
		},
		Identity: Identity{
			RelinkPolicy: RelinkKeepVerification,
			AllowReissue: true,
		},
	}
}

// Load layers the YAML file at path (if non-empty) and the environment over
// the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}
	cfg.Audit.KafkaBrokers = platformstrings.DedupeAndTrim(cfg.Audit.KafkaBrokers)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects combinations the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	switch c.Storage.BatchBackend {
	case BatchBackendMemory, BatchBackendBadger:
	case BatchBackendRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis batch backend requires a redis url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown batch backend %q", c.Storage.BatchBackend))
	}
	switch c.Storage.UserBackend {
	case UserBackendMemory:
	case UserBackendPostgres:
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres user backend requires DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown user backend %q", c.Storage.UserBackend))
	}
	switch c.Pricing.CacheBackend {
	case PriceCacheMemory:
	case PriceCacheRedis:
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis price cache requires a redis url"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown price cache backend %q", c.Pricing.CacheBackend))
	}
	if c.AI.ChatPerMinute < 0 {
		errs = append(errs, errors.New("chat rate limit cannot be negative"))
	}
	switch c.Identity.RelinkPolicy {
	case RelinkKeepVerification, RelinkResetVerification:
	default:
		errs = append(errs, fmt.Errorf("unknown relink policy %q", c.Identity.RelinkPolicy))
	}
	if strings.TrimSpace(c.Auth.JWTSigningKey) == "" {
		errs = append(errs, errors.New("jwt signing key cannot be empty"))
	}
	return errors.Join(errs...)
}

// AIEnabled reports whether a language model is configured.
func (c *Config) AIEnabled() bool {
	return c.AI.APIKey != ""
}
