package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"BiasLens/pkg/util"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"8080"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"20s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"json"`
		Output string `yaml:"output" default:"stdout"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Providers struct {
		Timeout time.Duration `yaml:"timeout" default:"8s"`
		Finnhub struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://finnhub.io/api/v1"`
		} `yaml:"finnhub"`
		AlphaVantage struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://www.alphavantage.co"`
		} `yaml:"alpha_vantage"`
		NewsAPI struct {
			APIKey  string `yaml:"api_key"`
			BaseURL string `yaml:"base_url" default:"https://newsapi.org"`
		} `yaml:"news_api"`
	} `yaml:"providers"`
	Cache struct {
		// Backend is memory, redis or layered (memory in front of redis).
		Backend       string `yaml:"backend" default:"memory"`
		MemoryMaxSize int    `yaml:"memory_max_size" default:"5000"`
		Redis         struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix" default:"biaslens"`
		} `yaml:"redis"`
		TTL struct {
			PrimaryQuote      time.Duration `yaml:"primary_quote" default:"30s"`
			SecondaryQuote    time.Duration `yaml:"secondary_quote" default:"60s"`
			PrimaryIntraday   time.Duration `yaml:"primary_intraday" default:"120s"`
			SecondaryIntraday time.Duration `yaml:"secondary_intraday" default:"300s"`
			Demo              time.Duration `yaml:"demo" default:"10s"`
			SignalsResponse   time.Duration `yaml:"signals_response" default:"30s"`
		} `yaml:"ttl"`
	} `yaml:"cache"`
	Resolver struct {
		Concurrency int `yaml:"concurrency" default:"8"`
	} `yaml:"resolver"`
	Signals struct {
		Cooldown        time.Duration `yaml:"cooldown" default:"5m"`
		MaxSymbols      int           `yaml:"max_symbols" default:"5"`
		MaxAttributions int           `yaml:"max_attributions" default:"5"`
		RateLimit       struct {
			PerSecond float64 `yaml:"per_second" default:"0.5"`
			Burst     int     `yaml:"burst" default:"5"`
		} `yaml:"rate_limit"`
	} `yaml:"signals"`
	Stream struct {
		DefaultInterval time.Duration `yaml:"default_interval" default:"15s"`
		MinInterval     time.Duration `yaml:"min_interval" default:"5s"`
		MaxSymbols      int           `yaml:"max_symbols" default:"20"`
	} `yaml:"stream"`
	Database struct {
		URL             string        `yaml:"url"`
		MaxOpenConns    int           `yaml:"max_open_conns" default:"10"`
		MaxIdleConns    int           `yaml:"max_idle_conns" default:"5"`
		ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" default:"30m"`
		AutoMigrate     bool          `yaml:"auto_migrate" default:"true"`
	} `yaml:"database"`
	Auth struct {
		JWTSecret string        `yaml:"jwt_secret"`
		URL       string        `yaml:"url"`
		AnonKey   string        `yaml:"anon_key"`
		Timeout   time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"auth"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"alpha-signals"`
		RequiredAcks int      `yaml:"required_acks" default:"1"`
		Compression  string   `yaml:"compression" default:"snappy"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"10ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"biaslens"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert" default:"true"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

// ProviderKeys is the credential set handed to each provider adapter at construction.
// An empty key makes that adapter fail fast without any network call.
type ProviderKeys struct {
	PrimaryAPIKey   string
	SecondaryAPIKey string
	NewsAPIKey      string
}

// ProviderKeys extracts the adapter credentials.
func (c *Config) ProviderKeys() ProviderKeys {
	return ProviderKeys{
		PrimaryAPIKey:   c.Providers.Finnhub.APIKey,
		SecondaryAPIKey: c.Providers.AlphaVantage.APIKey,
		NewsAPIKey:      c.Providers.NewsAPI.APIKey,
	}
}

// Load reads and parses a YAML configuration file. Unset fields take their `default` tag.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes over the defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	c, err := decode(b)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := decode(b)
	if err != nil {
		return nil, err
	}

	c.applyEnv()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func decode(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		c.Server.Port = util.ParseIntDefault(v, c.Server.Port)
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Providers.Finnhub.APIKey = v
	}
	if v := os.Getenv("ALPHA_VANTAGE_API_KEY"); v != "" {
		c.Providers.AlphaVantage.APIKey = v
	}
	if v := os.Getenv("NEWS_API_KEY"); v != "" {
		c.Providers.NewsAPI.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("AUTH_JWT_SECRET"); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv("AUTH_URL"); v != "" {
		c.Auth.URL = strings.TrimRight(v, "/")
	}
	if v := os.Getenv("AUTH_ANON_KEY"); v != "" {
		c.Auth.AnonKey = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
		c.ClickHouse.Enabled = true
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	switch c.Cache.Backend {
	case "memory", "redis", "layered":
	default:
		return fmt.Errorf("cache.backend must be 'memory', 'redis' or 'layered', got '%s'", c.Cache.Backend)
	}
	ttls := map[string]time.Duration{
		"cache.ttl.primary_quote":      c.Cache.TTL.PrimaryQuote,
		"cache.ttl.secondary_quote":    c.Cache.TTL.SecondaryQuote,
		"cache.ttl.primary_intraday":   c.Cache.TTL.PrimaryIntraday,
		"cache.ttl.secondary_intraday": c.Cache.TTL.SecondaryIntraday,
		"cache.ttl.demo":               c.Cache.TTL.Demo,
		"cache.ttl.signals_response":   c.Cache.TTL.SignalsResponse,
		"signals.cooldown":             c.Signals.Cooldown,
	}
	for name, d := range ttls {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Signals.MaxSymbols <= 0 {
		return errors.New("signals.max_symbols must be positive")
	}
	if c.Stream.MinInterval <= 0 || c.Stream.DefaultInterval < c.Stream.MinInterval {
		return errors.New("stream.default_interval must be >= stream.min_interval > 0")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}
