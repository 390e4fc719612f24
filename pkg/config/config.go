package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// PeerConfig describes one remote analysis peer.
type PeerConfig struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	URL      string `yaml:"url"`
	Template string `yaml:"template"`
	Prompt   string `yaml:"prompt"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		RateLimit       float64       `yaml:"rate_limit"`
		RateBurst       int           `yaml:"rate_burst"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Peers       []PeerConfig `yaml:"peers"`
	Coordinator struct {
		CallTimeout       time.Duration `yaml:"call_timeout"`
		MaxResponseLength int           `yaml:"max_response_length"`
		ReloadTimeout     time.Duration `yaml:"reload_timeout"`
	} `yaml:"coordinator"`
	Decision struct {
		Weights    map[string]float64 `yaml:"weights"`
		Thresholds struct {
			Buy  float64 `yaml:"buy"`
			Sell float64 `yaml:"sell"`
		} `yaml:"thresholds"`
	} `yaml:"decision"`
	Risk struct {
		AccountBalance float64 `yaml:"account_balance"`
		RiskPerTrade   float64 `yaml:"risk_per_trade"`
		MaxExposure    float64 `yaml:"max_exposure"`
		HistoryDays    int     `yaml:"history_days"`
	} `yaml:"risk"`
	RiskPeer struct {
		Name string `yaml:"name"`
		Port int    `yaml:"port"`
	} `yaml:"risk_peer"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled          bool          `yaml:"enabled"`
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		Table            string        `yaml:"table"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`
	MarketData struct {
		SearchURL   string        `yaml:"search_url"`
		Timeout     time.Duration `yaml:"timeout"`
		RateLimit   float64       `yaml:"rate_limit"`
		RateBurst   int           `yaml:"rate_burst"`
		SearchLimit int           `yaml:"search_limit"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
	} `yaml:"marketdata"`
}

// Default returns a configuration that runs against five local peers with no
// optional backends.
func Default() *Config {
	c := &Config{Environment: "development"}

	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 120 * time.Second
	c.Server.ShutdownTimeout = 10 * time.Second
	c.Server.RateLimit = 1
	c.Server.RateBurst = 5

	c.Log.Level = "info"
	c.Log.Format = "console"
	c.Log.Output = "stdout"

	c.Metrics.Enabled = true
	c.Metrics.Path = "/metrics"

	c.Peers = DefaultPeers()

	c.Coordinator.CallTimeout = 90 * time.Second
	c.Coordinator.MaxResponseLength = 3000
	c.Coordinator.ReloadTimeout = 5 * time.Second

	c.Decision.Weights = map[string]float64{
		"technical":   0.30,
		"fundamental": 0.25,
		"news":        0.20,
		"expert":      0.15,
		"risk":        0.10,
	}
	c.Decision.Thresholds.Buy = 0.3
	c.Decision.Thresholds.Sell = -0.3

	c.Risk.AccountBalance = 10_000_000
	c.Risk.RiskPerTrade = 0.02
	c.Risk.MaxExposure = 0.20
	c.Risk.HistoryDays = 90

	c.RiskPeer.Name = "risk_agent"
	c.RiskPeer.Port = 8005

	c.Redis.Host = "localhost"
	c.Redis.Port = 6379
	c.Redis.Prefix = ""

	c.Kafka.Topic = "trade-decisions"
	c.Kafka.RequiredAcks = -1
	c.Kafka.Compression = "gzip"
	c.Kafka.Producer.MaxAttempts = 3
	c.Kafka.Producer.Linger = 500 * time.Millisecond
	c.Kafka.Producer.BatchBytes = 1 << 20
	c.Kafka.Producer.BatchSize = 100
	c.Kafka.Producer.WriteTimeout = 10 * time.Second
	c.Kafka.Producer.ReadTimeout = 10 * time.Second

	c.ClickHouse.Host = "localhost"
	c.ClickHouse.Port = 9000
	c.ClickHouse.Database = "tradecouncil"
	c.ClickHouse.Table = "decisions"
	c.ClickHouse.User = "default"
	c.ClickHouse.DialTimeout = 5 * time.Second
	c.ClickHouse.ReadTimeout = 10 * time.Second
	c.ClickHouse.WriteTimeout = 10 * time.Second

	c.MarketData.SearchURL = "https://query2.finance.yahoo.com"
	c.MarketData.Timeout = 10 * time.Second
	c.MarketData.RateLimit = 2
	c.MarketData.RateBurst = 4
	c.MarketData.SearchLimit = 10
	c.MarketData.CacheTTL = 24 * time.Hour

	return c
}

// DefaultPeers returns the five analysis peers on localhost:8001-8005.
func DefaultPeers() []PeerConfig {
	return []PeerConfig{
		{
			Name:     "news_agent",
			Category: "news",
			URL:      "http://localhost:8001/",
			Template: "Analyze recent news and market sentiment for: {{.Ticker}} ({{.Market}})",
			Prompt:   "You are a news analyst. Summarize sentiment and return a JSON object with a \"signal\" field.",
		},
		{
			Name:     "fundamental_agent",
			Category: "fundamental",
			URL:      "http://localhost:8002/",
			Template: "Analyze the financial statements of: {{.Ticker}} ({{.Market}})",
			Prompt:   "You are a fundamental analyst. Evaluate valuation and return a JSON object with a \"signal\" field.",
		},
		{
			Name:     "technical_agent",
			Category: "technical",
			URL:      "http://localhost:8003/",
			Template: "Run a technical analysis for: {{.Ticker}} ({{.Market}})",
			Prompt:   "You are a technical analyst. Read the indicators and return a JSON object with a \"technical_signal\" field.",
		},
		{
			Name:     "expert_agent",
			Category: "expert",
			URL:      "http://localhost:8004/",
			Template: "Collect analyst and expert signals for: {{.Ticker}} ({{.Market}})",
			Prompt:   "You collect analyst ratings. Return a JSON object with a \"consensus_rating\" field.",
		},
		{
			Name:     "risk_agent",
			Category: "risk",
			URL:      "http://localhost:8005/",
			Template: "Assess the risk given the current account state for: {{.Ticker}} ({{.Market}})",
			Prompt:   "You are a risk manager. Size the position and return a JSON object with a \"signal\" field.",
		},
	}
}

// Load reads and parses a YAML configuration file on top of Default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return c, nil
}

// LoadWithEnv loads .env (if present), the YAML file (if path is non-empty)
// and then applies environment overrides.
func LoadWithEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	c := Default()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		c = loaded
	}

	if err := c.applyEnv(); err != nil {
		return nil, fmt.Errorf("env override: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ENVIRONMENT"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("AGENT_CALL_TIMEOUT"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return fmt.Errorf("AGENT_CALL_TIMEOUT: %w", err)
		}
		c.Coordinator.CallTimeout = d
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("REDIS_ADDR port: %w", err)
		}
		c.Redis.Enabled = true
		c.Redis.Host = host
		c.Redis.Port = p
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Enabled = true
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Enabled = true
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("ACCOUNT_BALANCE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("ACCOUNT_BALANCE: %w", err)
		}
		c.Risk.AccountBalance = f
	}
	for i := range c.Peers {
		key := strings.ToUpper(strings.TrimSuffix(c.Peers[i].Name, "_agent")) + "_AGENT_URL"
		if v := os.Getenv(key); v != "" {
			c.Peers[i].URL = v
		}
	}
	return nil
}

// parseSeconds accepts a bare number of seconds or a Go duration string.
func parseSeconds(v string) (time.Duration, error) {
	if n, err := strconv.ParseFloat(v, 64); err == nil {
		return time.Duration(n * float64(time.Second)), nil
	}
	return time.ParseDuration(v)
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return errors.New("environment is required")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be positive, got %d", c.Server.Port)
	}
	if len(c.Peers) == 0 {
		return errors.New("peers cannot be empty")
	}
	for i, p := range c.Peers {
		if p.Name == "" || p.URL == "" || p.Category == "" {
			return fmt.Errorf("peers[%d]: name, category and url are required", i)
		}
	}
	if c.Coordinator.CallTimeout <= 0 {
		return errors.New("coordinator.call_timeout must be positive")
	}
	if c.Coordinator.MaxResponseLength <= 0 {
		return errors.New("coordinator.max_response_length must be positive")
	}
	if c.Decision.Thresholds.Sell >= c.Decision.Thresholds.Buy {
		return fmt.Errorf("decision.thresholds: sell (%v) must be below buy (%v)",
			c.Decision.Thresholds.Sell, c.Decision.Thresholds.Buy)
	}
	if c.Risk.AccountBalance < 0 {
		return errors.New("risk.account_balance cannot be negative")
	}
	if c.Risk.RiskPerTrade < 0 || c.Risk.RiskPerTrade > 1 {
		return errors.New("risk.risk_per_trade must be within [0,1]")
	}
	if c.Risk.MaxExposure <= 0 || c.Risk.MaxExposure > 1 {
		return errors.New("risk.max_exposure must be within (0,1]")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return errors.New("kafka.brokers cannot be empty when kafka is enabled")
	}
	if c.ClickHouse.Enabled && c.ClickHouse.Host == "" {
		return errors.New("clickhouse.host is required when clickhouse is enabled")
	}
	return nil
}

// RedisAddr returns host:port for the configured Redis.
func (c *Config) RedisAddr() string {
	return net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port))
}
