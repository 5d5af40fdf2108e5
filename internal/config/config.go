package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config file location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML with environment
// overrides.
type FileConfig struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"logLevel"`

	DatabaseHostname string `yaml:"databaseHostname"`
	DatabasePort     string `yaml:"databasePort"`
	DatabaseName     string `yaml:"databaseName"`
	DatabaseUsername string `yaml:"databaseUsername"`
	DatabasePassword string `yaml:"databasePassword"`
	SSLMode          string `yaml:"sslMode"`

	OpenAIAPIKey    string `yaml:"openaiAPIKey"`
	OrganizationID  string `yaml:"organizationID"`
	OpenAIBaseURL   string `yaml:"openaiBaseURL"`
	GenerationModel string `yaml:"generationModel"`

	HistoryLimit       int `yaml:"historyLimit"`
	AskTimeoutSeconds  int `yaml:"askTimeoutSeconds"`
	MaxConcurrentAsks  int `yaml:"maxConcurrentAsks"`
	AskRateLimitPerMin int `yaml:"askRateLimitPerMinute"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`

	// TrustedProxies lists CIDRs/IPs whose forwarded headers are trusted
	// when resolving the client IP for rate limiting.
	TrustedProxies []string `yaml:"trustedProxies"`
}

// Load reads config from path (defaults to config.yaml). A missing file at
// the default path is tolerated for env-only deployments; environment
// variables always win over file values. Validation fails fast so a
// misconfigured process never starts serving.
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	case os.IsNotExist(err) && path == ConfigPath:
		// env-only deployment
	default:
		return cfg, fmt.Errorf("read config: %w", err)
	}

	// Override with environment variables
	if v := os.Getenv("PORT"); v != "" {
		cfg.Port = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("DATABASE_HOSTNAME"); v != "" {
		cfg.DatabaseHostname = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		cfg.DatabasePort = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.DatabaseName = v
	}
	if v := os.Getenv("DATABASE_USERNAME"); v != "" {
		cfg.DatabaseUsername = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.DatabasePassword = v
	}
	if v := os.Getenv("SSLMODE"); v != "" {
		cfg.SSLMode = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		cfg.OpenAIAPIKey = v
	}
	if v := os.Getenv("ORGANIZATION_ID"); v != "" {
		cfg.OrganizationID = v
	}
	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.OpenAIBaseURL = v
	}
	if v := os.Getenv("GENERATION_MODEL"); v != "" {
		cfg.GenerationModel = v
	}
	if v := os.Getenv("HISTORY_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.HistoryLimit = n
		}
	}
	if v := os.Getenv("ASK_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AskTimeoutSeconds = n
		}
	}
	if v := os.Getenv("MAX_CONCURRENT_ASKS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConcurrentAsks = n
		}
	}
	if v := os.Getenv("ASK_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.AskRateLimitPerMin = n
		}
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}

	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = "8000"
	}
	if cfg.GenerationModel == "" {
		cfg.GenerationModel = "gpt-4o"
	}
	if cfg.HistoryLimit <= 0 {
		cfg.HistoryLimit = 10
	}
	if cfg.AskTimeoutSeconds <= 0 {
		cfg.AskTimeoutSeconds = 90
	}
	if cfg.MaxConcurrentAsks <= 0 {
		cfg.MaxConcurrentAsks = 8
	}
}

func validateConfig(cfg FileConfig) error {
	if cfg.DatabaseHostname == "" {
		return errors.New("config: databaseHostname is required (set in config.yaml or DATABASE_HOSTNAME)")
	}
	if cfg.DatabasePort == "" {
		return errors.New("config: databasePort is required (set in config.yaml or DATABASE_PORT)")
	}
	if cfg.DatabaseName == "" {
		return errors.New("config: databaseName is required (set in config.yaml or DATABASE_NAME)")
	}
	if cfg.DatabaseUsername == "" {
		return errors.New("config: databaseUsername is required (set in config.yaml or DATABASE_USERNAME)")
	}
	if cfg.DatabasePassword == "" {
		return errors.New("config: databasePassword is required (set in config.yaml or DATABASE_PASSWORD)")
	}
	if cfg.SSLMode == "" {
		return errors.New("config: sslMode is required (set in config.yaml or SSLMODE)")
	}
	if cfg.OpenAIAPIKey == "" {
		return errors.New("config: openaiAPIKey is required (set in config.yaml or OPENAI_API_KEY)")
	}
	if cfg.OrganizationID == "" {
		return errors.New("config: organizationID is required (set in config.yaml or ORGANIZATION_ID)")
	}
	if cfg.AskRateLimitPerMin > 0 && cfg.RedisAddr == "" {
		return errors.New("config: askRateLimitPerMinute requires redisAddr (or REDIS_ADDR)")
	}
	return nil
}

// DatabaseDSN assembles the Postgres connection URI from the discrete
// credential fields.
func (cfg FileConfig) DatabaseDSN() string {
	uri := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.DatabaseUsername, cfg.DatabasePassword),
		Host:     cfg.DatabaseHostname + ":" + cfg.DatabasePort,
		Path:     "/" + cfg.DatabaseName,
		RawQuery: "sslmode=" + cfg.SSLMode,
	}
	return uri.String()
}
