package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port         int               `yaml:"port"`
		MaxBodyBytes int64             `yaml:"maxBodyBytes"`
		TrustProxy   bool              `yaml:"trustProxy"`
		CORSOrigins  []string          `yaml:"corsOrigins"`
		APIKeys      map[string]string `yaml:"apiKeys"`
	} `yaml:"server"`

	Store struct {
		URI string `yaml:"uri"`
	} `yaml:"store"`

	Classifier struct {
		APIKey    string        `yaml:"apiKey"`
		BaseURL   string        `yaml:"baseURL"`
		Model     string        `yaml:"model"`
		MaxTokens int           `yaml:"maxTokens"`
		Timeout   time.Duration `yaml:"timeout"`
	} `yaml:"classifier"`

	Fetch struct {
		Timeout           time.Duration `yaml:"timeout"`
		MaxRedirects      int           `yaml:"maxRedirects"`
		MaxBodyBytes      int64         `yaml:"maxBodyBytes"`
		UserAgent         string        `yaml:"userAgent"`
		BlockPrivateHosts bool          `yaml:"blockPrivateHosts"`
	} `yaml:"fetch"`

	Prompt struct {
		MaxContentChars int `yaml:"maxContentChars"`
	} `yaml:"prompt"`

	RateLimit struct {
		Max    int           `yaml:"max"`
		Window time.Duration `yaml:"window"`
	} `yaml:"rateLimit"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// DefaultUserAgent identifies the URL fetcher to target sites.
const DefaultUserAgent = "Datashield-URLAnalyzer/1.0 (+phishing risk check)"

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = 3002
	cfg.Server.MaxBodyBytes = 5 << 20
	cfg.Server.CORSOrigins = []string{"*"}
	cfg.Classifier.BaseURL = "https://api.openai.com/v1"
	cfg.Classifier.Model = "gpt-3.5-turbo"
	cfg.Classifier.MaxTokens = 256
	cfg.Classifier.Timeout = 10 * time.Second
	cfg.Fetch.Timeout = 5 * time.Second
	cfg.Fetch.MaxRedirects = 5
	cfg.Fetch.MaxBodyBytes = 2 << 20
	cfg.Fetch.UserAgent = DefaultUserAgent
	cfg.Prompt.MaxContentChars = 4000
	cfg.RateLimit.Max = 100
	cfg.RateLimit.Window = 15 * time.Minute
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"
	return &cfg
}

// Load baca .env, file YAML (opsional), lalu override dari environment.
// A missing file at path is not an error; env-only deployments are the norm.
func Load(path string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, err
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads ENV_FILE if set, otherwise .env.local then .env.
// godotenv never overrides variables already present in the environment.
func loadEnvFiles() error {
	if envFile := os.Getenv("ENV_FILE"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			return fmt.Errorf("load env file %s: %w", envFile, err)
		}
		return nil
	}

	for _, f := range []string{".env.local", ".env"} {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := firstEnv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid PORT %q: %w", v, err)
		}
		cfg.Server.Port = port
	}
	if v := firstEnv("STORE_URI", "MONGODB_URI"); v != "" {
		cfg.Store.URI = v
	}
	if v := firstEnv("OPENAI_API_KEY", "API_KEY"); v != "" {
		cfg.Classifier.APIKey = v
	}
	if v := firstEnv("OPENAI_BASE_URL"); v != "" {
		cfg.Classifier.BaseURL = v
	}
	if v := firstEnv("OPENAI_MODEL"); v != "" {
		cfg.Classifier.Model = v
	}
	if v := firstEnv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := firstEnv("LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := firstEnv("RATE_LIMIT_MAX"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_MAX %q: %w", v, err)
		}
		cfg.RateLimit.Max = n
	}
	if v := firstEnv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_WINDOW %q: %w", v, err)
		}
		cfg.RateLimit.Window = d
	}
	return nil
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// Validate rejects settings the server cannot start with. A missing API key
// is allowed: the classifier reports it per request.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	if strings.TrimSpace(c.Store.URI) == "" {
		errs = append(errs, errors.New("store.uri is required (STORE_URI)"))
	}
	if c.Classifier.Timeout <= 0 {
		errs = append(errs, errors.New("classifier.timeout must be positive"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if c.Fetch.MaxRedirects < 0 {
		errs = append(errs, errors.New("fetch.maxRedirects must not be negative"))
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rateLimit.max and rateLimit.window must be positive"))
	}
	return errors.Join(errs...)
}
