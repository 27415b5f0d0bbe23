package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	API     APIConfig     `yaml:"api"`
	Auth    AuthConfig    `yaml:"auth"`
	Polling PollingConfig `yaml:"polling"`
	Mock    MockConfig    `yaml:"mock"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	// File is where seochat writes its log. The TUI owns stdout, so console logging is not an option there.
	File string `yaml:"file"`
}

// APIConfig points the client at the SEO backend.
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// AuthConfig selects how bearer tokens are obtained.
//
//   - mode "static": Token is sent as-is (dev tokens printed by seomock, or a token pasted from the IdP)
//   - mode "client_credentials": OAuth2 client credentials grant against TokenURL
type AuthConfig struct {
	Mode         string   `yaml:"mode"`
	Token        string   `yaml:"token"`
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Audience     string   `yaml:"audience"`
	Scopes       []string `yaml:"scopes"`
}

// PollingConfig controls the job status loop.
type PollingConfig struct {
	Interval time.Duration `yaml:"interval"`
	// MaxErrors is the number of consecutive failed status checks after which a job is
	// treated as failed. 0 or less means keep polling.
	MaxErrors int `yaml:"max_errors"`
}

// MockConfig configures the local stand-in backend.
type MockConfig struct {
	Addr           string        `yaml:"addr"`
	JWTSecret      string        `yaml:"jwt_secret"`
	JWTIssuer      string        `yaml:"jwt_issuer"`
	JobDelay       time.Duration `yaml:"job_delay"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	// GeminiAPIKey switches suggestion generation from canned text to Gemini.
	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`
}

var (
	mu     sync.Mutex
	config *AppConfig
)

// Default returns the configuration used when no config.yaml is present.
func Default() AppConfig {
	return AppConfig{
		Logging: LoggingConfig{Level: "info", File: "seochat.log"},
		API:     APIConfig{BaseURL: "http://localhost:8000", Timeout: 10 * time.Second},
		Auth:    AuthConfig{Mode: "static", Scopes: []string{"openid", "profile", "email"}},
		Polling: PollingConfig{Interval: 2 * time.Second, MaxErrors: 5},
		Mock: MockConfig{
			Addr:           ":8000",
			JWTSecret:      "seomock-dev-secret",
			JWTIssuer:      "seomock",
			JobDelay:       3 * time.Second,
			AllowedOrigins: []string{"http://localhost:5173"},
			GeminiModel:    "gemini-2.5-flash",
		},
	}
}

// InitApp loads .env and config.yaml from the base path. A missing config.yaml is not an
// error; defaults and environment overrides apply.
func InitApp() {
	c, err := Load(filepath.Join(GetBasePath(), CONFIG_FILE))
	if err != nil {
		panic(err)
	}
	mu.Lock()
	config = c
	mu.Unlock()
}

// Load reads the yaml file at path on top of Default and applies environment overrides.
func Load(path string) (*AppConfig, error) {
	// load environment variables
	godotenv.Load(filepath.Join(filepath.Dir(path), ENV_FILE))

	c := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	applyEnv(&c)
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &c, nil
}

func GetConfig() AppConfig {
	mu.Lock()
	loaded := config != nil
	mu.Unlock()
	if !loaded {
		InitApp()
	}

	mu.Lock()
	defer mu.Unlock()
	return *config
}

// Set replaces the process-wide configuration. Commands use it after applying flag overrides.
func Set(c AppConfig) {
	mu.Lock()
	config = &c
	mu.Unlock()
}

// Validate checks the fields every command depends on.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url cannot be empty")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be > 0")
	}
	switch c.Auth.Mode {
	case "static", "client_credentials":
	default:
		return fmt.Errorf("unsupported auth.mode %q", c.Auth.Mode)
	}
	return nil
}

func applyEnv(c *AppConfig) {
	c.Logging.Level = getEnv("SEO_LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("SEO_LOG_FILE", c.Logging.File)
	c.API.BaseURL = getEnv("SEO_API_BASE_URL", c.API.BaseURL)
	c.Auth.Mode = getEnv("SEO_AUTH_MODE", c.Auth.Mode)
	c.Auth.Token = getEnv("SEO_API_TOKEN", c.Auth.Token)
	c.Auth.ClientID = getEnv("SEO_AUTH_CLIENT_ID", c.Auth.ClientID)
	c.Auth.ClientSecret = getEnv("SEO_AUTH_CLIENT_SECRET", c.Auth.ClientSecret)
	c.Auth.TokenURL = getEnv("SEO_AUTH_TOKEN_URL", c.Auth.TokenURL)
	c.Auth.Audience = getEnv("SEO_AUTH_AUDIENCE", c.Auth.Audience)
	c.Polling.MaxErrors = getEnvInt("SEO_POLL_MAX_ERRORS", c.Polling.MaxErrors)
	if d, err := time.ParseDuration(os.Getenv("SEO_POLL_INTERVAL")); err == nil && d > 0 {
		c.Polling.Interval = d
	}
	c.Mock.Addr = getEnv("SEOMOCK_ADDR", c.Mock.Addr)
	c.Mock.JWTSecret = getEnv("SEOMOCK_JWT_SECRET", c.Mock.JWTSecret)
	c.Mock.GeminiAPIKey = getEnv("SEOMOCK_GEMINI_API_KEY", c.Mock.GeminiAPIKey)
	c.Mock.GeminiModel = getEnv("SEOMOCK_GEMINI_MODEL", c.Mock.GeminiModel)
	if d, err := time.ParseDuration(os.Getenv("SEOMOCK_JOB_DELAY")); err == nil && d >= 0 {
		c.Mock.JobDelay = d
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return cwd
}
