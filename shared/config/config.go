package config

import (
	"fmt"
	"os"
	"time"

	"flyticker/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Site       models.LocationProfile `yaml:"site"`
	Forecast   ForecastConfig         `yaml:"forecast"`
	LLM        LLMConfig              `yaml:"llm"`
	Email      EmailConfig            `yaml:"email"`
	Storage    StorageConfig          `yaml:"storage"`
	Monitoring MonitoringConfig       `yaml:"monitoring"`
	Web        WebConfig              `yaml:"web"`
	Schedule   string                 `yaml:"schedule"`
}

type ForecastConfig struct {
	APIURL        string `yaml:"api_url" validate:"required,url"`
	PrimaryModel  string `yaml:"primary_model" validate:"required"`
	FallbackModel string `yaml:"fallback_model"` // empty disables the hybrid merge
	Days          int    `yaml:"days" validate:"min=1,max=7"`
	Timezone      string `yaml:"timezone" validate:"required"`
	TimeoutSecs   int    `yaml:"timeout_seconds" validate:"min=1"`

	FlightHoursStart int `yaml:"flight_hours_start" validate:"min=0,max=23"`
	FlightHoursEnd   int `yaml:"flight_hours_end" validate:"min=1,max=24,gtfield=FlightHoursStart"`

	// UpperAir enables the additional pressure-level request.
	UpperAir bool `yaml:"upper_air"`
}

func (f ForecastConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

type LLMConfig struct {
	APIURL      string  `yaml:"api_url" validate:"required,url"`
	APIKey      string  `yaml:"api_key" env:"OPENAI_API_KEY" validate:"required"`
	Model       string  `yaml:"model" validate:"required"`
	Temperature float64 `yaml:"temperature" validate:"min=0,max=2"`
	MaxRetries  int     `yaml:"max_retries" validate:"min=1"`
	TimeoutSecs int     `yaml:"timeout_seconds" validate:"min=1"`
	// BaseDelaySecs is the backoff base; attempt n waits base*2^n (doubled
	// again on rate limits).
	BaseDelaySecs int `yaml:"base_delay_seconds" validate:"min=1"`
}

func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSecs) * time.Second
}

func (l LLMConfig) BaseDelay() time.Duration {
	return time.Duration(l.BaseDelaySecs) * time.Second
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Sender     string `yaml:"sender" env:"EMAIL_SENDER"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	Recipient  string `yaml:"recipient" env:"EMAIL_RECIPIENT"`
}

type StorageConfig struct {
	// DataDir is the project-local data directory.
	DataDir string `yaml:"data_dir" validate:"required"`
	// EphemeralDir is checked first on reads and written on serverless-style
	// deployments where only /tmp is writable.
	EphemeralDir string `yaml:"ephemeral_dir"`
	// CacheTTLSecs bounds the in-memory weather cache freshness.
	CacheTTLSecs int `yaml:"cache_ttl_seconds" validate:"min=1"`
}

func (s StorageConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSecs) * time.Second
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

type WebConfig struct {
	Port int `yaml:"port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Email.Sender == "" {
		cfg.Email.Sender = os.Getenv("EMAIL_SENDER")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}
	if cfg.Email.Recipient == "" {
		cfg.Email.Recipient = os.Getenv("EMAIL_RECIPIENT")
	}
	if cfg.Email.SMTPServer == "" {
		cfg.Email.SMTPServer = os.Getenv("EMAIL_SMTP_SERVER")
	}

	cfg.applyDefaults()

	if err := cfg.validateAll(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Forecast.APIURL == "" {
		c.Forecast.APIURL = "https://api.open-meteo.com/v1/forecast"
	}
	if c.Forecast.PrimaryModel == "" {
		c.Forecast.PrimaryModel = "meteoswiss_icon_ch1"
	}
	if c.Forecast.FallbackModel == "" {
		c.Forecast.FallbackModel = "icon_seamless"
	}
	if c.Forecast.Days == 0 {
		c.Forecast.Days = 2
	}
	if c.Forecast.Days > 7 {
		// API horizon cap
		c.Forecast.Days = 7
	}
	if c.Forecast.Timezone == "" {
		c.Forecast.Timezone = "Europe/Zurich"
	}
	if c.Forecast.TimeoutSecs == 0 {
		c.Forecast.TimeoutSecs = 30
	}
	if c.Forecast.FlightHoursStart == 0 && c.Forecast.FlightHoursEnd == 0 {
		c.Forecast.FlightHoursStart = 9
		c.Forecast.FlightHoursEnd = 18
	}

	if c.LLM.APIURL == "" {
		c.LLM.APIURL = "https://api.openai.com/v1/chat/completions"
	}
	if c.LLM.Model == "" {
		c.LLM.Model = "gpt-4o-mini"
	}
	if c.LLM.Temperature == 0 {
		c.LLM.Temperature = 0.3
	}
	if c.LLM.MaxRetries == 0 {
		c.LLM.MaxRetries = 3
	}
	if c.LLM.TimeoutSecs == 0 {
		c.LLM.TimeoutSecs = 60
	}
	if c.LLM.BaseDelaySecs == 0 {
		c.LLM.BaseDelaySecs = 1
	}

	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}

	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Storage.EphemeralDir == "" {
		c.Storage.EphemeralDir = "/tmp"
	}
	if c.Storage.CacheTTLSecs == 0 {
		c.Storage.CacheTTLSecs = 300
	}

	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Web.Port == 0 {
		c.Web.Port = 5000
	}
	if c.Schedule == "" {
		c.Schedule = "0 0 7 * * *" // daily at 7 AM
	}
}

func (c *Config) validateAll() error {
	if c.Site.Name == "" {
		return fmt.Errorf("site name is required (site.name)")
	}
	if c.Site.Latitude == 0 || c.Site.Longitude == 0 {
		return fmt.Errorf("site coordinates are required (site.latitude and site.longitude)")
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM API key is required (set OPENAI_API_KEY or llm.api_key)")
	}
	if err := validate.Struct(c.Forecast); err != nil {
		return fmt.Errorf("forecast: %w", err)
	}
	if err := validate.Struct(c.LLM); err != nil {
		return fmt.Errorf("llm: %w", err)
	}
	if err := validate.Struct(c.Storage); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

// EmailConfigured reports whether all fields needed for SMTP delivery are set.
func (c *Config) EmailConfigured() bool {
	e := c.Email
	return e.SMTPServer != "" && e.Sender != "" && e.Password != "" && e.Recipient != ""
}
