package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"terrainhub/rules"
)

const DefaultPath = "./config/config.yml"

type Config struct {
	Server struct {
		Port         int      `yaml:"port"`
		AllowOrigins []string `yaml:"allowOrigins"`
		LogLevel     string   `yaml:"logLevel"`
	} `yaml:"server"`

	Database struct {
		URI    string `yaml:"uri"`
		Driver string `yaml:"driver"` // mongo or memory
	} `yaml:"database"`

	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
		Expiry int    `yaml:"expiry"` // minutes
	} `yaml:"jwt"`

	Cognito struct {
		AppClientId     string `yaml:"appClientId"`
		AppClientSecret string `yaml:"appClientSecret"`
		UserPoolId      string `yaml:"userPoolId"`
		Region          string `yaml:"region"`
	} `yaml:"cognito"`

	Google struct {
		ClientID string `yaml:"clientId"`
	} `yaml:"google"`

	Gemini struct {
		ApiKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"gemini"`

	Sentry struct {
		DSN         string `yaml:"dsn"`
		Environment string `yaml:"environment"`
	} `yaml:"sentry"`

	Geocoder struct {
		BaseURL   string `yaml:"baseUrl"`
		UserAgent string `yaml:"userAgent"`
		TimeoutMs int    `yaml:"timeoutMs"`
	} `yaml:"geocoder"`

	Moderation struct {
		PatternScreening bool     `yaml:"patternScreening"`
		AIScreening      bool     `yaml:"aiScreening"`
		BannedWords      []string `yaml:"bannedWords"`
	} `yaml:"moderation"`

	Gamification rules.Policy `yaml:"gamification"`

	RateLimit struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"rateLimit"`
}

// LoadConfig reads .env, the YAML file at path, then applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal yaml: %w", err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PathFromEnv returns CONFIG_PATH or the default location.
func PathFromEnv() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return DefaultPath
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MONGODB_URI"); v != "" {
		c.Database.URI = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWT.Secret = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Redis.Password = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.Google.ClientID = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.ApiKey = v
	}
	if v := os.Getenv("SENTRY_DSN"); v != "" {
		c.Sentry.DSN = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 1313
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if len(c.Server.AllowOrigins) == 0 {
		c.Server.AllowOrigins = []string{"http://localhost:3000"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mongo"
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 24 * 60
	}
	if c.Cognito.Region == "" {
		c.Cognito.Region = "eu-west-3"
	}
	if c.Gemini.Model == "" {
		c.Gemini.Model = "gemini-2.5-flash"
	}
	if c.Geocoder.BaseURL == "" {
		c.Geocoder.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if c.Geocoder.UserAgent == "" {
		c.Geocoder.UserAgent = "terrainhub/1.0"
	}
	if c.Geocoder.TimeoutMs == 0 {
		c.Geocoder.TimeoutMs = 5000
	}
	c.Gamification = c.Gamification.WithDefaults()
}

// Validate rejects configurations the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.JWT.Secret == "" {
		errs = append(errs, errors.New("jwt.secret is required"))
	}
	switch c.Database.Driver {
	case "mongo":
		if c.Database.URI == "" {
			errs = append(errs, errors.New("database.uri is required for the mongo driver"))
		}
	case "memory":
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", c.Database.Driver))
	}
	p := c.Gamification
	if p.ReportThreshold < 1 {
		errs = append(errs, errors.New("gamification.reportThreshold must be positive"))
	}
	if p.PointsPerLevel < 1 {
		errs = append(errs, errors.New("gamification.pointsPerLevel must be positive"))
	}
	if p.CommentPoints < 0 || p.CourtPoints < 0 || p.ReportPoints < 0 || p.RatingPoints < 0 {
		errs = append(errs, errors.New("gamification points must not be negative"))
	}
	if p.ConflictRetries < 1 {
		errs = append(errs, errors.New("gamification.conflictRetries must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
