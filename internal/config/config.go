package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/san-kum/hertz/internal/physics"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr            = ":8080"
	DefaultDBPath          = ".hertz/hertz.db"
	DefaultBodyLimit       = "64K"
	DefaultShutdownTimeout = 10 * time.Second
	DefaultWebhookTimeout  = 15 * time.Second
	DefaultMaxOrders       = 3
	DefaultOrderWindow     = time.Hour
	DefaultFPS             = 60
	DefaultRevealThreshold = 0.85
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Workflow  WorkflowConfig  `yaml:"workflow"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Clock     ClockConfig     `yaml:"clock"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	BodyLimit       string        `yaml:"body_limit"`
	AllowOrigins    []string      `yaml:"allow_origins"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// WorkflowConfig holds the n8n webhook endpoints. An empty URL disables the
// endpoint that depends on it.
type WorkflowConfig struct {
	OrderURL      string        `yaml:"order_url"`
	ProductionURL string        `yaml:"production_url"`
	CardsURL      string        `yaml:"cards_url"`
	WaitlistURL   string        `yaml:"waitlist_url"`
	Secret        string        `yaml:"secret"`
	Timeout       time.Duration `yaml:"timeout"`
}

type RateLimitConfig struct {
	MaxOrders int           `yaml:"max_orders"`
	Window    time.Duration `yaml:"window"`
}

type ClockConfig struct {
	FPS             int               `yaml:"fps"`
	RevealThreshold float64           `yaml:"reveal_threshold"`
	LeftAngle       float64           `yaml:"left_angle"`
	RightAngle      float64           `yaml:"right_angle"`
	Physics         physics.Constants `yaml:"physics"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            DefaultAddr,
			BodyLimit:       DefaultBodyLimit,
			AllowOrigins:    []string{"*"},
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		Database: DatabaseConfig{Path: DefaultDBPath},
		Workflow: WorkflowConfig{Timeout: DefaultWebhookTimeout},
		RateLimit: RateLimitConfig{
			MaxOrders: DefaultMaxOrders,
			Window:    DefaultOrderWindow,
		},
		Clock:   DefaultClock(),
		Logging: LoggingConfig{Level: "info", Format: "json"},
	}
}

func DefaultClock() ClockConfig {
	return ClockConfig{
		FPS:             DefaultFPS,
		RevealThreshold: DefaultRevealThreshold,
		LeftAngle:       physics.DefaultLeftAngle,
		RightAngle:      physics.DefaultRightAngle,
		Physics:         physics.DefaultConstants(),
	}
}

// Load reads a yaml file over the defaults and applies environment
// overrides. An empty path yields defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) applyEnvOverrides() {
	// PORT is what most hosting platforms inject
	if port := os.Getenv("PORT"); port != "" {
		c.Server.Addr = ":" + port
	}
	if addr := os.Getenv("HERTZ_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if path := os.Getenv("HERTZ_DB"); path != "" {
		c.Database.Path = path
	}
	if level := os.Getenv("HERTZ_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	if url := os.Getenv("N8N_ORDER_WEBHOOK_URL"); url != "" {
		c.Workflow.OrderURL = url
	}
	if url := os.Getenv("N8N_PRODUCTION_WEBHOOK_URL"); url != "" {
		c.Workflow.ProductionURL = url
	}
	if url := os.Getenv("N8N_CARDS_WEBHOOK_URL"); url != "" {
		c.Workflow.CardsURL = url
	}
	if url := os.Getenv("N8N_WAITLIST_WEBHOOK_URL"); url != "" {
		c.Workflow.WaitlistURL = url
	}
	if secret := os.Getenv("N8N_WEBHOOK_SECRET"); secret != "" {
		c.Workflow.Secret = secret
	}
	if n := os.Getenv("HERTZ_MAX_ORDERS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil {
			c.RateLimit.MaxOrders = v
		}
	}
}

// Validate checks the settings the server cannot run without. Missing
// webhook URLs are allowed; the affected endpoints answer 503.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path is required"))
	}
	if c.RateLimit.MaxOrders <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_orders must be positive, got %d", c.RateLimit.MaxOrders))
	}
	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("rate_limit.window must be positive, got %s", c.RateLimit.Window))
	}
	if c.Workflow.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("workflow.timeout must be positive, got %s", c.Workflow.Timeout))
	}
	if err := c.Clock.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c ClockConfig) Validate() error {
	if c.FPS <= 0 || c.FPS > 240 {
		return fmt.Errorf("clock.fps must be in 1..240, got %d", c.FPS)
	}
	if c.RevealThreshold <= 0 || c.RevealThreshold > 1 {
		return fmt.Errorf("clock.reveal_threshold must be in (0,1], got %v", c.RevealThreshold)
	}
	return c.Physics.Validate()
}

// NewClock builds a clock from the settings.
func (c ClockConfig) NewClock() *physics.Clock {
	return physics.NewClock(c.Physics, c.LeftAngle, c.RightAngle)
}
