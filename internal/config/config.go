package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// EnvProduction is the APP_ENV value that hides connection details from users.
	EnvProduction = "production"

	defaultDBHost         = "localhost"
	defaultDBPort         = 3306
	defaultDBUser         = "root"
	defaultDBName         = "library"
	defaultLogLevel       = "info"
	defaultAWSRegion      = "us-east-1"
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

// Config aggregates the values resolved for the lifetime of the process.
// Precedence: CLI flags > RDS_* environment > generic environment > YAML config > Defaults
type Config struct {
	Database   Database
	App        App
	Notify     Notify
	Deployment Deployment
	HTTP       HTTP
}

// Database holds MySQL connection parameters.
type Database struct {
	Host           string
	Port           int
	User           string
	Password       string
	Name           string
	ConnectTimeout time.Duration
}

// App holds application-wide switches.
type App struct {
	Debug            bool
	LogLevel         string
	Env              string
	EnableCloudWatch bool
}

// Notify configures where connection-failure alerts are sent.
type Notify struct {
	SNSTopicARN   string
	AWSRegion     string
	SentryDSN     string
	AlertInterval time.Duration
}

// Enabled reports whether at least one alert sink is configured.
func (n Notify) Enabled() bool {
	return n.SNSTopicARN != "" || n.SentryDSN != ""
}

// Deployment describes the detected hosting environment.
type Deployment struct {
	ElasticBeanstalk bool
	EnvironmentName  string
	Docker           bool
}

// HTTP configures the health server started by the serve command.
type HTTP struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
}

// IsProduction reports whether APP_ENV selects production behaviour.
func (c Config) IsProduction() bool {
	return c.App.Env == EnvProduction
}

// Redacted returns a copy that is safe to log.
func (c Config) Redacted() Config {
	out := c
	if out.Database.Password != "" {
		out.Database.Password = "****"
	}
	if out.Notify.SentryDSN != "" {
		out.Notify.SentryDSN = "****"
	}
	return out
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Database yamlDatabase `yaml:"database"`
	App      yamlApp      `yaml:"app"`
	Notify   yamlNotify   `yaml:"notify"`
	HTTP     yamlHTTP     `yaml:"http"`
}

type yamlDatabase struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	Password       string `yaml:"password"`
	Name           string `yaml:"name"`
	ConnectTimeout string `yaml:"connect_timeout"`
}

type yamlApp struct {
	Debug            *bool  `yaml:"debug"`
	LogLevel         string `yaml:"log_level"`
	Env              string `yaml:"env"`
	EnableCloudWatch *bool  `yaml:"enable_cloudwatch"`
}

type yamlNotify struct {
	SNSTopicARN   string `yaml:"sns_topic_arn"`
	AWSRegion     string `yaml:"aws_region"`
	SentryDSN     string `yaml:"sentry_dsn"`
	AlertInterval string `yaml:"alert_interval"`
}

type yamlHTTP struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	EnvFile        string
	DBHost         *string
	DBPort         *int
	DBUser         *string
	DBName         *string
	AppEnv         *string
	LogLevel       *string
	Port           *string
	ConnectTimeout *time.Duration
}

// Load resolves configuration from multiple sources with precedence:
// CLI flags > RDS_* environment > generic environment > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// .env never overrides variables already present in the process
	if overrides != nil && overrides.EnvFile != "" {
		if err := godotenv.Load(overrides.EnvFile); err != nil {
			return Config{}, fmt.Errorf("load env file: %w", err)
		}
	}

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	cfg.App.LogLevel = strings.ToLower(cfg.App.LogLevel)

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Database: Database{
			Host:           defaultDBHost,
			Port:           defaultDBPort,
			User:           defaultDBUser,
			Name:           defaultDBName,
			ConnectTimeout: 10 * time.Second,
		},
		App: App{
			Debug:            false,
			LogLevel:         defaultLogLevel,
			Env:              EnvProduction,
			EnableCloudWatch: true,
		},
		Notify: Notify{
			AWSRegion:     defaultAWSRegion,
			AlertInterval: time.Minute,
		},
		HTTP: HTTP{
			Port:                 defaultPort,
			ShutdownGracePeriod:  10 * time.Second,
			ReadHeaderTimeout:    5 * time.Second,
			WriteTimeout:         15 * time.Second,
			IdleTimeout:          60 * time.Second,
			EnableRequestLogging: true,
			RateLimitRPS:         defaultRateLimitRPS,
			RateLimitBurst:       defaultRateLimitBurst,
		},
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	db := yamlCfg.Database
	setString(&cfg.Database.Host, db.Host)
	setString(&cfg.Database.User, db.User)
	setString(&cfg.Database.Password, db.Password)
	setString(&cfg.Database.Name, db.Name)
	if db.Port != 0 {
		cfg.Database.Port = db.Port
	}

	app := yamlCfg.App
	setString(&cfg.App.LogLevel, app.LogLevel)
	setString(&cfg.App.Env, app.Env)
	if app.Debug != nil {
		cfg.App.Debug = *app.Debug
	}
	if app.EnableCloudWatch != nil {
		cfg.App.EnableCloudWatch = *app.EnableCloudWatch
	}

	n := yamlCfg.Notify
	setString(&cfg.Notify.SNSTopicARN, n.SNSTopicARN)
	setString(&cfg.Notify.AWSRegion, n.AWSRegion)
	setString(&cfg.Notify.SentryDSN, n.SentryDSN)

	h := yamlCfg.HTTP
	setString(&cfg.HTTP.Port, h.Port)
	if h.EnableRequestLogging != nil {
		cfg.HTTP.EnableRequestLogging = *h.EnableRequestLogging
	}
	if h.RateLimit.RPS != nil {
		cfg.HTTP.RateLimitRPS = *h.RateLimit.RPS
	}
	if h.RateLimit.Burst != nil {
		cfg.HTTP.RateLimitBurst = *h.RateLimit.Burst
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"database.connect_timeout", db.ConnectTimeout, &cfg.Database.ConnectTimeout},
		{"notify.alert_interval", n.AlertInterval, &cfg.Notify.AlertInterval},
		{"http.shutdown_grace_period", h.ShutdownGracePeriod, &cfg.HTTP.ShutdownGracePeriod},
		{"http.read_header_timeout", h.ReadHeaderTimeout, &cfg.HTTP.ReadHeaderTimeout},
		{"http.write_timeout", h.WriteTimeout, &cfg.HTTP.WriteTimeout},
		{"http.idle_timeout", h.IdleTimeout, &cfg.HTTP.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		value, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		*d.dst = value
	}

	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	setStringPtr(&cfg.Database.Host, overrides.DBHost)
	setStringPtr(&cfg.Database.User, overrides.DBUser)
	setStringPtr(&cfg.Database.Name, overrides.DBName)
	setStringPtr(&cfg.App.Env, overrides.AppEnv)
	setStringPtr(&cfg.App.LogLevel, overrides.LogLevel)
	setStringPtr(&cfg.HTTP.Port, overrides.Port)

	if overrides.DBPort != nil && *overrides.DBPort > 0 {
		cfg.Database.Port = *overrides.DBPort
	}
	if overrides.ConnectTimeout != nil && *overrides.ConnectTimeout > 0 {
		cfg.Database.ConnectTimeout = *overrides.ConnectTimeout
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	var errs []error
	if cfg.Database.Host == "" {
		errs = append(errs, errors.New("database host cannot be empty"))
	}
	if cfg.Database.User == "" {
		errs = append(errs, errors.New("database user cannot be empty"))
	}
	if cfg.Database.Name == "" {
		errs = append(errs, errors.New("database name cannot be empty"))
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errs = append(errs, fmt.Errorf("database port must be between 1 and 65535, got %d", cfg.Database.Port))
	}
	if cfg.Database.ConnectTimeout <= 0 {
		errs = append(errs, errors.New("connect timeout must be positive"))
	}
	if cfg.Notify.AlertInterval <= 0 {
		errs = append(errs, errors.New("alert interval must be positive"))
	}
	if cfg.HTTP.RateLimitRPS < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_RPS must be >= 0"))
	}
	if cfg.HTTP.RateLimitBurst < 0 {
		errs = append(errs, errors.New("RATE_LIMIT_BURST must be >= 0"))
	}
	return errors.Join(errs...)
}

func setString(dst *string, value string) {
	if value != "" {
		*dst = value
	}
}

func setStringPtr(dst *string, value *string) {
	if value != nil && *value != "" {
		*dst = *value
	}
}
