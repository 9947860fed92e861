package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables consulted by Load. RDS_* names come first in each
// chain so Elastic Beanstalk's managed database wins over local settings.
const (
	EnvRDSHost     = "RDS_DB_HOST"
	EnvDBHost      = "DB_HOST"
	EnvRDSPort     = "RDS_DB_PORT"
	EnvDBPort      = "DB_PORT"
	EnvRDSUser     = "RDS_DB_USER"
	EnvDBUser      = "DB_USER"
	EnvRDSPassword = "RDS_DB_PASSWORD"
	EnvDBPass      = "DB_PASS"
	EnvRDSName     = "RDS_DB_NAME"
	EnvDBName      = "DB_NAME"

	EnvAppDebug         = "APP_DEBUG"
	EnvLogLevel         = "LOG_LEVEL"
	EnvAppEnv           = "APP_ENV"
	EnvEnableCloudWatch = "ENABLE_CLOUDWATCH"

	EnvSNSTopicARN = "SNS_TOPIC_ARN"
	EnvAWSRegion   = "AWS_REGION"
	EnvSentryDSN   = "SENTRY_DSN"

	EnvElasticBeanstalk = "ELASTICBEANSTALK_ENVIRONMENT_NAME"
	EnvDocker           = "DOCKER"

	EnvConnectTimeout = "DB_CONNECT_TIMEOUT"
	EnvAlertInterval  = "ALERT_INTERVAL"

	EnvPort           = "PORT"
	EnvRateLimitRPS   = "RATE_LIMIT_RPS"
	EnvRateLimitBurst = "RATE_LIMIT_BURST"
)

// LookupFirst returns the first non-empty value among keys, trimmed of
// surrounding whitespace.
func LookupFirst(keys ...string) (string, bool) {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value, true
		}
	}
	return "", false
}

// lookupSecret behaves like LookupFirst but keeps the value untouched, since
// whitespace may be significant in a password.
func lookupSecret(keys ...string) (string, bool) {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value, true
		}
	}
	return "", false
}

// ParseBool reports whether raw is one of 1, true, on or yes (any case).
// Every other value, including garbage, is false.
func ParseBool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "on", "yes":
		return true
	default:
		return false
	}
}

// DetectDeployment inspects the environment for hosting markers.
func DetectDeployment() Deployment {
	name, eb := LookupFirst(EnvElasticBeanstalk)
	_, docker := LookupFirst(EnvDocker)
	return Deployment{
		ElasticBeanstalk: eb,
		EnvironmentName:  name,
		Docker:           docker,
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if v, ok := LookupFirst(EnvRDSHost, EnvDBHost); ok {
		cfg.Database.Host = v
	}
	if v, ok := LookupFirst(EnvRDSUser, EnvDBUser); ok {
		cfg.Database.User = v
	}
	if v, ok := lookupSecret(EnvRDSPassword, EnvDBPass); ok {
		cfg.Database.Password = v
	}
	if v, ok := LookupFirst(EnvRDSName, EnvDBName); ok {
		cfg.Database.Name = v
	}
	if v, ok := LookupFirst(EnvRDSPort, EnvDBPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid database port %q: %w", v, err)
		}
		cfg.Database.Port = port
	}

	if v, ok := LookupFirst(EnvAppDebug); ok {
		cfg.App.Debug = ParseBool(v)
	}
	if v, ok := LookupFirst(EnvLogLevel); ok {
		cfg.App.LogLevel = v
	}
	if v, ok := LookupFirst(EnvAppEnv); ok {
		cfg.App.Env = v
	}
	if v, ok := LookupFirst(EnvEnableCloudWatch); ok {
		cfg.App.EnableCloudWatch = ParseBool(v)
	}

	if v, ok := LookupFirst(EnvSNSTopicARN); ok {
		cfg.Notify.SNSTopicARN = v
	}
	if v, ok := LookupFirst(EnvAWSRegion); ok {
		cfg.Notify.AWSRegion = v
	}
	if v, ok := LookupFirst(EnvSentryDSN); ok {
		cfg.Notify.SentryDSN = v
	}

	cfg.Database.ConnectTimeout = durationFromEnv(EnvConnectTimeout, cfg.Database.ConnectTimeout)
	cfg.Notify.AlertInterval = durationFromEnv(EnvAlertInterval, cfg.Notify.AlertInterval)

	cfg.Deployment = DetectDeployment()

	if v, ok := LookupFirst(EnvPort); ok {
		cfg.HTTP.Port = v
	}
	if v, ok := LookupFirst(EnvRateLimitRPS); ok {
		if value, err := strconv.ParseFloat(v, 64); err == nil && value >= 0 {
			cfg.HTTP.RateLimitRPS = value
		}
	}
	if v, ok := LookupFirst(EnvRateLimitBurst); ok {
		if value, err := strconv.Atoi(v); err == nil && value >= 0 {
			cfg.HTTP.RateLimitBurst = value
		}
	}

	return nil
}

// durationFromEnv returns fallback when key is unset or not a positive duration.
func durationFromEnv(key string, fallback time.Duration) time.Duration {
	v, ok := LookupFirst(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
