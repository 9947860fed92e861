// Package config resolves the database bootstrap settings from multiple
// sources (YAML file, .env file, environment variables, CLI flags). Each
// connection value walks a fallback chain: the RDS_* variable injected by
// Elastic Beanstalk, then the generic variable, then a built-in default.
// Values are resolved once and treated as immutable afterwards.
package config
