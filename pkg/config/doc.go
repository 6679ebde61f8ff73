// Package config loads typed configuration from environment variables.
//
// It combines github.com/joho/godotenv (optional .env files) with
// github.com/caarlos0/env/v11 (struct tags). Every component of the module
// declares its own config struct with `env` tags, e.g. pg.Config reads PG_*,
// redis.Config reads REDIS_* and provision.Config reads PROVISION_*; the
// binary loads each of them through Load, which caches one parsed copy per type.
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg)
package config
