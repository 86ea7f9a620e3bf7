// Package config provides type-safe environment variable loading with
// per-type caching. It parses env vars into struct fields via
// caarlos0/env tags and loads a local .env file on first use.
//
// Basic usage:
//
//	type RedisConfig struct {
//		ConnectionURL string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
//	}
//
//	var cfg RedisConfig
//	if err := config.Load(&cfg); err != nil {
//		log.Fatal(err)
//	}
//
// Each configuration type is loaded only once per process lifetime;
// later calls for the same type observe the cached value.
package config
