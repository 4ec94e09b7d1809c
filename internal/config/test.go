package config

import "github.com/caarlos0/env/v11"

// TestConfig points tests at real backing services. Tests that need one skip
// when its variable is unset.
type TestConfig struct {
	TestPostgresDSN string `env:"TEST_POSTGRES_DSN"`
	TestMongoURI    string `env:"TEST_MONGO_URI"`
	TestRedisURL    string `env:"TEST_REDIS_URL"`
}

func LoadTest() (TestConfig, error) {
	var cfg TestConfig
	err := env.Parse(&cfg)
	return cfg, err
}
