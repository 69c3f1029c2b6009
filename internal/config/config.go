// Package config loads the runtime configuration of the service from
// environment variables.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// envPrefix is the prefix of every environment variable read by the service,
// e.g. WEB3HOOK_LOG_LEVEL.
const envPrefix = "web3hook"

// Config holds every tunable of the service. Only the Ethereum RPC endpoint
// is mandatory; everything else carries a production-ready default. Redis is
// optional: without an address the service runs with in-process storage and
// no durable checkpoint.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"web3hook-emit"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	EthereumRPCEndpoint  string        `envconfig:"ETHEREUM_RPC_ENDPOINT" required:"true"`
	EthereumPollInterval time.Duration `envconfig:"ETHEREUM_POLL_INTERVAL" default:"500ms"`

	FreeCreditQuota   int64         `envconfig:"FREE_CREDIT_QUOTA" default:"1000"`
	FetchConcurrency  int           `envconfig:"FETCH_CONCURRENCY" default:"8"`
	MaxProcessingTime time.Duration `envconfig:"MAX_PROCESSING_TIME" default:"5m"`

	WebhookTimeout  time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"5s"`
	WebhookRetryMax int           `envconfig:"WEBHOOK_RETRY_MAX" default:"2"`

	RedisAddress  string `envconfig:"REDIS_ADDRESS"`
	RedisUsername string `envconfig:"REDIS_USERNAME"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	err := envconfig.Process(envPrefix, &cfg)
	return cfg, err
}
