// Package config loads typed application configuration from environment
// variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// values come from an optional .env file plus the process environment,
// are parsed into any annotated struct, and each configuration type is
// cached so it is parsed at most once per process.
//
//	type StripeConfig struct {
//	    APIKey        string `env:"STRIPE_API_KEY,required"`
//	    WebhookSecret string `env:"STRIPE_WEBHOOK_SECRET,required"`
//	}
//
//	var cfg StripeConfig
//	config.MustLoad(&cfg)
package config
