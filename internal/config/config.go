package config

import (
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const DefaultGeoapifyBaseURL = "https://api.geoapify.com/v2/places"

type Config struct {
	GeoapifyAPIKey  string `env:"GEOAPIFY_API_KEY"`
	GeoapifyBaseURL string `envDefault:"https://api.geoapify.com/v2/places" env:"GEOAPIFY_BASE_URL" validate:"required,url"`

	LogLevel string `envDefault:"info" env:"LOG_LEVEL" validate:"oneof=debug info warn warning error fatal panic"`
	JSONLog  bool   `envDefault:"true" env:"JSON_LOG"`

	// Optional AWS integrations; empty disables them
	HistoryTable string        `env:"ATTRACTIONS_HISTORY_TABLE"`
	HistoryTTL   time.Duration `envDefault:"720h" env:"HISTORY_TTL" validate:"min=1h"`
	S3BucketName string        `env:"S3_BUCKET_NAME"`
}

// LoadConfig reads .env.local and .env when present, then the process environment
func LoadConfig() (*Config, error) {
	godotenv.Load(".env.local")
	godotenv.Load()

	return parse(env.Options{})
}

func parse(opts env.Options) (*Config, error) {
	var c Config

	err := env.ParseWithOptions(&c, opts)
	if err != nil {
		return nil, err
	}

	err = validator.New().Struct(c)
	if err != nil {
		return nil, err
	}

	return &c, nil
}

// HistoryEnabled reports whether lookups should be recorded in DynamoDB
func (c *Config) HistoryEnabled() bool {
	return c.HistoryTable != ""
}

// MaskedAPIKey returns the first five characters of the key for log output
func (c *Config) MaskedAPIKey() string {
	if len(c.GeoapifyAPIKey) <= 5 {
		return c.GeoapifyAPIKey + "..."
	}
	return c.GeoapifyAPIKey[:5] + "..."
}
