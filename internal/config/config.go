package config

import (
	"fmt"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Addr        string `env:"ADDR" envDefault:":3000"`
	DatabaseDSN string `env:"DSN"`
	AuthSecret  string `env:"AUTH_SECRET" envDefault:"dev-secret-key"`

	// S3-compatible storage (Cloudflare R2 by default)
	AccountID       string `env:"ACCOUNT_ID"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	AccessKeySecret string `env:"ACCESS_KEY_SECRET"`
	BucketName      string `env:"BUCKET_NAME"`
	S3Endpoint      string `env:"S3_ENDPOINT"` // overrides the R2 endpoint derived from ACCOUNT_ID
	S3Region        string `env:"S3_REGION" envDefault:"auto"`
	SignedURLTTL    int    `env:"SIGNED_URL_TTL_SECONDS" envDefault:"900"`

	// External restoration model
	ModelAPIURL  string `env:"MODEL_API_URL"`
	ModelAPIKey  string `env:"MODEL_API_KEY"`
	ModelName    string `env:"MODEL_NAME" envDefault:"image-restore-preview"`
	ModelVersion string `env:"MODEL_VERSION" envDefault:"2.5"`

	// OAuth login
	GoogleKey    string `env:"GOOGLE_KEY"`
	GoogleSecret string `env:"GOOGLE_SECRET"`
	CallbackURL  string `env:"OAUTH_CALLBACK_URL" envDefault:"http://localhost:3000/auth/google/callback"`

	MaxUploadMB int `env:"MAX_UPLOAD_MB" envDefault:"25"`
}

// New loads configuration from .env (if present) and the environment.
func New() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// S3BaseEndpoint returns the storage endpoint, defaulting to the
// Cloudflare R2 endpoint for the configured account.
func (c *Config) S3BaseEndpoint() string {
	if c.S3Endpoint != "" {
		return c.S3Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

// MaxUploadBytes is the per-file upload cap in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) * 1024 * 1024
}
