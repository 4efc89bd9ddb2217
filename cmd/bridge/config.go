package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/diasporabridge/bridge/internal/core"
)

// fileConfig mirrors core.Config for the optional YAML overlay
type fileConfig struct {
	SiteURL             string `mapstructure:"site_url"`
	StripeSecretKey     string `mapstructure:"stripe_secret_key"`
	StripeWebhookSecret string `mapstructure:"stripe_webhook_secret"`
	AdminJWTSecret      string `mapstructure:"admin_jwt_secret"`
	DBPath              string `mapstructure:"db_path"`
	S3Bucket            string `mapstructure:"s3_bucket"`
	S3PublicURL         string `mapstructure:"s3_public_url"`
	AWSRegion           string `mapstructure:"aws_region"`
}

// LoadConfig builds configuration from environment variables, with an
// optional bridge.yaml in the working directory filling gaps.
func LoadConfig() core.Config {
	cfg := core.Config{
		SiteURL:             os.Getenv("SITE_URL"),
		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AdminJWTSecret:      os.Getenv("ADMIN_JWT_SECRET"),
		DBPath:              os.Getenv("BRIDGE_DB"),
		S3Bucket:            os.Getenv("S3_BUCKET"),
		S3PublicURL:         os.Getenv("S3_PUBLIC_URL"),
		AWSRegion:           os.Getenv("AWS_REGION"),
	}

	if fc, err := loadFile("bridge.yaml"); err == nil {
		applyFile(&cfg, fc)
	}

	setIfEmpty(&cfg.SiteURL, "http://localhost:3000")
	setIfEmpty(&cfg.DBPath, defaultDBPath())
	setIfEmpty(&cfg.AWSRegion, "us-east-1")

	return cfg
}

// Validate checks that required configuration is present
func Validate(cfg core.Config) error {
	if cfg.StripeSecretKey == "" {
		return fmt.Errorf("STRIPE_SECRET_KEY is required")
	}
	if cfg.StripeWebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.AdminJWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	return nil
}

func loadFile(path string) (*fileConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return nil, err
	}
	return &fc, nil
}

// applyFile fills config gaps from the file; environment always wins
func applyFile(cfg *core.Config, fc *fileConfig) {
	setIfEmpty(&cfg.SiteURL, fc.SiteURL)
	setIfEmpty(&cfg.StripeSecretKey, fc.StripeSecretKey)
	setIfEmpty(&cfg.StripeWebhookSecret, fc.StripeWebhookSecret)
	setIfEmpty(&cfg.AdminJWTSecret, fc.AdminJWTSecret)
	setIfEmpty(&cfg.DBPath, fc.DBPath)
	setIfEmpty(&cfg.S3Bucket, fc.S3Bucket)
	setIfEmpty(&cfg.S3PublicURL, fc.S3PublicURL)
	setIfEmpty(&cfg.AWSRegion, fc.AWSRegion)
}

func setIfEmpty(dst *string, val string) {
	if *dst == "" && val != "" {
		*dst = val
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".bridge/bridge.db"
	}
	return filepath.Join(home, ".bridge", "bridge.db")
}
