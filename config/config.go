package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the pipeline workers.
type Config struct {
	FeedURL string

	// Cache proxy. Empty means caching is disabled and every repository is
	// treated as needing processing.
	WorkerURL string

	R2  R2Config
	GCS GCSConfig
}

// R2Config holds Cloudflare R2 (S3-compatible) credentials.
type R2Config struct {
	Bucket    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// GCSConfig holds Google Cloud Storage settings. CredentialsFile may be empty
// on Cloud Run, where the service account is picked up from the metadata
// server.
type GCSConfig struct {
	Bucket          string
	CredentialsFile string
}

// Load reads configuration from environment variables, with an optional .env
// file for local development.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// A missing .env is fine; a present-but-unreadable one is not.
	if err := viper.ReadInConfig(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		FeedURL:   viper.GetString("FEED_URL"),
		WorkerURL: viper.GetString("WORKER_URL"),
		R2: R2Config{
			Bucket:    viper.GetString("R2_BUCKET"),
			Endpoint:  viper.GetString("R2_ENDPOINT"),
			AccessKey: viper.GetString("R2_ACCESS_KEY"),
			SecretKey: viper.GetString("R2_SECRET_KEY"),
		},
		GCS: GCSConfig{
			Bucket:          viper.GetString("GCS_BUCKET_NAME"),
			CredentialsFile: viper.GetString("GOOGLE_APPLICATION_CREDENTIALS"),
		},
	}
	if cfg.GCS.Bucket == "" {
		cfg.GCS.Bucket = "govreposcrape-summaries"
	}

	return cfg, nil
}

// Validate checks the R2 credential set, naming every missing variable.
func (c R2Config) Validate() error {
	var missing []string
	if c.Bucket == "" {
		missing = append(missing, "R2_BUCKET")
	}
	if c.Endpoint == "" {
		missing = append(missing, "R2_ENDPOINT")
	}
	if c.AccessKey == "" {
		missing = append(missing, "R2_ACCESS_KEY")
	}
	if c.SecretKey == "" {
		missing = append(missing, "R2_SECRET_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required R2 environment variables: %s", strings.Join(missing, ", "))
	}
	return nil
}

// ResolveBatch applies the managed batch-task runtime overrides. When both
// CLOUD_RUN_TASK_COUNT and CLOUD_RUN_TASK_INDEX are set they take precedence
// over the CLI flags, so the same container image works under Cloud Run jobs
// without flag plumbing.
func ResolveBatch(flagBatchSize, flagOffset int) (batchSize, offset int) {
	batchSize, offset = flagBatchSize, flagOffset

	count := viper.GetString("CLOUD_RUN_TASK_COUNT")
	index := viper.GetString("CLOUD_RUN_TASK_INDEX")
	if count == "" || index == "" {
		return batchSize, offset
	}

	envCount := viper.GetInt("CLOUD_RUN_TASK_COUNT")
	envIndex := viper.GetInt("CLOUD_RUN_TASK_INDEX")
	if envCount < 1 {
		return batchSize, offset
	}
	return envCount, envIndex
}
