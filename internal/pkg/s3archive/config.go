package s3archive

import (
	"errors"

	"github.com/ManuelReschke/CalFox/internal/pkg/env"
)

// Config holds S3 payload archive configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	Enabled         bool
}

// LoadConfig loads S3 configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-west-001"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		Enabled:         env.GetEnv("S3_ARCHIVE_ENABLED", "false") == "true",
	}

	if !config.Enabled {
		return config, nil
	}
	if config.AccessKeyID == "" || config.SecretAccessKey == "" || config.BucketName == "" {
		return nil, errors.New("S3 archive enabled but S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY or S3_BUCKET_NAME missing")
	}
	return config, nil
}

// IsEnabled reports whether payload archiving is switched on.
func (c *Config) IsEnabled() bool {
	return c != nil && c.Enabled
}
