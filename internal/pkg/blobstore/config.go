package blobstore

import (
	"errors"

	"github.com/newopeningsupply/fulfillrelay/internal/pkg/env"
)

// Config holds blob storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services (R2, B2, MinIO)
}

// LoadConfig loads blob storage configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "auto"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("S3_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("S3_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("S3_BUCKET_NAME is required")
	}

	return config, nil
}
