package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"protv/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
)

func loadConfig(cCtx *cli.Context) (*types.Config, error) {
	if envFile := cCtx.String("env-file"); envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	switch c.StoreDriver {
	case types.StoreDriverMongo:
		if c.MongoURL == "" {
			return nil, fmt.Errorf("set MONGO_URL")
		}
	case types.StoreDriverPostgres:
		if c.DatabaseURL == "" {
			return nil, fmt.Errorf("set DATABASE_URL")
		}
	default:
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", c.StoreDriver)
	}

	switch c.StorageDriver {
	case types.StorageDriverDrive:
	case types.StorageDriverS3:
		if c.S3BucketName == "" {
			return nil, fmt.Errorf("set S3_BUCKET_NAME")
		}
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.ServerPort == 0 {
		c.ServerPort = 8001
	}

	if c.ReadHeaderTimeoutSec == 0 {
		c.ReadHeaderTimeoutSec = 10
	}

	if c.ReadTimeoutSec == 0 {
		c.ReadTimeoutSec = 300
	}

	if c.WriteTimeoutSec == 0 {
		c.WriteTimeoutSec = 360
	}

	if c.MaxUploadMB <= 0 {
		c.MaxUploadMB = 50
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context, c *types.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(c.S3Region),
	}

	if c.S3AccessKey != "" && c.S3SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.S3AccessKey, c.S3SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return awsConfig, nil
}
