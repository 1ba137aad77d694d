package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"protv/internal/events"
	"protv/internal/intake"
	"protv/internal/server"
	"protv/internal/storage"
	"protv/internal/store"
	"protv/pkg/types"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := newLogger()

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	applicationStore, err := store.Open(ctx, config)
	if err != nil {
		return err
	}
	defer closeStore(logger, applicationStore)

	fileStorage, err := newStorage(ctx, config, logger)
	if err != nil {
		return err
	}

	var publisher intake.Publisher
	if config.AMQPURL != "" {
		amqpPublisher, err := events.NewAMQPPublisher(config.AMQPURL, config.AMQPExchange)
		if err != nil {
			return err
		}
		defer func() {
			if err := amqpPublisher.Close(); err != nil {
				logger.WithError(err).Warn("failed to close event publisher")
			}
		}()
		publisher = amqpPublisher
	}

	intakeService, err := intake.New(logger, fileStorage, applicationStore, publisher)
	if err != nil {
		return err
	}

	srv := server.New(config, logger, intakeService, applicationStore, fileStorage)

	go func() {
		logger.WithFields(logrus.Fields{
			"port":    config.ServerPort,
			"store":   config.StoreDriver,
			"storage": config.StorageDriver,
		}).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	return logger
}

// storageProvider is what both the intake workflow and the health probe need.
type storageProvider interface {
	intake.Storage
	server.StoragePinger
}

func newStorage(ctx context.Context, config *types.Config, logger *logrus.Logger) (storageProvider, error) {
	switch config.StorageDriver {
	case types.StorageDriverS3:
		awsConfig, err := loadAWSConfig(ctx, config)
		if err != nil {
			return nil, err
		}

		client := storage.NewS3Client(awsConfig, config.S3Endpoint)
		ttl := time.Duration(config.S3PresignTTLMinutes) * time.Minute
		return storage.NewS3Storage(client, config.S3BucketName, config.S3RootPrefix, ttl), nil
	case types.StorageDriverDrive, "":
		return storage.NewDriveStorage(config.GoogleDriveFolderID, logger), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.StorageDriver)
	}
}

func closeStore(logger *logrus.Logger, s store.ApplicationStore) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.Close(ctx); err != nil {
		logger.WithError(err).Warn("failed to close application store")
	}
}
