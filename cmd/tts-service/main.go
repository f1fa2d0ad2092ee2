// main package for the tts-utils service
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/book-expert/logger"
	"github.com/book-expert/tts-utils/internal/config"
	"github.com/book-expert/tts-utils/internal/objectstore"
	"github.com/book-expert/tts-utils/internal/voice"
	"github.com/book-expert/tts-utils/internal/worker"
	"github.com/nats-io/nats.go"
)

const serviceName = "tts-utils"

func setupLogger(logPath, fileName string) (*logger.Logger, error) {
	log, err := logger.New(logPath, fileName)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger in %s: %w", logPath, err)
	}

	return log, nil
}

func run(ctx context.Context) error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir(), serviceName+"-bootstrap.log")
	if err != nil {
		// If bootstrap logger fails, we can only print to stderr
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	defer func() { _ = bootstrapLog.Close() }()

	bootstrapLog.Info("Bootstrap logger created.")

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	bootstrapLog.Info("Configuration loaded successfully.")

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir, serviceName+".log")
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	// 4. Connect to NATS and bind the buckets
	natsConnection, err := nats.Connect(cfg.NATS.URL, nats.Name(serviceName))
	if err != nil {
		finalLog.Error("Failed to connect to NATS at %s: %v", cfg.NATS.URL, err)

		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer natsConnection.Close()

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	voices, err := objectstore.New(jetstreamContext, cfg.NATS.VoiceBucket)
	if err != nil {
		finalLog.Error("Failed to open voice bucket: %v", err)

		return err
	}

	texts, err := objectstore.New(jetstreamContext, cfg.NATS.TextBucket)
	if err != nil {
		finalLog.Error("Failed to open text bucket: %v", err)

		return err
	}

	if cfg.Paths.VoicesDir != "" {
		_, err = voice.NewScanner(finalLog).Publish(ctx, cfg.Paths.VoicesDir, voices)
		if err != nil {
			finalLog.Error("Failed to publish voices from %s: %v", cfg.Paths.VoicesDir, err)

			return fmt.Errorf("failed to publish voices: %w", err)
		}
	}

	// 5. Serve until interrupted
	natsWorker, err := worker.NewNatsWorker(
		natsConnection,
		worker.Subjects{
			Split:    cfg.NATS.SplitSubject,
			Metadata: cfg.NATS.MetadataSubject,
			Scan:     cfg.NATS.ScanSubject,
		},
		voices,
		texts,
		cfg.Splitter,
		finalLog,
	)
	if err != nil {
		return fmt.Errorf("failed to create worker: %w", err)
	}

	finalLog.System("TTS-Utils successfully initialized. Listening for split requests on subject: %s",
		cfg.NATS.SplitSubject)

	err = natsWorker.Run(ctx)
	if err != nil {
		finalLog.Error("Worker stopped with error: %v", err)

		return err
	}

	finalLog.System("TTS-Utils shut down cleanly.")

	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)

	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
