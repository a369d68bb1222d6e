package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/lectio/lectio/config"
	"github.com/lectio/lectio/internal/adapter/ai/openai"
	"github.com/lectio/lectio/internal/adapter/converter/ffmpeg"
	s3store "github.com/lectio/lectio/internal/adapter/storage/s3"
	sqlitestore "github.com/lectio/lectio/internal/adapter/storage/sqlite"
	"github.com/lectio/lectio/internal/infrastructure/logger"
	"github.com/lectio/lectio/internal/service"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "lectio: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting lectio",
		zap.String("data_dir", cfg.DataDir),
		zap.String("s3_bucket", cfg.S3Bucket),
		zap.Duration("poll_interval", cfg.WorkerPollInterval))

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return err
	}
	workDir := filepath.Join(cfg.DataDir, "work")
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return err
	}

	store, err := sqlitestore.NewStore(cfg.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	jobs := sqlitestore.NewJobStore(store)
	lectures := sqlitestore.NewLectureStore(store)
	chunks := sqlitestore.NewChunkStore(store)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objects, err := s3store.New(ctx, s3store.Config{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		ForcePathStyle:  cfg.S3ForcePathStyle,
	})
	if err != nil {
		return err
	}

	ai := openai.New(cfg.OpenAIAPIKey)
	converter := ffmpeg.NewConverter()

	vectorizer := service.NewVectorizer(lectures, chunks, ai, log)
	vectorizer.Configure(cfg.MaxChunkTokens, cfg.EmbedBatchSize, cfg.EmbedMaxRetries)

	admission := service.NewAdmission(jobs, lectures, chunks, objects, log)

	worker := service.NewWorker(service.WorkerDeps{
		Jobs:        jobs,
		Lectures:    lectures,
		Objects:     objects,
		Converter:   converter,
		Transcriber: ai,
		TextGen:     ai,
		Vectorizer:  vectorizer,
		Admission:   admission,
		Log:         log,
	}, workDir, cfg.WorkerPollInterval)
	worker.ConfigureAudio(cfg.MaxAudioBytes, cfg.SegmentSeconds)
	worker.Start(ctx)

	// Periodic scan queueing whatever derived artifacts are missing.
	// Disabled when SCAN_INTERVAL is unset.
	if cfg.ScanInterval > 0 {
		go func() {
			ticker := time.NewTicker(cfg.ScanInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					created, err := admission.QueueMissingForAllLectures(ctx)
					if err != nil {
						log.Error("scan failed", zap.Error(err))
						continue
					}
					if len(created) > 0 {
						log.Info("scan queued jobs", zap.Int("count", len(created)))
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Info("received signal, shutting down", zap.String("signal", sig.String()))

	cancel()

	// Give the worker a moment to notice cancellation before the store
	// closes underneath it.
	deadline := time.After(5 * time.Second)
	for worker.Running() {
		select {
		case <-deadline:
			log.Warn("worker did not stop in time")
			return nil
		case <-time.After(50 * time.Millisecond):
		}
	}
	log.Info("shutdown complete")
	return nil
}
