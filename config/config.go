package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DataDir  string
	LogLevel string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3ForcePathStyle  bool

	OpenAIAPIKey string

	WorkerPollInterval time.Duration
	ScanInterval       time.Duration
	MaxChunkTokens     int
	EmbedBatchSize     int
	EmbedMaxRetries    int
	SegmentSeconds     int
	MaxAudioBytes      int64
}

func Load() (*Config, error) {
	pollInterval, err := getEnvDuration("WORKER_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return nil, err
	}
	scanInterval, err := getEnvDuration("SCAN_INTERVAL", 0)
	if err != nil {
		return nil, err
	}
	maxChunkTokens, err := getEnvInt("MAX_CHUNK_TOKENS", 500)
	if err != nil {
		return nil, err
	}
	embedBatchSize, err := getEnvInt("EMBED_BATCH_SIZE", 100)
	if err != nil {
		return nil, err
	}
	embedMaxRetries, err := getEnvInt("EMBED_MAX_RETRIES", 3)
	if err != nil {
		return nil, err
	}
	segmentSeconds, err := getEnvInt("AUDIO_SEGMENT_SECONDS", 600)
	if err != nil {
		return nil, err
	}
	maxAudioMB, err := getEnvInt("MAX_AUDIO_MB", 24)
	if err != nil {
		return nil, err
	}

	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required")
	}
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}

	return &Config{
		DataDir:            getEnv("DATA_DIR", "/data"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		S3Bucket:           bucket,
		S3Region:           os.Getenv("S3_REGION"),
		S3Endpoint:         os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:      os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:  os.Getenv("S3_SECRET_ACCESS_KEY"),
		S3ForcePathStyle:   getEnv("S3_FORCE_PATH_STYLE", "") == "true",
		OpenAIAPIKey:       apiKey,
		WorkerPollInterval: pollInterval,
		ScanInterval:       scanInterval,
		MaxChunkTokens:     maxChunkTokens,
		EmbedBatchSize:     embedBatchSize,
		EmbedMaxRetries:    embedMaxRetries,
		SegmentSeconds:     segmentSeconds,
		MaxAudioBytes:      int64(maxAudioMB) * 1024 * 1024,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
