package config

import (
	"fmt"
	"os"
	"time"
)

// Ledger backend selectors. S3 matches the original deployment; postgres and
// redis exist for installations that already run those stores.
const (
	LedgerBackendS3       = "s3"
	LedgerBackendPostgres = "postgres"
	LedgerBackendRedis    = "redis"
	LedgerBackendMemory   = "memory"
)

const (
	defaultServerTagKey   = "terraform-server-tag-key"
	defaultServerTagValue = "terraform-server-tag-value"
)

// Server captures everything the bridge server needs from the environment.
type Server struct {
	Addr string

	// Fulfillment server discovery.
	ServerTagKey   string
	ServerTagValue string

	// S3 buckets: command output capture, ledger records, and the allow-listed
	// source of terraform artifacts.
	CommandOutputBucket string
	CommandRecordBucket string
	ArtifactBucket      string

	LedgerBackend string
	DatabaseURL   string
	Redis         RedisConfig
}

// Relay captures configuration for the spoke-side forwarder.
type Relay struct {
	Addr        string
	HubTopicARN string
}

// RedisConfig mirrors the connection knobs the redis client accepts.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds the server config. Buckets have no sensible defaults, so they
// are required; tag filters fall back to the documented defaults.
func FromEnv() (Server, error) {
	outputBucket, err := requiredEnv("COMMAND_OUTPUT_S3_BUCKET")
	if err != nil {
		return Server{}, err
	}
	recordBucket, err := requiredEnv("TERRAFORM_SSM_COMMAND_BUCKET")
	if err != nil {
		return Server{}, err
	}
	artifactBucket, err := requiredEnv("WHITELISTED_TERRAFORM_ARTIFACT_BUCKET")
	if err != nil {
		return Server{}, err
	}

	cfg := Server{
		Addr:                envOr("TFBRIDGE_ADDR", ":8080"),
		ServerTagKey:        envOr("TERRAFORM_SERVER_TAG_KEY", defaultServerTagKey),
		ServerTagValue:      envOr("TERRAFORM_SERVER_TAG_VALUE", defaultServerTagValue),
		CommandOutputBucket: outputBucket,
		CommandRecordBucket: recordBucket,
		ArtifactBucket:      artifactBucket,
		LedgerBackend:       envOr("LEDGER_BACKEND", LedgerBackendS3),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
	}

	switch cfg.LedgerBackend {
	case LedgerBackendS3, LedgerBackendMemory:
	case LedgerBackendPostgres:
		if cfg.DatabaseURL == "" {
			return Server{}, fmt.Errorf("LEDGER_BACKEND=postgres requires DATABASE_URL")
		}
	case LedgerBackendRedis:
		if cfg.Redis.URL == "" {
			return Server{}, fmt.Errorf("LEDGER_BACKEND=redis requires REDIS_URL")
		}
	default:
		return Server{}, fmt.Errorf("unknown LEDGER_BACKEND %q", cfg.LedgerBackend)
	}

	return cfg, nil
}

// RelayFromEnv builds the relay config.
func RelayFromEnv() (Relay, error) {
	topicARN, err := requiredEnv("HUB_SNS_TOPIC_ARN")
	if err != nil {
		return Relay{}, err
	}
	return Relay{
		Addr:        envOr("TFBRIDGE_RELAY_ADDR", ":8081"),
		HubTopicARN: topicARN,
	}, nil
}

func requiredEnv(name string) (string, error) {
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s is missing", name)
	}
	return value, nil
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
