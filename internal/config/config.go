// Package config provides the configuration structure for the tts-utils service.
package config

import (
	"errors"
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
	"github.com/book-expert/tts-utils/internal/text"
)

// Default subjects and buckets.
const (
	DefaultSplitSubject    = "text.split"
	DefaultMetadataSubject = "voice.metadata"
	DefaultScanSubject     = "voice.scan"
	DefaultVoiceBucket     = "VOICES"
	DefaultTextBucket      = "TEXTS"
	DefaultLogsDir         = "logs"
)

var (
	// ErrNATSURLEmpty indicates that no NATS URL was configured.
	ErrNATSURLEmpty = errors.New("nats url cannot be empty")
	// ErrInvalidDesiredLength indicates a non-positive desired chunk length.
	ErrInvalidDesiredLength = errors.New("desired_length must be positive")
	// ErrMaxBelowDesired indicates max_length is smaller than desired_length.
	ErrMaxBelowDesired = errors.New("max_length must be >= desired_length")
)

// NATSConfig holds the configuration for NATS.
type NATSConfig struct {
	URL             string `toml:"url"`
	SplitSubject    string `toml:"split_subject"`
	MetadataSubject string `toml:"metadata_subject"`
	ScanSubject     string `toml:"scan_subject"`
	VoiceBucket     string `toml:"voice_bucket"`
	TextBucket      string `toml:"text_bucket"`
}

// SplitterConfig holds the default chunk lengths for split requests.
type SplitterConfig struct {
	DesiredLength int `toml:"desired_length"`
	MaxLength     int `toml:"max_length"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir string `toml:"base_logs_dir"`
	VoicesDir   string `toml:"voices_dir"`
}

// Config is the root configuration structure.
type Config struct {
	NATS     NATSConfig     `toml:"nats"`
	Splitter SplitterConfig `toml:"splitter"`
	Paths    PathsConfig    `toml:"paths"`
}

// Load loads, defaults and validates the configuration.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.ApplyDefaults()

	err = cfg.Validate()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	setDefault(&c.NATS.SplitSubject, DefaultSplitSubject)
	setDefault(&c.NATS.MetadataSubject, DefaultMetadataSubject)
	setDefault(&c.NATS.ScanSubject, DefaultScanSubject)
	setDefault(&c.NATS.VoiceBucket, DefaultVoiceBucket)
	setDefault(&c.NATS.TextBucket, DefaultTextBucket)
	setDefault(&c.Paths.BaseLogsDir, DefaultLogsDir)

	if c.Splitter.DesiredLength == 0 {
		c.Splitter.DesiredLength = text.DefaultDesiredLength
	}

	if c.Splitter.MaxLength == 0 {
		c.Splitter.MaxLength = max(text.DefaultMaxLength, c.Splitter.DesiredLength)
	}
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	if c.NATS.URL == "" {
		return ErrNATSURLEmpty
	}

	return ValidateLengths(c.Splitter.DesiredLength, c.Splitter.MaxLength)
}

// ValidateLengths checks a desired/max chunk length pair.
func ValidateLengths(desired, maxLength int) error {
	if desired <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidDesiredLength, desired)
	}

	if maxLength < desired {
		return fmt.Errorf("%w: got %d < %d", ErrMaxBelowDesired, maxLength, desired)
	}

	return nil
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}
