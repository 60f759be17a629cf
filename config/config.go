package config

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/INLOpen/mcapwire/core"
	"gopkg.in/yaml.v3"
)

// HeaderConfig holds the values written into the Header record.
type HeaderConfig struct {
	Profile string `yaml:"profile"`
	Library string `yaml:"library"`
}

// ChunkConfig controls how messages are grouped into Chunk records.
type ChunkConfig struct {
	Compression     string `yaml:"compression"`       // "", "none", "zstd", "lz4" or "snappy"
	TargetSizeBytes int64  `yaml:"target_size_bytes"` // uncompressed size at which a chunk is closed
}

// GeneratorConfig describes the synthetic recording produced by mcapgen.
type GeneratorConfig struct {
	Output       string   `yaml:"output"` // file path, "-" for stdout
	Topics       []string `yaml:"topics"`
	MessageCount int      `yaml:"message_count"`
	PayloadBytes int      `yaml:"payload_bytes"`
	// IntervalNanos is the log time step between consecutive messages.
	IntervalNanos uint64 `yaml:"interval_nanos"`
	Attachment    string `yaml:"attachment"` // optional file to embed as an Attachment
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // e.g., "debug", "info", "warn", "error"
	Output string `yaml:"output"` // e.g., "stderr", "stdout", "file", "none"
	File   string `yaml:"file"`   // Path to the log file, used if output is "file"
	Format string `yaml:"format"` // "json" or "text"
}

// TracingConfig holds configuration for distributed tracing.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"` // e.g., "localhost:4317" for gRPC OTLP collector
	Protocol string `yaml:"protocol"` // "grpc" or "http"
}

// Config is the top-level configuration struct.
type Config struct {
	Header    HeaderConfig    `yaml:"header"`
	Chunk     ChunkConfig     `yaml:"chunk"`
	Generator GeneratorConfig `yaml:"generator"`
	Metadata  *core.StringMap `yaml:"metadata,omitempty"` // kept in file order
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Header: HeaderConfig{
			Profile: core.DefaultProfile,
			Library: "mcapwire",
		},
		Chunk: ChunkConfig{
			Compression:     "zstd",
			TargetSizeBytes: 1024 * 1024, // 1 MiB
		},
		Generator: GeneratorConfig{
			Output:        "out.mcap",
			Topics:        []string{"/demo"},
			MessageCount:  1000,
			PayloadBytes:  64,
			IntervalNanos: 10_000_000, // 100 Hz
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			File:   "mcapgen.log",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "localhost:4317",
			Protocol: "grpc",
		},
	}
}

// Load reads configuration from an io.Reader, overlaying it on Default.
// A nil or empty reader yields the defaults.
func Load(r io.Reader) (*Config, error) {
	cfg := Default()
	if r == nil {
		return cfg, nil
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config data: %w", err)
	}
	if len(data) == 0 {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config yaml: %w", err)
	}
	return cfg, nil
}

// LoadConfig reads configuration from a YAML file by path. A missing file
// yields the defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Load(nil)
		}
		return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
	}
	defer file.Close()

	return Load(file)
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if _, err := core.ParseCompressionType(c.Chunk.Compression); err != nil {
		return fmt.Errorf("chunk.compression: %w", err)
	}
	if c.Chunk.TargetSizeBytes <= 0 {
		return fmt.Errorf("chunk.target_size_bytes must be positive, got %d", c.Chunk.TargetSizeBytes)
	}
	if len(c.Generator.Topics) == 0 {
		return fmt.Errorf("generator.topics must name at least one topic")
	}
	if len(c.Generator.Topics) > 0xFFFF {
		return fmt.Errorf("generator.topics: %d topics exceed the uint16 channel id range", len(c.Generator.Topics))
	}
	if c.Generator.MessageCount < 0 {
		return fmt.Errorf("generator.message_count must not be negative")
	}
	if c.Generator.PayloadBytes < 0 {
		return fmt.Errorf("generator.payload_bytes must not be negative")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: invalid log level %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text", "":
	default:
		return fmt.Errorf("logging.format: must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
