package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/INLOpen/mcapwire/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidConfig(t *testing.T) {
	yamlContent := `
header:
  profile: ros2
chunk:
  compression: lz4
  target_size_bytes: 4096
generator:
  topics: ["/imu", "/gps"]
metadata:
  site: lab
  robot: r2
  build: 42
`
	cfg, err := Load(strings.NewReader(yamlContent))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "ros2", cfg.Header.Profile)
	assert.Equal(t, "lz4", cfg.Chunk.Compression)
	assert.Equal(t, int64(4096), cfg.Chunk.TargetSizeBytes)
	assert.Equal(t, []string{"/imu", "/gps"}, cfg.Generator.Topics)
	robot, ok := cfg.Metadata.Get("robot")
	require.True(t, ok)
	assert.Equal(t, "r2", robot)
	assert.Equal(t, []string{"site", "robot", "build"}, cfg.Metadata.Keys(), "metadata keeps file order")
	build, _ := cfg.Metadata.Get("build")
	assert.Equal(t, "42", build)

	// Defaults that were not overridden.
	assert.Equal(t, "mcapwire", cfg.Header.Library)
	assert.Equal(t, 1000, cfg.Generator.MessageCount)
	require.NoError(t, cfg.Validate())
}

func TestLoad_EmptyReader(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, "zstd", cfg.Chunk.Compression)

	cfg, err = Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, int64(1024*1024), cfg.Chunk.TargetSizeBytes)
	require.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(strings.NewReader("chunk:\n  target_size_bytes: [oops"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to unmarshal config yaml")
}

func TestLoadConfig_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mcapgen.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk:\n  compression: \"\"\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "", cfg.Chunk.Compression)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "unknown compression", mutate: func(c *Config) { c.Chunk.Compression = "brotli" }, errMsg: "chunk.compression"},
		{name: "zero chunk size", mutate: func(c *Config) { c.Chunk.TargetSizeBytes = 0 }, errMsg: "target_size_bytes"},
		{name: "no topics", mutate: func(c *Config) { c.Generator.Topics = nil }, errMsg: "generator.topics"},
		{name: "negative messages", mutate: func(c *Config) { c.Generator.MessageCount = -1 }, errMsg: "message_count"},
		{name: "bad log level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, errMsg: "logging.level"},
		{name: "bad log format", mutate: func(c *Config) { c.Logging.Format = "logfmt" }, errMsg: "logging.format"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestMarshal_RoundTrips(t *testing.T) {
	out, err := Default().Marshal()
	require.NoError(t, err)
	cfg, err := Load(strings.NewReader(string(out)))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestMarshal_KeepsMetadataOrder(t *testing.T) {
	cfg := Default()
	cfg.Metadata = core.NewStringMap("zeta", "1", "alpha", "2", "mid", "3")
	out, err := cfg.Marshal()
	require.NoError(t, err)

	text := string(out)
	z, a, m := strings.Index(text, "zeta:"), strings.Index(text, "alpha:"), strings.Index(text, "mid:")
	require.True(t, z >= 0 && a >= 0 && m >= 0, text)
	assert.True(t, z < a && a < m, "keys must be emitted in insertion order:\n%s", text)

	loaded, err := Load(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, loaded.Metadata.Keys())
}

func TestLoad_MetadataMustBeMapping(t *testing.T) {
	_, err := Load(strings.NewReader("metadata: [a, b]\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected a mapping")
}
