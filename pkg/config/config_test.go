package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, SourceFile, cfg.Dictionary.Source)
	assert.Equal(t, 24, cfg.Search.MaxPhonemes)
	assert.Equal(t, int64(1<<22), cfg.Search.MaxPartitions)
	assert.Equal(t, 10*time.Second, cfg.Search.Timeout)
	assert.Positive(t, cfg.Search.Workers)
	assert.NoError(t, cfg.Validate())
}

func TestLoadYAMLKeepsUnsetDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
dictionary:
  path: /srv/cmudict.dict
  format: cmudict
search:
  maxPhonemes: 16
  timeout: 2s
kafka:
  brokers: ["k1:9092"]
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/cmudict.dict", cfg.Dictionary.Path)
	assert.Equal(t, "cmudict", cfg.Dictionary.Format)
	assert.Equal(t, 16, cfg.Search.MaxPhonemes)
	assert.Equal(t, 2*time.Second, cfg.Search.Timeout)
	assert.Equal(t, int64(1<<22), cfg.Search.MaxPartitions)
	assert.Equal(t, []string{"k1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "homophone-search-events", cfg.Kafka.Topics.SearchEvents)
	assert.Equal(t, SourceFile, cfg.Dictionary.Source)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [1, 2"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("WS_SERVER_PORT", "9999")
	t.Setenv("WS_DICTIONARY_SOURCE", "postgres")
	t.Setenv("WS_SEARCH_MAX_PARTITIONS", "1000")
	t.Setenv("WS_SEARCH_TIMEOUT", "500ms")
	t.Setenv("WS_KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("WS_REDIS_ADDR", "cache:6379")
	t.Setenv("WS_SEARCH_WORKERS", "not-a-number")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, SourcePostgres, cfg.Dictionary.Source)
	assert.Equal(t, int64(1000), cfg.Search.MaxPartitions)
	assert.Equal(t, 500*time.Millisecond, cfg.Search.Timeout)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, "cache:6379", cfg.Redis.Addr)
	assert.Equal(t, Default().Search.Workers, cfg.Search.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"unknown source", func(c *Config) { c.Dictionary.Source = "s3" }},
		{"file without path", func(c *Config) { c.Dictionary.Path = "" }},
		{"bad format", func(c *Config) { c.Dictionary.Format = "xml" }},
		{"bad encoding", func(c *Config) { c.Dictionary.Encoding = "ebcdic" }},
		{"too many phonemes", func(c *Config) { c.Search.MaxPhonemes = 65 }},
		{"negative partitions", func(c *Config) { c.Search.MaxPartitions = -1 }},
		{"negative workers", func(c *Config) { c.Search.Workers = -2 }},
		{"brokers without topic", func(c *Config) {
			c.Kafka.Brokers = []string{"k:9092"}
			c.Kafka.Topics.SearchEvents = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Dictionary.Source = SourcePostgres
	cfg.Dictionary.Path = ""
	assert.NoError(t, cfg.Validate())
}
