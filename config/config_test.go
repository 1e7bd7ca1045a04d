package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
database:
  host: "localhost"
  port: 5432
  username: "u"
  password: "p"
  name: "db"
kafka:
  host: "localhost"
  port: 9092
  snapshot_updated_topic_name: "load.snapshot_updated"
redis:
  host: "localhost"
  port: 6379
datatruck:
  api_endpoint: "http://localhost:9000/api/loads"
  api_key: "yaml-key"
loadwatch:
  http_addr: ":8080"
  kafka_consumer_group: "loadwatch-api"
  snapshot_ttl_seconds: 600
`), 0o600))

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "u", cfg.Database.Username)
	require.Equal(t, "load.snapshot_updated", cfg.Kafka.SnapshotUpdatedTopicName)
	require.Equal(t, 6379, cfg.Redis.Port)
	require.Equal(t, ":8080", cfg.Loadwatch.HTTPAddr)
	require.Equal(t, "yaml-key", cfg.Datatruck.APIKey)
}

func TestLoadConfig_EnvOverridesDatatruck(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
datatruck:
  api_endpoint: "http://yaml-endpoint"
  api_key: "yaml-key"
`), 0o600))

	t.Setenv("DATATRUCK_API_ENDPOINT", "http://env-endpoint")
	t.Setenv("DATATRUCK_API_KEY", "env-key")

	cfg, err := LoadConfig(p)
	require.NoError(t, err)
	require.Equal(t, "http://env-endpoint", cfg.Datatruck.APIEndpoint)
	require.Equal(t, "env-key", cfg.Datatruck.APIKey)
}
