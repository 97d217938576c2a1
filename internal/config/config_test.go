package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, key := range []string{"HTTP_ADDRESS", "STORE_BACKEND", "KAFKA_BROKERS", "OUTBOX_ENABLED", "CONSUMER_TOPICS", "LOGTIVITY_API_URL"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	require.Equal(t, ":5000", cfg.HTTPAddress)
	require.Equal(t, BackendMongo, cfg.StoreBackend)
	require.Equal(t, "*", cfg.CORSAllowedOrigin)
	require.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	require.Equal(t, []string{"workout_events"}, cfg.ConsumerTopics)
	require.False(t, cfg.OutboxEnabled)
	require.Equal(t, 30*time.Second, cfg.OutboxClaimLease)
	require.Equal(t, "http://localhost:5000/api", cfg.APIURL)
}

func TestLoadOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_BACKEND", "Postgres")
	t.Setenv("KAFKA_BROKERS", " a:9092, ,b:9092 ")
	t.Setenv("OUTBOX_ENABLED", "true")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("OUTBOX_BATCH_SIZE", "not-a-number")
	t.Setenv("DLQ_MAX_RETRIES", "9")
	t.Setenv("OUTBOX_CLAIM_LEASE", "1m")

	cfg := Load()
	require.Equal(t, BackendPostgres, cfg.StoreBackend)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.KafkaBrokers)
	require.True(t, cfg.OutboxEnabled)
	require.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	require.Equal(t, 25, cfg.OutboxBatchSize)
	require.Equal(t, 9, cfg.DLQMaxRetries)
	require.Equal(t, time.Minute, cfg.OutboxClaimLease)
}

func TestLoadReadsDotEnvWithoutOverridingEnvironment(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MONGO_DATABASE=fromfile\nHTTP_ADDRESS=:7000\n"), 0o600))
	chdir(t, dir)
	t.Setenv("HTTP_ADDRESS", ":6000")
	t.Setenv("MONGO_DATABASE", "")
	os.Unsetenv("MONGO_DATABASE")

	cfg := Load()
	require.Equal(t, ":6000", cfg.HTTPAddress)
	require.Equal(t, "fromfile", cfg.MongoDatabase)
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatal(err)
		}
	})
}
