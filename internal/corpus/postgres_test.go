package corpus

import (
	"context"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/wordsmith/pkg/resilience"
)

// skipIfNoPostgres skips the test when PostgreSQL is unavailable.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	port, _ := strconv.Atoi(envOrDefault("TEST_POSTGRES_PORT", "5432"))
	cfg := config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            port,
		Database:        envOrDefault("TEST_POSTGRES_DB", "wordsmith_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "wordsmith"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg)
	if err != nil {
		t.Skipf("skipping: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func TestPostgresImportAndLoad(t *testing.T) {
	db := skipIfNoPostgres(t)
	ctx := context.Background()

	table, err := ParseCMU(strings.NewReader(classicDict))
	require.NoError(t, err)

	n, err := NewPostgresStore(db).Import(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, table.PronunciationCount(), n)

	back, err := PostgresSource{DB: db, Retry: resilience.RetryConfig{MaxAttempts: 1}}.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, table.Words(), back.Words())
	assert.Equal(t, []string{"IY1 DH ER0", "AY1 DH ER0"}, keys(t, back, "either"))
}
