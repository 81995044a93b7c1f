package clickhouse

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	ch "github.com/ClickHouse/clickhouse-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOptions(t *testing.T) {
	cfg := &ClientConfig{Port: 9000, Database: "default", User: "default"}
	for _, opt := range []ClientOption{
		WithHost("ch.internal"),
		WithPort(8123),
		WithDatabase("biaslens"),
		WithCredentials("svc", "secret"),
		WithHTTP(true),
		WithAsyncInsert(true, false),
		WithMaxExecutionTime(30 * time.Second),
	} {
		opt(cfg)
	}

	opts := buildOptions(cfg)
	assert.Equal(t, []string{"ch.internal:8123"}, opts.Addr)
	assert.Equal(t, "biaslens", opts.Auth.Database)
	assert.Equal(t, "svc", opts.Auth.Username)
	assert.Equal(t, ch.HTTP, opts.Protocol)
	assert.Equal(t, 30, opts.Settings["max_execution_time"])
	assert.Equal(t, 1, opts.Settings["async_insert"])
	assert.Equal(t, 0, opts.Settings["wait_for_async_insert"])
}

func TestNewClientRequiresHost(t *testing.T) {
	_, err := NewClient(context.Background())
	require.Error(t, err)
}

func TestInitSchemaStopsAtFirstFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	c := NewClientFromDB(db)
	defer c.Close()

	mock.ExpectExec("CREATE DATABASE").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE").WillReturnError(assert.AnError)

	err = c.InitSchema(context.Background(), []string{
		"CREATE DATABASE IF NOT EXISTS biaslens",
		"CREATE TABLE IF NOT EXISTS biaslens.quote_snapshots (x Int8) ENGINE = Memory",
		"SELECT 1",
	})
	require.ErrorIs(t, err, assert.AnError)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewClientConfigDefaults(t *testing.T) {
	cfg, err := newClientConfig([]ClientOption{
		WithHost("ch"),
		WithMaxConnections(4, 8),
		WithTimeouts(0, 3*time.Second),
	})
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "default", cfg.Database)
	assert.Equal(t, 4, cfg.MaxOpenConns)
	assert.Equal(t, 4, cfg.MaxIdleConns, "idle is capped at open")
	assert.Equal(t, 5*time.Second, cfg.DialTimeout)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
}
