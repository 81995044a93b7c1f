package repository

import (
	"context"
	"testing"
	"time"

	"BiasLens/internal/domain/models"
	pkgch "BiasLens/pkg/clickhouse"
	pkgkafka "BiasLens/pkg/kafka"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClickHouseQuoteArchive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	archive := NewClickHouseQuoteArchive(pkgch.NewClientFromDB(db))
	at := time.Date(2024, 5, 1, 14, 30, 0, 0, time.UTC)

	mock.ExpectExec(`INSERT INTO quote_snapshots`).
		WithArgs(at, "AAPL", 185.25, 2.14, 1.17, "primary", "finnhub").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, archive.Append(context.Background(), models.Quote{
		Symbol: "AAPL", Price: 185.25, Change: 2.14, ChangePercent: 1.17,
		Provider: models.ProviderPrimary, Vendor: "finnhub", AsOf: at,
	}))

	mock.ExpectQuery(`FROM quote_snapshots\s+WHERE symbol = \?\s+ORDER BY ts DESC\s+LIMIT \?`).
		WithArgs("AAPL", 2).
		WillReturnRows(sqlmock.NewRows([]string{"ts", "symbol", "price", "change", "change_percent", "provider", "vendor"}).
			AddRow(at, "AAPL", 185.25, 2.14, 1.17, "primary", "finnhub").
			AddRow(at.Add(-time.Minute), "AAPL", 184.0, 0.9, 0.49, "secondary", "alphavantage"))

	got, err := archive.Recent(context.Background(), "AAPL", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.SourceLive, got[0].Source)
	assert.Equal(t, models.ProviderSecondary, got[1].Provider)
	assert.Equal(t, at, got[0].AsOf)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNopQuoteArchive(t *testing.T) {
	var a NopQuoteArchive
	require.NoError(t, a.Append(context.Background(), models.Quote{}))
	got, err := a.Recent(context.Background(), "AAPL", 10)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type capturePublisher struct{ msgs []pkgkafka.Message }

func (c *capturePublisher) PublishBatch(_ context.Context, msgs []pkgkafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func TestKafkaSignalPublisher_KeysByAsset(t *testing.T) {
	cp := &capturePublisher{}
	p := &KafkaSignalPublisher{producer: cp}

	err := p.PublishSignals(context.Background(), "user-1", []models.AlphaSignal{
		{ID: "s1", Asset: "AAPL"}, {ID: "s2", Asset: "MSFT"},
	})
	require.NoError(t, err)
	require.Len(t, cp.msgs, 2)
	assert.Equal(t, "AAPL", string(cp.msgs[0].Key))
	ev, ok := cp.msgs[1].Value.(SignalEvent)
	require.True(t, ok)
	assert.Equal(t, "alpha_signal.created", ev.Type)
	assert.Equal(t, "user-1", ev.UserID)
	assert.Equal(t, "s2", ev.Signal.ID)

	require.NoError(t, p.PublishSignals(context.Background(), "user-1", nil))
	assert.Len(t, cp.msgs, 2)
}
