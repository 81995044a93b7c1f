package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func TestNewProducerValidates(t *testing.T) {
	_, err := NewProducer(WithTopic("t"))
	require.Error(t, err)
	_, err = NewProducer(WithBrokers([]string{"localhost:9092"}))
	require.Error(t, err)

	p, err := NewProducer(WithBrokers([]string{"localhost:9092"}), WithTopic("alpha-signals"))
	require.NoError(t, err)
	assert.Equal(t, "alpha-signals", p.Topic())
	require.NoError(t, p.Close())
}

func TestPublishBatchEncodesValues(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewProducerMetrics(reg)
	w := &recordingWriter{}
	p := newProducer(w, "alpha-signals", "snappy", m)

	err := p.PublishBatch(context.Background(), []Message{
		{Key: []byte("a"), Value: []byte("raw")},
		{Key: []byte("b"), Value: "text"},
		{Key: []byte("c"), Value: map[string]int{"n": 1}},
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 3)
	assert.Equal(t, "raw", string(w.msgs[0].Value))
	assert.Equal(t, "text", string(w.msgs[1].Value))
	assert.JSONEq(t, `{"n":1}`, string(w.msgs[2].Value))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.messages.WithLabelValues("alpha-signals", "snappy", "ok")))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPublishFailureIsCounted(t *testing.T) {
	m := NewProducerMetrics(prometheus.NewRegistry())
	w := &recordingWriter{err: errors.New("leader not available")}
	p := newProducer(w, "alpha-signals", "snappy", m)

	err := p.Publish(context.Background(), []byte("k"), "v")
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("alpha-signals")))
}

func TestPublishBatchMarshalFailureSendsNothing(t *testing.T) {
	w := &recordingWriter{}
	p := newProducer(w, "t", "snappy", nil)
	err := p.PublishBatch(context.Background(), []Message{{Value: "ok"}, {Value: make(chan int)}})
	require.Error(t, err)
	assert.Empty(t, w.msgs)
}

func TestNewProducerConfigDefaults(t *testing.T) {
	cfg, err := newProducerConfig([]ProducerOption{
		WithBrokers([]string{"b:9092"}),
		WithTopic("t"),
		WithBatching(0, 2048, 0),
	})
	require.NoError(t, err)
	assert.Equal(t, -1, cfg.RequiredAcks)
	assert.Equal(t, "snappy", cfg.Compression)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 2048, cfg.BatchBytes)
	assert.Equal(t, 10*time.Millisecond, cfg.BatchTimeout)
}
