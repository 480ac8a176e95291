package messaging

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{Logger: gormlogger.Discard})
	if err != nil {
		t.Fatalf("gorm.Open: %v", err)
	}
	return db, mock
}

func TestNewKafkaRelayDefaults(t *testing.T) {
	relay := NewKafkaRelay(nil, RelayConfig{Brokers: []string{"127.0.0.1:9092"}, Topic: "t"}, nil)

	if relay.cfg.Interval != 500*time.Millisecond {
		t.Errorf("interval = %v, want 500ms", relay.cfg.Interval)
	}
	if relay.cfg.BatchSize != 100 {
		t.Errorf("batch size = %d, want 100", relay.cfg.BatchSize)
	}
	if relay.cfg.MaxRetries != 5 {
		t.Errorf("max retries = %d, want 5", relay.cfg.MaxRetries)
	}
	if relay.cfg.RetryBackoff != 100*time.Millisecond {
		t.Errorf("retry backoff = %v, want 100ms", relay.cfg.RetryBackoff)
	}
}

// 积压指标来自全表 COUNT，不得被 BatchSize 截断
func TestRelayBacklogGaugeNotCappedByBatchSize(t *testing.T) {
	db, mock := newMockDB(t)
	m := metrics.New("relaytest")
	relay := NewKafkaRelay(db, RelayConfig{
		Brokers:   []string{"127.0.0.1:9092"},
		Topic:     "pricing.events",
		BatchSize: 2,
	}, m)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `pricing_outbox` WHERE status = ?")).
		WithArgs(OutboxStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(7))
	mock.ExpectQuery("SELECT \\* FROM `pricing_outbox`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	if err := relay.relayOnce(context.Background()); err != nil {
		t.Fatalf("relayOnce: %v", err)
	}
	if got := testutil.ToFloat64(m.OutboxPendingTotal); got != 7 {
		t.Errorf("outbox backlog gauge = %v, want 7", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

// 无积压时不触发批量查询，也不触碰 Kafka writer
func TestRelaySkipsFetchWhenBacklogEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	m := metrics.New("relayempty")
	relay := NewKafkaRelay(db, RelayConfig{
		Brokers: []string{"127.0.0.1:9092"},
		Topic:   "pricing.events",
	}, m)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM `pricing_outbox` WHERE status = ?")).
		WithArgs(OutboxStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count(*)"}).AddRow(0))

	if err := relay.relayOnce(context.Background()); err != nil {
		t.Fatalf("relayOnce: %v", err)
	}
	if got := testutil.ToFloat64(m.OutboxPendingTotal); got != 0 {
		t.Errorf("outbox backlog gauge = %v, want 0", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
