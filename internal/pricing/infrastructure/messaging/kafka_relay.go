package messaging

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

// RelayConfig Kafka 转发器配置
type RelayConfig struct {
	Brokers      []string
	Topic        string
	Interval     time.Duration
	BatchSize    int
	MaxRetries   int
	RetryBackoff time.Duration
}

// KafkaRelay 周期性扫描发件箱表，将 PENDING 消息投递到 Kafka。
type KafkaRelay struct {
	db      *gorm.DB
	writer  *kafka.Writer
	metrics *metrics.Metrics
	cfg     RelayConfig
}

// NewKafkaRelay 创建 KafkaRelay 实例
func NewKafkaRelay(db *gorm.DB, cfg RelayConfig, m *metrics.Metrics) *KafkaRelay {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 100 * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 10 * time.Millisecond,
	}

	return &KafkaRelay{
		db:      db,
		writer:  writer,
		metrics: m,
		cfg:     cfg,
	}
}

// Start 启动转发循环，直到 ctx 取消。
func (r *KafkaRelay) Start(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	logger.Info(ctx, "outbox relay started",
		"topic", r.cfg.Topic,
		"interval", r.cfg.Interval,
		"batch_size", r.cfg.BatchSize,
	)

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "outbox relay stopped")
			return
		case <-ticker.C:
			if err := r.relayOnce(ctx); err != nil {
				logger.Error(ctx, "outbox relay pass failed", "error", err)
			}
		}
	}
}

// relayOnce 投递一批 PENDING 消息。
// 积压指标用全表 COUNT 统计，不受 BatchSize 截断。
func (r *KafkaRelay) relayOnce(ctx context.Context) error {
	var backlog int64
	err := r.db.WithContext(ctx).
		Model(&OutboxMessage{}).
		Where("status = ?", OutboxStatusPending).
		Count(&backlog).Error
	if err != nil {
		return err
	}
	if r.metrics != nil {
		r.metrics.OutboxPendingTotal.Set(float64(backlog))
	}
	if backlog == 0 {
		return nil
	}

	var pending []OutboxMessage
	err = r.db.WithContext(ctx).
		Where("status = ? AND retry_count < ?", OutboxStatusPending, r.cfg.MaxRetries).
		Order("id asc").
		Limit(r.cfg.BatchSize).
		Find(&pending).Error
	if err != nil {
		return err
	}

	for i := range pending {
		msg := &pending[i]
		kafkaMsg := kafka.Message{
			Key:   []byte(msg.AggregateKey),
			Value: []byte(msg.Payload),
			Headers: []kafka.Header{
				{Key: "event_id", Value: []byte(msg.EventID)},
				{Key: "event_type", Value: []byte(msg.EventType)},
			},
		}

		if err := r.writer.WriteMessages(ctx, kafkaMsg); err != nil {
			logger.Error(ctx, "failed to deliver outbox message",
				"event_id", msg.EventID,
				"event_type", msg.EventType,
				"retry_count", msg.RetryCount,
				"error", err,
			)
			r.markFailed(ctx, msg)

			// Broker 故障时退避，避免对同批消息连环失败
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.cfg.RetryBackoff):
			}
			continue
		}
		r.markSent(ctx, msg)
	}
	return nil
}

func (r *KafkaRelay) markSent(ctx context.Context, msg *OutboxMessage) {
	now := time.Now()
	err := r.db.WithContext(ctx).Model(msg).Updates(map[string]any{
		"status":  OutboxStatusSent,
		"sent_at": &now,
	}).Error
	if err != nil {
		logger.Error(ctx, "failed to mark outbox message sent", "event_id", msg.EventID, "error", err)
	}
}

func (r *KafkaRelay) markFailed(ctx context.Context, msg *OutboxMessage) {
	updates := map[string]any{"retry_count": gorm.Expr("retry_count + 1")}
	if msg.RetryCount+1 >= r.cfg.MaxRetries {
		updates["status"] = OutboxStatusFailed
	}
	if err := r.db.WithContext(ctx).Model(msg).Updates(updates).Error; err != nil {
		logger.Error(ctx, "failed to mark outbox message failed", "event_id", msg.EventID, "error", err)
	}
}

// Close 关闭底层 Kafka writer。
func (r *KafkaRelay) Close() error {
	return r.writer.Close()
}
