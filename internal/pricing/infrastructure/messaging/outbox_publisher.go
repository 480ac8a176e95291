// Package messaging 实现事务发件箱（outbox）事件发布与 Kafka 转发
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	pkgdb "github.com/wyfcoding/optionpricing/pkg/db"
)

// Outbox 消息状态
const (
	OutboxStatusPending = "PENDING"
	OutboxStatusSent    = "SENT"
	OutboxStatusFailed  = "FAILED"
)

// OutboxMessage 发件箱消息模型，与业务写入同一事务落库
type OutboxMessage struct {
	ID           uint       `gorm:"primaryKey;autoIncrement"`
	CreatedAt    time.Time  `gorm:"column:created_at;index"`
	EventID      string     `gorm:"column:event_id;type:varchar(64);uniqueIndex;not null"`
	EventType    string     `gorm:"column:event_type;type:varchar(64);not null"`
	AggregateKey string     `gorm:"column:aggregate_key;type:varchar(64);index;not null"`
	Payload      string     `gorm:"column:payload;type:text;not null"`
	Status       string     `gorm:"column:status;type:varchar(16);index;not null;default:PENDING"`
	RetryCount   int        `gorm:"column:retry_count;not null;default:0"`
	SentAt       *time.Time `gorm:"column:sent_at"`
}

func (OutboxMessage) TableName() string { return "pricing_outbox" }

// OutboxPublisher 将事件写入发件箱表，由 Relay 异步投递到 Kafka。
// 实现 domain.EventPublisher。
type OutboxPublisher struct {
	db *gorm.DB
}

// NewOutboxPublisher 创建 OutboxPublisher 实例
func NewOutboxPublisher(db *gorm.DB) domain.EventPublisher {
	return &OutboxPublisher{db: db}
}

// Publish 序列化事件并写入发件箱。若 context 携带事务句柄，
// 事件与业务数据在同一事务中提交。
func (p *OutboxPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	msg := &OutboxMessage{
		EventID:      uuid.New().String(),
		EventType:    eventType,
		AggregateKey: key,
		Payload:      string(data),
		Status:       OutboxStatusPending,
	}

	db := p.db
	if tx := pkgdb.TxFromContext(ctx); tx != nil {
		db = tx
	}
	if err := db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("failed to save outbox message: %w", err)
	}
	return nil
}
