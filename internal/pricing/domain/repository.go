package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNotFound 查询目标不存在（区别于底层存储故障）
var ErrNotFound = errors.New("pricing: not found")

// PricingResult 定价结果实体
type PricingResult struct {
	ID              uint            `json:"id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
	Symbol          string          `json:"symbol"`
	OptionType      OptionType      `json:"option_type"`
	OptionPrice     decimal.Decimal `json:"option_price"`
	UnderlyingPrice decimal.Decimal `json:"underlying_price"`
	Greeks          Greeks          `json:"greeks"`
	CalculatedAt    int64           `json:"calculated_at"`
	PricingModel    string          `json:"pricing_model"`
}

// PricingRepository 定价仓储接口
type PricingRepository interface {
	SavePricingResult(ctx context.Context, result *PricingResult) error
	GetLatest(ctx context.Context, symbol string) (*PricingResult, error)
	GetHistory(ctx context.Context, symbol string, limit int) ([]*PricingResult, error)

	SaveContract(ctx context.Context, c *Contract) error
	GetContract(ctx context.Context, contractID string) (*Contract, error)
	ListContracts(ctx context.Context, underlying string, oType string, activeOnly bool) ([]*Contract, error)

	// WithTx 在事务中执行 fn，事务句柄通过 context 传递
	WithTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// EventPublisher 领域事件发布接口（Outbox 模式）
type EventPublisher interface {
	// Publish 写入 outbox；ctx 携带事务句柄时与业务写入同事务提交
	Publish(ctx context.Context, eventType, key string, payload any) error
}
