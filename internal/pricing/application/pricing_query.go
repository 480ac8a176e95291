package application

import (
	"context"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingQueryService 处理所有定价相关的查询操作。
// 查询路径不落库、不发事件。
type PricingQueryService struct {
	repo domain.PricingRepository
	now  func() time.Time
}

// NewPricingQueryService 构造函数。
func NewPricingQueryService(repo domain.PricingRepository) *PricingQueryService {
	return &PricingQueryService{repo: repo, now: time.Now}
}

// ComputeGreeks 计算希腊字母（纯计算，不持久化）
func (q *PricingQueryService) ComputeGreeks(ctx context.Context, cmd ComputeGreeksCommand) (*domain.Greeks, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	optionType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}

	input := domain.BlackScholesInput{
		S: cmd.UnderlyingPrice,
		K: cmd.StrikePrice,
		T: float64(cmd.ExpiryDate-q.now().UnixMilli()) / millisPerYear,
		R: cmd.RiskFreeRate,
		V: cmd.Volatility,
	}
	return domain.CalculateGreeks(optionType, input)
}

// GetLatestResult 获取最新定价结果
func (q *PricingQueryService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return q.repo.GetLatest(ctx, symbol)
}

// GetHistory 获取定价历史
func (q *PricingQueryService) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	if limit <= 0 {
		limit = 50
	}
	return q.repo.GetHistory(ctx, symbol, limit)
}

// GetContract 获取合约
func (q *PricingQueryService) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	return q.repo.GetContract(ctx, contractID)
}

// ListContracts 按条件列出合约
func (q *PricingQueryService) ListContracts(ctx context.Context, underlying, oType string, activeOnly bool) ([]*domain.Contract, error) {
	return q.repo.ListContracts(ctx, underlying, oType, activeOnly)
}
