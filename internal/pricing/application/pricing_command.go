package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/logger"
)

const millisPerYear = float64(1000 * 60 * 60 * 24 * 365)

// PricingCommandService 处理定价相关的命令操作。
// 结果落库与领域事件通过 Outbox 在同一事务内提交。
type PricingCommandService struct {
	repo      domain.PricingRepository
	publisher domain.EventPublisher
	now       func() time.Time
}

// NewPricingCommandService 创建新的 PricingCommandService 实例
func NewPricingCommandService(repo domain.PricingRepository, publisher domain.EventPublisher) *PricingCommandService {
	return &PricingCommandService{
		repo:      repo,
		publisher: publisher,
		now:       time.Now,
	}
}

// PriceOption 期权定价：校验 → Black-Scholes → 落库 → 发布事件
func (c *PricingCommandService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*domain.PricingResult, error) {
	if cmd.Symbol == "" {
		return nil, fmt.Errorf("%w: symbol is required", domain.ErrInvalidInput)
	}
	optionType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return nil, err
	}
	if cmd.PricingModel == "" {
		cmd.PricingModel = "BlackScholes"
	}
	if cmd.PricingModel != "BlackScholes" {
		return nil, fmt.Errorf("%w: unsupported pricing model %q", domain.ErrInvalidInput, cmd.PricingModel)
	}
	defer logger.LogDuration(ctx, "option priced", "symbol", cmd.Symbol, "option_type", string(optionType))()

	now := c.now()
	input := domain.BlackScholesInput{
		S: cmd.UnderlyingPrice,
		K: cmd.StrikePrice,
		T: float64(cmd.ExpiryDate-now.UnixMilli()) / millisPerYear,
		R: cmd.RiskFreeRate,
		V: cmd.Volatility,
	}

	bs, err := domain.CalculateBlackScholes(optionType, input)
	if err != nil {
		return nil, err
	}

	var result *domain.PricingResult
	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		result = &domain.PricingResult{
			Symbol:          cmd.Symbol,
			OptionType:      optionType,
			OptionPrice:     bs.Price,
			UnderlyingPrice: decimal.NewFromFloat(cmd.UnderlyingPrice),
			Greeks:          bs.Greeks,
			CalculatedAt:    now.Unix(),
			PricingModel:    cmd.PricingModel,
		}
		if err := c.repo.SavePricingResult(txCtx, result); err != nil {
			return err
		}

		if c.publisher == nil {
			return nil
		}

		optionEvent := domain.OptionPricedEvent{
			Symbol:          cmd.Symbol,
			OptionType:      optionType,
			StrikePrice:     cmd.StrikePrice,
			ExpiryDate:      cmd.ExpiryDate,
			OptionPrice:     bs.Price.InexactFloat64(),
			UnderlyingPrice: cmd.UnderlyingPrice,
			Volatility:      cmd.Volatility,
			RiskFreeRate:    cmd.RiskFreeRate,
			PricingModel:    cmd.PricingModel,
			CalculatedAt:    result.CalculatedAt,
			OccurredOn:      now,
		}
		if err := c.publisher.Publish(txCtx, domain.OptionPricedEventType, cmd.Symbol, optionEvent); err != nil {
			return err
		}

		greeksEvent := domain.GreeksCalculatedEvent{
			Symbol:          cmd.Symbol,
			OptionType:      optionType,
			StrikePrice:     cmd.StrikePrice,
			ExpiryDate:      cmd.ExpiryDate,
			UnderlyingPrice: cmd.UnderlyingPrice,
			Delta:           bs.Greeks.Delta.InexactFloat64(),
			Gamma:           bs.Greeks.Gamma.InexactFloat64(),
			Vega:            bs.Greeks.Vega.InexactFloat64(),
			Theta:           bs.Greeks.Theta.InexactFloat64(),
			ThetaPerDay:     bs.Greeks.ThetaPerDay.InexactFloat64(),
			Rho:             bs.Greeks.Rho.InexactFloat64(),
			CalculatedAt:    result.CalculatedAt,
			OccurredOn:      now,
		}
		return c.publisher.Publish(txCtx, domain.GreeksCalculatedEventType, cmd.Symbol, greeksEvent)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PriceContract 按合约定价：从仓储加载合约，市场参数由调用方给出
func (c *PricingCommandService) PriceContract(ctx context.Context, contractID string, underlyingPrice, volatility, riskFreeRate float64) (*domain.PricingResult, error) {
	contract, err := c.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	strike, _ := contract.StrikePrice.Float64()
	return c.PriceOption(ctx, PriceOptionCommand{
		Symbol:          contract.Symbol,
		OptionType:      string(contract.Type),
		StrikePrice:     strike,
		ExpiryDate:      contract.ExpiryDate.UnixMilli(),
		UnderlyingPrice: underlyingPrice,
		Volatility:      volatility,
		RiskFreeRate:    riskFreeRate,
	})
}

// SettleContract 结算合约：仅 TRADING 状态可结算
func (c *PricingCommandService) SettleContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	contract, err := c.repo.GetContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if err := contract.Settle(); err != nil {
		return nil, err
	}
	if err := c.repo.SaveContract(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to save settled contract: %w", err)
	}
	return contract, nil
}

// ExpireContracts 到期巡检：将已过到期日的交易中合约置为 EXPIRED，返回转换数量
func (c *PricingCommandService) ExpireContracts(ctx context.Context) (int, error) {
	contracts, err := c.repo.ListContracts(ctx, "", "", true)
	if err != nil {
		return 0, err
	}

	now := c.now()
	expired := 0
	for _, contract := range contracts {
		if !contract.IsExpired(now) {
			continue
		}
		if !contract.Expire() {
			continue
		}
		if err := c.repo.SaveContract(ctx, contract); err != nil {
			return expired, fmt.Errorf("failed to save expired contract %s: %w", contract.ContractID, err)
		}
		expired++
	}
	return expired, nil
}

// BatchPriceOptions 批量定价，逐合约独立成败
func (c *PricingCommandService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	result := &BatchPricingResult{}
	totalTime := 0.0

	for _, contract := range cmd.Contracts {
		start := time.Now()
		_, err := c.PriceOption(ctx, contract)
		totalTime += time.Since(start).Seconds()

		if err != nil {
			result.FailureCount++
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", contract.Symbol, err))
			continue
		}
		result.SuccessCount++
	}

	if n := result.SuccessCount + result.FailureCount; n > 0 {
		result.AverageTime = totalTime / float64(n)
	}
	return result, nil
}

// CreateContract 创建新合约
func (c *PricingCommandService) CreateContract(ctx context.Context, cmd CreateContractCommand) (string, error) {
	optionType, err := domain.ParseOptionType(cmd.OptionType)
	if err != nil {
		return "", err
	}

	contractID := fmt.Sprintf("CON-%s", uuid.New().String())
	expiry := time.UnixMilli(cmd.ExpiryDate)

	contract, err := domain.NewContract(
		contractID,
		cmd.Symbol,
		cmd.Underlying,
		optionType,
		decimal.NewFromFloat(cmd.StrikePrice),
		expiry,
		decimal.NewFromFloat(cmd.Multiplier),
	)
	if err != nil {
		return "", err
	}

	err = c.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.SaveContract(txCtx, contract); err != nil {
			return fmt.Errorf("failed to save contract: %w", err)
		}
		if c.publisher == nil {
			return nil
		}
		event := domain.ContractCreatedEvent{
			ContractID:  contractID,
			Symbol:      cmd.Symbol,
			Underlying:  cmd.Underlying,
			OptionType:  optionType,
			StrikePrice: cmd.StrikePrice,
			ExpiryDate:  expiry,
			OccurredOn:  c.now(),
		}
		return c.publisher.Publish(txCtx, domain.ContractCreatedEventType, contractID, event)
	})
	if err != nil {
		return "", err
	}
	return contractID, nil
}
