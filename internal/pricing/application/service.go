package application

import (
	"context"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingService 定价门面服务。
type PricingService struct {
	Command *PricingCommandService
	Query   *PricingQueryService
}

// NewPricingService 构造函数。
func NewPricingService(repo domain.PricingRepository, publisher domain.EventPublisher) *PricingService {
	return &PricingService{
		Command: NewPricingCommandService(repo, publisher),
		Query:   NewPricingQueryService(repo),
	}
}

// --- Command Facade ---

func (s *PricingService) PriceOption(ctx context.Context, cmd PriceOptionCommand) (*domain.PricingResult, error) {
	return s.Command.PriceOption(ctx, cmd)
}

func (s *PricingService) PriceContract(ctx context.Context, contractID string, underlyingPrice, volatility, riskFreeRate float64) (*domain.PricingResult, error) {
	return s.Command.PriceContract(ctx, contractID, underlyingPrice, volatility, riskFreeRate)
}

func (s *PricingService) BatchPriceOptions(ctx context.Context, cmd BatchPriceOptionsCommand) (*BatchPricingResult, error) {
	return s.Command.BatchPriceOptions(ctx, cmd)
}

func (s *PricingService) CreateContract(ctx context.Context, cmd CreateContractCommand) (string, error) {
	return s.Command.CreateContract(ctx, cmd)
}

func (s *PricingService) SettleContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	return s.Command.SettleContract(ctx, contractID)
}

func (s *PricingService) ExpireContracts(ctx context.Context) (int, error) {
	return s.Command.ExpireContracts(ctx)
}

// --- Query Facade ---

func (s *PricingService) ComputeGreeks(ctx context.Context, cmd ComputeGreeksCommand) (*domain.Greeks, error) {
	return s.Query.ComputeGreeks(ctx, cmd)
}

func (s *PricingService) GetLatestResult(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	return s.Query.GetLatestResult(ctx, symbol)
}

func (s *PricingService) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	return s.Query.GetHistory(ctx, symbol, limit)
}

func (s *PricingService) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	return s.Query.GetContract(ctx, contractID)
}

func (s *PricingService) ListContracts(ctx context.Context, underlying, oType string, activeOnly bool) ([]*domain.Contract, error) {
	return s.Query.ListContracts(ctx, underlying, oType, activeOnly)
}
