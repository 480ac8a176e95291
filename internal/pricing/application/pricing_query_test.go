package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

func newTestQueryService(repo *fakeRepo) *PricingQueryService {
	svc := NewPricingQueryService(repo)
	svc.now = func() time.Time { return testNow }
	return svc
}

func TestComputeGreeks(t *testing.T) {
	svc := newTestQueryService(newFakeRepo())

	greeks, err := svc.ComputeGreeks(context.Background(), ComputeGreeksCommand{
		Symbol:          "ACME-260302-100-C",
		OptionType:      "CALL",
		StrikePrice:     100,
		ExpiryDate:      oneYearOut(),
		UnderlyingPrice: 100,
		Volatility:      0.2,
		RiskFreeRate:    0.05,
	})
	if err != nil {
		t.Fatalf("ComputeGreeks: %v", err)
	}
	if got := greeks.Delta.InexactFloat64(); math.Abs(got-0.636831) > 1e-4 {
		t.Errorf("delta = %v, want 0.636831", got)
	}
	if got := greeks.Rho.InexactFloat64(); math.Abs(got-53.232482) > 1e-4 {
		t.Errorf("rho = %v, want 53.232482", got)
	}
}

func TestComputeGreeksRejectsExpired(t *testing.T) {
	svc := newTestQueryService(newFakeRepo())

	_, err := svc.ComputeGreeks(context.Background(), ComputeGreeksCommand{
		Symbol:          "ACME-250101-100-C",
		OptionType:      "CALL",
		StrikePrice:     100,
		ExpiryDate:      testNow.Add(-24 * time.Hour).UnixMilli(),
		UnderlyingPrice: 100,
		Volatility:      0.2,
		RiskFreeRate:    0.05,
	})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

func TestComputeGreeksHonorsContextCancellation(t *testing.T) {
	svc := newTestQueryService(newFakeRepo())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.ComputeGreeks(ctx, ComputeGreeksCommand{
		OptionType: "CALL", StrikePrice: 100, ExpiryDate: oneYearOut(),
		UnderlyingPrice: 100, Volatility: 0.2, RiskFreeRate: 0.05,
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestGetHistoryDefaultLimit(t *testing.T) {
	repo := newFakeRepo()
	cmdSvc := newTestCommandService(repo, nil)
	querySvc := newTestQueryService(repo)

	cmd := PriceOptionCommand{
		Symbol: "ACME", OptionType: "CALL", StrikePrice: 100, ExpiryDate: oneYearOut(),
		UnderlyingPrice: 100, Volatility: 0.2, RiskFreeRate: 0.05,
	}
	for i := 0; i < 3; i++ {
		if _, err := cmdSvc.PriceOption(context.Background(), cmd); err != nil {
			t.Fatalf("PriceOption: %v", err)
		}
	}

	history, err := querySvc.GetHistory(context.Background(), "ACME", 0)
	if err != nil {
		t.Fatalf("GetHistory: %v", err)
	}
	if len(history) != 3 {
		t.Errorf("history length = %d, want 3", len(history))
	}

	latest, err := querySvc.GetLatestResult(context.Background(), "ACME")
	if err != nil {
		t.Fatalf("GetLatestResult: %v", err)
	}
	if latest.ID != 3 {
		t.Errorf("latest id = %d, want 3", latest.ID)
	}
}
