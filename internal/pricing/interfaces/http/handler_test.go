package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

type memoryRepo struct {
	results   []*domain.PricingResult
	contracts map[string]*domain.Contract
	// 注入存储故障
	failErr error
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{contracts: make(map[string]*domain.Contract)}
}

func (r *memoryRepo) SavePricingResult(_ context.Context, res *domain.PricingResult) error {
	res.ID = uint(len(r.results) + 1)
	r.results = append(r.results, res)
	return nil
}

func (r *memoryRepo) GetLatest(_ context.Context, symbol string) (*domain.PricingResult, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	for i := len(r.results) - 1; i >= 0; i-- {
		if r.results[i].Symbol == symbol {
			return r.results[i], nil
		}
	}
	return nil, fmt.Errorf("no pricing result for symbol %s: %w", symbol, domain.ErrNotFound)
}

func (r *memoryRepo) GetHistory(_ context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	var out []*domain.PricingResult
	for i := len(r.results) - 1; i >= 0 && len(out) < limit; i-- {
		if r.results[i].Symbol == symbol {
			out = append(out, r.results[i])
		}
	}
	return out, nil
}

func (r *memoryRepo) SaveContract(_ context.Context, c *domain.Contract) error {
	r.contracts[c.ContractID] = c
	return nil
}

func (r *memoryRepo) GetContract(_ context.Context, contractID string) (*domain.Contract, error) {
	if r.failErr != nil {
		return nil, r.failErr
	}
	c, ok := r.contracts[contractID]
	if !ok {
		return nil, fmt.Errorf("contract %s: %w", contractID, domain.ErrNotFound)
	}
	return c, nil
}

func (r *memoryRepo) ListContracts(_ context.Context, underlying, oType string, activeOnly bool) ([]*domain.Contract, error) {
	var out []*domain.Contract
	for _, c := range r.contracts {
		if underlying != "" && c.Underlying != underlying {
			continue
		}
		if oType != "" && string(c.Type) != oType {
			continue
		}
		if activeOnly && c.Status != domain.StatusTrading {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType, _ string, _ any) error {
	p.events = append(p.events, eventType)
	return nil
}

func newTestRouter(t *testing.T) (*gin.Engine, *memoryRepo, *recordingPublisher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newMemoryRepo()
	publisher := &recordingPublisher{}
	service := application.NewPricingService(repo, publisher)

	r := gin.New()
	NewPricingHandler(service, nil).RegisterRoutes(r)
	return r, repo, publisher
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode request: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// oneYearOut 距当前时刻约一年的到期时间（Unix 毫秒）
func oneYearOut() int64 {
	return time.Now().Add(365 * 24 * time.Hour).UnixMilli()
}

func TestPriceOptionEndpoint(t *testing.T) {
	r, repo, publisher := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/price", gin.H{
		"symbol":           "BTC-100K-CALL",
		"option_type":      "CALL",
		"strike_price":     100.0,
		"expiry_date":      oneYearOut(),
		"underlying_price": 100.0,
		"volatility":       0.2,
		"risk_free_rate":   0.05,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Symbol      string `json:"symbol"`
		OptionPrice string `json:"option_price"`
		Greeks      struct {
			Delta string `json:"delta"`
		} `json:"greeks"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Symbol != "BTC-100K-CALL" {
		t.Errorf("symbol = %q", resp.Symbol)
	}

	var price float64
	if _, err := fmt.Sscanf(resp.OptionPrice, "%f", &price); err != nil {
		t.Fatalf("parse option_price %q: %v", resp.OptionPrice, err)
	}
	// S=K=100, T≈1, r=0.05, σ=0.2 的参考价约 10.4506
	if math.Abs(price-10.4506) > 0.01 {
		t.Errorf("option_price = %v, want ≈ 10.4506", price)
	}

	if len(repo.results) != 1 {
		t.Errorf("persisted results = %d, want 1", len(repo.results))
	}
	if len(publisher.events) != 2 {
		t.Errorf("published events = %v, want OptionPriced + GreeksCalculated", publisher.events)
	}
}

func TestPriceOptionRejectsInvalidInput(t *testing.T) {
	r, _, _ := newTestRouter(t)

	cases := []struct {
		name string
		body gin.H
	}{
		{"unknown option type", gin.H{
			"symbol": "X", "option_type": "STRADDLE", "strike_price": 100.0,
			"expiry_date": oneYearOut(), "underlying_price": 100.0, "volatility": 0.2,
		}},
		{"negative volatility", gin.H{
			"symbol": "X", "option_type": "CALL", "strike_price": 100.0,
			"expiry_date": oneYearOut(), "underlying_price": 100.0, "volatility": -0.2,
		}},
		{"expired option", gin.H{
			"symbol": "X", "option_type": "CALL", "strike_price": 100.0,
			"expiry_date": time.Now().Add(-time.Hour).UnixMilli(),
			"underlying_price": 100.0, "volatility": 0.2,
		}},
		{"missing fields", gin.H{"symbol": "X"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/price", tc.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400, body = %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestComputeGreeksEndpoint(t *testing.T) {
	r, repo, publisher := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/greeks", gin.H{
		"option_type":      "PUT",
		"strike_price":     100.0,
		"expiry_date":      oneYearOut(),
		"underlying_price": 100.0,
		"volatility":       0.2,
		"risk_free_rate":   0.05,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var greeks map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &greeks); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"delta", "gamma", "vega", "theta", "theta_per_day", "rho"} {
		if _, ok := greeks[key]; !ok {
			t.Errorf("response missing %q: %s", key, w.Body.String())
		}
	}

	var rho float64
	fmt.Sscanf(greeks["rho"], "%f", &rho)
	if rho >= 0 {
		t.Errorf("put rho = %v, want negative", rho)
	}

	// 纯查询：不落库、不发事件
	if len(repo.results) != 0 || len(publisher.events) != 0 {
		t.Errorf("greeks query should not persist or publish, got %d results, %v events",
			len(repo.results), publisher.events)
	}
}

func TestBatchPriceEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	valid := gin.H{
		"symbol": "ETH-3K-CALL", "option_type": "CALL", "strike_price": 3000.0,
		"expiry_date": oneYearOut(), "underlying_price": 3100.0, "volatility": 0.6,
	}
	invalid := gin.H{
		"symbol": "BAD", "option_type": "CALL", "strike_price": 3000.0,
		"expiry_date": oneYearOut(), "underlying_price": 3100.0, "volatility": -1.0,
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/pricing/option/batch", gin.H{
		"contracts": []gin.H{valid, invalid},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp application.BatchPricingResult
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.SuccessCount != 1 || resp.FailureCount != 1 {
		t.Errorf("success/failure = %d/%d, want 1/1", resp.SuccessCount, resp.FailureCount)
	}
}

func TestContractLifecycleEndpoints(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/pricing/contracts", gin.H{
		"symbol":       "BTC-120K-C",
		"underlying":   "BTC",
		"option_type":  "CALL",
		"strike_price": 120000.0,
		"expiry_date":  oneYearOut(),
		"multiplier":   1.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}

	var created struct {
		ContractID string `json:"contract_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.ContractID == "" {
		t.Fatal("empty contract_id")
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/pricing/contracts/"+created.ContractID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/pricing/contracts/"+created.ContractID+"/price", gin.H{
		"underlying_price": 110000.0,
		"volatility":       0.8,
		"risk_free_rate":   0.03,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("price contract status = %d, body = %s", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/BTC-120K-C/latest", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("latest result status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestGetContractNotFound(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/api/v1/pricing/contracts/CON-missing", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// 存储故障不得伪装成 404
func TestRepositoryFailureReturns500(t *testing.T) {
	r, repo, _ := newTestRouter(t)
	repo.failErr = errors.New("dial tcp 127.0.0.1:3306: connection refused")

	w := doJSON(t, r, http.MethodGet, "/api/v1/pricing/contracts/CON-1", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("contract status = %d, want 500", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/v1/pricing/results/ACME/latest", nil)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("latest result status = %d, want 500", w.Code)
	}
}

func TestSettleContractEndpoint(t *testing.T) {
	r, repo, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/pricing/contracts", gin.H{
		"symbol":       "ETH-270302-3000-C",
		"underlying":   "ETH",
		"option_type":  "CALL",
		"strike_price": 3000.0,
		"expiry_date":  oneYearOut(),
		"multiplier":   1.0,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	var created struct {
		ContractID string `json:"contract_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	w = doJSON(t, r, http.MethodPost, "/api/v1/pricing/contracts/"+created.ContractID+"/settle", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("settle status = %d, body = %s", w.Code, w.Body.String())
	}
	if repo.contracts[created.ContractID].Status != domain.StatusSettled {
		t.Errorf("status = %v, want SETTLED", repo.contracts[created.ContractID].Status)
	}

	// 重复结算 400，未知合约 404
	w = doJSON(t, r, http.MethodPost, "/api/v1/pricing/contracts/"+created.ContractID+"/settle", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("second settle status = %d, want 400", w.Code)
	}
	w = doJSON(t, r, http.MethodPost, "/api/v1/pricing/contracts/CON-missing/settle", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown contract settle status = %d, want 404", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
