// Package http 提供期权定价服务的 HTTP 接口
package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/pricing/application"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
)

// PricingHandler 期权定价 HTTP 处理器
type PricingHandler struct {
	service *application.PricingService
	metrics *metrics.Metrics
}

// NewPricingHandler 创建处理器实例
func NewPricingHandler(service *application.PricingService, m *metrics.Metrics) *PricingHandler {
	return &PricingHandler{service: service, metrics: m}
}

// RegisterRoutes 注册路由
func (h *PricingHandler) RegisterRoutes(r *gin.Engine) {
	api := r.Group("/api/v1/pricing")
	{
		api.POST("/option/price", h.PriceOption)
		api.POST("/option/greeks", h.ComputeGreeks)
		api.POST("/option/batch", h.BatchPrice)
		api.POST("/contracts", h.CreateContract)
		api.GET("/contracts", h.ListContracts)
		api.GET("/contracts/:id", h.GetContract)
		api.POST("/contracts/:id/price", h.PriceContract)
		api.POST("/contracts/:id/settle", h.SettleContract)
		api.GET("/results/:symbol/latest", h.GetLatestResult)
		api.GET("/results/:symbol/history", h.GetHistory)
	}
	r.GET("/health", h.Health)
}

// PriceOptionRequest 期权定价请求
type PriceOptionRequest struct {
	Symbol          string  `json:"symbol" binding:"required"`
	OptionType      string  `json:"option_type" binding:"required"`
	StrikePrice     float64 `json:"strike_price" binding:"required"`
	ExpiryDate      int64   `json:"expiry_date" binding:"required"`
	UnderlyingPrice float64 `json:"underlying_price" binding:"required"`
	Volatility      float64 `json:"volatility" binding:"required"`
	RiskFreeRate    float64 `json:"risk_free_rate"`
	PricingModel    string  `json:"pricing_model"`
}

func (req *PriceOptionRequest) toCommand() application.PriceOptionCommand {
	return application.PriceOptionCommand{
		Symbol:          req.Symbol,
		OptionType:      req.OptionType,
		StrikePrice:     req.StrikePrice,
		ExpiryDate:      req.ExpiryDate,
		UnderlyingPrice: req.UnderlyingPrice,
		Volatility:      req.Volatility,
		RiskFreeRate:    req.RiskFreeRate,
		PricingModel:    req.PricingModel,
	}
}

// PriceOption 计算期权价格与希腊字母并持久化结果
func (h *PricingHandler) PriceOption(c *gin.Context) {
	var req PriceOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := h.service.PriceOption(c.Request.Context(), req.toCommand())
	if err != nil {
		h.countFailure()
		h.respondError(c, err)
		return
	}
	h.observePricing(start)

	c.JSON(http.StatusOK, result)
}

// ComputeGreeksRequest 希腊字母计算请求
type ComputeGreeksRequest struct {
	Symbol          string  `json:"symbol"`
	OptionType      string  `json:"option_type" binding:"required"`
	StrikePrice     float64 `json:"strike_price" binding:"required"`
	ExpiryDate      int64   `json:"expiry_date" binding:"required"`
	UnderlyingPrice float64 `json:"underlying_price" binding:"required"`
	Volatility      float64 `json:"volatility" binding:"required"`
	RiskFreeRate    float64 `json:"risk_free_rate"`
}

// ComputeGreeks 计算希腊字母（纯查询，不落库）
func (h *PricingHandler) ComputeGreeks(c *gin.Context) {
	var req ComputeGreeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	greeks, err := h.service.ComputeGreeks(c.Request.Context(), application.ComputeGreeksCommand{
		Symbol:          req.Symbol,
		OptionType:      req.OptionType,
		StrikePrice:     req.StrikePrice,
		ExpiryDate:      req.ExpiryDate,
		UnderlyingPrice: req.UnderlyingPrice,
		Volatility:      req.Volatility,
		RiskFreeRate:    req.RiskFreeRate,
	})
	if err != nil {
		h.countFailure()
		h.respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.GreeksTotal.Inc()
	}

	c.JSON(http.StatusOK, greeks)
}

// BatchPriceRequest 批量定价请求
type BatchPriceRequest struct {
	Contracts []PriceOptionRequest `json:"contracts" binding:"required,min=1"`
}

// BatchPrice 批量定价
func (h *PricingHandler) BatchPrice(c *gin.Context) {
	var req BatchPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cmd := application.BatchPriceOptionsCommand{
		Contracts: make([]application.PriceOptionCommand, 0, len(req.Contracts)),
	}
	for i := range req.Contracts {
		cmd.Contracts = append(cmd.Contracts, req.Contracts[i].toCommand())
	}

	result, err := h.service.BatchPriceOptions(c.Request.Context(), cmd)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateContractRequest 创建合约请求
type CreateContractRequest struct {
	Symbol      string  `json:"symbol" binding:"required"`
	Underlying  string  `json:"underlying" binding:"required"`
	OptionType  string  `json:"option_type" binding:"required"`
	StrikePrice float64 `json:"strike_price" binding:"required"`
	ExpiryDate  int64   `json:"expiry_date" binding:"required"`
	Multiplier  float64 `json:"multiplier"`
}

// CreateContract 创建期权合约
func (h *PricingHandler) CreateContract(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contractID, err := h.service.CreateContract(c.Request.Context(), application.CreateContractCommand{
		Symbol:      req.Symbol,
		Underlying:  req.Underlying,
		OptionType:  req.OptionType,
		StrikePrice: req.StrikePrice,
		ExpiryDate:  req.ExpiryDate,
		Multiplier:  req.Multiplier,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"contract_id": contractID})
}

// ListContracts 查询合约列表
func (h *PricingHandler) ListContracts(c *gin.Context) {
	activeOnly := c.DefaultQuery("active_only", "false") == "true"

	contracts, err := h.service.ListContracts(c.Request.Context(),
		c.Query("underlying"),
		c.Query("option_type"),
		activeOnly,
	)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"contracts": contracts, "total": len(contracts)})
}

// GetContract 查询单个合约
func (h *PricingHandler) GetContract(c *gin.Context) {
	contract, err := h.service.GetContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// SettleContract 结算合约
func (h *PricingHandler) SettleContract(c *gin.Context) {
	contract, err := h.service.SettleContract(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, contract)
}

// PriceContractRequest 按合约定价请求
type PriceContractRequest struct {
	UnderlyingPrice float64 `json:"underlying_price" binding:"required"`
	Volatility      float64 `json:"volatility" binding:"required"`
	RiskFreeRate    float64 `json:"risk_free_rate"`
}

// PriceContract 按已登记合约定价
func (h *PricingHandler) PriceContract(c *gin.Context) {
	var req PriceContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	start := time.Now()
	result, err := h.service.PriceContract(c.Request.Context(), c.Param("id"),
		req.UnderlyingPrice, req.Volatility, req.RiskFreeRate)
	if err != nil {
		h.countFailure()
		h.respondError(c, err)
		return
	}
	h.observePricing(start)

	c.JSON(http.StatusOK, result)
}

// GetLatestResult 查询最近一次定价结果
func (h *PricingHandler) GetLatestResult(c *gin.Context) {
	result, err := h.service.GetLatestResult(c.Request.Context(), c.Param("symbol"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetHistory 查询定价历史
func (h *PricingHandler) GetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	results, err := h.service.GetHistory(c.Request.Context(), c.Param("symbol"), limit)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"results": results, "total": len(results)})
}

// Health 健康检查
func (h *PricingHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// respondError 按错误类型映射状态码：
// 非法输入 400，目标不存在 404，其余（含存储故障）500。
func (h *PricingHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *PricingHandler) countFailure() {
	if h.metrics != nil {
		h.metrics.PricingFailures.Inc()
	}
}

func (h *PricingHandler) observePricing(start time.Time) {
	if h.metrics != nil {
		h.metrics.PricingsTotal.Inc()
		h.metrics.PricingDuration.Observe(time.Since(start).Seconds())
	}
}
