package application

// PriceOptionCommand 期权定价命令
type PriceOptionCommand struct {
	Symbol          string
	OptionType      string
	StrikePrice     float64
	ExpiryDate      int64 // Unix 毫秒
	UnderlyingPrice float64
	Volatility      float64
	RiskFreeRate    float64
	PricingModel    string
}

// ComputeGreeksCommand 希腊字母计算命令
type ComputeGreeksCommand struct {
	Symbol          string
	OptionType      string
	StrikePrice     float64
	ExpiryDate      int64
	UnderlyingPrice float64
	Volatility      float64
	RiskFreeRate    float64
}

// CreateContractCommand 创建合约命令
type CreateContractCommand struct {
	Symbol      string
	Underlying  string
	OptionType  string
	StrikePrice float64
	ExpiryDate  int64
	Multiplier  float64
}

// BatchPriceOptionsCommand 批量定价命令
type BatchPriceOptionsCommand struct {
	Contracts []PriceOptionCommand
}

// BatchPricingResult 批量定价结果
type BatchPricingResult struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	AverageTime  float64  `json:"average_time"`
	Errors       []string `json:"errors,omitempty"`
}
