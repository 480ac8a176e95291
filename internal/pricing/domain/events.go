package domain

import "time"

const (
	OptionPricedEventType     = "OptionPriced"
	GreeksCalculatedEventType = "GreeksCalculated"
	ContractCreatedEventType  = "ContractCreated"
)

// OptionPricedEvent 期权定价完成事件
type OptionPricedEvent struct {
	Symbol          string     `json:"symbol"`
	OptionType      OptionType `json:"option_type"`
	StrikePrice     float64    `json:"strike_price"`
	ExpiryDate      int64      `json:"expiry_date"`
	OptionPrice     float64    `json:"option_price"`
	UnderlyingPrice float64    `json:"underlying_price"`
	Volatility      float64    `json:"volatility"`
	RiskFreeRate    float64    `json:"risk_free_rate"`
	PricingModel    string     `json:"pricing_model"`
	CalculatedAt    int64      `json:"calculated_at"`
	OccurredOn      time.Time  `json:"occurred_on"`
}

// GreeksCalculatedEvent 希腊字母计算完成事件
type GreeksCalculatedEvent struct {
	Symbol          string     `json:"symbol"`
	OptionType      OptionType `json:"option_type"`
	StrikePrice     float64    `json:"strike_price"`
	ExpiryDate      int64      `json:"expiry_date"`
	UnderlyingPrice float64    `json:"underlying_price"`
	Delta           float64    `json:"delta"`
	Gamma           float64    `json:"gamma"`
	Vega            float64    `json:"vega"`
	Theta           float64    `json:"theta"`
	ThetaPerDay     float64    `json:"theta_per_day"`
	Rho             float64    `json:"rho"`
	CalculatedAt    int64      `json:"calculated_at"`
	OccurredOn      time.Time  `json:"occurred_on"`
}

// ContractCreatedEvent 合约创建事件
type ContractCreatedEvent struct {
	ContractID  string     `json:"contract_id"`
	Symbol      string     `json:"symbol"`
	Underlying  string     `json:"underlying"`
	OptionType  OptionType `json:"option_type"`
	StrikePrice float64    `json:"strike_price"`
	ExpiryDate  time.Time  `json:"expiry_date"`
	OccurredOn  time.Time  `json:"occurred_on"`
}
