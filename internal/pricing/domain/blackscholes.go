package domain

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

// Greeks 希腊字母
// Theta 按年计，ThetaPerDay 为日历日口径（/365，而非交易日 /252）
type Greeks struct {
	Delta       decimal.Decimal `json:"delta"`
	Gamma       decimal.Decimal `json:"gamma"`
	Vega        decimal.Decimal `json:"vega"`
	Theta       decimal.Decimal `json:"theta"`
	ThetaPerDay decimal.Decimal `json:"theta_per_day"`
	Rho         decimal.Decimal `json:"rho"`
}

// BlackScholesResult Black-Scholes 模型输出
type BlackScholesResult struct {
	Price  decimal.Decimal
	Greeks Greeks
}

// d1d2 计算 Black-Scholes 中间量。
// 这是 d1/d2 的唯一实现，定价与希腊字母必须共用，保证逐位一致。
func d1d2(in BlackScholesInput) (d1, d2 float64) {
	sqrtT := math.Sqrt(in.T)
	d1 = (math.Log(in.S/in.K) + (in.R+0.5*in.V*in.V)*in.T) / (in.V * sqrtT)
	d2 = d1 - in.V*sqrtT
	return d1, d2
}

// PriceCall 计算欧式看涨期权理论价格
// call = S·Φ(d1) − K·e^(−rT)·Φ(d2)
func PriceCall(in BlackScholesInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	d1, d2 := d1d2(in)
	return in.S*normCDF(d1) - in.K*math.Exp(-in.R*in.T)*normCDF(d2), nil
}

// PricePut 计算欧式看跌期权理论价格
// put = K·e^(−rT)·Φ(−d2) − S·Φ(−d1)
func PricePut(in BlackScholesInput) (float64, error) {
	if err := in.Validate(); err != nil {
		return 0, err
	}
	d1, d2 := d1d2(in)
	return in.K*math.Exp(-in.R*in.T)*normCDF(-d2) - in.S*normCDF(-d1), nil
}

// CalculateGreeks 计算全部希腊字母。
// Delta 使用标准正态 CDF；put rho 使用 Φ(−d2)（教科书口径）。
func CalculateGreeks(optionType OptionType, in BlackScholesInput) (*Greeks, error) {
	if !optionType.Valid() {
		return nil, fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, string(optionType))
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	d1, d2 := d1d2(in)
	sqrtT := math.Sqrt(in.T)
	discount := math.Exp(-in.R * in.T)
	pdfD1 := normPDF(d1)

	var delta, theta, rho float64
	gamma := pdfD1 / (in.S * in.V * sqrtT)
	vega := in.S * pdfD1 * sqrtT

	// theta 的第一项对 call/put 相同
	thetaTime := -(in.S * pdfD1 * in.V) / (2 * sqrtT)

	if optionType == OptionTypeCall {
		delta = normCDF(d1)
		theta = thetaTime - in.R*in.K*discount*normCDF(d2)
		rho = in.K * in.T * discount * normCDF(d2)
	} else {
		delta = normCDF(d1) - 1
		theta = thetaTime + in.R*in.K*discount*normCDF(-d2)
		rho = -in.K * in.T * discount * normCDF(-d2)
	}

	return &Greeks{
		Delta:       decimal.NewFromFloat(delta),
		Gamma:       decimal.NewFromFloat(gamma),
		Vega:        decimal.NewFromFloat(vega),
		Theta:       decimal.NewFromFloat(theta),
		ThetaPerDay: decimal.NewFromFloat(theta / 365),
		Rho:         decimal.NewFromFloat(rho),
	}, nil
}

// CalculateBlackScholes 计算 Black-Scholes 价格和 Greeks
func CalculateBlackScholes(optionType OptionType, in BlackScholesInput) (*BlackScholesResult, error) {
	var price float64
	var err error

	switch optionType {
	case OptionTypeCall:
		price, err = PriceCall(in)
	case OptionTypePut:
		price, err = PricePut(in)
	default:
		return nil, fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, string(optionType))
	}
	if err != nil {
		return nil, err
	}

	greeks, err := CalculateGreeks(optionType, in)
	if err != nil {
		return nil, err
	}

	return &BlackScholesResult{
		Price:  decimal.NewFromFloat(price),
		Greeks: *greeks,
	}, nil
}

// normCDF 标准正态分布累积分布函数
func normCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// normPDF 标准正态分布概率密度函数
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
