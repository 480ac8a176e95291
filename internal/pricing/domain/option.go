package domain

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput 定价输入非法（非正的 S/K/T/sigma、非有限值、未知期权类型）
var ErrInvalidInput = errors.New("pricing: invalid input")

// OptionType 期权类型
type OptionType string

const (
	OptionTypeCall OptionType = "CALL" // 看涨期权
	OptionTypePut  OptionType = "PUT"  // 看跌期权
)

// ParseOptionType 解析期权类型字符串。
// 只接受 CALL / PUT（忽略大小写），其余一律返回 ErrInvalidInput，
// 不做 "非 call 即 put" 的静默回退。
func ParseOptionType(s string) (OptionType, error) {
	switch s {
	case "CALL", "call", "Call":
		return OptionTypeCall, nil
	case "PUT", "put", "Put":
		return OptionTypePut, nil
	}
	return "", fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, s)
}

// Valid 判断类型是否为封闭枚举成员
func (t OptionType) Valid() bool {
	return t == OptionTypeCall || t == OptionTypePut
}

// BlackScholesInput Black-Scholes 模型输入
type BlackScholesInput struct {
	S float64 // 标的资产价格
	K float64 // 执行价格
	T float64 // 到期时间 (年)
	R float64 // 无风险利率
	V float64 // 波动率
}

// Validate 边界校验。
// S/K/T/V 必须严格为正，否则公式中的 log 或除法未定义；
// 所有输入必须是有限值。校验失败返回 ErrInvalidInput，绝不放任 NaN/Inf 向下传播。
func (in BlackScholesInput) Validate() error {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"S", in.S},
		{"K", in.K},
		{"T", in.T},
		{"R", in.R},
		{"V", in.V},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return fmt.Errorf("%w: %s must be finite, got %v", ErrInvalidInput, f.name, f.value)
		}
	}
	if in.S <= 0 {
		return fmt.Errorf("%w: underlying price S must be positive, got %v", ErrInvalidInput, in.S)
	}
	if in.K <= 0 {
		return fmt.Errorf("%w: strike price K must be positive, got %v", ErrInvalidInput, in.K)
	}
	if in.T <= 0 {
		return fmt.Errorf("%w: time to expiry T must be positive, got %v", ErrInvalidInput, in.T)
	}
	if in.V <= 0 {
		return fmt.Errorf("%w: volatility V must be positive, got %v", ErrInvalidInput, in.V)
	}
	return nil
}
