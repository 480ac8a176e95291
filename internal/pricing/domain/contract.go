package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ContractStatus int8

const (
	StatusTrading ContractStatus = 1
	StatusSettled ContractStatus = 2
	StatusExpired ContractStatus = 3
)

func (s ContractStatus) String() string {
	switch s {
	case StatusTrading:
		return "TRADING"
	case StatusSettled:
		return "SETTLED"
	case StatusExpired:
		return "EXPIRED"
	}
	return "UNKNOWN"
}

// Contract 期权合约
type Contract struct {
	gorm.Model
	ContractID  string          `gorm:"column:contract_id;type:varchar(32);uniqueIndex;not null"`
	Symbol      string          `gorm:"column:symbol;type:varchar(32);uniqueIndex;not null"` // e.g. BTC-240329-30000-C
	Underlying  string          `gorm:"column:underlying;type:varchar(10);index;not null"`    // BTC
	Type        OptionType      `gorm:"column:type;type:varchar(10);not null"`
	StrikePrice decimal.Decimal `gorm:"column:strike_price;type:decimal(20,8);not null"`
	ExpiryDate  time.Time       `gorm:"column:expiry_date;index;not null"`
	Multiplier  decimal.Decimal `gorm:"column:multiplier;type:decimal(10,4);not null"`
	Status      ContractStatus  `gorm:"column:status;type:tinyint;not null;default:1"`
}

func (Contract) TableName() string { return "option_contracts" }

func NewContract(id, symbol, underlying string, oType OptionType, strike decimal.Decimal, expiry time.Time, mult decimal.Decimal) (*Contract, error) {
	if !oType.Valid() {
		return nil, fmt.Errorf("%w: unknown option type %q", ErrInvalidInput, string(oType))
	}
	if strike.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: strike price must be positive, got %s", ErrInvalidInput, strike)
	}
	return &Contract{
		ContractID:  id,
		Symbol:      symbol,
		Underlying:  underlying,
		Type:        oType,
		StrikePrice: strike,
		ExpiryDate:  expiry,
		Multiplier:  mult,
		Status:      StatusTrading,
	}, nil
}

// IsExpired 判断合约在 now 时刻是否已过到期日
func (c *Contract) IsExpired(now time.Time) bool {
	return now.After(c.ExpiryDate)
}

// Settle 结算合约，仅允许 TRADING → SETTLED
func (c *Contract) Settle() error {
	if c.Status != StatusTrading {
		return fmt.Errorf("%w: contract %s is %s, cannot settle", ErrInvalidInput, c.ContractID, c.Status)
	}
	c.Status = StatusSettled
	return nil
}

// Expire 到期转换，仅 TRADING 状态会转换为 EXPIRED，返回是否发生转换
func (c *Contract) Expire() bool {
	if c.Status != StatusTrading {
		return false
	}
	c.Status = StatusExpired
	return true
}
