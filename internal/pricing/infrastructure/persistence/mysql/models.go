package mysql

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
)

// PricingResultModel 定价结果数据库模型
type PricingResultModel struct {
	ID              uint      `gorm:"primaryKey;autoIncrement"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
	Symbol          string    `gorm:"column:symbol;type:varchar(32);index;not null"`
	OptionType      string    `gorm:"column:option_type;type:varchar(10);not null"`
	OptionPrice     string    `gorm:"column:option_price;type:decimal(32,18);not null"`
	UnderlyingPrice string    `gorm:"column:underlying_price;type:decimal(32,18);not null"`
	Delta           string    `gorm:"column:delta;type:decimal(32,18)"`
	Gamma           string    `gorm:"column:gamma;type:decimal(32,18)"`
	Vega            string    `gorm:"column:vega;type:decimal(32,18)"`
	Theta           string    `gorm:"column:theta;type:decimal(32,18)"`
	ThetaPerDay     string    `gorm:"column:theta_per_day;type:decimal(32,18)"`
	Rho             string    `gorm:"column:rho;type:decimal(32,18)"`
	CalculatedAt    int64     `gorm:"column:calculated_at;type:bigint;not null"`
	PricingModel    string    `gorm:"column:pricing_model;type:varchar(32)"`
}

func (PricingResultModel) TableName() string { return "pricing_results" }

// mapping helpers

func toPricingResultModel(res *domain.PricingResult) *PricingResultModel {
	if res == nil {
		return nil
	}
	return &PricingResultModel{
		ID:              res.ID,
		CreatedAt:       res.CreatedAt,
		UpdatedAt:       res.UpdatedAt,
		Symbol:          res.Symbol,
		OptionType:      string(res.OptionType),
		OptionPrice:     res.OptionPrice.String(),
		UnderlyingPrice: res.UnderlyingPrice.String(),
		Delta:           res.Greeks.Delta.String(),
		Gamma:           res.Greeks.Gamma.String(),
		Vega:            res.Greeks.Vega.String(),
		Theta:           res.Greeks.Theta.String(),
		ThetaPerDay:     res.Greeks.ThetaPerDay.String(),
		Rho:             res.Greeks.Rho.String(),
		CalculatedAt:    res.CalculatedAt,
		PricingModel:    res.PricingModel,
	}
}

func toPricingResult(m *PricingResultModel) *domain.PricingResult {
	if m == nil {
		return nil
	}
	return &domain.PricingResult{
		ID:              m.ID,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
		Symbol:          m.Symbol,
		OptionType:      domain.OptionType(m.OptionType),
		OptionPrice:     parseDecimal(m.OptionPrice),
		UnderlyingPrice: parseDecimal(m.UnderlyingPrice),
		Greeks: domain.Greeks{
			Delta:       parseDecimal(m.Delta),
			Gamma:       parseDecimal(m.Gamma),
			Vega:        parseDecimal(m.Vega),
			Theta:       parseDecimal(m.Theta),
			ThetaPerDay: parseDecimal(m.ThetaPerDay),
			Rho:         parseDecimal(m.Rho),
		},
		CalculatedAt: m.CalculatedAt,
		PricingModel: m.PricingModel,
	}
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
