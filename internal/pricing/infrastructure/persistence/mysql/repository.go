package mysql

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	pkgdb "github.com/wyfcoding/optionpricing/pkg/db"
)

type pricingRepository struct {
	db *gorm.DB
}

// NewPricingRepository 创建并返回一个新的 pricingRepository 实例。
func NewPricingRepository(db *gorm.DB) domain.PricingRepository {
	return &pricingRepository{db: db}
}

// getDB 优先使用 context 中的事务句柄
func (r *pricingRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := pkgdb.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db
}

// WithTx 在事务中执行 fn，事务句柄通过 context 传递
func (r *pricingRepository) WithTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(pkgdb.WithTxContext(ctx, tx))
	})
}

// --- PricingResult ---

func (r *pricingRepository) SavePricingResult(ctx context.Context, res *domain.PricingResult) error {
	model := toPricingResultModel(res)
	if model == nil {
		return nil
	}
	if err := r.getDB(ctx).WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	res.ID = model.ID
	res.CreatedAt = model.CreatedAt
	res.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *pricingRepository) GetLatest(ctx context.Context, symbol string) (*domain.PricingResult, error) {
	var model PricingResultModel
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc, id desc").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("no pricing result for symbol %s: %w", symbol, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return toPricingResult(&model), nil
}

func (r *pricingRepository) GetHistory(ctx context.Context, symbol string, limit int) ([]*domain.PricingResult, error) {
	var models []PricingResultModel
	err := r.getDB(ctx).WithContext(ctx).
		Where("symbol = ?", symbol).
		Order("calculated_at desc, id desc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	results := make([]*domain.PricingResult, 0, len(models))
	for i := range models {
		results = append(results, toPricingResult(&models[i]))
	}
	return results, nil
}

// --- Contract ---

// domain.Contract 自带 gorm 标签，直接作为模型使用

func (r *pricingRepository) SaveContract(ctx context.Context, c *domain.Contract) error {
	db := r.getDB(ctx).WithContext(ctx)

	// 保留既有记录的 ID/CreatedAt
	var exist domain.Contract
	if err := db.Where("contract_id = ?", c.ContractID).First(&exist).Error; err == nil {
		c.ID = exist.ID
		c.CreatedAt = exist.CreatedAt
	}
	return db.Save(c).Error
}

func (r *pricingRepository) GetContract(ctx context.Context, contractID string) (*domain.Contract, error) {
	var c domain.Contract
	err := r.getDB(ctx).WithContext(ctx).Where("contract_id = ?", contractID).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("contract %s: %w", contractID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *pricingRepository) ListContracts(ctx context.Context, underlying, oType string, activeOnly bool) ([]*domain.Contract, error) {
	var contracts []*domain.Contract
	query := r.getDB(ctx).WithContext(ctx)

	if underlying != "" {
		query = query.Where("underlying = ?", underlying)
	}
	if oType != "" {
		query = query.Where("type = ?", oType)
	}
	if activeOnly {
		query = query.Where("status = ?", domain.StatusTrading)
	}

	err := query.Find(&contracts).Error
	return contracts, err
}
