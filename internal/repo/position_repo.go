package repo

import (
	"context"
	"errors"

	"github.com/dushixiang/argus/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPositionRepo(db *gorm.DB) *PositionRepo {
	return &PositionRepo{
		Repository: orz.NewRepository[models.Position, string](db),
	}
}

type PositionRepo struct {
	orz.Repository[models.Position, string]
}

// FindBySymbol 根据交易对查找持仓记录
func (r PositionRepo) FindBySymbol(ctx context.Context, symbol string) (m models.Position, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		First(&m).Error
	return m, err
}

// ExistsBySymbol 判断交易对是否已有持仓
func (r PositionRepo) ExistsBySymbol(ctx context.Context, symbol string) (bool, error) {
	_, err := r.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// CountAll 统计当前持仓数量
func (r PositionRepo) CountAll(ctx context.Context) (int64, error) {
	var count int64
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).Count(&count).Error
	return count, err
}

// DeleteBySymbol 根据交易对删除持仓记录
func (r PositionRepo) DeleteBySymbol(ctx context.Context, symbol string) error {
	db := r.GetDB(ctx)
	return db.Where("symbol = ?", symbol).Delete(&models.Position{}).Error
}
