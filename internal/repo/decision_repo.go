package repo

import (
	"context"

	"github.com/dushixiang/argus/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewDecisionRepo(db *gorm.DB) *DecisionRepo {
	return &DecisionRepo{
		Repository: orz.NewRepository[models.Decision, string](db),
	}
}

type DecisionRepo struct {
	orz.Repository[models.Decision, string]
}

// FindRecent 获取最近的决策记录
func (r DecisionRepo) FindRecent(ctx context.Context, limit int) ([]models.Decision, error) {
	var decisions []models.Decision
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("created_at DESC").
		Limit(limit).
		Find(&decisions).Error
	return decisions, err
}

// FindRecentBySymbol 获取指定交易对最近的决策记录
func (r DecisionRepo) FindRecentBySymbol(ctx context.Context, symbol string, limit int) ([]models.Decision, error) {
	var decisions []models.Decision
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		Order("created_at DESC").
		Limit(limit).
		Find(&decisions).Error
	return decisions, err
}
