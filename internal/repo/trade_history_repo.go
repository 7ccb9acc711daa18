package repo

import (
	"context"

	"github.com/dushixiang/argus/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewTradeHistoryRepo(db *gorm.DB) *TradeHistoryRepo {
	return &TradeHistoryRepo{
		Repository: orz.NewRepository[models.TradeHistory, string](db),
	}
}

type TradeHistoryRepo struct {
	orz.Repository[models.TradeHistory, string]
}

// FindRecent 获取最近的平仓记录
func (r TradeHistoryRepo) FindRecent(ctx context.Context, limit int) ([]models.TradeHistory, error) {
	var records []models.TradeHistory
	db := r.GetDB(ctx)
	err := db.Table(r.GetTableName()).
		Order("closed_at DESC").
		Limit(limit).
		Find(&records).Error
	return records, err
}

// TradeStats 交易统计
type TradeStats struct {
	TotalTrades   int64   `json:"total_trades"`
	WinningTrades int64   `json:"winning_trades"`
	LosingTrades  int64   `json:"losing_trades"`
	TotalPnl      float64 `json:"total_pnl"`
	WinRate       float64 `json:"win_rate"`
}

// Stats 汇总全部平仓记录的胜率与盈亏
func (r TradeHistoryRepo) Stats(ctx context.Context) (*TradeStats, error) {
	db := r.GetDB(ctx)
	stats := &TradeStats{}

	if err := db.Table(r.GetTableName()).Count(&stats.TotalTrades).Error; err != nil {
		return nil, err
	}
	if err := db.Table(r.GetTableName()).Where("pnl > 0").Count(&stats.WinningTrades).Error; err != nil {
		return nil, err
	}
	if err := db.Table(r.GetTableName()).Where("pnl < 0").Count(&stats.LosingTrades).Error; err != nil {
		return nil, err
	}

	var totalPnl struct {
		Total float64
	}
	err := db.Table(r.GetTableName()).
		Select("COALESCE(SUM(pnl), 0) as total").
		Scan(&totalPnl).Error
	if err != nil {
		return nil, err
	}
	stats.TotalPnl = totalPnl.Total

	if stats.TotalTrades > 0 {
		stats.WinRate = float64(stats.WinningTrades) / float64(stats.TotalTrades) * 100
	}
	return stats, nil
}
