package service

import (
	"context"
	"errors"
	"time"

	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/repo"
	"github.com/dushixiang/argus/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PositionService 持仓存储服务，负责持仓的生命周期写入
// 不触碰交易所，交易所操作由 TraderService 完成后再写库
type PositionService struct {
	logger *zap.Logger

	*orz.Service
	*repo.PositionRepo

	historyRepo *repo.TradeHistoryRepo
}

// NewPositionService 创建持仓存储服务
func NewPositionService(db *gorm.DB, logger *zap.Logger) *PositionService {
	return &PositionService{
		logger:       logger,
		Service:      orz.NewService(db),
		PositionRepo: repo.NewPositionRepo(db),
		historyRepo:  repo.NewTradeHistoryRepo(db),
	}
}

// SavePosition 写入新持仓，同一交易对已有持仓时拒绝
func (s *PositionService) SavePosition(ctx context.Context, position *models.Position) error {
	exists, err := s.ExistsBySymbol(ctx, position.Symbol)
	if err != nil {
		return err
	}
	if exists {
		return xe.ErrPositionExists
	}

	position.ID = ulid.Make().String()
	position.InitialAmount = position.Amount
	position.InitialStopLoss = position.StopLoss
	position.PartialTPExecuted = false
	position.RealizedPnl = 0
	position.CreatedAt = time.Now()

	return s.Create(ctx, position)
}

// ApplyPartialClose 记录分批止盈结果：减少持仓数量、累计已实现盈亏、保本止损
// 已执行过的持仓直接返回，保证重复触发安全
func (s *PositionService) ApplyPartialClose(ctx context.Context, symbol string, closeAmount, realizedPnl, newStopLoss float64) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		position, err := s.FindBySymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return xe.ErrPositionNotFound
			}
			return err
		}

		if position.PartialTPExecuted {
			return nil
		}

		remaining := position.Amount - closeAmount
		if remaining <= 0 {
			return errors.New("partial close would empty the position")
		}

		position.Amount = remaining
		position.PartialTPExecuted = true
		position.RealizedPnl += realizedPnl

		// 止损只向有利方向移动
		if s.improves(position.Side, newStopLoss, position.StopLoss) {
			position.StopLoss = newStopLoss
		}

		return s.Save(ctx, &position)
	})
}

// RatchetStopLoss 移动止损，只接受比当前更有利的价格
func (s *PositionService) RatchetStopLoss(ctx context.Context, symbol string, newStopLoss float64) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		position, err := s.FindBySymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return xe.ErrPositionNotFound
			}
			return err
		}

		if !s.improves(position.Side, newStopLoss, position.StopLoss) {
			return nil
		}

		position.StopLoss = newStopLoss
		return s.Save(ctx, &position)
	})
}

// ClosePosition 删除持仓并写入平仓记录，两者在同一事务内完成
// 持仓不存在时返回 ErrPositionNotFound，重复平仓不会产生重复记录
func (s *PositionService) ClosePosition(ctx context.Context, symbol string, closePrice float64, reason string) (*models.TradeHistory, error) {
	var record *models.TradeHistory
	err := s.Transaction(ctx, func(ctx context.Context) error {
		position, err := s.FindBySymbol(ctx, symbol)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return xe.ErrPositionNotFound
			}
			return err
		}

		// 总盈亏 = 分批止盈已实现部分 + 剩余仓位按平仓价计算的部分
		totalPnl := position.RealizedPnl + position.Pnl(closePrice, position.Amount)

		record = &models.TradeHistory{
			ID:              ulid.Make().String(),
			Symbol:          position.Symbol,
			Side:            position.Side,
			Amount:          position.InitialAmount,
			EntryPrice:      position.EntryPrice,
			ClosePrice:      closePrice,
			Leverage:        position.Leverage,
			Timeframe:       position.Timeframe,
			StopLoss:        position.StopLoss,
			TakeProfit:      position.TakeProfit,
			InitialStopLoss: position.InitialStopLoss,
			Pnl:             totalPnl,
			Status:          reason,
			OpenedAt:        position.CreatedAt,
			ClosedAt:        time.Now(),
		}
		if err := s.historyRepo.Create(ctx, record); err != nil {
			return err
		}

		return s.DeleteBySymbol(ctx, position.Symbol)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("position closed",
		zap.String("symbol", symbol),
		zap.Float64("close_price", closePrice),
		zap.Float64("pnl", record.Pnl),
		zap.String("reason", reason))

	return record, nil
}

// FindHistory 获取最近的平仓记录
func (s *PositionService) FindHistory(ctx context.Context, limit int) ([]models.TradeHistory, error) {
	return s.historyRepo.FindRecent(ctx, limit)
}

// Stats 获取交易统计
func (s *PositionService) Stats(ctx context.Context) (*repo.TradeStats, error) {
	return s.historyRepo.Stats(ctx)
}

func (s *PositionService) improves(side string, candidate, current float64) bool {
	if side == models.SideLong {
		return candidate > current
	}
	return candidate < current
}
