package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/xe"
	"github.com/dushixiang/argus/pkg/exchange"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 平仓后给交易所留出的结算时间
const settleDelay = 500 * time.Millisecond

// TraderService 交易执行服务
// 所有会改变交易所状态的操作都在全局互斥锁内执行，先操作交易所再写库
type TraderService struct {
	logger *zap.Logger

	mu sync.Mutex

	conf            *config.Config
	exchange        exchange.Exchange
	positionService *PositionService
	marketService   *MarketService
	riskService     *RiskService
	notifier        Notifier
}

// NewTraderService 创建交易执行服务
func NewTraderService(
	conf *config.Config,
	exchange exchange.Exchange,
	positionService *PositionService,
	marketService *MarketService,
	riskService *RiskService,
	notifier Notifier,
	logger *zap.Logger,
) *TraderService {
	return &TraderService{
		logger:          logger,
		conf:            conf,
		exchange:        exchange,
		positionService: positionService,
		marketService:   marketService,
		riskService:     riskService,
		notifier:        notifier,
	}
}

// OpenPosition 按风控规则开仓
// 流程：仓位上限检查 → ATR止损测算 → 仓位大小 → 保证金检查 → 下单 → 挂保护单 → 落库
func (s *TraderService) OpenPosition(ctx context.Context, symbol, side, timeframe string) (*models.Position, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := s.positionService.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	if count >= int64(s.conf.Trading.MaxConcurrentTrades) {
		return nil, xe.ErrMaxPositions
	}

	exists, err := s.positionService.ExistsBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, xe.ErrPositionExists
	}

	price, err := s.exchange.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}

	atr, err := s.marketService.ATR(ctx, symbol, timeframe)
	if err != nil {
		return nil, err
	}
	stopDistance, err := s.riskService.StopDistance(atr)
	if err != nil {
		return nil, err
	}
	stopLoss, takeProfit, err := s.riskService.StopAndTarget(price, side, stopDistance)
	if err != nil {
		return nil, err
	}

	balance, err := s.exchange.GetBalance(ctx, "USDT")
	if err != nil {
		return nil, err
	}

	amount, err := s.riskService.PositionSize(balance, price, stopLoss)
	if err != nil {
		return nil, err
	}
	amount, err = s.exchange.FormatQuantity(ctx, symbol, amount)
	if err != nil {
		return nil, err
	}

	leverage := s.conf.Trading.Leverage
	if err := s.riskService.CheckMargin(amount, price, leverage, balance); err != nil {
		return nil, err
	}

	if err := s.exchange.SetLeverage(ctx, symbol, leverage); err != nil {
		return nil, err
	}

	var order *exchange.OrderResult
	if s.conf.Trading.OrderType == "limit" {
		order, err = s.exchange.CreateLimitOrder(ctx, symbol, entrySide(side), amount, price)
	} else {
		order, err = s.exchange.CreateMarketOrder(ctx, symbol, entrySide(side), amount, false)
	}
	if err != nil {
		return nil, err
	}

	entryPrice := order.AvgPrice
	if entryPrice <= 0 {
		entryPrice = price
	}

	position := &models.Position{
		Symbol:     symbol,
		Side:       side,
		Amount:     amount,
		EntryPrice: entryPrice,
		Leverage:   leverage,
		Timeframe:  timeframe,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}

	// 保护单失败不回滚开仓，价格越界由持仓巡检兜底
	s.placeProtectiveOrders(ctx, position)

	if err := s.positionService.SavePosition(ctx, position); err != nil {
		return nil, err
	}

	s.logger.Info("position opened",
		zap.String("symbol", symbol),
		zap.String("side", side),
		zap.Float64("amount", amount),
		zap.Float64("entry_price", entryPrice),
		zap.Float64("stop_loss", stopLoss),
		zap.Float64("take_profit", takeProfit))

	if s.notifier != nil {
		s.notifier.PositionOpened(position)
	}
	return position, nil
}

// ClosePositionBySymbol 市价全平指定交易对的持仓
// 流程：撤掉全部挂单 → 等待结算 → 只减仓市价平仓 → 删库写历史 → 通知
func (s *TraderService) ClosePositionBySymbol(ctx context.Context, symbol, reason string) (*models.TradeHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := s.positionService.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, xe.ErrPositionNotFound
		}
		return nil, err
	}

	if err := s.exchange.CancelAllOrders(ctx, symbol); err != nil {
		return nil, err
	}
	time.Sleep(settleDelay)

	order, err := s.exchange.CreateMarketOrder(ctx, symbol, closeSide(position.Side), position.Amount, true)
	if err != nil {
		return nil, err
	}

	closePrice := order.AvgPrice
	if closePrice <= 0 {
		closePrice, err = s.exchange.GetCurrentPrice(ctx, symbol)
		if err != nil {
			closePrice = position.EntryPrice
		}
	}

	record, err := s.positionService.ClosePosition(ctx, symbol, closePrice, reason)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.PositionClosed(record)
	}
	return record, nil
}

// ExecutePartialTakeProfit 执行分批止盈
// 平掉开仓数量的固定比例，止损移到开仓价保本，重挂剩余仓位的保护单
func (s *TraderService) ExecutePartialTakeProfit(ctx context.Context, symbol string, markPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := s.positionService.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrPositionNotFound
		}
		return err
	}
	if position.PartialTPExecuted {
		return nil
	}

	closeAmount := position.InitialAmount * s.conf.Trading.PartialTPClosePercent / 100
	closeAmount, err = s.exchange.FormatQuantity(ctx, symbol, closeAmount)
	if err != nil {
		return err
	}

	remaining := position.Amount - closeAmount
	if remaining <= 0 {
		s.logger.Warn("partial take profit skipped, would empty the position",
			zap.String("symbol", symbol),
			zap.Float64("amount", position.Amount),
			zap.Float64("close_amount", closeAmount))
		return nil
	}

	if err := s.exchange.CancelAllOrders(ctx, symbol); err != nil {
		return err
	}
	time.Sleep(settleDelay)

	order, err := s.exchange.CreateMarketOrder(ctx, symbol, closeSide(position.Side), closeAmount, true)
	if err != nil {
		return err
	}

	execPrice := order.AvgPrice
	if execPrice <= 0 {
		execPrice = markPrice
	}
	realizedPnl := s.riskService.CalculatePnl(position.Side, position.EntryPrice, execPrice, closeAmount)

	// 剩余仓位止损保本
	breakeven := position.EntryPrice
	position.Amount = remaining
	position.StopLoss = breakeven
	s.placeProtectiveOrders(ctx, &position)

	if err := s.positionService.ApplyPartialClose(ctx, symbol, closeAmount, realizedPnl, breakeven); err != nil {
		return err
	}

	s.logger.Info("partial take profit executed",
		zap.String("symbol", symbol),
		zap.Float64("closed_amount", closeAmount),
		zap.Float64("realized_pnl", realizedPnl),
		zap.Float64("remaining", remaining))

	if s.notifier != nil {
		s.notifier.PartialTakeProfit(&position, closeAmount, realizedPnl)
	}
	return nil
}

// RatchetTrailingStop 移动止损，只向有利方向更新
func (s *TraderService) RatchetTrailingStop(ctx context.Context, symbol string, markPrice float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := s.positionService.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return xe.ErrPositionNotFound
		}
		return err
	}

	candidate := s.riskService.TrailingCandidate(&position, markPrice)
	if !s.riskService.ImprovesStop(position.Side, candidate, position.StopLoss) {
		return nil
	}

	if err := s.exchange.CancelAllOrders(ctx, symbol); err != nil {
		return err
	}

	oldStop := position.StopLoss
	position.StopLoss = candidate
	s.placeProtectiveOrders(ctx, &position)

	if err := s.positionService.RatchetStopLoss(ctx, symbol, candidate); err != nil {
		return err
	}

	s.logger.Info("trailing stop moved",
		zap.String("symbol", symbol),
		zap.Float64("old_stop", oldStop),
		zap.Float64("new_stop", candidate))

	if s.notifier != nil {
		s.notifier.TrailingStopMoved(&position, oldStop, candidate)
	}
	return nil
}

// ResolveDesync 处理交易所侧已消失的持仓
// 不再下任何订单，只按开仓价落一条对账平仓记录
func (s *TraderService) ResolveDesync(ctx context.Context, symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	position, err := s.positionService.FindBySymbol(ctx, symbol)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}

	if err := s.exchange.CancelAllOrders(ctx, symbol); err != nil {
		s.logger.Warn("failed to cancel orders for desynced position",
			zap.String("symbol", symbol), zap.Error(err))
	}

	record, err := s.positionService.ClosePosition(ctx, symbol, position.EntryPrice, models.CloseReasonSyncClosed)
	if err != nil {
		return err
	}

	s.logger.Warn("position closed outside the system, records reconciled",
		zap.String("symbol", symbol))

	if s.notifier != nil {
		s.notifier.PositionClosed(record)
	}
	return nil
}

// placeProtectiveOrders 挂止损和止盈保护单，失败只记日志
func (s *TraderService) placeProtectiveOrders(ctx context.Context, position *models.Position) {
	side := closeSide(position.Side)

	if position.StopLoss > 0 {
		if _, err := s.exchange.CreateStopLossOrder(ctx, position.Symbol, side, position.Amount, position.StopLoss); err != nil {
			s.logger.Error("failed to place stop loss order",
				zap.String("symbol", position.Symbol),
				zap.Float64("stop_price", position.StopLoss),
				zap.Error(err))
		}
	}
	if position.TakeProfit > 0 {
		if _, err := s.exchange.CreateTakeProfitOrder(ctx, position.Symbol, side, position.Amount, position.TakeProfit); err != nil {
			s.logger.Error("failed to place take profit order",
				zap.String("symbol", position.Symbol),
				zap.Float64("take_profit_price", position.TakeProfit),
				zap.Error(err))
		}
	}
}

func entrySide(side string) exchange.OrderSide {
	if side == models.SideLong {
		return exchange.OrderSideBuy
	}
	return exchange.OrderSideSell
}

func closeSide(side string) exchange.OrderSide {
	if side == models.SideLong {
		return exchange.OrderSideSell
	}
	return exchange.OrderSideBuy
}
