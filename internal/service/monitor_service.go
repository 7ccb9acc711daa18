package service

import (
	"context"
	"sync"
	"time"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/pkg/exchange"
	"go.uber.org/zap"
)

// MonitorService 持仓巡检服务
// 周期性对比交易所与本地持仓，按优先级处理：对账 → 止损 → 止盈 → 分批止盈 → 移动止损
type MonitorService struct {
	logger *zap.Logger

	conf            *config.Config
	exchange        exchange.Exchange
	positionService *PositionService
	traderService   *TraderService
	riskService     *RiskService

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewMonitorService 创建持仓巡检服务
func NewMonitorService(
	conf *config.Config,
	exchange exchange.Exchange,
	positionService *PositionService,
	traderService *TraderService,
	riskService *RiskService,
	logger *zap.Logger,
) *MonitorService {
	return &MonitorService{
		logger:          logger,
		conf:            conf,
		exchange:        exchange,
		positionService: positionService,
		traderService:   traderService,
		riskService:     riskService,
	}
}

// Start 启动巡检循环，立即执行一次后按配置的间隔定时执行
func (s *MonitorService) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	interval := time.Duration(s.conf.Trading.PositionCheckIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.stopped = make(chan struct{})

	go func() {
		defer close(s.stopped)

		s.logger.Info("position monitor started", zap.Duration("interval", interval))

		if err := s.CheckPositions(ctx); err != nil {
			s.logger.Error("position check failed", zap.Error(err))
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info("position monitor stopped")
				return
			case <-ticker.C:
				if err := s.CheckPositions(ctx); err != nil {
					s.logger.Error("position check failed", zap.Error(err))
				}
			}
		}
	}()
}

// Stop 停止巡检循环并等待退出
func (s *MonitorService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	stopped := s.stopped
	s.cancel = nil
	s.stopped = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-stopped
	}
}

// CheckPositions 执行一轮巡检，单个交易对的失败不影响其余交易对
func (s *MonitorService) CheckPositions(ctx context.Context) error {
	venuePositions, err := s.exchange.GetPositions(ctx)
	if err != nil {
		return err
	}
	venueMap := make(map[string]*exchange.Position, len(venuePositions))
	for _, p := range venuePositions {
		venueMap[p.Symbol] = p
	}

	positions, err := s.positionService.FindAll(ctx)
	if err != nil {
		return err
	}

	for i := range positions {
		position := positions[i]
		if err := s.checkPosition(ctx, &position, venueMap); err != nil {
			s.logger.Error("failed to check position",
				zap.String("symbol", position.Symbol),
				zap.Error(err))
		}
	}
	return nil
}

func (s *MonitorService) checkPosition(ctx context.Context, position *models.Position, venueMap map[string]*exchange.Position) error {
	// 交易所侧已不存在，先对账
	venuePosition, ok := venueMap[position.Symbol]
	if !ok {
		return s.traderService.ResolveDesync(ctx, position.Symbol)
	}

	markPrice := venuePosition.MarkPrice
	if markPrice <= 0 {
		price, err := s.exchange.GetCurrentPrice(ctx, position.Symbol)
		if err != nil {
			return err
		}
		markPrice = price
	}

	// 止损优先于止盈
	if s.stopLossHit(position, markPrice) {
		_, err := s.traderService.ClosePositionBySymbol(ctx, position.Symbol, models.CloseReasonStopLoss)
		return err
	}
	if s.takeProfitHit(position, markPrice) {
		_, err := s.traderService.ClosePositionBySymbol(ctx, position.Symbol, models.CloseReasonTakeProfit)
		return err
	}

	// 分批止盈触发后本轮不再处理移动止损
	if s.conf.Trading.UsePartialTP && !position.PartialTPExecuted {
		if s.partialTargetHit(position, markPrice) {
			return s.traderService.ExecutePartialTakeProfit(ctx, position.Symbol, markPrice)
		}
	}

	if s.conf.Trading.UseTrailingStopLoss {
		if position.ProfitPercent(markPrice) >= s.conf.Trading.TrailingStopActivationPercent {
			return s.traderService.RatchetTrailingStop(ctx, position.Symbol, markPrice)
		}
	}

	return nil
}

func (s *MonitorService) stopLossHit(position *models.Position, markPrice float64) bool {
	if position.StopLoss <= 0 {
		return false
	}
	if position.IsLong() {
		return markPrice <= position.StopLoss
	}
	return markPrice >= position.StopLoss
}

func (s *MonitorService) takeProfitHit(position *models.Position, markPrice float64) bool {
	if position.TakeProfit <= 0 {
		return false
	}
	if position.IsLong() {
		return markPrice >= position.TakeProfit
	}
	return markPrice <= position.TakeProfit
}

func (s *MonitorService) partialTargetHit(position *models.Position, markPrice float64) bool {
	target := s.riskService.PartialTarget(position)
	if position.IsLong() {
		return markPrice >= target
	}
	return markPrice <= target
}
