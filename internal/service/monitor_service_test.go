package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type tradingFixture struct {
	db              *gorm.DB
	fake            *fakeExchange
	conf            *config.Config
	positionService *PositionService
	traderService   *TraderService
	monitorService  *MonitorService
}

func newTradingFixture(t *testing.T) *tradingFixture {
	t.Helper()

	conf := &config.Config{}
	conf.Trading.Leverage = 10
	conf.Trading.RiskPerTradePercent = 2
	conf.Trading.AtrMultiplierSL = 2
	conf.Trading.RiskRewardRatioTP = 1.5
	conf.Trading.UsePartialTP = true
	conf.Trading.PartialTPTargetRR = 1
	conf.Trading.PartialTPClosePercent = 50
	conf.Trading.UseTrailingStopLoss = true
	conf.Trading.TrailingStopActivationPercent = 1
	conf.Trading.MaxConcurrentTrades = 3

	logger := zap.NewNop()
	fake := newFakeExchange()
	db := newTestDB(t)
	positionService := NewPositionService(db, logger)
	marketService := NewMarketService(fake, NewIndicatorService(), logger)
	riskService := NewRiskService(conf, logger)
	traderService := NewTraderService(conf, fake, positionService, marketService, riskService, nil, logger)
	monitorService := NewMonitorService(conf, fake, positionService, traderService, riskService, logger)

	return &tradingFixture{
		db:              db,
		fake:            fake,
		conf:            conf,
		positionService: positionService,
		traderService:   traderService,
		monitorService:  monitorService,
	}
}

// seedPosition 落一条持仓并同步到交易所侧
func (f *tradingFixture) seedPosition(t *testing.T, markPrice float64) {
	t.Helper()
	if err := f.positionService.SavePosition(context.Background(), longPosition()); err != nil {
		t.Fatalf("failed to seed position: %v", err)
	}
	f.fake.setPrice("BTC/USDT", markPrice)
	f.fake.setVenuePosition(venuePosition("BTC/USDT", models.SideLong, 0.5, 60000, markPrice))
}

func TestMonitorResolvesDesync(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()

	// 本地有持仓，交易所侧没有
	if err := f.positionService.SavePosition(ctx, longPosition()); err != nil {
		t.Fatalf("failed to seed position: %v", err)
	}
	f.fake.setPrice("BTC/USDT", 59000)

	if err := f.monitorService.CheckPositions(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	// 对账平仓不下任何订单
	if orders := f.fake.reduceOnlyOrders(); len(orders) != 0 {
		t.Errorf("desync close must not place orders, got %d", len(orders))
	}

	history, err := f.positionService.FindHistory(ctx, 10)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one history record, got %d", len(history))
	}
	if history[0].Status != models.CloseReasonSyncClosed {
		t.Errorf("expected status %s, got %s", models.CloseReasonSyncClosed, history[0].Status)
	}
	// 真实平仓价未知，按开仓价落账
	if history[0].ClosePrice != 60000 {
		t.Errorf("expected close price at entry 60000, got %f", history[0].ClosePrice)
	}

	if _, err := f.positionService.FindBySymbol(ctx, "BTC/USDT"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("position should be deleted, got %v", err)
	}
}

func TestMonitorStopLoss(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()
	f.seedPosition(t, 58500) // 低于止损 58800

	if err := f.monitorService.CheckPositions(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	orders := f.fake.reduceOnlyOrders()
	if len(orders) != 1 {
		t.Fatalf("expected one reduce-only order, got %d", len(orders))
	}
	if orders[0].Side != "SELL" || orders[0].Quantity != 0.5 {
		t.Errorf("expected SELL 0.5, got %s %f", orders[0].Side, orders[0].Quantity)
	}

	history, _ := f.positionService.FindHistory(ctx, 10)
	if len(history) != 1 || history[0].Status != models.CloseReasonStopLoss {
		t.Fatalf("expected one SL record, got %+v", history)
	}
}

func TestMonitorTakeProfit(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()
	f.seedPosition(t, 62000) // 高于止盈 61800

	if err := f.monitorService.CheckPositions(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	history, _ := f.positionService.FindHistory(ctx, 10)
	if len(history) != 1 || history[0].Status != models.CloseReasonTakeProfit {
		t.Fatalf("expected one TP record, got %+v", history)
	}
}

func TestMonitorPartialThenTrailing(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()
	// 初始止损距离 1200，分批止盈目标 61200
	f.seedPosition(t, 61500)

	// 第一轮：触发分批止盈，本轮不再处理移动止损
	if err := f.monitorService.CheckPositions(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	position, err := f.positionService.FindBySymbol(ctx, "BTC/USDT")
	if err != nil {
		t.Fatalf("failed to find position: %v", err)
	}
	if !position.PartialTPExecuted {
		t.Fatal("expected partial take profit to execute")
	}
	if position.Amount != 0.25 {
		t.Errorf("expected remaining amount 0.25, got %f", position.Amount)
	}
	if position.StopLoss != 60000 {
		t.Errorf("expected breakeven stop 60000 after partial close, got %f", position.StopLoss)
	}
	orders := f.fake.reduceOnlyOrders()
	if len(orders) != 1 || orders[0].Quantity != 0.25 {
		t.Fatalf("expected one reduce-only order of 0.25, got %+v", orders)
	}

	// 第二轮：同样的价格，分批已完成，轮到移动止损 61500-1200=60300
	if err := f.monitorService.CheckPositions(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	position, _ = f.positionService.FindBySymbol(ctx, "BTC/USDT")
	if position.StopLoss != 60300 {
		t.Errorf("expected trailing stop 60300, got %f", position.StopLoss)
	}

	// 第三轮：价格回落，候选止损更差，不回退
	f.fake.setPrice("BTC/USDT", 61000)
	f.fake.setVenuePosition(venuePosition("BTC/USDT", models.SideLong, 0.25, 60000, 61000))
	if err := f.monitorService.CheckPositions(ctx); err != nil {
		t.Fatalf("check failed: %v", err)
	}
	position, _ = f.positionService.FindBySymbol(ctx, "BTC/USDT")
	if position.StopLoss != 60300 {
		t.Errorf("trailing stop moved backwards to %f", position.StopLoss)
	}
}
