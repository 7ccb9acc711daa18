package service

import (
	"context"
	"errors"
	"testing"

	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/xe"
)

func TestOpenPosition(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()

	f.fake.setPrice("BTC/USDT", 60000)
	f.fake.fillKlines("BTC/USDT", 200, 60000)

	position, err := f.traderService.OpenPosition(ctx, "BTC/USDT", models.SideLong, "15m")
	if err != nil {
		t.Fatalf("failed to open position: %v", err)
	}

	if position.Amount <= 0 {
		t.Errorf("expected positive amount, got %f", position.Amount)
	}
	if position.EntryPrice != 60000 {
		t.Errorf("expected entry price 60000, got %f", position.EntryPrice)
	}
	if position.StopLoss <= 0 || position.StopLoss >= 60000 {
		t.Errorf("long stop loss must be below entry, got %f", position.StopLoss)
	}
	if position.TakeProfit <= 60000 {
		t.Errorf("long take profit must be above entry, got %f", position.TakeProfit)
	}
	// 止盈距离 = 止损距离 × 1.5
	stopDistance := 60000 - position.StopLoss
	targetDistance := position.TakeProfit - 60000
	if !almostEqual(targetDistance, stopDistance*1.5) {
		t.Errorf("expected target distance %f, got %f", stopDistance*1.5, targetDistance)
	}

	saved, err := f.positionService.FindBySymbol(ctx, "BTC/USDT")
	if err != nil {
		t.Fatalf("position not persisted: %v", err)
	}
	if saved.InitialStopLoss != saved.StopLoss {
		t.Errorf("expected initial stop loss recorded, got %f vs %f", saved.InitialStopLoss, saved.StopLoss)
	}

	// 开仓单 + 两条保护单
	if len(f.fake.marketOrders) != 1 || f.fake.marketOrders[0].ReduceOnly {
		t.Errorf("expected one entry market order, got %+v", f.fake.marketOrders)
	}
	if len(f.fake.stopOrders) != 1 {
		t.Errorf("expected one stop loss order, got %d", len(f.fake.stopOrders))
	}
	if len(f.fake.tpOrders) != 1 {
		t.Errorf("expected one take profit order, got %d", len(f.fake.tpOrders))
	}

	// 同一交易对不允许再开
	if _, err := f.traderService.OpenPosition(ctx, "BTC/USDT", models.SideShort, "15m"); !errors.Is(err, xe.ErrPositionExists) {
		t.Errorf("expected ErrPositionExists, got %v", err)
	}
}

func TestOpenPositionMaxConcurrent(t *testing.T) {
	f := newTradingFixture(t)
	f.conf.Trading.MaxConcurrentTrades = 1
	ctx := context.Background()

	f.fake.setPrice("BTC/USDT", 60000)
	f.fake.fillKlines("BTC/USDT", 200, 60000)
	f.fake.setPrice("ETH/USDT", 3000)
	f.fake.fillKlines("ETH/USDT", 200, 3000)

	if _, err := f.traderService.OpenPosition(ctx, "BTC/USDT", models.SideLong, "15m"); err != nil {
		t.Fatalf("failed to open position: %v", err)
	}
	if _, err := f.traderService.OpenPosition(ctx, "ETH/USDT", models.SideLong, "15m"); !errors.Is(err, xe.ErrMaxPositions) {
		t.Errorf("expected ErrMaxPositions, got %v", err)
	}
}

func TestClosePositionBySymbol(t *testing.T) {
	f := newTradingFixture(t)
	ctx := context.Background()
	f.seedPosition(t, 61000)

	record, err := f.traderService.ClosePositionBySymbol(ctx, "BTC/USDT", models.CloseReasonManual)
	if err != nil {
		t.Fatalf("failed to close position: %v", err)
	}
	if record.Status != models.CloseReasonManual {
		t.Errorf("expected status %s, got %s", models.CloseReasonManual, record.Status)
	}
	if record.ClosePrice != 61000 {
		t.Errorf("expected close price 61000, got %f", record.ClosePrice)
	}
	// (61000-60000) × 0.5
	if !almostEqual(record.Pnl, 500) {
		t.Errorf("expected pnl 500, got %f", record.Pnl)
	}

	// 先撤单再平仓
	if len(f.fake.canceled) == 0 || f.fake.canceled[0] != "BTC/USDT" {
		t.Errorf("expected all orders to be canceled first, got %v", f.fake.canceled)
	}
	orders := f.fake.reduceOnlyOrders()
	if len(orders) != 1 || orders[0].Side != "SELL" || orders[0].Quantity != 0.5 {
		t.Errorf("expected one reduce-only SELL 0.5, got %+v", orders)
	}

	if _, err := f.traderService.ClosePositionBySymbol(ctx, "BTC/USDT", models.CloseReasonManual); !errors.Is(err, xe.ErrPositionNotFound) {
		t.Errorf("expected ErrPositionNotFound on double close, got %v", err)
	}
}
