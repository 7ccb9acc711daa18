package service

import (
	"errors"
	"math"
	"testing"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"go.uber.org/zap"
)

func newTestRiskService() *RiskService {
	conf := &config.Config{}
	conf.Trading.RiskPerTradePercent = 2
	conf.Trading.AtrMultiplierSL = 2
	conf.Trading.RiskRewardRatioTP = 1.5
	conf.Trading.PartialTPTargetRR = 1
	conf.Trading.PartialTPClosePercent = 50
	return NewRiskService(conf, zap.NewNop())
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestStopDistance(t *testing.T) {
	s := newTestRiskService()

	distance, err := s.StopDistance(50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(distance, 100) {
		t.Errorf("expected distance 100, got %f", distance)
	}

	if _, err := s.StopDistance(0); !errors.Is(err, ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance for zero atr, got %v", err)
	}
}

func TestStopAndTarget(t *testing.T) {
	s := newTestRiskService()

	sl, tp, err := s.StopAndTarget(3000, models.SideLong, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(sl, 2900) || !almostEqual(tp, 3150) {
		t.Errorf("long: expected sl=2900 tp=3150, got sl=%f tp=%f", sl, tp)
	}

	sl, tp, err = s.StopAndTarget(3000, models.SideShort, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(sl, 3100) || !almostEqual(tp, 2850) {
		t.Errorf("short: expected sl=3100 tp=2850, got sl=%f tp=%f", sl, tp)
	}

	// 止损价跌破零视为非法
	if _, _, err := s.StopAndTarget(50, models.SideLong, 100); !errors.Is(err, ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance when stop below zero, got %v", err)
	}
}

func TestPositionSize(t *testing.T) {
	s := newTestRiskService()

	// 余额1000，单笔风险2% = 20，止损距离2 → 数量10
	amount, err := s.PositionSize(1000, 100, 98)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !almostEqual(amount, 10) {
		t.Errorf("expected amount 10, got %f", amount)
	}

	if _, err := s.PositionSize(0, 100, 98); !errors.Is(err, ErrInvalidRisk) {
		t.Errorf("expected ErrInvalidRisk for zero balance, got %v", err)
	}
	if _, err := s.PositionSize(1000, 100, 100); !errors.Is(err, ErrInvalidDistance) {
		t.Errorf("expected ErrInvalidDistance for zero distance, got %v", err)
	}
}

func TestCheckMargin(t *testing.T) {
	s := newTestRiskService()

	// 10 × 100 / 10倍杠杆 = 100 保证金
	if err := s.CheckMargin(10, 100, 10, 150); err != nil {
		t.Errorf("expected margin check to pass, got %v", err)
	}
	if err := s.CheckMargin(10, 100, 10, 50); !errors.Is(err, ErrInsufficientMargin) {
		t.Errorf("expected ErrInsufficientMargin, got %v", err)
	}
	// 非法杠杆按1处理
	if err := s.CheckMargin(1, 100, 0, 50); !errors.Is(err, ErrInsufficientMargin) {
		t.Errorf("expected ErrInsufficientMargin with leverage fallback, got %v", err)
	}
}

func TestPartialTarget(t *testing.T) {
	s := newTestRiskService()

	long := &models.Position{Side: models.SideLong, EntryPrice: 100, InitialStopLoss: 98}
	if target := s.PartialTarget(long); !almostEqual(target, 102) {
		t.Errorf("long: expected target 102, got %f", target)
	}

	short := &models.Position{Side: models.SideShort, EntryPrice: 100, InitialStopLoss: 102}
	if target := s.PartialTarget(short); !almostEqual(target, 98) {
		t.Errorf("short: expected target 98, got %f", target)
	}
}

func TestTrailingCandidate(t *testing.T) {
	s := newTestRiskService()

	long := &models.Position{Side: models.SideLong, EntryPrice: 100, InitialStopLoss: 98}
	if candidate := s.TrailingCandidate(long, 110); !almostEqual(candidate, 108) {
		t.Errorf("long: expected candidate 108, got %f", candidate)
	}

	short := &models.Position{Side: models.SideShort, EntryPrice: 100, InitialStopLoss: 102}
	if candidate := s.TrailingCandidate(short, 90); !almostEqual(candidate, 92) {
		t.Errorf("short: expected candidate 92, got %f", candidate)
	}
}

func TestImprovesStop(t *testing.T) {
	s := newTestRiskService()

	if !s.ImprovesStop(models.SideLong, 99, 98) {
		t.Error("long: higher stop should improve")
	}
	if s.ImprovesStop(models.SideLong, 97, 98) {
		t.Error("long: lower stop should not improve")
	}
	if !s.ImprovesStop(models.SideShort, 101, 102) {
		t.Error("short: lower stop should improve")
	}
	if s.ImprovesStop(models.SideShort, 103, 102) {
		t.Error("short: higher stop should not improve")
	}
}

func TestCalculatePnl(t *testing.T) {
	s := newTestRiskService()

	if pnl := s.CalculatePnl(models.SideLong, 100, 110, 2); !almostEqual(pnl, 20) {
		t.Errorf("long profit: expected 20, got %f", pnl)
	}
	if pnl := s.CalculatePnl(models.SideLong, 100, 95, 2); !almostEqual(pnl, -10) {
		t.Errorf("long loss: expected -10, got %f", pnl)
	}
	if pnl := s.CalculatePnl(models.SideShort, 100, 90, 2); !almostEqual(pnl, 20) {
		t.Errorf("short profit: expected 20, got %f", pnl)
	}
	if pnl := s.CalculatePnl(models.SideShort, 100, 105, 2); !almostEqual(pnl, -10) {
		t.Errorf("short loss: expected -10, got %f", pnl)
	}
}
