package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/xe"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// scriptedLLM 按交易对返回预设输出
type scriptedLLM struct {
	responses map[string]string
	fallback  string
}

func (l *scriptedLLM) Complete(ctx context.Context, system, user string) (string, error) {
	for symbol, response := range l.responses {
		if strings.Contains(user, symbol) {
			return response, nil
		}
	}
	if l.fallback == "" {
		return "", errors.New("no scripted response")
	}
	return l.fallback, nil
}

type scannerFixture struct {
	*tradingFixture
	llm     *scriptedLLM
	scanner *ScannerService
}

func newScannerFixture(t *testing.T) *scannerFixture {
	t.Helper()

	base := newTradingFixture(t)
	base.conf.Scanner.EntryTimeframe = "15m"
	base.conf.Scanner.TrendTimeframe = "1h"
	base.conf.Scanner.IntervalMinutes = 15
	base.conf.Scanner.Whitelist = []string{"BTC/USDT"}

	logger := zap.NewNop()
	db := base.db

	llm := &scriptedLLM{responses: make(map[string]string)}
	marketService := NewMarketService(base.fake, NewIndicatorService(), logger)
	agentService := NewAgentService(db, llm, marketService, NewPromptService(), base.conf, logger)
	scanner := NewScannerService(db, base.conf, agentService, base.traderService, base.positionService, marketService, logger)

	return &scannerFixture{
		tradingFixture: base,
		llm:            llm,
		scanner:        scanner,
	}
}

func TestEnsureConfigSeedsFromFile(t *testing.T) {
	f := newScannerFixture(t)
	ctx := context.Background()

	cfg, err := f.scanner.EnsureConfig(ctx)
	if err != nil {
		t.Fatalf("failed to ensure config: %v", err)
	}
	if cfg.ID == "" {
		t.Error("expected generated config id")
	}
	if cfg.IntervalMinutes != 15 {
		t.Errorf("expected interval 15, got %d", cfg.IntervalMinutes)
	}
	if len(cfg.Whitelist) != 1 || cfg.Whitelist[0] != "BTC/USDT" {
		t.Errorf("expected whitelist from file config, got %v", cfg.Whitelist)
	}

	// 再次调用返回同一条记录
	again, err := f.scanner.EnsureConfig(ctx)
	if err != nil {
		t.Fatalf("failed to ensure config: %v", err)
	}
	if again.ID != cfg.ID {
		t.Errorf("expected same config record, got %s vs %s", again.ID, cfg.ID)
	}
}

func TestCollectCandidates(t *testing.T) {
	f := newScannerFixture(t)
	f.conf.Scanner.Whitelist = []string{"BTC/USDT", "ETH/USDT", "DOGE/USDT", "SOL/USDT"}
	f.conf.Scanner.Blacklist = []string{"DOGE/USDT"}
	ctx := context.Background()

	// SOL 动态拉黑，ETH 已持仓
	f.scanner.addBlacklist("SOL/USDT")
	position := longPosition()
	position.Symbol = "ETH/USDT"
	if err := f.positionService.SavePosition(ctx, position); err != nil {
		t.Fatalf("failed to seed position: %v", err)
	}

	candidates, err := f.scanner.collectCandidates(ctx)
	if err != nil {
		t.Fatalf("failed to collect candidates: %v", err)
	}
	if len(candidates) != 1 || candidates[0] != "BTC/USDT" {
		t.Errorf("expected only BTC/USDT, got %v", candidates)
	}
}

func TestDynamicBlacklistExpiry(t *testing.T) {
	f := newScannerFixture(t)

	f.scanner.addBlacklist("SOL/USDT")
	if !f.scanner.isBlacklisted("SOL/USDT") {
		t.Error("expected symbol to be blacklisted")
	}

	// 过期后自动移出
	f.scanner.mu.Lock()
	f.scanner.blacklist["SOL/USDT"] = time.Now().Add(-time.Minute)
	f.scanner.mu.Unlock()
	if f.scanner.isBlacklisted("SOL/USDT") {
		t.Error("expired blacklist entry should be dropped")
	}
}

func TestScanOpensPositionOnBuySignal(t *testing.T) {
	f := newScannerFixture(t)
	ctx := context.Background()

	f.fake.setPrice("BTC/USDT", 60000)
	f.fake.fillKlines("BTC/USDT", 200, 60000)
	f.llm.responses["BTC/USDT"] = `{"recommendation": "AL", "reason": "趋势向上"}`

	f.scanner.scanOnce(ctx)

	position, err := f.positionService.FindBySymbol(ctx, "BTC/USDT")
	if err != nil {
		t.Fatalf("expected position to be opened: %v", err)
	}
	if position.Side != models.SideLong {
		t.Errorf("expected long position, got %s", position.Side)
	}

	decisions, err := f.scanner.agentService.FindRecentBySymbol(ctx, "BTC/USDT", 10)
	if err != nil {
		t.Fatalf("failed to load decisions: %v", err)
	}
	if len(decisions) != 1 || decisions[0].Recommendation != models.RecommendationBuy {
		t.Errorf("expected one AL decision, got %+v", decisions)
	}
}

func TestScanBlacklistsFailedAnalysis(t *testing.T) {
	f := newScannerFixture(t)
	ctx := context.Background()

	f.fake.setPrice("BTC/USDT", 60000)
	f.fake.fillKlines("BTC/USDT", 200, 60000)
	f.llm.fallback = "模型输出异常，没有JSON"

	f.scanner.scanOnce(ctx)

	if !f.scanner.isBlacklisted("BTC/USDT") {
		t.Error("failed analysis should blacklist the symbol temporarily")
	}
	if _, err := f.positionService.FindBySymbol(ctx, "BTC/USDT"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("no position should be opened, got %v", err)
	}
}

func TestReviewClosesOnRecommendation(t *testing.T) {
	f := newScannerFixture(t)
	f.conf.Agent.CloseAutoConfirm = true
	ctx := context.Background()

	f.seedPosition(t, 60500)
	f.fake.fillKlines("BTC/USDT", 200, 60500)
	f.llm.responses["BTC/USDT"] = `{"recommendation": "KAPAT", "reason": "趋势反转"}`

	f.scanner.reviewOpenPositions(ctx)

	history, err := f.positionService.FindHistory(ctx, 10)
	if err != nil {
		t.Fatalf("failed to load history: %v", err)
	}
	if len(history) != 1 || history[0].Status != models.CloseReasonAgent {
		t.Fatalf("expected one AGENT_CLOSE record, got %+v", history)
	}
}

func TestReviewWaitsWithoutAutoConfirm(t *testing.T) {
	f := newScannerFixture(t)
	f.conf.Agent.CloseAutoConfirm = false
	ctx := context.Background()

	f.seedPosition(t, 60500)
	f.fake.fillKlines("BTC/USDT", 200, 60500)
	f.llm.responses["BTC/USDT"] = `{"recommendation": "KAPAT", "reason": "趋势反转"}`

	f.scanner.reviewOpenPositions(ctx)

	// 只记录建议，不执行平仓
	if _, err := f.positionService.FindBySymbol(ctx, "BTC/USDT"); err != nil {
		t.Errorf("position should remain open, got %v", err)
	}
}

func TestScannerStartStop(t *testing.T) {
	f := newScannerFixture(t)
	ctx := context.Background()

	if err := f.scanner.Start(ctx); err != nil {
		t.Fatalf("failed to start scanner: %v", err)
	}
	if !f.scanner.Running() {
		t.Error("scanner should be running")
	}
	if err := f.scanner.Start(ctx); !errors.Is(err, xe.ErrScannerRunning) {
		t.Errorf("expected ErrScannerRunning, got %v", err)
	}

	if err := f.scanner.Stop(); err != nil {
		t.Fatalf("failed to stop scanner: %v", err)
	}
	if err := f.scanner.Stop(); !errors.Is(err, xe.ErrScannerStopped) {
		t.Errorf("expected ErrScannerStopped, got %v", err)
	}
}
