package service

import (
	"strings"
	"testing"

	"github.com/dushixiang/argus/internal/models"
)

func testSnapshot() *MarketSnapshot {
	set := &IndicatorSet{
		Price:      60000,
		RSI:        55.5,
		MACDLine:   12.3,
		MACDSignal: 10.1,
		BBUpper:    61000,
		BBMiddle:   60000,
		BBLower:    59000,
		StochK:     70,
		StochD:     65,
		ADX:        25,
		Volume:     1000,
	}
	return &MarketSnapshot{
		Symbol:          "BTC/USDT",
		CurrentPrice:    60000,
		FundingRate:     0.0001,
		DepthRatio:      1.2,
		EntryTimeframe:  "15m",
		TrendTimeframe:  "1h",
		EntryIndicators: set,
		TrendIndicators: set,
	}
}

func TestAnalysisPrompt(t *testing.T) {
	s := NewPromptService()
	prompt := s.AnalysisPrompt(testSnapshot())

	if !strings.Contains(prompt, "BTC/USDT") {
		t.Error("prompt should contain the symbol")
	}
	if !strings.Contains(prompt, "55.50") {
		t.Error("prompt should contain the rendered rsi")
	}
	if strings.Contains(prompt, "{{") {
		t.Errorf("prompt contains unrendered placeholders:\n%s", prompt)
	}

	system := s.AnalysisSystem()
	for _, token := range []string{"AL", "SAT", "BEKLE"} {
		if !strings.Contains(system, token) {
			t.Errorf("system prompt should mention %s", token)
		}
	}
}

func TestReanalysisPrompt(t *testing.T) {
	s := NewPromptService()
	position := &models.Position{
		Symbol:     "BTC/USDT",
		Side:       models.SideLong,
		EntryPrice: 58000,
		StopLoss:   57000,
		TakeProfit: 61000,
	}
	prompt := s.ReanalysisPrompt(position, testSnapshot())

	if !strings.Contains(prompt, "58000") {
		t.Error("prompt should contain the entry price")
	}
	if strings.Contains(prompt, "{{") {
		t.Errorf("prompt contains unrendered placeholders:\n%s", prompt)
	}

	system := s.ReanalysisSystem()
	for _, token := range []string{"TUT", "KAPAT"} {
		if !strings.Contains(system, token) {
			t.Errorf("system prompt should mention %s", token)
		}
	}
}
