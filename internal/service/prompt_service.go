package service

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"

	"github.com/dushixiang/argus/internal/models"
	"github.com/valyala/fasttemplate"
)

//go:embed templates/analysis_system.txt
var analysisSystemTemplate string

//go:embed templates/analysis_prompt.txt
var analysisPromptTemplate string

//go:embed templates/reanalysis_system.txt
var reanalysisSystemTemplate string

//go:embed templates/reanalysis_prompt.txt
var reanalysisPromptTemplate string

// PromptService AI提示词生成服务
type PromptService struct{}

// NewPromptService 创建提示词服务
func NewPromptService() *PromptService {
	return &PromptService{}
}

// AnalysisSystem 入场分析的系统指令
func (s *PromptService) AnalysisSystem() string {
	return analysisSystemTemplate
}

// AnalysisPrompt 渲染入场分析提示词
func (s *PromptService) AnalysisPrompt(snapshot *MarketSnapshot) string {
	replacements := map[string]interface{}{
		"symbol":          snapshot.Symbol,
		"price":           formatFloat(snapshot.CurrentPrice),
		"funding_rate":    fmt.Sprintf("%.6f", snapshot.FundingRate),
		"depth_ratio":     fmt.Sprintf("%.2f", snapshot.DepthRatio),
		"entry_timeframe": snapshot.EntryTimeframe,
		"trend_timeframe": snapshot.TrendTimeframe,
	}
	writeIndicators(replacements, "entry", snapshot.EntryIndicators)
	writeIndicators(replacements, "trend", snapshot.TrendIndicators)

	tmpl := fasttemplate.New(analysisPromptTemplate, "{{", "}}")
	return tmpl.ExecuteString(replacements)
}

// ReanalysisSystem 持仓复核的系统指令
func (s *PromptService) ReanalysisSystem() string {
	return reanalysisSystemTemplate
}

// ReanalysisPrompt 渲染持仓复核提示词
func (s *PromptService) ReanalysisPrompt(position *models.Position, snapshot *MarketSnapshot) string {
	replacements := map[string]interface{}{
		"symbol":          position.Symbol,
		"side":            position.Side,
		"entry_price":     formatFloat(position.EntryPrice),
		"price":           formatFloat(snapshot.CurrentPrice),
		"profit_percent":  fmt.Sprintf("%.2f", position.ProfitPercent(snapshot.CurrentPrice)),
		"stop_loss":       formatFloat(position.StopLoss),
		"take_profit":     formatFloat(position.TakeProfit),
		"entry_timeframe": snapshot.EntryTimeframe,
		"trend_timeframe": snapshot.TrendTimeframe,
	}
	writeIndicators(replacements, "entry", snapshot.EntryIndicators)
	writeIndicators(replacements, "trend", snapshot.TrendIndicators)

	tmpl := fasttemplate.New(reanalysisPromptTemplate, "{{", "}}")
	return tmpl.ExecuteString(replacements)
}

func writeIndicators(replacements map[string]interface{}, prefix string, set *IndicatorSet) {
	if set == nil {
		return
	}
	replacements[prefix+"_rsi"] = fmt.Sprintf("%.2f", set.RSI)
	replacements[prefix+"_macd"] = formatFloat(set.MACDLine)
	replacements[prefix+"_macd_signal"] = formatFloat(set.MACDSignal)
	replacements[prefix+"_bb_upper"] = formatFloat(set.BBUpper)
	replacements[prefix+"_bb_middle"] = formatFloat(set.BBMiddle)
	replacements[prefix+"_bb_lower"] = formatFloat(set.BBLower)
	replacements[prefix+"_stoch_k"] = fmt.Sprintf("%.2f", set.StochK)
	replacements[prefix+"_stoch_d"] = fmt.Sprintf("%.2f", set.StochD)
	replacements[prefix+"_adx"] = fmt.Sprintf("%.2f", set.ADX)
}

func formatFloat(v float64) string {
	str := strconv.FormatFloat(v, 'f', 8, 64)
	str = strings.TrimRight(str, "0")
	str = strings.TrimRight(str, ".")
	if str == "" {
		return "0"
	}
	return str
}
