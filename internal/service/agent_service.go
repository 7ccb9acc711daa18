package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/repo"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrSignalParse = errors.New("failed to parse signal from model output")

// Signal AI分析信号
type Signal struct {
	Recommendation string `json:"recommendation"`
	Reason         string `json:"reason"`
}

// AgentService AI分析服务，负责调用大模型并把结果落库
type AgentService struct {
	logger *zap.Logger

	*orz.Service
	*repo.DecisionRepo

	llm           LLMProvider
	marketService *MarketService
	promptService *PromptService
	scannerConf   config.ScannerConf
}

// NewAgentService 创建AI分析服务
func NewAgentService(
	db *gorm.DB,
	llm LLMProvider,
	marketService *MarketService,
	promptService *PromptService,
	conf *config.Config,
	logger *zap.Logger,
) *AgentService {
	return &AgentService{
		logger:        logger,
		Service:       orz.NewService(db),
		DecisionRepo:  repo.NewDecisionRepo(db),
		llm:           llm,
		marketService: marketService,
		promptService: promptService,
		scannerConf:   conf.Scanner,
	}
}

// Analyze 分析指定交易对的入场机会，返回 AL/SAT/BEKLE 决策
func (s *AgentService) Analyze(ctx context.Context, symbol, source string) (*models.Decision, error) {
	snapshot, err := s.marketService.Snapshot(ctx, symbol, s.scannerConf.EntryTimeframe, s.scannerConf.TrendTimeframe)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, s.promptService.AnalysisSystem(), s.promptService.AnalysisPrompt(snapshot))
	if err != nil {
		return nil, err
	}

	signal, err := parseSignal(raw,
		models.RecommendationBuy,
		models.RecommendationSell,
		models.RecommendationWait,
	)
	if err != nil {
		s.logger.Warn("unparseable analysis output",
			zap.String("symbol", symbol),
			zap.String("raw", raw))
		return nil, err
	}

	decision := &models.Decision{
		ID:             ulid.Make().String(),
		Symbol:         symbol,
		Timeframe:      s.scannerConf.EntryTimeframe,
		Recommendation: signal.Recommendation,
		Reason:         signal.Reason,
		Price:          snapshot.CurrentPrice,
		Source:         source,
	}
	if err := s.Create(ctx, decision); err != nil {
		return nil, err
	}

	s.logger.Info("analysis completed",
		zap.String("symbol", symbol),
		zap.String("recommendation", signal.Recommendation),
		zap.String("source", source))

	return decision, nil
}

// Reanalyze 复核已持有的仓位，返回 TUT/KAPAT 决策
func (s *AgentService) Reanalyze(ctx context.Context, position *models.Position) (*models.Decision, error) {
	snapshot, err := s.marketService.Snapshot(ctx, position.Symbol, s.scannerConf.EntryTimeframe, s.scannerConf.TrendTimeframe)
	if err != nil {
		return nil, err
	}

	raw, err := s.llm.Complete(ctx, s.promptService.ReanalysisSystem(), s.promptService.ReanalysisPrompt(position, snapshot))
	if err != nil {
		return nil, err
	}

	signal, err := parseSignal(raw,
		models.RecommendationHold,
		models.RecommendationClose,
	)
	if err != nil {
		s.logger.Warn("unparseable reanalysis output",
			zap.String("symbol", position.Symbol),
			zap.String("raw", raw))
		return nil, err
	}

	decision := &models.Decision{
		ID:             ulid.Make().String(),
		Symbol:         position.Symbol,
		Timeframe:      s.scannerConf.EntryTimeframe,
		Recommendation: signal.Recommendation,
		Reason:         signal.Reason,
		Price:          snapshot.CurrentPrice,
		Source:         models.DecisionSourceReanalysis,
	}
	if err := s.Create(ctx, decision); err != nil {
		return nil, err
	}

	s.logger.Info("reanalysis completed",
		zap.String("symbol", position.Symbol),
		zap.String("recommendation", signal.Recommendation))

	return decision, nil
}

// parseSignal 从模型输出中提取JSON信号并校验建议取值
func parseSignal(raw string, allowed ...string) (*Signal, error) {
	block := extractJSONBlock(raw)
	if block == "" {
		return nil, ErrSignalParse
	}

	var signal Signal
	if err := json.Unmarshal([]byte(block), &signal); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSignalParse, err)
	}

	signal.Recommendation = strings.ToUpper(strings.TrimSpace(signal.Recommendation))
	for _, token := range allowed {
		if signal.Recommendation == token {
			return &signal, nil
		}
	}
	return nil, fmt.Errorf("%w: unexpected recommendation %q", ErrSignalParse, signal.Recommendation)
}

// extractJSONBlock 提取输出中的第一个JSON对象，兼容```json代码块包裹
func extractJSONBlock(raw string) string {
	raw = strings.TrimSpace(raw)

	if idx := strings.Index(raw, "```"); idx >= 0 {
		rest := raw[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			raw = rest[:end]
		} else {
			raw = rest
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return ""
	}
	return raw[start : end+1]
}
