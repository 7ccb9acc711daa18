package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/repo"
	"github.com/dushixiang/argus/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// 分析失败的交易对临时拉黑时长
const dynamicBlacklistTTL = time.Hour

// ScannerService 机会扫描服务
// 按cron周期扫描候选交易对，交给AI分析，并顺带复核已持有的仓位
type ScannerService struct {
	logger *zap.Logger

	*orz.Service
	configRepo *repo.ScannerConfigRepo

	conf            *config.Config
	agentService    *AgentService
	traderService   *TraderService
	positionService *PositionService
	marketService   *MarketService

	mu        sync.Mutex
	cron      *cron.Cron
	entryID   cron.EntryID
	running   bool
	blacklist map[string]time.Time // 动态黑名单，值为过期时间
}

// NewScannerService 创建机会扫描服务
func NewScannerService(
	db *gorm.DB,
	conf *config.Config,
	agentService *AgentService,
	traderService *TraderService,
	positionService *PositionService,
	marketService *MarketService,
	logger *zap.Logger,
) *ScannerService {
	return &ScannerService{
		logger:          logger,
		Service:         orz.NewService(db),
		configRepo:      repo.NewScannerConfigRepo(db),
		conf:            conf,
		agentService:    agentService,
		traderService:   traderService,
		positionService: positionService,
		marketService:   marketService,
		blacklist:       make(map[string]time.Time),
	}
}

// EnsureConfig 确保扫描配置存在，首次启动用文件配置初始化
func (s *ScannerService) EnsureConfig(ctx context.Context) (models.ScannerConfig, error) {
	cfg, err := s.configRepo.FindFirst(ctx)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return cfg, err
	}

	sc := s.conf.Scanner
	cfg = models.ScannerConfig{
		ID:               ulid.Make().String(),
		Enabled:          sc.Enabled,
		IntervalMinutes:  sc.IntervalMinutes,
		Whitelist:        datatypes.NewJSONSlice(sc.Whitelist),
		Blacklist:        datatypes.NewJSONSlice(sc.Blacklist),
		UseGainersLosers: sc.UseGainersLosers,
		TopN:             sc.TopN,
		MinVolumeUSDT:    sc.MinVolumeUSDT,
	}
	if cfg.IntervalMinutes <= 0 {
		cfg.IntervalMinutes = 15
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	if err := s.configRepo.Create(ctx, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// GetConfig 获取扫描配置
func (s *ScannerService) GetConfig(ctx context.Context) (models.ScannerConfig, error) {
	return s.EnsureConfig(ctx)
}

// UpdateConfig 更新扫描配置，运行中的扫描器需重启后生效新间隔
func (s *ScannerService) UpdateConfig(ctx context.Context, cfg *models.ScannerConfig) error {
	current, err := s.EnsureConfig(ctx)
	if err != nil {
		return err
	}
	cfg.ID = current.ID
	return s.configRepo.Save(ctx, cfg)
}

// Running 返回扫描器是否在运行
func (s *ScannerService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Start 启动扫描循环
func (s *ScannerService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return xe.ErrScannerRunning
	}

	cfg, err := s.EnsureConfig(ctx)
	if err != nil {
		return err
	}

	c := cron.New()
	spec := fmt.Sprintf("*/%d * * * *", cfg.IntervalMinutes)
	entryID, err := c.AddFunc(spec, func() {
		s.scanOnce(context.Background())
	})
	if err != nil {
		return err
	}
	c.Start()

	s.cron = c
	s.entryID = entryID
	s.running = true

	s.logger.Info("scanner started", zap.String("spec", spec))
	return nil
}

// Stop 停止扫描循环
func (s *ScannerService) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return xe.ErrScannerStopped
	}

	s.cron.Stop()
	s.cron = nil
	s.running = false

	s.logger.Info("scanner stopped")
	return nil
}

// scanOnce 执行一轮扫描：复核持仓，然后分析候选交易对
func (s *ScannerService) scanOnce(ctx context.Context) {
	s.logger.Info("scan pass started")

	s.reviewOpenPositions(ctx)

	candidates, err := s.collectCandidates(ctx)
	if err != nil {
		s.logger.Error("failed to collect candidates", zap.Error(err))
		return
	}

	for _, symbol := range candidates {
		s.analyzeCandidate(ctx, symbol)
	}

	s.logger.Info("scan pass finished", zap.Int("candidates", len(candidates)))
}

// reviewOpenPositions 复核已持有的仓位，建议平仓且开启自动确认时执行平仓
func (s *ScannerService) reviewOpenPositions(ctx context.Context) {
	positions, err := s.positionService.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to load positions for review", zap.Error(err))
		return
	}

	for i := range positions {
		position := positions[i]
		decision, err := s.agentService.Reanalyze(ctx, &position)
		if err != nil {
			s.logger.Warn("position review failed",
				zap.String("symbol", position.Symbol),
				zap.Error(err))
			continue
		}

		if decision.Recommendation != models.RecommendationClose {
			continue
		}

		if !s.conf.Agent.CloseAutoConfirm {
			s.logger.Info("close recommended, waiting for manual confirmation",
				zap.String("symbol", position.Symbol),
				zap.String("reason", decision.Reason))
			continue
		}

		if _, err := s.traderService.ClosePositionBySymbol(ctx, position.Symbol, models.CloseReasonAgent); err != nil {
			s.logger.Error("failed to close position on recommendation",
				zap.String("symbol", position.Symbol),
				zap.Error(err))
		}
	}
}

// collectCandidates 收集候选交易对：白名单 + 涨跌幅榜，去掉持仓中和黑名单的
func (s *ScannerService) collectCandidates(ctx context.Context) ([]string, error) {
	cfg, err := s.EnsureConfig(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var candidates []string
	add := func(symbol string) {
		if _, ok := seen[symbol]; ok {
			return
		}
		seen[symbol] = struct{}{}
		candidates = append(candidates, symbol)
	}

	for _, symbol := range cfg.Whitelist {
		add(symbol)
	}

	if cfg.UseGainersLosers {
		gainers, losers, err := s.marketService.TopMovers(ctx, cfg.TopN, cfg.MinVolumeUSDT)
		if err != nil {
			s.logger.Warn("failed to get top movers", zap.Error(err))
		} else {
			for _, symbol := range gainers {
				add(symbol)
			}
			for _, symbol := range losers {
				add(symbol)
			}
		}
	}

	static := make(map[string]struct{}, len(cfg.Blacklist))
	for _, symbol := range cfg.Blacklist {
		static[symbol] = struct{}{}
	}

	filtered := candidates[:0]
	for _, symbol := range candidates {
		if _, ok := static[symbol]; ok {
			continue
		}
		if s.isBlacklisted(symbol) {
			continue
		}
		exists, err := s.positionService.ExistsBySymbol(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		filtered = append(filtered, symbol)
	}

	return filtered, nil
}

// analyzeCandidate 分析单个候选，有信号时开仓，分析失败临时拉黑
func (s *ScannerService) analyzeCandidate(ctx context.Context, symbol string) {
	decision, err := s.agentService.Analyze(ctx, symbol, models.DecisionSourceScanner)
	if err != nil {
		s.logger.Warn("candidate analysis failed, blacklisted temporarily",
			zap.String("symbol", symbol),
			zap.Error(err))
		s.addBlacklist(symbol)
		return
	}

	var side string
	switch decision.Recommendation {
	case models.RecommendationBuy:
		side = models.SideLong
	case models.RecommendationSell:
		side = models.SideShort
	default:
		return
	}

	if _, err := s.traderService.OpenPosition(ctx, symbol, side, s.conf.Scanner.EntryTimeframe); err != nil {
		if errors.Is(err, xe.ErrMaxPositions) || errors.Is(err, xe.ErrPositionExists) {
			s.logger.Info("open skipped",
				zap.String("symbol", symbol),
				zap.Error(err))
			return
		}
		s.logger.Error("failed to open position",
			zap.String("symbol", symbol),
			zap.String("side", side),
			zap.Error(err))
	}
}

func (s *ScannerService) addBlacklist(symbol string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blacklist[symbol] = time.Now().Add(dynamicBlacklistTTL)
}

func (s *ScannerService) isBlacklisted(symbol string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expire, ok := s.blacklist[symbol]
	if !ok {
		return false
	}
	if time.Now().After(expire) {
		delete(s.blacklist, symbol)
		return false
	}
	return true
}
