package handler

import (
	"fmt"
	"net/http"

	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/service"
	"github.com/dushixiang/argus/internal/xe"
	"github.com/dushixiang/argus/pkg/exchange"
	"github.com/dushixiang/argus/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TradingHandler 交易系统HTTP处理器
type TradingHandler struct {
	logger *zap.Logger

	exchange        exchange.Exchange
	positionService *service.PositionService
	traderService   *service.TraderService
	agentService    *service.AgentService
	scannerService  *service.ScannerService
}

// NewTradingHandler 创建交易处理器
func NewTradingHandler(
	exchange exchange.Exchange,
	positionService *service.PositionService,
	traderService *service.TraderService,
	agentService *service.AgentService,
	scannerService *service.ScannerService,
	logger *zap.Logger,
) *TradingHandler {
	return &TradingHandler{
		logger:          logger,
		exchange:        exchange,
		positionService: positionService,
		traderService:   traderService,
		agentService:    agentService,
		scannerService:  scannerService,
	}
}

// GetStatus 获取系统状态
// GET /api/trading/status
func (h *TradingHandler) GetStatus(c echo.Context) error {
	ctx := c.Request().Context()

	count, err := h.positionService.CountAll(ctx)
	if err != nil {
		return err
	}
	stats, err := h.positionService.Stats(ctx)
	if err != nil {
		return err
	}

	account, err := h.exchange.GetAccountInfo(ctx)
	if err != nil {
		h.logger.Error("failed to get account info", zap.Error(err))
		return c.JSON(http.StatusOK, map[string]interface{}{
			"scanner_running": h.scannerService.Running(),
			"position_count":  count,
			"stats":           stats,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"scanner_running": h.scannerService.Running(),
		"position_count":  count,
		"stats":           stats,
		"account": map[string]interface{}{
			"total_balance":     account.TotalBalance,
			"available_balance": account.AvailableBalance,
			"unrealized_pnl":    account.UnrealizedPnl,
		},
	})
}

// GetPositions 获取持仓列表
// GET /api/trading/positions
func (h *TradingHandler) GetPositions(c echo.Context) error {
	ctx := c.Request().Context()

	positions, err := h.positionService.FindAll(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(positions),
		"positions": positions,
	})
}

// ClosePosition 手动平仓
// POST /api/trading/positions/:symbol/close
func (h *TradingHandler) ClosePosition(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := nostd.UnifySymbol(c.Param("symbol"))
	if symbol == "" {
		return xe.ErrInvalidParams
	}

	record, err := h.traderService.ClosePositionBySymbol(ctx, symbol, models.CloseReasonWebManual)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// Reanalyze 触发持仓复核
// POST /api/trading/positions/:symbol/reanalyze
func (h *TradingHandler) Reanalyze(c echo.Context) error {
	ctx := c.Request().Context()

	symbol := nostd.UnifySymbol(c.Param("symbol"))
	position, err := h.positionService.FindBySymbol(ctx, symbol)
	if err != nil {
		return xe.ErrPositionNotFound
	}

	decision, err := h.agentService.Reanalyze(ctx, &position)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, decision)
}

// Analyze 触发交易对分析
// POST /api/trading/analyze
func (h *TradingHandler) Analyze(c echo.Context) error {
	ctx := c.Request().Context()

	var req struct {
		Symbol string `json:"symbol" validate:"required"`
	}
	if err := c.Bind(&req); err != nil {
		return xe.ErrInvalidParams
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	decision, err := h.agentService.Analyze(ctx, nostd.UnifySymbol(req.Symbol), models.DecisionSourceManual)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, decision)
}

// GetHistory 获取平仓历史
// GET /api/trading/history?limit=20
func (h *TradingHandler) GetHistory(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 20
	if l := c.QueryParam("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}

	records, err := h.positionService.FindHistory(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(records),
		"history": records,
	})
}

// GetStats 获取交易统计数据
// GET /api/trading/stats
func (h *TradingHandler) GetStats(c echo.Context) error {
	ctx := c.Request().Context()

	stats, err := h.positionService.Stats(ctx)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, stats)
}

// GetDecisions 获取决策历史
// GET /api/trading/decisions?limit=10
func (h *TradingHandler) GetDecisions(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 10
	if l := c.QueryParam("limit"); l != "" {
		fmt.Sscanf(l, "%d", &limit)
	}

	decisions, err := h.agentService.FindRecent(ctx, limit)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":     len(decisions),
		"decisions": decisions,
	})
}

// StartScanner 启动扫描器
// POST /api/trading/scanner/start
func (h *TradingHandler) StartScanner(c echo.Context) error {
	if err := h.scannerService.Start(c.Request().Context()); err != nil {
		return err
	}
	h.logger.Info("scanner started via API")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "scanner started",
	})
}

// StopScanner 停止扫描器
// POST /api/trading/scanner/stop
func (h *TradingHandler) StopScanner(c echo.Context) error {
	if err := h.scannerService.Stop(); err != nil {
		return err
	}
	h.logger.Info("scanner stopped via API")
	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": "scanner stopped",
	})
}

// GetScannerConfig 获取扫描配置
// GET /api/trading/scanner/config
func (h *TradingHandler) GetScannerConfig(c echo.Context) error {
	cfg, err := h.scannerService.GetConfig(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// UpdateScannerConfig 更新扫描配置
// PUT /api/trading/scanner/config
func (h *TradingHandler) UpdateScannerConfig(c echo.Context) error {
	var cfg models.ScannerConfig
	if err := c.Bind(&cfg); err != nil {
		return xe.ErrInvalidParams
	}

	for i, symbol := range cfg.Whitelist {
		cfg.Whitelist[i] = nostd.UnifySymbol(symbol)
	}
	for i, symbol := range cfg.Blacklist {
		cfg.Blacklist[i] = nostd.UnifySymbol(symbol)
	}

	if err := h.scannerService.UpdateConfig(c.Request().Context(), &cfg); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cfg)
}

// RegisterRoutes 注册路由
func (h *TradingHandler) RegisterRoutes(g *echo.Group) {
	trading := g.Group("/trading")

	// 查询接口
	trading.GET("/status", h.GetStatus)
	trading.GET("/positions", h.GetPositions)
	trading.GET("/history", h.GetHistory)
	trading.GET("/stats", h.GetStats)
	trading.GET("/decisions", h.GetDecisions)

	// 操作接口
	trading.POST("/positions/:symbol/close", h.ClosePosition)
	trading.POST("/positions/:symbol/reanalyze", h.Reanalyze)
	trading.POST("/analyze", h.Analyze)

	// 扫描器控制
	trading.POST("/scanner/start", h.StartScanner)
	trading.POST("/scanner/stop", h.StopScanner)
	trading.GET("/scanner/config", h.GetScannerConfig)
	trading.PUT("/scanner/config", h.UpdateScannerConfig)
}
