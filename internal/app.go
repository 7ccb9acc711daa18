package internal

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/handler"
	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/service"
	"github.com/dushixiang/argus/internal/telegram"
	"github.com/dushixiang/argus/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewArgusApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewArgusApp() orz.Application {
	return &ArgusApp{}
}

var _ orz.Application = (*ArgusApp)(nil)

type AppComponents struct {
	TradingHandler *handler.TradingHandler

	MonitorService  *service.MonitorService
	ScannerService  *service.ScannerService
	PositionService *service.PositionService
	TraderService   *service.TraderService
	AgentService    *service.AgentService

	tg *telegram.Telegram
}

type ArgusApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *ArgusApp) GetComponents() *AppComponents {
	return r.components
}

func (r *ArgusApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.Position{}, models.TradeHistory{}, models.Decision{}, models.ScannerConfig{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.Gzip())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	api := e.Group("/api")
	{
		if r.components.TradingHandler != nil {
			r.components.TradingHandler.RegisterRoutes(api)
		}
	}

	return nil
}

func (r *ArgusApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("Argus Trading System Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx := context.Background()

	// 持仓巡检常驻运行
	components.MonitorService.Start(ctx)

	// 扫描器按配置决定是否自动启动
	cfg, err := components.ScannerService.EnsureConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load scanner config: %v", err)
	}
	if cfg.Enabled {
		if err := components.ScannerService.Start(ctx); err != nil {
			logger.Error("failed to start scanner", zap.Error(err))
		}
	}

	if components.tg != nil {
		components.tg.RegisterHandlers(
			components.PositionService,
			components.TraderService,
			components.ScannerService,
		)
		components.tg.Start()
		logger.Info("telegram bot started")
	}

	return nil
}
