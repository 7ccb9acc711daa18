//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/handler"
	"github.com/dushixiang/argus/internal/service"
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	handlerSet = wire.NewSet(
		handler.NewTradingHandler,
	)

	tradingSet = wire.NewSet(
		provideBinanceClient,
		provideExchange,
		provideLLMProvider,
		service.NewIndicatorService,
		service.NewMarketService,
		service.NewPositionService,
		service.NewRiskService,
		service.NewPromptService,
		service.NewAgentService,
		service.NewTraderService,
		service.NewMonitorService,
		service.NewScannerService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		tradingSet,
		provideTelegram,
		provideNotifier,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
