package internal

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/service"
	"github.com/dushixiang/argus/internal/telegram"
	"github.com/dushixiang/argus/pkg/exchange"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const telegramHTTPTimeout = 10 * time.Second

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		ChatID: conf.Telegram.ChatID,
		Client: httpClient,
	})
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideNotifier provides trade event notifier
func provideNotifier(logger *zap.Logger, tg *telegram.Telegram) service.Notifier {
	if tg == nil {
		return nil
	}
	return telegram.NewNotifier(logger, tg)
}

// provideBinanceClient provides Binance client
func provideBinanceClient(conf *config.Config, logger *zap.Logger) *exchange.BinanceClient {
	client := exchange.NewBinanceClient(
		conf.Binance.APIKey,
		conf.Binance.Secret,
		conf.Binance.ProxyURL,
		conf.Binance.Testnet,
	)

	if conf.Binance.APIKey == "" || conf.Binance.Secret == "" {
		logger.Warn("Binance API credentials not configured; some private endpoints may fail")
	}

	logger.Info("Binance client initialized",
		zap.Bool("testnet", conf.Binance.Testnet),
		zap.Bool("has_credentials", conf.Binance.APIKey != "" && conf.Binance.Secret != ""),
	)
	return client
}

// provideExchange provides the trading venue, paper wallet unless live trading is enabled
func provideExchange(conf *config.Config, binanceClient *exchange.BinanceClient, logger *zap.Logger) exchange.Exchange {
	if conf.Trading.Live {
		logger.Info("live trading enabled, orders will hit the real exchange")
		return binanceClient
	}

	initialBalance := conf.Trading.PaperWallet.InitialBalance
	if initialBalance <= 0 {
		initialBalance = 1000
	}
	logger.Info("paper trading mode", zap.Float64("initial_balance", initialBalance))
	return exchange.NewPaperWallet(binanceClient, initialBalance, logger)
}

// provideLLMProvider provides the model backend selected by configuration
func provideLLMProvider(conf *config.Config, logger *zap.Logger) (service.LLMProvider, error) {
	switch conf.LLM.Provider {
	case "gemini":
		client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  conf.LLM.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, err
		}
		logger.Info("Gemini client initialized", zap.String("model", conf.LLM.Model))
		return service.NewGeminiProvider(client, conf.LLM.Model), nil
	default:
		var options = []option.RequestOption{
			option.WithBaseURL(conf.LLM.BaseURL),
			option.WithAPIKey(conf.LLM.APIKey),
		}
		if conf.LLM.ProxyURL != "" {
			u, err := url.Parse(conf.LLM.ProxyURL)
			if err != nil {
				return nil, err
			}
			httpClient := &http.Client{
				Timeout: time.Minute,
				Transport: &http.Transport{
					Proxy: http.ProxyURL(u),
				},
			}
			options = append(options, option.WithHTTPClient(httpClient))
		}

		client := openai.NewClient(options...)

		logger.Info("OpenAI client initialized", zap.String("model", conf.LLM.Model))
		return service.NewOpenAIProvider(&client, conf.LLM.Model), nil
	}
}
