package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/service"
	"github.com/dushixiang/argus/internal/xe"
	"github.com/dushixiang/argus/pkg/nostd"
	"github.com/spf13/cast"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

type Settings struct {
	Token  string
	ChatID string
	Client *http.Client
}

type Telegram struct {
	logger   *zap.Logger
	settings Settings
	client   *tele.Bot
}

func NewTelegram(logger *zap.Logger, settings Settings) (*Telegram, error) {
	poller := &tele.LongPoller{Timeout: 10 * time.Second}

	client, err := tele.NewBot(tele.Settings{
		ParseMode: tele.ModeMarkdown,
		Token:     settings.Token,
		Poller:    poller,
		Client:    settings.Client,
	})
	if err != nil {
		return nil, err
	}

	client.Use(middleware.AutoRespond())

	err = client.SetCommands([]tele.Command{
		{Text: "/status", Description: "查看系统状态"},
		{Text: "/positions", Description: "查看当前持仓"},
		{Text: "/close", Description: "平仓指定交易对，例如 /close BTC/USDT"},
	})
	if err != nil {
		return nil, err
	}

	return &Telegram{
		logger:   logger,
		settings: settings,
		client:   client,
	}, nil
}

// RegisterHandlers 绑定机器人命令
func (r *Telegram) RegisterHandlers(
	positionService *service.PositionService,
	traderService *service.TraderService,
	scannerService *service.ScannerService,
) {
	r.client.Handle("/status", func(c tele.Context) error {
		ctx := context.Background()

		count, err := positionService.CountAll(ctx)
		if err != nil {
			return c.Send(fmt.Sprintf("查询失败: %v", err))
		}
		stats, err := positionService.Stats(ctx)
		if err != nil {
			return c.Send(fmt.Sprintf("查询失败: %v", err))
		}

		scannerState := "已停止"
		if scannerService.Running() {
			scannerState = "运行中"
		}

		var sb strings.Builder
		sb.WriteString("*系统状态*\n")
		sb.WriteString(fmt.Sprintf("扫描器: %s\n", scannerState))
		sb.WriteString(fmt.Sprintf("当前持仓: %d\n", count))
		sb.WriteString(fmt.Sprintf("历史交易: %d 笔，胜率 %.1f%%\n", stats.TotalTrades, stats.WinRate))
		sb.WriteString(fmt.Sprintf("累计盈亏: %.2f USDT", stats.TotalPnl))
		return c.Send(sb.String())
	})

	r.client.Handle("/positions", func(c tele.Context) error {
		positions, err := positionService.FindAll(context.Background())
		if err != nil {
			return c.Send(fmt.Sprintf("查询失败: %v", err))
		}
		if len(positions) == 0 {
			return c.Send("当前没有持仓")
		}

		var sb strings.Builder
		sb.WriteString("*当前持仓*\n")
		for _, p := range positions {
			sb.WriteString(fmt.Sprintf("\n%s %s\n", p.Symbol, sideLabel(p.Side)))
			sb.WriteString(fmt.Sprintf("数量: %s 开仓价: %s\n", formatFloat(p.Amount), formatFloat(p.EntryPrice)))
			sb.WriteString(fmt.Sprintf("止损: %s 止盈: %s\n", formatFloat(p.StopLoss), formatFloat(p.TakeProfit)))
		}
		return c.Send(sb.String())
	})

	r.client.Handle("/close", func(c tele.Context) error {
		payload := strings.TrimSpace(c.Message().Payload)
		if payload == "" {
			return c.Send("用法: /close BTC/USDT")
		}
		symbol := nostd.UnifySymbol(payload)

		record, err := traderService.ClosePositionBySymbol(context.Background(), symbol, models.CloseReasonTelegramManual)
		if err != nil {
			if errors.Is(err, xe.ErrPositionNotFound) {
				return c.Send(fmt.Sprintf("%s 没有持仓", symbol))
			}
			r.logger.Error("failed to close position from telegram",
				zap.String("symbol", symbol), zap.Error(err))
			return c.Send(fmt.Sprintf("平仓失败: %v", err))
		}
		return c.Send(fmt.Sprintf("%s 已平仓，盈亏 %.2f USDT", symbol, record.Pnl))
	})
}

func (r *Telegram) Start() {
	go r.client.Start()
}

func (r *Telegram) Stop() {
	r.client.Stop()
}

// Notify 向配置的会话发送消息
func (r *Telegram) Notify(msg string) error {
	chatId := cast.ToInt64(r.settings.ChatID)
	_, err := r.client.Send(tele.ChatID(chatId), msg, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
