package telegram

import (
	"fmt"
	"strings"

	"github.com/dushixiang/argus/internal/models"
	"github.com/dushixiang/argus/internal/service"
	"go.uber.org/zap"
)

var _ service.Notifier = (*Notifier)(nil)

// Notifier 把交易事件推送到Telegram，发送失败只记日志
type Notifier struct {
	logger   *zap.Logger
	telegram *Telegram
}

func NewNotifier(logger *zap.Logger, telegram *Telegram) *Notifier {
	return &Notifier{
		logger:   logger,
		telegram: telegram,
	}
}

func (n *Notifier) PositionOpened(position *models.Position) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 *开仓* %s %s\n", position.Symbol, sideLabel(position.Side)))
	sb.WriteString(fmt.Sprintf("数量: %s 杠杆: %dx\n", formatFloat(position.Amount), position.Leverage))
	sb.WriteString(fmt.Sprintf("开仓价: %s\n", formatFloat(position.EntryPrice)))
	sb.WriteString(fmt.Sprintf("止损: %s 止盈: %s", formatFloat(position.StopLoss), formatFloat(position.TakeProfit)))
	n.send(sb.String())
}

func (n *Notifier) PositionClosed(record *models.TradeHistory) {
	emoji := "✅"
	if record.Pnl < 0 {
		emoji = "🔻"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s *平仓* %s %s\n", emoji, record.Symbol, sideLabel(record.Side)))
	sb.WriteString(fmt.Sprintf("开仓价: %s 平仓价: %s\n", formatFloat(record.EntryPrice), formatFloat(record.ClosePrice)))
	sb.WriteString(fmt.Sprintf("盈亏: %.2f USDT\n", record.Pnl))
	sb.WriteString(fmt.Sprintf("原因: %s", record.Status))
	n.send(sb.String())
}

func (n *Notifier) PartialTakeProfit(position *models.Position, closedAmount, realizedPnl float64) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("💰 *分批止盈* %s %s\n", position.Symbol, sideLabel(position.Side)))
	sb.WriteString(fmt.Sprintf("已平数量: %s 已实现盈亏: %.2f USDT\n", formatFloat(closedAmount), realizedPnl))
	sb.WriteString(fmt.Sprintf("剩余数量: %s 止损移至保本: %s", formatFloat(position.Amount), formatFloat(position.StopLoss)))
	n.send(sb.String())
}

func (n *Notifier) TrailingStopMoved(position *models.Position, oldStop, newStop float64) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔒 *移动止损* %s %s\n", position.Symbol, sideLabel(position.Side)))
	sb.WriteString(fmt.Sprintf("止损: %s → %s", formatFloat(oldStop), formatFloat(newStop)))
	n.send(sb.String())
}

func (n *Notifier) send(msg string) {
	if err := n.telegram.Notify(msg); err != nil {
		n.logger.Warn("failed to send telegram notification", zap.Error(err))
	}
}
