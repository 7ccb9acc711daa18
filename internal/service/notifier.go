package service

import "github.com/dushixiang/argus/internal/models"

// Notifier 交易事件通知，实现方不应阻塞调用方
type Notifier interface {
	PositionOpened(position *models.Position)
	PositionClosed(record *models.TradeHistory)
	PartialTakeProfit(position *models.Position, closedAmount, realizedPnl float64)
	TrailingStopMoved(position *models.Position, oldStop, newStop float64)
}
