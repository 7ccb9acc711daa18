package models

import (
	"time"
)

// 平仓原因
const (
	CloseReasonStopLoss       = "SL"              // 止损触发
	CloseReasonTakeProfit     = "TP"              // 止盈触发
	CloseReasonManual         = "MANUAL"          // 手动平仓
	CloseReasonAgent          = "AGENT_CLOSE"     // AI建议平仓
	CloseReasonSyncClosed     = "SYNC_CLOSED"     // 交易所侧已不存在，对账平仓
	CloseReasonWebManual      = "WEB_MANUAL"      // Web接口手动平仓
	CloseReasonTelegramManual = "TELEGRAM_MANUAL" // Telegram手动平仓
)

// TradeHistory 已平仓交易记录，只追加不修改
type TradeHistory struct {
	ID              string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Symbol          string    `gorm:"type:varchar(20);not null;index" json:"symbol"`     // 交易对
	Side            string    `gorm:"type:varchar(10);not null" json:"side"`             // long/short
	Amount          float64   `gorm:"type:decimal(20,8);not null" json:"amount"`         // 开仓时的数量
	EntryPrice      float64   `gorm:"type:decimal(20,8);not null" json:"entry_price"`    // 开仓价格
	ClosePrice      float64   `gorm:"type:decimal(20,8);not null" json:"close_price"`    // 平仓价格
	Leverage        int       `gorm:"type:int" json:"leverage"`                          // 杠杆倍数
	Timeframe       string    `gorm:"type:varchar(10)" json:"timeframe"`                 // 开仓依据的K线周期
	StopLoss        float64   `gorm:"type:decimal(20,8)" json:"stop_loss"`               // 平仓时的止损价格
	TakeProfit      float64   `gorm:"type:decimal(20,8)" json:"take_profit"`             // 止盈价格
	InitialStopLoss float64   `gorm:"type:decimal(20,8)" json:"initial_stop_loss"`       // 开仓时的止损价格
	Pnl             float64   `gorm:"type:decimal(20,8)" json:"pnl"`                     // 总盈亏（含分批止盈已实现部分）
	Status          string    `gorm:"type:varchar(20);not null;index" json:"status"`     // 平仓原因
	OpenedAt        time.Time `gorm:"not null" json:"opened_at"`                         // 开仓时间
	ClosedAt        time.Time `gorm:"not null;index" json:"closed_at"`                   // 平仓时间
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName 指定表名
func (TradeHistory) TableName() string {
	return "trade_histories"
}
