package models

import (
	"time"
)

const (
	SideLong  = "long"
	SideShort = "short"
)

// Position 受管持仓
// 同一交易对同时只允许一条记录，平仓时物理删除，便于后续重新开仓
type Position struct {
	ID                string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Symbol            string    `gorm:"type:varchar(20);not null;uniqueIndex" json:"symbol"` // 交易对，如 BTC/USDT
	Side              string    `gorm:"type:varchar(10);not null" json:"side"`               // long/short
	Amount            float64   `gorm:"type:decimal(20,8);not null" json:"amount"`           // 当前持仓数量
	InitialAmount     float64   `gorm:"type:decimal(20,8);not null" json:"initial_amount"`   // 开仓时的数量
	EntryPrice        float64   `gorm:"type:decimal(20,8);not null" json:"entry_price"`      // 开仓价格
	Leverage          int       `gorm:"type:int;not null" json:"leverage"`                   // 杠杆倍数
	Timeframe         string    `gorm:"type:varchar(10)" json:"timeframe"`                   // 开仓依据的K线周期
	StopLoss          float64   `gorm:"type:decimal(20,8)" json:"stop_loss"`                 // 当前止损价格
	TakeProfit        float64   `gorm:"type:decimal(20,8)" json:"take_profit"`               // 止盈价格
	InitialStopLoss   float64   `gorm:"type:decimal(20,8)" json:"initial_stop_loss"`         // 开仓时的止损价格
	PartialTPExecuted bool      `gorm:"default:false" json:"partial_tp_executed"`            // 是否已执行分批止盈
	RealizedPnl       float64   `gorm:"type:decimal(20,8);default:0" json:"realized_pnl"`    // 已实现盈亏（分批止盈累计）
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (*Position) TableName() string {
	return "positions"
}

func (p *Position) IsLong() bool {
	return p.Side == SideLong
}

// Pnl 计算按指定价格平掉指定数量的盈亏
func (p *Position) Pnl(closePrice, amount float64) float64 {
	if p.IsLong() {
		return (closePrice - p.EntryPrice) * amount
	}
	return (p.EntryPrice - closePrice) * amount
}

// ProfitPercent 计算相对开仓价的盈利百分比，不计杠杆
func (p *Position) ProfitPercent(price float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	change := (price - p.EntryPrice) / p.EntryPrice * 100
	if !p.IsLong() {
		change = -change
	}
	return change
}
