package exchange

import "time"

// 通用交易类型定义，独立于任何特定交易所
// 所有类型中的 Symbol 字段统一使用 "BTC/USDT" 形式，交易所实现内部负责转换

// OrderSide 订单方向
type OrderSide string

const (
	OrderSideBuy  OrderSide = "BUY"
	OrderSideSell OrderSide = "SELL"
)

// MarginType 保证金类型
type MarginType string

const (
	MarginTypeCrossed  MarginType = "CROSSED"  // 全仓
	MarginTypeIsolated MarginType = "ISOLATED" // 逐仓
)

// OrderType 订单类型
type OrderType string

const (
	OrderTypeLimit            OrderType = "LIMIT"
	OrderTypeMarket           OrderType = "MARKET"
	OrderTypeStopMarket       OrderType = "STOP_MARKET"
	OrderTypeTakeProfitMarket OrderType = "TAKE_PROFIT_MARKET"
)

// OrderStatus 订单状态
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
	OrderStatusRejected        OrderStatus = "REJECTED"
	OrderStatusExpired         OrderStatus = "EXPIRED"
)

func (s OrderSide) String() string {
	return string(s)
}

func (m MarginType) String() string {
	return string(m)
}

func (o OrderType) String() string {
	return string(o)
}

func (o OrderStatus) String() string {
	return string(o)
}

// Kline K线数据
type Kline struct {
	OpenTime  time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	CloseTime time.Time
}

// AccountInfo 账户信息
type AccountInfo struct {
	TotalBalance     float64 // 总余额
	AvailableBalance float64 // 可用余额
	UnrealizedPnl    float64 // 未实现盈亏
}

// Position 交易所侧的持仓快照
type Position struct {
	Symbol           string
	Side             string  // long/short
	PositionAmount   float64 // 持仓数量，始终为正数
	EntryPrice       float64 // 开仓均价
	MarkPrice        float64 // 标记价格
	UnrealizedProfit float64 // 未实现盈亏
	Leverage         int     // 杠杆倍数
	LiquidationPrice float64 // 强平价格
}

// OrderResult 订单结果
type OrderResult struct {
	OrderID     int64
	Symbol      string
	Side        string
	Type        string
	Quantity    float64
	Price       float64
	AvgPrice    float64
	Status      string
	ExecutedQty float64
}

// SymbolInfo 交易对信息
type SymbolInfo struct {
	Symbol            string
	QuantityPrecision int
	PricePrecision    int
	MinQuantity       float64
	MaxQuantity       float64
	StepSize          float64
	MinNotional       float64
	lastUpdated       time.Time
}

// Ticker24h 24小时行情统计
type Ticker24h struct {
	Symbol             string
	LastPrice          float64
	PriceChangePercent float64
	QuoteVolume        float64 // 以计价货币计的成交额
}

// OrderBookDepth 订单簿深度汇总
type OrderBookDepth struct {
	Symbol    string
	BidVolume float64 // 买盘总量
	AskVolume float64 // 卖盘总量
}

// Ratio 买卖盘量比，卖盘为空时返回 0
func (d *OrderBookDepth) Ratio() float64 {
	if d.AskVolume <= 0 {
		return 0
	}
	return d.BidVolume / d.AskVolume
}
