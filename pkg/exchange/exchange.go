package exchange

import "context"

// Exchange 交易所接口，交易对参数统一使用 "BTC/USDT" 形式
// 便于支持多个交易所（币安、OKX、Bybit等）以及模拟盘实现
type Exchange interface {
	// 市场数据
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	GetFundingRate(ctx context.Context, symbol string) (float64, error)
	GetOrderBookDepth(ctx context.Context, symbol string, limit int) (*OrderBookDepth, error)
	Get24hTickers(ctx context.Context) ([]*Ticker24h, error)

	// 账户信息
	GetAccountInfo(ctx context.Context) (*AccountInfo, error)
	GetBalance(ctx context.Context, currency string) (float64, error)
	GetPositions(ctx context.Context) ([]*Position, error)

	// 交易参数设置
	SetLeverage(ctx context.Context, symbol string, leverage int) error
	SetMarginType(ctx context.Context, symbol string, marginType MarginType) error

	// 订单操作
	CreateMarketOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, reduceOnly bool) (*OrderResult, error)
	CreateLimitOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, price float64) (*OrderResult, error)
	CreateStopLossOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, stopPrice float64) (*OrderResult, error)
	CreateTakeProfitOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, takeProfitPrice float64) (*OrderResult, error)
	CancelAllOrders(ctx context.Context, symbol string) error

	// 交易对信息
	GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error)
	FormatQuantity(ctx context.Context, symbol string, quantity float64) (float64, error)
}
