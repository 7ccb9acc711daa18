package exchange

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/dushixiang/argus/pkg/nostd"
)

// BinanceClient 币安U本位合约客户端
// 对外暴露 "BTC/USDT" 形式的交易对，内部转换为币安的 "BTCUSDT" 形式
// 只读请求按重试策略自动重试，下单请求只执行一次避免重复成交
type BinanceClient struct {
	client         *futures.Client
	retry          *RetryPolicy
	symbolInfoMap  map[string]*SymbolInfo
	symbolInfoLock sync.RWMutex
}

// NewBinanceClient 创建币安客户端
func NewBinanceClient(apiKey, secretKey, proxyURL string, testnet bool) *BinanceClient {
	var client *futures.Client
	if proxyURL != "" {
		client = futures.NewProxiedClient(apiKey, secretKey, proxyURL)
	} else {
		client = futures.NewClient(apiKey, secretKey)
	}

	if testnet {
		futures.UseTestnet = true
	}

	return &BinanceClient{
		client:        client,
		retry:         DefaultRetryPolicy(),
		symbolInfoMap: make(map[string]*SymbolInfo),
	}
}

// GetKlines 获取K线数据
func (b *BinanceClient) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error) {
	var klines []*futures.Kline
	err := b.retry.Do(ctx, func() error {
		var err error
		klines, err = b.client.NewKlinesService().
			Symbol(nostd.VenueSymbol(symbol)).
			Interval(interval).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	result := make([]*Kline, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		close, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		result = append(result, &Kline{
			OpenTime:  time.Unix(k.OpenTime/1000, 0),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     close,
			Volume:    volume,
			CloseTime: time.Unix(k.CloseTime/1000, 0),
		})
	}

	return result, nil
}

// GetCurrentPrice 获取当前价格
func (b *BinanceClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	var prices []*futures.SymbolPrice
	err := b.retry.Do(ctx, func() error {
		var err error
		prices, err = b.client.NewListPricesService().Symbol(nostd.VenueSymbol(symbol)).Do(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get current price: %w", err)
	}

	if len(prices) == 0 {
		return 0, fmt.Errorf("no price data for symbol %s", symbol)
	}

	price, _ := strconv.ParseFloat(prices[0].Price, 64)
	return price, nil
}

// GetFundingRate 获取最新资金费率
func (b *BinanceClient) GetFundingRate(ctx context.Context, symbol string) (float64, error) {
	var rates []*futures.FundingRate
	err := b.retry.Do(ctx, func() error {
		var err error
		rates, err = b.client.NewFundingRateService().
			Symbol(nostd.VenueSymbol(symbol)).
			Limit(1).
			Do(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get funding rate: %w", err)
	}

	if len(rates) == 0 {
		return 0, fmt.Errorf("no funding rate data for symbol %s", symbol)
	}

	rate, _ := strconv.ParseFloat(rates[0].FundingRate, 64)
	return rate, nil
}

// GetOrderBookDepth 获取订单簿深度并汇总买卖盘总量
func (b *BinanceClient) GetOrderBookDepth(ctx context.Context, symbol string, limit int) (*OrderBookDepth, error) {
	var res *futures.DepthResponse
	err := b.retry.Do(ctx, func() error {
		var err error
		res, err = b.client.NewDepthService().
			Symbol(nostd.VenueSymbol(symbol)).
			Limit(limit).
			Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get order book depth: %w", err)
	}

	depth := &OrderBookDepth{Symbol: symbol}
	for _, bid := range res.Bids {
		qty, _ := strconv.ParseFloat(bid.Quantity, 64)
		depth.BidVolume += qty
	}
	for _, ask := range res.Asks {
		qty, _ := strconv.ParseFloat(ask.Quantity, 64)
		depth.AskVolume += qty
	}

	return depth, nil
}

// Get24hTickers 获取全市场24小时行情统计
func (b *BinanceClient) Get24hTickers(ctx context.Context) ([]*Ticker24h, error) {
	var stats []*futures.PriceChangeStats
	err := b.retry.Do(ctx, func() error {
		var err error
		stats, err = b.client.NewListPriceChangeStatsService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get 24h tickers: %w", err)
	}

	result := make([]*Ticker24h, 0, len(stats))
	for _, s := range stats {
		lastPrice, _ := strconv.ParseFloat(s.LastPrice, 64)
		changePercent, _ := strconv.ParseFloat(s.PriceChangePercent, 64)
		quoteVolume, _ := strconv.ParseFloat(s.QuoteVolume, 64)

		result = append(result, &Ticker24h{
			Symbol:             nostd.UnifySymbol(s.Symbol),
			LastPrice:          lastPrice,
			PriceChangePercent: changePercent,
			QuoteVolume:        quoteVolume,
		})
	}

	return result, nil
}

// GetAccountInfo 获取账户信息
func (b *BinanceClient) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	var account *futures.Account
	err := b.retry.Do(ctx, func() error {
		var err error
		account, err = b.client.NewGetAccountService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	totalBalance, _ := strconv.ParseFloat(account.TotalWalletBalance, 64)
	availableBalance, _ := strconv.ParseFloat(account.AvailableBalance, 64)
	unrealizedPnl, _ := strconv.ParseFloat(account.TotalUnrealizedProfit, 64)

	return &AccountInfo{
		TotalBalance:     totalBalance,
		AvailableBalance: availableBalance,
		UnrealizedPnl:    unrealizedPnl,
	}, nil
}

// GetBalance 获取指定币种的可用余额
func (b *BinanceClient) GetBalance(ctx context.Context, currency string) (float64, error) {
	var account *futures.Account
	err := b.retry.Do(ctx, func() error {
		var err error
		account, err = b.client.NewGetAccountService().Do(ctx)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("failed to get account info: %w", err)
	}

	for _, asset := range account.Assets {
		if asset.Asset == currency {
			balance, _ := strconv.ParseFloat(asset.AvailableBalance, 64)
			return balance, nil
		}
	}
	return 0, nil
}

// GetPositions 获取当前非空持仓，交易对转换为统一形式
func (b *BinanceClient) GetPositions(ctx context.Context) ([]*Position, error) {
	var positions []*futures.PositionRisk
	err := b.retry.Do(ctx, func() error {
		var err error
		positions, err = b.client.NewGetPositionRiskService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	result := make([]*Position, 0)
	for _, p := range positions {
		positionAmt, _ := strconv.ParseFloat(p.PositionAmt, 64)

		// 过滤掉空仓位
		if positionAmt == 0 {
			continue
		}

		entryPrice, _ := strconv.ParseFloat(p.EntryPrice, 64)
		markPrice, _ := strconv.ParseFloat(p.MarkPrice, 64)
		unrealizedProfit, _ := strconv.ParseFloat(p.UnRealizedProfit, 64)
		leverage, _ := strconv.Atoi(p.Leverage)
		liquidationPrice, _ := strconv.ParseFloat(p.LiquidationPrice, 64)

		side := "long"
		if positionAmt < 0 {
			side = "short"
			positionAmt = -positionAmt
		}

		result = append(result, &Position{
			Symbol:           nostd.UnifySymbol(p.Symbol),
			Side:             side,
			PositionAmount:   positionAmt,
			EntryPrice:       entryPrice,
			MarkPrice:        markPrice,
			UnrealizedProfit: unrealizedProfit,
			Leverage:         leverage,
			LiquidationPrice: liquidationPrice,
		})
	}

	return result, nil
}

// SetLeverage 设置杠杆倍数
func (b *BinanceClient) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	_, err := b.client.NewChangeLeverageService().
		Symbol(nostd.VenueSymbol(symbol)).
		Leverage(leverage).
		Do(ctx)

	if err != nil {
		return fmt.Errorf("failed to set leverage: %w", err)
	}

	return nil
}

// SetMarginType 设置保证金模式
func (b *BinanceClient) SetMarginType(ctx context.Context, symbol string, marginType MarginType) error {
	err := b.client.NewChangeMarginTypeService().
		Symbol(nostd.VenueSymbol(symbol)).
		MarginType(futures.MarginType(marginType)).
		Do(ctx)

	if err != nil {
		return fmt.Errorf("failed to set margin type: %w", err)
	}

	return nil
}

// CreateMarketOrder 创建市价单，下单请求不重试
func (b *BinanceClient) CreateMarketOrder(ctx context.Context, symbol string, side OrderSide,
	quantity float64, reduceOnly bool) (*OrderResult, error) {

	quantityStr, err := b.quantityString(ctx, symbol, quantity)
	if err != nil {
		return nil, err
	}

	service := b.client.NewCreateOrderService().
		Symbol(nostd.VenueSymbol(symbol)).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeMarket).
		Quantity(quantityStr)

	if reduceOnly {
		service.ReduceOnly(true)
	}

	order, err := service.Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create market order: %w", err)
	}

	return b.orderResult(symbol, order), nil
}

// CreateLimitOrder 创建限价单（GTC）
func (b *BinanceClient) CreateLimitOrder(ctx context.Context, symbol string, side OrderSide,
	quantity float64, price float64) (*OrderResult, error) {

	quantityStr, err := b.quantityString(ctx, symbol, quantity)
	if err != nil {
		return nil, err
	}
	priceStr, err := b.priceString(ctx, symbol, price)
	if err != nil {
		return nil, err
	}

	order, err := b.client.NewCreateOrderService().
		Symbol(nostd.VenueSymbol(symbol)).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeLimit).
		TimeInForce(futures.TimeInForceTypeGTC).
		Quantity(quantityStr).
		Price(priceStr).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create limit order: %w", err)
	}

	return b.orderResult(symbol, order), nil
}

// CreateStopLossOrder 创建止损市价单，触发后以只减仓方式平仓
func (b *BinanceClient) CreateStopLossOrder(ctx context.Context, symbol string, side OrderSide,
	quantity float64, stopPrice float64) (*OrderResult, error) {

	quantityStr, err := b.quantityString(ctx, symbol, quantity)
	if err != nil {
		return nil, err
	}
	stopPriceStr, err := b.priceString(ctx, symbol, stopPrice)
	if err != nil {
		return nil, err
	}

	order, err := b.client.NewCreateOrderService().
		Symbol(nostd.VenueSymbol(symbol)).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeStopMarket).
		StopPrice(stopPriceStr).
		Quantity(quantityStr).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create stop loss order: %w", err)
	}

	return b.orderResult(symbol, order), nil
}

// CreateTakeProfitOrder 创建止盈市价单，触发后以只减仓方式平仓
func (b *BinanceClient) CreateTakeProfitOrder(ctx context.Context, symbol string, side OrderSide,
	quantity float64, takeProfitPrice float64) (*OrderResult, error) {

	quantityStr, err := b.quantityString(ctx, symbol, quantity)
	if err != nil {
		return nil, err
	}
	stopPriceStr, err := b.priceString(ctx, symbol, takeProfitPrice)
	if err != nil {
		return nil, err
	}

	order, err := b.client.NewCreateOrderService().
		Symbol(nostd.VenueSymbol(symbol)).
		Side(futures.SideType(side)).
		Type(futures.OrderTypeTakeProfitMarket).
		StopPrice(stopPriceStr).
		Quantity(quantityStr).
		ReduceOnly(true).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create take profit order: %w", err)
	}

	return b.orderResult(symbol, order), nil
}

// CancelAllOrders 取消交易对的全部挂单，取消操作幂等，可重试
func (b *BinanceClient) CancelAllOrders(ctx context.Context, symbol string) error {
	err := b.retry.Do(ctx, func() error {
		return b.client.NewCancelAllOpenOrdersService().
			Symbol(nostd.VenueSymbol(symbol)).
			Do(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to cancel all orders: %w", err)
	}
	return nil
}

// GetSymbolInfo 获取交易对信息，带5分钟缓存
func (b *BinanceClient) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	venueSymbol := nostd.VenueSymbol(symbol)

	b.symbolInfoLock.RLock()
	if info, exists := b.symbolInfoMap[venueSymbol]; exists {
		if time.Since(info.lastUpdated) < 5*time.Minute {
			b.symbolInfoLock.RUnlock()
			return info, nil
		}
	}
	b.symbolInfoLock.RUnlock()

	var exchangeInfo *futures.ExchangeInfo
	err := b.retry.Do(ctx, func() error {
		var err error
		exchangeInfo, err = b.client.NewExchangeInfoService().Do(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get exchange info: %w", err)
	}

	for _, s := range exchangeInfo.Symbols {
		if s.Symbol != venueSymbol {
			continue
		}
		info := &SymbolInfo{
			Symbol:            symbol,
			QuantityPrecision: s.QuantityPrecision,
			PricePrecision:    s.PricePrecision,
			lastUpdated:       time.Now(),
		}

		for _, filter := range s.Filters {
			switch filter["filterType"] {
			case "LOT_SIZE":
				if minQty, ok := filter["minQty"].(string); ok {
					info.MinQuantity, _ = strconv.ParseFloat(minQty, 64)
				}
				if maxQty, ok := filter["maxQty"].(string); ok {
					info.MaxQuantity, _ = strconv.ParseFloat(maxQty, 64)
				}
				if stepSize, ok := filter["stepSize"].(string); ok {
					info.StepSize, _ = strconv.ParseFloat(stepSize, 64)
				}
			case "MIN_NOTIONAL":
				if notional, ok := filter["notional"].(string); ok {
					info.MinNotional, _ = strconv.ParseFloat(notional, 64)
				}
			}
		}

		b.symbolInfoLock.Lock()
		b.symbolInfoMap[venueSymbol] = info
		b.symbolInfoLock.Unlock()

		return info, nil
	}

	return nil, fmt.Errorf("symbol %s not found", symbol)
}

// FormatQuantity 根据交易对精度格式化数量
func (b *BinanceClient) FormatQuantity(ctx context.Context, symbol string, quantity float64) (float64, error) {
	info, err := b.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return 0, err
	}

	// 根据 stepSize 调整数量
	if info.StepSize > 0 {
		quantity = math.Floor(quantity/info.StepSize) * info.StepSize
	}

	// 根据精度截断
	precision := math.Pow10(info.QuantityPrecision)
	quantity = math.Floor(quantity*precision) / precision

	if quantity < info.MinQuantity {
		return 0, fmt.Errorf("quantity %.8f is below minimum %.8f for %s", quantity, info.MinQuantity, symbol)
	}
	if info.MaxQuantity > 0 && quantity > info.MaxQuantity {
		return 0, fmt.Errorf("quantity %.8f exceeds maximum %.8f for %s", quantity, info.MaxQuantity, symbol)
	}

	return quantity, nil
}

func (b *BinanceClient) quantityString(ctx context.Context, symbol string, quantity float64) (string, error) {
	formattedQty, err := b.FormatQuantity(ctx, symbol, quantity)
	if err != nil {
		return "", fmt.Errorf("failed to format quantity: %w", err)
	}

	info, err := b.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("failed to get symbol info: %w", err)
	}

	return strconv.FormatFloat(formattedQty, 'f', info.QuantityPrecision, 64), nil
}

func (b *BinanceClient) priceString(ctx context.Context, symbol string, price float64) (string, error) {
	info, err := b.GetSymbolInfo(ctx, symbol)
	if err != nil {
		return "", fmt.Errorf("failed to get symbol info: %w", err)
	}
	return strconv.FormatFloat(price, 'f', info.PricePrecision, 64), nil
}

func (b *BinanceClient) orderResult(symbol string, order *futures.CreateOrderResponse) *OrderResult {
	avgPrice, _ := strconv.ParseFloat(order.AvgPrice, 64)
	executedQty, _ := strconv.ParseFloat(order.ExecutedQuantity, 64)
	origQty, _ := strconv.ParseFloat(order.OrigQuantity, 64)
	price, _ := strconv.ParseFloat(order.Price, 64)

	return &OrderResult{
		OrderID:     order.OrderID,
		Symbol:      symbol,
		Side:        string(order.Side),
		Type:        string(order.Type),
		Quantity:    origQty,
		Price:       price,
		AvgPrice:    avgPrice,
		Status:      string(order.Status),
		ExecutedQty: executedQty,
	}
}
