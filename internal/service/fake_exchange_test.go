package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dushixiang/argus/pkg/exchange"
)

type fakeOrder struct {
	Symbol     string
	Side       exchange.OrderSide
	Type       exchange.OrderType
	Quantity   float64
	Price      float64
	ReduceOnly bool
}

// fakeExchange 内存实现的交易所，订单全部立即成交
type fakeExchange struct {
	mu sync.Mutex

	prices         map[string]float64
	klines         map[string][]*exchange.Kline
	balance        float64
	venuePositions []*exchange.Position

	marketOrders []fakeOrder
	stopOrders   []fakeOrder
	tpOrders     []fakeOrder
	canceled     []string
}

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		prices:  make(map[string]float64),
		klines:  make(map[string][]*exchange.Kline),
		balance: 1000,
	}
}

func (f *fakeExchange) setPrice(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[symbol] = price
}

func (f *fakeExchange) setVenuePosition(p *exchange.Position) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, existing := range f.venuePositions {
		if existing.Symbol == p.Symbol {
			f.venuePositions[i] = p
			return
		}
	}
	f.venuePositions = append(f.venuePositions, p)
}

// fillKlines 生成带波动的K线序列，保证指标有足够的预热数据
func (f *fakeExchange) fillKlines(symbol string, count int, base float64) {
	klines := make([]*exchange.Kline, count)
	now := time.Now()
	for i := range klines {
		drift := float64(i%7) * base * 0.001
		c := base + drift
		klines[i] = &exchange.Kline{
			OpenTime:  now.Add(time.Duration(i-count) * time.Minute),
			Open:      c - base*0.0005,
			High:      c + base*0.002,
			Low:       c - base*0.002,
			Close:     c,
			Volume:    100,
			CloseTime: now.Add(time.Duration(i-count+1) * time.Minute),
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.klines[symbol] = klines
}

func (f *fakeExchange) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*exchange.Kline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	klines, ok := f.klines[symbol]
	if !ok {
		return nil, fmt.Errorf("no klines for %s", symbol)
	}
	return klines, nil
}

func (f *fakeExchange) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.prices[symbol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return price, nil
}

func (f *fakeExchange) GetFundingRate(ctx context.Context, symbol string) (float64, error) {
	return 0.0001, nil
}

func (f *fakeExchange) GetOrderBookDepth(ctx context.Context, symbol string, limit int) (*exchange.OrderBookDepth, error) {
	return &exchange.OrderBookDepth{Symbol: symbol, BidVolume: 100, AskVolume: 100}, nil
}

func (f *fakeExchange) Get24hTickers(ctx context.Context) ([]*exchange.Ticker24h, error) {
	return nil, nil
}

func (f *fakeExchange) GetAccountInfo(ctx context.Context) (*exchange.AccountInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &exchange.AccountInfo{TotalBalance: f.balance, AvailableBalance: f.balance}, nil
}

func (f *fakeExchange) GetBalance(ctx context.Context, currency string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balance, nil
}

func (f *fakeExchange) GetPositions(ctx context.Context) ([]*exchange.Position, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*exchange.Position(nil), f.venuePositions...), nil
}

func (f *fakeExchange) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	return nil
}

func (f *fakeExchange) SetMarginType(ctx context.Context, symbol string, marginType exchange.MarginType) error {
	return nil
}

func (f *fakeExchange) CreateMarketOrder(ctx context.Context, symbol string, side exchange.OrderSide, quantity float64, reduceOnly bool) (*exchange.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price := f.prices[symbol]
	f.marketOrders = append(f.marketOrders, fakeOrder{
		Symbol:     symbol,
		Side:       side,
		Type:       exchange.OrderTypeMarket,
		Quantity:   quantity,
		Price:      price,
		ReduceOnly: reduceOnly,
	})
	return &exchange.OrderResult{
		Symbol:      symbol,
		Side:        side.String(),
		Type:        exchange.OrderTypeMarket.String(),
		Quantity:    quantity,
		AvgPrice:    price,
		Status:      exchange.OrderStatusFilled.String(),
		ExecutedQty: quantity,
	}, nil
}

func (f *fakeExchange) CreateLimitOrder(ctx context.Context, symbol string, side exchange.OrderSide, quantity float64, price float64) (*exchange.OrderResult, error) {
	return f.CreateMarketOrder(ctx, symbol, side, quantity, false)
}

func (f *fakeExchange) CreateStopLossOrder(ctx context.Context, symbol string, side exchange.OrderSide, quantity float64, stopPrice float64) (*exchange.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopOrders = append(f.stopOrders, fakeOrder{
		Symbol:   symbol,
		Side:     side,
		Type:     exchange.OrderTypeStopMarket,
		Quantity: quantity,
		Price:    stopPrice,
	})
	return &exchange.OrderResult{Symbol: symbol, Status: exchange.OrderStatusNew.String()}, nil
}

func (f *fakeExchange) CreateTakeProfitOrder(ctx context.Context, symbol string, side exchange.OrderSide, quantity float64, takeProfitPrice float64) (*exchange.OrderResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tpOrders = append(f.tpOrders, fakeOrder{
		Symbol:   symbol,
		Side:     side,
		Type:     exchange.OrderTypeTakeProfitMarket,
		Quantity: quantity,
		Price:    takeProfitPrice,
	})
	return &exchange.OrderResult{Symbol: symbol, Status: exchange.OrderStatusNew.String()}, nil
}

func (f *fakeExchange) CancelAllOrders(ctx context.Context, symbol string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, symbol)
	return nil
}

func (f *fakeExchange) GetSymbolInfo(ctx context.Context, symbol string) (*exchange.SymbolInfo, error) {
	return &exchange.SymbolInfo{Symbol: symbol, QuantityPrecision: 3, PricePrecision: 2}, nil
}

func (f *fakeExchange) FormatQuantity(ctx context.Context, symbol string, quantity float64) (float64, error) {
	return quantity, nil
}

func (f *fakeExchange) reduceOnlyOrders() []fakeOrder {
	f.mu.Lock()
	defer f.mu.Unlock()
	var orders []fakeOrder
	for _, o := range f.marketOrders {
		if o.ReduceOnly {
			orders = append(orders, o)
		}
	}
	return orders
}

func venuePosition(symbol, side string, amount, entryPrice, markPrice float64) *exchange.Position {
	return &exchange.Position{
		Symbol:         symbol,
		Side:           side,
		PositionAmount: amount,
		EntryPrice:     entryPrice,
		MarkPrice:      markPrice,
		Leverage:       10,
	}
}

var _ exchange.Exchange = (*fakeExchange)(nil)
