package exchange

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// PaperWallet 纸钱包（模拟交易）
// 市场数据走真实交易所，账户与持仓在内存中模拟
// 持仓以 "BTC/USDT" 形式的交易对为键
type PaperWallet struct {
	binanceClient *BinanceClient
	logger        *zap.Logger

	balance          float64              // 账户余额
	initialBalance   float64              // 初始余额
	positions        map[string]*Position // symbol -> position
	orderID          int64                // 订单ID计数器
	symbolLeverages  map[string]int       // 每个交易对的杠杆设置
	symbolMarginType map[string]MarginType
	mu               sync.RWMutex
}

// NewPaperWallet 创建纸钱包
func NewPaperWallet(binanceClient *BinanceClient, initialBalance float64, logger *zap.Logger) *PaperWallet {
	return &PaperWallet{
		binanceClient:    binanceClient,
		logger:           logger,
		balance:          initialBalance,
		initialBalance:   initialBalance,
		positions:        make(map[string]*Position),
		orderID:          1000000, // 模拟订单ID从1000000开始
		symbolLeverages:  make(map[string]int),
		symbolMarginType: make(map[string]MarginType),
	}
}

// GetKlines 获取K线数据（使用真实数据）
func (p *PaperWallet) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error) {
	return p.binanceClient.GetKlines(ctx, symbol, interval, limit)
}

// GetCurrentPrice 获取当前价格（使用真实数据）
func (p *PaperWallet) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	return p.binanceClient.GetCurrentPrice(ctx, symbol)
}

// GetFundingRate 获取资金费率（使用真实数据）
func (p *PaperWallet) GetFundingRate(ctx context.Context, symbol string) (float64, error) {
	return p.binanceClient.GetFundingRate(ctx, symbol)
}

// GetOrderBookDepth 获取订单簿深度（使用真实数据）
func (p *PaperWallet) GetOrderBookDepth(ctx context.Context, symbol string, limit int) (*OrderBookDepth, error) {
	return p.binanceClient.GetOrderBookDepth(ctx, symbol, limit)
}

// Get24hTickers 获取24小时行情统计（使用真实数据）
func (p *PaperWallet) Get24hTickers(ctx context.Context) ([]*Ticker24h, error) {
	return p.binanceClient.Get24hTickers(ctx)
}

// GetAccountInfo 获取模拟账户信息
func (p *PaperWallet) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	unrealizedPnl := 0.0
	for _, pos := range p.positions {
		unrealizedPnl += pos.UnrealizedProfit
	}

	totalBalance := p.balance + unrealizedPnl

	// 已用保证金 = 持仓价值 / 杠杆
	usedMargin := 0.0
	for _, pos := range p.positions {
		positionValue := pos.PositionAmount * pos.EntryPrice
		usedMargin += positionValue / float64(pos.Leverage)
	}

	availableBalance := totalBalance - usedMargin

	return &AccountInfo{
		TotalBalance:     totalBalance,
		AvailableBalance: availableBalance,
		UnrealizedPnl:    unrealizedPnl,
	}, nil
}

// GetBalance 获取模拟账户的可用余额，纸钱包只支持USDT
func (p *PaperWallet) GetBalance(ctx context.Context, currency string) (float64, error) {
	if currency != "USDT" {
		return 0, nil
	}
	info, err := p.GetAccountInfo(ctx)
	if err != nil {
		return 0, err
	}
	return info.AvailableBalance, nil
}

// GetPositions 获取模拟持仓并刷新未实现盈亏
func (p *PaperWallet) GetPositions(ctx context.Context) ([]*Position, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*Position, 0, len(p.positions))
	for _, pos := range p.positions {
		currentPrice, err := p.GetCurrentPrice(ctx, pos.Symbol)
		if err != nil {
			p.logger.Warn("failed to get current price for position",
				zap.String("symbol", pos.Symbol),
				zap.Error(err))
			currentPrice = pos.MarkPrice // 使用上次的标记价格
		}

		updatedPos := *pos
		updatedPos.MarkPrice = currentPrice

		pnl := 0.0
		if pos.Side == "long" {
			pnl = (currentPrice - pos.EntryPrice) * pos.PositionAmount
		} else {
			pnl = (pos.EntryPrice - currentPrice) * pos.PositionAmount
		}
		updatedPos.UnrealizedProfit = pnl

		result = append(result, &updatedPos)
	}

	return result, nil
}

// SetLeverage 设置杠杆（仅记录）
func (p *PaperWallet) SetLeverage(ctx context.Context, symbol string, leverage int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.symbolLeverages[symbol] = leverage
	p.logger.Info("paper wallet: set leverage",
		zap.String("symbol", symbol),
		zap.Int("leverage", leverage))
	return nil
}

// SetMarginType 设置保证金模式（仅记录）
func (p *PaperWallet) SetMarginType(ctx context.Context, symbol string, marginType MarginType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.symbolMarginType[symbol] = marginType
	p.logger.Info("paper wallet: set margin type",
		zap.String("symbol", symbol),
		zap.String("margin_type", marginType.String()))
	return nil
}

// CreateMarketOrder 创建模拟市价单，以当前真实价格立即成交
func (p *PaperWallet) CreateMarketOrder(ctx context.Context, symbol string, side OrderSide,
	quantity float64, reduceOnly bool) (*OrderResult, error) {

	p.mu.Lock()
	defer p.mu.Unlock()

	price, err := p.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get current price: %w", err)
	}

	p.orderID++
	orderID := p.orderID

	leverage := 1
	if lev, exists := p.symbolLeverages[symbol]; exists {
		leverage = lev
	}

	p.logger.Info("paper wallet: creating market order",
		zap.String("symbol", symbol),
		zap.String("side", side.String()),
		zap.Float64("quantity", quantity),
		zap.Float64("price", price),
		zap.Bool("reduce_only", reduceOnly),
		zap.Int64("order_id", orderID))

	if reduceOnly {
		pos, exists := p.positions[symbol]
		if !exists {
			return nil, fmt.Errorf("no position to close for %s", symbol)
		}

		pnl := 0.0
		if pos.Side == "long" {
			pnl = (price - pos.EntryPrice) * quantity
		} else {
			pnl = (pos.EntryPrice - price) * quantity
		}

		p.balance += pnl

		if quantity >= pos.PositionAmount {
			delete(p.positions, symbol)
			p.logger.Info("paper wallet: position fully closed",
				zap.String("symbol", symbol),
				zap.Float64("pnl", pnl))
		} else {
			pos.PositionAmount -= quantity
			p.logger.Info("paper wallet: position partially closed",
				zap.String("symbol", symbol),
				zap.Float64("remaining", pos.PositionAmount),
				zap.Float64("pnl", pnl))
		}
	} else {
		positionValue := price * quantity
		requiredMargin := positionValue / float64(leverage)

		if requiredMargin > p.balance {
			return nil, fmt.Errorf("insufficient balance: required %.2f, available %.2f", requiredMargin, p.balance)
		}

		positionSide := "long"
		if side == OrderSideSell {
			positionSide = "short"
		}

		if existingPos, exists := p.positions[symbol]; exists {
			if existingPos.Side != positionSide {
				return nil, fmt.Errorf("cannot open %s position while holding %s position for %s",
					positionSide, existingPos.Side, symbol)
			}

			// 加权平均成本
			totalCost := existingPos.EntryPrice*existingPos.PositionAmount + price*quantity
			totalAmount := existingPos.PositionAmount + quantity
			existingPos.EntryPrice = totalCost / totalAmount
			existingPos.PositionAmount = totalAmount
			existingPos.MarkPrice = price

			p.logger.Info("paper wallet: position increased",
				zap.String("symbol", symbol),
				zap.Float64("entry_price", existingPos.EntryPrice),
				zap.Float64("amount", existingPos.PositionAmount))
		} else {
			p.positions[symbol] = &Position{
				Symbol:           symbol,
				Side:             positionSide,
				PositionAmount:   quantity,
				EntryPrice:       price,
				MarkPrice:        price,
				UnrealizedProfit: 0,
				Leverage:         leverage,
				LiquidationPrice: 0, // 简化处理，不计算强平价
			}

			p.logger.Info("paper wallet: new position opened",
				zap.String("symbol", symbol),
				zap.String("side", positionSide),
				zap.Float64("entry_price", price),
				zap.Float64("amount", quantity),
				zap.Int("leverage", leverage))
		}
	}

	return &OrderResult{
		OrderID:     orderID,
		Symbol:      symbol,
		Side:        side.String(),
		Type:        OrderTypeMarket.String(),
		Quantity:    quantity,
		Price:       price,
		AvgPrice:    price,
		Status:      OrderStatusFilled.String(),
		ExecutedQty: quantity,
	}, nil
}

// CreateLimitOrder 创建模拟限价单，纸钱包简化为按当前价立即成交
func (p *PaperWallet) CreateLimitOrder(ctx context.Context, symbol string, side OrderSide,
	quantity float64, price float64) (*OrderResult, error) {

	p.logger.Info("paper wallet: limit order filled at market price",
		zap.String("symbol", symbol),
		zap.String("side", side.String()),
		zap.Float64("quantity", quantity),
		zap.Float64("limit_price", price))

	return p.CreateMarketOrder(ctx, symbol, side, quantity, false)
}

// CreateStopLossOrder 创建止损单（模拟）
// 止损单不会真实触发，价格越界由持仓巡检平仓
func (p *PaperWallet) CreateStopLossOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, stopPrice float64) (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.orderID++
	orderID := p.orderID

	p.logger.Info("paper wallet: stop loss order created (simulated)",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
		zap.Float64("stop_price", stopPrice),
		zap.Int64("order_id", orderID))

	return &OrderResult{
		OrderID:  orderID,
		Symbol:   symbol,
		Side:     string(side),
		Type:     OrderTypeStopMarket.String(),
		Quantity: quantity,
		Price:    stopPrice,
		Status:   OrderStatusNew.String(),
	}, nil
}

// CreateTakeProfitOrder 创建止盈单（模拟）
func (p *PaperWallet) CreateTakeProfitOrder(ctx context.Context, symbol string, side OrderSide, quantity float64, takeProfitPrice float64) (*OrderResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.orderID++
	orderID := p.orderID

	p.logger.Info("paper wallet: take profit order created (simulated)",
		zap.String("symbol", symbol),
		zap.String("side", string(side)),
		zap.Float64("quantity", quantity),
		zap.Float64("take_profit_price", takeProfitPrice),
		zap.Int64("order_id", orderID))

	return &OrderResult{
		OrderID:  orderID,
		Symbol:   symbol,
		Side:     string(side),
		Type:     OrderTypeTakeProfitMarket.String(),
		Quantity: quantity,
		Price:    takeProfitPrice,
		Status:   OrderStatusNew.String(),
	}, nil
}

// CancelAllOrders 取消所有挂单（模拟，没有实际挂单）
func (p *PaperWallet) CancelAllOrders(ctx context.Context, symbol string) error {
	p.logger.Info("paper wallet: all orders cancelled (simulated)",
		zap.String("symbol", symbol))
	return nil
}

// GetSymbolInfo 获取交易对信息（使用真实数据）
func (p *PaperWallet) GetSymbolInfo(ctx context.Context, symbol string) (*SymbolInfo, error) {
	return p.binanceClient.GetSymbolInfo(ctx, symbol)
}

// FormatQuantity 格式化数量（使用真实规则）
func (p *PaperWallet) FormatQuantity(ctx context.Context, symbol string, quantity float64) (float64, error) {
	return p.binanceClient.FormatQuantity(ctx, symbol, quantity)
}

// Reset 重置纸钱包到初始状态
func (p *PaperWallet) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.balance = p.initialBalance
	p.positions = make(map[string]*Position)
	p.symbolLeverages = make(map[string]int)
	p.symbolMarginType = make(map[string]MarginType)

	p.logger.Info("paper wallet reset to initial state",
		zap.Float64("initial_balance", p.initialBalance))
}
