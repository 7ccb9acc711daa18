package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/dushixiang/argus/pkg/exchange"
	"go.uber.org/zap"
)

// MarketService 市场数据收集服务
type MarketService struct {
	logger *zap.Logger

	exchange         exchange.Exchange
	indicatorService *IndicatorService
}

// NewMarketService 创建市场数据服务
func NewMarketService(exchange exchange.Exchange, indicatorService *IndicatorService, logger *zap.Logger) *MarketService {
	return &MarketService{
		logger:           logger,
		exchange:         exchange,
		indicatorService: indicatorService,
	}
}

// MarketSnapshot 多时间框架市场快照，用于AI分析
type MarketSnapshot struct {
	Symbol          string        `json:"symbol"`
	CurrentPrice    float64       `json:"current_price"`
	FundingRate     float64       `json:"funding_rate"`
	DepthRatio      float64       `json:"depth_ratio"` // 买卖盘量比
	EntryTimeframe  string        `json:"entry_timeframe"`
	TrendTimeframe  string        `json:"trend_timeframe"`
	EntryIndicators *IndicatorSet `json:"entry_indicators"`
	TrendIndicators *IndicatorSet `json:"trend_indicators"`
}

// Snapshot 收集指定交易对的市场快照
// 入场周期与趋势周期各取一份指标，资金费率和深度获取失败时降级为0
func (s *MarketService) Snapshot(ctx context.Context, symbol, entryTimeframe, trendTimeframe string) (*MarketSnapshot, error) {
	price, err := s.exchange.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to get current price: %w", err)
	}

	entryKlines, err := s.exchange.GetKlines(ctx, symbol, entryTimeframe, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to get entry klines: %w", err)
	}
	entryIndicators, err := s.indicatorService.Calculate(entryKlines)
	if err != nil {
		return nil, err
	}

	trendKlines, err := s.exchange.GetKlines(ctx, symbol, trendTimeframe, 200)
	if err != nil {
		return nil, fmt.Errorf("failed to get trend klines: %w", err)
	}
	trendIndicators, err := s.indicatorService.Calculate(trendKlines)
	if err != nil {
		return nil, err
	}

	snapshot := &MarketSnapshot{
		Symbol:          symbol,
		CurrentPrice:    price,
		EntryTimeframe:  entryTimeframe,
		TrendTimeframe:  trendTimeframe,
		EntryIndicators: entryIndicators,
		TrendIndicators: trendIndicators,
	}

	fundingRate, err := s.exchange.GetFundingRate(ctx, symbol)
	if err != nil {
		s.logger.Warn("failed to get funding rate", zap.String("symbol", symbol), zap.Error(err))
	} else {
		snapshot.FundingRate = fundingRate
	}

	depth, err := s.exchange.GetOrderBookDepth(ctx, symbol, 20)
	if err != nil {
		s.logger.Warn("failed to get order book depth", zap.String("symbol", symbol), zap.Error(err))
	} else {
		snapshot.DepthRatio = depth.Ratio()
	}

	return snapshot, nil
}

// ATR 获取指定交易对的最新ATR
func (s *MarketService) ATR(ctx context.Context, symbol, timeframe string) (float64, error) {
	klines, err := s.exchange.GetKlines(ctx, symbol, timeframe, 200)
	if err != nil {
		return 0, fmt.Errorf("failed to get klines: %w", err)
	}
	return s.indicatorService.ATR(klines, 14)
}

// TopMovers 返回24小时涨幅与跌幅榜各前N的交易对，按成交额过滤
func (s *MarketService) TopMovers(ctx context.Context, topN int, minVolumeUSDT float64) (gainers, losers []string, err error) {
	tickers, err := s.exchange.Get24hTickers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get 24h tickers: %w", err)
	}

	eligible := make([]*exchange.Ticker24h, 0, len(tickers))
	for _, t := range tickers {
		if t.QuoteVolume < minVolumeUSDT {
			continue
		}
		eligible = append(eligible, t)
	}

	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].PriceChangePercent > eligible[j].PriceChangePercent
	})

	for i := 0; i < topN && i < len(eligible); i++ {
		gainers = append(gainers, eligible[i].Symbol)
	}
	for i := 0; i < topN && i < len(eligible); i++ {
		losers = append(losers, eligible[len(eligible)-1-i].Symbol)
	}

	return gainers, losers, nil
}
