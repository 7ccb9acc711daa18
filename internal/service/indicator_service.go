package service

import (
	"errors"

	"github.com/dushixiang/argus/pkg/exchange"
	"github.com/dushixiang/argus/pkg/ta"
)

var ErrInsufficientData = errors.New("not enough klines to calculate indicators")

// IndicatorService 技术指标计算服务
type IndicatorService struct{}

// NewIndicatorService 创建技术指标服务
func NewIndicatorService() *IndicatorService {
	return &IndicatorService{}
}

// IndicatorSet 单个时间框架的指标快照
type IndicatorSet struct {
	Price      float64 `json:"price"`
	RSI        float64 `json:"rsi"`
	MACDLine   float64 `json:"macd_line"`
	MACDSignal float64 `json:"macd_signal"`
	BBUpper    float64 `json:"bb_upper"`
	BBMiddle   float64 `json:"bb_middle"`
	BBLower    float64 `json:"bb_lower"`
	StochK     float64 `json:"stoch_k"`
	StochD     float64 `json:"stoch_d"`
	ADX        float64 `json:"adx"`
	Volume     float64 `json:"volume"`
}

// Calculate 计算指标快照，K线不足或指标仍在预热期时返回 ErrInsufficientData
func (s *IndicatorService) Calculate(klines []*exchange.Kline) (*IndicatorSet, error) {
	if len(klines) < 50 {
		return nil, ErrInsufficientData
	}

	closes := make([]float64, len(klines))
	highs := make([]float64, len(klines))
	lows := make([]float64, len(klines))
	volumes := make([]float64, len(klines))

	for i, k := range klines {
		closes[i] = k.Close
		highs[i] = k.High
		lows[i] = k.Low
		volumes[i] = k.Volume
	}

	rsi := ta.RSI(closes, 14)
	macdLine, macdSignal, _ := ta.MACD(closes, 12, 26, 9)
	bbUpper, bbMiddle, bbLower := ta.BBands(closes, 20, 2)
	stochK, stochD := ta.Stoch(highs, lows, closes)
	adx := ta.ADX(highs, lows, closes, 14)

	set := &IndicatorSet{
		Price:      ta.Last(closes, 0),
		RSI:        ta.Last(rsi, 0),
		MACDLine:   ta.Last(macdLine, 0),
		MACDSignal: ta.Last(macdSignal, 0),
		BBUpper:    ta.Last(bbUpper, 0),
		BBMiddle:   ta.Last(bbMiddle, 0),
		BBLower:    ta.Last(bbLower, 0),
		StochK:     ta.Last(stochK, 0),
		StochD:     ta.Last(stochD, 0),
		ADX:        ta.Last(adx, 0),
		Volume:     ta.Last(volumes, 0),
	}

	for _, v := range []float64{set.RSI, set.MACDLine, set.MACDSignal, set.BBUpper, set.StochK, set.ADX} {
		if !ta.Valid(v) {
			return nil, ErrInsufficientData
		}
	}

	return set, nil
}

// ATR 计算最新的ATR值
func (s *IndicatorService) ATR(klines []*exchange.Kline, period int) (float64, error) {
	if len(klines) < period+6 {
		return 0, ErrInsufficientData
	}

	closes := make([]float64, len(klines))
	highs := make([]float64, len(klines))
	lows := make([]float64, len(klines))

	for i, k := range klines {
		closes[i] = k.Close
		highs[i] = k.High
		lows[i] = k.Low
	}

	atr := ta.ATR(highs, lows, closes, period)
	value := ta.Last(atr, 0)
	if !ta.Valid(value) || value <= 0 {
		return 0, ErrInsufficientData
	}
	return value, nil
}
