package ta

import "github.com/markcheno/go-talib"

// 指标计算统一封装 go-talib，输入输出均为与K线等长的序列
// 序列前段为指标预热期，值为 0 或 NaN，调用方取值前需做充分性检查

func EMA(values []float64, period int) []float64 {
	return talib.Ema(values, period)
}

func RSI(values []float64, period int) []float64 {
	return talib.Rsi(values, period)
}

// MACD 返回 (macd线, 信号线, 柱状图)
func MACD(values []float64, fastPeriod, slowPeriod, signalPeriod int) ([]float64, []float64, []float64) {
	return talib.Macd(values, fastPeriod, slowPeriod, signalPeriod)
}

func ATR(highs, lows, closes []float64, period int) []float64 {
	return talib.Atr(highs, lows, closes, period)
}

// BBands 布林带，返回 (上轨, 中轨, 下轨)
func BBands(values []float64, period int, dev float64) ([]float64, []float64, []float64) {
	return talib.BBands(values, period, dev, dev, talib.SMA)
}

// Stoch 随机指标，返回 (慢速K, 慢速D)，使用经典的 14/3/3 参数
func Stoch(highs, lows, closes []float64) ([]float64, []float64) {
	return talib.Stoch(highs, lows, closes, 14, 3, talib.SMA, 3, talib.SMA)
}

func ADX(highs, lows, closes []float64, period int) []float64 {
	return talib.Adx(highs, lows, closes, period)
}
