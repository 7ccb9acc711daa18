package ta

import "math"

// Last 取序列倒数第 position+1 个值，position=0 表示最后一个
func Last(s []float64, position int) float64 {
	return s[len(s)-1-position]
}

func LastValues(s []float64, size int) []float64 {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Lowest 计算最近 period 根K线中的最低价
func Lowest(low []float64, period int) float64 {
	arr := LastValues(low, period)
	minVal := arr[0]

	for _, value := range arr {
		if value < minVal {
			minVal = value
		}
	}
	return minVal
}

// Highest 计算最近 period 根K线中的最高价
func Highest(high []float64, period int) float64 {
	arr := LastValues(high, period)
	maxVal := arr[0]

	for _, value := range arr {
		if value > maxVal {
			maxVal = value
		}
	}
	return maxVal
}

// Valid 检查值是否为可用的指标值，预热期输出的 NaN/Inf 视为不可用
func Valid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
