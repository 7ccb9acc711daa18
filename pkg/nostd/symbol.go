package nostd

import "strings"

// UnifySymbol 将任意形式的交易对输入统一为规范的 BASE/QUOTE 格式
// 例如 "BTC"、"btcusdt"、"BTC/USDT:USDT" 都会转换为 "BTC/USDT"
func UnifySymbol(input string) string {
	s := strings.ToUpper(strings.TrimSpace(input))
	s = strings.Trim(s, "'\"")
	if s == "" {
		return ""
	}

	// 去掉结算币种后缀，如 BTC/USDT:USDT
	if idx := strings.Index(s, ":"); idx >= 0 {
		s = s[:idx]
	}

	if strings.Contains(s, "/") {
		return s
	}

	if base, ok := strings.CutSuffix(s, "USDT"); ok && base != "" {
		return base + "/USDT"
	}

	return s + "/USDT"
}

// VenueSymbol 将规范的 BASE/QUOTE 格式转换为交易所原生格式
// 例如 "BTC/USDT" 转换为 "BTCUSDT"
func VenueSymbol(unified string) string {
	return strings.ReplaceAll(UnifySymbol(unified), "/", "")
}

// BaseAsset 返回规范交易对的基础币种，如 "BTC/USDT" 返回 "BTC"
func BaseAsset(unified string) string {
	s := UnifySymbol(unified)
	if idx := strings.Index(s, "/"); idx > 0 {
		return s[:idx]
	}
	return s
}
