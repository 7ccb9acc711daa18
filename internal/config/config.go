package config

type Config struct {
	Telegram TelegramConf `json:"telegram"`
	Binance  BinanceConf  `json:"binance"`
	Trading  TradingConf  `json:"trading"`
	Scanner  ScannerConf  `json:"scanner"`
	LLM      LlmConf      `json:"llm"`
	Agent    AgentConf    `json:"agent"`
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

type BinanceConf struct {
	APIKey   string `json:"api_key"`
	Secret   string `json:"secret"`
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
	Testnet  bool   `json:"testnet"`   // 是否使用测试网
}

type TradingConf struct {
	Live        bool            `json:"live"`         // 是否启用真实交易，false时使用纸钱包模式
	PaperWallet PaperWalletConf `json:"paper_wallet"` // 纸钱包配置

	Leverage  int    `json:"leverage"`   // 杠杆倍数，默认10
	OrderType string `json:"order_type"` // 开仓订单类型 market/limit，默认market

	RiskPerTradePercent float64 `json:"risk_per_trade_percent"` // 单笔交易风险占余额百分比，默认2
	AtrMultiplierSL     float64 `json:"atr_multiplier_sl"`      // 止损距离的ATR倍数，默认2
	RiskRewardRatioTP   float64 `json:"risk_reward_ratio_tp"`   // 止盈的盈亏比，默认1.5

	UsePartialTP          bool    `json:"use_partial_tp"`           // 是否启用分批止盈
	PartialTPTargetRR     float64 `json:"partial_tp_target_rr"`     // 分批止盈的盈亏比目标，默认1
	PartialTPClosePercent float64 `json:"partial_tp_close_percent"` // 分批止盈平仓的比例，默认50

	UseTrailingStopLoss           bool    `json:"use_trailing_stop_loss"`           // 是否启用移动止损
	TrailingStopActivationPercent float64 `json:"trailing_stop_activation_percent"` // 移动止损激活的盈利百分比，默认1

	MaxConcurrentTrades          int `json:"max_concurrent_trades"`           // 最大同时持仓数，默认3
	PositionCheckIntervalSeconds int `json:"position_check_interval_seconds"` // 持仓巡检间隔（秒），默认60
}

type PaperWalletConf struct {
	InitialBalance float64 `json:"initial_balance"` // 初始余额（USDT），默认1000
}

type ScannerConf struct {
	Enabled          bool     `json:"enabled"`            // 启动时是否自动开启扫描
	IntervalMinutes  int      `json:"interval_minutes"`   // 扫描间隔（分钟），默认15
	EntryTimeframe   string   `json:"entry_timeframe"`    // 入场分析K线周期，默认15m
	TrendTimeframe   string   `json:"trend_timeframe"`    // 趋势分析K线周期，默认1h
	Whitelist        []string `json:"whitelist"`          // 固定扫描的交易对
	Blacklist        []string `json:"blacklist"`          // 永不交易的交易对
	UseGainersLosers bool     `json:"use_gainers_losers"` // 是否扫描涨跌幅榜
	TopN             int      `json:"top_n"`              // 涨跌幅榜各取前N，默认10
	MinVolumeUSDT    float64  `json:"min_volume_usdt"`    // 最小24小时成交额，默认1000万
}

type LlmConf struct {
	Provider string `json:"provider"`  // openai/gemini
	BaseURL  string `json:"base_url"`  // LLM API基础URL
	APIKey   string `json:"api_key"`   // LLM API密钥
	Model    string `json:"model"`     // 模型名称
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
}

type AgentConf struct {
	CloseAutoConfirm bool `json:"close_auto_confirm"` // 持仓复核建议平仓时是否自动执行
}
