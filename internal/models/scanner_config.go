package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScannerConfig 机会扫描配置，单行记录，运行时可通过接口修改
type ScannerConfig struct {
	ID               string                      `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Enabled          bool                        `gorm:"default:false" json:"enabled"`
	IntervalMinutes  int                         `gorm:"default:15" json:"interval_minutes"`
	Whitelist        datatypes.JSONSlice[string] `json:"whitelist"`           // 固定扫描的交易对
	Blacklist        datatypes.JSONSlice[string] `json:"blacklist"`           // 永不交易的交易对
	UseGainersLosers bool                        `gorm:"default:true" json:"use_gainers_losers"` // 是否扫描涨跌幅榜
	TopN             int                         `gorm:"default:10" json:"top_n"`                // 涨跌幅榜各取前N
	MinVolumeUSDT    float64                     `gorm:"default:10000000" json:"min_volume_usdt"`
	UpdatedAt        time.Time                   `gorm:"autoUpdateTime" json:"updated_at"`
}

// TableName 指定表名
func (ScannerConfig) TableName() string {
	return "scanner_configs"
}
