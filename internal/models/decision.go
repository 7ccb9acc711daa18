package models

import (
	"time"
)

// AI分析建议
const (
	RecommendationBuy   = "AL"    // 开多
	RecommendationSell  = "SAT"   // 开空
	RecommendationWait  = "BEKLE" // 观望
	RecommendationHold  = "TUT"   // 继续持有
	RecommendationClose = "KAPAT" // 建议平仓
)

// 决策来源
const (
	DecisionSourceScanner    = "scanner"    // 机会扫描
	DecisionSourceManual     = "manual"     // 手动触发分析
	DecisionSourceReanalysis = "reanalysis" // 持仓复核
)

// Decision AI决策记录
type Decision struct {
	ID             string    `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Symbol         string    `gorm:"type:varchar(20);not null;index" json:"symbol"` // 交易对
	Timeframe      string    `gorm:"type:varchar(10)" json:"timeframe"`             // 分析用的K线周期
	Recommendation string    `gorm:"type:varchar(10);not null" json:"recommendation"`
	Reason         string    `gorm:"type:text" json:"reason"`         // AI给出的理由
	Price          float64   `gorm:"type:decimal(20,8)" json:"price"` // 决策时的价格
	Source         string    `gorm:"type:varchar(20);not null;index" json:"source"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// TableName 指定表名
func (Decision) TableName() string {
	return "decisions"
}
