package service

import (
	"errors"
	"math"

	"github.com/dushixiang/argus/internal/config"
	"github.com/dushixiang/argus/internal/models"
	"go.uber.org/zap"
)

var (
	ErrInvalidDistance    = errors.New("stop distance must be positive")
	ErrInvalidRisk        = errors.New("risk amount must be positive")
	ErrInsufficientMargin = errors.New("insufficient margin for position")
)

// RiskService 风控计算服务，所有方法均为纯计算不触发任何IO
type RiskService struct {
	conf   *config.Config
	logger *zap.Logger
}

// NewRiskService 创建风控服务
func NewRiskService(conf *config.Config, logger *zap.Logger) *RiskService {
	return &RiskService{
		conf:   conf,
		logger: logger,
	}
}

// StopDistance 根据ATR计算止损距离
func (s *RiskService) StopDistance(atr float64) (float64, error) {
	if atr <= 0 {
		return 0, ErrInvalidDistance
	}
	return atr * s.conf.Trading.AtrMultiplierSL, nil
}

// StopAndTarget 根据开仓价和止损距离计算止损与止盈价格
// 止盈距离 = 止损距离 × 盈亏比
func (s *RiskService) StopAndTarget(entryPrice float64, side string, stopDistance float64) (stopLoss, takeProfit float64, err error) {
	if stopDistance <= 0 {
		return 0, 0, ErrInvalidDistance
	}

	targetDistance := stopDistance * s.conf.Trading.RiskRewardRatioTP
	if side == models.SideLong {
		stopLoss = entryPrice - stopDistance
		takeProfit = entryPrice + targetDistance
	} else {
		stopLoss = entryPrice + stopDistance
		takeProfit = entryPrice - targetDistance
	}

	if stopLoss <= 0 {
		return 0, 0, ErrInvalidDistance
	}
	return stopLoss, takeProfit, nil
}

// PositionSize 根据风险金额计算仓位数量
// 数量 = 风险金额 / 每单位的止损距离，与杠杆无关
func (s *RiskService) PositionSize(balance, entryPrice, stopLoss float64) (float64, error) {
	riskAmount := balance * s.conf.Trading.RiskPerTradePercent / 100
	if riskAmount <= 0 {
		return 0, ErrInvalidRisk
	}

	distance := math.Abs(entryPrice - stopLoss)
	if distance <= 0 {
		return 0, ErrInvalidDistance
	}

	return riskAmount / distance, nil
}

// CheckMargin 检查可用余额是否足够覆盖仓位保证金
func (s *RiskService) CheckMargin(amount, entryPrice float64, leverage int, balance float64) error {
	if leverage <= 0 {
		leverage = 1
	}
	required := amount * entryPrice / float64(leverage)
	if required > balance {
		s.logger.Warn("margin check failed",
			zap.Float64("required", required),
			zap.Float64("available", balance))
		return ErrInsufficientMargin
	}
	return nil
}

// PartialTarget 计算分批止盈的目标价格
// 目标距离 = 初始止损距离 × 分批止盈盈亏比
func (s *RiskService) PartialTarget(position *models.Position) float64 {
	distance := math.Abs(position.EntryPrice - position.InitialStopLoss)
	target := distance * s.conf.Trading.PartialTPTargetRR
	if position.IsLong() {
		return position.EntryPrice + target
	}
	return position.EntryPrice - target
}

// TrailingCandidate 计算移动止损的候选价格
// 以开仓时的止损距离作为固定偏移跟随当前价格
func (s *RiskService) TrailingCandidate(position *models.Position, price float64) float64 {
	offset := math.Abs(position.EntryPrice - position.InitialStopLoss)
	if position.IsLong() {
		return price - offset
	}
	return price + offset
}

// ImprovesStop 判断候选止损是否比当前止损更有利
// 多头只允许上移，空头只允许下移
func (s *RiskService) ImprovesStop(side string, candidate, current float64) bool {
	if side == models.SideLong {
		return candidate > current
	}
	return candidate < current
}

// CalculatePnl 计算带方向的盈亏
func (s *RiskService) CalculatePnl(side string, entryPrice, closePrice, amount float64) float64 {
	if side == models.SideLong {
		return (closePrice - entryPrice) * amount
	}
	return (entryPrice - closePrice) * amount
}
