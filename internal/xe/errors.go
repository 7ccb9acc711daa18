package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams     = orz.NewError(10400, "参数无效")
	ErrPositionNotFound  = orz.NewError(10404, "持仓不存在")
	ErrPositionExists    = orz.NewError(10001, "该交易对已有持仓")
	ErrMaxPositions      = orz.NewError(10002, "已达到最大持仓数量")
	ErrInsufficientFunds = orz.NewError(10003, "可用保证金不足")
	ErrScannerRunning    = orz.NewError(10004, "扫描器已在运行")
	ErrScannerStopped    = orz.NewError(10005, "扫描器未在运行")
)
