package exchange

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/adshao/go-binance/v2/common"
	"github.com/jpillora/backoff"
)

// RetryPolicy 网络请求重试策略，仅对临时性错误退避重试
type RetryPolicy struct {
	MaxAttempts int
	MinInterval time.Duration
	MaxInterval time.Duration
	Retryable   func(error) bool
}

// DefaultRetryPolicy 默认策略：最多重试3次，指数退避
func DefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxAttempts: 3,
		MinInterval: 500 * time.Millisecond,
		MaxInterval: 5 * time.Second,
		Retryable:   IsTransient,
	}
}

// Do 执行操作，失败且可重试时按退避间隔重试，上下文取消立即返回
func (r *RetryPolicy) Do(ctx context.Context, op func() error) error {
	b := &backoff.Backoff{
		Min:    r.MinInterval,
		Max:    r.MaxInterval,
		Factor: 2,
		Jitter: true,
	}

	var err error
	for attempt := 0; attempt < r.MaxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if r.Retryable != nil && !r.Retryable(err) {
			return err
		}
		if attempt == r.MaxAttempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
	return err
}

// IsTransient 判断错误是否属于临时性错误
// 业务类错误（余额不足、参数非法等）不重试，避免重复下单
func IsTransient(err error) bool {
	var apiErr *common.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case -1001: // DISCONNECTED
			return true
		case -1003: // TOO_MANY_REQUESTS
			return true
		case -1007: // TIMEOUT
			return true
		case -1016: // SERVICE_SHUTTING_DOWN
			return true
		}
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return false
}
