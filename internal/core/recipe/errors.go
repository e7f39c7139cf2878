package recipe

import (
	"context"
	"errors"
)

var (
	// ErrInvalidInput 來源無法解析為網址，唯一的硬性錯誤
	ErrInvalidInput = errors.New("invalid input")
	// ErrCancelled 呼叫端取消請求
	ErrCancelled = errors.New("extraction cancelled")

	ErrTierCriteria          = errors.New("tier success criteria not met")
	ErrMalformedResponse     = errors.New("malformed response")
	ErrTransientFetch        = errors.New("transient fetch failure")
	ErrCacheUnavailable      = errors.New("cache unavailable")
	ErrNoHTML                = errors.New("no html available")
	ErrBlocked               = errors.New("page blocked by anti-bot protection")
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	ErrProviderUnavailable   = errors.New("provider not configured")
)

// 失敗種類
const (
	FailureCriteria    = "criteria_not_met"
	FailureMalformed   = "malformed_response"
	FailureTransient   = "transient_fetch"
	FailureTimeout     = "timeout"
	FailureBlocked     = "blocked"
	FailureUnavailable = "unavailable"
	FailureError       = "error"
)

// NewTierFailure 依錯誤種類建立失敗紀錄
func NewTierFailure(tier Tier, err error) TierFailure {
	return TierFailure{Tier: tier, Kind: FailureKind(err), Message: err.Error()}
}

// FailureKind 將錯誤分類為失敗種類
func FailureKind(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureTimeout
	case errors.Is(err, ErrTierCriteria):
		return FailureCriteria
	case errors.Is(err, ErrMalformedResponse):
		return FailureMalformed
	case errors.Is(err, ErrTransientFetch):
		return FailureTransient
	case errors.Is(err, ErrBlocked):
		return FailureBlocked
	case errors.Is(err, ErrNoHTML),
		errors.Is(err, ErrTranscriptUnavailable),
		errors.Is(err, ErrProviderUnavailable):
		return FailureUnavailable
	default:
		return FailureError
	}
}
