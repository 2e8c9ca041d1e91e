package services

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrCodeNotFound        = errors.New("code not found")
	ErrCodeExpired         = errors.New("code expired")
	ErrCodeOutOfAttempts   = errors.New("code out of attempts")
	ErrCodeInvalid         = errors.New("code invalid")
	ErrCodeAlreadyVerified = errors.New("code already verified")
	ErrSendThrottled       = errors.New("send throttled")
)

// SendThrottledError carries how long the caller should wait before asking
// for another code.
type SendThrottledError struct {
	RetryAfter time.Duration
}

func (e *SendThrottledError) Error() string {
	return fmt.Sprintf("%s: retry after %s", ErrSendThrottled, e.RetryAfter.Truncate(time.Second))
}

func (e *SendThrottledError) Unwrap() error { return ErrSendThrottled }
