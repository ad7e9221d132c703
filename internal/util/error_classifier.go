package util

import (
	"context"
	"errors"
	"net"
	"strings"
)

// ErrPermanent marks failures that must not be retried. Wrap a cause with
// Permanent() and consumers will route the message straight to the DLQ.
var ErrPermanent = errors.New("permanent failure")

func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrPermanent, err)
}

// IsRetryable reports whether a handler failure is worth another delivery.
// Timeouts and transport errors are retryable; anything tagged permanent
// or clearly a bad request is not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermanent) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"timeout", "connection refused", "connection reset", "temporarily unavailable", "too many requests", "status 429", "status 5"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	for _, marker := range []string{"status 4", "invalid", "unmarshal", "missing"} {
		if strings.Contains(msg, marker) {
			return false
		}
	}

	// Unknown errors get the benefit of the doubt up to the retry cap.
	return true
}
