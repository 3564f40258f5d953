package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies provider failures so callers can decide between retrying
// (rate limit), giving up (quota) and logging-and-continuing (generic).
type Kind int

const (
	KindClient Kind = iota
	KindRateLimit
	KindQuotaExceeded
	KindTimeout
	KindDecode
	KindConfig
)

func (k Kind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindQuotaExceeded:
		return "quota_exceeded"
	case KindTimeout:
		return "timeout"
	case KindDecode:
		return "decode"
	case KindConfig:
		return "config"
	default:
		return "client"
	}
}

type Error struct {
	Kind       Kind
	Provider   Provider
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s error (status %d): %s", e.Provider, e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s error: %s", e.Provider, e.Kind, e.Message)
}

func IsRateLimit(err error) bool     { return hasKind(err, KindRateLimit) }
func IsQuotaExceeded(err error) bool { return hasKind(err, KindQuotaExceeded) }
func IsTimeout(err error) bool       { return hasKind(err, KindTimeout) }
func IsDecode(err error) bool        { return hasKind(err, KindDecode) }
func IsConfig(err error) bool        { return hasKind(err, KindConfig) }

func hasKind(err error, kind Kind) bool {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.Kind == kind
	}
	return false
}

// classifyStatus maps a non-2xx provider response to a typed error. 429 is a
// rate limit for every variant; 402 is a quota error except for the local
// generation provider, which has no quota concept.
func classifyStatus(provider Provider, status int, message string) *Error {
	switch {
	case status == 429:
		return &Error{Kind: KindRateLimit, Provider: provider, StatusCode: status, Message: message}
	case status == 402 && provider != ProviderOllama:
		return &Error{Kind: KindQuotaExceeded, Provider: provider, StatusCode: status, Message: message}
	default:
		return &Error{Kind: KindClient, Provider: provider, StatusCode: status, Message: message}
	}
}

// classifyTransport distinguishes timeouts from other transport failures.
func classifyTransport(provider Provider, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Provider: provider, Message: err.Error()}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Provider: provider, Message: err.Error()}
	}
	return &Error{Kind: KindClient, Provider: provider, Message: err.Error()}
}
