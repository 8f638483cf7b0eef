package session

import (
	"strings"
	"time"
)

// ReconnectPolicy bounds automatic reconnection.
type ReconnectPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	CapDelay    time.Duration
}

// DefaultReconnectPolicy allows three attempts at 1s, 2s and 4s.
var DefaultReconnectPolicy = ReconnectPolicy{
	MaxAttempts: 3,
	BaseDelay:   time.Second,
	CapDelay:    10 * time.Second,
}

// Delay returns the wait before attempt n (1-based): BaseDelay doubled per
// attempt, capped at CapDelay.
func (p ReconnectPolicy) Delay(n int) time.Duration {
	if n < 1 {
		n = 1
	}
	d := p.BaseDelay
	for i := 1; i < n; i++ {
		d *= 2
		if d >= p.CapDelay {
			return p.CapDelay
		}
	}
	if d > p.CapDelay {
		return p.CapDelay
	}
	return d
}

var quotaKeywords = []string{"quota", "exceeded", "limit", "billing"}

// QuotaCode is the HTTP status treated as quota exhaustion.
const QuotaCode = 429

// IsQuota reports whether a failure text or code looks like quota exhaustion.
func IsQuota(text string, code int) bool {
	if code == QuotaCode {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range quotaKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
