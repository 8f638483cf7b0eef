package session

import (
	"github.com/teslashibe/go-analyst/pkg/timeline"
)

func (c *Controller) log(msg string, cat timeline.Category) {
	c.timeline.Add(msg, cat)
	c.logger.Debug("timeline", "category", cat, "message", msg)
}

// setStatus shows msg and clears any error. A status that looks like a quota
// problem triggers the fallback switch instead.
func (c *Controller) setStatus(msg string) {
	if c.isPrimary() && IsQuota(msg, 0) && c.tryFallback("no status") {
		return
	}
	c.update(func(s *State) {
		s.Status = msg
		s.Error = ""
	})
}

// setError shows msg, logs it, and clears it after ErrorTTL unless it was
// replaced in the meantime.
func (c *Controller) setError(msg string) {
	if c.isPrimary() && IsQuota(msg, 0) && c.tryFallback("no erro") {
		return
	}
	c.update(func(s *State) {
		s.Error = msg
		s.Status = ""
	})
	c.log(msg, timeline.Error)
	c.logger.Warn(msg)

	c.cfg.AfterFunc(c.cfg.ErrorTTL, func() {
		c.dispatch(func() {
			if c.state.Error == msg {
				c.update(func(s *State) { s.Error = "" })
			}
		})
	})
}
