package analysis

import (
	"sync"
	"time"
)

// progress reports a simulated percentage that climbs linearly to 95 over
// the estimate and stays there until finish.
type progress struct {
	report func(int)
	stop   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

func startProgress(estimate, interval time.Duration, report func(int)) *progress {
	p := &progress{report: report, stop: make(chan struct{})}
	if report == nil {
		return p
	}
	if estimate <= 0 {
		estimate = 45 * time.Second
	}
	if interval <= 0 {
		interval = 500 * time.Millisecond
	}
	report(0)

	start := time.Now()
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		last := 0
		for {
			select {
			case <-p.stop:
				return
			case <-ticker.C:
				pct := simulated(time.Since(start), estimate)
				if pct != last {
					last = pct
					report(pct)
				}
			}
		}
	}()
	return p
}

func simulated(elapsed, estimate time.Duration) int {
	pct := int(float64(elapsed) / float64(estimate) * 95)
	if pct > 95 {
		return 95
	}
	return pct
}

// finish stops the ticker; a successful run reports 100.
func (p *progress) finish(ok bool) {
	p.once.Do(func() {
		close(p.stop)
		p.wg.Wait()
		if ok && p.report != nil {
			p.report(100)
		}
	})
}
