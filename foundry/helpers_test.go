package foundry

import (
	"sync"
	"time"

	"github.com/ByLCY/qrfoundry/layout"
)

// stubTypesetter 按半个字号估算字符宽度，超出时按字符折行。
type stubTypesetter struct{}

func (stubTypesetter) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	charW := fontSize * 0.5
	perLine := len(content)
	if width > 0 {
		perLine = max(int(width/charW), 1)
	}
	var lines []layout.TextLine
	for start := 0; start < len(content); start += perLine {
		end := min(start+perLine, len(content))
		seg := content[start:end]
		lines = append(lines, layout.TextLine{Content: seg, Width: float64(len(seg)) * charW, Height: fontSize})
	}
	if len(lines) == 0 {
		lines = []layout.TextLine{{Height: fontSize}}
	}
	return lines, nil
}

// fakeClock 只在 Advance 时推进时间并同步触发到期的回调。
type fakeClock struct {
	mu     sync.Mutex
	now    time.Duration
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	at      time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, at: c.now + d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now + d
	for {
		var next *fakeTimer
		for _, t := range c.timers {
			if t.stopped || t.fired || t.at > target {
				continue
			}
			if next == nil || t.at < next.at {
				next = t
			}
		}
		if next == nil {
			break
		}
		c.now = next.at
		next.fired = true
		c.mu.Unlock()
		next.f()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *fakeClock) Now() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// commitRecorder 记录每次提交的设置与提交时刻。
type commitRecorder struct {
	mu    sync.Mutex
	clock *fakeClock
	got   []Settings
	at    []time.Duration
}

func (r *commitRecorder) commit(s Settings) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, s)
	if r.clock != nil {
		r.at = append(r.at, r.clock.Now())
	}
}

func (r *commitRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.got)
}
