package internalevent

import (
	"sync"
	"time"
)

// limiter 按 key 记录当前窗口的起点和被丢弃的次数
type limiter struct {
	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	start      time.Time
	suppressed int
}

func newLimiter() *limiter {
	return &limiter{windows: make(map[string]*window)}
}

// allow 窗口外放行并开启新窗口，返回上一个窗口内被丢弃的次数
func (l *limiter) allow(key string, every time.Duration, now time.Time) (bool, int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w, ok := l.windows[key]
	if !ok {
		l.windows[key] = &window{start: now}
		return true, 0
	}
	if now.Sub(w.start) < every {
		w.suppressed++
		return false, 0
	}

	suppressed := w.suppressed
	w.start = now
	w.suppressed = 0
	return true, suppressed
}
