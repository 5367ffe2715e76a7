// Package internalevent 负责内部事件上报：每个事件同时输出一条结构化日志和若干计数器。
//
// 上报是尽力而为的：日志或指标侧的任何 panic 都在这里吞掉，不会传给调用方。
package internalevent

import (
	"log/slog"
	"time"
)

// InternalEvent 由组件在遇到异常情况时构造
type InternalEvent interface {
	EmitLogs(logger *slog.Logger)
	EmitMetrics(metrics *Metrics)
}

// RateLimited 由需要限速的事件实现；同一 key 在窗口内只输出一次日志，计数器不受影响
type RateLimited interface {
	RateLimitKey() string
	RateLimit() time.Duration
}

// Emitter 持有注入的 logger 和 metrics
type Emitter struct {
	logger  *slog.Logger
	metrics *Metrics
	limiter *limiter
	now     func() time.Time
}

// NewEmitter logger 或 metrics 为 nil 时对应的输出被丢弃
func NewEmitter(logger *slog.Logger, metrics *Metrics) *Emitter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Emitter{
		logger:  logger,
		metrics: metrics,
		limiter: newLimiter(),
		now:     time.Now,
	}
}

// Emit 先写日志再计数
func (e *Emitter) Emit(ev InternalEvent) {
	if e == nil || ev == nil {
		return
	}
	e.emitLogs(ev)
	e.emitMetrics(ev)
}

func (e *Emitter) emitLogs(ev InternalEvent) {
	defer func() { _ = recover() }()

	logger := e.logger
	if rl, ok := ev.(RateLimited); ok && rl.RateLimit() > 0 {
		allowed, suppressed := e.limiter.allow(rl.RateLimitKey(), rl.RateLimit(), e.now())
		if !allowed {
			return
		}
		logger = logger.With("internal_log_rate_secs", int(rl.RateLimit()/time.Second))
		if suppressed > 0 {
			logger = logger.With("internal_log_suppressed", suppressed)
		}
	}
	ev.EmitLogs(logger)
}

func (e *Emitter) emitMetrics(ev InternalEvent) {
	defer func() { _ = recover() }()
	ev.EmitMetrics(e.metrics)
}
