package logger

import (
	"log/slog"
	"time"
)

// Progress：基于日志的导入进度上报，每 Every 行记录一次 import_progress
// 背景：导入是长时间批处理，进度条不适合日志采集场景；按固定行数输出结构化事件即可观察速率
// 约束：单数据源串行调用，不做并发保护
type Progress struct {
	l      *slog.Logger
	every  int
	source string
	start  time.Time
	last   int
}

func NewProgress(l *slog.Logger, every int) *Progress {
	if l == nil {
		l = L()
	}
	if every <= 0 {
		every = 50000
	}
	return &Progress{l: l, every: every}
}

// OnSourceBegin：开始一个新的数据源，重置计时
func (p *Progress) OnSourceBegin(name string) {
	p.source = name
	p.start = time.Now()
	p.last = 0
}

func (p *Progress) OnProgress(current, total int) {
	if p.start.IsZero() {
		p.start = time.Now()
	}
	p.last = current
	if current%p.every != 0 {
		return
	}
	attrs := []any{"source", p.source, "current", current, "total", total}
	if total > 0 {
		attrs = append(attrs, "percent", current*100/total)
	}
	if secs := time.Since(p.start).Seconds(); secs > 0 {
		attrs = append(attrs, "rows_per_sec", int(float64(current)/secs))
	}
	p.l.Info("import_progress", attrs...)
}

func (p *Progress) OnSourceDone() {
	p.l.Info("import_progress_done",
		"source", p.source,
		"rows", p.last,
		"duration_ms", time.Since(p.start).Milliseconds(),
	)
	p.start = time.Time{}
	p.last = 0
}
