// Package progress drives the scripted four-agent status animation shown
// while a report is being generated. The first three steps advance on fixed
// timers regardless of how fast the real pipeline runs; the fourth step then
// cycles through "still working" messages until the caller stops the runner.
package progress

import (
	"sync"
	"time"
)

// Status is the display state of one step.
type Status string

const (
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Step is one agent line in the progress display.
type Step struct {
	AgentName string `json:"agentName"`
	Label     string `json:"label"`
	Status    Status `json:"status"`
}

// loadingMessages cycle on the final step while the provider is still
// thinking, so a long call does not look frozen.
var loadingMessages = []string{
	"正在深挖最近 3 个月的财报会议纪要...",
	"正在交叉验证市场传闻与官方公告...",
	"正在构建现金流折现模型 (DCF)...",
	"正在进行 SWOT 竞争格局推演...",
	"正在对比同行业竞争对手数据...",
	"正在最终排版与渲染可视化图表...",
}

// scriptEvent is one timed transition of the pre-computation phase.
type scriptEvent struct {
	after    time.Duration
	complete int // step index to mark complete
	next     int // step index to activate
	done     string
	label    string
}

var script = []scriptEvent{
	{after: 1000 * time.Millisecond, complete: 0, next: 1, done: "已获取最新市场数据", label: "正在识别关键财务指标..."},
	{after: 1200 * time.Millisecond, complete: 1, next: 2, done: "基本面逻辑推演完成", label: "正在评估宏观与地缘风险..."},
	{after: 1200 * time.Millisecond, complete: 2, next: 3, done: "风险量化模型构建完成", label: "正在整合数据生成最终报告..."},
}

const cycleInterval = 2 * time.Second

// Runner plays the animation and reports every state change through a
// callback. Start once, then Finish or Fail exactly once; both are safe to
// call from a different goroutine than the one that called Start, and on a
// runner that was never started.
type Runner struct {
	onUpdate func([]Step)

	mu       sync.Mutex
	steps    []Step
	started  bool
	stopped  bool
	stopOnce sync.Once
	stop     chan struct{}
	finished chan struct{}
}

// NewRunner creates a runner. onUpdate receives a snapshot of all steps on
// every change and must not retain the slice across calls.
func NewRunner(onUpdate func([]Step)) *Runner {
	return &Runner{
		onUpdate: onUpdate,
		steps: []Step{
			{AgentName: "SearchAgent", Label: "正在连接实时索引库...", Status: StatusActive},
			{AgentName: "Analyst", Label: "等待数据...", Status: StatusPending},
			{AgentName: "RiskModel", Label: "等待分析...", Status: StatusPending},
			{AgentName: "ReportGen", Label: "等待生成...", Status: StatusPending},
		},
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
}

// Start begins the animation in a background goroutine and emits the initial
// state immediately.
func (r *Runner) Start() {
	r.mu.Lock()
	r.started = true
	r.mu.Unlock()
	r.emit()
	go r.run()
}

func (r *Runner) run() {
	defer close(r.finished)

	for _, ev := range script {
		select {
		case <-time.After(ev.after):
		case <-r.stop:
			return
		}
		r.mu.Lock()
		if r.stopped {
			r.mu.Unlock()
			return
		}
		r.steps[ev.complete].Status = StatusComplete
		r.steps[ev.complete].Label = ev.done
		r.steps[ev.next].Status = StatusActive
		r.steps[ev.next].Label = ev.label
		r.mu.Unlock()
		r.emit()
	}

	ticker := time.NewTicker(cycleInterval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ticker.C:
		case <-r.stop:
			return
		}
		r.mu.Lock()
		if r.stopped {
			r.mu.Unlock()
			return
		}
		r.steps[3].Label = loadingMessages[i%len(loadingMessages)]
		r.mu.Unlock()
		r.emit()
	}
}

// Finish stops the animation and marks every step complete.
func (r *Runner) Finish() {
	r.halt(func() {
		for i := range r.steps {
			r.steps[i].Status = StatusComplete
		}
		r.steps[3].Label = "报告生成完毕"
	})
}

// Fail stops the animation and marks the currently active step failed.
func (r *Runner) Fail(message string) {
	r.halt(func() {
		for i := range r.steps {
			if r.steps[i].Status == StatusActive {
				r.steps[i].Status = StatusFailed
				if message != "" {
					r.steps[i].Label = message
				}
			}
		}
	})
}

// halt stops the goroutine, applies the final mutation and emits once.
// Idempotent: only the first call takes effect.
func (r *Runner) halt(final func()) {
	r.stopOnce.Do(func() {
		r.mu.Lock()
		r.stopped = true
		started := r.started
		r.mu.Unlock()
		close(r.stop)
		// Only wait for run() if Start launched it; waiting on a runner
		// that never started would block forever.
		if started {
			<-r.finished
		}

		r.mu.Lock()
		final()
		r.mu.Unlock()
		r.emit()
	})
}

// Steps returns a snapshot of the current step states.
func (r *Runner) Steps() []Step {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Step, len(r.steps))
	copy(out, r.steps)
	return out
}

func (r *Runner) emit() {
	if r.onUpdate == nil {
		return
	}
	r.onUpdate(r.Steps())
}
