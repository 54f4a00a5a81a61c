package foundry

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultInterval 是编辑停止后自动提交前的等待时间。
const DefaultInterval = 2 * time.Second

// State 是 Bridge 的状态。
type State int

const (
	Idle State = iota
	PendingCommit
)

func (s State) String() string {
	if s == PendingCommit {
		return "pending-commit"
	}
	return "idle"
}

// Clock 抽象定时器，测试中可替换为可控时钟。
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer 是 Clock.AfterFunc 返回的句柄。
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// BridgeOptions 配置 Bridge。
type BridgeOptions struct {
	// Interval <= 0 时使用 DefaultInterval。
	Interval time.Duration
	Clock    Clock
	// ManualOnly 关闭定时提交，只能通过 Submit 提交。用于无法内联预览的小屏或触屏设备。
	ManualOnly bool
	Logger     *zerolog.Logger
}

// Bridge 在草稿设置与已提交设置之间做防抖。
//
// 每次 Edit 都会重置计时器，只有安静期满一个 Interval 才提交最新草稿；
// 校验失败的草稿永远不会提交。commit 在锁外调用，不得在其中调用 Submit。
type Bridge struct {
	interval time.Duration
	clock    Clock
	auto     bool
	logger   zerolog.Logger
	commit   func(Settings)

	mu        sync.Mutex
	draft     Settings
	committed Settings
	state     State
	timer     Timer
	seq       uint64
	closed    bool

	deliverMu sync.Mutex
	delivered uint64
}

// NewBridge 以 initial 作为草稿与已提交设置的初始值。
func NewBridge(initial Settings, commit func(Settings), opts BridgeOptions) *Bridge {
	b := &Bridge{
		interval:  opts.Interval,
		clock:     opts.Clock,
		auto:      !opts.ManualOnly,
		logger:    zerolog.Nop(),
		commit:    commit,
		draft:     initial,
		committed: initial,
	}
	if b.interval <= 0 {
		b.interval = DefaultInterval
	}
	if b.clock == nil {
		b.clock = realClock{}
	}
	if opts.Logger != nil {
		b.logger = *opts.Logger
	}
	return b
}

// Edit 修改草稿，并在自动提交开启时重新计时。
func (b *Bridge) Edit(fn func(*Settings)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	fn(&b.draft)
	b.seq++
	b.state = PendingCommit
	b.stopTimerLocked()
	if !b.auto {
		return
	}
	seq := b.seq
	b.timer = b.clock.AfterFunc(b.interval, func() { b.fire(seq) })
}

// Reset 丢弃草稿，恢复为最近一次提交的设置并取消等待中的提交。不会触发 commit。
func (b *Bridge) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.stopTimerLocked()
	b.seq++
	b.draft = b.committed
	b.state = Idle
}

// Submit 立即提交当前草稿并取消等待中的计时器。草稿无效时返回校验错误。
func (b *Bridge) Submit() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.stopTimerLocked()
	b.seq++
	s := b.draft
	if err := s.Validate(); err != nil {
		b.state = Idle
		b.mu.Unlock()
		return err
	}
	b.committed = s
	b.state = Idle
	seq := b.seq
	b.mu.Unlock()

	b.deliver(seq, s)
	return nil
}

// Draft 返回当前草稿。
func (b *Bridge) Draft() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.draft
}

// Committed 返回最近一次提交的设置。
func (b *Bridge) Committed() Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.committed
}

// State 返回当前状态：有未提交的编辑时为 PendingCommit。
func (b *Bridge) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// AutoCommit 报告是否启用定时提交。
func (b *Bridge) AutoCommit() bool { return b.auto }

// Close 取消等待中的提交，之后的 Edit 与 Submit 都不再生效。
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopTimerLocked()
	b.closed = true
	b.state = Idle
}

func (b *Bridge) fire(seq uint64) {
	b.mu.Lock()
	if b.closed || seq != b.seq {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	b.state = Idle
	s := b.draft
	if err := s.Validate(); err != nil {
		b.mu.Unlock()
		b.logger.Warn().Err(err).Msg("draft settings invalid, commit skipped")
		return
	}
	b.committed = s
	b.mu.Unlock()

	b.deliver(seq, s)
}

// deliver 保证较旧的提交不会覆盖较新的提交。
func (b *Bridge) deliver(seq uint64, s Settings) {
	b.deliverMu.Lock()
	defer b.deliverMu.Unlock()
	if seq <= b.delivered {
		return
	}
	b.delivered = seq
	if b.commit != nil {
		b.commit(s)
	}
}

func (b *Bridge) stopTimerLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
}
