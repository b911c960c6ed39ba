package quizlive

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Countdown is the local per-question ticker. It is a presentation
// aid only: the server's own deadline decides whether an answer is
// accepted, and this countdown reaches zero on its own with no server
// input. It runs while the question is live and the local client has
// not answered yet.
type Countdown struct {
	clock clockwork.Clock

	mu        sync.Mutex
	question  int // index of the active question, -1 when idle
	remaining int
	answered  bool
	stop      chan struct{}
	onTick    func(remaining int)
	onExpired func()
}

// NewCountdown returns an idle countdown driven by the given clock.
// A nil clock means wall time.
func NewCountdown(clock clockwork.Clock) *Countdown {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Countdown{clock: clock, question: -1}
}

// OnTick registers a callback fired once per second with the seconds
// remaining.
func (c *Countdown) OnTick(fn func(remaining int)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTick = fn
}

// OnExpired registers a callback fired when the countdown hits zero.
func (c *Countdown) OnExpired(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onExpired = fn
}

// Sync restarts the countdown whenever the active question changes
// identity (by index); a repeat of the same question is a no-op.
// Passing nil stops the ticker.
func (c *Countdown) Sync(q *QuestionPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if q == nil {
		c.stopLocked()
		c.question = -1
		c.remaining = 0
		return
	}
	if q.QuestionIndex == c.question {
		return
	}
	c.stopLocked()
	c.question = q.QuestionIndex
	c.remaining = q.TimeLimitSec
	c.answered = false
	if c.remaining <= 0 {
		return
	}
	stop := make(chan struct{})
	c.stop = stop
	go c.run(stop)
}

// MarkAnswered freezes the countdown for the rest of the question; the
// local client has answered and time pressure no longer applies.
func (c *Countdown) MarkAnswered() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answered = true
	c.stopLocked()
}

// Remaining returns the seconds left for the active question.
func (c *Countdown) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// Stop cancels the ticker, e.g. on session teardown.
func (c *Countdown) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
	c.question = -1
	c.remaining = 0
}

func (c *Countdown) stopLocked() {
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}

func (c *Countdown) run(stop chan struct{}) {
	t := c.clock.NewTicker(time.Second)
	defer t.Stop()
	for {
		select {
		case <-t.Chan():
			c.mu.Lock()
			if c.stop != stop || c.answered || c.remaining <= 0 {
				c.mu.Unlock()
				return
			}
			c.remaining--
			rem := c.remaining
			tick := c.onTick
			expired := c.onExpired
			if rem == 0 {
				c.stop = nil
			}
			c.mu.Unlock()

			if tick != nil {
				tick(rem)
			}
			if rem == 0 {
				if expired != nil {
					expired()
				}
				return
			}
		case <-stop:
			return
		}
	}
}
