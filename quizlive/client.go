package quizlive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/quizlive/quizlive-sdk-go/quizlive/internal"
)

// Client owns one WebSocket connection to a quiz session and its
// reconnection lifecycle. Inbound frames are decoded and delivered to
// the registered callbacks one at a time, in receipt order. Outbound
// commands are fire-and-forget: a command issued while disconnected is
// dropped silently and the caller is expected to rely on the server's
// acknowledgment envelopes, never on send success.
type Client struct {
	cfg   Config
	log   zerolog.Logger
	clock clockwork.Clock

	dispatcher Dispatcher
	onState    func(StateEvent)

	mu         sync.Mutex
	state      ConnectionState
	conn       *internal.Conn
	cancelRead context.CancelFunc
	gen        int // connection generation, guards stale read loops
	retryCount int
	retryDelay time.Duration
	retryTimer clockwork.Timer
	retryStop  chan struct{}
}

// NewClient constructs a client with the provided config.
// Use DefaultConfig() as a starting point and set URL.
func NewClient(cfg Config) *Client {
	cfg.normalize()
	return &Client{
		cfg:   cfg,
		log:   cfg.Logger,
		clock: cfg.Clock,
	}
}

// OnEnvelope registers the handler for game envelopes. Envelopes are
// delivered serially from a single goroutine.
func (c *Client) OnEnvelope(fn func(Envelope)) { c.dispatcher.SetOnEnvelope(fn) }

// OnNameAssigned registers a callback for the name the server assigned
// to this player.
func (c *Client) OnNameAssigned(fn func(NameAssignedPayload)) { c.dispatcher.SetOnNameAssigned(fn) }

// OnError registers a callback for protocol errors from the server.
func (c *Client) OnError(fn func(error)) { c.dispatcher.SetOnError(fn) }

// OnStateChanged registers a callback for connection state transitions.
// Register before Connect; the callback must not block.
func (c *Client) OnStateChanged(fn func(StateEvent)) { c.onState = fn }

// State returns the current connection state.
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// RetryCount returns how many reconnect attempts have been made since
// the last successful open.
func (c *Client) RetryCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.retryCount
}

// Connect dials the configured URL and starts the read loop. Calling
// while already connecting or connected is a no-op. A manual Connect
// after the retry budget is exhausted starts a fresh attempt; the
// counter resets on the next successful open.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.state == StateConnecting || c.state == StateConnected {
		c.mu.Unlock()
		return nil
	}
	if c.cfg.URL == "" {
		c.mu.Unlock()
		return NewError(ErrorInvalidConfig, "empty URL")
	}
	c.stopRetryTimerLocked()
	ev, changed := c.setStateLocked(StateConnecting, nil)
	c.mu.Unlock()
	if changed {
		c.fireState(ev)
	}

	return c.dial(ctx)
}

// Close tears down the connection and permanently disables automatic
// reconnection for this client instance: the retry counter is pinned
// to the limit so a late close event cannot schedule another attempt,
// and any pending reconnect timer is cancelled.
func (c *Client) Close() error {
	c.mu.Lock()
	c.retryCount = c.cfg.MaxReconnectTries
	c.stopRetryTimerLocked()
	if c.cancelRead != nil {
		c.cancelRead()
		c.cancelRead = nil
	}
	conn := c.conn
	c.conn = nil
	ev, changed := c.setStateLocked(StateDisconnected, nil)
	c.mu.Unlock()
	if changed {
		c.fireState(ev)
	}
	if conn != nil {
		return conn.Close(websocket.StatusNormalClosure, "client close")
	}
	return nil
}

// Send transmits one envelope if connected and drops it silently
// otherwise. A write failure force-closes the socket, which routes the
// failure through the same reconnect handling as any other close.
func (c *Client) Send(ctx context.Context, env Envelope) {
	c.mu.Lock()
	conn := c.conn
	connected := c.state == StateConnected
	c.mu.Unlock()

	if !connected || conn == nil {
		c.log.Debug().Str("kind", env.Type).Msg("dropping send while not connected")
		return
	}
	if err := conn.Write(ctx, env); err != nil {
		c.log.Warn().Err(err).Str("kind", env.Type).Msg("write failed, force-closing")
		_ = conn.Close(websocket.StatusInternalError, "write error")
	}
}

// SubmitAnswer submits the selected option for a question.
func (c *Client) SubmitAnswer(ctx context.Context, questionIndex, selectedIndex int) {
	c.sendCommand(ctx, KindSubmitAnswer, SubmitAnswerPayload{
		QuestionIndex: questionIndex,
		SelectedIndex: selectedIndex,
	})
}

// StartGame asks the server to leave the lobby and begin. Host only.
func (c *Client) StartGame(ctx context.Context) {
	c.sendCommand(ctx, KindStartGame, nil)
}

// NextQuestion advances the session to the next question. Host only.
func (c *Client) NextQuestion(ctx context.Context) {
	c.sendCommand(ctx, KindNextQuestion, nil)
}

// EndGame terminates the session early. Host only.
func (c *Client) EndGame(ctx context.Context) {
	c.sendCommand(ctx, KindEndGame, nil)
}

// SetScoringRule switches the scoring rule for upcoming questions.
// Host only.
func (c *Client) SetScoringRule(ctx context.Context, rule ScoringRule) {
	c.sendCommand(ctx, KindSetScoringRule, SetScoringRulePayload{Rule: rule})
}

func (c *Client) sendCommand(ctx context.Context, kind string, payload any) {
	env, err := NewEnvelope(kind, payload)
	if err != nil {
		c.log.Error().Err(err).Str("kind", kind).Msg("failed to encode command")
		return
	}
	c.Send(ctx, env)
}

func (c *Client) dial(ctx context.Context) error {
	dialCtx := ctx
	if c.cfg.HandshakeTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, c.cfg.HandshakeTimeout)
		defer cancel()
	}

	ws, _, err := websocket.Dial(dialCtx, c.cfg.URL, nil)
	if err != nil {
		c.log.Warn().Err(err).Str("url", c.cfg.URL).Msg("dial failed")
		c.handleDisconnect(err)
		return WrapError(ErrorConnection, "dial failed", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())

	c.mu.Lock()
	if c.state != StateConnecting {
		// Closed while the dial was in flight.
		c.mu.Unlock()
		cancel()
		_ = ws.Close(websocket.StatusNormalClosure, "client close")
		return NewError(ErrorDisconnected, "closed during dial")
	}
	conn := internal.NewConn(ws, c.cfg.ReadTimeout, c.cfg.WriteTimeout)
	c.conn = conn
	c.cancelRead = cancel
	c.retryCount = 0
	c.gen++
	gen := c.gen
	ev, _ := c.setStateLocked(StateConnected, nil)
	c.mu.Unlock()
	c.fireState(ev)
	c.log.Info().Str("url", c.cfg.URL).Msg("connected")

	go c.readLoop(runCtx, conn, gen)
	return nil
}

// readLoop is the single owner of inbound delivery: one frame is
// decoded and dispatched to completion before the next is read.
func (c *Client) readLoop(ctx context.Context, conn *internal.Conn, gen int) {
	for {
		data, err := conn.Read(ctx)
		if err != nil {
			if !isExpectedDisconnect(ctx, err) {
				c.log.Warn().Err(err).Msg("read loop exit")
			}
			c.handleDisconnectGen(gen, err)
			return
		}

		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Type == "" {
			c.log.Warn().Err(err).Str("frame", truncate(data, 256)).Msg("dropping malformed frame")
			continue
		}
		c.dispatcher.Dispatch(env)
	}
}

func (c *Client) handleDisconnectGen(gen int, cause error) {
	c.mu.Lock()
	if gen != c.gen {
		// A newer connection already replaced this one.
		c.mu.Unlock()
		return
	}
	c.disconnectAndRescheduleLocked(cause)
}

func (c *Client) handleDisconnect(cause error) {
	c.mu.Lock()
	c.disconnectAndRescheduleLocked(cause)
}

// disconnectAndRescheduleLocked is entered with c.mu held and releases
// it. It moves the client to disconnected and, while the retry budget
// lasts, schedules a single reconnect attempt after a bounded
// exponential delay.
func (c *Client) disconnectAndRescheduleLocked(cause error) {
	c.conn = nil
	if c.cancelRead != nil {
		c.cancelRead()
		c.cancelRead = nil
	}

	events := make([]StateEvent, 0, 2)
	if ev, changed := c.setStateLocked(StateDisconnected, cause); changed {
		events = append(events, ev)
	}

	var attempt int
	var delay time.Duration
	if c.cfg.AutoReconnect && c.retryCount < c.cfg.MaxReconnectTries {
		c.stopRetryTimerLocked()
		c.retryCount++
		attempt = c.retryCount
		delay = backoffDelay(c.cfg.ReconnectInterval, c.retryCount, c.cfg.MaxReconnectDelay)
		c.retryDelay = delay
		if ev, changed := c.setStateLocked(StateReconnecting, nil); changed {
			events = append(events, ev)
		}

		timer := c.clock.NewTimer(delay)
		stop := make(chan struct{})
		c.retryTimer = timer
		c.retryStop = stop
		go c.awaitRetry(timer, stop)
	}
	c.mu.Unlock()

	for _, ev := range events {
		c.fireState(ev)
	}
	if attempt > 0 {
		c.log.Info().
			Int("attempt", attempt).
			Int("max", c.cfg.MaxReconnectTries).
			Dur("delay", delay).
			Msg("reconnect scheduled")
	} else if cause != nil && !errors.Is(cause, context.Canceled) {
		c.log.Info().Msg("reconnect budget exhausted, staying disconnected")
	}
}

func (c *Client) awaitRetry(timer clockwork.Timer, stop chan struct{}) {
	select {
	case <-timer.Chan():
	case <-stop:
		return
	}

	c.mu.Lock()
	if c.retryTimer != timer {
		// Cancelled or replaced after firing.
		c.mu.Unlock()
		return
	}
	c.retryTimer = nil
	c.retryStop = nil
	c.mu.Unlock()

	// A failed attempt re-enters the same close handling, so the next
	// backoff step is scheduled automatically.
	_ = c.Connect(context.Background())
}

// stopRetryTimerLocked invalidates any pending reconnect attempt.
// Caller holds c.mu.
func (c *Client) stopRetryTimerLocked() {
	if c.retryTimer == nil {
		return
	}
	stopAndDrainTimer(c.retryTimer)
	close(c.retryStop)
	c.retryTimer = nil
	c.retryStop = nil
}

func (c *Client) setStateLocked(s ConnectionState, err error) (StateEvent, bool) {
	if c.state == s {
		return StateEvent{}, false
	}
	ev := StateEvent{OldState: c.state, NewState: s, Err: err}
	c.state = s
	return ev, true
}

func (c *Client) fireState(ev StateEvent) {
	if c.onState != nil {
		c.onState(ev)
	}
}

// backoffDelay doubles the base delay per attempt, capped at max.
// Attempt 1 with a 1s base yields 2s.
func backoffDelay(base time.Duration, attempt int, max time.Duration) time.Duration {
	d := base << uint(attempt)
	if d <= 0 || d > max {
		return max
	}
	return d
}

// stopAndDrainTimer safely stops a timer and drains its channel so a
// fired-but-unread tick cannot leak through.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

func isExpectedDisconnect(ctx context.Context, err error) bool {
	if err == nil {
		return false
	}
	if ctx != nil && ctx.Err() != nil {
		return true
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
		return true
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	default:
		return false
	}
}
