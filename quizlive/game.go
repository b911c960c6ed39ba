package quizlive

import (
	"encoding/json"
	"sync"
)

// GamePhase is the client's position in the quiz lifecycle.
type GamePhase string

const (
	PhaseLobby         GamePhase = "lobby"
	PhaseStarting      GamePhase = "starting"
	PhaseQuestion      GamePhase = "question"
	PhaseQuestionEnded GamePhase = "question_ended"
	PhaseFinished      GamePhase = "finished"
	PhasePaused        GamePhase = "paused"
)

// Player is one connected participant. Identity is the server-assigned
// ID; name and avatar may change on reconnection.
type Player struct {
	ID          string
	DisplayName string
	Avatar      string
}

// AnswerReveal is the correct answer disclosed at the end of a round.
type AnswerReveal struct {
	CorrectIndex int
	CorrectText  string
}

// GameState is the client's full view of the session. It is a value:
// every reduction returns a fresh state and never mutates the input,
// so a snapshot handed to a consumer stays stable.
//
// PlayerCount is server-authoritative and tracked independently of
// len(Players); a locally dropped membership message must not corrupt
// the displayed count.
type GameState struct {
	Phase          GamePhase
	Players        []Player
	PlayerCount    int
	TotalQuestions int

	CurrentQuestion *QuestionPayload
	AnswerResult    *AnswerResultPayload
	AnswerCount     *AnswerCountPayload
	Reveal          *AnswerReveal

	// Leaderboard persists between rounds so the previous standings
	// remain visible until the next round replaces them.
	Leaderboard []LeaderboardEntry

	Countdown   int
	ScoringRule ScoringRule
}

// NewGameState returns the initial (and reset) state.
func NewGameState() GameState {
	return GameState{Phase: PhaseLobby}
}

// ReconnectPolicy decides what to do with a player_reconnected message
// whose player is not in the local Players list.
type ReconnectPolicy int

const (
	// ReconnectInsert adds the unknown player. The server only emits
	// the message for players it knows about, so inserting self-heals
	// a locally missed player_joined.
	ReconnectInsert ReconnectPolicy = iota

	// ReconnectIgnore updates the count but leaves Players untouched.
	ReconnectIgnore
)

// Reducer folds server envelopes into GameState. The zero value is
// ready to use. Reduce is pure and total: it performs no I/O, starts
// no timers, never fails, and an unknown or malformed message leaves
// the state unchanged so old clients survive protocol evolution.
type Reducer struct {
	ReconnectPolicy ReconnectPolicy
}

// Reduce applies one envelope and returns the next state. Replaying an
// identical sequence from NewGameState always yields an equal state.
func (r Reducer) Reduce(state GameState, env Envelope) GameState {
	switch env.Type {
	case KindPlayerJoined:
		p, ok := decodePayload[PlayerJoinedPayload](env.Payload)
		if !ok {
			return state
		}
		players := clonePlayers(state.Players)
		state.Players = append(players, Player{ID: p.PlayerID, DisplayName: p.DisplayName, Avatar: p.Avatar})
		state.PlayerCount = p.PlayerCount
		return state

	case KindPlayerLeft:
		p, ok := decodePayload[PlayerLeftPayload](env.Payload)
		if !ok {
			return state
		}
		players := make([]Player, 0, len(state.Players))
		for _, pl := range state.Players {
			if pl.ID != p.PlayerID {
				players = append(players, pl)
			}
		}
		state.Players = players
		state.PlayerCount = p.PlayerCount
		return state

	case KindPlayerReconnected:
		p, ok := decodePayload[PlayerReconnectedPayload](env.Payload)
		if !ok {
			return state
		}
		players := clonePlayers(state.Players)
		found := false
		for i := range players {
			if players[i].ID == p.PlayerID {
				players[i].DisplayName = p.DisplayName
				players[i].Avatar = p.Avatar
				found = true
				break
			}
		}
		if !found && r.ReconnectPolicy == ReconnectInsert {
			players = append(players, Player{ID: p.PlayerID, DisplayName: p.DisplayName, Avatar: p.Avatar})
		}
		state.Players = players
		state.PlayerCount = p.PlayerCount
		return state

	case KindGameStarting:
		p, ok := decodePayload[GameStartingPayload](env.Payload)
		if !ok {
			return state
		}
		state.Phase = PhaseStarting
		state.TotalQuestions = p.TotalQuestions
		state.Countdown = p.CountdownSec
		return state

	case KindQuestion:
		p, ok := decodePayload[QuestionPayload](env.Payload)
		if !ok {
			return state
		}
		// All per-question fields reset together; nothing stale
		// survives into the new round.
		state.Phase = PhaseQuestion
		state.CurrentQuestion = &p
		state.AnswerResult = nil
		state.AnswerCount = nil
		state.Reveal = nil
		state.TotalQuestions = p.TotalQuestions
		if p.ScoringRule != "" {
			state.ScoringRule = p.ScoringRule
		}
		return state

	case KindAnswerCount:
		p, ok := decodePayload[AnswerCountPayload](env.Payload)
		if !ok {
			return state
		}
		state.AnswerCount = &p
		return state

	case KindAnswerResult:
		p, ok := decodePayload[AnswerResultPayload](env.Payload)
		if !ok {
			return state
		}
		state.AnswerResult = &p
		return state

	case KindQuestionEnded:
		p, ok := decodePayload[QuestionEndedPayload](env.Payload)
		if !ok {
			return state
		}
		state.Phase = PhaseQuestionEnded
		state.Leaderboard = p.Leaderboard
		state.Reveal = &AnswerReveal{CorrectIndex: p.CorrectIndex, CorrectText: p.CorrectText}
		return state

	case KindGameFinished:
		p, ok := decodePayload[GameFinishedPayload](env.Payload)
		if !ok {
			return state
		}
		state.Phase = PhaseFinished
		state.Leaderboard = p.Leaderboard
		return state

	case KindGameTerminated:
		p, ok := decodePayload[GameTerminatedPayload](env.Payload)
		if !ok {
			return state
		}
		state.Phase = PhaseFinished
		state.Leaderboard = p.FinalLeaderboard
		return state

	case KindGamePaused:
		state.Phase = PhasePaused
		return state

	case KindGameResumed:
		if state.CurrentQuestion != nil {
			state.Phase = PhaseQuestion
		} else {
			state.Phase = PhaseLobby
		}
		return state

	case KindScoringRuleSet:
		p, ok := decodePayload[ScoringRuleSetPayload](env.Payload)
		if !ok {
			return state
		}
		state.ScoringRule = p.Rule
		return state

	default:
		return state
	}
}

func decodePayload[T any](raw json.RawMessage) (T, bool) {
	var v T
	if len(raw) == 0 {
		var zero T
		return zero, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		var zero T
		return zero, false
	}
	return v, true
}

func clonePlayers(players []Player) []Player {
	if players == nil {
		return nil
	}
	out := make([]Player, len(players))
	copy(out, players)
	return out
}

// Tracker is a stateful handle around a Reducer for callers that want
// the folded view rather than the fold itself. Wire Tracker.Apply as
// the client's envelope handler; delivery is already serial, so Apply
// runs the full reduce step before the next frame is processed.
type Tracker struct {
	mu       sync.Mutex
	reducer  Reducer
	state    GameState
	onChange func(GameState)
}

// NewTracker returns a tracker at the initial state.
func NewTracker() *Tracker {
	return &Tracker{state: NewGameState()}
}

// SetReconnectPolicy configures unknown-player handling for
// player_reconnected messages.
func (t *Tracker) SetReconnectPolicy(p ReconnectPolicy) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reducer.ReconnectPolicy = p
}

// OnChange registers a callback fired with the new state after every
// applied envelope or reset.
func (t *Tracker) OnChange(fn func(GameState)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Apply folds one envelope into the tracked state.
func (t *Tracker) Apply(env Envelope) {
	t.mu.Lock()
	t.state = t.reducer.Reduce(t.state, env)
	st := t.state
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// Reset returns the tracked state to the initial value.
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.state = NewGameState()
	st := t.state
	fn := t.onChange
	t.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// State returns a snapshot of the current state.
func (t *Tracker) State() GameState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}
