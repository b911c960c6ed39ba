package quizlive

import "encoding/json"

// Message kinds, server -> client.
const (
	KindPlayerJoined      = "player_joined"
	KindPlayerLeft        = "player_left"
	KindPlayerReconnected = "player_reconnected"
	KindGameStarting      = "game_starting"
	KindQuestion          = "question"
	KindAnswerCount       = "answer_count"
	KindAnswerResult      = "answer_result"
	KindQuestionEnded     = "question_ended"
	KindGameFinished      = "game_finished"
	KindGamePaused        = "game_paused"
	KindGameResumed       = "game_resumed"
	KindGameTerminated    = "game_terminated"
	KindError             = "error"
	KindNameAssigned      = "name_assigned"
	KindScoringRuleSet    = "scoring_rule_set"
)

// Message kinds, client -> server.
const (
	KindSubmitAnswer   = "submit_answer"
	KindStartGame      = "start_game"
	KindNextQuestion   = "next_question"
	KindEndGame        = "end_game"
	KindSetScoringRule = "set_scoring_rule"
)

// ScoringRule is the server-chosen label describing how time-to-answer
// affects points. The client only displays it.
type ScoringRule string

const (
	SteppedDecay ScoringRule = "stepped_decay"
	LinearDecay  ScoringRule = "linear_decay"
	FixedScore   ScoringRule = "fixed_score"
)

// Envelope is the unit exchanged over the WebSocket, one JSON object
// per frame. Payload stays raw until a consumer decodes it for the
// specific kind.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewEnvelope marshals payload and wraps it with the given kind.
func NewEnvelope(kind string, payload any) (Envelope, error) {
	if payload == nil {
		return Envelope{Type: kind}, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, err
	}
	return Envelope{Type: kind, Payload: raw}, nil
}

// Server -> client payloads.

// PlayerJoinedPayload announces a new player in the lobby.
type PlayerJoinedPayload struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	PlayerCount int    `json:"player_count"`
}

// PlayerLeftPayload announces a departed player. Reason is "left" or
// "timeout".
type PlayerLeftPayload struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	PlayerCount int    `json:"player_count"`
	Reason      string `json:"reason"`
}

// PlayerReconnectedPayload announces a player who rejoined within the
// server's reconnection window.
type PlayerReconnectedPayload struct {
	PlayerID    string `json:"player_id"`
	DisplayName string `json:"display_name"`
	Avatar      string `json:"avatar"`
	PlayerCount int    `json:"player_count"`
}

// GameStartingPayload starts the pre-game countdown.
type GameStartingPayload struct {
	CountdownSec   int `json:"countdown_sec"`
	TotalQuestions int `json:"total_questions"`
}

// QuestionPayload opens a question round.
type QuestionPayload struct {
	QuestionIndex  int         `json:"question_index"`
	TotalQuestions int         `json:"total_questions"`
	Text           string      `json:"text"`
	Options        []string    `json:"options"`
	TimeLimitSec   int         `json:"time_limit_sec"`
	ScoringRule    ScoringRule `json:"scoring_rule"`
}

// AnswerCountPayload reports how many players have answered so far.
type AnswerCountPayload struct {
	Answered int `json:"answered"`
	Total    int `json:"total"`
}

// AnswerResultPayload is sent only to the client that submitted the
// answer.
type AnswerResultPayload struct {
	Correct       bool `json:"correct"`
	PointsAwarded int  `json:"points_awarded"`
	CorrectIndex  int  `json:"correct_index"`
}

// LeaderboardEntry is one ranked standing snapshot. Ranks are 1-based
// and ties share a rank.
type LeaderboardEntry struct {
	Rank         int    `json:"rank"`
	DisplayName  string `json:"display_name"`
	Avatar       string `json:"avatar"`
	Score        int    `json:"score"`
	CorrectCount int    `json:"correct_count"`
	IsWinner     bool   `json:"is_winner,omitempty"`
}

// QuestionEndedPayload closes a round and reveals the answer.
type QuestionEndedPayload struct {
	CorrectIndex int                `json:"correct_index"`
	CorrectText  string             `json:"correct_text"`
	Leaderboard  []LeaderboardEntry `json:"leaderboard"`
}

// GameFinishedPayload carries the final standings.
type GameFinishedPayload struct {
	Leaderboard    []LeaderboardEntry `json:"leaderboard"`
	TotalQuestions int                `json:"total_questions"`
}

// GamePausedPayload is broadcast when the host disconnects mid-game.
type GamePausedPayload struct {
	Reason     string `json:"reason"`
	TimeoutSec int    `json:"timeout_sec"`
}

// GameResumedPayload is broadcast when the host comes back.
type GameResumedPayload struct {
	Reason string `json:"reason,omitempty"`
}

// GameTerminatedPayload ends the session for good, standings included.
type GameTerminatedPayload struct {
	Reason           string             `json:"reason"`
	FinalLeaderboard []LeaderboardEntry `json:"final_leaderboard"`
}

// ErrorPayload is a protocol-level error from the server.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NameAssignedPayload reports the display name the server actually
// assigned (it may differ from the requested one on collision).
type NameAssignedPayload struct {
	RequestedName string `json:"requested_name"`
	AssignedName  string `json:"assigned_name"`
}

// ScoringRuleSetPayload confirms a scoring-rule change.
type ScoringRuleSetPayload struct {
	Rule ScoringRule `json:"rule"`
}

// Client -> server payloads.

// SubmitAnswerPayload submits the selected option for a question.
type SubmitAnswerPayload struct {
	QuestionIndex int `json:"question_index"`
	SelectedIndex int `json:"selected_index"`
}

// SetScoringRulePayload asks the server to switch scoring rules.
type SetScoringRulePayload struct {
	Rule ScoringRule `json:"rule"`
}
