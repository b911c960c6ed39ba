package rest

// QuestionPreview is one line of the upload preview.
type QuestionPreview struct {
	Text        string `json:"text"`
	OptionCount int    `json:"option_count"`
}

// QuizPreview is returned after a successful quiz upload.
type QuizPreview struct {
	QuizID        string            `json:"quiz_id"`
	Title         string            `json:"title"`
	QuestionCount int               `json:"question_count"`
	Preview       []QuestionPreview `json:"preview"`
}

// CreateSessionRequest is the request body for creating a session.
type CreateSessionRequest struct {
	QuizID string `json:"quiz_id"`
}

// CreateSessionResponse contains the join code and the WebSocket path
// for the host connection.
type CreateSessionResponse struct {
	JoinCode      string `json:"join_code"`
	SessionStatus string `json:"session_status"`
	WsURL         string `json:"ws_url"`
}

// SessionInfo is the session-lookup response players use before
// joining.
type SessionInfo struct {
	JoinCode      string `json:"join_code"`
	SessionStatus string `json:"session_status"`
	PlayerCount   int    `json:"player_count"`
	QuizTitle     string `json:"quiz_title"`
	WsURL         string `json:"ws_url"`
}

// ValidationMessage is one per-line problem in an uploaded quiz file.
type ValidationMessage struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

// ErrorResponse is the API error body.
type ErrorResponse struct {
	Code     string              `json:"error"`
	Message  string              `json:"message"`
	Messages []ValidationMessage `json:"messages,omitempty"`
}
