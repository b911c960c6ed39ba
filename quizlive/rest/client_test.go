package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadQuiz(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/quiz", r.URL.Path)

		f, hdr, err := r.FormFile("quiz_file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "trivia.md", hdr.Filename)

		json.NewEncoder(w).Encode(QuizPreview{
			QuizID:        "q-123",
			Title:         "Capitals",
			QuestionCount: 2,
			Preview: []QuestionPreview{
				{Text: "Capital of Peru?", OptionCount: 4},
				{Text: "Capital of France?", OptionCount: 4},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	preview, err := c.UploadQuiz(context.Background(), "trivia.md", strings.NewReader("# Capitals\n"))
	require.NoError(t, err)

	assert.Equal(t, "q-123", preview.QuizID)
	assert.Equal(t, 2, preview.QuestionCount)
	require.Len(t, preview.Preview, 2)
	assert.Equal(t, 4, preview.Preview[0].OptionCount)
}

func TestUploadQuizValidationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(ErrorResponse{
			Code:    "invalid_quiz_file",
			Message: "quiz file has problems",
			Messages: []ValidationMessage{
				{Line: 3, Message: "question has no options"},
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	_, err := c.UploadQuiz(context.Background(), "bad.md", strings.NewReader("x"))
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "invalid_quiz_file", apiErr.Code)
	require.Len(t, apiErr.Messages, 1)
	assert.Equal(t, 3, apiErr.Messages[0].Line)
}

func TestCreateSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "POST", r.Method)
		require.Equal(t, "/api/sessions", r.URL.Path)

		var req CreateSessionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "q-123", req.QuizID)

		json.NewEncoder(w).Encode(CreateSessionResponse{
			JoinCode:      "ABC123",
			SessionStatus: "lobby",
			WsURL:         "/ws/host/ABC123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	resp, err := c.CreateSession(context.Background(), "q-123")
	require.NoError(t, err)

	assert.Equal(t, "ABC123", resp.JoinCode)
	assert.Equal(t, "/ws/host/ABC123", resp.WsURL)
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "GET", r.Method)
		require.Equal(t, "/api/sessions/ABC123", r.URL.Path)

		json.NewEncoder(w).Encode(SessionInfo{
			JoinCode:      "ABC123",
			SessionStatus: "lobby",
			PlayerCount:   3,
			QuizTitle:     "Capitals",
			WsURL:         "/ws/player/ABC123",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	info, err := c.GetSession(context.Background(), "ABC123")
	require.NoError(t, err)

	assert.Equal(t, 3, info.PlayerCount)
	assert.Equal(t, "Capitals", info.QuizTitle)
	assert.Equal(t, "/ws/player/ABC123", info.WsURL)
}

func TestGetSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(ErrorResponse{
			Code:    "session_not_found",
			Message: "No active game session found with that code.",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api")
	_, err := c.GetSession(context.Background(), "NOPE")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "session_not_found", apiErr.Code)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
