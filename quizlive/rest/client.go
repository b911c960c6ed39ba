package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client provides access to the session-setup REST API. The WebSocket
// URLs it returns are handed to the quizlive client verbatim; this
// package does not construct addresses.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// APIError is a structured error response from the API. For quiz-file
// validation failures, Messages carries the per-line problems.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Messages   []ValidationMessage
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s: %s", e.StatusCode, e.Code, e.Message)
}

// NewClient creates a new REST API client.
// baseURL should be the base URL of the API, e.g. "http://localhost:3000/api".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient allows setting a custom HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	if client != nil {
		c.httpClient = client
	}
}

// UploadQuiz uploads a quiz file and returns the parsed preview.
// filename is used as the multipart file name; r supplies the file
// contents.
func (c *Client) UploadQuiz(ctx context.Context, filename string, r io.Reader) (*QuizPreview, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("quiz_file", filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy quiz file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/quiz", &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var resp QuizPreview
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateSession creates a game session for a previously uploaded quiz
// and returns the join code plus the host WebSocket path.
func (c *Client) CreateSession(ctx context.Context, quizID string) (*CreateSessionResponse, error) {
	var resp CreateSessionResponse
	if err := c.post(ctx, "/sessions", CreateSessionRequest{QuizID: quizID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetSession looks up a session by its join code. Players call this
// before connecting to learn the quiz title and the WebSocket path.
func (c *Client) GetSession(ctx context.Context, joinCode string) (*SessionInfo, error) {
	var resp SessionInfo
	if err := c.get(ctx, "/sessions/"+joinCode, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Helper methods

func (c *Client) post(ctx context.Context, path string, body, dest any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.do(req, dest)
}

func (c *Client) get(ctx context.Context, path string, dest any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	return c.do(req, dest)
}

func (c *Client) do(req *http.Request, dest any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Code != "" {
			return &APIError{
				StatusCode: resp.StatusCode,
				Code:       errResp.Code,
				Message:    errResp.Message,
				Messages:   errResp.Messages,
			}
		}
		return fmt.Errorf("http error: %s (status %d)", string(body), resp.StatusCode)
	}

	if dest != nil {
		if err := json.Unmarshal(body, dest); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
