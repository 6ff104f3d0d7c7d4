// Package api is the HTTP transport for the negotiation backend.
//
// Each operation is a single request/response exchange keyed by the session
// token. The transport performs no retries and no queuing; every call either
// succeeds, returns an application-level *APIError, or fails with a transport
// error, and the caller decides recovery. An application error is a rejection
// the backend reports inside a 200 response body (an "error" field); a
// transport error is connectivity, a non-200 status, or an unparseable body.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/buildmart/haggle/internal/domain"
	"github.com/buildmart/haggle/internal/logging"
)

// APIError is an application-level rejection carried in a response body,
// distinct from a transport failure. Callers branch with errors.As.
type APIError struct {
	Message string
}

func (e *APIError) Error() string { return e.Message }

// Backend is the subset of the transport the conversation controller drives.
type Backend interface {
	// Start begins or resumes the session's conversation and returns the
	// current transcript snapshot. Safe to re-invoke; the backend resumes.
	Start(ctx context.Context, token string) (*domain.Snapshot, error)

	// SendMessage submits one user turn and returns the backend's snapshot.
	SendMessage(ctx context.Context, token, message string) (*domain.Snapshot, error)

	// StartNew discards the backend-side conversation for this session.
	// The acknowledgment body is ignored; a fresh Start obtains the new state.
	StartNew(ctx context.Context, token string) error
}

// Client is a direct HTTP client for the negotiation backend.
type Client struct {
	baseURL string
	client  *http.Client
	log     *logging.Logger
}

// New creates a backend client for the given base URL.
func New(baseURL string, timeout time.Duration, log *logging.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.Sub("api"),
	}
}

// Login authenticates a builder and returns the issued session.
func (c *Client) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	body, err := c.post(ctx, "/api/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	var result loginResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = "login rejected"
		}
		return nil, &APIError{Message: msg}
	}

	return &domain.Session{Token: result.SessionToken, BuilderName: result.BuilderName}, nil
}

// Start begins or resumes the conversation for the session token.
func (c *Client) Start(ctx context.Context, token string) (*domain.Snapshot, error) {
	body, err := c.post(ctx, "/api/chat/start", sessionRequest{SessionToken: token})
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// SendMessage submits one user turn. A non-empty "error" field in the
// response surfaces as *APIError.
func (c *Client) SendMessage(ctx context.Context, token, message string) (*domain.Snapshot, error) {
	body, err := c.post(ctx, "/api/chat", chatRequest{Message: message, SessionToken: token})
	if err != nil {
		return nil, err
	}
	return decodeSnapshot(body)
}

// StartNew discards the backend-side conversation. The response body is
// ignored.
func (c *Client) StartNew(ctx context.Context, token string) error {
	_, err := c.post(ctx, "/api/chat/start-new", sessionRequest{SessionToken: token})
	return err
}

// post performs one JSON POST and returns the raw 200 body.
func (c *Client) post(ctx context.Context, path string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, strings.NewReader(string(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	c.log.Debug().Str("path", path).Msg("POST")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	return respBody, nil
}

func decodeSnapshot(body []byte) (*domain.Snapshot, error) {
	var result chatResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if result.Error != "" {
		return nil, &APIError{Message: result.Error}
	}
	return &domain.Snapshot{Turns: result.Chat, Ended: result.ConversationEnded}, nil
}

// Wire structures

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success      bool   `json:"success"`
	SessionToken string `json:"session_token,omitempty"`
	BuilderName  string `json:"builder_name,omitempty"`
	Error        string `json:"error,omitempty"`
}

type sessionRequest struct {
	SessionToken string `json:"session_token"`
}

type chatRequest struct {
	Message      string `json:"message"`
	SessionToken string `json:"session_token"`
}

type chatResponse struct {
	Chat              []domain.Turn `json:"chat"`
	ConversationEnded bool          `json:"conversation_ended"`
	Error             string        `json:"error,omitempty"`
}
