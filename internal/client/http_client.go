// Package client drives a timed quiz from the participant's side: an HTTP client for
// the REST surface and a presenter that owns the local countdown.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"timed-quiz-service/internal/api"
	"timed-quiz-service/internal/domain"
)

// API is the subset of the server the presenter talks to.
type API interface {
	Start(ctx context.Context, quizID string) (api.StartResponse, error)
	Status(ctx context.Context, quizID string) (api.StatusResponse, error)
	Submit(ctx context.Context, quizID string, req api.SubmitRequest) (api.SubmitResponse, error)
}

// StatusError is a non-2xx reply. It unwraps to the matching domain error so callers
// can use errors.Is(err, domain.ErrStaleSubmission).
type StatusError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned %d %s: %s", e.StatusCode, e.Code, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Code {
	case api.CodeStaleSubmission:
		return domain.ErrStaleSubmission
	case api.CodeSessionCompleted:
		return domain.ErrSessionCompleted
	case api.CodeQuizNotAvailable:
		return domain.ErrQuizNotAvailable
	case api.CodeInvalidOption:
		return domain.ErrInvalidOption
	case api.CodeForbidden:
		return domain.ErrForbidden
	}
	return nil
}

// HTTPClient calls the REST endpoints with a bearer token.
type HTTPClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) Start(ctx context.Context, quizID string) (api.StartResponse, error) {
	var out api.StartResponse
	err := c.do(ctx, http.MethodPost, "/quizzes/"+quizID+"/start-timed", nil, &out)
	return out, err
}

func (c *HTTPClient) Status(ctx context.Context, quizID string) (api.StatusResponse, error) {
	var out api.StatusResponse
	err := c.do(ctx, http.MethodGet, "/quizzes/"+quizID+"/session-status", nil, &out)
	return out, err
}

func (c *HTTPClient) Submit(ctx context.Context, quizID string, req api.SubmitRequest) (api.SubmitResponse, error) {
	var out api.SubmitResponse
	err := c.do(ctx, http.MethodPost, "/quizzes/"+quizID+"/submit-timed-answer", req, &out)
	return out, err
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		var apiErr api.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return &StatusError{StatusCode: resp.StatusCode, Code: apiErr.Error.Code, Message: apiErr.Error.Message}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
