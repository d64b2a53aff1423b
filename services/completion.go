package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Completer sends one prompt to a language model and returns its reply text
// untouched.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError is a non-2xx answer from a completion endpoint.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion api error (%d): %s", e.Code, e.Message)
}

// Transient reports whether retrying could help.
func (e *StatusError) Transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// OpenAICompleter talks to an OpenAI-compatible chat/completions endpoint.
type OpenAICompleter struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAICompleter(baseURL, apiKey, model string) *OpenAICompleter {
	return &OpenAICompleter{
		client:  &http.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
	}
}

func (o *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if o.apiKey == "" {
		return "", errors.New("OPENAI_API_KEY not set")
	}

	body, _ := json.Marshal(map[string]any{
		"model": o.model,
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+o.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request error: %w", err)
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response error: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		msg := string(respBytes)
		if json.Unmarshal(respBytes, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		return "", &StatusError{Code: resp.StatusCode, Message: msg}
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBytes, &out); err != nil {
		return "", fmt.Errorf("decode completion envelope: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("no choices in completion response")
	}
	return out.Choices[0].Message.Content, nil
}

// RetryingCompleter bounds each attempt with a timeout and retries once when
// the first failure looks transient.
type RetryingCompleter struct {
	next    Completer
	timeout time.Duration
	backoff time.Duration
}

func NewRetryingCompleter(next Completer, timeout time.Duration) *RetryingCompleter {
	return &RetryingCompleter{next: next, timeout: timeout, backoff: 500 * time.Millisecond}
}

func (r *RetryingCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	out, err := r.attempt(ctx, prompt)
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return out, err
	}
	log.Printf("completion attempt failed, retrying once: %v", err)

	select {
	case <-time.After(r.backoff):
	case <-ctx.Done():
		return "", ctx.Err()
	}
	return r.attempt(ctx, prompt)
}

func (r *RetryingCompleter) attempt(ctx context.Context, prompt string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.next.Complete(ctx, prompt)
}

func isTransient(err error) bool {
	var t interface{ Transient() bool }
	if errors.As(err, &t) {
		return t.Transient()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	// Vertex reports overload and throttling as gRPC statuses.
	switch status.Code(err) {
	case codes.Unavailable, codes.ResourceExhausted, codes.DeadlineExceeded:
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
