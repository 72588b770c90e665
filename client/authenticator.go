package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lborres/abaccess/core"
)

// LocalAuthenticator calls an in-process auth handler.
type LocalAuthenticator struct {
	Handler core.AuthHandler
	Meta    core.RequestMeta
}

var _ core.Authenticator = (*LocalAuthenticator)(nil)

func (l *LocalAuthenticator) AccountExists(ctx context.Context, phone string) (bool, error) {
	return l.Handler.AccountExists(ctx, phone)
}

func (l *LocalAuthenticator) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	return l.Handler.Login(ctx, input, l.Meta)
}

func (l *LocalAuthenticator) Register(ctx context.Context, input core.RegisterInput) (*core.AuthResult, error) {
	return l.Handler.Register(ctx, input, l.Meta)
}

func (l *LocalAuthenticator) SignOut(ctx context.Context, token string) error {
	l.Handler.SignOut(ctx, token)
	return nil
}

// HTTPAuthenticator talks to the JSON API mounted at baseURL (for example
// http://localhost:8080/api/auth).
type HTTPAuthenticator struct {
	baseURL    string
	httpClient *http.Client
}

var _ core.Authenticator = (*HTTPAuthenticator)(nil)

func NewHTTPAuthenticator(baseURL string, httpClient *http.Client) *HTTPAuthenticator {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPAuthenticator{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
	}
}

// apiFailure is an error response whose code names an auth outcome.
type apiFailure struct {
	status int
	body   core.APIError
}

func (e *apiFailure) Error() string {
	return fmt.Sprintf("HTTP %d: %s (%s)", e.status, e.body.Message, e.body.Code)
}

func (h *HTTPAuthenticator) do(ctx context.Context, method, path, token string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return core.Infra(path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return core.Infra(path, fmt.Errorf("failed to read response: %w", err))
	}

	if resp.StatusCode >= 400 {
		var errResp core.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Code != "" && resp.StatusCode < 500 {
			return &apiFailure{status: resp.StatusCode, body: errResp.Error}
		}
		return core.Infra(path, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return core.Infra(path, fmt.Errorf("failed to parse response: %w", err))
		}
	}
	return nil
}

// toResult turns an outcome-coded API failure into a failed AuthResult.
// Anything else is an infrastructure fault.
func toResult(err error) (*core.AuthResult, error) {
	var failure *apiFailure
	if errors.As(err, &failure) {
		if outcome, ok := core.ParseOutcome(failure.body.Code); ok && outcome != core.OutcomeOK {
			return core.Fail(outcome), nil
		}
		return nil, core.Infra("auth", failure)
	}
	return nil, err
}

func (h *HTTPAuthenticator) AccountExists(ctx context.Context, phone string) (bool, error) {
	var out struct {
		Exists bool `json:"exists"`
	}
	err := h.do(ctx, http.MethodPost, "/exists", "", map[string]string{"phone": phone}, &out)
	if err != nil {
		var failure *apiFailure
		if errors.As(err, &failure) {
			return false, core.Infra("/exists", failure)
		}
		return false, err
	}
	return out.Exists, nil
}

func (h *HTTPAuthenticator) Login(ctx context.Context, input core.LoginInput) (*core.AuthResult, error) {
	result := &core.AuthResult{}
	if err := h.do(ctx, http.MethodPost, "/sign-in", "", input, result); err != nil {
		return toResult(err)
	}
	result.Outcome = core.OutcomeOK
	return result, nil
}

func (h *HTTPAuthenticator) Register(ctx context.Context, input core.RegisterInput) (*core.AuthResult, error) {
	result := &core.AuthResult{}
	if err := h.do(ctx, http.MethodPost, "/register", "", input, result); err != nil {
		return toResult(err)
	}
	result.Outcome = core.OutcomeOK
	return result, nil
}

func (h *HTTPAuthenticator) SignOut(ctx context.Context, token string) error {
	return h.do(ctx, http.MethodPost, "/sign-out", token, nil, nil)
}

// Session fetches the current account and session for token.
func (h *HTTPAuthenticator) Session(ctx context.Context, token string) (*core.SessionData, error) {
	var data core.SessionData
	if err := h.do(ctx, http.MethodGet, "/session", token, nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}
