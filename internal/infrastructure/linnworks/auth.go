package linnworks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/orderprofit/backend/internal/domain/integration"
)

// AuthClient exchanges application credentials for a session token.
// It implements integration.Authorizer.
type AuthClient struct {
	config     *Config
	httpClient *http.Client
	now        func() time.Time
}

var _ integration.Authorizer = (*AuthClient)(nil)

// NewAuthClient creates a new auth client. Credentials are checked on each
// call so a server without them can still start.
func NewAuthClient(config *Config) *AuthClient {
	timeout := config.TimeoutSeconds
	if timeout <= 0 {
		timeout = 30
	}
	return &AuthClient{
		config:     config,
		httpClient: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		now:        time.Now,
	}
}

// Authorize calls Auth/AuthorizeByApplication
func (a *AuthClient) Authorize(ctx context.Context) (*integration.Session, error) {
	if err := a.config.ValidateAuth(); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(authorizeRequest{
		ApplicationID:     a.config.ApplicationID,
		ApplicationSecret: a.config.ApplicationSecret,
		Token:             a.config.InstallToken,
	})
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to marshal auth request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.AuthURL, bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("linnworks: failed to read auth response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %w", integration.ErrPlatformAuthFailed, statusError(resp.StatusCode, body))
	}

	var out authorizeResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: %v", integration.ErrPlatformInvalidResponse, err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("%w: response carried no token", integration.ErrPlatformAuthFailed)
	}

	return &integration.Session{
		Token:     out.Token,
		ServerURL: out.Server,
		IssuedAt:  a.now(),
	}, nil
}
