package integration

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/orderprofit/backend/internal/domain/integration"
	"github.com/orderprofit/backend/internal/domain/shared"
)

// DefaultSessionTTL is how long an upstream session token is reused
const DefaultSessionTTL = 25 * time.Minute

// CredentialProvider hands out an upstream session token for server-side
// runs, authorizing once and reusing the session until it expires.
type CredentialProvider struct {
	authorizer integration.Authorizer
	ttl        time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	session *integration.Session
}

// NewCredentialProvider creates a provider. authorizer may be nil when no
// application credentials are configured; Token then returns ErrServiceUnavailable.
func NewCredentialProvider(authorizer integration.Authorizer, ttl time.Duration, zapLogger *zap.Logger) *CredentialProvider {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &CredentialProvider{
		authorizer: authorizer,
		ttl:        ttl,
		logger:     zapLogger.Named("credentials"),
		now:        time.Now,
	}
}

// Token returns a valid session token, authorizing when none is cached
func (p *CredentialProvider) Token(ctx context.Context) (string, error) {
	s, err := p.Session(ctx)
	if err != nil {
		return "", err
	}
	return s.Token, nil
}

// Session returns the cached session or authorizes a new one.
// Concurrent callers share a single authorization.
func (p *CredentialProvider) Session(ctx context.Context) (*integration.Session, error) {
	if p.authorizer == nil {
		return nil, fmt.Errorf("%w: upstream application credentials are not configured", shared.ErrServiceUnavailable)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.session != nil && p.now().Before(p.session.IssuedAt.Add(p.ttl)) {
		return p.session, nil
	}

	session, err := p.authorizer.Authorize(ctx)
	if err != nil {
		return nil, err
	}
	if session.IssuedAt.IsZero() {
		session.IssuedAt = p.now()
	}
	p.session = session
	p.logger.Info("Upstream session authorized", zap.String("server", session.ServerURL))
	return session, nil
}

// Invalidate drops the cached session so the next call re-authorizes
func (p *CredentialProvider) Invalidate() {
	p.mu.Lock()
	p.session = nil
	p.mu.Unlock()
}
