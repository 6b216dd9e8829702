package checkout

import (
	"context"
	"errors"
	"strings"
	"sync"

	"bento-order/internal/models"
)

// IdentityProvider resolves the customer placing the order.
type IdentityProvider interface {
	IsAuthenticated(ctx context.Context) bool
	CurrentIdentity(ctx context.Context) (models.Identity, error)
	// TriggerLogin starts an out-of-band login; the current flow is abandoned.
	TriggerLogin(ctx context.Context) error
}

// CachedIdentity resolves the identity once per session and reuses it.
type CachedIdentity struct {
	provider IdentityProvider

	mu       sync.Mutex
	identity *models.Identity
}

// NewCachedIdentity wraps provider.
func NewCachedIdentity(provider IdentityProvider) *CachedIdentity {
	return &CachedIdentity{provider: provider}
}

func (c *CachedIdentity) IsAuthenticated(ctx context.Context) bool {
	c.mu.Lock()
	cached := c.identity != nil
	c.mu.Unlock()
	return cached || c.provider.IsAuthenticated(ctx)
}

func (c *CachedIdentity) CurrentIdentity(ctx context.Context) (models.Identity, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.identity != nil {
		return *c.identity, nil
	}
	identity, err := c.provider.CurrentIdentity(ctx)
	if err != nil {
		return models.Identity{}, err
	}
	c.identity = &identity
	return identity, nil
}

func (c *CachedIdentity) TriggerLogin(ctx context.Context) error {
	c.mu.Lock()
	c.identity = nil
	c.mu.Unlock()
	return c.provider.TriggerLogin(ctx)
}

// StaticIdentity is a provider with a fixed, pre-authenticated customer.
type StaticIdentity struct {
	Identity models.Identity
}

func (s StaticIdentity) IsAuthenticated(context.Context) bool {
	return strings.TrimSpace(s.Identity.UserID) != ""
}

func (s StaticIdentity) CurrentIdentity(context.Context) (models.Identity, error) {
	if strings.TrimSpace(s.Identity.UserID) == "" {
		return models.Identity{}, errors.New("no user id configured")
	}
	return s.Identity, nil
}

func (s StaticIdentity) TriggerLogin(context.Context) error {
	return errors.New("static identity cannot log in")
}
