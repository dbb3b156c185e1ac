package genai

import (
	"context"
	"fmt"
	"os"
	"sync"

	"sportsquiz-service/internal/domain"
)

// SecretResolver returns an API credential by name.
type SecretResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// EnvResolver resolves secrets from process environment variables.
type EnvResolver struct{}

func (EnvResolver) Resolve(_ context.Context, name string) (string, error) {
	v := os.Getenv(name)
	if v == "" {
		return "", fmt.Errorf("environment variable %s is empty or unset", name)
	}
	return v, nil
}

// StaticResolver is a fixed name-to-secret map for tests.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(_ context.Context, name string) (string, error) {
	v, ok := r[name]
	if !ok {
		return "", fmt.Errorf("no secret named %s", name)
	}
	return v, nil
}

// CredentialCache memoizes one credential for the process lifetime:
// fetch once, cache forever. Failures are not cached, so a transient
// resolver outage does not poison later requests.
type CredentialCache struct {
	resolver SecretResolver
	name     string

	mu  sync.Mutex
	key string
}

func NewCredentialCache(resolver SecretResolver, name string) *CredentialCache {
	return &CredentialCache{resolver: resolver, name: name}
}

// Get returns the cached credential, resolving it on first use.
func (c *CredentialCache) Get(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.key != "" {
		return c.key, nil
	}
	key, err := c.resolver.Resolve(ctx, c.name)
	if err != nil {
		return "", domain.Wrap(domain.KindCredentialUnavailable, "generation credential unavailable", err)
	}
	c.key = key
	return key, nil
}
