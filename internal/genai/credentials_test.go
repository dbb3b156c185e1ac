package genai

import (
	"context"
	"errors"
	"testing"

	"sportsquiz-service/internal/domain"
)

// flakyResolver fails the first n calls, then succeeds.
type flakyResolver struct {
	failures int
	calls    int
	secret   string
}

func (r *flakyResolver) Resolve(context.Context, string) (string, error) {
	r.calls++
	if r.calls <= r.failures {
		return "", errors.New("resolver unavailable")
	}
	return r.secret, nil
}

func TestCredentialCacheResolvesOnce(t *testing.T) {
	resolver := &flakyResolver{secret: "api-key"}
	cache := NewCredentialCache(resolver, "GEMINI_API_KEY")

	for i := 0; i < 3; i++ {
		key, err := cache.Get(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if key != "api-key" {
			t.Fatalf("expected api-key, got %q", key)
		}
	}
	if resolver.calls != 1 {
		t.Fatalf("expected a single resolution, got %d", resolver.calls)
	}
}

func TestCredentialCacheDoesNotCacheFailures(t *testing.T) {
	resolver := &flakyResolver{failures: 1, secret: "api-key"}
	cache := NewCredentialCache(resolver, "GEMINI_API_KEY")

	_, err := cache.Get(context.Background())
	if !domain.IsKind(err, domain.KindCredentialUnavailable) {
		t.Fatalf("expected credential_unavailable, got %v", err)
	}

	key, err := cache.Get(context.Background())
	if err != nil {
		t.Fatalf("retry after transient failure must succeed: %v", err)
	}
	if key != "api-key" {
		t.Fatalf("expected api-key, got %q", key)
	}
	if resolver.calls != 2 {
		t.Fatalf("expected 2 resolver calls, got %d", resolver.calls)
	}
}

func TestStaticResolver(t *testing.T) {
	r := StaticResolver{"NAME": "value"}

	v, err := r.Resolve(context.Background(), "NAME")
	if err != nil || v != "value" {
		t.Fatalf("unexpected result: %q, %v", v, err)
	}
	if _, err := r.Resolve(context.Background(), "OTHER"); err == nil {
		t.Fatalf("expected error for unknown name")
	}
}

func TestEnvResolver(t *testing.T) {
	t.Setenv("QUIZ_TEST_SECRET", "from-env")
	v, err := EnvResolver{}.Resolve(context.Background(), "QUIZ_TEST_SECRET")
	if err != nil || v != "from-env" {
		t.Fatalf("unexpected result: %q, %v", v, err)
	}

	t.Setenv("QUIZ_TEST_SECRET", "")
	if _, err := (EnvResolver{}).Resolve(context.Background(), "QUIZ_TEST_SECRET"); err == nil {
		t.Fatalf("expected error for empty variable")
	}
}
