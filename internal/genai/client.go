package genai

import (
	"context"
	"strings"
	"sync"
	"time"

	ggenai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"sportsquiz-service/internal/domain"
	"sportsquiz-service/internal/logger"
)

const defaultModel = "gemini-1.5-flash"

// Generator calls the Gemini API with a plain text prompt and returns the raw
// response text. The underlying client is built lazily because the SDK needs
// the API key at construction and the key comes from the credential cache.
type Generator struct {
	creds   *CredentialCache
	model   string
	timeout time.Duration
	log     *logger.Logger

	mu     sync.Mutex
	client *ggenai.Client
	gm     *ggenai.GenerativeModel
}

func NewGenerator(creds *CredentialCache, model string, timeout time.Duration, log *logger.Logger) *Generator {
	if model == "" {
		model = defaultModel
	}
	return &Generator{
		creds:   creds,
		model:   model,
		timeout: timeout,
		log:     log.With("component", "gemini"),
	}
}

// GenerateText performs the single blocking external call of the generation
// path. Any SDK fault, timeout, or empty response comes back as a typed
// error; the raw cause is logged, never surfaced.
func (g *Generator) GenerateText(ctx context.Context, prompt string) (string, error) {
	gm, err := g.ensureModel(ctx)
	if err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := gm.GenerateContent(ctx, ggenai.Text(prompt))
	if err != nil {
		g.log.Error("gemini call failed", "model", g.model, "err", err)
		return "", domain.Wrap(domain.KindGenerationFailed, "failed to generate quiz", err)
	}

	text := extractText(resp)
	if strings.TrimSpace(text) == "" {
		g.log.Error("gemini returned no text", "model", g.model)
		return "", domain.E(domain.KindGenerationFailed, "failed to generate quiz")
	}
	return text, nil
}

// Close releases the underlying client if one was ever built.
func (g *Generator) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		_ = g.client.Close()
		g.client = nil
		g.gm = nil
	}
}

func (g *Generator) ensureModel(ctx context.Context) (*ggenai.GenerativeModel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gm != nil {
		return g.gm, nil
	}

	key, err := g.creds.Get(ctx)
	if err != nil {
		return nil, err
	}

	client, err := ggenai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, domain.Wrap(domain.KindGenerationFailed, "failed to generate quiz", err)
	}

	gm := client.GenerativeModel(g.model)
	// Low temperature keeps the output close to the requested JSON contract.
	gm.SetTemperature(0.3)
	gm.SetTopP(0.95)

	g.client = client
	g.gm = gm
	return gm, nil
}

func extractText(resp *ggenai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(ggenai.Text); ok {
				text.WriteString(string(t))
			}
		}
	}
	return text.String()
}
