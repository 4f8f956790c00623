// Package embed implements the pluggable embedder the indexing pipeline
// calls during its embed stage (spec §4.5: "an embed stage (batched, may
// call an external embedder) produces vectors"). Provider selection
// follows the provider-string idiom the pack's josephgoksu-TaskWing repo
// uses for its own LLM/embedding config (internal/config/llm_loader.go's
// "provider:model" parsing): a Config names a provider and model, New
// resolves it to a concrete Provider.
package embed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Provider computes an embedding vector for a piece of text. Dimension
// reports the fixed width every call returns (spec §4.6's IVFFlatIndex
// requires every vector to share dimension D).
type Provider interface {
	Name() string
	Dimension() int
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Config selects and parameterizes a Provider.
type Config struct {
	Model     string // "default" selects the local provider; anything else is an HTTP endpoint name
	Dimension int
	Endpoint  string        // required for non-"default" models
	Timeout   time.Duration // per-request timeout, spec §5
}

// New resolves cfg to a Provider. "default" (or an empty model) always
// resolves to the local deterministic provider so indexing works without
// any network dependency; any other model name resolves to an HTTP
// embedder calling cfg.Endpoint.
func New(cfg Config) Provider {
	if cfg.Model == "" || cfg.Model == "default" {
		return NewLocalProvider(cfg.Dimension)
	}
	return NewHTTPProvider(cfg.Endpoint, cfg.Model, cfg.Dimension, cfg.Timeout)
}

// LocalProvider derives a deterministic embedding from repeated xxhash
// digests of the input text, seeded per dimension slot. It never calls
// out to the network, so indexing and its tests never depend on an
// external model being reachable; this is the "default" embedder model.
type LocalProvider struct {
	dim int
}

func NewLocalProvider(dim int) *LocalProvider {
	if dim <= 0 {
		dim = 384
	}
	return &LocalProvider{dim: dim}
}

func (p *LocalProvider) Name() string   { return "default" }
func (p *LocalProvider) Dimension() int { return p.dim }

// Embed hashes text once per output slot (slot index folded into the
// hash input so slots are independent) and maps the digest into
// [-1, 1], then L2-normalizes the result — IVFFlatIndex's cosine
// distance expects normalized vectors (spec §4.6).
func (p *LocalProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	out := make([]float32, p.dim)
	var sumSq float64
	for i := range out {
		h := xxhash.New()
		_, _ = h.WriteString(text)
		_, _ = h.Write([]byte{byte(i), byte(i >> 8)})
		digest := h.Sum64()
		// top 24 bits -> [-1, 1]
		v := float32(digest>>40&0xFFFFFF)/float32(0xFFFFFF)*2 - 1
		out[i] = v
		sumSq += float64(v) * float64(v)
	}
	if sumSq > 0 {
		norm := float32(1 / sqrt(sumSq))
		for i := range out {
			out[i] *= norm
		}
	}
	return out, nil
}

func sqrt(x float64) float64 {
	if x == 0 {
		return 0
	}
	z := x
	for i := 0; i < 32; i++ {
		z -= (z*z - x) / (2 * z)
	}
	return z
}

// HTTPProvider calls an OpenAI-compatible `/embeddings` endpoint. This is
// the "external embedder" path spec §4.5/§5 describe: per-request
// timeout, single retry on timeout handled by the pipeline's embed stage
// rather than here (this provider is deliberately a thin, retry-free
// transport so the pipeline's retry-once-then-skip policy stays in one
// place).
type HTTPProvider struct {
	endpoint string
	model    string
	dim      int
	client   *http.Client
}

func NewHTTPProvider(endpoint, model string, dim int, timeout time.Duration) *HTTPProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProvider{
		endpoint: strings.TrimRight(endpoint, "/"),
		model:    model,
		dim:      dim,
		client:   &http.Client{Timeout: timeout},
	}
}

func (p *HTTPProvider) Name() string   { return p.model }
func (p *HTTPProvider) Dimension() int { return p.dim }

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embed: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint+"/embeddings", strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("embed: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embed: request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embed: provider returned status %d", resp.StatusCode)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embed: decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return nil, fmt.Errorf("embed: empty response")
	}
	return parsed.Data[0].Embedding, nil
}
