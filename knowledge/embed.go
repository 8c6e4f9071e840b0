package knowledge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/creastat/assistant/internal/httpclient"
)

const maxEmbedResponseBytes = 8 << 20

// ErrNoEmbedding is returned when the embeddings endpoint answers without a vector.
var ErrNoEmbedding = errors.New("embedding response has no vector")

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// HTTPEmbedder returns an EmbedFunc that posts to an OpenAI-compatible
// embeddings endpoint. An empty key sends no Authorization header. A nil client
// uses the shared defaults.
func HTTPEmbedder(url, key, model string, client *http.Client) EmbedFunc {
	if client == nil {
		client = httpclient.New()
	}

	return func(ctx context.Context, text string) ([]float32, error) {
		body, err := json.Marshal(embedRequest{Model: model, Input: text})
		if err != nil {
			return nil, fmt.Errorf("encode embedding request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build embedding request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if key != "" {
			req.Header.Set("Authorization", "Bearer "+key)
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("embedding request: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxEmbedResponseBytes))
		if err != nil {
			return nil, fmt.Errorf("read embedding response: %w", err)
		}

		var out embedResponse
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decode embedding response (status %d): %w", resp.StatusCode, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			if out.Error != nil && out.Error.Message != "" {
				return nil, fmt.Errorf("embedding request failed: %d: %s", resp.StatusCode, out.Error.Message)
			}
			return nil, fmt.Errorf("embedding request failed: %d", resp.StatusCode)
		}
		if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
			return nil, ErrNoEmbedding
		}
		return out.Data[0].Embedding, nil
	}
}
