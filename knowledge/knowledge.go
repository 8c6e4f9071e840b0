// Package knowledge supplies the reference text appended to the system prompt.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creastat/assistant/vectorstore"
)

// Source returns knowledge text relevant to query. An empty string means none.
type Source interface {
	Knowledge(ctx context.Context, query string) (string, error)
}

// Static is a fixed knowledge text, as configured on the widget.
type Static string

// Knowledge implements Source.
func (s Static) Knowledge(ctx context.Context, query string) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

// EmbedFunc turns a query into a vector for similarity search.
type EmbedFunc func(ctx context.Context, text string) ([]float32, error)

// VectorSource pulls knowledge chunks from a vector store. With Embed set, the
// chunks most similar to the query are used; otherwise the first Limit chunks
// matching Filter are used.
type VectorSource struct {
	Store  vectorstore.VectorStore
	Embed  EmbedFunc
	Filter vectorstore.SearchFilter
	Limit  int
}

const defaultLimit = 5

// Knowledge implements Source.
func (v *VectorSource) Knowledge(ctx context.Context, query string) (string, error) {
	limit := v.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	var (
		results []vectorstore.SearchResult
		err     error
	)
	if v.Embed != nil && strings.TrimSpace(query) != "" {
		vector, embedErr := v.Embed(ctx, query)
		if embedErr != nil {
			return "", fmt.Errorf("embed query: %w", embedErr)
		}
		results, err = v.Store.Search(ctx, vector, v.Filter, limit)
	} else {
		results, err = v.Store.Fetch(ctx, v.Filter, limit)
	}
	if err != nil {
		return "", err
	}

	chunks := make([]string, 0, len(results))
	for _, r := range results {
		if c := strings.TrimSpace(r.Content); c != "" {
			chunks = append(chunks, c)
		}
	}
	return strings.Join(chunks, "\n\n"), nil
}

// Multi concatenates the knowledge of several sources, skipping empty ones.
type Multi []Source

// Knowledge implements Source. A failing source is skipped; the text of the
// others is still returned alongside the joined errors.
func (m Multi) Knowledge(ctx context.Context, query string) (string, error) {
	var (
		parts []string
		errs  []error
	)
	for _, s := range m {
		text, err := s.Knowledge(ctx, query)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n"), errors.Join(errs...)
}
