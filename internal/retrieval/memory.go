package retrieval

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/legal-consult-agent/server/internal/agent/model"
)

// MemoryRetriever is a keyword-overlap retriever over an in-process document
// set. It exists so the demo driver and tests can run without a vector
// index; production deployments wrap a real index via EinoRetriever.
type MemoryRetriever struct {
	mu   sync.RWMutex
	docs []model.Document
	topK int
}

func NewMemoryRetriever(topK int, docs ...model.Document) *MemoryRetriever {
	if topK <= 0 {
		topK = 4
	}
	return &MemoryRetriever{docs: docs, topK: topK}
}

// Add appends documents to the retriever's store.
func (m *MemoryRetriever) Add(docs ...model.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs = append(m.docs, docs...)
}

// Retrieve scores documents by token overlap with the query and returns the
// top-k matches in descending score order. Zero-overlap documents are dropped.
func (m *MemoryRetriever) Retrieve(ctx context.Context, query string) ([]model.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	terms := tokenize(query)
	if len(terms) == 0 {
		return nil, nil
	}

	scored := make([]model.Document, 0, len(m.docs))
	for _, d := range m.docs {
		score := overlap(terms, tokenize(d.Title+" "+d.Content))
		if score == 0 {
			continue
		}
		d.RelevanceScore = score
		scored = append(scored, d)
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	if len(scored) > m.topK {
		scored = scored[:m.topK]
	}
	return scored, nil
}

func tokenize(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range strings.Fields(strings.ToLower(s)) {
		t = strings.Trim(t, ".,;:!?\"'()")
		if len(t) > 1 {
			out[t] = struct{}{}
		}
	}
	return out
}

func overlap(query, doc map[string]struct{}) float64 {
	if len(query) == 0 {
		return 0
	}
	hits := 0
	for t := range query {
		if _, ok := doc[t]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(query))
}

var _ TopicRetriever = (*MemoryRetriever)(nil)
