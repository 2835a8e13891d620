package retrieval

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/retriever"
	"github.com/cloudwego/eino/schema"

	"github.com/legal-consult-agent/server/internal/agent/model"
)

// Metadata keys expected on eino documents produced by the ingestion side.
const (
	metaTitle    = "title"
	metaCategory = "category"
	metaTags     = "tags"
)

// EinoRetriever adapts an eino retriever (vector store, keyword index, ...)
// to the TopicRetriever interface, mapping schema.Document records into the
// pipeline's document type.
type EinoRetriever struct {
	inner retriever.Retriever
}

func NewEinoRetriever(inner retriever.Retriever) (*EinoRetriever, error) {
	if inner == nil {
		return nil, fmt.Errorf("eino retriever is nil")
	}
	return &EinoRetriever{inner: inner}, nil
}

func (e *EinoRetriever) Retrieve(ctx context.Context, query string) ([]model.Document, error) {
	docs, err := e.inner.Retrieve(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("eino retrieve: %w", err)
	}

	out := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if d == nil {
			continue
		}
		out = append(out, fromSchemaDocument(d))
	}
	return out, nil
}

func fromSchemaDocument(d *schema.Document) model.Document {
	doc := model.Document{
		ID:             d.ID,
		Content:        d.Content,
		RelevanceScore: d.Score(),
	}
	if v, ok := d.MetaData[metaTitle].(string); ok {
		doc.Title = v
	}
	if v, ok := d.MetaData[metaCategory].(string); ok {
		doc.Category = v
	}
	switch tags := d.MetaData[metaTags].(type) {
	case []string:
		doc.Tags = tags
	case []any:
		for _, t := range tags {
			if s, ok := t.(string); ok {
				doc.Tags = append(doc.Tags, s)
			}
		}
	}
	return doc
}

var _ TopicRetriever = (*EinoRetriever)(nil)
