package model

// Document is one retrieved knowledge-base record. It is owned by the topic
// retriever's store; the pipeline only reads it.
type Document struct {
	ID             string   `json:"id"`
	Title          string   `json:"title"`
	Content        string   `json:"content"`
	Category       string   `json:"category"`
	Tags           []string `json:"tags,omitempty"`
	RelevanceScore float64  `json:"relevance_score"`
}
