package models

import (
	"encoding/json"
	"time"
)

// ChatRequest keeps question and context untyped so the validator sees
// exactly what the client sent.
type ChatRequest struct {
	Question interface{} `json:"question"`
	Context  interface{} `json:"context,omitempty"`
}

type IngestRequest struct {
	Content     json.RawMessage `json:"content" binding:"required"`
	URL         string          `json:"url"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
}

type IngestURLRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type DocumentView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type"`
	SchemaType  string    `json:"schema_type,omitempty"`
	Body        string    `json:"body,omitempty"`
	IngestedAt  time.Time `json:"ingested_at"`
}

type SearchResultView struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

type SearchResponse struct {
	Query        string             `json:"query"`
	Results      []SearchResultView `json:"results"`
	Total        int                `json:"total"`
	Cached       bool               `json:"cached"`
	ResponseTime int64              `json:"response_time_ms"`
}

type FeedbackRequest struct {
	QueryID      string `json:"query_id" binding:"required"`
	FeedbackType string `json:"feedback_type" binding:"required,oneof=helpful not_helpful partially_helpful"`
	FeedbackText string `json:"feedback_text" binding:"max=2000"`
	SessionID    string `json:"session_id" binding:"max=128"`
}

type HealthResponse struct {
	Status               string `json:"status"`
	IndexedDocumentCount int    `json:"indexed_document_count"`
	Timestamp            string `json:"timestamp"`
}

type ServiceStatus struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type ServicesHealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services"`
}
