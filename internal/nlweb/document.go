// Package nlweb is the in-process content index the chat pipeline retrieves
// local context from. Documents live for the lifetime of the process.
package nlweb

import "time"

const DefaultMaxResults = 5

// Payload is the closed set of payload variants a Document can carry.
type Payload interface {
	payloadKind() string
}

// StructuredPayload is kept for content that parsed as a typed JSON object
// (schema.org style, discriminated by "@type").
type StructuredPayload struct {
	Type  string                 `json:"type"`
	Value map[string]interface{} `json:"value"`
}

// PlainText marks content ingested without a structured payload.
type PlainText struct{}

func (StructuredPayload) payloadKind() string { return "structured" }
func (PlainText) payloadKind() string         { return "plain_text" }

// PayloadKind names the variant held by p.
func PayloadKind(p Payload) string {
	if p == nil {
		return PlainText{}.payloadKind()
	}
	return p.payloadKind()
}

type Document struct {
	ID          string
	SourceURL   string
	Title       string
	Body        string
	Description string
	Payload     Payload
	IngestedAt  time.Time
}

// Structured returns the structured payload when the document has one.
func (d Document) Structured() (StructuredPayload, bool) {
	sp, ok := d.Payload.(StructuredPayload)
	return sp, ok
}

// Metadata supplies values the ingested content itself does not carry.
type Metadata struct {
	SourceURL   string
	Title       string
	Description string
}

type RetrievalResult struct {
	Document Document
	Score    float64
}
