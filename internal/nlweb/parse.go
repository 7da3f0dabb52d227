package nlweb

import (
	"encoding/json"
	"strings"
)

const untitled = "Untitled"

var (
	titleFields = []string{"name", "headline", "title"}
	bodyFields  = []string{"articleBody", "text", "description"}
)

// parseContent turns raw content into an unsaved Document. It never fails:
// anything that is not JSON is kept verbatim as plain text.
func parseContent(raw string, meta Metadata) Document {
	doc := Document{Payload: PlainText{}}

	var parsed interface{}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		doc.Body = raw
		return withMetadata(doc, meta)
	}

	if obj, ok := parsed.(map[string]interface{}); ok {
		if typ := schemaType(obj["@type"]); typ != "" {
			doc.Title = firstString(obj, titleFields...)
			doc.Description = stringField(obj, "description")
			doc.Body = firstString(obj, bodyFields...)
			doc.SourceURL = stringField(obj, "url")
			doc.Payload = StructuredPayload{Type: typ, Value: obj}
			return withMetadata(doc, meta)
		}
	}

	encoded, err := json.Marshal(parsed)
	if err != nil {
		doc.Body = raw
	} else {
		doc.Body = string(encoded)
	}
	return withMetadata(doc, meta)
}

func withMetadata(doc Document, meta Metadata) Document {
	if doc.SourceURL == "" {
		doc.SourceURL = meta.SourceURL
	}
	if doc.Title == "" {
		doc.Title = meta.Title
	}
	if doc.Description == "" {
		doc.Description = meta.Description
	}
	if strings.TrimSpace(doc.Title) == "" {
		doc.Title = untitled
	}
	return doc
}

// schemaType accepts both "@type": "Article" and "@type": ["Article", ...].
func schemaType(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []interface{}:
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func stringField(obj map[string]interface{}, key string) string {
	s, _ := obj[key].(string)
	return strings.TrimSpace(s)
}

func firstString(obj map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if s := stringField(obj, key); s != "" {
			return s
		}
	}
	return ""
}
