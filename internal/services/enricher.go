package services

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Ayash-Bera/nlchat/internal/nlweb"
	"github.com/sirupsen/logrus"
)

const (
	// EnrichmentResultCap bounds how many documents are appended to a question.
	EnrichmentResultCap = 3
	contextHeader       = "\n\nRelevant context from the local knowledge base:\n"
	snippetFallbackLen  = 200
	snippetEllipsis     = "..."
)

// Searcher is the part of the content index the enricher needs.
type Searcher interface {
	Search(query string, maxResults int) []nlweb.RetrievalResult
}

// Source is a document that contributed context to an answer.
type Source struct {
	ID    string  `json:"id"`
	Title string  `json:"title"`
	URL   string  `json:"url,omitempty"`
	Score float64 `json:"score"`
}

type Enrichment struct {
	Text    string
	Sources []Source
}

type Enricher struct {
	index  Searcher
	logger *logrus.Logger
}

func NewEnricher(index Searcher, logger *logrus.Logger) *Enricher {
	return &Enricher{
		index:  index,
		logger: logger,
	}
}

// Enrich appends matching snippets from the index to question. It never
// fails: any problem leaves the question unchanged.
func (e *Enricher) Enrich(question string) (out Enrichment) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("panic", r).Warn("Context enrichment failed, using original question")
			out = Enrichment{Text: question}
		}
	}()

	results := e.index.Search(question, EnrichmentResultCap)
	if len(results) == 0 {
		e.logger.Debug("No local context found for question")
		return Enrichment{Text: question}
	}

	var b strings.Builder
	b.WriteString(question)
	b.WriteString(contextHeader)

	sources := make([]Source, 0, len(results))
	for i, r := range results {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(r.Document.Title)
		b.WriteString(": ")
		b.WriteString(Snippet(r.Document.Body, question))

		sources = append(sources, Source{
			ID:    r.Document.ID,
			Title: r.Document.Title,
			URL:   r.Document.SourceURL,
			Score: r.Score,
		})
	}

	e.logger.WithField("sources", len(sources)).Debug("Question enriched with local context")
	return Enrichment{Text: b.String(), Sources: sources}
}

// Snippet picks the first sentence of body mentioning the query's first
// word, or else the start of body. The result always ends in an ellipsis.
func Snippet(body, query string) string {
	if first := firstWord(query); first != "" {
		sentences := strings.FieldsFunc(body, func(r rune) bool {
			return r == '.' || r == '!' || r == '?'
		})
		for _, s := range sentences {
			s = strings.TrimSpace(s)
			if s != "" && strings.Contains(strings.ToLower(s), first) {
				return s + snippetEllipsis
			}
		}
	}

	if utf8.RuneCountInString(body) > snippetFallbackLen {
		body = string([]rune(body)[:snippetFallbackLen])
	}
	return body + snippetEllipsis
}

func firstWord(query string) string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return ""
	}
	return strings.TrimFunc(fields[0], func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}
