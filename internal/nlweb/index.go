package nlweb

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	matchWeight = 1.0
	titleBonus  = 0.5
	maxScore    = 1.0
	minWordLen  = 3
)

// Index is an append-only, mutex guarded document store with naive keyword
// scoring. The zero value is not usable; call NewIndex.
type Index struct {
	mu     sync.RWMutex
	docs   []Document
	ids    map[string]struct{}
	logger *logrus.Logger
	now    func() time.Time
}

func NewIndex(logger *logrus.Logger) *Index {
	return &Index{
		docs:   make([]Document, 0, 16),
		ids:    make(map[string]struct{}),
		logger: logger,
		now:    time.Now,
	}
}

// Ingest parses raw content and appends it as a new Document. Structured
// JSON keeps its parsed payload, other JSON is re-encoded into the body and
// anything else is stored verbatim. Re-ingesting the same content creates
// another document.
func (ix *Index) Ingest(raw string, meta Metadata) Document {
	doc := parseContent(raw, meta)

	ix.mu.Lock()
	doc.IngestedAt = ix.now()
	doc.ID = ix.newIDLocked(doc.IngestedAt)
	ix.docs = append(ix.docs, doc)
	ix.ids[doc.ID] = struct{}{}
	total := len(ix.docs)
	ix.mu.Unlock()

	ix.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"title":       doc.Title,
		"payload":     PayloadKind(doc.Payload),
		"body_length": len(doc.Body),
		"total_docs":  total,
	}).Debug("Document ingested")

	return doc
}

func (ix *Index) newIDLocked(at time.Time) string {
	for {
		id := fmt.Sprintf("doc_%d_%s", at.UnixMilli(), utils.GenerateRandomID(9))
		if _, taken := ix.ids[id]; !taken {
			return id
		}
	}
}

// Search scores every document against query and returns the matches in
// descending score order, at most maxResults of them. Equal scores keep
// ingestion order. It never fails; internal faults yield no results.
func (ix *Index) Search(query string, maxResults int) (results []RetrievalResult) {
	defer func() {
		if r := recover(); r != nil {
			ix.logger.WithField("panic", fmt.Sprint(r)).Error("Content index search failed")
			results = []RetrievalResult{}
		}
	}()

	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	words := queryWords(query)
	if len(words) == 0 {
		return []RetrievalResult{}
	}

	docs := ix.snapshot()
	results = make([]RetrievalResult, 0, len(docs))
	for _, doc := range docs {
		if score := scoreDocument(doc, words); score > 0 {
			results = append(results, RetrievalResult{Document: doc, Score: score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

// scoreDocument expects a non-empty word list.
func scoreDocument(doc Document, words []string) float64 {
	title := strings.ToLower(doc.Title)
	text := title + " " + strings.ToLower(doc.Body)

	var raw float64
	for _, w := range words {
		if !strings.Contains(text, w) {
			continue
		}
		raw += matchWeight
		if strings.Contains(title, w) {
			raw += titleBonus
		}
	}

	score := raw / float64(len(words))
	if score > maxScore {
		score = maxScore
	}
	return score
}

// queryWords lower-cases query and keeps whitespace tokens longer than two
// characters. Surrounding punctuation is stripped for matching, so "AI?"
// qualifies and matches "ai".
func queryWords(query string) []string {
	var words []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if len([]rune(tok)) < minWordLen {
			continue
		}
		w := strings.TrimFunc(tok, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

func (ix *Index) snapshot() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.docs[:len(ix.docs):len(ix.docs)]
}

func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.docs)
}

// Documents returns a copy of all documents in ingestion order.
func (ix *Index) Documents() []Document {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]Document, len(ix.docs))
	copy(out, ix.docs)
	return out
}

func (ix *Index) Get(id string) (Document, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	if _, ok := ix.ids[id]; !ok {
		return Document{}, false
	}
	for _, doc := range ix.docs {
		if doc.ID == id {
			return doc, true
		}
	}
	return Document{}, false
}
