package nlweb

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndex() *Index {
	logger, _ := test.NewNullLogger()
	return NewIndex(logger)
}

func TestIngest_Structured(t *testing.T) {
	ix := newTestIndex()

	doc := ix.Ingest(`{"@type":"Article","name":"Test","description":"AI is useful.","url":"https://x"}`, Metadata{})

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Test", doc.Title)
	assert.Equal(t, "AI is useful.", doc.Description)
	assert.Equal(t, "AI is useful.", doc.Body)
	assert.Equal(t, "https://x", doc.SourceURL)

	sp, ok := doc.Structured()
	require.True(t, ok)
	assert.Equal(t, "Article", sp.Type)
	assert.Equal(t, "Test", sp.Value["name"])
	assert.Equal(t, "structured", PayloadKind(doc.Payload))
}

func TestIngest_StructuredPrefersArticleBodyAndTypeLists(t *testing.T) {
	ix := newTestIndex()

	doc := ix.Ingest(`{"@type":["NewsArticle","Article"],"headline":"Launch","description":"short","articleBody":"The long body."}`, Metadata{SourceURL: "https://meta"})

	sp, ok := doc.Structured()
	require.True(t, ok)
	assert.Equal(t, "NewsArticle", sp.Type)
	assert.Equal(t, "Launch", doc.Title)
	assert.Equal(t, "The long body.", doc.Body)
	assert.Equal(t, "https://meta", doc.SourceURL)
}

func TestIngest_JSONWithoutType(t *testing.T) {
	ix := newTestIndex()

	doc := ix.Ingest(`{ "b": 2, "a": [1, 2] }`, Metadata{Title: "Numbers"})

	assert.Equal(t, `{"a":[1,2],"b":2}`, doc.Body)
	assert.Equal(t, "Numbers", doc.Title)
	_, ok := doc.Structured()
	assert.False(t, ok)
	assert.Equal(t, "plain_text", PayloadKind(doc.Payload))
}

func TestIngest_MalformedFallsBackToPlainText(t *testing.T) {
	ix := newTestIndex()

	raw := `{"@type": "Article", "name": broken`
	doc := ix.Ingest(raw, Metadata{})

	assert.Equal(t, raw, doc.Body)
	assert.Equal(t, "Untitled", doc.Title)
	assert.IsType(t, PlainText{}, doc.Payload)
}

func TestIngest_NeverDeduplicates(t *testing.T) {
	ix := newTestIndex()

	a := ix.Ingest("same content", Metadata{})
	b := ix.Ingest("same content", Metadata{})

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, ix.Count())
	assert.True(t, strings.HasPrefix(a.ID, "doc_"))
}

func TestSearch_TitleWordMatches(t *testing.T) {
	ix := newTestIndex()
	ix.Ingest("Unrelated body about cooking pasta.", Metadata{Title: "Kitchen"})
	target := ix.Ingest("Gophers are small rodents.", Metadata{Title: "Gopher Facts"})

	results := ix.Search("tell me gopher facts", 5)

	require.NotEmpty(t, results)
	assert.Equal(t, target.ID, results[0].Document.ID)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearch_Scoring(t *testing.T) {
	ix := newTestIndex()
	ix.Ingest("golang concurrency patterns", Metadata{Title: "Go"})

	// "golang" in body only (+1), "patterns" in body only (+1), "rust" missing.
	results := ix.Search("golang patterns rust", 5)
	require.Len(t, results, 1)
	assert.InDelta(t, 2.0/3.0, results[0].Score, 1e-9)

	// Title bonus pushes the raw score above the word count; it is clamped.
	ix2 := newTestIndex()
	ix2.Ingest("body", Metadata{Title: "kubernetes"})
	results = ix2.Search("kubernetes", 5)
	require.Len(t, results, 1)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestSearch_NoMatches(t *testing.T) {
	ix := newTestIndex()
	ix.Seed()

	assert.Empty(t, ix.Search("zyzzyva quixotic xylograph", 5))
}

func TestSearch_ShortWordsOnly(t *testing.T) {
	ix := newTestIndex()
	ix.Ingest("an ox is by me", Metadata{Title: "ox"})

	results := ix.Search("an ox is by me", 5)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	assert.Empty(t, ix.Search("", 5))
	assert.Empty(t, ix.Search("... ?? !!", 5))
}

func TestSearch_RespectsCapAndStableOrder(t *testing.T) {
	ix := newTestIndex()
	var ids []string
	for i := 0; i < 8; i++ {
		ids = append(ids, ix.Ingest(fmt.Sprintf("shared keyword %d", i), Metadata{Title: fmt.Sprintf("doc %d", i)}).ID)
	}

	results := ix.Search("shared", 3)
	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, ids[i], r.Document.ID)
	}

	assert.Len(t, ix.Search("shared", 0), DefaultMaxResults)
}

func TestSearch_ScoreBounds(t *testing.T) {
	ix := newTestIndex()
	ix.Seed()
	ix.Ingest(`{"@type":"Thing","name":"language language model","text":"language model language"}`, Metadata{})

	queries := []string{
		"What is NLWeb?",
		"language model language model",
		"artificial intelligence machine learning",
		"schema.org json-ld script",
		"the and for with",
	}
	for _, q := range queries {
		for _, r := range ix.Search(q, 10) {
			assert.GreaterOrEqual(t, r.Score, 0.0, q)
			assert.LessOrEqual(t, r.Score, 1.0, q)
			assert.Greater(t, r.Score, 0.0, q)
		}
	}
}

func TestSearch_EndToEndArticle(t *testing.T) {
	ix := newTestIndex()
	ix.Ingest(`{"@type":"Article","name":"Test","description":"AI is useful.","url":"https://x"}`, Metadata{})

	results := ix.Search("What is AI?", 5)
	require.Len(t, results, 1)
	assert.Equal(t, "Test", results[0].Document.Title)
	assert.Greater(t, results[0].Score, 0.0)
}

func TestSearch_SeededIndexDoesNotCrowdOutNewDocuments(t *testing.T) {
	ix := newTestIndex()
	ix.Seed()

	assert.Empty(t, ix.Search("what why how when where who which", 10))

	ix.Ingest(`{"@type":"Article","name":"Test","description":"AI is useful.","url":"https://x"}`, Metadata{})
	results := ix.Search("What is AI?", 3)
	require.Len(t, results, 1)
	assert.Equal(t, "Test", results[0].Document.Title)
	assert.InDelta(t, 0.5, results[0].Score, 1e-9)
}

func TestIndex_ConcurrentIngestAndSearch(t *testing.T) {
	ix := newTestIndex()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			ix.Ingest(fmt.Sprintf("concurrent entry %d", i), Metadata{Title: "parallel"})
		}(i)
		go func() {
			defer wg.Done()
			_ = ix.Search("concurrent parallel", 5)
		}()
	}
	wg.Wait()

	assert.Equal(t, 20, ix.Count())
	seen := make(map[string]bool)
	for _, doc := range ix.Documents() {
		assert.False(t, seen[doc.ID], "duplicate id %s", doc.ID)
		seen[doc.ID] = true
	}
}

func TestIndex_GetAndSeed(t *testing.T) {
	ix := newTestIndex()
	n := ix.Seed()

	assert.Equal(t, n, ix.Count())
	first := ix.Documents()[0]
	got, ok := ix.Get(first.ID)
	require.True(t, ok)
	assert.Equal(t, first.Title, got.Title)

	_, ok = ix.Get("doc_missing")
	assert.False(t, ok)
}
