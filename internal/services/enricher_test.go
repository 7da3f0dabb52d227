package services

import (
	"strings"
	"testing"

	"github.com/Ayash-Bera/nlchat/internal/nlweb"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type panickingSearcher struct{}

func (panickingSearcher) Search(string, int) []nlweb.RetrievalResult {
	panic("index exploded")
}

type recordingSearcher struct {
	max     int
	results []nlweb.RetrievalResult
}

func (s *recordingSearcher) Search(_ string, maxResults int) []nlweb.RetrievalResult {
	s.max = maxResults
	return s.results
}

func TestEnricher_AppendsContext(t *testing.T) {
	logger, _ := test.NewNullLogger()
	index := nlweb.NewIndex(logger)
	index.Ingest(`{"@type":"Article","name":"Test","description":"AI is useful.","url":"https://x"}`, nlweb.Metadata{})

	out := NewEnricher(index, logger).Enrich("What is AI?")

	assert.Equal(t, "What is AI?\n\nRelevant context from the local knowledge base:\n- Test: AI is useful....", out.Text)
	require.Len(t, out.Sources, 1)
	assert.Equal(t, "Test", out.Sources[0].Title)
	assert.Equal(t, "https://x", out.Sources[0].URL)
	assert.Greater(t, out.Sources[0].Score, 0.0)
}

func TestEnricher_SeededIndex(t *testing.T) {
	logger, _ := test.NewNullLogger()
	index := nlweb.NewIndex(logger)
	index.Seed()
	index.Ingest(`{"@type":"Article","name":"Test","description":"AI is useful.","url":"https://x"}`, nlweb.Metadata{})

	out := NewEnricher(index, logger).Enrich("What is AI?")

	var titles []string
	for _, src := range out.Sources {
		titles = append(titles, src.Title)
	}
	assert.Contains(t, titles, "Test")
	assert.Contains(t, out.Text, "- Test: AI is useful...")
}

func TestEnricher_UsesCapOfThree(t *testing.T) {
	logger, _ := test.NewNullLogger()
	searcher := &recordingSearcher{results: []nlweb.RetrievalResult{
		{Document: nlweb.Document{ID: "a", Title: "A", Body: "alpha one"}, Score: 1},
		{Document: nlweb.Document{ID: "b", Title: "B", Body: "alpha two"}, Score: 0.5},
	}}

	out := NewEnricher(searcher, logger).Enrich("alpha")

	assert.Equal(t, EnrichmentResultCap, searcher.max)
	lines := strings.Split(out.Text, "\n")
	assert.Equal(t, []string{
		"alpha",
		"",
		"Relevant context from the local knowledge base:",
		"- A: alpha one...",
		"- B: alpha two...",
	}, lines)
	assert.Len(t, out.Sources, 2)
}

func TestEnricher_NoResults(t *testing.T) {
	logger, _ := test.NewNullLogger()
	out := NewEnricher(nlweb.NewIndex(logger), logger).Enrich("nothing indexed yet")

	assert.Equal(t, "nothing indexed yet", out.Text)
	assert.Empty(t, out.Sources)
}

func TestEnricher_SearchFailureIsAbsorbed(t *testing.T) {
	logger, hook := test.NewNullLogger()

	out := NewEnricher(panickingSearcher{}, logger).Enrich("anything at all")

	assert.Equal(t, "anything at all", out.Text)
	assert.Empty(t, out.Sources)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestSnippet(t *testing.T) {
	body := "Go is fast. Rust is safe! Does Python have types? Yes"

	assert.Equal(t, "Rust is safe...", Snippet(body, "rust vs go"))
	assert.Equal(t, "Does Python have types...", Snippet(body, "PYTHON typing"))
	assert.Equal(t, body+"...", Snippet(body, "haskell"))
	assert.Equal(t, "Go is fast...", Snippet(body, "go, please"))

	long := strings.Repeat("é", 250)
	snippet := Snippet(long, "nothing")
	assert.Equal(t, strings.Repeat("é", 200)+"...", snippet)

	assert.Equal(t, "...", Snippet("", "anything"))
}
