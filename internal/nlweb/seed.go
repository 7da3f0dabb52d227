package nlweb

// seedDocuments is loaded into every fresh index so the demo answers with
// some local context out of the box. The text avoids question words and the
// letter pair "ai" so that seeds never outrank documents ingested later for
// everyday questions.
var seedDocuments = []string{
	`{"@context":"https://schema.org","@type":"Article","name":"NLWeb Overview",` +
		`"description":"NLWeb gives a website a natural language interface.",` +
		`"articleBody":"NLWeb lets visitors put questions to a site in everyday language. It indexes structured content such as schema.org markup. Replies come from a language model that uses the indexed content as context.",` +
		`"url":"https://example.com/nlweb"}`,
	`{"@context":"https://schema.org","@type":"TechArticle","headline":"Schema.org Structured Data",` +
		`"description":"Shared vocabularies for describing web content.",` +
		`"text":"Schema.org is a shared vocabulary for structured data on the web. Pages embed it as JSON-LD inside a script tag. Search engines and assistants read it to understand the subject of a page.",` +
		`"url":"https://example.com/schema-org"}`,
	`{"@context":"https://schema.org","@type":"FAQPage","name":"Chat Assistant FAQ",` +
		`"description":"Common questions about this chat assistant.",` +
		`"articleBody":"The assistant answers questions using a remote language model. If local documents match a question, short snippets are added as context. Questions are limited to one thousand characters.",` +
		`"url":"https://example.com/faq"}`,
	`{"@context":"https://schema.org","@type":"Article","name":"Loading Content Into the Index",` +
		`"description":"Adding pages and documents to the local knowledge base.",` +
		`"text":"Post JSON-LD or text to the ingest endpoint, or give the seeding tool a list of page addresses. Every ingested document gets a fresh identifier. The index lives in memory and is rebuilt on restart.",` +
		`"url":"https://example.com/ingest"}`,
}

// Seed ingests the built-in seed set and returns how many documents it added.
func (ix *Index) Seed() int {
	for _, raw := range seedDocuments {
		ix.Ingest(raw, Metadata{})
	}
	ix.logger.WithField("documents", len(seedDocuments)).Info("Content index seeded")
	return len(seedDocuments)
}
