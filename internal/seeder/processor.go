package seeder

import (
	"regexp"
	"strings"
	"unicode"
)

// ContentProcessor normalizes scraped text and cuts it into ingestable chunks.
type ContentProcessor struct {
	inlineSpace *regexp.Regexp
	markup      *regexp.Regexp
	sentenceEnd *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		inlineSpace: regexp.MustCompile(`[ \t\r\f\v]+`),
		markup:      regexp.MustCompile(`<[^>]*>`),
		sentenceEnd: regexp.MustCompile(`[.!?]+\s+`),
	}
}

// CleanContent strips markup and normalizes whitespace, keeping at most one
// blank line between paragraphs.
func (cp *ContentProcessor) CleanContent(content string) string {
	content = cp.markup.ReplaceAllString(content, " ")
	content = cp.inlineSpace.ReplaceAllString(content, " ")

	var out []string
	blank := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			blank = len(out) > 0
			continue
		}
		if blank {
			out = append(out, "")
			blank = false
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}

// SplitIntoChunks packs paragraphs into chunks of at most maxChunkSize
// bytes. Paragraphs that do not fit are packed sentence by sentence, and
// sentences that still do not fit are cut on a rune boundary.
func (cp *ContentProcessor) SplitIntoChunks(content string, maxChunkSize int) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	if maxChunkSize <= 0 || len(content) <= maxChunkSize {
		return []string{content}
	}

	var chunks []string
	for _, chunk := range pack(strings.Split(content, "\n\n"), "\n\n", maxChunkSize) {
		if len(chunk) <= maxChunkSize {
			chunks = append(chunks, chunk)
			continue
		}
		chunks = append(chunks, pack(cp.sentences(chunk, maxChunkSize), " ", maxChunkSize)...)
	}
	return chunks
}

// sentences splits text after terminal punctuation, keeping it, and
// hard-cuts anything longer than maxSize.
func (cp *ContentProcessor) sentences(text string, maxSize int) []string {
	var out []string
	start := 0
	for _, loc := range cp.sentenceEnd.FindAllStringIndex(text, -1) {
		out = appendCut(out, text[start:loc[1]], maxSize)
		start = loc[1]
	}
	return appendCut(out, text[start:], maxSize)
}

func appendCut(out []string, s string, maxSize int) []string {
	s = strings.TrimSpace(s)
	for len(s) > maxSize {
		cut := runeBoundary(s, maxSize)
		out = append(out, s[:cut])
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// pack greedily joins pieces with sep while the result stays within
// maxSize. A single oversized piece becomes its own chunk.
func pack(pieces []string, sep string, maxSize int) []string {
	var chunks []string
	var cur strings.Builder
	for _, p := range pieces {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if cur.Len() > 0 && cur.Len()+len(sep)+len(p) > maxSize {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}

func runeBoundary(s string, limit int) int {
	for limit > 0 && limit < len(s) && !isRuneStart(s[limit]) {
		limit--
	}
	if limit == 0 {
		return len(s)
	}
	return limit
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

// CountWords counts tokens of two or more characters.
func (cp *ContentProcessor) CountWords(text string) int {
	count := 0
	for _, word := range strings.FieldsFunc(text, func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	}) {
		if len(word) > 1 {
			count++
		}
	}
	return count
}
