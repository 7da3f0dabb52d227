// Package seeder turns web pages into content ready for the NLWeb index.
package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/nlweb"
	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/sirupsen/logrus"
)

const (
	DefaultUserAgent    = "NLChat-Bot/1.0"
	DefaultMaxChunkSize = 2000
	minSectionLength    = 50
)

// Item is one piece of content to ingest.
type Item struct {
	Content  string         `json:"content"`
	Metadata nlweb.Metadata `json:"metadata"`
}

type FetcherConfig struct {
	UserAgent    string
	Timeout      time.Duration
	Delay        time.Duration
	MaxChunkSize int
}

// Fetcher downloads a page and extracts its schema.org JSON-LD blocks, or
// its visible text when the page carries none.
type Fetcher struct {
	config    FetcherConfig
	processor *ContentProcessor
	logger    *logrus.Logger
}

func NewFetcher(config FetcherConfig, logger *logrus.Logger) *Fetcher {
	if config.UserAgent == "" {
		config.UserAgent = DefaultUserAgent
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultMaxChunkSize
	}
	return &Fetcher{
		config:    config,
		processor: NewContentProcessor(),
		logger:    logger,
	}
}

type page struct {
	title       string
	description string
	jsonLD      []string
	sections    []section
	text        string
}

type section struct {
	title   string
	content string
}

// Fetch visits pageURL once. A new collector is used per call so visited
// state never leaks between fetches.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c := colly.NewCollector(
		colly.UserAgent(f.config.UserAgent),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(f.config.Timeout)
	if f.config.Delay > 0 {
		c.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: 1, Delay: f.config.Delay})
	}

	var p page
	var processingError error

	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
		}
	})

	c.OnHTML(`script[type="application/ld+json"]`, func(e *colly.HTMLElement) {
		if block := strings.TrimSpace(e.Text); block != "" {
			p.jsonLD = append(p.jsonLD, block)
		}
	})

	c.OnHTML("html", func(e *colly.HTMLElement) {
		p.title = strings.TrimSpace(e.ChildText("head > title"))
		p.description = strings.TrimSpace(e.ChildAttr(`meta[name="description"]`, "content"))

		body := e.DOM.Find("body")
		body.Find("script, style, noscript, nav, header, footer, aside").Remove()
		p.sections = f.extractSections(body)
		p.text = f.processor.CleanContent(blockText(body))
	})

	c.OnError(func(r *colly.Response, err error) {
		processingError = fmt.Errorf("HTTP %d: %w", r.StatusCode, err)
	})

	if err := c.Visit(pageURL); err != nil {
		if processingError != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, processingError)
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	items := f.itemsFromPage(pageURL, p)
	f.logger.WithFields(logrus.Fields{
		"url":      pageURL,
		"json_ld":  len(p.jsonLD),
		"sections": len(p.sections),
		"items":    len(items),
		"words":    f.processor.CountWords(p.text),
	}).Debug("Page fetched")

	if len(items) == 0 {
		return nil, fmt.Errorf("no content extracted from %s", pageURL)
	}
	return items, nil
}

func (f *Fetcher) itemsFromPage(pageURL string, p page) []Item {
	meta := nlweb.Metadata{
		SourceURL:   pageURL,
		Title:       p.title,
		Description: p.description,
	}

	var items []Item
	for _, block := range p.jsonLD {
		for _, obj := range splitJSONLD(block) {
			items = append(items, Item{Content: obj, Metadata: meta})
		}
	}
	if len(items) > 0 {
		return items
	}

	if len(p.sections) > 0 {
		for _, s := range p.sections {
			m := meta
			m.Title = joinTitle(p.title, s.title)
			for _, chunk := range f.processor.SplitIntoChunks(s.content, f.config.MaxChunkSize) {
				items = append(items, Item{Content: chunk, Metadata: m})
			}
		}
		return items
	}

	chunks := f.processor.SplitIntoChunks(p.text, f.config.MaxChunkSize)
	for i, chunk := range chunks {
		m := meta
		if len(chunks) > 1 {
			m.Title = fmt.Sprintf("%s (part %d/%d)", p.title, i+1, len(chunks))
		}
		items = append(items, Item{Content: chunk, Metadata: m})
	}
	return items
}

// extractSections collects text under each h2/h3 heading.
func (f *Fetcher) extractSections(body *goquery.Selection) []section {
	var sections []section

	body.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			return
		}

		var content strings.Builder
		heading.NextUntil("h1, h2, h3").Each(func(_ int, sibling *goquery.Selection) {
			if text := strings.TrimSpace(sibling.Text()); text != "" {
				content.WriteString(text)
				content.WriteString("\n\n")
			}
		})

		text := f.processor.CleanContent(content.String())
		if len(text) > minSectionLength {
			sections = append(sections, section{title: title, content: text})
		}
	})

	return sections
}

// blockText is Selection.Text with a line break after every block element.
func blockText(sel *goquery.Selection) string {
	sel.Find("p, div, li, h1, h2, h3, h4, h5, h6, br, tr, section, article").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})
	return sel.Text()
}

// splitJSONLD returns each object of a JSON-LD block. Arrays and @graph
// containers are flattened; malformed blocks are passed through untouched
// so ingestion can store them as plain text.
func splitJSONLD(block string) []string {
	var value interface{}
	if err := json.Unmarshal([]byte(block), &value); err != nil {
		return []string{block}
	}

	var objects []interface{}
	switch v := value.(type) {
	case []interface{}:
		objects = v
	case map[string]interface{}:
		if graph, ok := v["@graph"].([]interface{}); ok && len(graph) > 0 {
			objects = graph
		} else {
			objects = []interface{}{v}
		}
	default:
		return []string{block}
	}

	out := make([]string, 0, len(objects))
	for _, obj := range objects {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(obj); err != nil {
			continue
		}
		out = append(out, strings.TrimSpace(buf.String()))
	}
	return out
}

func joinTitle(page, section string) string {
	if page == "" {
		return section
	}
	return page + " / " + section
}
