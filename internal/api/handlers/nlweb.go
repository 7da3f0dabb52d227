package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/database"
	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/internal/nlweb"
	"github.com/Ayash-Bera/nlchat/internal/seeder"
	"github.com/Ayash-Bera/nlchat/internal/services"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	maxSearchLimit   = 20
	maxSearchQuery   = 1000
	defaultFetchWait = 30 * time.Second
)

// PageFetcher extracts ingestable items from a URL.
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) ([]seeder.Item, error)
}

type NLWebHandler struct {
	index    *nlweb.Index
	fetcher  PageFetcher
	cache    *database.Cache
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// NewNLWebHandler builds the index endpoints. cache may be nil.
func NewNLWebHandler(index *nlweb.Index, fetcher PageFetcher, cache *database.Cache, cacheTTL time.Duration, logger *logrus.Logger) *NLWebHandler {
	return &NLWebHandler{
		index:    index,
		fetcher:  fetcher,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// HandleIngest stores one piece of content. A JSON string is ingested as
// its text; any other JSON value as its encoding.
func (h *NLWebHandler) HandleIngest(c *gin.Context) {
	var req models.IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request body", err)
		return
	}

	raw := string(req.Content)
	var text string
	if err := json.Unmarshal(req.Content, &text); err == nil {
		raw = text
	}
	if strings.TrimSpace(raw) == "" {
		invalidRequest(c, "Content cannot be empty", nil)
		return
	}

	doc := h.index.Ingest(raw, nlweb.Metadata{
		SourceURL:   req.URL,
		Title:       req.Title,
		Description: req.Description,
	})

	h.logger.WithFields(logrus.Fields{
		"document_id": doc.ID,
		"type":        nlweb.PayloadKind(doc.Payload),
	}).Info("Document ingested")

	utils.SuccessResponse(c, http.StatusCreated, "Document ingested", toDocumentView(doc, false))
}

// HandleIngestURL fetches a page and ingests everything extracted from it.
func (h *NLWebHandler) HandleIngestURL(c *gin.Context) {
	var req models.IngestURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "Invalid request body", err)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), defaultFetchWait)
	defer cancel()

	items, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		h.logger.WithError(err).WithField("url", req.URL).Warn("Failed to fetch page for ingestion")
		utils.ErrorResponse(c, http.StatusBadGateway, "Failed to fetch page", err)
		return
	}

	docs := make([]models.DocumentView, 0, len(items))
	for _, item := range items {
		doc := h.index.Ingest(item.Content, item.Metadata)
		docs = append(docs, toDocumentView(doc, false))
	}

	h.logger.WithFields(logrus.Fields{
		"url":       req.URL,
		"documents": len(docs),
	}).Info("Page ingested")

	utils.SuccessResponse(c, http.StatusCreated, "Page ingested", docs)
}

// HandleSearch runs a raw index search.
func (h *NLWebHandler) HandleSearch(c *gin.Context) {
	startTime := time.Now()

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		invalidRequest(c, "Query parameter 'q' is required", nil)
		return
	}
	if len([]rune(query)) > maxSearchQuery {
		invalidRequest(c, "Query too long", nil)
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(nlweb.DefaultMaxResults)))
	if err != nil || limit < 1 {
		invalidRequest(c, "Parameter 'limit' must be a positive integer", nil)
		return
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	cacheKey := database.SearchKey(query, limit, h.index.Count())
	var response models.SearchResponse

	if err := h.cache.GetCachedSearchResults(ctx, cacheKey, &response); err == nil {
		h.logger.Debug("Search results served from cache")
		response.Cached = true
	} else {
		if !database.IsMiss(err) {
			h.logger.WithError(err).Warn("Search cache lookup failed")
		}

		results := h.index.Search(query, limit)
		views := make([]models.SearchResultView, 0, len(results))
		for _, r := range results {
			views = append(views, models.SearchResultView{
				ID:      r.Document.ID,
				Title:   r.Document.Title,
				URL:     r.Document.SourceURL,
				Snippet: services.Snippet(r.Document.Body, query),
				Score:   r.Score,
			})
		}
		response = models.SearchResponse{
			Query:   query,
			Results: views,
			Total:   len(views),
		}

		if err := h.cache.CacheSearchResults(ctx, cacheKey, response, h.cacheTTL); err != nil {
			h.logger.WithError(err).Warn("Failed to cache search results")
		}
	}

	response.ResponseTime = time.Since(startTime).Milliseconds()
	utils.SuccessResponse(c, http.StatusOK, "Search completed", response)
}

// HandleListDocuments lists every indexed document without bodies.
func (h *NLWebHandler) HandleListDocuments(c *gin.Context) {
	docs := h.index.Documents()
	views := make([]models.DocumentView, 0, len(docs))
	for _, doc := range docs {
		views = append(views, toDocumentView(doc, false))
	}
	utils.SuccessResponse(c, http.StatusOK, "Documents retrieved", views)
}

func (h *NLWebHandler) HandleGetDocument(c *gin.Context) {
	doc, ok := h.index.Get(c.Param("id"))
	if !ok {
		utils.ErrorResponse(c, http.StatusNotFound, "Document not found", nil)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Document retrieved", toDocumentView(doc, true))
}

func toDocumentView(doc nlweb.Document, withBody bool) models.DocumentView {
	view := models.DocumentView{
		ID:          doc.ID,
		Title:       doc.Title,
		URL:         doc.SourceURL,
		Description: doc.Description,
		Type:        nlweb.PayloadKind(doc.Payload),
		IngestedAt:  doc.IngestedAt,
	}
	if sp, ok := doc.Structured(); ok {
		view.SchemaType = sp.Type
	}
	if withBody {
		view.Body = doc.Body
	}
	return view
}
