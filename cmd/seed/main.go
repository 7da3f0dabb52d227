// Command seed fetches web pages and loads what it extracts into a running
// chat server's content index.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/nlwebclient"
	"github.com/Ayash-Bera/nlchat/internal/seeder"
	"github.com/Ayash-Bera/nlchat/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var (
	// Command line flags
	serverURL  = flag.String("server", envOr("NLCHAT_SERVER_URL", "http://localhost:8080"), "Base URL of the chat server")
	pageURLs   = flag.String("url", "", "Comma separated list of pages to ingest (positional arguments are also accepted)")
	dryRun     = flag.Bool("dry-run", false, "Don't upload anything, just print what would be ingested")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	concurrent = flag.Int("concurrent", 2, "Number of pages processed at once")
	delay      = flag.Duration("delay", 2*time.Second, "Delay between requests to the same host")
	chunkSize  = flag.Int("chunk-size", seeder.DefaultMaxChunkSize, "Maximum size of a plain text chunk")
)

// runStats is shared by the workers.
type runStats struct {
	mu        sync.Mutex
	pages     int
	documents int
	errors    []error
}

func (s *runStats) page(docs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages++
	s.documents += docs
}

func (s *runStats) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = append(s.errors, err)
}

func main() {
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found: %v", err)
	}

	logger := utils.GetLogger()
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	urls := collectURLs(*pageURLs, flag.Args())
	if len(urls) == 0 {
		fmt.Fprintln(os.Stderr, "usage: seed [flags] -url https://example.com/page[,https://...] | seed [flags] URL...")
		flag.PrintDefaults()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fetcher := seeder.NewFetcher(seeder.FetcherConfig{
		Delay:        *delay,
		MaxChunkSize: *chunkSize,
	}, logger)

	var client *nlwebclient.Client
	if !*dryRun {
		client = nlwebclient.NewClient(*serverURL, logger)

		healthCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		health, err := client.Health(healthCtx)
		cancel()
		if err != nil {
			logger.WithError(err).WithField("server", *serverURL).Fatal("Chat server is not reachable")
		}
		logger.WithFields(logrus.Fields{
			"server":    *serverURL,
			"documents": health.IndexedDocumentCount,
		}).Info("Connected to chat server")
	}

	logger.WithFields(logrus.Fields{
		"pages":      len(urls),
		"concurrent": *concurrent,
		"dry_run":    *dryRun,
	}).Info("Starting content seeding")

	stats := &runStats{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(*concurrent, 1))

	for i, pageURL := range urls {
		i, pageURL := i, pageURL
		g.Go(func() error {
			logger.WithFields(logrus.Fields{
				"url":      pageURL,
				"progress": fmt.Sprintf("%d/%d", i+1, len(urls)),
			}).Info("Processing page")

			docs, err := seedPage(gctx, fetcher, client, pageURL, logger)
			if err != nil {
				logger.WithError(err).WithField("url", pageURL).Error("Failed to process page")
				stats.fail(fmt.Errorf("failed to process %s: %w", pageURL, err))
				return nil
			}
			stats.page(docs)
			return nil
		})
	}
	_ = g.Wait()

	logger.WithFields(logrus.Fields{
		"processed": stats.pages,
		"documents": stats.documents,
		"errors":    len(stats.errors),
	}).Info("Content seeding completed")

	if len(stats.errors) > 0 {
		logger.Warn("Some pages failed to process:")
		for _, err := range stats.errors {
			logger.WithError(err).Warn("Processing error")
		}
		os.Exit(1)
	}
}

// seedPage fetches one page and ingests every item extracted from it.
func seedPage(ctx context.Context, fetcher *seeder.Fetcher, client *nlwebclient.Client, pageURL string, logger *logrus.Logger) (int, error) {
	items, err := fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return 0, err
	}

	if client == nil {
		for _, item := range items {
			fmt.Printf("[dry-run] %s | %s | %d chars\n", pageURL, item.Metadata.Title, len(item.Content))
		}
		return len(items), nil
	}

	ingested := 0
	for _, item := range items {
		doc, err := client.IngestWithRetry(ctx, item.Content, nlwebclient.IngestMetadata{
			SourceURL:   item.Metadata.SourceURL,
			Title:       item.Metadata.Title,
			Description: item.Metadata.Description,
		})
		if err != nil {
			return ingested, fmt.Errorf("ingest %q: %w", item.Metadata.Title, err)
		}
		ingested++

		logger.WithFields(logrus.Fields{
			"document_id": doc.ID,
			"title":       doc.Title,
			"type":        doc.Type,
		}).Debug("Document ingested")
	}
	return ingested, nil
}

func collectURLs(list string, args []string) []string {
	var urls []string
	seen := make(map[string]bool)
	for _, u := range append(strings.Split(list, ","), args...) {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		urls = append(urls, u)
	}
	return urls
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
