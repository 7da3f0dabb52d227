package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Ayash-Bera/nlchat/internal/apperr"
	"github.com/Ayash-Bera/nlchat/internal/llm"
	"github.com/Ayash-Bera/nlchat/internal/models"
	"github.com/Ayash-Bera/nlchat/internal/validation"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Query types double as generation profile names.
const (
	QueryTypeCreative   = llm.ProfileCreative
	QueryTypeAnalytical = llm.ProfileAnalytical
	QueryTypeQuality    = llm.ProfileQuality
	QueryTypeFast       = llm.ProfileFast
)

var (
	creativeKeywords   = []string{"story", "poem", "imagine", "creative", "fiction", "write a", "song", "lyrics"}
	analyticalKeywords = []string{"analy", "compare", "comparison", "statistic", "evaluate", "trend", "versus", "pros and cons"}
	whWords            = map[string]bool{
		"what": true, "why": true, "how": true, "when": true,
		"where": true, "who": true, "which": true,
	}
)

const analyticsTimeout = 5 * time.Second

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, p llm.Profile) (*llm.Result, error)
}

// ChatResult is the outcome of one processed query.
type ChatResult struct {
	QueryID    string      `json:"query_id"`
	Response   string      `json:"response"`
	Model      string      `json:"model"`
	QueryType  string      `json:"query_type"`
	TokensUsed *int        `json:"tokens_used,omitempty"`
	ElapsedMs  int64       `json:"elapsed_ms"`
	Parameters llm.Profile `json:"parameters"`
	Sources    []Source    `json:"sources"`
}

type ChatService struct {
	validator *validation.Validator
	enricher  *Enricher
	generator Generator
	overrides llm.Overrides
	analytics models.ChatQueryRepository
	logger    *logrus.Logger

	pending sync.WaitGroup
}

// NewChatService wires the pipeline. analytics may be nil.
func NewChatService(
	validator *validation.Validator,
	enricher *Enricher,
	generator Generator,
	overrides llm.Overrides,
	analytics models.ChatQueryRepository,
	logger *logrus.Logger,
) *ChatService {
	return &ChatService{
		validator: validator,
		enricher:  enricher,
		generator: generator,
		overrides: overrides,
		analytics: analytics,
		logger:    logger,
	}
}

// Process validates, enriches and answers q. Returned errors are always
// *apperr.Error values.
func (s *ChatService) Process(ctx context.Context, q validation.RawQuery) (result *ChatResult, err error) {
	start := time.Now()
	record := &models.ChatQuery{QueryID: uuid.NewString()}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while processing query: %v", r)
			result = nil
		}
		if err != nil {
			err = s.normalize(err, record.QueryID)
		}
		s.finish(record, start, result, err)
	}()

	validated, err := s.validator.Check(q)
	if err != nil {
		return nil, err
	}
	record.QueryLength = utf8.RuneCountInString(validated.Question)
	if validated.Context != nil {
		record.SessionID = validated.Context.SessionID
	}

	enriched := s.enricher.Enrich(validated.Question)

	queryType := Classify(validated.Question)
	profile := llm.Resolve(queryType, s.overrides)
	record.QueryType = queryType
	record.Model = profile.Model

	s.logger.WithFields(logrus.Fields{
		"query_id":   record.QueryID,
		"query_type": queryType,
		"model":      profile.Model,
		"sources":    len(enriched.Sources),
	}).Info("Processing chat query")

	gen, err := s.generator.Generate(ctx, enriched.Text, profile)
	if err != nil {
		return nil, err
	}

	sources := enriched.Sources
	if sources == nil {
		sources = []Source{}
	}

	return &ChatResult{
		QueryID:    record.QueryID,
		Response:   gen.Text,
		Model:      gen.Model,
		QueryType:  queryType,
		TokensUsed: gen.TokensUsed,
		ElapsedMs:  time.Since(start).Milliseconds(),
		Parameters: profile,
		Sources:    sources,
	}, nil
}

// normalize lets validation and remote errors through and hides anything else.
func (s *ChatService) normalize(err error, queryID string) error {
	e, ok := apperr.As(err)
	if ok && e.Kind != apperr.KindInternal {
		return e
	}
	s.logger.WithError(err).WithField("query_id", queryID).Error("Unexpected error while processing query")
	if ok {
		return e
	}
	return apperr.Internal(err)
}

func (s *ChatService) finish(record *models.ChatQuery, start time.Time, result *ChatResult, err error) {
	record.ResponseTimeMs = time.Since(start).Milliseconds()
	record.Outcome = models.OutcomeSuccess
	if err != nil {
		record.Outcome = string(apperr.KindOf(err))
		record.SubKind = string(apperr.SubKindOf(err))
	}
	if result != nil {
		record.Model = result.Model
		record.TokensUsed = result.TokensUsed
		for _, src := range result.Sources {
			record.SourceIDs = append(record.SourceIDs, src.ID)
		}
	}

	if s.analytics == nil {
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		ctx, cancel := context.WithTimeout(context.Background(), analyticsTimeout)
		defer cancel()
		if err := s.analytics.Create(ctx, record); err != nil {
			s.logger.WithError(err).WithField("query_id", record.QueryID).Warn("Failed to record query analytics")
		}
	}()
}

// Wait blocks until queued analytics writes have finished.
func (s *ChatService) Wait() {
	s.pending.Wait()
}

// Classify picks the query type from keyword families. Creative wins over
// analytical, which wins over the generic question check.
func Classify(question string) string {
	lower := strings.ToLower(question)

	switch {
	case containsAny(lower, creativeKeywords):
		return QueryTypeCreative
	case containsAny(lower, analyticalKeywords):
		return QueryTypeAnalytical
	case strings.Contains(lower, "?") || hasWhWord(lower):
		return QueryTypeQuality
	default:
		return QueryTypeFast
	}
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func hasWhWord(s string) bool {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	for _, w := range words {
		if whWords[w] {
			return true
		}
	}
	return false
}
