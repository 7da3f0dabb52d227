package models

// GORM models

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// StringArray is stored as a brace-delimited list, e.g. {a,b}.
type StringArray []string

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "{}", nil
	}
	return fmt.Sprintf("{%s}", strings.Join(s, ",")), nil
}

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	switch v := value.(type) {
	case string:
		v = strings.Trim(v, "{}")
		if v == "" {
			*s = StringArray{}
			return nil
		}
		*s = StringArray(strings.Split(v, ","))
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into StringArray", value)
	}
	return nil
}

// Base model with common fields
type BaseModel struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Query outcomes recorded for analytics.
const (
	OutcomeSuccess = "success"
)

// ChatQuery is one processed chat request. The question text is never stored.
type ChatQuery struct {
	BaseModel
	QueryID        string      `json:"query_id" gorm:"uniqueIndex;size:64;not null"`
	SessionID      string      `json:"session_id" gorm:"index;size:128"`
	QueryLength    int         `json:"query_length"`
	QueryType      string      `json:"query_type" gorm:"size:32"`
	Model          string      `json:"model" gorm:"size:128"`
	TokensUsed     *int        `json:"tokens_used"`
	ResponseTimeMs int64       `json:"response_time_ms"`
	Outcome        string      `json:"outcome" gorm:"size:32;not null"`
	SubKind        string      `json:"sub_kind" gorm:"size:32"`
	SourceIDs      StringArray `json:"source_ids" gorm:"type:text"`
}

// UserFeedback represents user feedback on a chat answer
type UserFeedback struct {
	BaseModel
	QueryID      string `json:"query_id" gorm:"index;size:64;not null"`
	FeedbackType string `json:"feedback_type" gorm:"not null;check:feedback_type IN ('helpful','not_helpful','partially_helpful')"`
	FeedbackText string `json:"feedback_text"`
	SessionID    string `json:"session_id" gorm:"size:128"`
}

// SystemHealth represents service health monitoring
type SystemHealth struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	ServiceName    string    `json:"service_name" gorm:"not null;index"`
	Status         string    `json:"status" gorm:"not null;check:status IN ('healthy','degraded','unhealthy')"`
	ResponseTimeMs int       `json:"response_time_ms"`
	ErrorMessage   string    `json:"error_message"`
	CheckedAt      time.Time `json:"checked_at" gorm:"not null"`
}

// QueryTypeCount is one row of the per-type analytics breakdown.
type QueryTypeCount struct {
	QueryType string  `json:"query_type"`
	Total     int64   `json:"total"`
	Failed    int64   `json:"failed"`
	AvgMs     float64 `json:"avg_response_time_ms"`
}

// Database interfaces for repository pattern
type ChatQueryRepository interface {
	Create(ctx context.Context, query *ChatQuery) error
	GetByQueryID(ctx context.Context, queryID string) (*ChatQuery, error)
	GetBySession(ctx context.Context, session string, limit int) ([]ChatQuery, error)
	GetRecent(ctx context.Context, limit int) ([]ChatQuery, error)
	TypeBreakdown(ctx context.Context, since time.Time) ([]QueryTypeCount, error)
}

type UserFeedbackRepository interface {
	Create(ctx context.Context, feedback *UserFeedback) error
	GetByQueryID(ctx context.Context, queryID string) ([]UserFeedback, error)
	GetByType(ctx context.Context, feedbackType string) ([]UserFeedback, error)
	GetRecentFeedback(ctx context.Context, limit int) ([]UserFeedback, error)
}

type SystemHealthRepository interface {
	UpdateServiceHealth(ctx context.Context, serviceName, status string, responseTime int, errorMsg string) error
	GetServiceHealth(ctx context.Context, serviceName string) (*SystemHealth, error)
	GetAllServicesHealth(ctx context.Context) ([]SystemHealth, error)
	GetUnhealthyServices(ctx context.Context) ([]SystemHealth, error)
}

// TableName methods for custom table names
func (ChatQuery) TableName() string    { return "chat_queries" }
func (UserFeedback) TableName() string { return "user_feedback" }
func (SystemHealth) TableName() string { return "system_health" }

// Model validation methods
func (cq *ChatQuery) Validate() error {
	if cq.QueryID == "" {
		return fmt.Errorf("query ID is required")
	}
	if cq.Outcome == "" {
		return fmt.Errorf("outcome is required")
	}
	if cq.ResponseTimeMs < 0 {
		return fmt.Errorf("response time cannot be negative")
	}
	return nil
}

// ValidFeedbackTypes lists accepted UserFeedback.FeedbackType values.
var ValidFeedbackTypes = map[string]bool{
	"helpful":           true,
	"not_helpful":       true,
	"partially_helpful": true,
}

func (uf *UserFeedback) Validate() error {
	if uf.QueryID == "" {
		return fmt.Errorf("query ID is required")
	}
	if !ValidFeedbackTypes[uf.FeedbackType] {
		return fmt.Errorf("invalid feedback type: %s", uf.FeedbackType)
	}
	return nil
}

func (sh *SystemHealth) Validate() error {
	switch sh.Status {
	case "healthy", "degraded", "unhealthy":
	default:
		return fmt.Errorf("invalid health status: %s", sh.Status)
	}
	if sh.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	return nil
}

// GORM hooks
func (cq *ChatQuery) BeforeCreate(tx *gorm.DB) error {
	return cq.Validate()
}

func (uf *UserFeedback) BeforeCreate(tx *gorm.DB) error {
	return uf.Validate()
}

func (sh *SystemHealth) BeforeCreate(tx *gorm.DB) error {
	if sh.CheckedAt.IsZero() {
		sh.CheckedAt = time.Now()
	}
	return sh.Validate()
}
