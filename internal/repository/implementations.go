package repository

import (
	"context"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/models"
	"gorm.io/gorm"
)

// ChatQueryRepositoryImpl implements ChatQueryRepository
type ChatQueryRepositoryImpl struct {
	db *gorm.DB
}

func NewChatQueryRepository(db *gorm.DB) models.ChatQueryRepository {
	return &ChatQueryRepositoryImpl{db: db}
}

func (r *ChatQueryRepositoryImpl) Create(ctx context.Context, query *models.ChatQuery) error {
	return r.db.WithContext(ctx).Create(query).Error
}

func (r *ChatQueryRepositoryImpl) GetByQueryID(ctx context.Context, queryID string) (*models.ChatQuery, error) {
	var query models.ChatQuery
	err := r.db.WithContext(ctx).Where("query_id = ?", queryID).First(&query).Error
	if err != nil {
		return nil, err
	}
	return &query, nil
}

func (r *ChatQueryRepositoryImpl) GetBySession(ctx context.Context, session string, limit int) ([]models.ChatQuery, error) {
	var queries []models.ChatQuery
	err := r.db.WithContext(ctx).Where("session_id = ?", session).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

func (r *ChatQueryRepositoryImpl) GetRecent(ctx context.Context, limit int) ([]models.ChatQuery, error) {
	var queries []models.ChatQuery
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&queries).Error
	return queries, err
}

func (r *ChatQueryRepositoryImpl) TypeBreakdown(ctx context.Context, since time.Time) ([]models.QueryTypeCount, error) {
	var rows []models.QueryTypeCount
	err := r.db.WithContext(ctx).Model(&models.ChatQuery{}).
		Select("query_type, COUNT(*) AS total, "+
			"SUM(CASE WHEN outcome <> ? THEN 1 ELSE 0 END) AS failed, "+
			"AVG(response_time_ms) AS avg_ms", models.OutcomeSuccess).
		Where("created_at >= ?", since).
		Group("query_type").
		Order("total DESC, query_type").
		Scan(&rows).Error
	return rows, err
}

// UserFeedbackRepositoryImpl implements UserFeedbackRepository
type UserFeedbackRepositoryImpl struct {
	db *gorm.DB
}

func NewUserFeedbackRepository(db *gorm.DB) models.UserFeedbackRepository {
	return &UserFeedbackRepositoryImpl{db: db}
}

func (r *UserFeedbackRepositoryImpl) Create(ctx context.Context, feedback *models.UserFeedback) error {
	return r.db.WithContext(ctx).Create(feedback).Error
}

func (r *UserFeedbackRepositoryImpl) GetByQueryID(ctx context.Context, queryID string) ([]models.UserFeedback, error) {
	var feedback []models.UserFeedback
	err := r.db.WithContext(ctx).Where("query_id = ?", queryID).
		Order("id").
		Find(&feedback).Error
	return feedback, err
}

func (r *UserFeedbackRepositoryImpl) GetByType(ctx context.Context, feedbackType string) ([]models.UserFeedback, error) {
	var feedback []models.UserFeedback
	err := r.db.WithContext(ctx).Where("feedback_type = ?", feedbackType).
		Order("id").
		Find(&feedback).Error
	return feedback, err
}

func (r *UserFeedbackRepositoryImpl) GetRecentFeedback(ctx context.Context, limit int) ([]models.UserFeedback, error) {
	var feedback []models.UserFeedback
	err := r.db.WithContext(ctx).Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&feedback).Error
	return feedback, err
}

// SystemHealthRepositoryImpl implements SystemHealthRepository
type SystemHealthRepositoryImpl struct {
	db *gorm.DB
}

func NewSystemHealthRepository(db *gorm.DB) models.SystemHealthRepository {
	return &SystemHealthRepositoryImpl{db: db}
}

func (r *SystemHealthRepositoryImpl) UpdateServiceHealth(ctx context.Context, serviceName, status string, responseTime int, errorMsg string) error {
	return r.db.WithContext(ctx).Create(&models.SystemHealth{
		ServiceName:    serviceName,
		Status:         status,
		ResponseTimeMs: responseTime,
		ErrorMessage:   errorMsg,
		CheckedAt:      time.Now(),
	}).Error
}

func (r *SystemHealthRepositoryImpl) GetServiceHealth(ctx context.Context, serviceName string) (*models.SystemHealth, error) {
	var health models.SystemHealth
	err := r.db.WithContext(ctx).Where("service_name = ?", serviceName).
		Order("checked_at DESC, id DESC").
		First(&health).Error
	if err != nil {
		return nil, err
	}
	return &health, nil
}

// GetAllServicesHealth returns the latest row per service.
func (r *SystemHealthRepositoryImpl) GetAllServicesHealth(ctx context.Context) ([]models.SystemHealth, error) {
	db := r.db.WithContext(ctx)
	var health []models.SystemHealth
	err := db.Where("id IN (?)", latestPerService(db)).
		Order("service_name").
		Find(&health).Error
	return health, err
}

func (r *SystemHealthRepositoryImpl) GetUnhealthyServices(ctx context.Context) ([]models.SystemHealth, error) {
	db := r.db.WithContext(ctx)
	var health []models.SystemHealth
	err := db.Where("id IN (?)", latestPerService(db)).
		Where("status <> ?", "healthy").
		Order("service_name").
		Find(&health).Error
	return health, err
}

func latestPerService(db *gorm.DB) *gorm.DB {
	return db.Session(&gorm.Session{NewDB: true}).
		Model(&models.SystemHealth{}).
		Select("MAX(id)").
		Group("service_name")
}

// RepositoryManager bundles all repositories
type RepositoryManager struct {
	ChatQuery    models.ChatQueryRepository
	UserFeedback models.UserFeedbackRepository
	SystemHealth models.SystemHealthRepository
}

func NewRepositoryManager(db *gorm.DB) *RepositoryManager {
	return &RepositoryManager{
		ChatQuery:    NewChatQueryRepository(db),
		UserFeedback: NewUserFeedbackRepository(db),
		SystemHealth: NewSystemHealthRepository(db),
	}
}
