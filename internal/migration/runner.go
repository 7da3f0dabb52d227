// Package migration applies the schema: gorm auto-migration first, then the
// embedded SQL files that gorm tags cannot express.
package migration

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/Ayash-Bera/nlchat/internal/database"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

//go:embed sql/*.sql
var embedded embed.FS

// Applied records one executed SQL file.
type Applied struct {
	Name      string    `gorm:"primaryKey;size:255"`
	AppliedAt time.Time `gorm:"not null"`
}

func (Applied) TableName() string { return "schema_migrations" }

type Runner struct {
	dbManager *database.Manager
	db        *gorm.DB
	files     fs.FS
	logger    *logrus.Logger
}

// NewRunner uses the SQL files compiled into the binary. dbManager must
// hold a database connection.
func NewRunner(dbManager *database.Manager, logger *logrus.Logger) *Runner {
	sub, _ := fs.Sub(embedded, "sql")
	return NewRunnerFS(dbManager, sub, logger)
}

// NewRunnerFS reads *.sql files from the root of files.
func NewRunnerFS(dbManager *database.Manager, files fs.FS, logger *logrus.Logger) *Runner {
	return &Runner{
		dbManager: dbManager,
		db:        dbManager.DB,
		files:     files,
		logger:    logger,
	}
}

// Run executes all pending migrations and returns how many SQL files ran.
func (r *Runner) Run() (int, error) {
	if err := r.dbManager.Migrate(); err != nil {
		return 0, err
	}
	if err := r.db.AutoMigrate(&Applied{}); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}

	pending, err := r.pending()
	if err != nil {
		return 0, err
	}

	for _, name := range pending {
		if err := r.apply(name); err != nil {
			return 0, fmt.Errorf("failed to run migration %s: %w", name, err)
		}
		r.logger.WithField("file", name).Info("Migration executed successfully")
	}

	r.logger.WithField("applied", len(pending)).Info("Database migrations completed")
	return len(pending), nil
}

func (r *Runner) pending() ([]string, error) {
	names, err := fs.Glob(r.files, "*.sql")
	if err != nil {
		return nil, fmt.Errorf("failed to list migrations: %w", err)
	}
	sort.Strings(names)

	var done []string
	if err := r.db.Model(&Applied{}).Pluck("name", &done).Error; err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	applied := make(map[string]bool, len(done))
	for _, name := range done {
		applied[name] = true
	}

	var pending []string
	for _, name := range names {
		if !applied[name] {
			pending = append(pending, name)
		}
	}
	return pending, nil
}

// apply runs one file and records it in the same transaction.
func (r *Runner) apply(name string) error {
	content, err := fs.ReadFile(r.files, name)
	if err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		for i, stmt := range splitStatements(string(content)) {
			r.logger.WithFields(logrus.Fields{
				"file":      path.Base(name),
				"statement": i + 1,
			}).Debug("Executing SQL statement")

			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("statement %d: %w", i+1, err)
			}
		}
		return tx.Create(&Applied{Name: name, AppliedAt: time.Now()}).Error
	})
}

// splitStatements drops comment lines and splits on semicolons. Files must
// not contain dollar-quoted bodies.
func splitStatements(sql string) []string {
	var cleaned []string
	for _, line := range strings.Split(sql, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "--") {
			cleaned = append(cleaned, line)
		}
	}

	var statements []string
	for _, stmt := range strings.Split(strings.Join(cleaned, " "), ";") {
		if stmt = strings.TrimSpace(stmt); stmt != "" {
			statements = append(statements, stmt)
		}
	}
	return statements
}
