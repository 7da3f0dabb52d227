package migration

import (
	"testing"
	"testing/fstest"

	"github.com/Ayash-Bera/nlchat/internal/database"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newManager(t *testing.T, db *gorm.DB) *database.Manager {
	log, _ := test.NewNullLogger()
	return database.NewManagerWith(db, nil, log)
}

func newDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return db
}

func TestRunner_EmbeddedMigrations(t *testing.T) {
	db := newDB(t)
	log, _ := test.NewNullLogger()
	runner := NewRunner(newManager(t, db), log)

	applied, err := runner.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, applied)
	assert.True(t, db.Migrator().HasIndex("chat_queries", "idx_chat_queries_created_type"))
	assert.True(t, db.Migrator().HasIndex("system_health", "idx_system_health_service_id"))

	applied, err = runner.Run()
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestRunner_FailedFileIsNotRecorded(t *testing.T) {
	db := newDB(t)
	log, _ := test.NewNullLogger()
	files := fstest.MapFS{
		"0001_ok.sql":  {Data: []byte("-- fine\nCREATE TABLE notes (id INTEGER);")},
		"0002_bad.sql": {Data: []byte("CREATE TABLE broken (;")},
	}

	_, err := NewRunnerFS(newManager(t, db), files, log).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "0002_bad.sql")

	var names []string
	require.NoError(t, db.Model(&Applied{}).Pluck("name", &names).Error)
	assert.Equal(t, []string{"0001_ok.sql"}, names)
}

func TestSplitStatements(t *testing.T) {
	got := splitStatements("-- header\nCREATE INDEX a ON t (x);\n\nCREATE INDEX b\n  ON t (y);\n")
	assert.Equal(t, []string{"CREATE INDEX a ON t (x)", "CREATE INDEX b ON t (y)"}, got)
}
