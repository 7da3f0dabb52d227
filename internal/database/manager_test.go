package database

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestNewManager_RedisOnly(t *testing.T) {
	mr := miniredis.RunT(t)
	logger, _ := test.NewNullLogger()

	m, err := NewManager(&Config{RedisURL: "redis://" + mr.Addr()}, logger)
	require.NoError(t, err)
	defer m.Close()

	ctx := context.Background()
	assert.NoError(t, m.PingRedis(ctx))
	assert.ErrorIs(t, m.PingDatabase(ctx), ErrNotConfigured)
	assert.ErrorIs(t, m.Migrate(), ErrNotConfigured)
}

func TestNewManager_BadRedisURL(t *testing.T) {
	logger, _ := test.NewNullLogger()

	_, err := NewManager(&Config{RedisURL: "not-a-url"}, logger)
	assert.Error(t, err)
}

func TestManager_MigrateWithSQLite(t *testing.T) {
	logger, _ := test.NewNullLogger()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: NewGormLogger(logger, "info")})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	m := NewManagerWith(db, nil, logger)
	defer m.Close()

	require.NoError(t, m.Migrate())
	assert.NoError(t, m.PingDatabase(context.Background()))
	assert.True(t, db.Migrator().HasTable("chat_queries"))
	assert.True(t, db.Migrator().HasTable("user_feedback"))
	assert.True(t, db.Migrator().HasTable("system_health"))
	assert.ErrorIs(t, m.PingRedis(context.Background()), ErrNotConfigured)
}
