package service

import (
	"testing"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/repository"
	"chatlink_backend/pkg/database"
	"chatlink_backend/pkg/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func init() {
	logger.Log = zap.NewNop()
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func newTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb, mr
}

func seedUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "hashed",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func newFriendshipService(t *testing.T, db *gorm.DB) *FriendshipService {
	t.Helper()
	return NewFriendshipService(
		repository.NewFriendshipRepository(db, nil),
		repository.NewUserRepository(db),
	)
}

func newGroupService(t *testing.T, db *gorm.DB) *GroupService {
	t.Helper()
	return NewGroupService(
		repository.NewGroupRepository(db, nil),
		repository.NewUserRepository(db),
	)
}

func newMessageService(t *testing.T, db *gorm.DB, rdb *redis.Client) *MessageService {
	t.Helper()
	return NewMessageService(
		repository.NewMessageRepository(db),
		repository.NewGroupRepository(db, nil),
		repository.NewUserRepository(db),
		NewMessageCache(rdb),
	)
}
