package service

import (
	"fmt"
	"testing"
	"time"

	"chatlink_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageCachePushAndRecent(t *testing.T) {
	rdb, _ := newTestRedis(t)
	cache := NewMessageCache(rdb)

	for i := 0; i < 3; i++ {
		msg := model.NewDirectMessage(1, 2, fmt.Sprintf("msg-%d", i), model.MessageText)
		msg.ID = uint(i + 1)
		require.NoError(t, cache.Push(msg))
	}

	msgs, hit, err := cache.Recent(1, 2)
	require.NoError(t, err)
	require.True(t, hit)
	require.Len(t, msgs, 3)
	// 返回按时间正序
	assert.Equal(t, "msg-0", msgs[0].Content)
	assert.Equal(t, "msg-2", msgs[2].Content)

	// 会话键与方向无关
	reversed, hit, err := cache.Recent(2, 1)
	require.NoError(t, err)
	require.True(t, hit)
	assert.Len(t, reversed, 3)
}

func TestMessageCacheCapped(t *testing.T) {
	rdb, _ := newTestRedis(t)
	cache := NewMessageCache(rdb)

	for i := 0; i < 130; i++ {
		msg := model.NewDirectMessage(1, 2, fmt.Sprintf("msg-%03d", i), model.MessageText)
		msg.ID = uint(i + 1)
		require.NoError(t, cache.Push(msg))
	}

	msgs, hit, err := cache.Recent(1, 2)
	require.NoError(t, err)
	require.True(t, hit)
	// 只保留最近 100 条，最旧的被挤出去
	require.Len(t, msgs, 100)
	assert.Equal(t, "msg-030", msgs[0].Content)
	assert.Equal(t, "msg-129", msgs[99].Content)
}

func TestMessageCacheExpiry(t *testing.T) {
	rdb, mr := newTestRedis(t)
	cache := NewMessageCache(rdb)

	msg := model.NewDirectMessage(1, 2, "hello", model.MessageText)
	msg.ID = 1
	require.NoError(t, cache.Push(msg))

	_, hit, err := cache.Recent(1, 2)
	require.NoError(t, err)
	require.True(t, hit)

	// 24 小时后整条会话过期，按未命中处理
	mr.FastForward(24*time.Hour + time.Minute)
	_, hit, err = cache.Recent(1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMessageCacheInvalidate(t *testing.T) {
	rdb, _ := newTestRedis(t)
	cache := NewMessageCache(rdb)

	msg := model.NewDirectMessage(1, 2, "hello", model.MessageText)
	msg.ID = 1
	require.NoError(t, cache.Push(msg))
	require.NoError(t, cache.Invalidate(2, 1))

	_, hit, err := cache.Recent(1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMessageCacheNilClient(t *testing.T) {
	cache := NewMessageCache(nil)

	msg := model.NewDirectMessage(1, 2, "hello", model.MessageText)
	require.NoError(t, cache.Push(msg))

	_, hit, err := cache.Recent(1, 2)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, cache.Invalidate(1, 2))
}
