package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceOnlineOffline(t *testing.T) {
	rdb, _ := newTestRedis(t)
	svc := NewPresenceService(rdb)

	online, err := svc.IsOnline(1)
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, svc.SetOnline(1))
	online, err = svc.IsOnline(1)
	require.NoError(t, err)
	assert.True(t, online)

	require.NoError(t, svc.SetOffline(1))
	online, err = svc.IsOnline(1)
	require.NoError(t, err)
	assert.False(t, online)

	// 离线后最后活跃时间仍可查询
	lastSeen, err := svc.LastSeen(1)
	require.NoError(t, err)
	assert.Greater(t, lastSeen, int64(0))
}

func TestPresenceTTLExpiry(t *testing.T) {
	rdb, mr := newTestRedis(t)
	svc := NewPresenceService(rdb)

	require.NoError(t, svc.SetOnline(1))

	// 心跳停掉 5 分钟后在线标记自动过期
	mr.FastForward(5*time.Minute + time.Second)
	online, err := svc.IsOnline(1)
	require.NoError(t, err)
	assert.False(t, online)

	lastSeen, err := svc.LastSeen(1)
	require.NoError(t, err)
	assert.Greater(t, lastSeen, int64(0))
}

func TestPresenceHeartbeatRefresh(t *testing.T) {
	rdb, mr := newTestRedis(t)
	svc := NewPresenceService(rdb)

	require.NoError(t, svc.SetOnline(1))
	mr.FastForward(4 * time.Minute)

	// 续期后再过 4 分钟仍在线
	require.NoError(t, svc.SetOnline(1))
	mr.FastForward(4 * time.Minute)

	online, err := svc.IsOnline(1)
	require.NoError(t, err)
	assert.True(t, online)
}

func TestPresenceLastSeenUnknownUser(t *testing.T) {
	rdb, _ := newTestRedis(t)
	svc := NewPresenceService(rdb)

	lastSeen, err := svc.LastSeen(42)
	require.NoError(t, err)
	assert.Equal(t, int64(0), lastSeen)
}

func TestPresenceOnlineUsers(t *testing.T) {
	rdb, _ := newTestRedis(t)
	svc := NewPresenceService(rdb)

	require.NoError(t, svc.SetOnline(1))
	require.NoError(t, svc.SetOnline(2))
	require.NoError(t, svc.SetOnline(3))
	require.NoError(t, svc.SetOffline(2))

	ids, err := svc.OnlineUsers()
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{1, 3}, ids)
}
