package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	onlineKeyPrefix   = "user:online:"
	lastSeenKeyPrefix = "user:lastseen:"
	onlineTTL         = 5 * time.Minute
)

// PresenceService 在线状态追踪。在线标记靠 TTL 自然过期兜底，
// 连接断开时主动删除，心跳负责续期。
type PresenceService struct {
	Redis *redis.Client
	ctx   context.Context
}

func NewPresenceService(rdb *redis.Client) *PresenceService {
	return &PresenceService{
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// SetOnline 标记用户在线并刷新最后活跃时间，心跳续期也走这里
func (s *PresenceService) SetOnline(userID uint) error {
	if s.Redis == nil {
		return nil
	}
	now := time.Now().UnixMilli()
	pipe := s.Redis.Pipeline()
	pipe.Set(s.ctx, onlineKey(userID), "1", onlineTTL)
	pipe.Set(s.ctx, lastSeenKey(userID), strconv.FormatInt(now, 10), 0)
	_, err := pipe.Exec(s.ctx)
	return err
}

// SetOffline 立即下线，最后活跃时间保留
func (s *PresenceService) SetOffline(userID uint) error {
	if s.Redis == nil {
		return nil
	}
	now := time.Now().UnixMilli()
	pipe := s.Redis.Pipeline()
	pipe.Del(s.ctx, onlineKey(userID))
	pipe.Set(s.ctx, lastSeenKey(userID), strconv.FormatInt(now, 10), 0)
	_, err := pipe.Exec(s.ctx)
	return err
}

func (s *PresenceService) IsOnline(userID uint) (bool, error) {
	if s.Redis == nil {
		return false, nil
	}
	n, err := s.Redis.Exists(s.ctx, onlineKey(userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// LastSeen 返回毫秒时间戳，从未上线过返回 0
func (s *PresenceService) LastSeen(userID uint) (int64, error) {
	if s.Redis == nil {
		return 0, nil
	}
	val, err := s.Redis.Get(s.ctx, lastSeenKey(userID)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(val, 10, 64)
}

// OnlineUsers 扫描全部在线标记键，仅供状态接口使用，不在热路径
func (s *PresenceService) OnlineUsers() ([]uint, error) {
	if s.Redis == nil {
		return nil, nil
	}
	var (
		ids    []uint
		cursor uint64
	)
	for {
		keys, next, err := s.Redis.Scan(s.ctx, cursor, onlineKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			raw := strings.TrimPrefix(key, onlineKeyPrefix)
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, uint(id))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

func onlineKey(userID uint) string {
	return onlineKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}

func lastSeenKey(userID uint) string {
	return lastSeenKeyPrefix + strconv.FormatUint(uint64(userID), 10)
}
