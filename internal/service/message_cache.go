package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"chatlink_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

const (
	recentKeyPrefix  = "chat:recent:"
	maxCachedPerPair = 100
	cacheTTL         = 24 * time.Hour
)

// MessageCache 私聊最近消息的 Redis 缓存，按归一化的会话对键存列表。
// 只是消息库前面的加速层：丢了、过期了都只影响延迟，读方必须能回源。
type MessageCache struct {
	Redis *redis.Client
	ctx   context.Context
}

func NewMessageCache(rdb *redis.Client) *MessageCache {
	return &MessageCache{
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// Push 新消息压到列表头，截断到上限并续期 TTL
func (c *MessageCache) Push(msg *model.Message) error {
	if c.Redis == nil || !msg.IsDirect() {
		return nil
	}

	key := pairKey(msg.SenderID, *msg.ReceiverID)
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	pipe := c.Redis.Pipeline()
	pipe.LPush(c.ctx, key, data)
	pipe.LTrim(c.ctx, key, 0, maxCachedPerPair-1)
	pipe.Expire(c.ctx, key, cacheTTL)
	_, err = pipe.Exec(c.ctx)
	return err
}

// Recent 返回按时间正序的缓存消息；键不存在或已过期按未命中处理，调用方回源消息库
func (c *MessageCache) Recent(userA, userB uint) ([]model.Message, bool, error) {
	if c.Redis == nil {
		return nil, false, nil
	}

	key := pairKey(userA, userB)
	items, err := c.Redis.LRange(c.ctx, key, 0, maxCachedPerPair-1).Result()
	if err != nil || len(items) == 0 {
		return nil, false, err
	}

	// 列表头是最新的，反转成正序
	msgs := make([]model.Message, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		var m model.Message
		if err := json.Unmarshal([]byte(items[i]), &m); err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	return msgs, true, nil
}

// Invalidate 整条会话缓存作废，批量已读之类可能让缓存失真的操作之后调用
func (c *MessageCache) Invalidate(userA, userB uint) error {
	if c.Redis == nil {
		return nil
	}
	return c.Redis.Del(c.ctx, pairKey(userA, userB)).Err()
}

func pairKey(userA, userB uint) string {
	lo, hi := model.SortPair(userA, userB)
	return fmt.Sprintf("%s%d:%d", recentKeyPrefix, lo, hi)
}
