package repository

import (
	"context"
	"fmt"
	"time"

	"chatlink_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type FriendshipRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewFriendshipRepository(db *gorm.DB, rdb *redis.Client) *FriendshipRepository {
	return &FriendshipRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// Create 落库即最终防线：并发下重复的无序对会撞 uk_friendship_pair，
// 由调用方把 gorm.ErrDuplicatedKey 当作冲突处理
func (r *FriendshipRepository) Create(f *model.Friendship) error {
	return r.DB.Create(f).Error
}

func (r *FriendshipRepository) FindByID(id uint) (*model.Friendship, error) {
	var f model.Friendship
	err := r.DB.Preload("Requester").Preload("Addressee").First(&f, id).Error
	return &f, err
}

// FindByPair 查无序对上的关系行，方向不限
func (r *FriendshipRepository) FindByPair(userID, otherID uint) (*model.Friendship, error) {
	lo, hi := model.SortPair(userID, otherID)
	var f model.Friendship
	err := r.DB.Where("pair_lo = ? AND pair_hi = ?", lo, hi).First(&f).Error
	return &f, err
}

func (r *FriendshipRepository) UpdateStatus(id uint, status model.FriendshipStatus) error {
	return r.DB.Model(&model.Friendship{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *FriendshipRepository) AcceptedByUser(userID uint) ([]model.Friendship, error) {
	var fs []model.Friendship
	err := r.DB.Preload("Requester").Preload("Addressee").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?",
			userID, userID, model.FriendshipAccepted).
		Find(&fs).Error
	return fs, err
}

func (r *FriendshipRepository) PendingIncoming(userID uint) ([]model.Friendship, error) {
	var fs []model.Friendship
	err := r.DB.Preload("Requester").
		Where("addressee_id = ? AND status = ?", userID, model.FriendshipPending).
		Order("created_at DESC").
		Find(&fs).Error
	return fs, err
}

// DeletePair 物理删除，任何状态都可删（退好友、撤回申请共用），返回删除行数
func (r *FriendshipRepository) DeletePair(userID, otherID uint) (int64, error) {
	lo, hi := model.SortPair(userID, otherID)
	res := r.DB.Where("pair_lo = ? AND pair_hi = ?", lo, hi).Delete(&model.Friendship{})
	if res.Error == nil && res.RowsAffected > 0 {
		r.invalidateFriendCache(userID, otherID)
	}
	return res.RowsAffected, res.Error
}

func (r *FriendshipRepository) AreFriends(userID, otherID uint) (bool, error) {
	lo, hi := model.SortPair(userID, otherID)
	var count int64
	err := r.DB.Model(&model.Friendship{}).
		Where("pair_lo = ? AND pair_hi = ? AND status = ?", lo, hi, model.FriendshipAccepted).
		Count(&count).Error
	return count > 0, err
}

// FriendIDs 只获取好友的 ID 列表
func (r *FriendshipRepository) FriendIDs(userID uint) ([]uint, error) {
	var fs []model.Friendship
	err := r.DB.Select("requester_id, addressee_id").
		Where("(requester_id = ? OR addressee_id = ?) AND status = ?",
			userID, userID, model.FriendshipAccepted).
		Find(&fs).Error
	if err != nil {
		return nil, err
	}
	ids := make([]uint, 0, len(fs))
	for _, f := range fs {
		if f.RequesterID == userID {
			ids = append(ids, f.AddresseeID)
		} else {
			ids = append(ids, f.RequesterID)
		}
	}
	return ids, nil
}

// FriendIDsCached 好友 ID 列表 (带 Redis 缓存)，接受/删除时失效
func (r *FriendshipRepository) FriendIDsCached(userID uint) ([]uint, error) {
	if r.Redis == nil {
		return r.FriendIDs(userID)
	}

	key := friendSetKey(userID)
	cached, err := r.Redis.SMembers(r.ctx, key).Result()
	if err == nil && len(cached) > 0 {
		var ids []uint
		for _, s := range cached {
			var id uint
			fmt.Sscanf(s, "%d", &id)
			if id > 0 {
				ids = append(ids, id)
			}
		}
		return ids, nil
	}

	ids, err := r.FriendIDs(userID)
	if err == nil && len(ids) > 0 {
		pipe := r.Redis.Pipeline()
		for _, id := range ids {
			pipe.SAdd(r.ctx, key, id)
		}
		pipe.Expire(r.ctx, key, 24*time.Hour)
		pipe.Exec(r.ctx)
	} else if err == nil {
		// 防止缓存穿透
		r.Redis.SAdd(r.ctx, key, 0)
		r.Redis.Expire(r.ctx, key, 5*time.Minute)
	}
	return ids, err
}

// InvalidateFriendCache 好友集合变化后由服务层调用
func (r *FriendshipRepository) InvalidateFriendCache(userID, otherID uint) {
	r.invalidateFriendCache(userID, otherID)
}

func (r *FriendshipRepository) invalidateFriendCache(userID, otherID uint) {
	if r.Redis == nil {
		return
	}
	r.Redis.Del(r.ctx, friendSetKey(userID), friendSetKey(otherID))
}

func friendSetKey(userID uint) string {
	return fmt.Sprintf("chat:relation:friends:%d", userID)
}
