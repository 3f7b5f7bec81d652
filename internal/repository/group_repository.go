package repository

import (
	"context"
	"fmt"
	"time"

	"chatlink_backend/internal/model"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

type GroupRepository struct {
	DB    *gorm.DB
	Redis *redis.Client
	ctx   context.Context
}

func NewGroupRepository(db *gorm.DB, rdb *redis.Client) *GroupRepository {
	return &GroupRepository{
		DB:    db,
		Redis: rdb,
		ctx:   context.Background(),
	}
}

// CreateWithOwner 建群和群主成员行在同一事务里完成，二者不可分割
func (r *GroupRepository) CreateWithOwner(group *model.Group) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		owner := &model.GroupMember{
			GroupID: group.ID,
			UserID:  group.OwnerID,
			Role:    model.RoleOwner,
		}
		return tx.Create(owner).Error
	})
}

func (r *GroupRepository) FindByID(id uint) (*model.Group, error) {
	var group model.Group
	err := r.DB.Preload("Owner").First(&group, id).Error
	return &group, err
}

// AddMember (group_id, user_id) 唯一索引兜底并发重复加群
func (r *GroupRepository) AddMember(member *model.GroupMember) error {
	err := r.DB.Create(member).Error
	if err == nil {
		r.invalidateMemberCache(member.GroupID)
	}
	return err
}

func (r *GroupRepository) GetMember(groupID, userID uint) (*model.GroupMember, error) {
	var member model.GroupMember
	err := r.DB.Preload("User").
		Where("group_id = ? AND user_id = ?", groupID, userID).
		First(&member).Error
	return &member, err
}

func (r *GroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *GroupRepository) Members(groupID uint) ([]model.GroupMember, error) {
	var members []model.GroupMember
	err := r.DB.Preload("User").
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *GroupRepository) MemberCount(groupID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Count(&count).Error
	return count, err
}

func (r *GroupRepository) RemoveMember(groupID, userID uint) error {
	err := r.DB.Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&model.GroupMember{}).Error
	if err == nil {
		r.invalidateMemberCache(groupID)
	}
	return err
}

// GroupsForUser 用户所在群组，按群活跃时间倒序
func (r *GroupRepository) GroupsForUser(userID uint) ([]model.Group, error) {
	var groups []model.Group
	err := r.DB.Preload("Owner").
		Joins("JOIN group_members ON group_members.group_id = chat_groups.id").
		Where("group_members.user_id = ?", userID).
		Order("chat_groups.updated_at DESC").
		Find(&groups).Error
	return groups, err
}

// TouchUpdatedAt 群消息落库后把群的活跃时间推到消息时间
func (r *GroupRepository) TouchUpdatedAt(groupID uint, t time.Time) error {
	return r.DB.Model(&model.Group{}).
		Where("id = ?", groupID).
		Update("updated_at", t).Error
}

// TransferOwnership 旧群主降为普通成员，新群主行升为 OWNER，群表换 owner_id，一个事务完成
func (r *GroupRepository) TransferOwnership(groupID, oldOwnerID, newOwnerID uint) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, oldOwnerID).
			Update("role", model.RoleMember).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.GroupMember{}).
			Where("group_id = ? AND user_id = ?", groupID, newOwnerID).
			Update("role", model.RoleOwner).Error; err != nil {
			return err
		}
		return tx.Model(&model.Group{}).
			Where("id = ?", groupID).
			Update("owner_id", newOwnerID).Error
	})
	if err == nil {
		r.invalidateMemberCache(groupID)
	}
	return err
}

// MemberIDs 群内全部成员 ID
func (r *GroupRepository) MemberIDs(groupID uint) ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}

// MemberIDsCached 群成员 ID (带 Redis 缓存)，供消息扇出的热路径使用
func (r *GroupRepository) MemberIDsCached(groupID uint) ([]uint, error) {
	if r.Redis == nil {
		return r.MemberIDs(groupID)
	}

	key := memberSetKey(groupID)
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

	ids, err := r.MemberIDs(groupID)
	if err == nil && len(ids) > 0 {
		pipe := r.Redis.Pipeline()
		for _, id := range ids {
			pipe.SAdd(r.ctx, key, id)
		}
		pipe.Expire(r.ctx, key, 24*time.Hour)
		pipe.Exec(r.ctx)
	}
	return ids, err
}

func (r *GroupRepository) invalidateMemberCache(groupID uint) {
	if r.Redis == nil {
		return
	}
	r.Redis.Del(r.ctx, memberSetKey(groupID))
}

func memberSetKey(groupID uint) string {
	return fmt.Sprintf("chat:relation:group_members:%d", groupID)
}
