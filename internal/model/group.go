package model

import "time"

type GroupMemberRole string

const (
	RoleOwner  GroupMemberRole = "OWNER"
	RoleAdmin  GroupMemberRole = "ADMIN"
	RoleMember GroupMemberRole = "MEMBER"
)

// Group 群组表 UpdatedAt 随群消息推进，用于按活跃度排序
type Group struct {
	BaseModel
	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:500" json:"description"`
	AvatarURL   string `gorm:"size:500" json:"avatarUrl"`
	OwnerID     uint   `gorm:"index;not null" json:"ownerId"`
	Owner       User   `gorm:"foreignKey:OwnerID;constraint:false" json:"owner,omitempty"`
	MemberCount int64  `gorm:"-" json:"memberCount"`
}

func (Group) TableName() string {
	return "chat_groups"
}

// GroupMember 群成员表 (group_id, user_id) 唯一，每个群有且只有一行 OWNER
type GroupMember struct {
	ID       uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	GroupID  uint            `gorm:"uniqueIndex:uk_group_member;not null" json:"groupId"`
	UserID   uint            `gorm:"uniqueIndex:uk_group_member;index;not null" json:"userId"`
	User     User            `gorm:"foreignKey:UserID;constraint:false" json:"user,omitempty"`
	Role     GroupMemberRole `gorm:"size:20;default:'MEMBER'" json:"role"`
	JoinedAt time.Time       `gorm:"autoCreateTime" json:"joinedAt"`
}

func (GroupMember) TableName() string {
	return "group_members"
}

// CanRemoveMembers 只有群主和管理员可以移除成员
func (r GroupMemberRole) CanRemoveMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}
