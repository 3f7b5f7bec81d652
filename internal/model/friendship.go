package model

import (
	"time"

	"gorm.io/gorm"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "PENDING"
	FriendshipAccepted FriendshipStatus = "ACCEPTED"
	FriendshipRejected FriendshipStatus = "REJECTED"
)

// Friendship 好友关系表 一对用户之间最多存在一行，方向由 RequesterID/AddresseeID 记录
type Friendship struct {
	ID          uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	RequesterID uint             `gorm:"index;not null" json:"requesterId"`
	Requester   User             `gorm:"foreignKey:RequesterID;constraint:false" json:"requester,omitempty"`
	AddresseeID uint             `gorm:"index;not null" json:"addresseeId"`
	Addressee   User             `gorm:"foreignKey:AddresseeID;constraint:false" json:"addressee,omitempty"`
	Status      FriendshipStatus `gorm:"size:20;default:'PENDING'" json:"status"`
	// 归一化后的无序对，唯一索引是并发重复申请的最终防线
	PairLo    uint      `gorm:"uniqueIndex:uk_friendship_pair;not null" json:"-"`
	PairHi    uint      `gorm:"uniqueIndex:uk_friendship_pair;not null" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Friendship) TableName() string {
	return "friendships"
}

func (f *Friendship) BeforeCreate(tx *gorm.DB) error {
	f.PairLo, f.PairHi = SortPair(f.RequesterID, f.AddresseeID)
	return nil
}

// SortPair 把两个用户 ID 归一化为 (小, 大)，与消息缓存的会话键保持同一规则
func SortPair(a, b uint) (uint, uint) {
	if a > b {
		return b, a
	}
	return a, b
}
