package model

import "time"

type MessageType string

const (
	MessageText  MessageType = "TEXT"
	MessageImage MessageType = "IMAGE"
	MessageFile  MessageType = "FILE"
)

// NormalizeMessageType 未知类型一律按 TEXT 处理，不拒绝请求
func NormalizeMessageType(s string) MessageType {
	switch MessageType(s) {
	case MessageText, MessageImage, MessageFile:
		return MessageType(s)
	default:
		return MessageText
	}
}

// Message 消息表 私聊消息只设 ReceiverID，群消息只设 GroupID，二者严格互斥；
// 排序只看 CreatedAt，时间相同按自增 ID 决出先后，保证分页在重复请求间稳定
type Message struct {
	ID         uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   uint        `gorm:"index;not null" json:"senderId"`
	Sender     User        `gorm:"foreignKey:SenderID;constraint:false" json:"sender,omitempty"`
	ReceiverID *uint       `gorm:"index" json:"receiverId,omitempty"`
	Receiver   *User       `gorm:"foreignKey:ReceiverID;constraint:false" json:"receiver,omitempty"`
	GroupID    *uint       `gorm:"index:idx_group_created" json:"groupId,omitempty"`
	Content    string      `gorm:"size:2000;not null" json:"content"`
	Type       MessageType `gorm:"size:20;default:'TEXT'" json:"type"`
	IsRead     bool        `gorm:"default:false" json:"isRead"`
	CreatedAt  time.Time   `gorm:"index;index:idx_group_created" json:"createdAt"`
}

func (Message) TableName() string {
	return "messages"
}

// NewDirectMessage 和 NewGroupMessage 是构造消息仅有的两条路径，
// 从源头排除"两个目标都空/都非空"的非法状态
func NewDirectMessage(senderID, receiverID uint, content string, msgType MessageType) *Message {
	return &Message{
		SenderID:   senderID,
		ReceiverID: &receiverID,
		Content:    content,
		Type:       msgType,
	}
}

func NewGroupMessage(senderID, groupID uint, content string, msgType MessageType) *Message {
	return &Message{
		SenderID: senderID,
		GroupID:  &groupID,
		Content:  content,
		Type:     msgType,
	}
}

func (m *Message) IsDirect() bool {
	return m.ReceiverID != nil
}

// TargetValid 目标恰好一个
func (m *Message) TargetValid() bool {
	return (m.ReceiverID != nil) != (m.GroupID != nil)
}
