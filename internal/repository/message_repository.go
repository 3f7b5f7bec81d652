package repository

import (
	"errors"

	"chatlink_backend/internal/model"

	"gorm.io/gorm"
)

var errInvalidTarget = errors.New("message must target exactly one of receiver or group")

type MessageRepository struct {
	DB *gorm.DB
}

func NewMessageRepository(db *gorm.DB) *MessageRepository {
	return &MessageRepository{DB: db}
}

func (r *MessageRepository) Create(msg *model.Message) error {
	if !msg.TargetValid() {
		return errInvalidTarget
	}
	return r.DB.Create(msg).Error
}

// FindByID 带发送者和接收者信息读取单条消息
func (r *MessageRepository) FindByID(id uint) (*model.Message, error) {
	var msg model.Message
	err := r.DB.Preload("Sender").Preload("Receiver").First(&msg, id).Error
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DirectBetween 两人之间的私聊消息，倒序分页后翻回正序。
// created_at 相同的行按 id 倒序取页，和正序历史 (created_at ASC, id ASC) 正好互逆，
// 重复请求同一页拿到的切片完全一致；返回前反转，页内始终是时间正序。
func (r *MessageRepository) DirectBetween(userID, otherID uint, page, size int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.Preload("Sender").Preload("Receiver").
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset(page * size).
		Find(&msgs).Error
	reverseMessages(msgs)
	return msgs, err
}

func (r *MessageRepository) ByGroup(groupID uint, page, size int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.Preload("Sender").
		Where("group_id = ?", groupID).
		Order("created_at DESC, id DESC").
		Limit(size).
		Offset(page * size).
		Find(&msgs).Error
	reverseMessages(msgs)
	return msgs, err
}

func reverseMessages(msgs []model.Message) {
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
}

// LatestDirectByUser 用户收发过的全部私聊消息，倒序。
// 会话列表在服务层按对端折叠，取每个对端的第一条。
func (r *MessageRepository) LatestDirectByUser(userID uint) ([]model.Message, error) {
	var msgs []model.Message
	err := r.DB.
		Where("receiver_id IS NOT NULL").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&msgs).Error
	return msgs, err
}

func (r *MessageRepository) CountUnreadFrom(userID, fromUserID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, fromUserID, false).
		Count(&count).Error
	return count, err
}

func (r *MessageRepository) CountUnreadTotal(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Message{}).
		Where("receiver_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

// MarkRead 把来自 fromUserID 的未读消息批量置为已读，天然幂等，返回翻转行数
func (r *MessageRepository) MarkRead(userID, fromUserID uint) (int64, error) {
	res := r.DB.Model(&model.Message{}).
		Where("receiver_id = ? AND sender_id = ? AND is_read = ?", userID, fromUserID, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}
