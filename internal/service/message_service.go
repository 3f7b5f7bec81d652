package service

import (
	"strings"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/repository"
	"chatlink_backend/internal/util"
	"chatlink_backend/pkg/logger"

	"go.uber.org/zap"
)

// ChatListItem 会话列表里的一条私聊会话
type ChatListItem struct {
	User        model.User     `json:"user"`
	LastMessage *model.Message `json:"lastMessage"`
	UnreadCount int64          `json:"unreadCount"`
}

// MessageService 消息读写与会话聚合
type MessageService struct {
	MessageRepo *repository.MessageRepository
	GroupRepo   *repository.GroupRepository
	UserRepo    *repository.UserRepository
	Cache       *MessageCache
}

func NewMessageService(messageRepo *repository.MessageRepository, groupRepo *repository.GroupRepository, userRepo *repository.UserRepository, cache *MessageCache) *MessageService {
	return &MessageService{
		MessageRepo: messageRepo,
		GroupRepo:   groupRepo,
		UserRepo:    userRepo,
		Cache:       cache,
	}
}

// SendDirect 发送私聊消息并写入会话缓存
func (s *MessageService) SendDirect(senderID, receiverID uint, content string, msgType model.MessageType) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, util.ErrEmptyContent
	}
	for _, id := range []uint{senderID, receiverID} {
		ok, err := s.UserRepo.Exists(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, util.ErrUserNotFound
		}
	}

	msg := model.NewDirectMessage(senderID, receiverID, content, msgType)
	if err := s.MessageRepo.Create(msg); err != nil {
		return nil, err
	}

	// 缓存写失败不影响发送结果
	if err := s.Cache.Push(msg); err != nil {
		logger.Log.Warn("写入会话缓存失败", zap.Uint("sender", senderID), zap.Error(err))
	}
	return s.MessageRepo.FindByID(msg.ID)
}

// SendGroup 发送群消息，发送者必须在群内；群的 updated_at 跟着消息时间走，
// 保证群列表按最近活跃排序
func (s *MessageService) SendGroup(senderID, groupID uint, content string, msgType model.MessageType) (*model.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, util.ErrEmptyContent
	}
	ok, err := s.GroupRepo.IsMember(groupID, senderID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrNotGroupMember
	}

	msg := model.NewGroupMessage(senderID, groupID, content, msgType)
	if err := s.MessageRepo.Create(msg); err != nil {
		return nil, err
	}
	if err := s.GroupRepo.TouchUpdatedAt(groupID, msg.CreatedAt); err != nil {
		logger.Log.Warn("更新群活跃时间失败", zap.Uint("group", groupID), zap.Error(err))
	}
	return s.MessageRepo.FindByID(msg.ID)
}

// DirectHistory 私聊历史，第 0 页优先走缓存，分页或缓存不足回源数据库。
// 返回按时间正序的一页。
func (s *MessageService) DirectHistory(userID, otherID uint, page, size int) ([]model.Message, error) {
	if page == 0 {
		cached, hit, err := s.Cache.Recent(userID, otherID)
		if err != nil {
			logger.Log.Warn("读会话缓存失败", zap.Error(err))
		}
		if hit && len(cached) >= size {
			return cached[len(cached)-size:], nil
		}
	}
	return s.MessageRepo.DirectBetween(userID, otherID, page, size)
}

// GroupHistory 群消息历史，仅群成员可读
func (s *MessageService) GroupHistory(userID, groupID uint, page, size int) ([]model.Message, error) {
	ok, err := s.GroupRepo.IsMember(groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, util.ErrNotGroupMember
	}
	return s.MessageRepo.ByGroup(groupID, page, size)
}

// ChatList 私聊会话列表：每个对端取最新一条消息和未读数，按最新消息时间倒序
func (s *MessageService) ChatList(userID uint) ([]ChatListItem, error) {
	msgs, err := s.MessageRepo.LatestDirectByUser(userID)
	if err != nil {
		return nil, err
	}

	// 消息已按时间倒序，首次出现的对端即该会话的最新消息
	latest := make(map[uint]*model.Message)
	var order []uint
	for i := range msgs {
		m := msgs[i]
		partnerID := m.SenderID
		if partnerID == userID {
			partnerID = *m.ReceiverID
		}
		if _, seen := latest[partnerID]; !seen {
			latest[partnerID] = &msgs[i]
			order = append(order, partnerID)
		}
	}
	if len(order) == 0 {
		return []ChatListItem{}, nil
	}

	users, err := s.UserRepo.FindByIDs(order)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	items := make([]ChatListItem, 0, len(order))
	for _, partnerID := range order {
		u, ok := byID[partnerID]
		if !ok {
			continue
		}
		unread, err := s.MessageRepo.CountUnreadFrom(userID, partnerID)
		if err != nil {
			return nil, err
		}
		items = append(items, ChatListItem{
			User:        u,
			LastMessage: latest[partnerID],
			UnreadCount: unread,
		})
	}
	return items, nil
}

// MarkRead 把对端发来的未读消息置为已读，返回影响条数；重复调用无副作用
func (s *MessageService) MarkRead(userID, otherID uint) (int64, error) {
	affected, err := s.MessageRepo.MarkRead(userID, otherID)
	if err != nil {
		return 0, err
	}
	if affected > 0 {
		if err := s.Cache.Invalidate(userID, otherID); err != nil {
			logger.Log.Warn("清理会话缓存失败", zap.Error(err))
		}
	}
	return affected, nil
}

// UnreadTotal 所有私聊未读总数
func (s *MessageService) UnreadTotal(userID uint) (int64, error) {
	return s.MessageRepo.CountUnreadTotal(userID)
}

// UnreadFrom 指定对端的未读数
func (s *MessageService) UnreadFrom(userID, otherID uint) (int64, error) {
	return s.MessageRepo.CountUnreadFrom(userID, otherID)
}
