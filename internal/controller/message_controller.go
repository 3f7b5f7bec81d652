package controller

import (
	"chatlink_backend/internal/model"
	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// MessageController 私聊消息与会话列表接口
type MessageController struct {
	MessageService    *service.MessageService
	FriendshipService *service.FriendshipService
	Hub               *service.ChatHub
}

func NewMessageController(messageService *service.MessageService, friendshipService *service.FriendshipService, hub *service.ChatHub) *MessageController {
	return &MessageController{
		MessageService:    messageService,
		FriendshipService: friendshipService,
		Hub:               hub,
	}
}

// SendMessageRequest 发送私聊消息请求
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required" example:"2"`
	Content    string `json:"content" binding:"required,max=2000" example:"你好"`
	Type       string `json:"type" example:"TEXT"`
}

// SendMessage 发送私聊消息，仅限好友之间；成功后向双方在线端推送
func (ctrl *MessageController) SendMessage(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	ok, err := ctrl.FriendshipService.AreFriends(claims.UserID, req.ReceiverID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	if !ok {
		util.FromError(c, util.ErrNotFriends)
		return
	}

	msg, err := ctrl.MessageService.SendDirect(claims.UserID, req.ReceiverID, req.Content, model.NormalizeMessageType(req.Type))
	if err != nil {
		util.FromError(c, err)
		return
	}

	if ctrl.Hub != nil {
		ctrl.Hub.PushToUsers([]uint{req.ReceiverID, claims.UserID}, service.WSMessage{Type: "NEW_MESSAGE", Data: msg})
	}
	util.Created(c, msg)
}

// GetChatHistory 与指定用户的私聊历史，page 从 0 开始
func (ctrl *MessageController) GetChatHistory(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	otherID, ok := parseIDParam(c, "userId", "无效的用户ID")
	if !ok {
		return
	}
	page, size := parsePageQuery(c)

	msgs, err := ctrl.MessageService.DirectHistory(claims.UserID, otherID, page, size)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, msgs)
}

// GetChatList 会话列表：每个对端的最新消息和未读数
func (ctrl *MessageController) GetChatList(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	items, err := ctrl.MessageService.ChatList(claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, items)
}

// MarkAsRead 把指定对端发来的消息全部置为已读
func (ctrl *MessageController) MarkAsRead(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	otherID, ok := parseIDParam(c, "userId", "无效的用户ID")
	if !ok {
		return
	}

	affected, err := ctrl.MessageService.MarkRead(claims.UserID, otherID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{"updated": affected})
}

// UnreadCount 未读数，带 userId 查询参数时只统计该对端
func (ctrl *MessageController) UnreadCount(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	if raw := c.Query("userId"); raw != "" {
		otherID, ok := parseIDQuery(c, raw)
		if !ok {
			return
		}
		count, err := ctrl.MessageService.UnreadFrom(claims.UserID, otherID)
		if err != nil {
			util.FromError(c, err)
			return
		}
		util.Success(c, gin.H{"count": count})
		return
	}

	count, err := ctrl.MessageService.UnreadTotal(claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{"count": count})
}
