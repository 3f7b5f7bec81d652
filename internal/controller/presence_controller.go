package controller

import (
	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// PresenceController 在线状态查询接口
type PresenceController struct {
	Presence *service.PresenceService
	Hub      *service.ChatHub
}

func NewPresenceController(presence *service.PresenceService, hub *service.ChatHub) *PresenceController {
	return &PresenceController{Presence: presence, Hub: hub}
}

// GetPresence 查询单个用户的在线状态和最后活跃时间
func (ctrl *PresenceController) GetPresence(c *gin.Context) {
	userID, ok := parseIDParam(c, "id", "无效的用户ID")
	if !ok {
		return
	}

	online := ctrl.Hub.IsUserOnline(userID)
	lastSeen, err := ctrl.Presence.LastSeen(userID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{
		"userId":   userID,
		"online":   online,
		"lastSeen": lastSeen,
	})
}

// GetOnlineUsers 当前所有在线用户ID
func (ctrl *PresenceController) GetOnlineUsers(c *gin.Context) {
	ids, err := ctrl.Presence.OnlineUsers()
	if err != nil {
		util.FromError(c, err)
		return
	}
	if ids == nil {
		ids = []uint{}
	}
	util.Success(c, gin.H{"userIds": ids})
}
