package controller

import (
	"strconv"

	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// FriendController 好友关系接口
type FriendController struct {
	FriendshipService *service.FriendshipService
	Hub               *service.ChatHub
}

func NewFriendController(friendshipService *service.FriendshipService, hub *service.ChatHub) *FriendController {
	return &FriendController{
		FriendshipService: friendshipService,
		Hub:               hub,
	}
}

// SendFriendRequestRequest 发送好友申请请求
type SendFriendRequestRequest struct {
	AddresseeID uint `json:"addresseeId" binding:"required" example:"2"`
}

// HandleFriendRequestRequest 处理好友申请请求
type HandleFriendRequestRequest struct {
	Accept bool `json:"accept" example:"true"`
}

// GetFriends 好友列表
func (ctrl *FriendController) GetFriends(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	friends, err := ctrl.FriendshipService.Friends(claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, friends)
}

// GetPendingRequests 收到的待处理好友申请
func (ctrl *FriendController) GetPendingRequests(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	requests, err := ctrl.FriendshipService.PendingIncoming(claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, requests)
}

// SendFriendRequest 发送好友申请，成功后实时通知对方
func (ctrl *FriendController) SendFriendRequest(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req SendFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	friendship, err := ctrl.FriendshipService.SendRequest(claims.UserID, req.AddresseeID)
	if err != nil {
		util.FromError(c, err)
		return
	}

	if ctrl.Hub != nil {
		ctrl.Hub.PushToUsers([]uint{req.AddresseeID}, service.WSMessage{
			Type: "FRIEND_REQUEST",
			Data: friendship,
		})
	}
	util.Created(c, friendship)
}

// HandleFriendRequest 接受或拒绝好友申请
func (ctrl *FriendController) HandleFriendRequest(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	requestID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(c, "无效的申请ID")
		return
	}

	var req HandleFriendRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	friendship, err := ctrl.FriendshipService.Respond(uint(requestID), claims.UserID, req.Accept)
	if err != nil {
		util.FromError(c, err)
		return
	}

	if ctrl.Hub != nil && req.Accept {
		ctrl.Hub.PushToUsers([]uint{friendship.RequesterID}, service.WSMessage{
			Type: "FRIEND_REQUEST_ACCEPTED",
			Data: friendship,
		})
	}
	util.Success(c, friendship)
}

// DeleteFriend 删除好友
func (ctrl *FriendController) DeleteFriend(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	friendID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(c, "无效的用户ID")
		return
	}

	if err := ctrl.FriendshipService.Remove(claims.UserID, uint(friendID)); err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{"deleted": true})
}
