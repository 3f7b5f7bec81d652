package controller

import (
	"strconv"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// GroupController 群组与群消息接口
type GroupController struct {
	GroupService   *service.GroupService
	MessageService *service.MessageService
	Hub            *service.ChatHub
}

func NewGroupController(groupService *service.GroupService, messageService *service.MessageService, hub *service.ChatHub) *GroupController {
	return &GroupController{
		GroupService:   groupService,
		MessageService: messageService,
		Hub:            hub,
	}
}

// CreateGroupRequest 创建群组请求
type CreateGroupRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100" example:"周末羽毛球"`
	Description string `json:"description" binding:"omitempty,max=500" example:"每周六下午活动"`
	MemberIDs   []uint `json:"memberIds" example:"2,3"`
}

// InviteMembersRequest 邀请成员请求
type InviteMembersRequest struct {
	UserIDs []uint `json:"userIds" binding:"required,min=1" example:"4,5"`
}

// TransferOwnershipRequest 转让群主请求
type TransferOwnershipRequest struct {
	NewOwnerID uint `json:"newOwnerId" binding:"required" example:"2"`
}

// SendGroupMessageRequest 发送群消息请求
type SendGroupMessageRequest struct {
	Content string `json:"content" binding:"required,max=2000" example:"今晚老时间"`
	Type    string `json:"type" example:"TEXT"`
}

// CreateGroup 创建群组，创建者自动成为群主
func (ctrl *GroupController) CreateGroup(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	group, err := ctrl.GroupService.CreateGroup(claims.UserID, req.Name, req.Description, req.MemberIDs)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Created(c, group)
}

// GetGroups 当前用户加入的群组，按最近活跃排序
func (ctrl *GroupController) GetGroups(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	groups, err := ctrl.GroupService.GroupsForUser(claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, groups)
}

// GetGroup 群组详情，仅群成员可见
func (ctrl *GroupController) GetGroup(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}

	group, err := ctrl.GroupService.GetGroup(groupID, claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, group)
}

// GetMembers 群成员列表
func (ctrl *GroupController) GetMembers(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}

	members, err := ctrl.GroupService.Members(groupID, claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, members)
}

// InviteMembers 邀请用户入群，已在群和不存在的用户会被跳过
func (ctrl *GroupController) InviteMembers(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}

	var req InviteMembersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	added, err := ctrl.GroupService.InviteMembers(groupID, claims.UserID, req.UserIDs)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, added)
}

// RemoveMember 移除群成员，需要管理员及以上权限
func (ctrl *GroupController) RemoveMember(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "userId", "无效的用户ID")
	if !ok {
		return
	}

	if err := ctrl.GroupService.RemoveMember(groupID, claims.UserID, userID); err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{"removed": true})
}

// LeaveGroup 退出群组，群主需先转让
func (ctrl *GroupController) LeaveGroup(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}

	if err := ctrl.GroupService.LeaveGroup(groupID, claims.UserID); err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{"left": true})
}

// TransferOwnership 转让群主给另一名群成员
func (ctrl *GroupController) TransferOwnership(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}

	var req TransferOwnershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	if err := ctrl.GroupService.TransferOwnership(groupID, claims.UserID, req.NewOwnerID); err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{"transferred": true})
}

// GetGroupMessages 群消息历史，倒序分页后按时间正序返回
func (ctrl *GroupController) GetGroupMessages(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}
	page, size := parsePageQuery(c)

	msgs, err := ctrl.MessageService.GroupHistory(claims.UserID, groupID, page, size)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, msgs)
}

// SendGroupMessage 通过 HTTP 发送群消息并向在线成员推送
func (ctrl *GroupController) SendGroupMessage(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	groupID, ok := parseIDParam(c, "id", "无效的群组ID")
	if !ok {
		return
	}

	var req SendGroupMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	msg, err := ctrl.MessageService.SendGroup(claims.UserID, groupID, req.Content, model.NormalizeMessageType(req.Type))
	if err != nil {
		util.FromError(c, err)
		return
	}

	if ctrl.Hub != nil {
		if targets, err := ctrl.GroupService.GroupRepo.MemberIDsCached(groupID); err == nil {
			ctrl.Hub.PushToUsers(targets, service.WSMessage{Type: "NEW_MESSAGE", Data: msg})
		}
	}
	util.Created(c, msg)
}

func parseIDParam(c *gin.Context, name, errMsg string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(c, errMsg)
		return 0, false
	}
	return uint(id), true
}

func parseIDQuery(c *gin.Context, raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		util.BadRequest(c, "无效的用户ID")
		return 0, false
	}
	return uint(id), true
}

func parsePageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	if page < 0 {
		page = 0
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return page, size
}
