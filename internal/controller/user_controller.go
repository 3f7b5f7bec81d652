package controller

import (
	"strconv"

	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// UserController 用户资料接口
type UserController struct {
	UserService *service.UserService
}

func NewUserController(userService *service.UserService) *UserController {
	return &UserController{UserService: userService}
}

// UpdateProfileRequest 更新资料请求，字段为空表示不修改
type UpdateProfileRequest struct {
	Username  string `json:"username" binding:"omitempty,min=2,max=50" example:"wangxiaoming"`
	AvatarURL string `json:"avatarUrl" binding:"omitempty,max=500" example:"https://cdn.example.com/a.png"`
}

// Me 当前登录用户资料
func (ctrl *UserController) Me(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	user, err := ctrl.UserService.GetByID(claims.UserID)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, user)
}

// UpdateMe 更新当前用户资料
func (ctrl *UserController) UpdateMe(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	user, err := ctrl.UserService.UpdateProfile(claims.UserID, req.Username, req.AvatarURL)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, user)
}

// Search 按用户名或邮箱搜索用户
func (ctrl *UserController) Search(c *gin.Context) {
	query := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	users, err := ctrl.UserService.Search(query, limit)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, users)
}

// GetByID 查看指定用户资料
func (ctrl *UserController) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.BadRequest(c, "无效的用户ID")
		return
	}

	user, err := ctrl.UserService.GetByID(uint(id))
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, user)
}
