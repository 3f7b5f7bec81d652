package controller

import (
	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthController 处理注册登录
type AuthController struct {
	AuthService *service.AuthService
}

func NewAuthController(authService *service.AuthService) *AuthController {
	return &AuthController{AuthService: authService}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=2,max=50" example:"wangxiaoming"`
	Email    string `json:"email" binding:"required,email" example:"wang@example.com"`
	Password string `json:"password" binding:"required,min=6,max=72" example:"secret123"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"wang@example.com"`
	Password string `json:"password" binding:"required" example:"secret123"`
}

// Register 注册新用户
func (ctrl *AuthController) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	user, err := ctrl.AuthService.Register(req.Username, req.Email, req.Password)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Created(c, user)
}

// Login 登录并返回 JWT
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.BadRequest(c, "无效的请求参数")
		return
	}

	token, user, err := ctrl.AuthService.Login(req.Email, req.Password)
	if err != nil {
		util.FromError(c, err)
		return
	}
	util.Success(c, gin.H{
		"token": token,
		"user":  user,
	})
}
