package controller

import (
	"chatlink_backend/internal/service"
	"chatlink_backend/internal/util"

	"github.com/gin-gonic/gin"
)

// ChatController WebSocket 接入
type ChatController struct {
	Hub *service.ChatHub
}

func NewChatController(hub *service.ChatHub) *ChatController {
	return &ChatController{Hub: hub}
}

// HandleWS 建立 WebSocket 连接，认证由 AuthMiddleware 完成
func (ctrl *ChatController) HandleWS(c *gin.Context) {
	claims := util.GetUserFromContext(c)
	if claims == nil {
		util.Unauthorized(c)
		return
	}
	service.ServeWs(ctrl.Hub, c.Writer, c.Request, claims.UserID)
}
