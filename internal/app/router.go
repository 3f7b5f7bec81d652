package app

import (
	"chatlink_backend/internal/config"
	"chatlink_backend/internal/middleware"
	"chatlink_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/health", c.health.Check)
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")

	// 公开接口
	auth := api.Group("/auth")
	{
		auth.POST("/register", c.auth.Register)
		auth.POST("/login", c.auth.Login)
	}

	// 需要登录的接口
	authorized := api.Group("")
	authorized.Use(middleware.AuthMiddleware(cfg))
	{
		users := authorized.Group("/users")
		{
			users.GET("/me", c.user.Me)
			users.PUT("/me", c.user.UpdateMe)
			users.GET("/search", c.user.Search)
			users.GET("/:id", c.user.GetByID)
		}

		friends := authorized.Group("/friends")
		{
			friends.GET("", c.friend.GetFriends)
			friends.GET("/requests", c.friend.GetPendingRequests)
			friends.POST("/requests", c.friend.SendFriendRequest)
			friends.PUT("/requests/:id", c.friend.HandleFriendRequest)
			friends.DELETE("/:id", c.friend.DeleteFriend)
		}

		groups := authorized.Group("/groups")
		{
			groups.POST("", c.group.CreateGroup)
			groups.GET("", c.group.GetGroups)
			groups.GET("/:id", c.group.GetGroup)
			groups.GET("/:id/members", c.group.GetMembers)
			groups.POST("/:id/members", c.group.InviteMembers)
			groups.DELETE("/:id/members/:userId", c.group.RemoveMember)
			groups.POST("/:id/leave", c.group.LeaveGroup)
			groups.POST("/:id/transfer", c.group.TransferOwnership)
			groups.GET("/:id/messages", c.group.GetGroupMessages)
			groups.POST("/:id/messages", c.group.SendGroupMessage)
		}

		messages := authorized.Group("/messages")
		{
			messages.POST("", c.message.SendMessage)
			messages.GET("/history/:userId", c.message.GetChatHistory)
			messages.GET("/chats", c.message.GetChatList)
			messages.PUT("/read/:userId", c.message.MarkAsRead)
			messages.GET("/unread", c.message.UnreadCount)
		}

		presence := authorized.Group("/presence")
		{
			presence.GET("/online", c.presence.GetOnlineUsers)
			presence.GET("/:id", c.presence.GetPresence)
		}

		authorized.GET("/chat/ws", c.chat.HandleWS)
	}
}
