package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"chatlink_backend/internal/model"
	"chatlink_backend/internal/repository"
	"chatlink_backend/internal/util"
	"chatlink_backend/pkg/logger"
	"chatlink_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	shardCount     = 32
	pubSubChannel  = "chat_channel"
)

var messagePool = sync.Pool{
	New: func() interface{} {
		return &WSMessage{}
	},
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage WebSocket 帧格式，上下行共用
type WSMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type Client struct {
	Hub     *ChatHub
	Conn    *websocket.Conn
	Send    chan []byte
	UserID  uint
	Limiter *rate.Limiter

	sendMu sync.Mutex
	closed bool
}

// trySend 非阻塞投递。连接已关闭或缓冲满时丢弃，返回是否入队。
func (c *Client) trySend(payload []byte) bool {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// closeSend 幂等关闭发送通道，和 trySend 互斥避免向已关闭通道写入。
func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.Send)
}

func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error { c.Conn.SetReadDeadline(time.Now().Add(pongWait)); return nil })
	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Log.Error("WebSocket unexpected close", zap.Error(err), zap.Uint("userId", c.UserID))
			}
			break
		}

		// 限流校验 (每秒最多 30 条消息，允许突发 50 条)
		if !c.Limiter.Allow() {
			continue
		}

		wsMsg := messagePool.Get().(*WSMessage)
		if err := json.Unmarshal(message, wsMsg); err != nil {
			messagePool.Put(wsMsg)
			continue
		}

		monitoring.IMMessageCounter.WithLabelValues(wsMsg.Type, "in").Inc()

		switch wsMsg.Type {
		case "SEND_MESSAGE":
			c.Hub.handleSendMessage(c, *wsMsg)
		case "SUBSCRIBE":
			c.Hub.handleSubscribe(c, *wsMsg)
		}
		messagePool.Put(wsMsg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			// 每条消息独立成帧，客户端按帧解析 JSON
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
			for i := len(c.Send); i > 0; i-- {
				c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					return
				}
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

type shard struct {
	clients map[uint]*Client
	mu      sync.RWMutex
}

// ChatHub 实时消息路由。连接按用户 ID 分片持有，
// 跨实例投递通过 Redis Pub/Sub，单实例部署同样走这条路径。
type ChatHub struct {
	shards     [shardCount]*shard
	register   chan *Client
	unregister chan *Client
	Redis      *redis.Client

	MessageService *MessageService
	FriendRepo     *repository.FriendshipRepository
	GroupRepo      *repository.GroupRepository
	Presence       *PresenceService

	ctx    context.Context
	cancel context.CancelFunc
}

func NewChatHub(rdb *redis.Client, messageService *MessageService, friendRepo *repository.FriendshipRepository, groupRepo *repository.GroupRepository, presence *PresenceService) *ChatHub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &ChatHub{
		register:       make(chan *Client),
		unregister:     make(chan *Client),
		Redis:          rdb,
		MessageService: messageService,
		FriendRepo:     friendRepo,
		GroupRepo:      groupRepo,
		Presence:       presence,
		ctx:            ctx,
		cancel:         cancel,
	}
	for i := 0; i < shardCount; i++ {
		h.shards[i] = &shard{
			clients: make(map[uint]*Client),
		}
	}
	return h
}

func (h *ChatHub) getShard(userID uint) *shard {
	return h.shards[userID%shardCount]
}

// PubSubMessage 实例间转发的信封，Payload 为已序列化的 WSMessage
type PubSubMessage struct {
	TargetUsers []uint          `json:"targetUsers"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *ChatHub) Run() {
	pubsub := h.Redis.Subscribe(h.ctx, pubSubChannel)
	go func() {
		ch := pubsub.Channel()
		for msg := range ch {
			var psMsg PubSubMessage
			if err := json.Unmarshal([]byte(msg.Payload), &psMsg); err != nil {
				logger.Log.Error("PubSub unmarshal error", zap.Error(err))
				continue
			}
			h.pushToLocalRawUsers(psMsg.TargetUsers, psMsg.Payload)
		}
	}()

	// 在线状态续期定时器
	heartbeatTicker := time.NewTicker(1 * time.Minute)
	defer heartbeatTicker.Stop()

	for {
		select {
		case client := <-h.register:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			old := s.clients[client.UserID]
			s.clients[client.UserID] = client
			s.mu.Unlock()
			// 同一用户重复连接时旧连接让位
			if old != nil {
				old.closeSend()
			} else {
				monitoring.IMOnlineConnections.Inc()
			}
			if err := h.Presence.SetOnline(client.UserID); err != nil {
				logger.Log.Warn("标记在线失败", zap.Uint("userId", client.UserID), zap.Error(err))
			}

		case client := <-h.unregister:
			s := h.getShard(client.UserID)
			s.mu.Lock()
			current, ok := s.clients[client.UserID]
			if ok && current == client {
				delete(s.clients, client.UserID)
				client.closeSend()
			} else {
				ok = false
			}
			s.mu.Unlock()
			if ok {
				monitoring.IMOnlineConnections.Dec()
				if err := h.Presence.SetOffline(client.UserID); err != nil {
					logger.Log.Warn("标记离线失败", zap.Uint("userId", client.UserID), zap.Error(err))
				}
			}

		case <-heartbeatTicker.C:
			h.refreshOnlineStatus()

		case <-h.ctx.Done():
			return
		}
	}
}

// refreshOnlineStatus 为本实例持有的连接批量续期在线标记
func (h *ChatHub) refreshOnlineStatus() {
	count := 0
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.RLock()
		for userID := range s.clients {
			if err := h.Presence.SetOnline(userID); err != nil {
				logger.Log.Warn("在线续期失败", zap.Uint("userId", userID), zap.Error(err))
				continue
			}
			count++
		}
		s.mu.RUnlock()
	}
	if count > 0 {
		logger.Log.Debug("Refreshed online status", zap.Int("count", count))
	}
}

type sendMessagePayload struct {
	ReceiverID uint   `json:"receiverId"`
	GroupID    uint   `json:"groupId"`
	Content    string `json:"content"`
	Type       string `json:"type"`
}

// handleSendMessage 处理上行消息帧：落库后向接收方(和发送方其他端)推送 NEW_MESSAGE
func (h *ChatHub) handleSendMessage(c *Client, frame WSMessage) {
	raw, err := json.Marshal(frame.Data)
	if err != nil {
		return
	}
	var payload sendMessagePayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		h.sendError(c, "invalid payload")
		return
	}

	msgType := model.NormalizeMessageType(payload.Type)

	var (
		msg     *model.Message
		targets []uint
	)
	switch {
	case payload.GroupID != 0:
		msg, err = h.MessageService.SendGroup(c.UserID, payload.GroupID, payload.Content, msgType)
		if err == nil {
			targets, err = h.GroupRepo.MemberIDsCached(payload.GroupID)
		}
	case payload.ReceiverID != 0:
		var ok bool
		ok, err = h.FriendRepo.AreFriends(c.UserID, payload.ReceiverID)
		if err == nil && !ok {
			err = util.ErrNotFriends
		}
		if err == nil {
			msg, err = h.MessageService.SendDirect(c.UserID, payload.ReceiverID, payload.Content, msgType)
			targets = []uint{payload.ReceiverID, c.UserID}
		}
	default:
		h.sendError(c, "missing receiverId or groupId")
		return
	}

	if err != nil {
		h.sendError(c, err.Error())
		return
	}

	h.PushToUsers(targets, WSMessage{Type: "NEW_MESSAGE", Data: msg})
}

type subscribePayload struct {
	UserID uint `json:"userId"`
}

// handleSubscribe 订阅个人主题。只允许订阅自己，群消息由服务端按成员直推，
// 不暴露群级主题。
func (h *ChatHub) handleSubscribe(c *Client, frame WSMessage) {
	raw, err := json.Marshal(frame.Data)
	if err != nil {
		return
	}
	var payload subscribePayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.UserID != c.UserID {
		h.sendError(c, "subscribe rejected")
		return
	}
	h.sendLocal(c, WSMessage{
		Type: "SUBSCRIBED",
		Data: map[string]interface{}{"status": "connected"},
	})
}

func (h *ChatHub) sendError(c *Client, reason string) {
	h.sendLocal(c, WSMessage{
		Type: "ERROR",
		Data: map[string]interface{}{"message": reason},
	})
}

func (h *ChatHub) sendLocal(c *Client, msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	c.trySend(data)
}

// PushToUsers 向目标用户推送，经 Pub/Sub 广播给所有实例
func (h *ChatHub) PushToUsers(userIDs []uint, msg WSMessage) {
	msgBytes, _ := json.Marshal(msg)
	psMsg := PubSubMessage{
		TargetUsers: userIDs,
		Payload:     msgBytes,
	}
	payload, _ := json.Marshal(psMsg)
	h.Redis.Publish(h.ctx, pubSubChannel, payload)
	monitoring.IMMessageCounter.WithLabelValues(msg.Type, "out").Inc()
}

func (h *ChatHub) pushToLocalRawUsers(userIDs []uint, payload []byte) {
	if len(userIDs) == 0 {
		return
	}
	for _, id := range userIDs {
		s := h.getShard(id)
		s.mu.RLock()
		client, ok := s.clients[id]
		s.mu.RUnlock()
		if ok {
			client.trySend(payload)
		}
	}
}

// IsUserOnline 先看本地分片，再查在线标记兼容多实例部署
func (h *ChatHub) IsUserOnline(userID uint) bool {
	s := h.getShard(userID)
	s.mu.RLock()
	_, ok := s.clients[userID]
	s.mu.RUnlock()
	if ok {
		return true
	}

	online, err := h.Presence.IsOnline(userID)
	return err == nil && online
}

// Stop 关闭所有连接并清理在线状态
func (h *ChatHub) Stop() {
	logger.Log.Info("ChatHub stopping: clearing online status and closing connections...")
	h.cancel()

	var allUserIDs []uint
	for i := 0; i < shardCount; i++ {
		s := h.shards[i]
		s.mu.Lock()
		for userID, client := range s.clients {
			allUserIDs = append(allUserIDs, userID)
			client.closeSend()
			delete(s.clients, userID)
		}
		s.mu.Unlock()
	}

	for _, userID := range allUserIDs {
		if err := h.Presence.SetOffline(userID); err != nil {
			logger.Log.Warn("清理在线状态失败", zap.Uint("userId", userID), zap.Error(err))
		}
	}

	monitoring.IMOnlineConnections.Set(0)
	logger.Log.Info("ChatHub stopped", zap.Int("closedConnections", len(allUserIDs)))
}

func ServeWs(hub *ChatHub, w http.ResponseWriter, r *http.Request, userID uint) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Error("WebSocket upgrade failed", zap.Error(err), zap.Uint("userId", userID))
		return
	}
	client := &Client{
		Hub:     hub,
		Conn:    conn,
		Send:    make(chan []byte, 256),
		UserID:  userID,
		Limiter: rate.NewLimiter(rate.Limit(30), 50),
	}
	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}
