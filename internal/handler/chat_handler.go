package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"ai-mentor-go/internal/service"
	"ai-mentor-go/pkg/log"
	"ai-mentor-go/pkg/token"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// ChatHandler 负责聊天的两种流式出口：SSE 与 WebSocket。
// 两者共享同一个 ChatService，只是分块的封装格式不同。
type ChatHandler struct {
	chatService service.ChatService
	userService service.UserService
	verifier    *token.Verifier
}

// NewChatHandler 创建一个新的 ChatHandler。
func NewChatHandler(chatService service.ChatService, userService service.UserService, verifier *token.Verifier) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		userService: userService,
		verifier:    verifier,
	}
}

// sseWriter 把分块封装成 SSE 的 data 行并立即刷出。
type sseWriter struct {
	c     *gin.Context
	wrote bool
}

func (w *sseWriter) WriteChunk(data []byte) error {
	if !w.wrote {
		w.wrote = true
	}
	if _, err := fmt.Fprintf(w.c.Writer, "data: %s\n\n", data); err != nil {
		return err
	}
	w.c.Writer.Flush()
	return nil
}

// Stream 处理 POST /api/v1/chat：以 SSE 流式返回模型输出，
// 以 data: [DONE] 作为结束哨兵。
func (h *ChatHandler) Stream(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": "请求参数不合法: " + err.Error(),
			"data":    nil,
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	writer := &sseWriter{c: c}
	result, err := h.chatService.StreamTurn(c.Request.Context(), currentUser(c), req, writer)
	if err != nil {
		// 还没有写出任何分块时可以照常返回 JSON 错误
		if !writer.wrote {
			respondError(c, err)
			return
		}
		// 流已经开始：只能以 SSE 事件通知错误
		log.Errorf("聊天回合中途失败: %v", err)
		fmt.Fprintf(c.Writer, "data: %s\n\n", `{"error":"stream interrupted"}`)
	}

	if result != nil {
		meta, _ := json.Marshal(gin.H{
			"conversation_id": result.ConversationID,
			"message_id":      result.MessageID,
			"credits_left":    result.CreditsLeft,
		})
		fmt.Fprintf(c.Writer, "data: %s\n\n", meta)
	}
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

// wsChunkWriter 把分块封装成 {"chunk": ...} 的 JSON 帧。
type wsChunkWriter struct {
	conn *websocket.Conn
}

func (w *wsChunkWriter) WriteChunk(data []byte) error {
	frame, err := json.Marshal(map[string]string{"chunk": string(data)})
	if err != nil {
		return err
	}
	return w.conn.WriteMessage(websocket.TextMessage, frame)
}

// HandleWS 处理 GET /chat/:token 的 WebSocket 连接。
// 每条入站消息是一个聊天请求，出站是分块帧加一条 completion 通知。
func (h *ChatHandler) HandleWS(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.verifier.Verify(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), claims.Subject)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "用户不存在", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("WebSocket 连接已建立，用户: %s", user.ID)

	// 长连接的建立视作一次会话开始，记录登录活动
	if err := h.userService.TouchLastLogin(c.Request.Context(), user); err != nil {
		log.Warnf("记录登录活动失败: %v", err)
	}

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var req service.ChatRequest
		if err := json.Unmarshal(message, &req); err != nil || req.PersonaID == "" || req.Message == "" {
			errFrame, _ := json.Marshal(map[string]string{"error": "请求格式不合法"})
			_ = conn.WriteMessage(websocket.TextMessage, errFrame)
			continue
		}

		result, err := h.chatService.StreamTurn(c.Request.Context(), user, req, &wsChunkWriter{conn: conn})
		if err != nil {
			log.Errorf("处理流式响应失败: %v", err)
			errFrame, _ := json.Marshal(map[string]string{"error": errorMessage(err)})
			_ = conn.WriteMessage(websocket.TextMessage, errFrame)
		}

		// 与 SSE 的 [DONE] 对应：发送 completion 通知
		completion := map[string]interface{}{
			"type":      "completion",
			"status":    "finished",
			"timestamp": time.Now().UnixMilli(),
		}
		if result != nil {
			completion["conversation_id"] = result.ConversationID
			completion["message_id"] = result.MessageID
			completion["credits_left"] = result.CreditsLeft
		}
		frame, _ := json.Marshal(completion)
		_ = conn.WriteMessage(websocket.TextMessage, frame)
	}
}
