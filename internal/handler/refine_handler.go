package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"node-hierarchy-go/pkg/llm"
	"node-hierarchy-go/pkg/log"
	"node-hierarchy-go/pkg/token"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许所有来源
	},
}

// RefineHandler 负责处理查询精炼的 WebSocket 连接。
// 客户端发送一条待精炼的查询，服务端把大语言模型的改写结果流式写回。
type RefineHandler struct {
	llmClient  llm.Client
	jwtManager *token.JWTManager
}

// NewRefineHandler 创建一个新的 RefineHandler 实例。
func NewRefineHandler(llmClient llm.Client, jwtManager *token.JWTManager) *RefineHandler {
	return &RefineHandler{llmClient: llmClient, jwtManager: jwtManager}
}

// refineMessage 是客户端经 WebSocket 发来的一条精炼请求。
type refineMessage struct {
	Query string `json:"query"`
}

// Handle 处理一个传入的 WebSocket 连接。
// token 经 URL 参数传递，因为浏览器的 WebSocket API 不支持自定义请求头。
func (h *RefineHandler) Handle(c *gin.Context) {
	tokenString := c.Param("token")
	claims, err := h.jwtManager.VerifyToken(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": http.StatusUnauthorized, "message": "无效的 token", "data": nil})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("WebSocket 升级失败", err)
		return
	}
	defer conn.Close()

	log.Infof("查询精炼 WebSocket 连接已建立，用户: %s", claims.Username)

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			log.Warnf("从 WebSocket 读取消息失败: %v", err)
			break
		}

		var req refineMessage
		if err := json.Unmarshal(message, &req); err != nil || req.Query == "" {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"无效的精炼请求"}`))
			continue
		}

		messages := []llm.Message{
			llm.TextMessage("system", "你是一个搜索助手，负责把用户的口语化问题改写为精准的检索查询，并解释改写思路。"),
			llm.TextMessage("user", req.Query),
		}
		if err := h.llmClient.StreamChatMessages(c.Request.Context(), messages, nil, conn); err != nil {
			log.Errorf("查询精炼流式输出失败, query: '%s', error: %v", req.Query, err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"精炼失败"}`))
		}
	}
}
