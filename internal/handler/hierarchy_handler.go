// Package handler 包含了处理 HTTP 请求的控制器逻辑。
package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// HierarchyHandler 结构体定义了层级视图相关的处理器。
type HierarchyHandler struct {
	hierarchyService service.HierarchyService
}

// NewHierarchyHandler 创建一个新的 HierarchyHandler 实例。
func NewHierarchyHandler(hierarchyService service.HierarchyService) *HierarchyHandler {
	return &HierarchyHandler{hierarchyService: hierarchyService}
}

// currentUser 从 Gin 上下文中取出 AuthMiddleware 放入的用户对象。
func currentUser(c *gin.Context) (*model.User, bool) {
	user, exists := c.Get("user")
	if !exists {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法获取用户信息"})
		return nil, false
	}
	u, ok := user.(*model.User)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "用户数据类型错误"})
		return nil, false
	}
	return u, true
}

// GetTree 返回当前用户视角下的层级树。
// 可选参数 tags 是逗号分隔的标签 ID 列表，传入时返回标签筛选后的子集；
// refresh=true 时绕过缓存强制从数据库重建。
func (h *HierarchyHandler) GetTree(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var tagIDs []int64
	if tagsParam := c.Query("tags"); tagsParam != "" {
		for _, part := range strings.Split(tagsParam, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "无效的标签参数"})
				return
			}
			tagIDs = append(tagIDs, id)
		}
	}
	forceRefresh := c.Query("refresh") == "true"

	tree, err := h.hierarchyService.LoadView(c.Request.Context(), user, tagIDs, forceRefresh)
	if err != nil {
		log.Errorf("[HierarchyHandler] 获取层级树失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取层级树失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tree, "message": "success"})
}

// saveViewRequest 是保存视图状态的请求体，expanded 是展开节点的 ID 集合。
type saveViewRequest struct {
	Expanded []int64 `json:"expanded"`
}

// SaveView 根据客户端上报的展开状态对账可见性并持久化。
func (h *HierarchyHandler) SaveView(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req saveViewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	expanded := make(map[int64]bool, len(req.Expanded))
	for _, id := range req.Expanded {
		expanded[id] = true
	}

	if err := h.hierarchyService.SaveView(c.Request.Context(), user, expanded); err != nil {
		log.Errorf("[HierarchyHandler] 保存视图状态失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存视图状态失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}
