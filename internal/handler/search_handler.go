package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// SearchHandler 结构体定义了搜索相关的处理器。
type SearchHandler struct {
	searchService    service.SearchService
	hierarchyService service.HierarchyService
}

// NewSearchHandler 创建一个新的 SearchHandler 实例。
func NewSearchHandler(searchService service.SearchService, hierarchyService service.HierarchyService) *SearchHandler {
	return &SearchHandler{
		searchService:    searchService,
		hierarchyService: hierarchyService,
	}
}

// HybridSearch 是处理混合搜索请求的 Gin 处理函数。
func (h *SearchHandler) HybridSearch(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}
	topK, err := strconv.Atoi(c.DefaultQuery("topK", "10"))
	if err != nil || topK <= 0 {
		topK = 10
	}

	results, err := h.searchService.HybridSearch(c.Request.Context(), query, topK)
	if err != nil {
		log.Errorf("[SearchHandler] 混合搜索服务返回错误, query: '%s', error: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": results, "message": "success"})
}

// SearchTree 是在当前用户可见层级内做搜索并返回命中子树的 Gin 处理函数。
// 命中节点连同其祖先一起返回，保证前端拿到的仍是完整的树结构。
func (h *SearchHandler) SearchTree(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "用户未认证"})
		return
	}
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的查询参数"})
		return
	}
	topK, err := strconv.Atoi(c.DefaultQuery("topK", "10"))
	if err != nil || topK <= 0 {
		topK = 10
	}

	nodes, err := h.hierarchyService.VisibleNodes(c.Request.Context(), user)
	if err != nil {
		log.Errorf("[SearchHandler] 获取用户可见节点失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}
	tree, err := h.searchService.FilterTree(c.Request.Context(), query, topK, nodes)
	if err != nil {
		log.Errorf("[SearchHandler] 层级内搜索失败, query: '%s', error: %v", query, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "搜索失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tree, "message": "success"})
}
