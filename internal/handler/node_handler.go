package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// NodeHandler 结构体定义了节点增删改相关的处理器。
type NodeHandler struct {
	nodeService  service.NodeService
	indexService service.IndexService
}

// NewNodeHandler 创建一个新的 NodeHandler 实例。
func NewNodeHandler(nodeService service.NodeService, indexService service.IndexService) *NodeHandler {
	return &NodeHandler{nodeService: nodeService, indexService: indexService}
}

// Create 创建一个新节点。
func (h *NodeHandler) Create(c *gin.Context) {
	var req service.CreateNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	node, err := h.nodeService.Create(c.Request.Context(), req)
	if err != nil {
		log.Errorf("[NodeHandler] 创建节点失败, title: %s, error: %v", req.Title, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.indexService.IndexNode(c.Request.Context(), node)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": node, "message": "success"})
}

// Update 对节点做部分更新，请求体中未出现的字段保持不变。
func (h *NodeHandler) Update(c *gin.Context) {
	nodeID, err := strconv.ParseInt(c.Param("nodeId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的节点 ID"})
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	node, err := h.nodeService.Update(c.Request.Context(), nodeID, fields)
	if err != nil {
		log.Errorf("[NodeHandler] 更新节点失败, nodeID: %d, error: %v", nodeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.indexService.IndexNode(c.Request.Context(), node)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": node, "message": "success"})
}

// Delete 删除一个节点及其全部子孙。
func (h *NodeHandler) Delete(c *gin.Context) {
	nodeID, err := strconv.ParseInt(c.Param("nodeId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的节点 ID"})
		return
	}

	if err := h.nodeService.Delete(c.Request.Context(), nodeID); err != nil {
		log.Errorf("[NodeHandler] 删除节点失败, nodeID: %d, error: %v", nodeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.indexService.RemoveNode(c.Request.Context(), nodeID)
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// reorderRequest 是同级重排的请求体，orderedIds 按期望顺序列出全部同级节点。
type reorderRequest struct {
	ParentNodeID *int64  `json:"parentNodeId"`
	OrderedIDs   []int64 `json:"orderedIds" binding:"required"`
}

// Reorder 按给定顺序重排一组同级节点。
func (h *NodeHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	if err := h.nodeService.ReorderSiblings(c.Request.Context(), req.ParentNodeID, req.OrderedIDs); err != nil {
		log.Errorf("[NodeHandler] 重排节点失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// importRequest 是层级导入的请求体。
type importRequest struct {
	ParentNodeID *int64               `json:"parentNodeId"`
	Nodes        []service.ImportNode `json:"nodes" binding:"required"`
}

// Import 把一段嵌套的 JSON 层级导入为节点子树。
func (h *NodeHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	count, err := h.nodeService.ImportHierarchy(c.Request.Context(), req.ParentNodeID, req.Nodes)
	if err != nil {
		log.Errorf("[NodeHandler] 导入层级失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"created": count}, "message": "success"})
}
