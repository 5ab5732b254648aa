package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// ArtifactHandler 结构体定义了制品生成任务相关的处理器。
type ArtifactHandler struct {
	artifactService service.ArtifactService
}

// NewArtifactHandler 创建一个新的 ArtifactHandler 实例。
func NewArtifactHandler(artifactService service.ArtifactService) *ArtifactHandler {
	return &ArtifactHandler{artifactService: artifactService}
}

// Request 发起一次制品生成任务，返回可供后续查询的任务记录。
func (h *ArtifactHandler) Request(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var params service.RequestArtifactParams
	if err := c.ShouldBindJSON(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	task, err := h.artifactService.RequestArtifact(c.Request.Context(), user.ID, params)
	if err != nil {
		log.Errorf("[ArtifactHandler] 发起制品生成失败, nodeID: %d, error: %v", params.NodeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": task, "message": "success"})
}

// GetTask 查询单个任务的当前状态。
func (h *ArtifactHandler) GetTask(c *gin.Context) {
	taskID := c.Param("taskId")
	task, err := h.artifactService.GetTask(c.Request.Context(), taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": task, "message": "success"})
}

// ListTasks 返回当前用户的全部任务。
func (h *ArtifactHandler) ListTasks(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	tasks, err := h.artifactService.ListTasks(c.Request.Context(), user.ID)
	if err != nil {
		log.Errorf("[ArtifactHandler] 获取任务列表失败, userID: %d, error: %v", user.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取任务列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tasks, "message": "success"})
}
