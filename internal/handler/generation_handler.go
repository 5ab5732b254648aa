package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// GenerationHandler 结构体定义了内容生成相关的处理器。
type GenerationHandler struct {
	generationService service.GenerationService
}

// NewGenerationHandler 创建一个新的 GenerationHandler 实例。
func NewGenerationHandler(generationService service.GenerationService) *GenerationHandler {
	return &GenerationHandler{generationService: generationService}
}

// titlesFromImageRequest 是图片标题提取的请求体，图片以 base64 编码上传。
type titlesFromImageRequest struct {
	MimeType    string `json:"mimeType" binding:"required"`
	Base64Image string `json:"base64Image" binding:"required"`
}

// TitlesFromImage 从一张图片中提取候选节点标题列表。
func (h *GenerationHandler) TitlesFromImage(c *gin.Context) {
	var req titlesFromImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	titles, err := h.generationService.TitlesFromImage(c.Request.Context(), req.MimeType, req.Base64Image)
	if err != nil {
		log.Errorf("[GenerationHandler] 图片标题提取失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": titles, "message": "success"})
}

// descriptionRequest 是描述生成的请求体。
type descriptionRequest struct {
	Title      string `json:"title" binding:"required"`
	Background string `json:"background"`
}

// GenerateDescription 为一个节点标题生成简短描述。
func (h *GenerationHandler) GenerateDescription(c *gin.Context) {
	var req descriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	desc, err := h.generationService.GenerateDescription(c.Request.Context(), req.Title, req.Background)
	if err != nil {
		log.Errorf("[GenerationHandler] 生成描述失败, title: %s, error: %v", req.Title, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"description": desc}, "message": "success"})
}

// hierarchyRequest 是层级大纲生成的请求体。
type hierarchyRequest struct {
	Topic string `json:"topic" binding:"required"`
	Depth int    `json:"depth"`
}

// GenerateHierarchy 围绕一个主题生成嵌套的层级草稿。
func (h *GenerationHandler) GenerateHierarchy(c *gin.Context) {
	var req hierarchyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	nodes, err := h.generationService.GenerateHierarchy(c.Request.Context(), req.Topic, req.Depth)
	if err != nil {
		log.Errorf("[GenerationHandler] 生成层级大纲失败, topic: %s, error: %v", req.Topic, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nodes, "message": "success"})
}
