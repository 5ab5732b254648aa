package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// TagHandler 结构体定义了标签管理与文件打标相关的处理器。
type TagHandler struct {
	tagService service.TagService
}

// NewTagHandler 创建一个新的 TagHandler 实例。
func NewTagHandler(tagService service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// tagRequest 是创建和更新标签共用的请求体。
type tagRequest struct {
	Name     string `json:"name" binding:"required"`
	ParentID *int64 `json:"parentId"`
}

// Create 创建一个新标签。
func (h *TagHandler) Create(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	tag, err := h.tagService.CreateTag(req.Name, req.ParentID)
	if err != nil {
		log.Errorf("[TagHandler] 创建标签失败, name: %s, error: %v", req.Name, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tag, "message": "success"})
}

// Update 更新标签的名称或父级。
func (h *TagHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的标签 ID"})
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	tag, err := h.tagService.UpdateTag(id, req.Name, req.ParentID)
	if err != nil {
		log.Errorf("[TagHandler] 更新标签失败, id: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tag, "message": "success"})
}

// Delete 删除一个标签。
func (h *TagHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的标签 ID"})
		return
	}

	if err := h.tagService.DeleteTag(id); err != nil {
		log.Errorf("[TagHandler] 删除标签失败, id: %d, error: %v", id, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": nil, "message": "success"})
}

// GetTree 返回完整的标签树。
func (h *TagHandler) GetTree(c *gin.Context) {
	tree, err := h.tagService.GetTagTree()
	if err != nil {
		log.Errorf("[TagHandler] 获取标签树失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取标签树失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tree, "message": "success"})
}

// GetFileTags 返回某个文件当前被标注的标签列表。
func (h *TagHandler) GetFileTags(c *gin.Context) {
	filePath := c.Query("filePath")
	if filePath == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "filePath 参数不能为空"})
		return
	}

	tags, err := h.tagService.GetFileTags(filePath)
	if err != nil {
		log.Errorf("[TagHandler] 获取文件标注失败, filePath: %s, error: %v", filePath, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取文件标注失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": tags, "message": "success"})
}

// GetTaggedFiles 返回被给定标签标注过的文件路径列表。
// tags 参数为逗号分隔的标签 ID 列表。
func (h *TagHandler) GetTaggedFiles(c *gin.Context) {
	raw := c.Query("tags")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tags 参数不能为空"})
		return
	}
	var tagIDs []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的标签 ID: " + part})
			return
		}
		tagIDs = append(tagIDs, id)
	}

	files, err := h.tagService.GetTaggedFiles(tagIDs)
	if err != nil {
		log.Errorf("[TagHandler] 获取标签文件列表失败, tags: %v, error: %v", tagIDs, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取标签文件列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": files, "message": "success"})
}

// saveAllRequest 是批量打标的请求体。
type saveAllRequest struct {
	Items []service.FileClassification `json:"items" binding:"required"`
}

// SaveAll 批量保存多个文件的标注。整体尽力而为：
// 返回 200 并携带成功数量与失败明细，只要服务本身没有崩溃。
func (h *TagHandler) SaveAll(c *gin.Context) {
	var req saveAllRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	saved, failed, err := h.tagService.SaveAllClassifications(req.Items)
	if err != nil {
		log.Errorf("[TagHandler] 批量打标失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "批量打标失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"saved": saved, "failed": failed}, "message": "success"})
}
