package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/pkg/log"
	"node-hierarchy-go/pkg/storage"
)

// FileHandler 结构体定义了对象存储文件相关的处理器。
// 打标页面需要列出存储中的文件；节点附件通过预签名 URL 访问。
type FileHandler struct {
	bucketName string
}

// NewFileHandler 创建一个新的 FileHandler 实例。
func NewFileHandler(cfg config.MinIOConfig) *FileHandler {
	return &FileHandler{bucketName: cfg.BucketName}
}

// List 列出存储桶中指定前缀下的对象。
func (h *FileHandler) List(c *gin.Context) {
	prefix := c.Query("prefix")

	objects, err := storage.ListObjects(c.Request.Context(), h.bucketName, prefix)
	if err != nil {
		log.Errorf("[FileHandler] 列出存储对象失败, prefix: %s, error: %v", prefix, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "列出文件失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": objects, "message": "success"})
}

// Upload 把一个文件上传到存储桶。
func (h *FileHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "未找到上传文件"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "读取上传文件失败"})
		return
	}
	defer file.Close()

	objectName := c.DefaultPostForm("path", fileHeader.Filename)
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := storage.UploadObject(c.Request.Context(), h.bucketName, objectName, file, fileHeader.Size, contentType); err != nil {
		log.Errorf("[FileHandler] 上传文件失败, objectName: %s, error: %v", objectName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "上传文件失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"path": objectName}, "message": "success"})
}

// PresignedURL 为一个存储对象签发限时访问链接。
func (h *FileHandler) PresignedURL(c *gin.Context) {
	objectName := c.Query("path")
	if objectName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path 参数不能为空"})
		return
	}

	url, err := storage.GetPresignedURL(h.bucketName, objectName, 24*time.Hour)
	if err != nil {
		log.Errorf("[FileHandler] 签发预签名链接失败, path: %s, error: %v", objectName, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "签发访问链接失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"url": url}, "message": "success"})
}
