package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/service"
	"node-hierarchy-go/pkg/log"
)

// AdminHandler 结构体定义了管理员专属的处理器。
type AdminHandler struct {
	adminService service.AdminService
}

// NewAdminHandler 创建一个新的 AdminHandler 实例。
func NewAdminHandler(adminService service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// ListUsers 分页返回用户列表。
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))

	users, total, err := h.adminService.ListUsers(page, size)
	if err != nil {
		log.Errorf("[AdminHandler] 获取用户列表失败, error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取用户列表失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"users": users, "total": total}, "message": "success"})
}

// GetUserPermissions 返回某个用户的显式权限记录。
func (h *AdminHandler) GetUserPermissions(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("userId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的用户 ID"})
		return
	}

	perms, err := h.adminService.GetUserPermissions(uint(userID))
	if err != nil {
		log.Errorf("[AdminHandler] 获取用户权限失败, userID: %d, error: %v", userID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "获取用户权限失败"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": perms, "message": "success"})
}

// GetNodePermissions 返回某个节点及其子孙上所有用户的显式权限记录。
func (h *AdminHandler) GetNodePermissions(c *gin.Context) {
	nodeID, err := strconv.ParseInt(c.Param("nodeId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的节点 ID"})
		return
	}

	perms, err := h.adminService.GetNodePermissions(nodeID)
	if err != nil {
		log.Errorf("[AdminHandler] 获取节点权限失败, nodeID: %d, error: %v", nodeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": perms, "message": "success"})
}

// subtreePermissionRequest 是子树权限变更的请求体。
// accessLevel 为 none 时撤销整个子树上的显式权限。
type subtreePermissionRequest struct {
	UserID      uint              `json:"userId" binding:"required"`
	NodeID      int64             `json:"nodeId" binding:"required"`
	AccessLevel model.AccessLevel `json:"accessLevel" binding:"required"`
}

// UpdateSubtreePermission 把一个访问级别应用到目标节点及其全部子孙。
func (h *AdminHandler) UpdateSubtreePermission(c *gin.Context) {
	var req subtreePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求参数"})
		return
	}

	affected, err := h.adminService.UpdateSubtreePermission(c.Request.Context(), req.UserID, req.NodeID, req.AccessLevel)
	if err != nil {
		log.Errorf("[AdminHandler] 更新子树权限失败, userID: %d, nodeID: %d, error: %v", req.UserID, req.NodeID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 200, "data": gin.H{"affected": affected}, "message": "success"})
}
