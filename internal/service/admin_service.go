package service

import (
	"context"
	"errors"

	"node-hierarchy-go/internal/hierarchy"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/pkg/log"
)

// UserSummary 定义了用户列表项的结构。
type UserSummary struct {
	UserID    uint            `json:"userId"`
	Username  string          `json:"username"`
	Role      string          `json:"role"`
	CreatedAt model.LocalTime `json:"createdAt"`
}

// AdminService 接口定义了管理员专属的用户与权限管理操作。
type AdminService interface {
	ListUsers(page, size int) ([]UserSummary, int64, error)
	GetUserPermissions(userID uint) (map[int64]model.AccessLevel, error)
	GetNodePermissions(nodeID int64) ([]model.DocumentPermission, error)
	UpdateSubtreePermission(ctx context.Context, targetUserID uint, nodeID int64, level model.AccessLevel) (int, error)
}

type adminService struct {
	userRepo repository.UserRepository
	nodeRepo repository.NodeRepository
	permRepo repository.PermissionRepository
	cache    repository.NodeCache
}

// NewAdminService 创建一个新的 AdminService 实例。
func NewAdminService(userRepo repository.UserRepository, nodeRepo repository.NodeRepository, permRepo repository.PermissionRepository, cache repository.NodeCache) AdminService {
	return &adminService{
		userRepo: userRepo,
		nodeRepo: nodeRepo,
		permRepo: permRepo,
		cache:    cache,
	}
}

// ListUsers 分页返回用户列表。
func (s *adminService) ListUsers(page, size int) ([]UserSummary, int64, error) {
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 100 {
		size = 20
	}
	users, total, err := s.userRepo.FindWithPagination((page-1)*size, size)
	if err != nil {
		return nil, 0, err
	}

	summaries := make([]UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, UserSummary{
			UserID:    u.ID,
			Username:  u.Username,
			Role:      u.Role,
			CreatedAt: model.LocalTime(u.CreatedAt),
		})
	}
	return summaries, total, nil
}

// GetUserPermissions 返回某个用户的显式权限记录，按节点 ID 索引。
// 未出现在结果里的节点对该用户是默认的 read_only。
func (s *adminService) GetUserPermissions(userID uint) (map[int64]model.AccessLevel, error) {
	perms, err := s.permRepo.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	result := make(map[int64]model.AccessLevel, len(perms))
	for _, p := range perms {
		result[p.NodeID] = p.AccessLevel
	}
	return result, nil
}

// GetNodePermissions 返回某个节点及其全部子孙上所有用户的显式权限记录。
func (s *adminService) GetNodePermissions(nodeID int64) ([]model.DocumentPermission, error) {
	all, err := s.nodeRepo.FindAllOrdered()
	if err != nil {
		return nil, err
	}
	affected := hierarchy.AffectedSet(nodeID, all)
	if affected == nil {
		return nil, errors.New("节点不存在")
	}
	ids := make([]int64, 0, len(affected))
	for _, n := range affected {
		ids = append(ids, n.NodeID)
	}
	return s.permRepo.FindByNodeIDs(ids)
}

// UpdateSubtreePermission 把一个访问级别应用到目标节点及其全部子孙。
// level 为 none 时删除整个子树上的权限记录（回落到默认 read_only），
// 否则批量 upsert。两种路径都返回受影响的节点数。
// 持久化失败时不做任何内存侧修改，错误原样交还调用方。
func (s *adminService) UpdateSubtreePermission(ctx context.Context, targetUserID uint, nodeID int64, level model.AccessLevel) (int, error) {
	switch level {
	case model.AccessReadOnly, model.AccessFullAccess, model.AccessNone:
	default:
		return 0, errors.New("无效的访问级别")
	}

	target, err := s.userRepo.FindByID(targetUserID)
	if err != nil {
		return 0, errors.New("目标用户不存在")
	}
	if target.IsAdmin() {
		return 0, errors.New("管理员的权限不可修改")
	}

	all, err := s.nodeRepo.FindAllOrdered()
	if err != nil {
		return 0, err
	}
	affected := hierarchy.AffectedSet(nodeID, all)
	if affected == nil {
		return 0, errors.New("节点不存在")
	}

	if level == model.AccessNone {
		ids := make([]int64, 0, len(affected))
		for _, n := range affected {
			ids = append(ids, n.NodeID)
		}
		if err := s.permRepo.BulkDelete(targetUserID, ids); err != nil {
			log.Errorf("[AdminService] 撤销子树权限失败, userID: %d, nodeID: %d, error: %v", targetUserID, nodeID, err)
			return 0, err
		}
	} else {
		perms := make([]model.DocumentPermission, 0, len(affected))
		for _, n := range affected {
			perms = append(perms, model.DocumentPermission{
				NodeID:      n.NodeID,
				DocID:       n.DocID,
				UserID:      targetUserID,
				AccessLevel: level,
			})
		}
		if err := s.permRepo.BulkUpsert(perms); err != nil {
			log.Errorf("[AdminService] 授予子树权限失败, userID: %d, nodeID: %d, error: %v", targetUserID, nodeID, err)
			return 0, err
		}
	}

	// 目标用户的合并结果已过期
	if err := s.cache.Invalidate(ctx, targetUserID); err != nil {
		log.Warnf("[AdminService] 清除目标用户缓存失败, userID: %d, error: %v", targetUserID, err)
	}
	return len(affected), nil
}
