// Package service 包含了应用的业务逻辑层。
package service

import (
	"context"
	"sync"

	"node-hierarchy-go/internal/hierarchy"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/pkg/log"
)

// HierarchyService 接口定义了层级视图的读取与保存操作。
type HierarchyService interface {
	LoadView(ctx context.Context, user *model.User, tagIDs []int64, forceRefresh bool) ([]*model.NodeTreeItem, error)
	VisibleNodes(ctx context.Context, user *model.User) ([]model.DocumentNode, error)
	SaveView(ctx context.Context, user *model.User, expanded map[int64]bool) error
}

type hierarchyService struct {
	nodeRepo repository.NodeRepository
	permRepo repository.PermissionRepository
	cache    repository.NodeCache
}

// NewHierarchyService 创建一个新的 HierarchyService 实例。
func NewHierarchyService(nodeRepo repository.NodeRepository, permRepo repository.PermissionRepository, cache repository.NodeCache) HierarchyService {
	return &hierarchyService{
		nodeRepo: nodeRepo,
		permRepo: permRepo,
		cache:    cache,
	}
}

// LoadView 返回当前用户视角下的层级树。
// 流程：取节点列表（无标签筛选时走缓存）-> 合并权限 -> 组树。
// 标签筛选激活时绕过缓存，因为筛选后的子集不该污染全量缓存。
func (s *hierarchyService) LoadView(ctx context.Context, user *model.User, tagIDs []int64, forceRefresh bool) ([]*model.NodeTreeItem, error) {
	if forceRefresh {
		if err := s.cache.Invalidate(ctx, user.ID); err != nil {
			log.Warnf("[HierarchyService] 强制刷新时清除缓存失败, userID: %d, error: %v", user.ID, err)
		}
	}

	if len(tagIDs) == 0 {
		merged, err := s.VisibleNodes(ctx, user)
		if err != nil {
			return nil, err
		}
		return hierarchy.DisplayTree(merged), nil
	}

	nodes, perms, err := s.fetchNodesAndPerms(user, tagIDs)
	if err != nil {
		return nil, err
	}
	merged := hierarchy.MergeAccessLevels(nodes, user.IsAdmin(), perms)
	return hierarchy.DisplayTree(merged), nil
}

// VisibleNodes 返回当前用户视角下的全量节点平铺列表（已合并权限）。
// 无标签筛选的读路径都走这里，命中缓存时直接返回，否则回源并回填。
func (s *hierarchyService) VisibleNodes(ctx context.Context, user *model.User) ([]model.DocumentNode, error) {
	if cached, hit, err := s.cache.Get(ctx, user.ID); err == nil && hit {
		return cached, nil
	} else if err != nil {
		log.Warnf("[HierarchyService] 读取节点缓存失败，回退到数据库, userID: %d, error: %v", user.ID, err)
	}

	nodes, perms, err := s.fetchNodesAndPerms(user, nil)
	if err != nil {
		return nil, err
	}
	merged := hierarchy.MergeAccessLevels(nodes, user.IsAdmin(), perms)

	if err := s.cache.Set(ctx, user.ID, merged); err != nil {
		log.Warnf("[HierarchyService] 写入节点缓存失败, userID: %d, error: %v", user.ID, err)
	}
	return merged, nil
}

// fetchNodesAndPerms 并发获取节点列表与权限列表，两者互不依赖。
// tagIDs 非空时只取标签命中的节点子集；管理员跳过权限查询。
func (s *hierarchyService) fetchNodesAndPerms(user *model.User, tagIDs []int64) ([]model.DocumentNode, []model.DocumentPermission, error) {
	var (
		wg       sync.WaitGroup
		nodes    []model.DocumentNode
		perms    []model.DocumentPermission
		nodesErr error
		permsErr error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if len(tagIDs) > 0 {
			nodes, nodesErr = s.nodeRepo.FindByTagIDs(tagIDs)
		} else {
			nodes, nodesErr = s.nodeRepo.FindAllOrdered()
		}
	}()
	go func() {
		defer wg.Done()
		if user.IsAdmin() {
			return
		}
		perms, permsErr = s.permRepo.FindByUserID(user.ID)
	}()
	wg.Wait()

	if nodesErr != nil {
		return nil, nil, nodesErr
	}
	if permsErr != nil {
		return nil, nil, permsErr
	}
	return nodes, perms, nil
}

// SaveView 根据客户端上报的展开状态对账可见性并持久化。
// 只有当前用户拥有 full_access 的节点会进入写批；
// 持久化失败时不做任何内存侧的乐观修改，直接把错误交还调用方。
func (s *hierarchyService) SaveView(ctx context.Context, user *model.User, expanded map[int64]bool) error {
	nodes, err := s.nodeRepo.FindAllOrdered()
	if err != nil {
		return err
	}

	var perms []model.DocumentPermission
	if !user.IsAdmin() {
		perms, err = s.permRepo.FindByUserID(user.ID)
		if err != nil {
			return err
		}
	}
	merged := hierarchy.MergeAccessLevels(nodes, user.IsAdmin(), perms)

	result := hierarchy.ReconcileVisibility(merged, expanded)
	if len(result.Updates) == 0 {
		return nil
	}

	if err := s.nodeRepo.BulkUpsert(result.Updates); err != nil {
		log.Errorf("[HierarchyService] 保存可见性状态失败, userID: %d, error: %v", user.ID, err)
		return err
	}

	// 节点状态已变化，所有用户的缓存都过期了
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warnf("[HierarchyService] 保存后清除缓存失败: %v", err)
	}
	return nil
}
