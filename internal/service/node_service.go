package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"node-hierarchy-go/internal/hierarchy"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/pkg/log"
)

// CreateNodeRequest 是创建单个节点的请求参数。
type CreateNodeRequest struct {
	ParentNodeID *int64  `json:"parentNodeId"`
	Title        string  `json:"title" binding:"required"`
	Text         string  `json:"text"`
	Type         string  `json:"type"`
	URL          string  `json:"url"`
	URLType      *string `json:"urltype"`
}

// ImportNode 是递归层级导入时的单个条目，ChildNodes 可以任意嵌套。
type ImportNode struct {
	Title      string       `json:"title" binding:"required"`
	Text       string       `json:"text"`
	Type       string       `json:"type"`
	URL        string       `json:"url"`
	URLType    *string      `json:"urltype"`
	ChildNodes []ImportNode `json:"childNodes"`
}

// NodeService 接口定义了节点的增删改与结构调整操作。
type NodeService interface {
	Create(ctx context.Context, req CreateNodeRequest) (*model.DocumentNode, error)
	Update(ctx context.Context, nodeID int64, fields map[string]interface{}) (*model.DocumentNode, error)
	Delete(ctx context.Context, nodeID int64) error
	ReorderSiblings(ctx context.Context, parentNodeID *int64, orderedIDs []int64) error
	ImportHierarchy(ctx context.Context, parentNodeID *int64, roots []ImportNode) (int, error)
}

type nodeService struct {
	nodeRepo repository.NodeRepository
	permRepo repository.PermissionRepository
	cache    repository.NodeCache
}

// NewNodeService 创建一个新的 NodeService 实例。
func NewNodeService(nodeRepo repository.NodeRepository, permRepo repository.PermissionRepository, cache repository.NodeCache) NodeService {
	return &nodeService{nodeRepo: nodeRepo, permRepo: permRepo, cache: cache}
}

// Create 创建一个新节点。节点 ID 取当前最大值加一，
// 排序号取同级最大值加一，层级为父层级加一（根节点为 0）。
func (s *nodeService) Create(ctx context.Context, req CreateNodeRequest) (*model.DocumentNode, error) {
	maxID, err := s.nodeRepo.MaxNodeID()
	if err != nil {
		return nil, err
	}

	level := 0
	if req.ParentNodeID != nil && *req.ParentNodeID > 0 {
		parent, err := s.nodeRepo.FindByID(*req.ParentNodeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("父节点不存在")
			}
			return nil, err
		}
		level = parent.Level + 1
	}

	order, err := s.nodeRepo.NextChildOrder(req.ParentNodeID)
	if err != nil {
		return nil, err
	}

	node := &model.DocumentNode{
		NodeID:       maxID + 1,
		ParentNodeID: req.ParentNodeID,
		DocID:        1,
		Order:        order,
		Level:        level,
		Title:        req.Title,
		Text:         req.Text,
		Type:         req.Type,
		URL:          req.URL,
		URLType:      req.URLType,
		Visible:      true,
	}
	if err := s.nodeRepo.Create(node); err != nil {
		return nil, err
	}

	// 父节点有了子节点，刷新它的 children 标志
	if req.ParentNodeID != nil && *req.ParentNodeID > 0 {
		if err := s.nodeRepo.SetChildrenFlag(*req.ParentNodeID, true); err != nil {
			log.Warnf("[NodeService] 刷新父节点 children 标志失败, nodeID: %d, error: %v", *req.ParentNodeID, err)
		}
	}

	s.invalidateCache(ctx)
	return node, nil
}

// Update 对节点做部分更新，请求中未出现的字段保持不变。
func (s *nodeService) Update(ctx context.Context, nodeID int64, fields map[string]interface{}) (*model.DocumentNode, error) {
	if _, err := s.nodeRepo.FindByID(nodeID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("节点不存在")
		}
		return nil, err
	}
	// 访问级别与主键不接受客户端写入
	delete(fields, "node_id")
	delete(fields, "access_level")
	delete(fields, "accessLevel")

	if len(fields) > 0 {
		if err := s.nodeRepo.UpdateFields(nodeID, fields); err != nil {
			return nil, err
		}
	}
	s.invalidateCache(ctx)
	return s.nodeRepo.FindByID(nodeID)
}

// Delete 删除一个节点及其全部子孙，连同它们的权限记录。
func (s *nodeService) Delete(ctx context.Context, nodeID int64) error {
	all, err := s.nodeRepo.FindAllOrdered()
	if err != nil {
		return err
	}
	affected := hierarchy.AffectedSet(nodeID, all)
	if affected == nil {
		return errors.New("节点不存在")
	}

	ids := make([]int64, 0, len(affected))
	for _, n := range affected {
		ids = append(ids, n.NodeID)
	}
	if err := s.nodeRepo.DeleteBatch(ids); err != nil {
		return err
	}
	if err := s.permRepo.DeleteByNodeIDs(ids); err != nil {
		log.Errorf("[NodeService] 清理已删除节点的权限记录失败, nodeID: %d, error: %v", nodeID, err)
		return err
	}

	s.invalidateCache(ctx)
	return nil
}

// ReorderSiblings 按给定顺序重排一组同级节点。
// 全部变更合并为一次批量 upsert，避免产生中间可见状态。
func (s *nodeService) ReorderSiblings(ctx context.Context, parentNodeID *int64, orderedIDs []int64) error {
	if len(orderedIDs) == 0 {
		return nil
	}
	all, err := s.nodeRepo.FindAllOrdered()
	if err != nil {
		return err
	}
	byID := make(map[int64]model.DocumentNode, len(all))
	for _, n := range all {
		byID[n.NodeID] = n
	}

	updates := make([]model.DocumentNode, 0, len(orderedIDs))
	for i, id := range orderedIDs {
		n, ok := byID[id]
		if !ok {
			return errors.New("重排列表包含不存在的节点")
		}
		if !sameParent(n.ParentNodeID, parentNodeID) {
			return errors.New("重排列表包含非同级节点")
		}
		n.Order = i + 1
		updates = append(updates, n)
	}

	if err := s.nodeRepo.BulkUpsert(updates); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

// ImportHierarchy 把一段嵌套的 JSON 层级递归导入为节点子树，
// 返回创建的节点数量。整批 ID 在导入前一次性划拨。
func (s *nodeService) ImportHierarchy(ctx context.Context, parentNodeID *int64, roots []ImportNode) (int, error) {
	if len(roots) == 0 {
		return 0, nil
	}
	maxID, err := s.nodeRepo.MaxNodeID()
	if err != nil {
		return 0, err
	}

	parentLevel := -1
	if parentNodeID != nil && *parentNodeID > 0 {
		parent, err := s.nodeRepo.FindByID(*parentNodeID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, errors.New("父节点不存在")
			}
			return 0, err
		}
		parentLevel = parent.Level
	}

	startOrder, err := s.nodeRepo.NextChildOrder(parentNodeID)
	if err != nil {
		return 0, err
	}

	nextID := maxID
	var flat []model.DocumentNode
	var build func(items []ImportNode, parent *int64, level, startOrder int)
	build = func(items []ImportNode, parent *int64, level, startOrder int) {
		for i, item := range items {
			nextID++
			node := model.DocumentNode{
				NodeID:       nextID,
				ParentNodeID: parent,
				DocID:        1,
				Order:        startOrder + i,
				Level:        level,
				Title:        item.Title,
				Text:         item.Text,
				Type:         item.Type,
				URL:          item.URL,
				URLType:      item.URLType,
				Visible:      true,
				Children:     len(item.ChildNodes) > 0,
			}
			flat = append(flat, node)
			if len(item.ChildNodes) > 0 {
				id := node.NodeID
				build(item.ChildNodes, &id, level+1, 1)
			}
		}
	}
	build(roots, parentNodeID, parentLevel+1, startOrder)

	if err := s.nodeRepo.BulkUpsert(flat); err != nil {
		return 0, err
	}
	if parentNodeID != nil && *parentNodeID > 0 {
		if err := s.nodeRepo.SetChildrenFlag(*parentNodeID, true); err != nil {
			log.Warnf("[NodeService] 刷新父节点 children 标志失败, nodeID: %d, error: %v", *parentNodeID, err)
		}
	}

	s.invalidateCache(ctx)
	return len(flat), nil
}

func (s *nodeService) invalidateCache(ctx context.Context) {
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warnf("[NodeService] 清除节点缓存失败: %v", err)
	}
}

// sameParent 比较两个父节点引用是否等价，nil、0、-1 都视为根。
func sameParent(a, b *int64) bool {
	rootA := a == nil || *a == 0 || *a == -1
	rootB := b == nil || *b == 0 || *b == -1
	if rootA || rootB {
		return rootA == rootB
	}
	return *a == *b
}
