// Package repository 包含了所有与数据库交互的逻辑。
package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"node-hierarchy-go/internal/model"
)

// NodeRepository 接口定义了文档节点的数据操作方法。
type NodeRepository interface {
	FindAllOrdered() ([]model.DocumentNode, error)
	FindByID(nodeID int64) (*model.DocumentNode, error)
	FindByTagIDs(tagIDs []int64) ([]model.DocumentNode, error)
	Create(node *model.DocumentNode) error
	Update(node *model.DocumentNode) error
	UpdateFields(nodeID int64, fields map[string]interface{}) error
	Delete(nodeID int64) error
	DeleteBatch(nodeIDs []int64) error
	BulkUpsert(nodes []model.DocumentNode) error
	MaxNodeID() (int64, error)
	NextChildOrder(parentNodeID *int64) (int, error)
	SetChildrenFlag(nodeID int64, hasChildren bool) error
}

type nodeRepository struct {
	db *gorm.DB
}

// NewNodeRepository 创建一个新的 NodeRepository 实例。
func NewNodeRepository(db *gorm.DB) NodeRepository {
	return &nodeRepository{db: db}
}

// FindAllOrdered 检索所有文档节点，按排序号升序排列。
func (r *nodeRepository) FindAllOrdered() ([]model.DocumentNode, error) {
	var nodes []model.DocumentNode
	err := r.db.Order("sort_order ASC").Find(&nodes).Error
	return nodes, err
}

// FindByID 根据给定的 nodeID 从数据库中查找一个文档节点。
func (r *nodeRepository) FindByID(nodeID int64) (*model.DocumentNode, error) {
	var node model.DocumentNode
	err := r.db.Where("node_id = ?", nodeID).First(&node).Error
	if err != nil {
		return nil, err
	}
	return &node, nil
}

// FindByTagIDs 查找被给定标签（含其全部子孙标签）标注过的文档节点。
// 标签与文件的关联记录在 object_tags 表，以文件路径的最后一段与节点 URL 匹配。
func (r *nodeRepository) FindByTagIDs(tagIDs []int64) ([]model.DocumentNode, error) {
	var nodes []model.DocumentNode
	if len(tagIDs) == 0 {
		return nodes, nil
	}
	err := r.db.Raw(`
		WITH RECURSIVE tag_tree AS (
			SELECT id FROM tags WHERE id IN (?)
			UNION ALL
			SELECT t.id FROM tags t
			INNER JOIN tag_tree tt ON t.parent_id = tt.id
		)
		SELECT DISTINCT d.* FROM documents d
		INNER JOIN object_tags ot
			ON SUBSTRING_INDEX(ot.file_path, '/', -1) = SUBSTRING_INDEX(d.url, '/', -1)
		INNER JOIN tag_tree tt ON ot.tag_id = tt.id
		ORDER BY d.sort_order ASC
	`, tagIDs).Scan(&nodes).Error
	return nodes, err
}

// Create 在数据库中插入一个新的文档节点记录。
func (r *nodeRepository) Create(node *model.DocumentNode) error {
	return r.db.Create(node).Error
}

// Update 更新数据库中一个已存在的文档节点记录。
func (r *nodeRepository) Update(node *model.DocumentNode) error {
	return r.db.Save(node).Error
}

// UpdateFields 对指定节点做部分字段更新，未出现的字段保持不变。
func (r *nodeRepository) UpdateFields(nodeID int64, fields map[string]interface{}) error {
	return r.db.Model(&model.DocumentNode{}).Where("node_id = ?", nodeID).Updates(fields).Error
}

// Delete 根据给定的 nodeID 从数据库中删除一个文档节点记录。
func (r *nodeRepository) Delete(nodeID int64) error {
	return r.db.Delete(&model.DocumentNode{}, "node_id = ?", nodeID).Error
}

// DeleteBatch 批量删除一组文档节点。
func (r *nodeRepository) DeleteBatch(nodeIDs []int64) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return r.db.Delete(&model.DocumentNode{}, "node_id IN ?", nodeIDs).Error
}

// BulkUpsert 批量写入节点记录，主键冲突时更新展示相关的列。
// 整批在一条语句中完成，要么全部生效要么全部失败。
func (r *nodeRepository) BulkUpsert(nodes []model.DocumentNode) error {
	if len(nodes) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "node_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"parent_node_id", "docid", "sort_order", "level", "title", "text",
			"type", "url", "urltype", "selected", "visible", "children", "updated_at",
		}),
	}).Create(&nodes).Error
}

// MaxNodeID 返回当前最大的节点 ID，表为空时返回 0。
func (r *nodeRepository) MaxNodeID() (int64, error) {
	var maxID int64
	err := r.db.Model(&model.DocumentNode{}).
		Select("COALESCE(MAX(node_id), 0)").Scan(&maxID).Error
	return maxID, err
}

// NextChildOrder 返回指定父节点下新子节点应使用的排序号（当前最大值加一）。
func (r *nodeRepository) NextChildOrder(parentNodeID *int64) (int, error) {
	var maxOrder int
	query := r.db.Model(&model.DocumentNode{}).Select("COALESCE(MAX(sort_order), 0)")
	if parentNodeID == nil {
		query = query.Where("parent_node_id IS NULL OR parent_node_id IN (0, -1)")
	} else {
		query = query.Where("parent_node_id = ?", *parentNodeID)
	}
	err := query.Scan(&maxOrder).Error
	return maxOrder + 1, err
}

// SetChildrenFlag 更新节点的 children 标记，表示其是否拥有子节点。
func (r *nodeRepository) SetChildrenFlag(nodeID int64, hasChildren bool) error {
	return r.db.Model(&model.DocumentNode{}).Where("node_id = ?", nodeID).
		Update("children", hasChildren).Error
}
