package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"node-hierarchy-go/internal/model"
)

// PermissionRepository 接口定义了文档权限的数据操作方法。
type PermissionRepository interface {
	FindByUserID(userID uint) ([]model.DocumentPermission, error)
	FindByNodeIDs(nodeIDs []int64) ([]model.DocumentPermission, error)
	BulkUpsert(perms []model.DocumentPermission) error
	BulkDelete(userID uint, nodeIDs []int64) error
	DeleteByNodeIDs(nodeIDs []int64) error
}

type permissionRepository struct {
	db *gorm.DB
}

// NewPermissionRepository 创建一个新的 PermissionRepository 实例。
func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

// FindByUserID 检索某个用户的全部权限记录。
func (r *permissionRepository) FindByUserID(userID uint) ([]model.DocumentPermission, error) {
	var perms []model.DocumentPermission
	err := r.db.Where("user_id = ?", userID).Find(&perms).Error
	return perms, err
}

// FindByNodeIDs 检索一组节点上所有用户的权限记录。
func (r *permissionRepository) FindByNodeIDs(nodeIDs []int64) ([]model.DocumentPermission, error) {
	var perms []model.DocumentPermission
	if len(nodeIDs) == 0 {
		return perms, nil
	}
	err := r.db.Where("node_id IN ?", nodeIDs).Find(&perms).Error
	return perms, err
}

// BulkUpsert 批量写入权限记录，(node_id, docid, user_id) 冲突时更新权限级别。
func (r *permissionRepository) BulkUpsert(perms []model.DocumentPermission) error {
	if len(perms) == 0 {
		return nil
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "node_id"}, {Name: "docid"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_level", "updated_at"}),
	}).Create(&perms).Error
}

// BulkDelete 删除某个用户在一组节点上的全部权限记录。
func (r *permissionRepository) BulkDelete(userID uint, nodeIDs []int64) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return r.db.Where("user_id = ? AND node_id IN ?", userID, nodeIDs).
		Delete(&model.DocumentPermission{}).Error
}

// DeleteByNodeIDs 删除一组节点上所有用户的权限记录，节点被删除后调用。
func (r *permissionRepository) DeleteByNodeIDs(nodeIDs []int64) error {
	if len(nodeIDs) == 0 {
		return nil
	}
	return r.db.Delete(&model.DocumentPermission{}, "node_id IN ?", nodeIDs).Error
}
