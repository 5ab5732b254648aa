// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// DocumentPermission 对应于数据库中的 'document_permissions' 表。
// 它将一个用户、一个节点与一个访问级别关联起来。
// (node_id, docid, user_id) 上存在复合唯一约束，冲突时执行 upsert。
type DocumentPermission struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	NodeID      int64       `gorm:"column:node_id;not null;uniqueIndex:uk_node_doc_user" json:"nodeId"`
	DocID       int64       `gorm:"column:docid;not null;uniqueIndex:uk_node_doc_user" json:"docid"`
	UserID      uint        `gorm:"column:user_id;not null;uniqueIndex:uk_node_doc_user" json:"userId"`
	AccessLevel AccessLevel `gorm:"type:varchar(32);not null" json:"accessLevel"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentPermission) TableName() string {
	return "document_permissions"
}
