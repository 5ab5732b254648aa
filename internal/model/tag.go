// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// Tag 对应于数据库中的 'tags' 表。
// 标签本身是层级化的，用于对存储文件进行分类。
type Tag struct {
	// ID 是标签的唯一标识符，作为主键。
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`
	// Name 是标签的显示名称。
	Name string `gorm:"type:varchar(100);not null" json:"name"`
	// ParentID 指向父级标签，用于构建层级结构。使用指针以接受 NULL 值，表示顶级标签。
	ParentID *int64 `gorm:"column:parent_id" json:"parentId"`
	// CreatedAt 由 GORM 自动管理，记录创建时间。
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	// UpdatedAt 由 GORM 自动管理，记录最后更新时间。
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Tag) TableName() string {
	return "tags"
}

// TagTreeNode represents a node in the tag tree.
type TagTreeNode struct {
	Tag
	Level      int            `json:"level"`
	ChildNodes []*TagTreeNode `json:"childNodes"`
}

// FileTag 对应于数据库中的 'object_tags' 表。
// 它把一个存储文件路径（不是节点 id）与零或多个标签关联起来。
// 节点与标签的关联通过节点 URL 的文件名与已打标的文件路径匹配派生，
// 这是有意保留的设计（文件名冲突下存在已知局限）。
type FileTag struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	FilePath string `gorm:"column:file_path;type:varchar(1024);not null;index" json:"filePath"`
	TagID    int64  `gorm:"column:tag_id;not null;index" json:"tagId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FileTag) TableName() string {
	return "object_tags"
}
