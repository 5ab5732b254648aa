// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// AccessLevel 表示用户对某个节点的有效访问级别。
type AccessLevel string

const (
	// AccessReadOnly 只读权限，可查看但不能修改节点。
	AccessReadOnly AccessLevel = "read_only"
	// AccessFullAccess 完全权限，可修改节点及其可见性。
	AccessFullAccess AccessLevel = "full_access"
	// AccessNone 仅作为输入哨兵使用，表示删除权限记录；永远不会被持久化。
	AccessNone AccessLevel = "none"
)

// URLType 的取值是一个封闭集合，描述节点所挂载媒体的类型。
const (
	URLTypeVideo    = "Video"
	URLTypeAudio    = "Audio"
	URLTypeImage    = "Image"
	URLTypeMarkdown = "Markdown"
	URLTypePDF      = "PDF"
	URLTypePNG      = "PNG"
	URLTypeURL      = "Url"
	URLTypeLoop     = "Loop"
)

// DocumentNode 对应于数据库中的 'documents' 表，表示层级中的一个节点（文件夹或叶子文档）。
type DocumentNode struct {
	// NodeID 是节点的唯一标识符，由服务端分配，单调递增但不保证连续。
	NodeID int64 `gorm:"column:node_id;primaryKey" json:"nodeId"`
	// ParentNodeID 指向父节点；nil、0、-1 均被视为根节点哨兵。
	ParentNodeID *int64 `gorm:"column:parent_node_id" json:"parentNodeId"`
	// DocID 标识节点所属的文档空间，参与权限表的复合唯一约束。
	DocID int64 `gorm:"column:docid;not null;default:1" json:"docid"`
	// Order 是同级节点的排序键，仅在同一父节点的子节点之间有意义。
	Order int `gorm:"column:sort_order;not null;default:0" json:"order"`
	// Level 是缓存的嵌套深度，仅作提示用途，可能与实际树深度不一致。
	Level int `gorm:"column:level;not null;default:0" json:"level"`
	// Title 是节点标题。
	Title string `gorm:"type:varchar(255);not null" json:"title"`
	// Text 是节点的长文本正文（markdown）。
	Text string `gorm:"type:longtext" json:"text"`
	// Type 区分 folder 与 leaf。
	Type string `gorm:"type:varchar(32)" json:"type"`
	// URL 是可选的附件引用，指向 BlobStore 中的对象。
	URL string `gorm:"type:varchar(1024)" json:"url"`
	// URLType 描述附件的媒体类型，取值见上方常量；使用指针以接受 NULL。
	URLType *string `gorm:"column:urltype;type:varchar(32)" json:"urltype"`
	// Selected 与 Visible 是持久化的显示状态标志。
	Selected bool `gorm:"not null;default:false" json:"selected"`
	Visible  bool `gorm:"not null;default:false" json:"visible"`
	// Children 是"是否有子节点"的缓存标志。
	Children  bool       `gorm:"not null;default:false" json:"children"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt *time.Time `gorm:"autoUpdateTime" json:"modifiedAt"`

	// AccessLevel 在读取时计算得出，永不持久化，也不信任客户端缓存。
	AccessLevel AccessLevel `gorm:"-" json:"accessLevel,omitempty"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DocumentNode) TableName() string {
	return "documents"
}

// IsRoot 判断节点是否为根：父引用为 nil 或哨兵值 0 / -1。
func (n *DocumentNode) IsRoot() bool {
	return n.ParentNodeID == nil || *n.ParentNodeID == 0 || *n.ParentNodeID == -1
}

// NodeTreeItem 是 DocumentNode 加上有序子节点序列的内存形态，
// 每次获取时重建，永不持久化。
type NodeTreeItem struct {
	DocumentNode
	ChildNodes []*NodeTreeItem `json:"childNodes"`
}
