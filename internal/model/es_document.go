// Package model 定义了与数据库表对应的 Go 结构体。
package model

// EsNodeDocument 是节点在 Elasticsearch 索引中的文档结构。
// 向量字段由 Embedding 服务在索引时填充，用于混合搜索的 kNN 分支。
type EsNodeDocument struct {
	NodeID   int64     `json:"node_id"`
	Title    string    `json:"title"`
	Text     string    `json:"text"`
	URL      string    `json:"url"`
	FileName string    `json:"file_name"`
	Vector   []float32 `json:"vector,omitempty"`
}

// SearchResult 是混合搜索返回给调用方的单条结果。
type SearchResult struct {
	NodeID   int64   `json:"nodeId"`
	Title    string  `json:"title"`
	FileName string  `json:"fileName"`
	Score    float64 `json:"score"`
}
