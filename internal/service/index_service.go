package service

import (
	"context"

	"node-hierarchy-go/internal/hierarchy"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/pkg/embedding"
	"node-hierarchy-go/pkg/es"
	"node-hierarchy-go/pkg/log"
)

// IndexService 接口定义了节点在搜索索引中的同步操作。
// 索引失败不阻塞节点写入，搜索结果允许短暂滞后。
type IndexService interface {
	IndexNode(ctx context.Context, node *model.DocumentNode)
	RemoveNode(ctx context.Context, nodeID int64)
}

type indexService struct {
	embeddingClient embedding.Client
	indexName       string
}

// NewIndexService 创建一个新的 IndexService 实例。
func NewIndexService(embeddingClient embedding.Client, indexName string) IndexService {
	return &indexService{embeddingClient: embeddingClient, indexName: indexName}
}

// IndexNode 把节点写入搜索索引，标题与正文拼接后向量化。
func (s *indexService) IndexNode(ctx context.Context, node *model.DocumentNode) {
	doc := model.EsNodeDocument{
		NodeID:   node.NodeID,
		Title:    node.Title,
		Text:     node.Text,
		URL:      node.URL,
		FileName: hierarchy.FileBaseName(node.URL),
	}

	vector, err := s.embeddingClient.CreateEmbedding(ctx, node.Title+"\n"+node.Text)
	if err != nil {
		log.Warnf("[IndexService] 节点向量化失败，将以纯关键词方式索引, nodeID: %d, error: %v", node.NodeID, err)
	} else {
		doc.Vector = vector
	}

	if err := es.IndexNode(ctx, s.indexName, doc); err != nil {
		log.Errorf("[IndexService] 索引节点失败, nodeID: %d, error: %v", node.NodeID, err)
	}
}

// RemoveNode 把节点从搜索索引中移除。
func (s *indexService) RemoveNode(ctx context.Context, nodeID int64) {
	if err := es.DeleteNode(ctx, s.indexName, nodeID); err != nil {
		log.Errorf("[IndexService] 删除节点索引失败, nodeID: %d, error: %v", nodeID, err)
	}
}
