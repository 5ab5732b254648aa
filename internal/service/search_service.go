package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"

	"node-hierarchy-go/internal/hierarchy"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/pkg/embedding"
	"node-hierarchy-go/pkg/log"
)

// SearchService 接口定义了节点内容的混合搜索操作。
type SearchService interface {
	HybridSearch(ctx context.Context, query string, topK int) ([]model.SearchResult, error)
	FilterNodesByQuery(ctx context.Context, query string, topK int, nodes []model.DocumentNode) ([]model.DocumentNode, error)
	FilterTree(ctx context.Context, query string, topK int, nodes []model.DocumentNode) ([]*model.NodeTreeItem, error)
}

type searchService struct {
	embeddingClient embedding.Client
	esClient        *elasticsearch.Client
	indexName       string
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(embeddingClient embedding.Client, esClient *elasticsearch.Client, indexName string) SearchService {
	return &searchService{
		embeddingClient: embeddingClient,
		esClient:        esClient,
		indexName:       indexName,
	}
}

// HybridSearch 执行 BM25 与 kNN 向量召回的混合搜索。
func (s *searchService) HybridSearch(ctx context.Context, query string, topK int) ([]model.SearchResult, error) {
	if topK <= 0 {
		topK = 10
	}
	log.Infof("[SearchService] 开始执行混合搜索, query: '%s', topK: %d", query, topK)

	queryVector, err := s.embeddingClient.CreateEmbedding(ctx, query)
	if err != nil {
		log.Errorf("[SearchService] 向量化查询失败: %v", err)
		return nil, fmt.Errorf("failed to create query embedding: %w", err)
	}

	var buf bytes.Buffer
	esQuery := map[string]interface{}{
		"knn": map[string]interface{}{
			"field":          "vector",
			"query_vector":   queryVector,
			"k":              topK * 10,
			"num_candidates": topK * 10,
		},
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []map[string]interface{}{
					{"match": map[string]interface{}{"title": map[string]interface{}{"query": query, "boost": 2.0}}},
					{"match": map[string]interface{}{"text": query}},
				},
				"minimum_should_match": 1,
			},
		},
		"size": topK,
	}
	if err := json.NewEncoder(&buf).Encode(esQuery); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}

	res, err := s.esClient.Search(
		s.esClient.Search.WithContext(ctx),
		s.esClient.Search.WithIndex(s.indexName),
		s.esClient.Search.WithBody(&buf),
	)
	if err != nil {
		log.Errorf("[SearchService] 向 Elasticsearch 发送搜索请求失败: %v", err)
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("[SearchService] Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.EsNodeDocument `json:"_source"`
				Score  float64              `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}

	results := make([]model.SearchResult, 0, len(esResponse.Hits.Hits))
	for _, hit := range esResponse.Hits.Hits {
		results = append(results, model.SearchResult{
			NodeID:   hit.Source.NodeID,
			Title:    hit.Source.Title,
			FileName: hit.Source.FileName,
			Score:    hit.Score,
		})
	}
	log.Infof("[SearchService] 混合搜索执行完毕, 返回 %d 条结果", len(results))
	return results, nil
}

// FilterNodesByQuery 用搜索命中的文件名对节点列表做子集筛选。
// 命中节点连同其全部祖先被保留，以保证返回的子集仍是一棵完整的树。
// 没有命中时返回空列表。
func (s *searchService) FilterNodesByQuery(ctx context.Context, query string, topK int, nodes []model.DocumentNode) ([]model.DocumentNode, error) {
	results, err := s.HybridSearch(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return []model.DocumentNode{}, nil
	}

	baseNames := make(map[string]bool, len(results))
	for _, r := range results {
		if r.FileName != "" {
			baseNames[hierarchy.FileBaseName(r.FileName)] = true
		}
	}
	return hierarchy.FilterByFilePaths(nodes, baseNames), nil
}

// FilterTree 在 FilterNodesByQuery 的基础上把命中子集组装为层级树。
func (s *searchService) FilterTree(ctx context.Context, query string, topK int, nodes []model.DocumentNode) ([]*model.NodeTreeItem, error) {
	subset, err := s.FilterNodesByQuery(ctx, query, topK, nodes)
	if err != nil {
		return nil, err
	}
	return hierarchy.DisplayTree(subset), nil
}
