// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/pkg/log"
)

var ESClient *elasticsearch.Client

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig, dims int) error {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		return err
	}
	ESClient = client
	return createIndexIfNotExists(esCfg.IndexName, dims)
}

// createIndexIfNotExists 检查节点索引是否存在，如果不存在则创建它
func createIndexIfNotExists(indexName string, dims int) error {
	res, err := ESClient.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	// 节点索引：标题与正文参与关键词检索，向量参与 kNN，
	// file_name 用于把检索结果接回文件路径过滤。
	mapping := `{
		"mappings": {
			"properties": {
				"node_id": { "type": "long" },
				"title": { "type": "text" },
				"text": { "type": "text" },
				"url": { "type": "keyword" },
				"file_name": { "type": "keyword" },
				"vector": {
					"type": "dense_vector",
					"dims": ` + strconv.Itoa(dims) + `,
					"index": true,
					"similarity": "cosine"
				}
			}
		}
	}`

	res, err = ESClient.Indices.Create(
		indexName,
		ESClient.Indices.Create.WithBody(strings.NewReader(mapping)),
	)

	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	if res.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// IndexNode 将单个节点文档索引到 Elasticsearch，文档 ID 为节点 ID。
func IndexNode(ctx context.Context, indexName string, doc model.EsNodeDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      indexName,
		DocumentID: strconv.FormatInt(doc.NodeID, 10),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引节点文档到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index node document")
	}

	return nil
}

// DeleteNode 从索引中删除一个节点文档。节点不存在视为成功。
func DeleteNode(ctx context.Context, indexName string, nodeID int64) error {
	req := esapi.DeleteRequest{
		Index:      indexName,
		DocumentID: strconv.FormatInt(nodeID, 10),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() && res.StatusCode != http.StatusNotFound {
		log.Errorf("从 Elasticsearch 删除节点文档出错: %s", res.String())
		return errors.New("failed to delete node document")
	}
	return nil
}
