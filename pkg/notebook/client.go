// Package notebook 提供了一个与外部制品生成服务（Notebook 桥接）交互的客户端。
package notebook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"node-hierarchy-go/internal/config"
)

// Client 是 Notebook 桥接服务的客户端接口。
type Client interface {
	CreateArtifact(ctx context.Context, req CreateArtifactRequest) error
	GetArtifacts(ctx context.Context, notebookID string) ([]Artifact, error)
}

// CreateArtifactRequest 是一次制品生成请求的参数。
type CreateArtifactRequest struct {
	NotebookID   string `json:"notebook_id"`
	ArtifactType string `json:"artifact_type"`
	Prompt       string `json:"prompt,omitempty"`
	Language     string `json:"language,omitempty"`
}

// Artifact 是桥接服务返回的一个制品及其当前状态。
// 状态取值：pending、processing、completed、failed。
type Artifact struct {
	ID     string `json:"id"`
	Type   string `json:"type"`
	Status string `json:"status"`
	URL    string `json:"url"`
	Error  string `json:"error,omitempty"`
}

type httpClient struct {
	bridgeURL string
	client    *http.Client
}

// NewClient 创建一个新的 Notebook 桥接客户端实例。
func NewClient(cfg config.NotebookConfig) Client {
	return &httpClient{
		bridgeURL: cfg.BridgeURL,
		client:    &http.Client{},
	}
}

// CreateArtifact 触发一次制品生成。桥接服务只确认接收，生成是异步的。
func (c *httpClient) CreateArtifact(ctx context.Context, createReq CreateArtifactRequest) error {
	body, err := json.Marshal(createReq)
	if err != nil {
		return fmt.Errorf("序列化制品请求失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.bridgeURL+"/artifacts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("调用桥接服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		var errResp struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&errResp)
		if errResp.Error != "" {
			return fmt.Errorf("桥接服务返回错误 [%d]: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("桥接服务返回错误状态码: %d", resp.StatusCode)
	}
	return nil
}

// GetArtifacts 查询一个 notebook 下的制品列表，最新的排在最前。
func (c *httpClient) GetArtifacts(ctx context.Context, notebookID string) ([]Artifact, error) {
	endpoint := fmt.Sprintf("%s/artifacts?notebook_id=%s", c.bridgeURL, url.QueryEscape(notebookID))
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("调用桥接服务失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("桥接服务返回错误状态码: %d", resp.StatusCode)
	}

	var artifacts []Artifact
	if err := json.NewDecoder(resp.Body).Decode(&artifacts); err != nil {
		return nil, fmt.Errorf("解析桥接服务响应失败: %w", err)
	}
	return artifacts, nil
}
