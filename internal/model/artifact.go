// Package model 定义了与数据库表对应的 Go 结构体。
package model

import "time"

// ArtifactStatus 表示后台制品生成任务的状态。
// 任务一旦进入 succeeded / failed / timed_out 即为终态，不再被轮询更新。
type ArtifactStatus string

const (
	ArtifactPending   ArtifactStatus = "pending"
	ArtifactSucceeded ArtifactStatus = "succeeded"
	ArtifactFailed    ArtifactStatus = "failed"
	ArtifactTimedOut  ArtifactStatus = "timed_out"
)

// IsTerminal 判断状态是否为终态。
func (s ArtifactStatus) IsTerminal() bool {
	return s == ArtifactSucceeded || s == ArtifactFailed || s == ArtifactTimedOut
}

// ArtifactTask 表示一次外部制品生成请求的可观测状态，以 JSON 形式存储在 Redis 中。
// 调用方可以随时查询任务状态；超时不再是仅写日志的静默失败，而是 timed_out 终态。
type ArtifactTask struct {
	TaskID       string         `json:"taskId"`
	NodeID       int64          `json:"nodeId"`
	NotebookID   string         `json:"notebookId"`
	ArtifactType string         `json:"artifactType"`
	Title        string         `json:"title"`
	UserID       uint           `json:"userId"`
	Status       ArtifactStatus `json:"status"`
	Attempts     int            `json:"attempts"`
	ResultURL    string         `json:"resultUrl,omitempty"`
	Error        string         `json:"error,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}
