// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// ArtifactGenerationTask represents the data for one artifact generation job.
// 消费者据此调用外部 Notebook 桥接服务并轮询结果。
type ArtifactGenerationTask struct {
	TaskID       string `json:"task_id"`
	NodeID       int64  `json:"node_id"`
	NotebookID   string `json:"notebook_id"`
	ArtifactType string `json:"artifact_type"`
	Title        string `json:"title"`
	Prompt       string `json:"prompt"`
	UserID       uint   `json:"user_id"`
}
