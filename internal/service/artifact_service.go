package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/pkg/kafka"
	"node-hierarchy-go/pkg/log"
	"node-hierarchy-go/pkg/tasks"
)

// 支持的制品类型。
var supportedArtifactTypes = map[string]bool{
	"infographic": true,
	"video":       true,
	"audio":       true,
	"slides":      true,
}

// RequestArtifactParams 是一次制品生成请求的参数。
type RequestArtifactParams struct {
	NodeID       int64  `json:"nodeId" binding:"required"`
	NotebookID   string `json:"notebookId" binding:"required"`
	ArtifactType string `json:"artifactType" binding:"required"`
	Title        string `json:"title"`
	Prompt       string `json:"prompt"`
}

// ArtifactService 接口定义了制品生成任务的发起与查询操作。
type ArtifactService interface {
	RequestArtifact(ctx context.Context, userID uint, params RequestArtifactParams) (*model.ArtifactTask, error)
	GetTask(ctx context.Context, taskID string) (*model.ArtifactTask, error)
	ListTasks(ctx context.Context, userID uint) ([]model.ArtifactTask, error)
}

type artifactService struct {
	taskRepo repository.ArtifactTaskRepository
	nodeRepo repository.NodeRepository
}

// NewArtifactService 创建一个新的 ArtifactService 实例。
func NewArtifactService(taskRepo repository.ArtifactTaskRepository, nodeRepo repository.NodeRepository) ArtifactService {
	return &artifactService{taskRepo: taskRepo, nodeRepo: nodeRepo}
}

// RequestArtifact 发起一次制品生成：先落一条 pending 任务记录，
// 再把任务投递到队列。生成完成后消费者会把制品挂为目标节点的子节点。
func (s *artifactService) RequestArtifact(ctx context.Context, userID uint, params RequestArtifactParams) (*model.ArtifactTask, error) {
	if !supportedArtifactTypes[params.ArtifactType] {
		return nil, fmt.Errorf("不支持的制品类型: %s", params.ArtifactType)
	}
	node, err := s.nodeRepo.FindByID(params.NodeID)
	if err != nil {
		return nil, errors.New("目标节点不存在")
	}

	title := params.Title
	if title == "" {
		title = node.Title
	}

	task := &model.ArtifactTask{
		TaskID:       uuid.New().String(),
		NodeID:       params.NodeID,
		NotebookID:   params.NotebookID,
		ArtifactType: params.ArtifactType,
		Title:        title,
		UserID:       userID,
		Status:       model.ArtifactPending,
		CreatedAt:    time.Now(),
	}
	if err := s.taskRepo.Save(ctx, task); err != nil {
		return nil, fmt.Errorf("保存任务状态失败: %w", err)
	}

	err = kafka.ProduceArtifactTask(tasks.ArtifactGenerationTask{
		TaskID:       task.TaskID,
		NodeID:       task.NodeID,
		NotebookID:   task.NotebookID,
		ArtifactType: task.ArtifactType,
		Title:        task.Title,
		Prompt:       params.Prompt,
		UserID:       userID,
	})
	if err != nil {
		// 任务没能进队列，立刻把记录置为失败，避免留下一个永远 pending 的任务
		task.Status = model.ArtifactFailed
		task.Error = fmt.Sprintf("投递任务失败: %v", err)
		if saveErr := s.taskRepo.Save(ctx, task); saveErr != nil {
			log.Errorf("[ArtifactService] 标记任务失败状态时出错, taskID: %s, error: %v", task.TaskID, saveErr)
		}
		return nil, fmt.Errorf("投递任务失败: %w", err)
	}

	log.Infof("[ArtifactService] 制品生成任务已入队, taskID: %s, nodeID: %d, type: %s", task.TaskID, task.NodeID, task.ArtifactType)
	return task, nil
}

// GetTask 查询单个任务的当前状态。
func (s *artifactService) GetTask(ctx context.Context, taskID string) (*model.ArtifactTask, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID)
	if err == redis.Nil {
		return nil, errors.New("任务不存在或已过期")
	}
	return task, err
}

// ListTasks 返回某个用户的全部任务。
func (s *artifactService) ListTasks(ctx context.Context, userID uint) ([]model.ArtifactTask, error) {
	return s.taskRepo.FindByUserID(ctx, userID)
}
