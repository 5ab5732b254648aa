// Package pipeline 实现了制品生成任务的后台处理流水线。
package pipeline

import (
	"context"
	"fmt"
	"time"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/pkg/log"
	"node-hierarchy-go/pkg/notebook"
	"node-hierarchy-go/pkg/tasks"
)

// 制品类型到子节点 urltype 的映射。
var artifactURLTypes = map[string]string{
	"infographic": model.URLTypePNG,
	"video":       model.URLTypeVideo,
	"audio":       model.URLTypeAudio,
	"slides":      model.URLTypeURL,
}

// ArtifactProcessor 消费制品生成任务：调用 Notebook 桥接服务发起生成，
// 按固定间隔轮询结果，成功后把制品挂为目标节点的子节点。
// 每一步的结果都会写回任务记录，调用方可随时查询；
// 达到轮询上限后任务进入 timed_out 终态，不再有静默超时。
type ArtifactProcessor struct {
	notebookClient notebook.Client
	taskRepo       repository.ArtifactTaskRepository
	nodeRepo       repository.NodeRepository
	cache          repository.NodeCache
	pollInterval   time.Duration
	maxAttempts    int
}

// NewArtifactProcessor 创建一个新的 ArtifactProcessor 实例。
func NewArtifactProcessor(notebookClient notebook.Client, taskRepo repository.ArtifactTaskRepository, nodeRepo repository.NodeRepository, cache repository.NodeCache, cfg config.NotebookConfig) *ArtifactProcessor {
	interval := time.Duration(cfg.PollIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 10 * time.Second
	}
	maxAttempts := cfg.MaxPollAttempts
	if maxAttempts <= 0 {
		maxAttempts = 30
	}
	return &ArtifactProcessor{
		notebookClient: notebookClient,
		taskRepo:       taskRepo,
		nodeRepo:       nodeRepo,
		cache:          cache,
		pollInterval:   interval,
		maxAttempts:    maxAttempts,
	}
}

// Process 处理单个制品生成任务，任何结果都以任务终态落档。
func (p *ArtifactProcessor) Process(ctx context.Context, t tasks.ArtifactGenerationTask) {
	task, err := p.taskRepo.FindByID(ctx, t.TaskID)
	if err != nil {
		log.Errorf("[ArtifactProcessor] 读取任务记录失败, taskID: %s, error: %v", t.TaskID, err)
		return
	}
	if task.Status.IsTerminal() {
		// 消息重复投递时直接跳过
		log.Warnf("[ArtifactProcessor] 任务已处于终态，跳过, taskID: %s, status: %s", task.TaskID, task.Status)
		return
	}

	err = p.notebookClient.CreateArtifact(ctx, notebook.CreateArtifactRequest{
		NotebookID:   t.NotebookID,
		ArtifactType: t.ArtifactType,
		Prompt:       t.Prompt,
	})
	if err != nil {
		p.fail(ctx, task, fmt.Sprintf("发起制品生成失败: %v", err))
		return
	}

	resultURL, pollErr := p.poll(ctx, task)
	if pollErr != nil {
		return // poll 内部已落终态
	}

	if err := p.attachArtifactNode(ctx, task, resultURL); err != nil {
		p.fail(ctx, task, fmt.Sprintf("挂载制品节点失败: %v", err))
		return
	}

	task.Status = model.ArtifactSucceeded
	task.ResultURL = resultURL
	if err := p.taskRepo.Save(ctx, task); err != nil {
		log.Errorf("[ArtifactProcessor] 保存任务成功状态失败, taskID: %s, error: %v", task.TaskID, err)
	}
	log.Infof("[ArtifactProcessor] 制品生成完成, taskID: %s, url: %s", task.TaskID, resultURL)
}

// poll 按固定间隔轮询桥接服务，直到拿到终态或达到轮询上限。
func (p *ArtifactProcessor) poll(ctx context.Context, task *model.ArtifactTask) (string, error) {
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for task.Attempts < p.maxAttempts {
		select {
		case <-ctx.Done():
			p.fail(ctx, task, "任务被取消")
			return "", ctx.Err()
		case <-ticker.C:
		}

		task.Attempts++
		if err := p.taskRepo.Save(ctx, task); err != nil {
			log.Warnf("[ArtifactProcessor] 保存轮询进度失败, taskID: %s, error: %v", task.TaskID, err)
		}

		artifacts, err := p.notebookClient.GetArtifacts(ctx, task.NotebookID)
		if err != nil {
			log.Warnf("[ArtifactProcessor] 轮询桥接服务失败, taskID: %s, attempt: %d, error: %v", task.TaskID, task.Attempts, err)
			continue
		}

		for _, a := range artifacts {
			if a.Type != task.ArtifactType {
				continue
			}
			switch a.Status {
			case "completed":
				return a.URL, nil
			case "failed":
				p.fail(ctx, task, fmt.Sprintf("桥接服务生成失败: %s", a.Error))
				return "", fmt.Errorf("artifact generation failed")
			}
			// pending / processing：继续轮询
			break
		}
	}

	task.Status = model.ArtifactTimedOut
	task.Error = fmt.Sprintf("轮询 %d 次后仍未完成", task.Attempts)
	if err := p.taskRepo.Save(ctx, task); err != nil {
		log.Errorf("[ArtifactProcessor] 保存任务超时状态失败, taskID: %s, error: %v", task.TaskID, err)
	}
	log.Warnf("[ArtifactProcessor] 制品生成超时, taskID: %s, attempts: %d", task.TaskID, task.Attempts)
	return "", fmt.Errorf("artifact generation timed out")
}

// attachArtifactNode 把生成好的制品创建为目标节点的子节点。
func (p *ArtifactProcessor) attachArtifactNode(ctx context.Context, task *model.ArtifactTask, resultURL string) error {
	parent, err := p.nodeRepo.FindByID(task.NodeID)
	if err != nil {
		return fmt.Errorf("目标节点不存在: %w", err)
	}

	maxID, err := p.nodeRepo.MaxNodeID()
	if err != nil {
		return err
	}
	order, err := p.nodeRepo.NextChildOrder(&parent.NodeID)
	if err != nil {
		return err
	}

	urlType := artifactURLTypes[task.ArtifactType]
	child := &model.DocumentNode{
		NodeID:       maxID + 1,
		ParentNodeID: &parent.NodeID,
		DocID:        parent.DocID,
		Order:        order,
		Level:        parent.Level + 1,
		Title:        task.Title,
		Type:         "leaf",
		URL:          resultURL,
		URLType:      &urlType,
		Visible:      true,
	}
	if err := p.nodeRepo.Create(child); err != nil {
		return err
	}
	if err := p.nodeRepo.SetChildrenFlag(parent.NodeID, true); err != nil {
		log.Warnf("[ArtifactProcessor] 刷新父节点 children 标志失败, nodeID: %d, error: %v", parent.NodeID, err)
	}
	if err := p.cache.InvalidateAll(ctx); err != nil {
		log.Warnf("[ArtifactProcessor] 清除节点缓存失败: %v", err)
	}
	return nil
}

func (p *ArtifactProcessor) fail(ctx context.Context, task *model.ArtifactTask, reason string) {
	task.Status = model.ArtifactFailed
	task.Error = reason
	if err := p.taskRepo.Save(ctx, task); err != nil {
		log.Errorf("[ArtifactProcessor] 保存任务失败状态失败, taskID: %s, error: %v", task.TaskID, err)
	}
	log.Errorf("[ArtifactProcessor] 制品生成失败, taskID: %s, reason: %s", task.TaskID, reason)
}
