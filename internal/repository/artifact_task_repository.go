package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"node-hierarchy-go/internal/model"
)

// 制品任务记录的保留时长，到期后由 Redis 自动清理。
const artifactTaskTTL = 7 * 24 * time.Hour

func artifactTaskKey(taskID string) string {
	return fmt.Sprintf("artifact_task:%s", taskID)
}

func userTasksKey(userID uint) string {
	return fmt.Sprintf("artifact_tasks:user:%d", userID)
}

// ArtifactTaskRepository 接口定义了制品生成任务状态的存取操作。
// 任务状态机：pending -> succeeded | failed | timed_out，终态不再改变。
type ArtifactTaskRepository interface {
	Save(ctx context.Context, task *model.ArtifactTask) error
	FindByID(ctx context.Context, taskID string) (*model.ArtifactTask, error)
	FindByUserID(ctx context.Context, userID uint) ([]model.ArtifactTask, error)
}

type artifactTaskRepository struct {
	rdb *redis.Client
}

// NewArtifactTaskRepository 创建一个新的 ArtifactTaskRepository 实例。
func NewArtifactTaskRepository(rdb *redis.Client) ArtifactTaskRepository {
	return &artifactTaskRepository{rdb: rdb}
}

// Save 写入或覆盖一个任务记录，并把任务 ID 挂到所属用户的索引集合上。
func (r *artifactTaskRepository) Save(ctx context.Context, task *model.ArtifactTask) error {
	task.UpdatedAt = time.Now()
	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("序列化制品任务失败: %w", err)
	}

	pipe := r.rdb.TxPipeline()
	pipe.Set(ctx, artifactTaskKey(task.TaskID), data, artifactTaskTTL)
	pipe.SAdd(ctx, userTasksKey(task.UserID), task.TaskID)
	pipe.Expire(ctx, userTasksKey(task.UserID), artifactTaskTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// FindByID 根据任务 ID 查找一个任务记录，不存在时返回 redis.Nil。
func (r *artifactTaskRepository) FindByID(ctx context.Context, taskID string) (*model.ArtifactTask, error) {
	data, err := r.rdb.Get(ctx, artifactTaskKey(taskID)).Bytes()
	if err != nil {
		return nil, err
	}
	var task model.ArtifactTask
	if err := json.Unmarshal(data, &task); err != nil {
		return nil, fmt.Errorf("解析制品任务失败: %w", err)
	}
	return &task, nil
}

// FindByUserID 返回某个用户的全部任务记录，已过期的任务会从索引中剔除。
func (r *artifactTaskRepository) FindByUserID(ctx context.Context, userID uint) ([]model.ArtifactTask, error) {
	taskIDs, err := r.rdb.SMembers(ctx, userTasksKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	tasks := make([]model.ArtifactTask, 0, len(taskIDs))
	for _, taskID := range taskIDs {
		task, err := r.FindByID(ctx, taskID)
		if err == redis.Nil {
			r.rdb.SRem(ctx, userTasksKey(userID), taskID)
			continue
		}
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, nil
}
