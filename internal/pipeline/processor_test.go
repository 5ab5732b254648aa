package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"node-hierarchy-go/internal/config"
	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/pkg/notebook"
	"node-hierarchy-go/pkg/tasks"
)

type fakeNotebookClient struct {
	createErr error
	// 每次 GetArtifacts 调用返回下一个元素，耗尽后重复最后一个
	responses [][]notebook.Artifact
	calls     int
}

func (c *fakeNotebookClient) CreateArtifact(ctx context.Context, req notebook.CreateArtifactRequest) error {
	return c.createErr
}

func (c *fakeNotebookClient) GetArtifacts(ctx context.Context, notebookID string) ([]notebook.Artifact, error) {
	idx := c.calls
	if idx >= len(c.responses) {
		idx = len(c.responses) - 1
	}
	c.calls++
	if idx < 0 {
		return nil, nil
	}
	return c.responses[idx], nil
}

type fakeTaskRepo struct {
	store map[string]model.ArtifactTask
}

func newFakeTaskRepo(seed ...model.ArtifactTask) *fakeTaskRepo {
	r := &fakeTaskRepo{store: make(map[string]model.ArtifactTask)}
	for _, t := range seed {
		r.store[t.TaskID] = t
	}
	return r
}

func (r *fakeTaskRepo) Save(ctx context.Context, task *model.ArtifactTask) error {
	r.store[task.TaskID] = *task
	return nil
}

func (r *fakeTaskRepo) FindByID(ctx context.Context, taskID string) (*model.ArtifactTask, error) {
	t, ok := r.store[taskID]
	if !ok {
		return nil, redis.Nil
	}
	return &t, nil
}

func (r *fakeTaskRepo) FindByUserID(ctx context.Context, userID uint) ([]model.ArtifactTask, error) {
	var out []model.ArtifactTask
	for _, t := range r.store {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeNodeStore struct {
	nodes   map[int64]model.DocumentNode
	created []model.DocumentNode
}

func newFakeNodeStore(nodes ...model.DocumentNode) *fakeNodeStore {
	s := &fakeNodeStore{nodes: make(map[int64]model.DocumentNode)}
	for _, n := range nodes {
		s.nodes[n.NodeID] = n
	}
	return s
}

func (s *fakeNodeStore) FindAllOrdered() ([]model.DocumentNode, error) { return nil, nil }
func (s *fakeNodeStore) FindByID(nodeID int64) (*model.DocumentNode, error) {
	n, ok := s.nodes[nodeID]
	if !ok {
		return nil, errors.New("not found")
	}
	return &n, nil
}
func (s *fakeNodeStore) FindByTagIDs(tagIDs []int64) ([]model.DocumentNode, error) { return nil, nil }
func (s *fakeNodeStore) Create(node *model.DocumentNode) error {
	s.nodes[node.NodeID] = *node
	s.created = append(s.created, *node)
	return nil
}
func (s *fakeNodeStore) Update(node *model.DocumentNode) error { return nil }
func (s *fakeNodeStore) UpdateFields(nodeID int64, fields map[string]interface{}) error {
	return nil
}
func (s *fakeNodeStore) Delete(nodeID int64) error          { return nil }
func (s *fakeNodeStore) DeleteBatch(nodeIDs []int64) error  { return nil }
func (s *fakeNodeStore) BulkUpsert(nodes []model.DocumentNode) error {
	return nil
}
func (s *fakeNodeStore) MaxNodeID() (int64, error) {
	var max int64
	for id := range s.nodes {
		if id > max {
			max = id
		}
	}
	return max, nil
}
func (s *fakeNodeStore) NextChildOrder(parentNodeID *int64) (int, error) { return 1, nil }
func (s *fakeNodeStore) SetChildrenFlag(nodeID int64, hasChildren bool) error {
	n := s.nodes[nodeID]
	n.Children = hasChildren
	s.nodes[nodeID] = n
	return nil
}

type fakeCache struct{ invalidateAlls int }

func (c *fakeCache) Get(ctx context.Context, userID uint) ([]model.DocumentNode, bool, error) {
	return nil, false, nil
}
func (c *fakeCache) Set(ctx context.Context, userID uint, nodes []model.DocumentNode) error {
	return nil
}
func (c *fakeCache) Invalidate(ctx context.Context, userID uint) error { return nil }
func (c *fakeCache) InvalidateAll(ctx context.Context) error {
	c.invalidateAlls++
	return nil
}

func processorFixture(nb *fakeNotebookClient, maxAttempts int) (*fakeTaskRepo, *fakeNodeStore, *fakeCache, *ArtifactProcessor) {
	taskRepo := newFakeTaskRepo(model.ArtifactTask{
		TaskID:       "task-1",
		NodeID:       10,
		NotebookID:   "nb-1",
		ArtifactType: "video",
		Title:        "演示视频",
		UserID:       2,
		Status:       model.ArtifactPending,
		CreatedAt:    time.Now(),
	})
	nodeStore := newFakeNodeStore(model.DocumentNode{NodeID: 10, DocID: 1, Level: 1, Title: "章节"})
	cache := &fakeCache{}
	p := NewArtifactProcessor(nb, taskRepo, nodeStore, cache, config.NotebookConfig{
		PollIntervalSeconds: 0,
		MaxPollAttempts:     maxAttempts,
	})
	p.pollInterval = time.Millisecond
	return taskRepo, nodeStore, cache, p
}

func generationTask() tasks.ArtifactGenerationTask {
	return tasks.ArtifactGenerationTask{
		TaskID:       "task-1",
		NodeID:       10,
		NotebookID:   "nb-1",
		ArtifactType: "video",
		Title:        "演示视频",
		UserID:       2,
	}
}

func TestProcessSuccessAttachesChildNode(t *testing.T) {
	nb := &fakeNotebookClient{responses: [][]notebook.Artifact{
		{{ID: "a1", Type: "video", Status: "processing"}},
		{{ID: "a1", Type: "video", Status: "completed", URL: "https://cdn/video.mp4"}},
	}}
	taskRepo, nodeStore, cache, p := processorFixture(nb, 10)

	p.Process(context.Background(), generationTask())

	task, err := taskRepo.FindByID(context.Background(), "task-1")
	require.NoError(t, err)
	assert.Equal(t, model.ArtifactSucceeded, task.Status)
	assert.Equal(t, "https://cdn/video.mp4", task.ResultURL)

	// 制品挂为目标节点的子节点，urltype 按制品类型映射
	require.Len(t, nodeStore.created, 1)
	child := nodeStore.created[0]
	assert.Equal(t, int64(11), child.NodeID)
	assert.Equal(t, int64(10), *child.ParentNodeID)
	assert.Equal(t, 2, child.Level)
	assert.Equal(t, model.URLTypeVideo, *child.URLType)

	parent, _ := nodeStore.FindByID(10)
	assert.True(t, parent.Children)
	assert.Equal(t, 1, cache.invalidateAlls)
}

func TestProcessTimesOutAfterMaxAttempts(t *testing.T) {
	nb := &fakeNotebookClient{responses: [][]notebook.Artifact{
		{{ID: "a1", Type: "video", Status: "processing"}},
	}}
	taskRepo, nodeStore, _, p := processorFixture(nb, 3)

	p.Process(context.Background(), generationTask())

	task, _ := taskRepo.FindByID(context.Background(), "task-1")
	assert.Equal(t, model.ArtifactTimedOut, task.Status)
	assert.Equal(t, 3, task.Attempts)
	assert.NotEmpty(t, task.Error)
	assert.Empty(t, nodeStore.created)
}

func TestProcessBridgeFailureMarksFailed(t *testing.T) {
	nb := &fakeNotebookClient{responses: [][]notebook.Artifact{
		{{ID: "a1", Type: "video", Status: "failed", Error: "render error"}},
	}}
	taskRepo, _, _, p := processorFixture(nb, 10)

	p.Process(context.Background(), generationTask())

	task, _ := taskRepo.FindByID(context.Background(), "task-1")
	assert.Equal(t, model.ArtifactFailed, task.Status)
	assert.Contains(t, task.Error, "render error")
}

func TestProcessCreateFailureMarksFailed(t *testing.T) {
	nb := &fakeNotebookClient{createErr: errors.New("bridge unavailable")}
	taskRepo, _, _, p := processorFixture(nb, 10)

	p.Process(context.Background(), generationTask())

	task, _ := taskRepo.FindByID(context.Background(), "task-1")
	assert.Equal(t, model.ArtifactFailed, task.Status)
}

func TestProcessSkipsTerminalTask(t *testing.T) {
	nb := &fakeNotebookClient{}
	taskRepo, nodeStore, _, p := processorFixture(nb, 10)
	done := taskRepo.store["task-1"]
	done.Status = model.ArtifactSucceeded
	taskRepo.store["task-1"] = done

	// 消息重复投递：任务已是终态，不应再触碰桥接服务或节点
	p.Process(context.Background(), generationTask())

	assert.Equal(t, 0, nb.calls)
	assert.Empty(t, nodeStore.created)
}

func TestProcessIgnoresOtherArtifactTypes(t *testing.T) {
	nb := &fakeNotebookClient{responses: [][]notebook.Artifact{
		{{ID: "a1", Type: "audio", Status: "completed", URL: "https://cdn/a.mp3"}},
	}}
	taskRepo, nodeStore, _, p := processorFixture(nb, 2)

	p.Process(context.Background(), generationTask())

	// 类型不匹配的制品不会被采纳，任务最终超时
	task, _ := taskRepo.FindByID(context.Background(), "task-1")
	assert.Equal(t, model.ArtifactTimedOut, task.Status)
	assert.Empty(t, nodeStore.created)
}
