package service

import (
	"errors"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/gorm"

	"node-hierarchy-go/internal/model"
)

type fakeTagRepo struct {
	tags      map[int64]model.Tag
	fileTags  map[string][]int64
	nextID    int64
	failPaths map[string]bool
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{
		tags:      make(map[int64]model.Tag),
		fileTags:  make(map[string][]int64),
		failPaths: make(map[string]bool),
	}
}

func (r *fakeTagRepo) Create(tag *model.Tag) error {
	r.nextID++
	tag.ID = r.nextID
	r.tags[tag.ID] = *tag
	return nil
}

func (r *fakeTagRepo) FindByID(id int64) (*model.Tag, error) {
	t, ok := r.tags[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &t, nil
}

func (r *fakeTagRepo) FindAll() ([]model.Tag, error) {
	out := make([]model.Tag, 0, len(r.tags))
	for _, t := range r.tags {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeTagRepo) Update(tag *model.Tag) error {
	r.tags[tag.ID] = *tag
	return nil
}

func (r *fakeTagRepo) Delete(ids []int64) error {
	for _, id := range ids {
		delete(r.tags, id)
		for path, tagIDs := range r.fileTags {
			kept := tagIDs[:0]
			for _, tagID := range tagIDs {
				if tagID != id {
					kept = append(kept, tagID)
				}
			}
			r.fileTags[path] = kept
		}
	}
	return nil
}

func (r *fakeTagRepo) FindTagIDsByFilePath(filePath string) ([]int64, error) {
	return r.fileTags[filePath], nil
}

func (r *fakeTagRepo) ReplaceFileTags(filePath string, tagIDs []int64) error {
	if r.failPaths[filePath] {
		return errors.New("db write failed")
	}
	r.fileTags[filePath] = tagIDs
	return nil
}

func (r *fakeTagRepo) FindFilePathsByTagIDs(tagIDs []int64) ([]string, error) {
	var out []string
	for path, ids := range r.fileTags {
		for _, id := range ids {
			for _, want := range tagIDs {
				if id == want {
					out = append(out, path)
				}
			}
		}
	}
	return out, nil
}

func tagFixture(t *testing.T) (*fakeTagRepo, TagService) {
	repo := newFakeTagRepo()
	svc := NewTagService(repo)

	// 研究 (1) ← 论文 (2) ← 草稿 (3)；独立的 归档 (4)
	research, err := svc.CreateTag("研究", nil)
	require.NoError(t, err)
	papers, err := svc.CreateTag("论文", &research.ID)
	require.NoError(t, err)
	_, err = svc.CreateTag("草稿", &papers.ID)
	require.NoError(t, err)
	_, err = svc.CreateTag("归档", nil)
	require.NoError(t, err)
	return repo, svc
}

func TestTagTreeLevelsAndNesting(t *testing.T) {
	_, svc := tagFixture(t)

	tree, err := svc.GetTagTree()
	require.NoError(t, err)
	require.Len(t, tree, 2)

	research := tree[0]
	assert.Equal(t, "研究", research.Name)
	assert.Equal(t, 0, research.Level)
	require.Len(t, research.ChildNodes, 1)
	assert.Equal(t, 1, research.ChildNodes[0].Level)
	require.Len(t, research.ChildNodes[0].ChildNodes, 1)
	assert.Equal(t, 2, research.ChildNodes[0].ChildNodes[0].Level)
}

func TestUpdateTagRejectsSelfParent(t *testing.T) {
	_, svc := tagFixture(t)
	id := int64(1)
	_, err := svc.UpdateTag(1, "研究", &id)
	assert.Error(t, err)
}

func TestUpdateTagRejectsDescendantParent(t *testing.T) {
	_, svc := tagFixture(t)
	// 把 研究 挂到自己的孙子 草稿 下会形成环
	grandchild := int64(3)
	_, err := svc.UpdateTag(1, "研究", &grandchild)
	assert.Error(t, err)
}

func TestDeleteTagCascadesToDescendants(t *testing.T) {
	repo, svc := tagFixture(t)
	repo.fileTags["docs/a.md"] = []int64{2, 4}

	// 删除 研究(1) 级联到 论文(2) 与 草稿(3)，归档(4) 不受影响
	require.NoError(t, svc.DeleteTag(1))
	assert.NotContains(t, repo.tags, int64(1))
	assert.NotContains(t, repo.tags, int64(2))
	assert.NotContains(t, repo.tags, int64(3))
	assert.Contains(t, repo.tags, int64(4))

	// 被删标签的文件标注一并清理
	assert.Equal(t, []int64{4}, repo.fileTags["docs/a.md"])
}

func TestDeleteTagMissing(t *testing.T) {
	_, svc := tagFixture(t)
	assert.Error(t, svc.DeleteTag(404))
}

func TestSaveAllClassificationsBestEffort(t *testing.T) {
	repo, svc := tagFixture(t)
	repo.failPaths["docs/broken.pdf"] = true

	saved, failed, err := svc.SaveAllClassifications([]FileClassification{
		{FilePath: "docs/report.pdf", TagIDs: []int64{1}},
		{FilePath: "docs/broken.pdf", TagIDs: []int64{2}},
		{FilePath: "docs/notes.md", TagIDs: []int64{1, 2}},
	})
	require.NoError(t, err)

	// 单个文件失败不中断整批，失败项带原因返回
	assert.Equal(t, 2, saved)
	require.Len(t, failed, 1)
	assert.Equal(t, "docs/broken.pdf", failed[0].FilePath)
	assert.NotEmpty(t, failed[0].Error)

	// 成功的条目确实落了库
	ids, _ := repo.FindTagIDsByFilePath("docs/notes.md")
	assert.Equal(t, []int64{1, 2}, ids)
}

func TestGetFileTags(t *testing.T) {
	repo, svc := tagFixture(t)
	repo.fileTags["docs/report.pdf"] = []int64{1, 3}

	tags, err := svc.GetFileTags("docs/report.pdf")
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "研究", tags[0].Name)
	assert.Equal(t, "草稿", tags[1].Name)
}

func TestGetTaggedFiles(t *testing.T) {
	repo, svc := tagFixture(t)
	repo.fileTags["docs/a.md"] = []int64{1}
	repo.fileTags["docs/b.md"] = []int64{4}

	files, err := svc.GetTaggedFiles([]int64{1})
	require.NoError(t, err)
	assert.Equal(t, []string{"docs/a.md"}, files)

	// 空标签列表直接返回空，不访问仓储
	files, err = svc.GetTaggedFiles(nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}
