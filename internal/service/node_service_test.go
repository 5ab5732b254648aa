package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"node-hierarchy-go/internal/model"
)

func nodeFixture() (*fakeNodeRepo, *fakePermRepo, *fakeNodeCache, NodeService) {
	nodeRepo := newFakeNodeRepo(
		testNode(1, nil, 1),
		testNode(2, ptr(1), 1),
		testNode(3, ptr(1), 2),
		testNode(4, ptr(2), 1),
	)
	permRepo := newFakePermRepo()
	cache := newFakeNodeCache()
	return nodeRepo, permRepo, cache, NewNodeService(nodeRepo, permRepo, cache)
}

func TestCreateAssignsNextIDOrderAndLevel(t *testing.T) {
	nodeRepo, _, cache, svc := nodeFixture()

	node, err := svc.Create(context.Background(), CreateNodeRequest{
		ParentNodeID: ptr(2),
		Title:        "新节点",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(5), node.NodeID) // 当前最大 ID 加一
	assert.Equal(t, 2, node.Order)         // 节点 4 之后
	assert.Equal(t, 1, node.Level)         // 父节点 2 的层级加一

	parent, _ := nodeRepo.FindByID(2)
	assert.True(t, parent.Children)
	assert.Equal(t, 1, cache.invalidateAlls)
}

func TestCreateRootLevelZero(t *testing.T) {
	_, _, _, svc := nodeFixture()

	node, err := svc.Create(context.Background(), CreateNodeRequest{Title: "根"})
	require.NoError(t, err)
	assert.Equal(t, 0, node.Level)
	assert.Nil(t, node.ParentNodeID)
}

func TestUpdatePartialKeepsOtherFields(t *testing.T) {
	nodeRepo, _, _, svc := nodeFixture()
	n := nodeRepo.nodes[2]
	n.Title = "原标题"
	n.Text = "原正文"
	nodeRepo.nodes[2] = n

	updated, err := svc.Update(context.Background(), 2, map[string]interface{}{"title": "新标题"})
	require.NoError(t, err)
	assert.Equal(t, "新标题", updated.Title)
	assert.Equal(t, "原正文", updated.Text)
}

func TestUpdateStripsProtectedFields(t *testing.T) {
	_, _, _, svc := nodeFixture()

	updated, err := svc.Update(context.Background(), 2, map[string]interface{}{
		"node_id":     int64(999),
		"accessLevel": "full_access",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.NodeID)
	assert.Empty(t, updated.AccessLevel)
}

func TestDeleteRemovesDescendantsAndPermissions(t *testing.T) {
	nodeRepo, permRepo, _, svc := nodeFixture()
	permRepo.perms[7] = map[int64]model.DocumentPermission{
		2: {NodeID: 2, UserID: 7, AccessLevel: model.AccessFullAccess},
		4: {NodeID: 4, UserID: 7, AccessLevel: model.AccessFullAccess},
		3: {NodeID: 3, UserID: 7, AccessLevel: model.AccessFullAccess},
	}

	require.NoError(t, svc.Delete(context.Background(), 2))

	// 节点 2 与其子孙 4 被删除，兄弟 3 保留
	_, err := nodeRepo.FindByID(2)
	assert.Error(t, err)
	_, err = nodeRepo.FindByID(4)
	assert.Error(t, err)
	_, err = nodeRepo.FindByID(3)
	assert.NoError(t, err)

	perms, _ := permRepo.FindByUserID(7)
	require.Len(t, perms, 1)
	assert.Equal(t, int64(3), perms[0].NodeID)
}

func TestDeleteMissingNode(t *testing.T) {
	_, _, _, svc := nodeFixture()
	assert.Error(t, svc.Delete(context.Background(), 404))
}

func TestReorderSiblingsSingleBatch(t *testing.T) {
	nodeRepo, _, cache, svc := nodeFixture()

	err := svc.ReorderSiblings(context.Background(), ptr(1), []int64{3, 2})
	require.NoError(t, err)

	// 全部变更在一次批量写入中完成
	require.Len(t, nodeRepo.bulkUpserts, 1)
	batch := nodeRepo.bulkUpserts[0]
	require.Len(t, batch, 2)
	assert.Equal(t, int64(3), batch[0].NodeID)
	assert.Equal(t, 1, batch[0].Order)
	assert.Equal(t, int64(2), batch[1].NodeID)
	assert.Equal(t, 2, batch[1].Order)
	assert.Equal(t, 1, cache.invalidateAlls)
}

func TestReorderRejectsNonSibling(t *testing.T) {
	nodeRepo, _, _, svc := nodeFixture()

	err := svc.ReorderSiblings(context.Background(), ptr(1), []int64{2, 4})
	require.Error(t, err)
	assert.Empty(t, nodeRepo.bulkUpserts)
}

func TestReorderRejectsUnknownNode(t *testing.T) {
	_, _, _, svc := nodeFixture()
	assert.Error(t, svc.ReorderSiblings(context.Background(), ptr(1), []int64{2, 404}))
}

func TestImportHierarchyNested(t *testing.T) {
	nodeRepo, _, _, svc := nodeFixture()

	count, err := svc.ImportHierarchy(context.Background(), ptr(3), []ImportNode{
		{
			Title: "章节",
			ChildNodes: []ImportNode{
				{Title: "小节一"},
				{Title: "小节二", ChildNodes: []ImportNode{{Title: "要点"}}},
			},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	// 导入的节点从当前最大 ID 之后连续分配
	chapter, err := nodeRepo.FindByID(5)
	require.NoError(t, err)
	assert.Equal(t, "章节", chapter.Title)
	assert.Equal(t, int64(3), *chapter.ParentNodeID)
	assert.Equal(t, 1, chapter.Level) // 父节点 3 的层级加一
	assert.True(t, chapter.Children)

	point, err := nodeRepo.FindByID(8)
	require.NoError(t, err)
	assert.Equal(t, "要点", point.Title)
	assert.Equal(t, 3, point.Level)
}
