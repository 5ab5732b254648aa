package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"node-hierarchy-go/internal/model"
)

func ptr(v int64) *int64 { return &v }

func testNode(id int64, parent *int64, order int) model.DocumentNode {
	return model.DocumentNode{NodeID: id, ParentNodeID: parent, DocID: 1, Order: order}
}

func adminFixture() (*fakeUserRepo, *fakeNodeRepo, *fakePermRepo, *fakeNodeCache, AdminService) {
	userRepo := newFakeUserRepo(
		model.User{ID: 1, Username: "admin", Role: model.RoleAdmin},
		model.User{ID: 2, Username: "alice", Role: model.RoleUser},
	)
	// 1 ← 2 ← 3，外加一个无关节点 9
	nodeRepo := newFakeNodeRepo(
		testNode(1, nil, 1),
		testNode(2, ptr(1), 2),
		testNode(3, ptr(2), 3),
		testNode(9, nil, 9),
	)
	permRepo := newFakePermRepo()
	cache := newFakeNodeCache()
	svc := NewAdminService(userRepo, nodeRepo, permRepo, cache)
	return userRepo, nodeRepo, permRepo, cache, svc
}

func TestUpdateSubtreePermissionGrantCoversDescendants(t *testing.T) {
	_, _, permRepo, cache, svc := adminFixture()

	affected, err := svc.UpdateSubtreePermission(context.Background(), 2, 1, model.AccessFullAccess)
	require.NoError(t, err)
	assert.Equal(t, 3, affected)

	// 目标节点与全部子孙都拿到了显式权限，无关节点不受影响
	perms, _ := permRepo.FindByUserID(2)
	got := make(map[int64]model.AccessLevel)
	for _, p := range perms {
		got[p.NodeID] = p.AccessLevel
	}
	assert.Equal(t, map[int64]model.AccessLevel{
		1: model.AccessFullAccess,
		2: model.AccessFullAccess,
		3: model.AccessFullAccess,
	}, got)
	assert.Equal(t, []uint{uint(2)}, cache.invalidated)
}

func TestUpdateSubtreePermissionGrantIsIdempotent(t *testing.T) {
	_, _, permRepo, _, svc := adminFixture()

	_, err := svc.UpdateSubtreePermission(context.Background(), 2, 2, model.AccessFullAccess)
	require.NoError(t, err)
	_, err = svc.UpdateSubtreePermission(context.Background(), 2, 2, model.AccessFullAccess)
	require.NoError(t, err)

	perms, _ := permRepo.FindByUserID(2)
	assert.Len(t, perms, 2) // 节点 2 与 3，重复授予不产生新记录
}

func TestUpdateSubtreePermissionNoneDeletesExactSubtree(t *testing.T) {
	_, _, permRepo, _, svc := adminFixture()

	_, err := svc.UpdateSubtreePermission(context.Background(), 2, 1, model.AccessFullAccess)
	require.NoError(t, err)

	affected, err := svc.UpdateSubtreePermission(context.Background(), 2, 2, model.AccessNone)
	require.NoError(t, err)
	assert.Equal(t, 2, affected)

	// 子树 {2,3} 的记录被删除，节点 1 的保留
	perms, _ := permRepo.FindByUserID(2)
	require.Len(t, perms, 1)
	assert.Equal(t, int64(1), perms[0].NodeID)
}

func TestUpdateSubtreePermissionFailureLeavesStateUntouched(t *testing.T) {
	_, _, permRepo, cache, svc := adminFixture()
	permRepo.failUpsert = true

	_, err := svc.UpdateSubtreePermission(context.Background(), 2, 1, model.AccessFullAccess)
	require.Error(t, err)

	// 失败时不做任何乐观修改：无权限记录，无缓存失效
	perms, _ := permRepo.FindByUserID(2)
	assert.Empty(t, perms)
	assert.Empty(t, cache.invalidated)
}

func TestUpdateSubtreePermissionRejectsAdminTarget(t *testing.T) {
	_, _, _, _, svc := adminFixture()

	_, err := svc.UpdateSubtreePermission(context.Background(), 1, 1, model.AccessFullAccess)
	assert.Error(t, err)
}

func TestUpdateSubtreePermissionRejectsUnknownLevel(t *testing.T) {
	_, _, _, _, svc := adminFixture()

	_, err := svc.UpdateSubtreePermission(context.Background(), 2, 1, model.AccessLevel("owner"))
	assert.Error(t, err)
}

func TestUpdateSubtreePermissionMissingNode(t *testing.T) {
	_, _, _, _, svc := adminFixture()

	_, err := svc.UpdateSubtreePermission(context.Background(), 2, 404, model.AccessReadOnly)
	assert.Error(t, err)
}

func TestListUsersReturnsFormattedSummaries(t *testing.T) {
	_, _, _, _, svc := adminFixture()

	users, total, err := svc.ListUsers(1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, users, 2)
	assert.Equal(t, uint(1), users[0].UserID)
	assert.Equal(t, "admin", users[0].Username)

	// 列表项序列化为本地时间格式，且不含密码等敏感字段
	raw, err := json.Marshal(users[1])
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"username":"alice"`)
	assert.Regexp(t, `"createdAt":"\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}"`, string(raw))
	assert.NotContains(t, string(raw), "password")
}

func TestGetNodePermissionsCoversSubtree(t *testing.T) {
	_, _, permRepo, _, svc := adminFixture()
	permRepo.perms[2] = map[int64]model.DocumentPermission{
		2: {NodeID: 2, UserID: 2, AccessLevel: model.AccessFullAccess},
		9: {NodeID: 9, UserID: 2, AccessLevel: model.AccessReadOnly},
	}

	// 查询节点 1 的子树（1、2、3），只有节点 2 上有显式权限
	perms, err := svc.GetNodePermissions(1)
	require.NoError(t, err)
	require.Len(t, perms, 1)
	assert.Equal(t, int64(2), perms[0].NodeID)
	assert.Equal(t, uint(2), perms[0].UserID)
}

func TestGetNodePermissionsMissingNode(t *testing.T) {
	_, _, _, _, svc := adminFixture()

	_, err := svc.GetNodePermissions(404)
	assert.Error(t, err)
}
