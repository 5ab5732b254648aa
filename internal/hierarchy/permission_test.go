package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"node-hierarchy-go/internal/model"
)

func TestMergeDefaultsToReadOnly(t *testing.T) {
	nodes := []model.DocumentNode{node(1, nil, 0), node(2, ptr(1), 0)}
	perms := []model.DocumentPermission{
		{NodeID: 1, UserID: 7, AccessLevel: model.AccessFullAccess},
	}

	merged := MergeAccessLevels(nodes, false, perms)
	assert.Equal(t, model.AccessFullAccess, merged[0].AccessLevel)
	// 节点 2 出现在已过滤的列表中但没有显式权限记录：默认只读。
	assert.Equal(t, model.AccessReadOnly, merged[1].AccessLevel)
}

func TestMergeAdminOverridesExplicitGrants(t *testing.T) {
	nodes := []model.DocumentNode{node(1, nil, 0), node(2, ptr(1), 0), node(3, ptr(1), 1)}
	perms := []model.DocumentPermission{
		{NodeID: 2, UserID: 7, AccessLevel: model.AccessReadOnly},
	}

	merged := MergeAccessLevels(nodes, true, perms)
	for _, n := range merged {
		assert.Equal(t, model.AccessFullAccess, n.AccessLevel)
	}
}

func TestMergeEmptyPermissionList(t *testing.T) {
	nodes := []model.DocumentNode{node(1, nil, 0)}
	merged := MergeAccessLevels(nodes, false, nil)
	assert.Equal(t, model.AccessReadOnly, merged[0].AccessLevel)
}
