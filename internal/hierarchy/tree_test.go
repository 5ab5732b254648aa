package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"node-hierarchy-go/internal/model"
)

func ptr(v int64) *int64 { return &v }

func node(id int64, parent *int64, order int) model.DocumentNode {
	return model.DocumentNode{NodeID: id, ParentNodeID: parent, Order: order}
}

func TestBuildTreeSingleRootWithSortedChildren(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 0),
		node(2, ptr(1), 1),
		node(3, ptr(1), 0),
	}

	roots := BuildTree(nodes)
	require.Len(t, roots, 1)
	assert.Equal(t, int64(1), roots[0].NodeID)
	require.Len(t, roots[0].ChildNodes, 2)
	assert.Equal(t, int64(3), roots[0].ChildNodes[0].NodeID)
	assert.Equal(t, int64(2), roots[0].ChildNodes[1].NodeID)
}

func TestBuildTreeNeverDropsNodes(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 2),
		node(2, ptr(1), 0),
		node(3, ptr(99), 1), // 父节点不存在
		node(4, ptr(0), 0),  // 哨兵 0
		node(5, ptr(-1), 3), // 哨兵 -1
		node(6, ptr(2), 0),
	}

	flat := Flatten(BuildTree(nodes))
	require.Len(t, flat, len(nodes))

	seen := make(map[int64]int)
	for _, n := range flat {
		seen[n.NodeID]++
	}
	for _, n := range nodes {
		assert.Equal(t, 1, seen[n.NodeID], "node %d must appear exactly once", n.NodeID)
	}
}

func TestBuildTreeOrphanBecomesRoot(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 0),
		node(7, ptr(42), 0),
	}

	roots := BuildTree(nodes)
	require.Len(t, roots, 2)
}

func TestBuildTreeSiblingOrderNonDecreasing(t *testing.T) {
	nodes := []model.DocumentNode{
		node(10, nil, 5),
		node(11, nil, 1),
		node(12, nil, 3),
		node(13, ptr(11), 2),
		node(14, ptr(11), 0),
		node(15, ptr(13), 9),
		node(16, ptr(13), 4),
	}

	var checkOrder func(items []*model.NodeTreeItem)
	checkOrder = func(items []*model.NodeTreeItem) {
		for i := 1; i < len(items); i++ {
			assert.LessOrEqual(t, items[i-1].Order, items[i].Order)
		}
		for _, item := range items {
			checkOrder(item.ChildNodes)
		}
	}
	checkOrder(BuildTree(nodes))
}

func TestDisplayTreeFlattensSingleRoot(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 0),
		node(2, ptr(1), 0),
		node(3, ptr(1), 1),
	}

	display := DisplayTree(nodes)
	require.Len(t, display, 2)
	assert.Equal(t, int64(2), display[0].NodeID)
	assert.Equal(t, int64(3), display[1].NodeID)
}

func TestDisplayTreeKeepsMultipleRoots(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 0),
		node(2, nil, 1),
		node(3, ptr(1), 0),
	}

	display := DisplayTree(nodes)
	require.Len(t, display, 2)
	assert.Equal(t, int64(1), display[0].NodeID)
}

func TestDisplayTreeEmptyInput(t *testing.T) {
	assert.Empty(t, DisplayTree(nil))
}
