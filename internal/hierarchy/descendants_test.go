package hierarchy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"node-hierarchy-go/internal/model"
)

func TestCollectDescendantsUnboundedDepth(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 0),
		node(2, ptr(1), 0),
		node(3, ptr(2), 0),
		node(4, ptr(3), 0),
		node(5, ptr(1), 1),
		node(9, nil, 1), // 无关的兄弟树
	}

	got := CollectDescendants(1, nodes)
	ids := make([]int64, 0, len(got))
	for _, n := range got {
		ids = append(ids, n.NodeID)
	}
	assert.ElementsMatch(t, []int64{2, 3, 4, 5}, ids)
}

func TestAffectedSetIncludesTarget(t *testing.T) {
	nodes := []model.DocumentNode{
		node(1, nil, 0),
		node(2, ptr(1), 0),
		node(3, ptr(2), 0),
	}

	got := AffectedSet(2, nodes)
	ids := make([]int64, 0, len(got))
	for _, n := range got {
		ids = append(ids, n.NodeID)
	}
	assert.ElementsMatch(t, []int64{2, 3}, ids)
}

func TestAffectedSetMissingTarget(t *testing.T) {
	assert.Empty(t, AffectedSet(42, []model.DocumentNode{node(1, nil, 0)}))
}

func TestCollectDescendantsLeaf(t *testing.T) {
	nodes := []model.DocumentNode{node(1, nil, 0), node(2, ptr(1), 0)}
	assert.Empty(t, CollectDescendants(2, nodes))
}
