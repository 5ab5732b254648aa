package hierarchy

import "node-hierarchy-go/internal/model"

// ReconcileResult 是一次可见性对账的输出。
// Visibility 覆盖输入中的每个节点；Updates 只包含需要持久化的节点
// （有效访问级别为 read_only 的节点被排除在写批之外，它们的可见性
// 仅为展示而计算，绝不会由当前用户写回）。
type ReconcileResult struct {
	Visibility map[int64]bool
	Updates    []model.DocumentNode
}

// ReconcileVisibility 为每个节点计算"从根展开可达"的可见性标志。
// 根节点恒为可见且概念上恒为展开；非根节点的可见性 =
// 父可见 AND 父已展开，展开状态来自调用方传入的 expanded 集合（UI 状态）。
// 输入节点应已完成权限合并（AccessLevel 已标注）。
func ReconcileVisibility(nodes []model.DocumentNode, expanded map[int64]bool) ReconcileResult {
	childrenMap := make(map[int64][]*model.DocumentNode)
	var roots []*model.DocumentNode
	for i := range nodes {
		n := &nodes[i]
		if n.IsRoot() {
			roots = append(roots, n)
		} else {
			childrenMap[*n.ParentNodeID] = append(childrenMap[*n.ParentNodeID], n)
		}
	}

	result := ReconcileResult{Visibility: make(map[int64]bool, len(nodes))}

	var visit func(n *model.DocumentNode, parentVisible, parentExpanded bool)
	visit = func(n *model.DocumentNode, parentVisible, parentExpanded bool) {
		visible := parentVisible && parentExpanded
		result.Visibility[n.NodeID] = visible

		if n.AccessLevel != model.AccessReadOnly {
			updated := *n
			updated.Visible = visible
			result.Updates = append(result.Updates, updated)
		}

		for _, child := range childrenMap[n.NodeID] {
			visit(child, visible, expanded[n.NodeID])
		}
	}

	for _, root := range roots {
		// 根恒可见、恒展开。
		visit(root, true, true)
	}

	// 孤儿子树（父节点不在快照中）不会从任何根被访问到；
	// 它们与根同样从"可见"起步，保证对账覆盖每个输入节点。
	for i := range nodes {
		n := &nodes[i]
		if n.IsRoot() {
			continue
		}
		if _, seen := result.Visibility[n.NodeID]; seen {
			continue
		}
		if _, parentPresent := findByID(nodes, *n.ParentNodeID); !parentPresent {
			visit(n, true, true)
		}
	}

	return result
}

func findByID(nodes []model.DocumentNode, id int64) (*model.DocumentNode, bool) {
	for i := range nodes {
		if nodes[i].NodeID == id {
			return &nodes[i], true
		}
	}
	return nil, false
}
