package hierarchy

import "node-hierarchy-go/internal/model"

// CollectDescendants 递归收集目标节点之下的全部子孙（不限深度）。
// 采用对全量节点列表的线性过滤加递归，在预期规模（低至数千节点）下足够。
func CollectDescendants(nodeID int64, all []model.DocumentNode) []model.DocumentNode {
	var descendants []model.DocumentNode
	for i := range all {
		n := all[i]
		if n.ParentNodeID != nil && *n.ParentNodeID == nodeID {
			descendants = append(descendants, n)
			descendants = append(descendants, CollectDescendants(n.NodeID, all)...)
		}
	}
	return descendants
}

// AffectedSet 返回子树级权限变更的完整作用集：目标节点自身加上它的全部子孙。
// 目标节点不在列表中时返回空集。
func AffectedSet(nodeID int64, all []model.DocumentNode) []model.DocumentNode {
	target, ok := findByID(all, nodeID)
	if !ok {
		return nil
	}
	affected := []model.DocumentNode{*target}
	return append(affected, CollectDescendants(nodeID, all)...)
}
