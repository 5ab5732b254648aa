// Package hierarchy 实现节点层级的纯内存算法：树装配、权限合并、
// 标签子集解析、可见性对账与子孙遍历。
// 包内函数都是对传入快照的纯变换，不持有共享可变状态。
package hierarchy

import (
	"sort"

	"node-hierarchy-go/internal/model"
)

// BuildTree 将扁平的节点列表装配成一个有序森林。
// 父引用为 nil / 0 / -1 的节点视为根；父引用指向不存在节点的孤儿同样
// 提升为根，绝不丢弃任何节点。每个同级列表（包括根列表）按 Order 升序
// 递归排序，缺失的 Order 按 0 处理。
func BuildTree(nodes []model.DocumentNode) []*model.NodeTreeItem {
	nodeMap := make(map[int64]*model.NodeTreeItem, len(nodes))
	for i := range nodes {
		n := nodes[i]
		nodeMap[n.NodeID] = &model.NodeTreeItem{
			DocumentNode: n,
			ChildNodes:   []*model.NodeTreeItem{},
		}
	}

	var roots []*model.NodeTreeItem
	for i := range nodes {
		item := nodeMap[nodes[i].NodeID]
		if nodes[i].IsRoot() {
			roots = append(roots, item)
			continue
		}
		parent, ok := nodeMap[*nodes[i].ParentNodeID]
		if !ok {
			// 孤儿：父节点不在本次快照中，提升为根而不是丢弃。
			roots = append(roots, item)
			continue
		}
		parent.ChildNodes = append(parent.ChildNodes, item)
	}

	sortSiblings(roots)
	return roots
}

// DisplayTree 构建主视图使用的树：当且仅当存在唯一的真实根时，
// 摊平这个根包装层，只展示它的子节点（单工作区单根假设）；
// 零个或多个根时原样展示顶层。
func DisplayTree(nodes []model.DocumentNode) []*model.NodeTreeItem {
	roots := BuildTree(nodes)
	if len(roots) == 1 {
		return roots[0].ChildNodes
	}
	return roots
}

// sortSiblings 深度优先地对每一层同级节点按 Order 升序排序。
// 使用稳定排序，Order 相同的节点保持输入相对顺序。
func sortSiblings(items []*model.NodeTreeItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Order < items[j].Order
	})
	for _, item := range items {
		if len(item.ChildNodes) > 0 {
			sortSiblings(item.ChildNodes)
		}
	}
}

// Flatten 以深度优先顺序展开一棵树为扁平列表，测试与导出场景使用。
func Flatten(items []*model.NodeTreeItem) []model.DocumentNode {
	var out []model.DocumentNode
	var walk func([]*model.NodeTreeItem)
	walk = func(level []*model.NodeTreeItem) {
		for _, item := range level {
			out = append(out, item.DocumentNode)
			walk(item.ChildNodes)
		}
	}
	walk(items)
	return out
}
