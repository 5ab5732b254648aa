package hierarchy

import (
	"strings"

	"node-hierarchy-go/internal/model"
)

// FileBaseName 取 URL 最后一个路径段作为文件名。
// 节点与标签的关联就建立在这个文件名与已打标文件路径的匹配之上。
func FileBaseName(url string) string {
	if url == "" {
		return ""
	}
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}

// FilterByFilePaths 是标签子集解析的客户端路径：给定一组目标文件名，
// 对 URL 文件名命中的每个节点，沿 ParentNodeID 向上攀爬，把每个祖先
// 加入包含集（去重记忆化），最后按原始顺序过滤全量列表。
// 空的目标集合表示"无过滤"，返回完整列表而不是空结果。
// 祖先链断裂（父节点缺失）的节点仍包含自身，仅停止攀爬。
func FilterByFilePaths(nodes []model.DocumentNode, baseNames map[string]bool) []model.DocumentNode {
	if len(baseNames) == 0 {
		return nodes
	}

	byID := make(map[int64]*model.DocumentNode, len(nodes))
	for i := range nodes {
		byID[nodes[i].NodeID] = &nodes[i]
	}

	included := make(map[int64]bool)
	for i := range nodes {
		n := &nodes[i]
		if !baseNames[FileBaseName(n.URL)] {
			continue
		}
		included[n.NodeID] = true

		cur := n
		for !cur.IsRoot() {
			parent, ok := byID[*cur.ParentNodeID]
			if !ok {
				// 祖先链在这里断裂，保留已收集的部分。
				break
			}
			if included[parent.NodeID] {
				// 这条链的更上层已经处理过。
				break
			}
			included[parent.NodeID] = true
			cur = parent
		}
	}

	filtered := make([]model.DocumentNode, 0, len(included))
	for i := range nodes {
		if included[nodes[i].NodeID] {
			filtered = append(filtered, nodes[i])
		}
	}
	return filtered
}
