package hierarchy

import "node-hierarchy-go/internal/model"

// MergeAccessLevels 用请求用户的权限记录为节点列表标注有效访问级别。
// 管理员短路所有显式授权：每个节点一律 full_access。
// 非管理员按节点 id 查找权限记录；没有记录的节点默认 read_only ——
// 远端行级安全层已经过滤掉了零访问权的节点，出现在列表里即至少可读。
// 这是一个同步的纯合并，输入列表被原地标注后返回。
func MergeAccessLevels(nodes []model.DocumentNode, isAdmin bool, perms []model.DocumentPermission) []model.DocumentNode {
	if isAdmin {
		for i := range nodes {
			nodes[i].AccessLevel = model.AccessFullAccess
		}
		return nodes
	}

	permMap := make(map[int64]model.AccessLevel, len(perms))
	for _, p := range perms {
		permMap[p.NodeID] = p.AccessLevel
	}

	for i := range nodes {
		if level, ok := permMap[nodes[i].NodeID]; ok {
			nodes[i].AccessLevel = level
		} else {
			nodes[i].AccessLevel = model.AccessReadOnly
		}
	}
	return nodes
}
