package repository

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm/schema"

	"node-hierarchy-go/internal/model"
)

// parsedColumns 解析模型的 GORM schema，返回其全部数据库列名。
func parsedColumns(t *testing.T, m interface{}) map[string]bool {
	t.Helper()
	s, err := schema.Parse(m, &sync.Map{}, schema.NamingStrategy{})
	require.NoError(t, err)
	cols := make(map[string]bool, len(s.DBNames))
	for _, name := range s.DBNames {
		cols[name] = true
	}
	return cols
}

// 批量 upsert 的赋值列必须都是模型上真实存在的列，
// 否则冲突更新会在数据库侧报未知列错误。
func TestPermissionUpsertColumnsExistOnModel(t *testing.T) {
	cols := parsedColumns(t, &model.DocumentPermission{})

	for _, col := range []string{"node_id", "docid", "user_id", "access_level", "updated_at"} {
		require.True(t, cols[col], "document_permissions 缺少列 %s", col)
	}
}

func TestNodeUpsertColumnsExistOnModel(t *testing.T) {
	cols := parsedColumns(t, &model.DocumentNode{})

	for _, col := range []string{
		"node_id", "parent_node_id", "docid", "sort_order", "level", "title", "text",
		"type", "url", "urltype", "selected", "visible", "children", "updated_at",
	} {
		require.True(t, cols[col], "document_nodes 缺少列 %s", col)
	}
}
