package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"node-hierarchy-go/internal/model"
)

// nodeListKey 是某个用户合并权限后的节点列表在 Redis 中的键。
func nodeListKey(userID uint) string {
	return fmt.Sprintf("node_list:%d", userID)
}

// NodeCache 接口定义了节点列表缓存的读写操作。
// 缓存的是已合并权限的完整节点列表，按用户隔离。
// 失效时机：用户登出、强制刷新、以及标签筛选激活时绕过缓存。
type NodeCache interface {
	Get(ctx context.Context, userID uint) ([]model.DocumentNode, bool, error)
	Set(ctx context.Context, userID uint, nodes []model.DocumentNode) error
	Invalidate(ctx context.Context, userID uint) error
	InvalidateAll(ctx context.Context) error
}

type nodeCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewNodeCache 创建一个新的 NodeCache 实例。
func NewNodeCache(rdb *redis.Client, ttlSeconds int) NodeCache {
	return &nodeCache{
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}
}

// Get 读取某个用户缓存的节点列表。第二个返回值表示是否命中。
func (c *nodeCache) Get(ctx context.Context, userID uint) ([]model.DocumentNode, bool, error) {
	data, err := c.rdb.Get(ctx, nodeListKey(userID)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("读取节点列表缓存失败: %w", err)
	}
	var nodes []model.DocumentNode
	if err := json.Unmarshal(data, &nodes); err != nil {
		// 缓存内容损坏时按未命中处理，下一次写入会覆盖它
		return nil, false, nil
	}
	return nodes, true, nil
}

// Set 写入某个用户的节点列表缓存。
func (c *nodeCache) Set(ctx context.Context, userID uint, nodes []model.DocumentNode) error {
	data, err := json.Marshal(nodes)
	if err != nil {
		return fmt.Errorf("序列化节点列表失败: %w", err)
	}
	return c.rdb.Set(ctx, nodeListKey(userID), data, c.ttl).Err()
}

// Invalidate 删除某个用户的节点列表缓存。
func (c *nodeCache) Invalidate(ctx context.Context, userID uint) error {
	return c.rdb.Del(ctx, nodeListKey(userID)).Err()
}

// InvalidateAll 删除全部用户的节点列表缓存。
// 节点结构或权限发生写入后调用，保证所有用户下一次读取都是新数据。
func (c *nodeCache) InvalidateAll(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, "node_list:*", 100).Result()
		if err != nil {
			return fmt.Errorf("扫描节点列表缓存键失败: %w", err)
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
