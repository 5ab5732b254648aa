package service

import (
	"context"
	"errors"
	"sort"

	"gorm.io/gorm"

	"node-hierarchy-go/internal/model"
)

// 内存版仓储实现，供服务层测试使用。

type fakeNodeRepo struct {
	nodes          map[int64]model.DocumentNode
	tagged         []model.DocumentNode
	findCalls      int
	bulkUpserts    [][]model.DocumentNode
	failBulkUpsert bool
}

func newFakeNodeRepo(nodes ...model.DocumentNode) *fakeNodeRepo {
	r := &fakeNodeRepo{nodes: make(map[int64]model.DocumentNode)}
	for _, n := range nodes {
		r.nodes[n.NodeID] = n
	}
	return r
}

func (r *fakeNodeRepo) FindAllOrdered() ([]model.DocumentNode, error) {
	r.findCalls++
	out := make([]model.DocumentNode, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (r *fakeNodeRepo) FindByID(nodeID int64) (*model.DocumentNode, error) {
	n, ok := r.nodes[nodeID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &n, nil
}

func (r *fakeNodeRepo) FindByTagIDs(tagIDs []int64) ([]model.DocumentNode, error) {
	return r.tagged, nil
}

func (r *fakeNodeRepo) Create(node *model.DocumentNode) error {
	r.nodes[node.NodeID] = *node
	return nil
}

func (r *fakeNodeRepo) Update(node *model.DocumentNode) error {
	r.nodes[node.NodeID] = *node
	return nil
}

func (r *fakeNodeRepo) UpdateFields(nodeID int64, fields map[string]interface{}) error {
	n := r.nodes[nodeID]
	if title, ok := fields["title"].(string); ok {
		n.Title = title
	}
	if text, ok := fields["text"].(string); ok {
		n.Text = text
	}
	r.nodes[nodeID] = n
	return nil
}

func (r *fakeNodeRepo) Delete(nodeID int64) error {
	delete(r.nodes, nodeID)
	return nil
}

func (r *fakeNodeRepo) DeleteBatch(nodeIDs []int64) error {
	for _, id := range nodeIDs {
		delete(r.nodes, id)
	}
	return nil
}

func (r *fakeNodeRepo) BulkUpsert(nodes []model.DocumentNode) error {
	if r.failBulkUpsert {
		return errors.New("bulk upsert failed")
	}
	r.bulkUpserts = append(r.bulkUpserts, nodes)
	for _, n := range nodes {
		r.nodes[n.NodeID] = n
	}
	return nil
}

func (r *fakeNodeRepo) MaxNodeID() (int64, error) {
	var max int64
	for id := range r.nodes {
		if id > max {
			max = id
		}
	}
	return max, nil
}

func (r *fakeNodeRepo) NextChildOrder(parentNodeID *int64) (int, error) {
	max := 0
	for _, n := range r.nodes {
		if sameParent(n.ParentNodeID, parentNodeID) && n.Order > max {
			max = n.Order
		}
	}
	return max + 1, nil
}

func (r *fakeNodeRepo) SetChildrenFlag(nodeID int64, hasChildren bool) error {
	n := r.nodes[nodeID]
	n.Children = hasChildren
	r.nodes[nodeID] = n
	return nil
}

type fakePermRepo struct {
	perms      map[uint]map[int64]model.DocumentPermission
	upserts    [][]model.DocumentPermission
	deletes    [][]int64
	failUpsert bool
	failDelete bool
}

func newFakePermRepo() *fakePermRepo {
	return &fakePermRepo{perms: make(map[uint]map[int64]model.DocumentPermission)}
}

func (r *fakePermRepo) FindByUserID(userID uint) ([]model.DocumentPermission, error) {
	var out []model.DocumentPermission
	for _, p := range r.perms[userID] {
		out = append(out, p)
	}
	return out, nil
}

func (r *fakePermRepo) FindByNodeIDs(nodeIDs []int64) ([]model.DocumentPermission, error) {
	var out []model.DocumentPermission
	for _, byNode := range r.perms {
		for _, id := range nodeIDs {
			if p, ok := byNode[id]; ok {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r *fakePermRepo) BulkUpsert(perms []model.DocumentPermission) error {
	if r.failUpsert {
		return errors.New("permission upsert failed")
	}
	r.upserts = append(r.upserts, perms)
	for _, p := range perms {
		if r.perms[p.UserID] == nil {
			r.perms[p.UserID] = make(map[int64]model.DocumentPermission)
		}
		r.perms[p.UserID][p.NodeID] = p
	}
	return nil
}

func (r *fakePermRepo) BulkDelete(userID uint, nodeIDs []int64) error {
	if r.failDelete {
		return errors.New("permission delete failed")
	}
	r.deletes = append(r.deletes, nodeIDs)
	for _, id := range nodeIDs {
		delete(r.perms[userID], id)
	}
	return nil
}

func (r *fakePermRepo) DeleteByNodeIDs(nodeIDs []int64) error {
	for _, byNode := range r.perms {
		for _, id := range nodeIDs {
			delete(byNode, id)
		}
	}
	return nil
}

type fakeUserRepo struct {
	users map[uint]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uint]model.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) Create(user *model.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByUsername(username string) (*model.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			copied := u
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByID(userID uint) (*model.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) FindAll() ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *fakeUserRepo) FindWithPagination(offset, limit int) ([]model.User, int64, error) {
	all, _ := r.FindAll()
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *fakeUserRepo) Update(user *model.User) error {
	r.users[user.ID] = *user
	return nil
}

type fakeNodeCache struct {
	store          map[uint][]model.DocumentNode
	invalidated    []uint
	invalidateAlls int
}

func newFakeNodeCache() *fakeNodeCache {
	return &fakeNodeCache{store: make(map[uint][]model.DocumentNode)}
}

func (c *fakeNodeCache) Get(ctx context.Context, userID uint) ([]model.DocumentNode, bool, error) {
	nodes, ok := c.store[userID]
	return nodes, ok, nil
}

func (c *fakeNodeCache) Set(ctx context.Context, userID uint, nodes []model.DocumentNode) error {
	c.store[userID] = nodes
	return nil
}

func (c *fakeNodeCache) Invalidate(ctx context.Context, userID uint) error {
	c.invalidated = append(c.invalidated, userID)
	delete(c.store, userID)
	return nil
}

func (c *fakeNodeCache) InvalidateAll(ctx context.Context) error {
	c.invalidateAlls++
	c.store = make(map[uint][]model.DocumentNode)
	return nil
}
