package service

import (
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"

	"node-hierarchy-go/internal/model"
	"node-hierarchy-go/internal/repository"
	"node-hierarchy-go/pkg/log"
)

// FileClassification 是一次文件打标请求中的单个条目。
type FileClassification struct {
	FilePath string  `json:"filePath" binding:"required"`
	TagIDs   []int64 `json:"tagIds"`
}

// ClassificationError 记录批量打标中单个文件的失败原因。
type ClassificationError struct {
	FilePath string `json:"filePath"`
	Error    string `json:"error"`
}

// TagService 接口定义了标签管理与文件打标的业务操作。
type TagService interface {
	CreateTag(name string, parentID *int64) (*model.Tag, error)
	UpdateTag(id int64, name string, parentID *int64) (*model.Tag, error)
	DeleteTag(id int64) error
	GetTagTree() ([]*model.TagTreeNode, error)
	GetFileTags(filePath string) ([]model.Tag, error)
	GetTaggedFiles(tagIDs []int64) ([]string, error)
	SaveAllClassifications(items []FileClassification) (int, []ClassificationError, error)
}

type tagService struct {
	tagRepo repository.TagRepository
}

// NewTagService 创建一个新的 TagService 实例。
func NewTagService(tagRepo repository.TagRepository) TagService {
	return &tagService{tagRepo: tagRepo}
}

// CreateTag 创建一个新标签，parentID 为空表示顶级标签。
func (s *tagService) CreateTag(name string, parentID *int64) (*model.Tag, error) {
	if parentID != nil {
		if _, err := s.tagRepo.FindByID(*parentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("父标签不存在")
			}
			return nil, err
		}
	}
	tag := &model.Tag{Name: name, ParentID: parentID}
	if err := s.tagRepo.Create(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// UpdateTag 更新标签的名称或父级。不允许把标签挂到自己或自己的子孙下。
func (s *tagService) UpdateTag(id int64, name string, parentID *int64) (*model.Tag, error) {
	tag, err := s.tagRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("标签不存在")
		}
		return nil, err
	}

	if parentID != nil {
		if *parentID == id {
			return nil, errors.New("标签不能作为自己的父级")
		}
		all, err := s.tagRepo.FindAll()
		if err != nil {
			return nil, err
		}
		if isDescendantTag(all, id, *parentID) {
			return nil, errors.New("标签不能挂到自己的子孙下")
		}
		if _, err := s.tagRepo.FindByID(*parentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, errors.New("父标签不存在")
			}
			return nil, err
		}
	}

	tag.Name = name
	tag.ParentID = parentID
	if err := s.tagRepo.Update(tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// DeleteTag 删除一个标签，级联删除其全部子孙标签及相关的文件标注。
func (s *tagService) DeleteTag(id int64) error {
	all, err := s.tagRepo.FindAll()
	if err != nil {
		return err
	}
	found := false
	for _, t := range all {
		if t.ID == id {
			found = true
			break
		}
	}
	if !found {
		return errors.New("标签不存在")
	}

	ids := []int64{id}
	for _, t := range all {
		if t.ID != id && isDescendantTag(all, id, t.ID) {
			ids = append(ids, t.ID)
		}
	}
	return s.tagRepo.Delete(ids)
}

// GetTagTree 返回完整的标签树，每个节点带嵌套深度。
func (s *tagService) GetTagTree() ([]*model.TagTreeNode, error) {
	all, err := s.tagRepo.FindAll()
	if err != nil {
		return nil, err
	}

	items := make(map[int64]*model.TagTreeNode, len(all))
	for _, t := range all {
		items[t.ID] = &model.TagTreeNode{Tag: t, ChildNodes: []*model.TagTreeNode{}}
	}

	var roots []*model.TagTreeNode
	for _, t := range all {
		item := items[t.ID]
		if t.ParentID == nil {
			roots = append(roots, item)
			continue
		}
		if parent, ok := items[*t.ParentID]; ok {
			parent.ChildNodes = append(parent.ChildNodes, item)
		} else {
			// 父标签缺失时提升为顶级，不丢弃
			roots = append(roots, item)
		}
	}

	var setLevel func(items []*model.TagTreeNode, level int)
	setLevel = func(items []*model.TagTreeNode, level int) {
		for _, item := range items {
			item.Level = level
			sort.SliceStable(item.ChildNodes, func(i, j int) bool {
				return item.ChildNodes[i].ID < item.ChildNodes[j].ID
			})
			setLevel(item.ChildNodes, level+1)
		}
	}
	sort.SliceStable(roots, func(i, j int) bool { return roots[i].ID < roots[j].ID })
	setLevel(roots, 0)

	return roots, nil
}

// GetFileTags 返回某个文件当前被标注的标签列表。
func (s *tagService) GetFileTags(filePath string) ([]model.Tag, error) {
	tagIDs, err := s.tagRepo.FindTagIDsByFilePath(filePath)
	if err != nil {
		return nil, err
	}
	tags := make([]model.Tag, 0, len(tagIDs))
	for _, id := range tagIDs {
		tag, err := s.tagRepo.FindByID(id)
		if err != nil {
			continue
		}
		tags = append(tags, *tag)
	}
	return tags, nil
}

// GetTaggedFiles 返回被给定标签标注过的文件路径列表（去重）。
func (s *tagService) GetTaggedFiles(tagIDs []int64) ([]string, error) {
	if len(tagIDs) == 0 {
		return []string{}, nil
	}
	return s.tagRepo.FindFilePathsByTagIDs(tagIDs)
}

// SaveAllClassifications 批量保存多个文件的标注，尽力而为：
// 单个文件失败不会中断整批，失败项连同原因收集后一并返回。
// 返回成功数量与失败明细。
func (s *tagService) SaveAllClassifications(items []FileClassification) (int, []ClassificationError, error) {
	var (
		saved  int
		failed []ClassificationError
	)
	for _, item := range items {
		if err := s.tagRepo.ReplaceFileTags(item.FilePath, item.TagIDs); err != nil {
			log.Errorf("[TagService] 保存文件标注失败, filePath: %s, error: %v", item.FilePath, err)
			failed = append(failed, ClassificationError{
				FilePath: item.FilePath,
				Error:    fmt.Sprintf("保存失败: %v", err),
			})
			continue
		}
		saved++
	}
	return saved, failed, nil
}

// isDescendantTag 判断 candidate 是否位于 ancestor 的子树内。
func isDescendantTag(all []model.Tag, ancestor, candidate int64) bool {
	parentMap := make(map[int64]*int64, len(all))
	for _, t := range all {
		parentMap[t.ID] = t.ParentID
	}
	current := candidate
	for i := 0; i < len(all); i++ {
		parent, ok := parentMap[current]
		if !ok || parent == nil {
			return false
		}
		if *parent == ancestor {
			return true
		}
		current = *parent
	}
	return false
}
