package repository

import (
	"gorm.io/gorm"

	"node-hierarchy-go/internal/model"
)

// TagRepository 接口定义了标签及文件标注的数据操作方法。
type TagRepository interface {
	Create(tag *model.Tag) error
	FindByID(id int64) (*model.Tag, error)
	FindAll() ([]model.Tag, error)
	Update(tag *model.Tag) error
	Delete(ids []int64) error
	FindTagIDsByFilePath(filePath string) ([]int64, error)
	ReplaceFileTags(filePath string, tagIDs []int64) error
	FindFilePathsByTagIDs(tagIDs []int64) ([]string, error)
}

type tagRepository struct {
	db *gorm.DB
}

// NewTagRepository 创建一个新的 TagRepository 实例。
func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

// Create 在数据库中插入一个新的标签记录。
func (r *tagRepository) Create(tag *model.Tag) error {
	return r.db.Create(tag).Error
}

// FindByID 根据给定的 ID 查找一个标签。
func (r *tagRepository) FindByID(id int64) (*model.Tag, error) {
	var tag model.Tag
	err := r.db.Where("id = ?", id).First(&tag).Error
	if err != nil {
		return nil, err
	}
	return &tag, nil
}

// FindAll 检索所有的标签记录。
func (r *tagRepository) FindAll() ([]model.Tag, error) {
	var tags []model.Tag
	err := r.db.Order("id ASC").Find(&tags).Error
	return tags, err
}

// Update 更新数据库中一个已存在的标签记录。
func (r *tagRepository) Update(tag *model.Tag) error {
	return r.db.Save(tag).Error
}

// Delete 删除一组标签及其全部文件标注记录，整批在一个事务中完成。
func (r *tagRepository) Delete(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.FileTag{}, "tag_id IN ?", ids).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Tag{}, "id IN ?", ids).Error
	})
}

// FindTagIDsByFilePath 检索某个文件当前被标注的全部标签 ID。
func (r *tagRepository) FindTagIDsByFilePath(filePath string) ([]int64, error) {
	var tagIDs []int64
	err := r.db.Model(&model.FileTag{}).
		Where("file_path = ?", filePath).
		Pluck("tag_id", &tagIDs).Error
	return tagIDs, err
}

// ReplaceFileTags 用给定的标签集合整体替换某个文件的标注。
// 先删后插在同一个事务中完成。
func (r *tagRepository) ReplaceFileTags(filePath string, tagIDs []int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&model.FileTag{}, "file_path = ?", filePath).Error; err != nil {
			return err
		}
		if len(tagIDs) == 0 {
			return nil
		}
		fileTags := make([]model.FileTag, 0, len(tagIDs))
		for _, tagID := range tagIDs {
			fileTags = append(fileTags, model.FileTag{FilePath: filePath, TagID: tagID})
		}
		return tx.Create(&fileTags).Error
	})
}

// FindFilePathsByTagIDs 检索被给定标签标注过的文件路径列表。
func (r *tagRepository) FindFilePathsByTagIDs(tagIDs []int64) ([]string, error) {
	var paths []string
	if len(tagIDs) == 0 {
		return paths, nil
	}
	err := r.db.Model(&model.FileTag{}).
		Where("tag_id IN ?", tagIDs).
		Distinct().
		Pluck("file_path", &paths).Error
	return paths, err
}
