package contentstore

import (
	"encoding/json"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StoredCourse is the persisted course descriptor.
type StoredCourse struct {
	gorm.Model
	CourseKey  string         `gorm:"uniqueIndex;not null"`
	Partitions datatypes.JSON // serialized []UserPartition
}

// StoredBlock is one persisted content-tree node.
type StoredBlock struct {
	gorm.Model
	Location       string `gorm:"uniqueIndex;not null"`
	CourseKey      string `gorm:"index;not null"`
	Category       string `gorm:"index"`
	ParentLocation string `gorm:"index"`
	DisplayName    string
	GroupAccess    datatypes.JSON // serialized GroupAccess
}

// GormStore persists the course tree in relational rows with JSON payloads
// for partition lists and group-access tags.
type GormStore struct {
	db *gorm.DB

	mu       sync.Mutex
	hooks    []PrePublishHook
	suppress bool
}

func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&StoredCourse{}, &StoredBlock{}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) GetCourse(courseKey string) (*Course, error) {
	var stored StoredCourse
	err := s.db.Where("course_key = ?", courseKey).First(&stored).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrCourseNotFound
	} else if err != nil {
		return nil, err
	}

	course := &Course{CourseKey: stored.CourseKey}
	if len(stored.Partitions) > 0 {
		if err := json.Unmarshal(stored.Partitions, &course.UserPartitions); err != nil {
			return nil, err
		}
	}
	return course, nil
}

func (s *GormStore) UpdateCourse(course *Course) error {
	partitions, err := json.Marshal(course.UserPartitions)
	if err != nil {
		return err
	}

	var stored StoredCourse
	err = s.db.Where("course_key = ?", course.CourseKey).First(&stored).Error
	if err == gorm.ErrRecordNotFound {
		stored = StoredCourse{CourseKey: course.CourseKey, Partitions: partitions}
		return s.db.Create(&stored).Error
	} else if err != nil {
		return err
	}
	return s.db.Model(&stored).Update("partitions", partitions).Error
}

func (s *GormStore) GetBlock(location string) (*Block, error) {
	var stored StoredBlock
	err := s.db.Where("location = ?", location).First(&stored).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrBlockNotFound
	} else if err != nil {
		return nil, err
	}
	return s.toBlock(&stored)
}

func (s *GormStore) GetCourseBlocks(courseKey string) ([]*Block, error) {
	var stored []StoredBlock
	err := s.db.Where("course_key = ?", courseKey).Order("location ASC").Find(&stored).Error
	if err != nil {
		return nil, err
	}
	return s.toBlocks(stored)
}

func (s *GormStore) GetBlocksByCategory(courseKey, category string) ([]*Block, error) {
	var stored []StoredBlock
	err := s.db.Where("course_key = ? AND category = ?", courseKey, category).
		Order("location ASC").Find(&stored).Error
	if err != nil {
		return nil, err
	}
	return s.toBlocks(stored)
}

func (s *GormStore) GetChildren(parentLocation string) ([]*Block, error) {
	var stored []StoredBlock
	err := s.db.Where("parent_location = ?", parentLocation).Order("location ASC").Find(&stored).Error
	if err != nil {
		return nil, err
	}
	return s.toBlocks(stored)
}

func (s *GormStore) UpdateBlock(block *Block) error {
	groupAccess, err := json.Marshal(block.GroupAccess)
	if err != nil {
		return err
	}

	var stored StoredBlock
	err = s.db.Where("location = ?", block.Location).First(&stored).Error
	if err == gorm.ErrRecordNotFound {
		stored = StoredBlock{
			Location:       block.Location,
			CourseKey:      block.CourseKey,
			Category:       block.Category,
			ParentLocation: block.ParentLocation,
			DisplayName:    block.DisplayName,
			GroupAccess:    groupAccess,
		}
		return s.db.Create(&stored).Error
	} else if err != nil {
		return err
	}

	return s.db.Model(&stored).Updates(map[string]interface{}{
		"course_key":      block.CourseKey,
		"category":        block.Category,
		"parent_location": block.ParentLocation,
		"display_name":    block.DisplayName,
		"group_access":    groupAccess,
	}).Error
}

func (s *GormStore) BulkUpdate(courseKey string, suppressSignals bool, fn func(Store) error) error {
	s.mu.Lock()
	previous := s.suppress
	if suppressSignals {
		s.suppress = true
	}
	s.mu.Unlock()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		scoped := &GormStore{db: tx}
		return fn(scoped)
	})

	s.mu.Lock()
	s.suppress = previous
	s.mu.Unlock()
	return err
}

func (s *GormStore) RegisterPrePublishHook(hook PrePublishHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *GormStore) Publish(courseKey string) {
	s.mu.Lock()
	suppressed := s.suppress
	hooks := append([]PrePublishHook(nil), s.hooks...)
	s.mu.Unlock()

	if suppressed {
		return
	}
	for _, hook := range hooks {
		hook(courseKey)
	}
}

func (s *GormStore) toBlock(stored *StoredBlock) (*Block, error) {
	block := &Block{
		Location:       stored.Location,
		CourseKey:      stored.CourseKey,
		Category:       stored.Category,
		ParentLocation: stored.ParentLocation,
		DisplayName:    stored.DisplayName,
	}
	if len(stored.GroupAccess) > 0 {
		if err := json.Unmarshal(stored.GroupAccess, &block.GroupAccess); err != nil {
			return nil, err
		}
	}
	return block, nil
}

func (s *GormStore) toBlocks(stored []StoredBlock) ([]*Block, error) {
	blocks := make([]*Block, 0, len(stored))
	for i := range stored {
		block, err := s.toBlock(&stored[i])
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}
