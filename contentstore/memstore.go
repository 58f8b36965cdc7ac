package contentstore

import (
	"sort"
	"sync"
)

// MemStore is an in-memory Store. It backs tests and local development
// where no external content store is configured.
type MemStore struct {
	mu       sync.Mutex
	courses  map[string]*Course
	blocks   map[string]*Block
	hooks    []PrePublishHook
	suppress bool
}

func NewMemStore() *MemStore {
	return &MemStore{
		courses: make(map[string]*Course),
		blocks:  make(map[string]*Block),
	}
}

func (s *MemStore) GetCourse(courseKey string) (*Course, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	course, ok := s.courses[courseKey]
	if !ok {
		return nil, ErrCourseNotFound
	}
	clone := *course
	clone.UserPartitions = append([]UserPartition(nil), course.UserPartitions...)
	return &clone, nil
}

func (s *MemStore) UpdateCourse(course *Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *course
	clone.UserPartitions = append([]UserPartition(nil), course.UserPartitions...)
	s.courses[course.CourseKey] = &clone
	return nil
}

func (s *MemStore) GetBlock(location string) (*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.blocks[location]
	if !ok {
		return nil, ErrBlockNotFound
	}
	return cloneBlock(block), nil
}

func (s *MemStore) GetCourseBlocks(courseKey string) ([]*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Block
	for _, block := range s.blocks {
		if block.CourseKey == courseKey {
			result = append(result, cloneBlock(block))
		}
	}
	sortBlocks(result)
	return result, nil
}

func (s *MemStore) GetBlocksByCategory(courseKey, category string) ([]*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Block
	for _, block := range s.blocks {
		if block.CourseKey == courseKey && block.Category == category {
			result = append(result, cloneBlock(block))
		}
	}
	sortBlocks(result)
	return result, nil
}

func (s *MemStore) GetChildren(parentLocation string) ([]*Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*Block
	for _, block := range s.blocks {
		if block.ParentLocation == parentLocation {
			result = append(result, cloneBlock(block))
		}
	}
	sortBlocks(result)
	return result, nil
}

func (s *MemStore) UpdateBlock(block *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blocks[block.Location] = cloneBlock(block)
	return nil
}

// DeleteBlock removes a block and its descendants, like deleting a unit in
// the authoring tool.
func (s *MemStore) DeleteBlock(location string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteSubtree(location)
}

func (s *MemStore) deleteSubtree(location string) {
	delete(s.blocks, location)
	for loc, block := range s.blocks {
		if block.ParentLocation == location {
			s.deleteSubtree(loc)
		}
	}
}

func (s *MemStore) BulkUpdate(courseKey string, suppressSignals bool, fn func(Store) error) error {
	s.mu.Lock()
	previous := s.suppress
	if suppressSignals {
		s.suppress = true
	}
	s.mu.Unlock()

	err := fn(s)

	s.mu.Lock()
	s.suppress = previous
	s.mu.Unlock()
	return err
}

func (s *MemStore) RegisterPrePublishHook(hook PrePublishHook) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, hook)
}

func (s *MemStore) Publish(courseKey string) {
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

func cloneBlock(block *Block) *Block {
	clone := *block
	if block.GroupAccess != nil {
		clone.GroupAccess = make(GroupAccess, len(block.GroupAccess))
		for partition, groups := range block.GroupAccess {
			clone.GroupAccess[partition] = append([]int(nil), groups...)
		}
	}
	return &clone
}

func sortBlocks(blocks []*Block) {
	sort.Slice(blocks, func(i, j int) bool { return blocks[i].Location < blocks[j].Location })
}
