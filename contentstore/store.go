package contentstore

import "errors"

// ErrCourseNotFound is returned when a course key matches nothing.
var ErrCourseNotFound = errors.New("course not found in content store")

// ErrBlockNotFound is returned when a block location matches nothing.
var ErrBlockNotFound = errors.New("block not found in content store")

// PrePublishHook runs synchronously just before a course publish lands.
type PrePublishHook func(courseKey string)

// Store is the course-tree document store. The actual storage engine is
// opaque to callers: they get and update items, and can batch writes.
type Store interface {
	GetCourse(courseKey string) (*Course, error)
	UpdateCourse(course *Course) error

	GetBlock(location string) (*Block, error)
	GetCourseBlocks(courseKey string) ([]*Block, error)
	GetBlocksByCategory(courseKey, category string) ([]*Block, error)
	GetChildren(parentLocation string) ([]*Block, error)
	UpdateBlock(block *Block) error

	// BulkUpdate batches the writes made inside fn. With suppressSignals
	// set, publishes triggered by those writes do not fire pre-publish
	// hooks; hooks that write to the store rely on this to avoid
	// re-triggering themselves.
	BulkUpdate(courseKey string, suppressSignals bool, fn func(Store) error) error

	// RegisterPrePublishHook attaches a hook invoked by Publish.
	RegisterPrePublishHook(hook PrePublishHook)

	// Publish signals that a course's content has been (re)published.
	Publish(courseKey string)
}
