package contentstore

// Group is one bucket of users inside a partition.
type Group struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// UserPartition divides a course's audience into groups under a named
// partitioning scheme. Access to content can then be restricted per group
// through block-level group-access tags.
type UserPartition struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Scheme      string            `json:"scheme"`
	Parameters  map[string]string `json:"parameters"`
	Groups      []Group           `json:"groups"`
}

// GroupAccess maps a partition id to the group ids allowed to see a block.
// A block with no entry for a partition is visible to everyone in it.
type GroupAccess map[int][]int

// Block is one node of a course's content tree.
type Block struct {
	Location       string      `json:"location"`
	CourseKey      string      `json:"course_key"`
	Category       string      `json:"category"`
	ParentLocation string      `json:"parent_location"`
	DisplayName    string      `json:"display_name"`
	GroupAccess    GroupAccess `json:"group_access"`
}

// Course is the root descriptor holding the partition list.
type Course struct {
	CourseKey      string          `json:"course_key"`
	UserPartitions []UserPartition `json:"user_partitions"`
}

// Structural block categories, matching the authoring tool's tree layout:
// sections contain subsections contain units contain leaf content.
const (
	CategorySection    = "chapter"
	CategorySubsection = "sequential"
	CategoryUnit       = "vertical"
)
