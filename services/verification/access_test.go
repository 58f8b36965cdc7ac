package verification

import (
	"testing"

	"educredit/contentstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const accessTestCourse = "HogwartsX/Potions101/2026"

// stubScheme stands in for the database-backed scheme; partition
// reconciliation only needs the name and group list.
type stubScheme struct{}

func (stubScheme) Name() string { return SchemeName }

func (stubScheme) Groups() []contentstore.Group {
	return []contentstore.Group{
		{ID: GroupNonVerified, Name: "Non-verified"},
		{ID: GroupVerifiedAllow, Name: "Verified allow"},
		{ID: GroupVerifiedDeny, Name: "Verified deny"},
	}
}

// newCourseTree builds the usual exam shape: one section holding the exam
// subsection (with a unit containing a checkpoint and a problem) plus a
// sibling subsection.
func newCourseTree(t *testing.T) *contentstore.MemStore {
	t.Helper()

	store := contentstore.NewMemStore()
	require.NoError(t, store.UpdateCourse(&contentstore.Course{CourseKey: accessTestCourse}))

	blocks := []*contentstore.Block{
		{Location: "chapter1", CourseKey: accessTestCourse, Category: contentstore.CategorySection, DisplayName: "Week 1"},
		{Location: "seq1", CourseKey: accessTestCourse, Category: contentstore.CategorySubsection, ParentLocation: "chapter1", DisplayName: "Midterm Exam"},
		{Location: "seq2", CourseKey: accessTestCourse, Category: contentstore.CategorySubsection, ParentLocation: "chapter1", DisplayName: "Reading"},
		{Location: "unit1", CourseKey: accessTestCourse, Category: contentstore.CategoryUnit, ParentLocation: "seq1", DisplayName: "Exam Unit"},
		{Location: "checkpoint1", CourseKey: accessTestCourse, Category: CheckpointCategory, ParentLocation: "unit1", DisplayName: "Midterm Checkpoint"},
		{Location: "problem1", CourseKey: accessTestCourse, Category: "problem", ParentLocation: "unit1", DisplayName: "Question 1"},
	}
	for _, block := range blocks {
		require.NoError(t, store.UpdateBlock(block))
	}
	return store
}

func verificationPartitions(course *contentstore.Course) []contentstore.UserPartition {
	var result []contentstore.UserPartition
	for _, partition := range course.UserPartitions {
		if partition.Scheme == SchemeName {
			result = append(result, partition)
		}
	}
	return result
}

func TestApplyAccessRulesCreatesPartition(t *testing.T) {
	store := newCourseTree(t)

	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))

	course, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)

	partitions := verificationPartitions(course)
	require.Len(t, partitions, 1)
	partition := partitions[0]

	assert.Equal(t, 100, partition.ID)
	assert.Equal(t, "Midterm Checkpoint", partition.Name)
	assert.Equal(t, SchemeName, partition.Scheme)
	assert.Equal(t, "checkpoint1", partition.Parameters["location"])
	require.Len(t, partition.Groups, 3)
	assert.Equal(t, GroupNonVerified, partition.Groups[0].ID)
	assert.Equal(t, GroupVerifiedAllow, partition.Groups[1].ID)
	assert.Equal(t, GroupVerifiedDeny, partition.Groups[2].ID)
}

func TestApplyAccessRulesTagsExamContent(t *testing.T) {
	store := newCourseTree(t)

	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))

	// Only verified-track learners ever see the checkpoint itself.
	checkpoint, err := store.GetBlock("checkpoint1")
	require.NoError(t, err)
	assert.Equal(t, []int{GroupVerifiedAllow, GroupVerifiedDeny}, checkpoint.GroupAccess[100])

	// Sibling content in the unit and the sibling subsection are hidden
	// from verified-track learners who still owe a submission.
	for _, location := range []string{"problem1", "seq2"} {
		block, err := store.GetBlock(location)
		require.NoError(t, err)
		assert.Equal(t, []int{GroupNonVerified, GroupVerifiedAllow}, block.GroupAccess[100], location)
	}

	// The exam subsection and the section are left untouched.
	for _, location := range []string{"seq1", "chapter1"} {
		block, err := store.GetBlock(location)
		require.NoError(t, err)
		assert.Empty(t, block.GroupAccess, location)
	}
}

func TestApplyAccessRulesKeepsPartitionIDs(t *testing.T) {
	store := newCourseTree(t)

	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))
	first, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)

	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))
	second, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)

	assert.Equal(t, first.UserPartitions, second.UserPartitions)
}

func TestApplyAccessRulesAllocatesFreshIDs(t *testing.T) {
	store := newCourseTree(t)

	// Another checkpoint plus a pre-existing partition squatting on id 100.
	require.NoError(t, store.UpdateBlock(&contentstore.Block{
		Location: "checkpoint2", CourseKey: accessTestCourse,
		Category: CheckpointCategory, ParentLocation: "unit1", DisplayName: "Final Checkpoint",
	}))
	course, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)
	course.UserPartitions = []contentstore.UserPartition{
		{ID: 100, Name: "Cohorts", Scheme: "cohort", Groups: []contentstore.Group{{ID: 0, Name: "Default"}}},
	}
	require.NoError(t, store.UpdateCourse(course))

	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))

	course, err = store.GetCourse(accessTestCourse)
	require.NoError(t, err)

	partitions := verificationPartitions(course)
	require.Len(t, partitions, 2)
	assert.ElementsMatch(t, []int{101, 102}, []int{partitions[0].ID, partitions[1].ID})

	// The cohort partition survives with its id.
	var cohort *contentstore.UserPartition
	for i := range course.UserPartitions {
		if course.UserPartitions[i].Scheme == "cohort" {
			cohort = &course.UserPartitions[i]
		}
	}
	require.NotNil(t, cohort)
	assert.Equal(t, 100, cohort.ID)
}

func TestApplyAccessRulesPrunesDeletedCheckpoints(t *testing.T) {
	store := newCourseTree(t)

	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))

	// Deleting the checkpoint removes its partition and every tag that
	// referenced it.
	store.DeleteBlock("checkpoint1")
	require.NoError(t, ApplyAccessRules(store, stubScheme{}, accessTestCourse))

	course, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)
	assert.Empty(t, verificationPartitions(course))

	blocks, err := store.GetCourseBlocks(accessTestCourse)
	require.NoError(t, err)
	for _, block := range blocks {
		_, tagged := block.GroupAccess[100]
		assert.False(t, tagged, block.Location)
	}
}

func TestApplyAccessRulesMissingCourseIsNoOp(t *testing.T) {
	store := contentstore.NewMemStore()
	assert.NoError(t, ApplyAccessRules(store, stubScheme{}, "NoSuch/Course/2026"))
}

func TestApplyAccessRulesNilSchemeIsNoOp(t *testing.T) {
	store := newCourseTree(t)
	require.NoError(t, ApplyAccessRules(store, nil, accessTestCourse))

	course, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)
	assert.Empty(t, course.UserPartitions)
}

func TestPublishHookRunsOnceWithoutRetrigger(t *testing.T) {
	store := newCourseTree(t)

	runs := 0
	store.RegisterPrePublishHook(func(courseKey string) {
		runs++
		require.NoError(t, ApplyAccessRules(store, stubScheme{}, courseKey))
	})

	// The pass writes course content while handling the publish; signal
	// suppression keeps that from recursing.
	store.Publish(accessTestCourse)
	assert.Equal(t, 1, runs)

	course, err := store.GetCourse(accessTestCourse)
	require.NoError(t, err)
	assert.Len(t, verificationPartitions(course), 1)
}
