package verification

// Verification access rules are modeled as one user partition per
// checkpoint block in a course. Applying the rules rewrites the course's
// partition list and the group-access tags of the checkpoint's surrounding
// exam content. The pass runs inline on every content publish, so every
// failure mode that stems from misconfiguration downgrades to a logged
// no-op; authoring must never be blocked by the credit subsystem.

import (
	"log"
	"reflect"

	"educredit/contentstore"
)

// ApplyAccessRules scans a course for verification checkpoints and
// reconciles its verification partitions and group-access tags:
//
//   - one partition per live checkpoint, matched by stored location so
//     partition ids survive repeated runs;
//   - partitions of deleted checkpoints are pruned, and their group-access
//     tags cleared from all course blocks;
//   - partitions under other schemes are preserved untouched.
//
// All writes happen in one batched update with publish signals suppressed,
// since this runs from a pre-publish hook and writing course content would
// otherwise re-trigger it.
func ApplyAccessRules(store contentstore.Store, scheme PartitionScheme, courseKey string) error {
	if scheme == nil {
		log.Printf("[VERIFICATION] No verification partition scheme configured; skipping access rules for %s", courseKey)
		return nil
	}

	course, err := store.GetCourse(courseKey)
	if err != nil {
		log.Printf("[VERIFICATION] Could not load course %s; skipping access rules: %v", courseKey, err)
		return nil
	}

	checkpoints, err := store.GetBlocksByCategory(courseKey, CheckpointCategory)
	if err != nil {
		return err
	}

	return store.BulkUpdate(courseKey, true, func(s contentstore.Store) error {
		partitions, pruned := reconcilePartitions(course, scheme, checkpoints)
		course.UserPartitions = partitions
		if err := s.UpdateCourse(course); err != nil {
			return err
		}

		partitionByLocation := make(map[string]int, len(checkpoints))
		for _, partition := range partitions {
			if partition.Scheme == scheme.Name() {
				partitionByLocation[partition.Parameters["location"]] = partition.ID
			}
		}

		for _, checkpoint := range checkpoints {
			partitionID := partitionByLocation[checkpoint.Location]

			// The checkpoint itself is only ever shown to verified-track
			// learners, whatever their submission state.
			if err := tagBlock(s, checkpoint, partitionID, []int{GroupVerifiedAllow, GroupVerifiedDeny}); err != nil {
				return err
			}

			neighbors, err := examContent(s, checkpoint)
			if err != nil {
				return err
			}
			for _, block := range neighbors {
				if err := tagBlock(s, block, partitionID, []int{GroupNonVerified, GroupVerifiedAllow}); err != nil {
					return err
				}
			}
		}

		return clearPrunedTags(s, courseKey, pruned)
	})
}

// RegisterPublishHook wires the partitioner to the content store's
// pre-publish signal.
func RegisterPublishHook(store contentstore.Store, scheme PartitionScheme) {
	store.RegisterPrePublishHook(func(courseKey string) {
		if err := ApplyAccessRules(store, scheme, courseKey); err != nil {
			log.Printf("[VERIFICATION] Applying access rules on publish of %s failed: %v", courseKey, err)
		}
	})
}

// reconcilePartitions rebuilds the course partition list: one verification
// partition per checkpoint (reusing ids where the stored location matches)
// plus every existing non-verification partition. It also returns the ids
// of verification partitions whose checkpoint no longer exists.
func reconcilePartitions(course *contentstore.Course, scheme PartitionScheme, checkpoints []*contentstore.Block) ([]contentstore.UserPartition, []int) {
	existingByLocation := make(map[string]int)
	usedIDs := make(map[int]bool)
	for _, partition := range course.UserPartitions {
		usedIDs[partition.ID] = true
		if partition.Scheme == scheme.Name() {
			if location, ok := partition.Parameters["location"]; ok {
				existingByLocation[location] = partition.ID
			}
		}
	}

	liveLocations := make(map[string]bool, len(checkpoints))
	partitions := make([]contentstore.UserPartition, 0, len(checkpoints))
	for _, checkpoint := range checkpoints {
		liveLocations[checkpoint.Location] = true

		id, ok := existingByLocation[checkpoint.Location]
		if !ok {
			id = unusedPartitionID(usedIDs)
		}
		usedIDs[id] = true

		partitions = append(partitions, contentstore.UserPartition{
			ID:          id,
			Name:        checkpoint.DisplayName,
			Description: "Verification Checkpoint",
			Scheme:      scheme.Name(),
			Parameters:  map[string]string{"location": checkpoint.Location},
			Groups:      scheme.Groups(),
		})
	}

	var pruned []int
	for _, partition := range course.UserPartitions {
		if partition.Scheme != scheme.Name() {
			partitions = append(partitions, partition)
			continue
		}
		if !liveLocations[partition.Parameters["location"]] {
			pruned = append(pruned, partition.ID)
		}
	}

	return partitions, pruned
}

// examContent collects the blocks gated by a checkpoint: sibling content in
// the checkpoint's own unit, and sibling subsections under the same
// section.
func examContent(store contentstore.Store, checkpoint *contentstore.Block) ([]*contentstore.Block, error) {
	var gated []*contentstore.Block

	// Sibling content under the same unit.
	siblings, err := store.GetChildren(checkpoint.ParentLocation)
	if err != nil {
		return nil, err
	}
	for _, block := range siblings {
		if block.Location == checkpoint.Location || block.Category == CheckpointCategory {
			continue
		}
		gated = append(gated, block)
	}

	// Sibling subsections under the same section.
	unit, err := store.GetBlock(checkpoint.ParentLocation)
	if err != nil {
		if err == contentstore.ErrBlockNotFound {
			return gated, nil
		}
		return nil, err
	}
	subsection, err := store.GetBlock(unit.ParentLocation)
	if err != nil {
		if err == contentstore.ErrBlockNotFound {
			return gated, nil
		}
		return nil, err
	}
	subsections, err := store.GetChildren(subsection.ParentLocation)
	if err != nil {
		return nil, err
	}
	for _, block := range subsections {
		if block.Location == subsection.Location || block.Category != contentstore.CategorySubsection {
			continue
		}
		gated = append(gated, block)
	}

	return gated, nil
}

// tagBlock writes a single partition's allowed groups on a block, skipping
// the write when the tag is already in place.
func tagBlock(store contentstore.Store, block *contentstore.Block, partitionID int, groups []int) error {
	if reflect.DeepEqual(block.GroupAccess[partitionID], groups) {
		return nil
	}
	if block.GroupAccess == nil {
		block.GroupAccess = make(contentstore.GroupAccess)
	}
	block.GroupAccess[partitionID] = groups
	return store.UpdateBlock(block)
}

// clearPrunedTags removes group-access entries that reference partitions of
// deleted checkpoints from every block in the course.
func clearPrunedTags(store contentstore.Store, courseKey string, pruned []int) error {
	if len(pruned) == 0 {
		return nil
	}

	blocks, err := store.GetCourseBlocks(courseKey)
	if err != nil {
		return err
	}
	for _, block := range blocks {
		changed := false
		for _, partitionID := range pruned {
			if _, ok := block.GroupAccess[partitionID]; ok {
				delete(block.GroupAccess, partitionID)
				changed = true
			}
		}
		if !changed {
			continue
		}
		if err := store.UpdateBlock(block); err != nil {
			return err
		}
	}
	return nil
}

// unusedPartitionID returns the smallest free id at or above 100, keeping
// small ids available for manually configured partitions.
func unusedPartitionID(used map[int]bool) int {
	id := 100
	for used[id] {
		id++
	}
	return id
}
