package verification

import (
	"log"

	"educredit/contentstore"
	"educredit/models"

	"gorm.io/gorm"
)

// Group ids of the verification partition scheme. Content gated by a
// checkpoint is tagged per group:
//
//   NON_VERIFIED:    learners outside the verified track; checkpoints do
//                    not apply to them at all.
//   VERIFIED_ALLOW:  verified-track learners who submitted (or skipped)
//                    verification at the checkpoint.
//   VERIFIED_DENY:   verified-track learners who still owe a submission.
//
// Exam content allows {NON_VERIFIED, VERIFIED_ALLOW}; the checkpoint block
// itself allows {VERIFIED_ALLOW, VERIFIED_DENY} since only verified-track
// learners ever need to see it.
const (
	GroupNonVerified   = 0
	GroupVerifiedAllow = 1
	GroupVerifiedDeny  = 2
)

// SchemeName is the scheme tag stored on verification partitions.
const SchemeName = "verification"

// CheckpointCategory is the block category of in-course verification
// checkpoints.
const CheckpointCategory = "edx-reverification-block"

// PartitionScheme is the strategy injected into the partitioner at startup.
type PartitionScheme interface {
	Name() string
	Groups() []contentstore.Group
}

// Scheme is the production three-group verification scheme.
type Scheme struct {
	db *gorm.DB
}

func NewScheme(db *gorm.DB) *Scheme {
	return &Scheme{db: db}
}

func (s *Scheme) Name() string { return SchemeName }

func (s *Scheme) Groups() []contentstore.Group {
	return []contentstore.Group{
		{ID: GroupNonVerified, Name: "Not enrolled in a verified track"},
		{ID: GroupVerifiedAllow, Name: "Completed verification at this checkpoint"},
		{ID: GroupVerifiedDeny, Name: "Did not complete verification at this checkpoint"},
	}
}

// GetGroupForUser places a user into one of the scheme's groups for the
// partition of a single checkpoint.
//
// We do not wait for a verification attempt to be approved before allowing
// access: review takes time and the learner might miss a deadline, so a
// submission (or an explicit skip) is enough.
func (s *Scheme) GetGroupForUser(username, courseKey string, partition contentstore.UserPartition) int {
	checkpoint := partition.Parameters["location"]

	if !s.isEnrolledVerified(username, courseKey) {
		return GroupNonVerified
	}
	if s.hasSkippedVerification(username, courseKey) {
		return GroupVerifiedAllow
	}
	if s.hasCompletedCheckpoint(username, courseKey, checkpoint) {
		return GroupVerifiedAllow
	}
	return GroupVerifiedDeny
}

func (s *Scheme) isEnrolledVerified(username, courseKey string) bool {
	var count int64
	err := s.db.Model(&models.Enrollment{}).
		Joins("JOIN users ON users.id = enrollments.user_id").
		Where("users.username = ? AND enrollments.course_key = ? AND enrollments.is_deleted = ?", username, courseKey, false).
		Where("enrollments.mode IN ?", []string{models.EnrollmentModeVerified, models.EnrollmentModeCredit}).
		Count(&count).Error
	if err != nil {
		log.Printf("[VERIFICATION] Enrollment lookup failed for %s in %s: %v", username, courseKey, err)
		return false
	}
	return count > 0
}

func (s *Scheme) hasSkippedVerification(username, courseKey string) bool {
	var count int64
	err := s.db.Model(&models.SkippedVerification{}).
		Where("username = ? AND course_key = ?", username, courseKey).
		Count(&count).Error
	if err != nil {
		log.Printf("[VERIFICATION] Skip lookup failed for %s in %s: %v", username, courseKey, err)
		return false
	}
	return count > 0
}

func (s *Scheme) hasCompletedCheckpoint(username, courseKey, checkpoint string) bool {
	var count int64
	err := s.db.Model(&models.VerificationStatus{}).
		Where("username = ? AND course_key = ? AND checkpoint_location = ? AND is_deleted = ?", username, courseKey, checkpoint, false).
		Where("status IN ?", []string{models.VerificationStatusSubmitted, models.VerificationStatusApproved}).
		Count(&count).Error
	if err != nil {
		log.Printf("[VERIFICATION] Status lookup failed for %s in %s: %v", username, courseKey, err)
		return false
	}
	return count > 0
}
