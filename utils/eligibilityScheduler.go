package utils

import (
	"educredit/database"
	"educredit/models"
	credit "educredit/models/credit"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// InitializeEligibilityScheduler sets up the daily credit reminder job
func InitializeEligibilityScheduler() {
	log.Println("[ELIGIBILITY-SCHEDULER] Initializing eligibility scheduler...")

	c := cron.New()

	// Run daily at 9 AM to remind eligible users who haven't requested credit
	c.AddFunc("0 9 * * *", func() {
		log.Println("[ELIGIBILITY-SCHEDULER] Running daily eligibility reminder check...")
		ProcessUnredeemedEligibilities()
	})

	c.Start()
	log.Println("[ELIGIBILITY-SCHEDULER] Eligibility scheduler started - runs daily at 9 AM")
}

// ProcessUnredeemedEligibilities sends one reminder email per eligibility that is
// at least two days old and has no credit request against it yet.
func ProcessUnredeemedEligibilities() {
	db := database.Database.Db
	cutoff := time.Now().AddDate(0, 0, -2)

	var eligibilities []credit.CreditEligibility
	if err := db.
		Where("notification_sent = false AND created_at < ?", cutoff).
		Preload("Course").
		Find(&eligibilities).Error; err != nil {
		log.Printf("[ELIGIBILITY-SCHEDULER] Error fetching eligibilities: %v", err)
		return
	}

	log.Printf("[ELIGIBILITY-SCHEDULER] Found %d unredeemed eligibilities", len(eligibilities))

	for _, elig := range eligibilities {
		var requestCount int64
		if err := db.Model(&credit.CreditRequest{}).
			Where("username = ? AND course_id = ?", elig.Username, elig.CourseID).
			Count(&requestCount).Error; err != nil {
			log.Printf("[ELIGIBILITY-SCHEDULER] Error counting requests for %s: %v", elig.Username, err)
			continue
		}
		if requestCount > 0 {
			// Already redeemed, no reminder needed
			db.Model(&elig).Update("notification_sent", true)
			continue
		}

		var user models.User
		if err := db.Where("username = ?", elig.Username).First(&user).Error; err != nil {
			log.Printf("[ELIGIBILITY-SCHEDULER] Error fetching user %s: %v", elig.Username, err)
			continue
		}

		if err := SendCreditReminderEmail(user.Email, user.Name, elig.Course.CourseKey); err != nil {
			log.Printf("[ELIGIBILITY-SCHEDULER] Error sending reminder to %s: %v", user.Email, err)
			continue
		}

		db.Model(&elig).Update("notification_sent", true)
		log.Printf("[ELIGIBILITY-SCHEDULER] Sent credit reminder for %s to %s", elig.Course.CourseKey, user.Email)
	}
}
