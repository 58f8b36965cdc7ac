package utils

import (
	"educredit/config"
	"educredit/database"
	"educredit/models"
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Generic Send Email
func SendEmail(to []string, subject string, htmlBody string) error {
	smtpHost := "smtp.gmail.com"
	smtpPort := "587"

	from := config.AppConfig.EmailSender
	password := config.AppConfig.Password

	// MIME basics
	msg := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n"
	msg += fmt.Sprintf("From: EduCredit <%s>\r\n", from)
	msg += fmt.Sprintf("To: %s\r\n", strings.Join(to, ","))
	msg += fmt.Sprintf("Subject: %s\r\n\r\n", subject)
	msg += htmlBody

	auth := smtp.PlainAuth("", from, password, smtpHost)

	err := smtp.SendMail(smtpHost+":"+smtpPort, auth, from, to, []byte(msg))
	if err != nil {
		fmt.Println("Error sending email:", err)
		return err
	}
	return nil
}

// HTML wrapper shared by all notification emails
func getEmailTemplate(title string, bodyContent string) string {
	return fmt.Sprintf(`
	<!DOCTYPE html>
	<html>
	<head>
		<style>
			body { font-family: 'Helvetica Neue', Helvetica, Arial, sans-serif; background-color: #F6F6F6; margin: 0; padding: 0; }
			.container { max-width: 600px; margin: 40px auto; background: #FFFFFF; border-radius: 8px; overflow: hidden; box-shadow: 0 4px 15px rgba(0,0,0,0.05); }
			.header { background-color: #00004D; padding: 30px; text-align: center; }
			.header h1 { color: #FFFFFF; margin: 0; font-size: 24px; letter-spacing: 1px; }
			.content { padding: 40px 30px; color: #00004D; line-height: 1.6; }
			.content h2 { color: #00004D; margin-top: 0; }
			.footer { background-color: #F6F6F6; padding: 20px; text-align: center; font-size: 12px; color: #666666; border-top: 1px solid #E0E0E0; }
			.btn { display: inline-block; padding: 12px 24px; background-color: #d7b56d; color: #FFFFFF; text-decoration: none; border-radius: 4px; font-weight: bold; margin-top: 20px; }
		</style>
	</head>
	<body>
		<div class="container">
			<div class="header">
				<h1>EDUCREDIT</h1>
			</div>
			<div class="content">
				<h2>%s</h2>
				%s
			</div>
			<div class="footer">
				&copy; 2026 EduCredit. All rights reserved.<br>
				Questions? Contact %s
			</div>
		</div>
	</body>
	</html>`, title, bodyContent, config.AppConfig.HelpdeskEmail)
}

// NotifyCreditEligibility looks up the learner and sends the eligibility
// email. Suitable as the credit service's notification callback.
func NotifyCreditEligibility(username, courseKey string) {
	var user models.User
	if err := database.Database.Db.Where("username = ? AND is_deleted = false", username).First(&user).Error; err != nil {
		log.Printf("[CREDIT] Cannot notify %s about eligibility in %s: %v", username, courseKey, err)
		return
	}
	if err := SendCreditEligibilityEmail(user.Email, user.Name, courseKey); err != nil {
		log.Printf("[CREDIT] Eligibility email to %s failed: %v", user.Email, err)
	}
}

// SendCreditEligibilityEmail congratulates a learner who just became
// eligible for credit and points them at the request flow.
func SendCreditEligibilityEmail(email, name, courseKey string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>Congratulations! You have satisfied every requirement for university
		credit in <strong>%s</strong>.</p>
		<p>You can now request credit from one of the course's credit providers.</p>
		<a class="btn" href="%s/dashboard">Request Credit</a>`,
		name, courseKey, config.AppConfig.PlatformBaseURL)

	return SendEmail([]string{email}, "You are eligible for course credit!", getEmailTemplate("Credit Eligibility", body))
}

// SendCreditReminderEmail nudges a learner who became eligible but never
// issued a request.
func SendCreditReminderEmail(email, name, courseKey string) error {
	body := fmt.Sprintf(`
		<p>Hi %s,</p>
		<p>You are still eligible for university credit in <strong>%s</strong>,
		but you have not requested it yet.</p>
		<a class="btn" href="%s/dashboard">Request Credit</a>`,
		name, courseKey, config.AppConfig.PlatformBaseURL)

	return SendEmail([]string{email}, "Don't forget your course credit", getEmailTemplate("Credit Reminder", body))
}
