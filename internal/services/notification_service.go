// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"gorm.io/gorm"

	"github.com/printlane/printlane-backend/internal/config"
	"github.com/printlane/printlane-backend/internal/models"
)

type NotificationService struct {
	db     *gorm.DB
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(db *gorm.DB, config *config.Config) *NotificationService {
	return &NotificationService{
		db:     db,
		config: config,
	}
}

// SendDesignValidatedNotification tells the design owner their artwork
// passed moderation and how many listings went live or to draft.
func (s *NotificationService) SendDesignValidatedNotification(design *models.Design, publishedCount, draftCount int) error {
	owner, err := s.designOwner(design)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"Username":       owner.Username,
		"PublishedCount": publishedCount,
		"DraftCount":     draftCount,
	}

	subject := "Your design was approved"
	tmpl := s.getEmailTemplate("design_validated")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(owner.Email, subject, body)
}

// SendDesignRejectedNotification tells the design owner their artwork was
// rejected and why.
func (s *NotificationService) SendDesignRejectedNotification(design *models.Design, reason string) error {
	owner, err := s.designOwner(design)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"Username": owner.Username,
		"Reason":   reason,
	}

	subject := "Your design was rejected"
	tmpl := s.getEmailTemplate("design_rejected")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(owner.Email, subject, body)
}

// SendListingPublishedNotification confirms a vendor's manual publish.
func (s *NotificationService) SendListingPublishedNotification(listing *models.Listing) error {
	var vendor models.User
	if err := s.db.First(&vendor, "id = ?", listing.VendorID).Error; err != nil {
		return fmt.Errorf("vendor not found: %w", err)
	}

	data := map[string]interface{}{
		"Username":  vendor.Username,
		"ListingID": listing.ID,
	}

	subject := "Your listing is live"
	tmpl := s.getEmailTemplate("listing_published")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(vendor.Email, subject, body)
}

// Helper methods
func (s *NotificationService) designOwner(design *models.Design) (*models.User, error) {
	var owner models.User
	if err := s.db.First(&owner, "id = ?", design.OwnerID).Error; err != nil {
		return nil, fmt.Errorf("design owner not found: %w", err)
	}
	return &owner, nil
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		fmt.Printf("Email would be sent to %s: %s\n", to, subject)
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s", to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"design_validated": {
			Subject: "Your design was approved",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Good news, {{.Username}}!</h2>
	<p>Your design passed moderation.</p>
	<p>{{.PublishedCount}} listing(s) are now live and {{.DraftCount}} listing(s) moved to draft, waiting for you to publish them.</p>
	<p>Best regards,<br>The Printlane Team</p>
</body>
</html>`,
		},
		"design_rejected": {
			Subject: "Your design was rejected",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Username}},</h2>
	<p>Unfortunately your design did not pass moderation.</p>
	<p>Reason: {{.Reason}}</p>
	<p>All listings using this design have been rejected.</p>
	<p>Best regards,<br>The Printlane Team</p>
</body>
</html>`,
		},
		"listing_published": {
			Subject: "Your listing is live",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Username}},</h2>
	<p>Your listing {{.ListingID}} is now published and visible to buyers.</p>
	<p>Best regards,<br>The Printlane Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Message}}</p>",
	}
}
