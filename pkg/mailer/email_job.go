package mailer

import "github.com/homeservices/user-service/pkg/mailer/templates"

// EmailJob is the JSON payload put on the RabbitMQ queue for sending email.
// Either Template (with Data) or a literal Subject/Text/HTML is set.
type EmailJob struct {
	To       string               `json:"to"`
	Subject  string               `json:"subject,omitempty"`
	Text     string               `json:"text,omitempty"`
	HTML     string               `json:"html,omitempty"`
	Template string               `json:"template,omitempty"` // "welcome", "account_deactivated"
	Data     *templates.EmailData `json:"data,omitempty"`
}
