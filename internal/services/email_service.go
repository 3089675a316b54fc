package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"machcare/internal/warranty"
)

// ReminderEmailData is everything the reminder template needs. The engine
// fills it in and hands it to the mailer; it never inspects the rendered
// output.
type ReminderEmailData struct {
	CustomerName     string
	MachineName      string
	SerialNumber     string
	DaysUntilService int
	HealthScore      int
	TotalSavings     int64
	WarrantyActive   bool
	WarrantyExpiry   time.Time
	ScheduleURL      string
	Recipient        string
}

// Mailer sends a rendered service reminder to a customer
type Mailer interface {
	SendServiceReminder(ctx context.Context, data ReminderEmailData) error
}

// EmailService renders and sends customer emails through SendGrid
type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

// NewEmailService builds the SendGrid-backed mailer
func NewEmailService(apiKey, fromEmail, fromName string) *EmailService {
	return &EmailService{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendServiceReminder emails one customer about their unit's next service
func (s *EmailService) SendServiceReminder(ctx context.Context, data ReminderEmailData) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(data.CustomerName, data.Recipient)

	subject := reminderSubject(data)

	// Direct string formatting, no template variables
	plainContent := fmt.Sprintf(
		"Hello %s, Your %s (serial %s) %s. Health score: %d/100. "+
			"Preventive servicing has saved you an estimated Rs. %d so far. "+
			"Warranty valid until %s. Book your service visit here: %s",
		data.CustomerName, data.MachineName, data.SerialNumber,
		dueSentence(data.DaysUntilService), data.HealthScore, data.TotalSavings,
		data.WarrantyExpiry.Format("Mon Jan 2, 2006"), data.ScheduleURL)

	htmlContent := fmt.Sprintf(
		"<p>Hello %s,</p><p>Your <strong>%s</strong> (serial %s) %s.</p>"+
			"<p>Health score: <strong>%d/100</strong>. Preventive servicing has saved you an estimated <strong>Rs. %d</strong> so far.</p>"+
			"<p>Warranty valid until %s.</p>"+
			"<p><a href=\"%s\">Book your service visit</a></p>",
		data.CustomerName, data.MachineName, data.SerialNumber,
		dueSentence(data.DaysUntilService), data.HealthScore, data.TotalSavings,
		data.WarrantyExpiry.Format("Mon Jan 2, 2006"), data.ScheduleURL)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send reminder to %s: %d", data.Recipient, response.StatusCode)
	}
	return nil
}

func reminderSubject(data ReminderEmailData) string {
	switch warranty.UrgencyFor(data.DaysUntilService) {
	case warranty.UrgencyOverdue:
		return fmt.Sprintf("Service overdue for your %s", data.MachineName)
	case warranty.UrgencyUrgent:
		return fmt.Sprintf("Service due in %d days for your %s", data.DaysUntilService, data.MachineName)
	default:
		return fmt.Sprintf("Upcoming service for your %s", data.MachineName)
	}
}

func dueSentence(daysUntilService int) string {
	switch {
	case daysUntilService < 0:
		return fmt.Sprintf("is overdue for service by %d days", -daysUntilService)
	case daysUntilService == 0:
		return "is due for service today"
	default:
		return fmt.Sprintf("is due for service in %d days", daysUntilService)
	}
}
