package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"firebase.google.com/go/v4/messaging"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentstock-backend/internal/domain"
	"rentstock-backend/internal/logger"
)

// MailClient is the part of the SendGrid client used here
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// PushClient is the part of the FCM messaging client used here
type PushClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// EmailNotifier mails the shortfall summary to the organization's operators
type EmailNotifier struct {
	client         MailClient
	fromEmail      string
	fromName       string
	fallbackEmails []string
}

func NewEmailNotifier(client MailClient, fromEmail, fromName string, fallbackEmails []string) *EmailNotifier {
	return &EmailNotifier{
		client:         client,
		fromEmail:      fromEmail,
		fromName:       fromName,
		fallbackEmails: fallbackEmails,
	}
}

// NewSendGridNotifier builds an EmailNotifier backed by the SendGrid API
func NewSendGridNotifier(apiKey, fromEmail, fromName string, fallbackEmails []string) *EmailNotifier {
	return NewEmailNotifier(sendgrid.NewSendClient(apiKey), fromEmail, fromName, fallbackEmails)
}

func (n *EmailNotifier) NotifyShortfall(ctx context.Context, org *domain.Organization, task *domain.OperatorTask, reported []domain.ShortfallWarning) error {
	recipients := org.OperatorEmails
	if len(recipients) == 0 {
		recipients = n.fallbackEmails
	}
	if len(recipients) == 0 {
		logger.Warn("No operator email configured, skipping shortfall email", "org_id", org.ID)
		return nil
	}

	subject := fmt.Sprintf("[%s] %d stock transfer(s) failed", org.Name, len(reported))
	body := fmt.Sprintf("%s\n\n%s", task.Title, task.Message)

	message := mail.NewV3Mail()
	message.SetFrom(mail.NewEmail(n.fromName, n.fromEmail))
	message.Subject = subject
	p := mail.NewPersonalization()
	for _, to := range recipients {
		p.AddTos(mail.NewEmail("", to))
	}
	message.AddPersonalizations(p)
	message.AddContent(mail.NewContent("text/plain", body))

	logger.ExternalServiceCall("sendgrid", "send", "org_id", org.ID, "recipients", len(recipients))
	resp, err := n.client.SendWithContext(ctx, message)
	if err == nil && resp.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", resp.StatusCode, resp.Body)
	}
	logger.ExternalServiceResult("sendgrid", "send", err, "org_id", org.ID)
	if err != nil {
		return fmt.Errorf("failed to send shortfall email: %w", err)
	}
	return nil
}

// PushNotifier publishes the shortfall summary to an FCM topic the operator app subscribes to
type PushNotifier struct {
	client PushClient
	topic  string
}

func NewPushNotifier(client PushClient, topic string) *PushNotifier {
	return &PushNotifier{client: client, topic: topic}
}

func (n *PushNotifier) NotifyShortfall(ctx context.Context, org *domain.Organization, task *domain.OperatorTask, reported []domain.ShortfallWarning) error {
	msg := &messaging.Message{
		Topic: fmt.Sprintf("%s-org-%d", n.topic, org.ID),
		Notification: &messaging.Notification{
			Title: task.Title,
			Body:  fmt.Sprintf("%d new failed transfer(s), %d today", len(reported), len(task.MovementIDs)),
		},
		Data: map[string]string{
			"org_id":  strconv.Itoa(int(org.ID)),
			"task_id": strconv.Itoa(int(task.ID)),
			"day":     task.Day,
		},
	}

	logger.ExternalServiceCall("fcm", "send", "topic", msg.Topic)
	_, err := n.client.Send(ctx, msg)
	logger.ExternalServiceResult("fcm", "send", err, "topic", msg.Topic)
	if err != nil {
		return fmt.Errorf("failed to push shortfall notification: %w", err)
	}
	return nil
}

// MultiNotifier fans out to every channel and reports all failures together
type MultiNotifier struct {
	notifiers []Notifier
	log       *slog.Logger
}

func NewMultiNotifier(log *slog.Logger, notifiers ...Notifier) *MultiNotifier {
	return &MultiNotifier{notifiers: notifiers, log: logger.For(log, "notifier")}
}

func (n *MultiNotifier) NotifyShortfall(ctx context.Context, org *domain.Organization, task *domain.OperatorTask, reported []domain.ShortfallWarning) error {
	if len(n.notifiers) == 0 {
		n.log.InfoContext(ctx, "No notification channel configured", "org_id", org.ID, "task_id", task.ID)
		return nil
	}
	var errs []error
	for _, notifier := range n.notifiers {
		if err := notifier.NotifyShortfall(ctx, org, task, reported); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
