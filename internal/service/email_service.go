package service

import (
	"context"
	"fmt"
	"html"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"nextgenschool/internal/logger"
)

// sesAPI is the part of the SES client the email service uses
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     sesAPI
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	log        *logger.Logger
}

// NewEmailService creates a new email service. Without fromEmail the
// service is disabled and every send is a logged no-op.
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, log *logger.Logger) (*EmailService, error) {
	log = log.With("component", "email")
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false, log: log}, nil
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return newEmailService(sesv2.NewFromConfig(cfg), fromEmail, fromName, appBaseURL, log), nil
}

func newEmailService(client sesAPI, fromEmail, fromName, appBaseURL string, log *logger.Logger) *EmailService {
	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		log:        log,
	}
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendCourseCompletedEmail tells a parent their child finished a course
func (s *EmailService) SendCourseCompletedEmail(ctx context.Context, toEmail, parentName, learnerName, courseTitle string) error {
	if !s.enabled {
		s.log.Debug("skipping email send (service disabled)", "kind", "course_completed", "to", toEmail)
		return nil
	}

	subject := fmt.Sprintf("%s completed %s!", learnerName, courseTitle)
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>%s finished a course!</h1>
	<p>Hi %s,</p>
	<p>%s just completed all chapters of <strong>%s</strong> on NextGen School.</p>
	<p><a href="%s/parent">See their progress</a></p>
	<p style="font-size: 12px; color: #666;">This is an automated email from NextGen School. Please do not reply.</p>
</body>
</html>`,
		html.EscapeString(learnerName),
		html.EscapeString(parentName),
		html.EscapeString(learnerName),
		html.EscapeString(courseTitle),
		s.appBaseURL,
	)
	textBody := fmt.Sprintf(`Hi %s,

%s just completed all chapters of %s on NextGen School.

See their progress: %s/parent

---
This is an automated email from NextGen School. Please do not reply.
`, parentName, learnerName, courseTitle, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to new parents
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		s.log.Debug("skipping email send (service disabled)", "kind", "welcome", "to", toEmail)
		return nil
	}

	subject := "Welcome to NextGen School!"
	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<h1>Welcome to NextGen School!</h1>
	<p>Hi %s,</p>
	<p>Add your children from the parent dashboard. Each child gets a 4-digit PIN to sign in and start exploring AI, space and robotics.</p>
	<p><a href="%s/parent">Open the dashboard</a></p>
</body>
</html>`, html.EscapeString(toName), s.appBaseURL)
	textBody := fmt.Sprintf(`Hi %s,

Add your children from the parent dashboard. Each child gets a 4-digit PIN to sign in and start exploring AI, space and robotics.

Open the dashboard: %s/parent
`, toName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	out, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.log.Info("email sent", "to", toEmail, "subject", subject, "message_id", aws.ToString(out.MessageId))
	return nil
}
