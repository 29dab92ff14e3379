package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"gopkg.in/gomail.v2"

	"glowreach/config"
)

// BatchNotification carries the fields rendered into the completion email
type BatchNotification struct {
	Subject        string
	UserName       string
	CampaignName   string
	TotalGenerated int
	SkippedTargets int
	AverageScore   float64
	Year           int
}

var batchCompletedTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Subject}}</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { color: #2c3e50; border-bottom: 1px solid #eee; padding-bottom: 10px; }
        .content { margin: 20px 0; }
        .stat { font-size: 18px; font-weight: bold; color: #3498db; }
        .footer { margin-top: 30px; font-size: 12px; color: #7f8c8d; text-align: center; }
    </style>
</head>
<body>
    <div class="header">
        <h2>Your Campaign Batch Is Ready</h2>
    </div>

    <div class="content">
        <p>Hi {{.UserName}},</p>
        <p>Message generation for <strong>{{.CampaignName}}</strong> has finished.</p>

        <p class="stat">{{.TotalGenerated}} messages generated</p>
        {{if .SkippedTargets}}<p>{{.SkippedTargets}} targets were skipped due to generation errors.</p>{{end}}
        <p>Average quality score: {{printf "%.2f" .AverageScore}}</p>

        <p>Log in to review, edit and export your messages.</p>
    </div>

    <div class="footer">
        <p>© {{.Year}} GlowReach. All rights reserved.</p>
    </div>
</body>
</html>`

// SendBatchCompletedEmail notifies the campaign owner that a batch finished.
// It is a no-op when SMTP is not configured.
func SendBatchCompletedEmail(to string, data BatchNotification) error {
	if config.AppConfig.SMTPHost == "" {
		return nil
	}

	data.Subject = fmt.Sprintf("Batch complete: %s", data.CampaignName)
	data.Year = time.Now().Year()

	tmpl, err := template.New("batch_completed").Parse(batchCompletedTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse email template: %w", err)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", config.AppConfig.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", data.Subject)
	m.SetBody("text/html", body.String())

	d := gomail.NewDialer(
		config.AppConfig.SMTPHost,
		config.AppConfig.SMTPPort,
		config.AppConfig.SMTPUsername,
		config.AppConfig.SMTPPassword,
	)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
