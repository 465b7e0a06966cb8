package email

import (
	"context"
	"fmt"
	"net/smtp"

	"go.uber.org/zap"
)

type SMTPNotifier struct {
	host   string
	port   int
	from   string
	logger *zap.Logger
}

func NewSMTPNotifier(host string, port int, from string, logger *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{host: host, port: port, from: from, logger: logger}
}

func (n *SMTPNotifier) NotifyFailure(_ context.Context, userEmail, jobID, sourceKey, errorMsg string) error {
	addr := fmt.Sprintf("%s:%d", n.host, n.port)

	msg := failureMessage(n.from, userEmail, jobID, sourceKey, errorMsg)
	if err := smtp.SendMail(addr, nil, n.from, []string{userEmail}, msg); err != nil {
		n.logger.Error("failed to send failure notification email",
			zap.String("to", userEmail),
			zap.String("job_id", jobID),
			zap.Error(err),
		)
		return fmt.Errorf("send email: %w", err)
	}

	n.logger.Info("failure notification email sent",
		zap.String("to", userEmail),
		zap.String("job_id", jobID),
	)
	return nil
}

func failureMessage(from, to, jobID, sourceKey, errorMsg string) []byte {
	subject := fmt.Sprintf("WiggleLens - Your wiggle could not be created [Job %s]", jobID)
	body := fmt.Sprintf(
		"Hello,\r\n\r\n"+
			"We could not turn your photo into a wiggle video.\r\n\r\n"+
			"Job ID: %s\r\n"+
			"Photo: %s\r\n"+
			"Error: %s\r\n\r\n"+
			"Check that the photo has a 3:2 aspect ratio and that three focal points are set, then try again.\r\n\r\n"+
			"-- WiggleLens",
		jobID, sourceKey, errorMsg,
	)
	return []byte(fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", from, to, subject, body))
}
