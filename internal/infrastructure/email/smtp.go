// Package email delivers operator notifications over SMTP. The only
// traffic is failure notices raised by the recovery path; routine
// request errors stay in the logs.
package email

import (
	"fmt"
	"time"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host        string
	Port        int
	Username    string
	Password    string
	FromAddress string
	// OpsAddress receives failure notices.
	OpsAddress string
}

type SMTPNotifier struct {
	config SMTPConfig
	dialer *gomail.Dialer
}

func NewSMTPNotifier(config SMTPConfig) *SMTPNotifier {
	dialer := gomail.NewDialer(config.Host, config.Port, config.Username, config.Password)

	return &SMTPNotifier{
		config: config,
		dialer: dialer,
	}
}

// SendFailureNotice alerts the operations list about an unhandled
// failure on an endpoint. Parameters must already be redacted by the
// caller.
func (s *SMTPNotifier) SendFailureNotice(endpoint, user, detail string) error {
	subject := fmt.Sprintf("[CDR] Unhandled failure on %s", endpoint)

	plainBody := fmt.Sprintf(`An unhandled failure occurred.

Endpoint: %s
User:     %s
Time:     %s

%s
`, endpoint, user, time.Now().Format(time.RFC3339), detail)

	htmlBody := fmt.Sprintf(`
		<html>
		<body>
			<h2>Unhandled failure</h2>
			<p><b>Endpoint:</b> %s</p>
			<p><b>User:</b> %s</p>
			<p><b>Time:</b> %s</p>
			<pre>%s</pre>
		</body>
		</html>
	`, endpoint, user, time.Now().Format(time.RFC3339), detail)

	return s.sendEmail(s.config.OpsAddress, subject, htmlBody, plainBody)
}

func (s *SMTPNotifier) sendEmail(to, subject, htmlBody, plainBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.FromAddress)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", plainBody)
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}
