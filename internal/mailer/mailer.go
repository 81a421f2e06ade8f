package mailer

import (
	"fmt"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/oit-infosec/awareness-compliance/internal"
)

// Mailer submits HTML mail through the campus relay. The relay accepts
// unauthenticated submission from the run host, so there is no SMTP auth
// here; TLS is used when the relay offers it.
type Mailer struct {
	cfg    internal.SMTPConfig
	logger *slog.Logger
}

func New(cfg internal.SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{cfg: cfg, logger: logger}
}

// SendHTML wraps bodyHTML in a minimal document and submits it. Every
// message is marked bulk/auto-generated so vacation responders and mail
// loops leave the sender alone; extra headers override nothing, they are
// appended.
func (m *Mailer) SendHTML(to, subject, bodyHTML string, headers map[string]string) error {
	msg := mail.NewMsg()

	if err := msg.FromFormat(m.cfg.FromName, m.cfg.FromAddress); err != nil {
		return internal.NewMailError(fmt.Sprintf("invalid sender address %s", m.cfg.FromAddress), err)
	}
	if err := msg.To(to); err != nil {
		return internal.NewMailError(fmt.Sprintf("invalid recipient address %s", to), err)
	}

	msg.Subject(subject)
	msg.SetGenHeader(mail.Header("Precedence"), "bulk")
	msg.SetGenHeader(mail.Header("Auto-Submitted"), "auto-generated")
	for name, value := range headers {
		msg.SetGenHeader(mail.Header(name), value)
	}

	document := fmt.Sprintf(`<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset=utf-8">
<title>%s</title>
</head>
<body>%s</body>
</html>`, subject, bodyHTML)
	msg.SetBodyString(mail.TypeTextHTML, document)

	client, err := mail.NewClient(m.cfg.Server,
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	)
	if err != nil {
		return internal.NewMailError("mail client setup failed", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return internal.NewMailError(fmt.Sprintf("sending mail to %s failed", to), err)
	}

	m.logger.Info("sent mail", "to", to, "subject", subject)
	return nil
}
