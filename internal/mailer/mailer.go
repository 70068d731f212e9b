// Package mailer is the transactional email collaborator. Delivery is
// always fire-and-forget: a failed send is logged and never fails the
// operation that triggered it.
package mailer

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

// Template names understood by the mailer.
const (
	TemplateInscriptionConfirmed  = "inscription_confirmed"
	TemplateInscriptionWaitlisted = "inscription_waitlisted"
	TemplateManagementLink        = "management_link"
)

// Mailer sends one templated message to one recipient.
type Mailer interface {
	Send(template, recipient string, vars map[string]string) error
}

// Dispatch runs the send on its own goroutine and logs failures.
func Dispatch(m Mailer, template, recipient string, vars map[string]string) {
	go func() {
		if err := m.Send(template, recipient, vars); err != nil {
			log.Error().
				Err(err).
				Str("template", template).
				Str("recipient", recipient).
				Msg("transactional email failed")
		}
	}()
}

// SMTP delivers through a plain SMTP relay.
type SMTP struct {
	Addr string // host:port
	From string
	Auth smtp.Auth
}

func (s *SMTP) Send(template, recipient string, vars map[string]string) error {
	subject, body := render(template, vars)
	msg := strings.Join([]string{
		"From: " + s.From,
		"To: " + recipient,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=utf-8",
		"",
		body,
	}, "\r\n")
	if err := smtp.SendMail(s.Addr, s.Auth, s.From, []string{recipient}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// LogOnly records sends instead of delivering them; used in dev and
// tests.
type LogOnly struct{}

func (LogOnly) Send(template, recipient string, vars map[string]string) error {
	log.Info().
		Str("template", template).
		Str("recipient", recipient).
		Interface("vars", vars).
		Msg("email (log only)")
	return nil
}

func render(template string, vars map[string]string) (subject, body string) {
	switch template {
	case TemplateInscriptionConfirmed:
		return "Inscription confirmée — " + vars["concert"],
			fmt.Sprintf("Bonjour %s,\n\nVotre inscription (%s place(s)) pour %s est confirmée.\n",
				vars["nom"], vars["party_size"], vars["concert"])
	case TemplateInscriptionWaitlisted:
		return "Liste d'attente — " + vars["concert"],
			fmt.Sprintf("Bonjour %s,\n\nLe concert %s est complet; vous êtes sur liste d'attente.\n",
				vars["nom"], vars["concert"])
	case TemplateManagementLink:
		return "Gérer votre inscription",
			fmt.Sprintf("Bonjour,\n\nGérez votre inscription ici : %s\n", vars["url"])
	default:
		return template, ""
	}
}
