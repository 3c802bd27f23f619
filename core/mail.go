package core

import (
	"bytes"
	"net/mail"
	texttmpl "text/template"

	"github.com/pkg/errors"
)

type (
	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		TextContent string
		HTMLContent string

		// templated content; rendered into TextContent by Render
		Template     *texttmpl.Template
		TemplateData interface{}
	}

	// EmailService sends messages out-of-band; implementations must not block
	// the caller on delivery.
	EmailService interface {
		SendMessages(messages ...*EmailMessage)
	}
)

// Render executes the message template (if any) into TextContent.
func (m *EmailMessage) Render() error {
	if m.Template == nil {
		return nil
	}
	var buf bytes.Buffer
	if err := m.Template.Execute(&buf, m.TemplateData); err != nil {
		return errors.Wrap(err, "executing email template")
	}
	m.TextContent = buf.String()
	return nil
}

func (m EmailMessage) HasRecipients() bool {
	return len(m.To) > 0 || len(m.Cc) > 0 || len(m.Bcc) > 0
}

func (m EmailMessage) HasContent() bool {
	return m.TextContent != "" || m.HTMLContent != "" || m.Template != nil
}
