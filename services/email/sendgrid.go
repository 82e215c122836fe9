package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Maks0bs/mmLearnJS-backend-sub000/core"
)

// sendgridService delivers course notifications through the SendGrid v3 API.
type sendgridService struct {
	client  *sendgrid.Client
	sender  *sgmail.Email
	appName string
	tmpls   *core.EmailTemplates
	logger  core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, tmpls *core.EmailTemplates, logger core.Logger) core.EmailService {
	return &sendgridService{
		client:  sendgrid.NewSendClient(conf.SendgridAPIKey),
		sender:  toSGEmail(conf.DefaultFromEmail),
		appName: conf.AppName,
		tmpls:   tmpls,
		logger:  logger,
	}
}

// SendMessages renders and delivers each message in its own goroutine; failures are only logged.
func (svc *sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

func (svc *sendgridService) deliver(msg *core.EmailMessage) {
	if err := svc.tmpls.Render(msg); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering %q notification: %v", msg.Subject, err), err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}

	res, err := svc.client.Send(svc.build(msg))
	switch {
	case err != nil:
		svc.logger.Error(fmt.Sprintf("delivering %q notification: %v", msg.Subject, err), err)
	case res.StatusCode >= http.StatusBadRequest:
		svc.logger.Error(fmt.Sprintf("sendgrid rejected %q notification (%d): %s", msg.Subject, res.StatusCode, res.Body))
	}
}

func (svc *sendgridService) build(msg *core.EmailMessage) *sgmail.SGMailV3 {
	recipients := sgmail.NewPersonalization()
	recipients.Subject = fmt.Sprintf("[%s] %s", svc.appName, msg.Subject)
	recipients.AddTos(toSGEmails(msg.To)...)
	recipients.AddCCs(toSGEmails(msg.Cc)...)
	recipients.AddBCCs(toSGEmails(msg.Bcc)...)

	m := sgmail.NewV3Mail().SetFrom(svc.sender)
	m.AddPersonalizations(recipients)
	if msg.TextContent != "" {
		m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	}
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		m.AddAttachment(sgmail.NewAttachment().
			SetContent(at.Content.String()). // already base64
			SetType(at.ContentType).
			SetFilename(at.Filename).
			SetDisposition("attachment"))
	}
	return m
}

func toSGEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

func toSGEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, toSGEmail(addr))
	}
	return emails
}
