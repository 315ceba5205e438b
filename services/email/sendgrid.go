package emailsvc

import (
	"fmt"
	"net/http"
	"net/mail"
	"sort"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/trezcool/sala/core"
)

const sendgridMaxCategories = 10

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type sendgridService struct {
	conf   *core.Config
	key    string
	build  sgMailBuilder
	logger core.Logger
}

var _ core.EmailService = (*sendgridService)(nil)

// NewSendgridService delivers forum notifications through the SendGrid v3 API.
func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	from := conf.DefaultFromEmail()
	return &sendgridService{
		conf: conf,
		key:  conf.SendgridApiKey,
		build: sgMailBuilder{
			from:       sgmail.NewEmail(from.Name, from.Address),
			subjPrefix: "[" + conf.AppName + "] ",
			appName:    conf.AppName,
		},
		logger: logger,
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		msg := msg
		go func() {
			if err := msg.Render(svc.conf); err != nil {
				svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
				return
			}
			if msg.HasRecipients() && (msg.HasContent() || msg.HasAttachments()) {
				svc.send(*msg)
			}
		}()
	}
}

func (svc sendgridService) send(msg core.EmailMessage) {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.build.mail(msg))

	res, err := sendgrid.API(req)
	switch {
	case err != nil:
		svc.logger.Error(fmt.Sprintf("sending %q to %d recipient(s): %v", msg.Subject, len(msg.To), err), err)
	case res.StatusCode >= http.StatusBadRequest:
		svc.logger.Error(fmt.Sprintf("sending %q - status: %d - body: %s", msg.Subject, res.StatusCode, res.Body))
	}
}

// sgMailBuilder maps a rendered message onto a SendGrid v3 payload.
// Categories and Metadata become SendGrid categories and custom args so
// reply notifications can be filtered per topic in the activity feed.
type sgMailBuilder struct {
	from       *sgmail.Email
	subjPrefix string
	appName    string
}

func (b sgMailBuilder) mail(msg core.EmailMessage) *sgmail.SGMailV3 {
	m := sgmail.NewV3Mail()
	m.SetFrom(b.from)
	m.AddPersonalizations(b.personalization(msg))

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	for _, at := range msg.Attachments {
		m.AddAttachment(&sgmail.Attachment{
			Content:     at.Content.String(),
			Type:        at.ContentType,
			Filename:    at.Filename,
			Disposition: "attachment",
		})
	}

	if cats := b.categories(msg); len(cats) > 0 {
		m.AddCategories(cats...)
	}
	return m
}

func (b sgMailBuilder) personalization(msg core.EmailMessage) *sgmail.Personalization {
	p := sgmail.NewPersonalization()
	p.Subject = b.subjPrefix + msg.Subject
	p.AddTos(sgEmails(msg.To)...)
	p.AddCCs(sgEmails(msg.Cc)...)
	p.AddBCCs(sgEmails(msg.Bcc)...)

	keys := make([]string, 0, len(msg.Metadata))
	for k := range msg.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		p.SetCustomArg(k, msg.Metadata[k])
	}
	return p
}

// categories prefixes the message categories with the app name, deduplicated
// and capped at the SendGrid limit.
func (b sgMailBuilder) categories(msg core.EmailMessage) []string {
	if len(msg.Categories) == 0 {
		return nil
	}
	cats := make([]string, 0, len(msg.Categories)+1)
	seen := make(map[string]bool, len(msg.Categories)+1)
	for _, c := range append([]string{b.appName}, msg.Categories...) {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		cats = append(cats, c)
	}
	if len(cats) > sendgridMaxCategories {
		cats = cats[:sendgridMaxCategories]
	}
	return cats
}

func sgEmails(addrs []mail.Address) []*sgmail.Email {
	emails := make([]*sgmail.Email, 0, len(addrs))
	for _, addr := range addrs {
		emails = append(emails, sgmail.NewEmail(addr.Name, addr.Address))
	}
	return emails
}
