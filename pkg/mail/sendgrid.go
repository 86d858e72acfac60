package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/deens-academy/timetable-api/pkg/config"
	appErrors "github.com/deens-academy/timetable-api/pkg/errors"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridSender delivers mail through the SendGrid v3 API.
type SendGridSender struct {
	key  string
	from *sgmail.Email
}

// NewSendGridSender constructs the SendGrid transport.
func NewSendGridSender(cfg config.MailConfig) *SendGridSender {
	return &SendGridSender{
		key:  cfg.SendGridKey,
		from: sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
	}
}

// Send performs a single delivery attempt.
func (s *SendGridSender) Send(ctx context.Context, msg Message) (string, error) {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/html", msg.HTMLBody))

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, sendGridHost)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(m)

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "sendgrid request failed")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", appErrors.Wrap(
			fmt.Errorf("sendgrid responded %d: %s", res.StatusCode, res.Body),
			appErrors.ErrTransport.Code, appErrors.ErrTransport.Status, "sendgrid rejected message",
		)
	}

	messageID := ""
	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 {
		messageID = ids[0]
	}
	return messageID, nil
}
