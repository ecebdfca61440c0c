package notify

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"hogis-registration/config"
)

const (
	sendgridHost     = "https://api.sendgrid.com"
	sendgridEndpoint = "/v3/mail/send"
)

type sendgridTransport struct {
	key  string
	host string
	from *sgmail.Email
}

// host overrides the API host, empty for production
func newSendGridTransport(cfg *config.MailConfig, host string) *sendgridTransport {
	if host == "" {
		host = sendgridHost
	}
	return &sendgridTransport{
		key:  cfg.SendGridAPIKey,
		host: host,
		from: sgmail.NewEmail(cfg.FromName, cfg.From),
	}
}

func (t *sendgridTransport) name() string { return "sendgrid" }

func (t *sendgridTransport) prepare(msg *Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.To.Name, msg.To.Address))

	m := sgmail.NewV3Mail()
	m.SetFrom(t.from)
	m.AddPersonalizations(p)
	m.AddContent(
		sgmail.NewContent("text/plain", msg.Text),
		sgmail.NewContent("text/html", msg.HTML),
	)
	return m
}

func (t *sendgridTransport) send(ctx context.Context, msg *Message) (string, error) {
	req := sendgrid.GetRequest(t.key, sendgridEndpoint, t.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(t.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return "", err
	}
	if res.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("sendgrid returned %d: %s", res.StatusCode, res.Body)
	}

	if ids := res.Headers["X-Message-Id"]; len(ids) > 0 && ids[0] != "" {
		return ids[0], nil
	}
	return "sg-" + uuid.NewString(), nil
}
