package sendgridmail

import (
	"context"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"campusboard/internal/platform/email"
	dErrors "campusboard/pkg/domain-errors"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

type service struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
}

var _ email.Service = (*service)(nil)

func NewService(key, appName, fromEmail string) email.Service {
	return &service{
		key:        key,
		from:       sgmail.NewEmail(appName, fromEmail),
		subjPrefix: "[" + appName + "] ",
	}
}

func (svc *service) Send(ctx context.Context, msg email.Message) error {
	if !msg.HasRecipients() {
		return dErrors.New(dErrors.CodeBadRequest, "message has no recipients")
	}

	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "mail provider unreachable")
	}
	if res.StatusCode >= http.StatusBadRequest {
		return dErrors.Newf(dErrors.CodeUnavailable, "mail provider rejected message: status %d", res.StatusCode)
	}
	return nil
}

func (svc *service) prepare(msg email.Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject
	for _, to := range msg.To {
		p.AddTos(sgmail.NewEmail(to.Name, to.Address))
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	if msg.ReplyTo.Address != "" {
		m.SetReplyTo(sgmail.NewEmail(msg.ReplyTo.Name, msg.ReplyTo.Address))
	}
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Body))
	return m
}
