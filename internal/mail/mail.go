// Package mail sends reservation confirmations through SendGrid dynamic
// templates.
package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/longkey1/kitlend/internal/lending"
)

const sendEndpoint = "/v3/mail/send"

// Options configures a Mailer
type Options struct {
	APIKey     string
	FromEmail  string
	FromName   string
	TemplateID string
	// Host replaces https://api.sendgrid.com
	Host       string
	HTTPClient *http.Client
}

// Mailer sends the confirmation template to the requester of a reservation
type Mailer struct {
	opts   Options
	client *rest.Client
}

var _ lending.Notifier = (*Mailer)(nil)

// New creates a Mailer
func New(opts Options) *Mailer {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Mailer{opts: opts, client: &rest.Client{HTTPClient: httpClient}}
}

// Message builds the confirmation mail for a stored reservation
func (m *Mailer) Message(r lending.Reservation, id string) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(r.Name, r.Email))
	for key, value := range map[string]string{
		"_id":       id,
		"kitName":   r.KitName,
		"name":      r.Name,
		"email":     r.Email,
		"wechat":    r.Wechat,
		"startDate": r.StartDate,
		"endDate":   r.EndDate,
		"project":   r.Project,
		"usage":     r.Usage,
	} {
		p.SetDynamicTemplateData(key, value)
	}

	msg := sgmail.NewV3Mail()
	msg.SetFrom(sgmail.NewEmail(m.opts.FromName, m.opts.FromEmail))
	msg.SetTemplateID(m.opts.TemplateID)
	msg.AddPersonalizations(p)
	return msg
}

// Notify implements lending.Notifier
func (m *Mailer) Notify(ctx context.Context, r lending.Reservation, id string) error {
	request := sendgrid.GetRequest(m.opts.APIKey, sendEndpoint, m.opts.Host)
	request.Method = rest.Post
	request.Body = sgmail.GetRequestBody(m.Message(r, id))

	resp, err := m.client.SendWithContext(ctx, request)
	if err != nil {
		return fmt.Errorf("failed to send confirmation: %w", err)
	}
	if resp.StatusCode >= 300 {
		return fmt.Errorf("failed to send confirmation (status %d): %w", resp.StatusCode, &rest.RestError{Response: resp})
	}
	return nil
}
