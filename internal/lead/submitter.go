package lead

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/ashureev/softsell/internal/domain"
	"github.com/go-resty/resty/v2"
	gomail "github.com/wneessen/go-mail"
)

// AcknowledgementMessage is shown to the visitor after a successful submission.
const AcknowledgementMessage = "Form submitted successfully! We will contact you soon."

// Submitter delivers an accepted lead to whoever follows up on it.
type Submitter interface {
	SubmitLead(ctx context.Context, lead *domain.Lead) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, lead *domain.Lead) error

// SubmitLead implements Submitter.
func (fn SubmitterFunc) SubmitLead(ctx context.Context, lead *domain.Lead) error {
	return fn(ctx, lead)
}

// Acknowledger accepts every lead and only logs it. Leads are not stored.
type Acknowledger struct {
	logger *slog.Logger
}

// NewAcknowledger creates an Acknowledger logging to logger, or the default
// logger when nil.
func NewAcknowledger(logger *slog.Logger) *Acknowledger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Acknowledger{logger: logger}
}

// SubmitLead implements Submitter.
func (a *Acknowledger) SubmitLead(_ context.Context, lead *domain.Lead) error {
	a.logger.Info("Lead acknowledged",
		"lead_id", lead.ID,
		"visitor_id", lead.VisitorID,
		"license_type", lead.Form.LicenseType,
		"has_message", strings.TrimSpace(lead.Form.Message) != "",
	)
	return nil
}

// MultiSubmitter hands each lead to every submitter in order. All
// submitters are attempted; their errors are joined.
type MultiSubmitter []Submitter

// SubmitLead implements Submitter.
func (m MultiSubmitter) SubmitLead(ctx context.Context, lead *domain.Lead) error {
	var errs []error
	for _, s := range m {
		if err := s.SubmitLead(ctx, lead); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WebhookSubmitter posts each lead as JSON to an external collection service.
type WebhookSubmitter struct {
	client *resty.Client
	url    string
}

// NewWebhookSubmitter creates a submitter posting to url.
func NewWebhookSubmitter(url string, timeout time.Duration) *WebhookSubmitter {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "softsell-leads/1")
	return &WebhookSubmitter{client: client, url: url}
}

// SubmitLead implements Submitter.
func (w *WebhookSubmitter) SubmitLead(ctx context.Context, lead *domain.Lead) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("Idempotency-Key", lead.ID).
		SetBody(lead).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post lead webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("lead webhook returned %s", resp.Status())
	}
	slog.Info("Lead forwarded to webhook", "lead_id", lead.ID, "status", resp.StatusCode())
	return nil
}

// MailConfig holds SMTP settings for lead notifications.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
	Timeout  time.Duration
}

// MailSubmitter emails each lead to the sales inbox.
type MailSubmitter struct {
	cfg MailConfig
}

// NewMailSubmitter creates a submitter sending through cfg.
func NewMailSubmitter(cfg MailConfig) *MailSubmitter {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &MailSubmitter{cfg: cfg}
}

// SubmitLead implements Submitter.
func (m *MailSubmitter) SubmitLead(ctx context.Context, lead *domain.Lead) error {
	msg := gomail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(m.cfg.To); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	// The form only checks a loose email shape, so an unparseable address is
	// not an error here.
	if err := msg.ReplyTo(strings.TrimSpace(lead.Form.Email)); err != nil {
		slog.Debug("Lead email not usable as Reply-To", "lead_id", lead.ID, "error", err)
	}
	msg.Subject(mailSubject(lead))
	msg.SetBodyString(gomail.TypeTextPlain, mailBody(lead))

	opts := []gomail.Option{
		gomail.WithPort(m.cfg.Port),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(m.cfg.Timeout),
		gomail.WithDialContextFunc(func(dctx context.Context, network, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, network, addr)
		}),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(m.cfg.Username),
			gomail.WithPassword(m.cfg.Password),
		)
	}

	client, err := gomail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	slog.Info("Lead emailed", "lead_id", lead.ID)
	return nil
}

func mailSubject(lead *domain.Lead) string {
	label := lead.LicenseType().Label()
	if label == "" {
		label = lead.Form.LicenseType
	}
	return fmt.Sprintf("New license lead: %s (%s)", strings.TrimSpace(lead.Form.Company), label)
}

func mailBody(lead *domain.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lead ID: %s\n", lead.ID)
	fmt.Fprintf(&b, "Received: %s\n\n", lead.SubmittedAt.Format(time.RFC1123))
	fmt.Fprintf(&b, "Name: %s\n", strings.TrimSpace(lead.Form.Name))
	fmt.Fprintf(&b, "Email: %s\n", strings.TrimSpace(lead.Form.Email))
	fmt.Fprintf(&b, "Company: %s\n", strings.TrimSpace(lead.Form.Company))
	fmt.Fprintf(&b, "License type: %s\n", lead.LicenseType().Label())
	if msg := strings.TrimSpace(lead.Form.Message); msg != "" {
		fmt.Fprintf(&b, "\nMessage:\n%s\n", msg)
	}
	return b.String()
}
