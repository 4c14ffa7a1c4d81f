package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zaliant/storefront-backend/pkg/config"
	"github.com/zaliant/storefront-backend/pkg/enums"
	pkgerrors "github.com/zaliant/storefront-backend/pkg/errors"
	"github.com/zaliant/storefront-backend/pkg/logger"
)

// OrderConfirmationData feeds the order_confirmation template.
type OrderConfirmationData struct {
	Name        string
	OrderNumber string
	Lines       []OrderLineData
	Discount    string
	Total       string
}

// OrderLineData is one purchased line rendered in the confirmation table.
type OrderLineData struct {
	ProductName  string
	VariantLabel string
	Qty          int
	LineTotal    string
}

// LicenseKeyData feeds the license_key template.
type LicenseKeyData struct {
	ProductName  string
	VariantLabel string
	Key          string
	ExpiresAt    string
}

// SupportReplyData feeds the support_reply template.
type SupportReplyData struct {
	Name    string
	Message string
}

// Message is a fully rendered outbound email.
type Message struct {
	To      string
	From    string
	Subject string
	HTML    string
}

// Service renders and dispatches transactional email. Delivery is a logging
// stub: the rendered message is written to the log and reported as sent.
type Service interface {
	Send(ctx context.Context, kind enums.MailTemplate, to string, data any) error
}

type service struct {
	cfg       config.MailConfig
	logg      *logger.Logger
	templates map[enums.MailTemplate]registeredTemplate
}

func NewService(cfg config.MailConfig, logg *logger.Logger) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.FromAddress) == "" {
		return nil, fmt.Errorf("from address required")
	}
	return &service{cfg: cfg, logg: logg, templates: newTemplateRegistry()}, nil
}

func (s *service) Send(ctx context.Context, kind enums.MailTemplate, to string, data any) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "recipient required")
	}
	registered, ok := s.templates[kind]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("no template registered for kind %q", kind))
	}

	subject, err := renderSubject(registered.subject, data)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering subject")
	}
	var body strings.Builder
	if err := registered.body.Execute(&body, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rendering body")
	}

	msg := Message{
		To:      to,
		From:    s.cfg.FromAddress,
		Subject: subject,
		HTML:    body.String(),
	}

	logCtx := s.logg.WithFields(ctx, map[string]any{
		"mail_kind":    kind.String(),
		"mail_to":      msg.To,
		"mail_subject": msg.Subject,
	})
	s.logg.Info(logCtx, "outbound email rendered")
	return nil
}

// FormatMoney renders a decimal amount the way templates expect it.
func FormatMoney(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatExpiry renders an optional expiry; empty string means no expiry.
func FormatExpiry(expiresAt *time.Time) string {
	if expiresAt == nil {
		return ""
	}
	return expiresAt.UTC().Format("January 2, 2006")
}
