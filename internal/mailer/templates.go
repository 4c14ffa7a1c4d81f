package mailer

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/zaliant/storefront-backend/pkg/enums"
)

// registeredTemplate pairs a subject line with a rendered HTML body.
type registeredTemplate struct {
	subject string
	body    *template.Template
}

const orderConfirmationBody = `
<h1>Thanks for your order, {{.Name}}!</h1>
<p>Order <strong>{{.OrderNumber}}</strong> is confirmed.</p>
<table>
  {{range .Lines}}<tr><td>{{.ProductName}} — {{.VariantLabel}}</td><td>×{{.Qty}}</td><td>{{.LineTotal}}</td></tr>{{end}}
</table>
{{if .Discount}}<p>Discount applied: -{{.Discount}}</p>{{end}}
<p>Total charged: <strong>{{.Total}}</strong></p>
<p>Your license keys arrive in separate emails.</p>
`

const licenseKeyBody = `
<h1>Your {{.ProductName}} license</h1>
<p>Variant: {{.VariantLabel}}</p>
<p>Key: <code>{{.Key}}</code></p>
{{if .ExpiresAt}}<p>Valid until {{.ExpiresAt}}.</p>{{else}}<p>This key never expires.</p>{{end}}
<p>Activate it from the loader with your hardware ID.</p>
`

const supportReplyBody = `
<p>Hi {{.Name}},</p>
<p>{{.Message}}</p>
<p>— Zaliant support</p>
`

// newTemplateRegistry compiles the built-in templates. Template parse errors
// are programmer errors, so this panics at startup rather than limping on.
func newTemplateRegistry() map[enums.MailTemplate]registeredTemplate {
	return map[enums.MailTemplate]registeredTemplate{
		enums.MailTemplateOrderConfirmation: {
			subject: "Order {{.OrderNumber}} confirmed",
			body:    template.Must(template.New(string(enums.MailTemplateOrderConfirmation)).Parse(orderConfirmationBody)),
		},
		enums.MailTemplateLicenseKey: {
			subject: "Your {{.ProductName}} license key",
			body:    template.Must(template.New(string(enums.MailTemplateLicenseKey)).Parse(licenseKeyBody)),
		},
		enums.MailTemplateSupportReply: {
			subject: "Re: your Zaliant support request",
			body:    template.Must(template.New(string(enums.MailTemplateSupportReply)).Parse(supportReplyBody)),
		},
	}
}

// renderSubject runs the subject line through the same data as the body.
func renderSubject(subject string, data any) (string, error) {
	tmpl, err := template.New("subject").Parse(subject)
	if err != nil {
		return "", fmt.Errorf("parsing subject: %w", err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("rendering subject: %w", err)
	}
	return sb.String(), nil
}
