package enums

// MailTemplate identifies a registered email template. Dispatch requests
// carrying any other kind are rejected as client errors.
type MailTemplate string

const (
	MailTemplateOrderConfirmation MailTemplate = "order_confirmation"
	MailTemplateLicenseKey        MailTemplate = "license_key"
	MailTemplateSupportReply      MailTemplate = "support_reply"
)

var validMailTemplates = []MailTemplate{
	MailTemplateOrderConfirmation,
	MailTemplateLicenseKey,
	MailTemplateSupportReply,
}

func (m MailTemplate) String() string {
	return string(m)
}

// IsValid reports whether the template kind is registered.
func (m MailTemplate) IsValid() bool {
	for _, candidate := range validMailTemplates {
		if candidate == m {
			return true
		}
	}
	return false
}
