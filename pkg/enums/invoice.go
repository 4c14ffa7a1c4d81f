package enums

// InvoiceStatus maps to the invoice_status enum in Postgres. Demo checkout
// writes invoices as paid; the remaining states exist for back-office edits.
type InvoiceStatus string

const (
	InvoiceStatusPaid   InvoiceStatus = "paid"
	InvoiceStatusVoided InvoiceStatus = "voided"
)

func (i InvoiceStatus) String() string {
	return string(i)
}

// IsValid reports whether the value matches the canonical invoice_status enum.
func (i InvoiceStatus) IsValid() bool {
	return i == InvoiceStatusPaid || i == InvoiceStatusVoided
}
