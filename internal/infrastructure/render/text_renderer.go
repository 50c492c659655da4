package render

import (
	"bytes"
	"context"
	"fmt"
	"text/template"

	"github.com/seifenwerk/orderdesk/internal/domain/document"
	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
)

const invoiceTemplate = `{{.Company}}
{{if .CompanyLine}}{{.CompanyLine}}
{{end}}
Invoice {{.Invoice.Number}}
Issued {{.Invoice.IssuedAt.Format "2006-01-02"}}, due {{.Invoice.DueAt.Format "2006-01-02"}}
{{if .PaymentTermsNote}}{{.PaymentTermsNote}}
{{end}}
Bill to: {{.Invoice.Customer.Name}}
{{.Invoice.Customer.Street}}
{{.Invoice.Customer.PostalCode}} {{.Invoice.Customer.City}}, {{.Invoice.Customer.Country}}

{{range .Invoice.Items}}{{.Quantity}} x {{.Name}} @ {{.UnitPrice}} = {{.LineTotal}}
{{end}}
Subtotal: {{.Invoice.Amounts.Subtotal}}
Shipping: {{.Invoice.Amounts.Shipping}}
VAT:      {{.Invoice.Amounts.VAT}}
Total:    {{.Invoice.Amounts.Total}}
{{if .FooterNote}}
{{.FooterNote}}
{{end}}`

// TextRenderer renders a plain-text billing document. It stands in for the
// real document renderer and tolerates template configs with missing
// sections by falling back to defaults.
type TextRenderer struct {
	tmpl *template.Template
}

func NewTextRenderer() *TextRenderer {
	return &TextRenderer{
		tmpl: template.Must(template.New("invoice").Parse(invoiceTemplate)),
	}
}

func (r *TextRenderer) Render(ctx context.Context, inv *invoice.Invoice, cfg document.TemplateConfig) ([]byte, error) {
	_ = ctx
	if inv == nil {
		return nil, fmt.Errorf("render: invoice is required")
	}

	company := cfg.CompanyName
	if company == "" {
		company = "Invoice"
	}

	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		Company          string
		CompanyLine      string
		PaymentTermsNote string
		FooterNote       string
		Invoice          *invoice.Invoice
	}{
		Company:          company,
		CompanyLine:      cfg.CompanyLine,
		PaymentTermsNote: cfg.PaymentTermsNote,
		FooterNote:       cfg.FooterNote,
		Invoice:          inv,
	})
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return buf.Bytes(), nil
}
