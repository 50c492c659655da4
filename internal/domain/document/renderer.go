package document

import (
	"context"

	"github.com/seifenwerk/orderdesk/internal/domain/invoice"
)

// TemplateConfig describes the company/template settings handed to the
// renderer. Any field may be empty; renderers fall back to defaults.
type TemplateConfig struct {
	CompanyName string
	CompanyLine string
	FooterNote  string
	// PaymentTermsNote is printed under the due date when set.
	PaymentTermsNote string
}

// Renderer produces the billing document for an invoice. Callers treat a
// render failure as a warning, never as a pipeline-aborting error.
type Renderer interface {
	Render(ctx context.Context, inv *invoice.Invoice, cfg TemplateConfig) ([]byte, error)
}
