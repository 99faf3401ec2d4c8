// Package view holds server-rendered HTML fragments.
package view

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"
	"github.com/msomdec/mtaabiz/internal/domain"
)

// QuotaBadgeID is the element id that live updates target.
const QuotaBadgeID = "quota-badge"

// QuotaBadge renders the caller's plan usage, e.g. "3 / 5 invoices".
func QuotaBadge(status domain.Status) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class, text := "badge badge-free", fmt.Sprintf("%d / %d invoices", status.InvoiceCount, status.Limit)
		switch {
		case status.IsPro:
			class, text = "badge badge-pro", fmt.Sprintf("PRO: %d invoices, unlimited", status.InvoiceCount)
		case status.InvoiceCount >= status.Limit:
			class = "badge badge-full"
			text += ", upgrade to PRO for more"
		}
		_, err := fmt.Fprintf(w, `<span id="%s" class="%s">%s</span>`,
			QuotaBadgeID, class, templ.EscapeString(text))
		return err
	})
}
