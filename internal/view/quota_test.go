package view

import (
	"context"
	"strings"
	"testing"

	"github.com/msomdec/mtaabiz/internal/domain"
)

func render(t *testing.T, status domain.Status) string {
	t.Helper()
	var sb strings.Builder
	if err := QuotaBadge(status).Render(context.Background(), &sb); err != nil {
		t.Fatalf("Render: %v", err)
	}
	return sb.String()
}

func TestQuotaBadge(t *testing.T) {
	tests := []struct {
		name   string
		status domain.Status
		want   []string
	}{
		{"free", domain.Status{InvoiceCount: 3, Limit: 5}, []string{`id="quota-badge"`, "badge-free", "3 / 5 invoices"}},
		{"full", domain.Status{InvoiceCount: 5, Limit: 5}, []string{"badge-full", "upgrade to PRO"}},
		{"pro", domain.Status{IsPro: true, InvoiceCount: 9, Limit: 5}, []string{"badge-pro", "PRO: 9 invoices, unlimited"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := render(t, tc.status)
			for _, w := range tc.want {
				if !strings.Contains(got, w) {
					t.Errorf("expected %q in %q", w, got)
				}
			}
		})
	}
}
