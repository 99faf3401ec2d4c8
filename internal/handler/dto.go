package handler

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/service"
)

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{ID: u.ID, Username: u.Username, Email: u.Email}
}

// AuthResponseDTO is returned by register and login.
type AuthResponseDTO struct {
	User  UserDTO `json:"user"`
	Token string  `json:"token"`
}

// StatusDTO is the JSON representation of a user's plan usage.
type StatusDTO struct {
	IsPro        bool `json:"is_pro"`
	InvoiceCount int  `json:"invoice_count"`
	Limit        int  `json:"limit"`
}

func toStatusDTO(s *domain.Status) StatusDTO {
	return StatusDTO{IsPro: s.IsPro, InvoiceCount: s.InvoiceCount, Limit: s.Limit}
}

// InvoiceDTO is the JSON representation of an invoice. Amount is a decimal
// string with two fractional digits.
type InvoiceDTO struct {
	ID         int64  `json:"id"`
	User       int64  `json:"user"`
	ClientName string `json:"client_name"`
	Amount     string `json:"amount"`
	DateIssued string `json:"date_issued"`
	DueDate    string `json:"due_date"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
}

func toInvoiceDTO(inv *domain.Invoice) InvoiceDTO {
	return InvoiceDTO{
		ID:         inv.ID,
		User:       inv.UserID,
		ClientName: inv.ClientName,
		Amount:     inv.Amount.String(),
		DateIssued: inv.DateIssued.Format(domain.DateLayout),
		DueDate:    inv.DueDate.Format(domain.DateLayout),
		Status:     string(inv.Status),
		CreatedAt:  inv.CreatedAt.Format(time.RFC3339),
	}
}

func toInvoiceDTOs(invoices []domain.Invoice) []InvoiceDTO {
	dtos := make([]InvoiceDTO, len(invoices))
	for i := range invoices {
		dtos[i] = toInvoiceDTO(&invoices[i])
	}
	return dtos
}

// decimalString accepts a JSON string or number and keeps its literal text,
// so 123.45 is never routed through a float.
type decimalString string

func (d *decimalString) UnmarshalJSON(b []byte) error {
	if bytes.HasPrefix(b, []byte(`"`)) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*d = decimalString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*d = decimalString(n.String())
	return nil
}

// invoiceRequest is the body of invoice create and update requests. Absent
// fields stay nil so PATCH can tell them apart from empty values.
type invoiceRequest struct {
	ClientName *string        `json:"client_name"`
	Amount     *decimalString `json:"amount"`
	DateIssued *string        `json:"date_issued"`
	DueDate    *string        `json:"due_date"`
	Status     *string        `json:"status"`
}

func (req invoiceRequest) toInput() service.InvoiceInput {
	in := service.InvoiceInput{
		ClientName: req.ClientName,
		DateIssued: req.DateIssued,
		DueDate:    req.DueDate,
		Status:     req.Status,
	}
	if req.Amount != nil {
		s := string(*req.Amount)
		in.Amount = &s
	}
	return in
}

// TemplateDTO is the JSON representation of a message template. User is
// null for shared library templates.
type TemplateDTO struct {
	ID        int64  `json:"id"`
	User      *int64 `json:"user"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Category  string `json:"category"`
	CreatedAt string `json:"created_at"`
}

func toTemplateDTO(t *domain.MessageTemplate) TemplateDTO {
	return TemplateDTO{
		ID:        t.ID,
		User:      t.UserID,
		Title:     t.Title,
		Content:   t.Content,
		Category:  string(t.Category),
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
}

func toTemplateDTOs(templates []domain.MessageTemplate) []TemplateDTO {
	dtos := make([]TemplateDTO, len(templates))
	for i := range templates {
		dtos[i] = toTemplateDTO(&templates[i])
	}
	return dtos
}

type templateRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
}

func (req templateRequest) toInput() service.TemplateInput {
	return service.TemplateInput{Title: req.Title, Content: req.Content, Category: req.Category}
}
