package domain

import (
	"context"
	"time"
)

type TemplateCategory string

const (
	TemplateCategoryMarketing TemplateCategory = "MARKETING"
	TemplateCategoryReminder  TemplateCategory = "REMINDER"
	TemplateCategoryFollowUp  TemplateCategory = "FOLLOWUP"
)

// Valid reports whether c is one of the known template categories.
func (c TemplateCategory) Valid() bool {
	switch c {
	case TemplateCategoryMarketing, TemplateCategoryReminder, TemplateCategoryFollowUp:
		return true
	}
	return false
}

// MessageTemplate is a reusable customer message. UserID is nil for shared
// templates seeded by the system; those never appear in per-user listings.
type MessageTemplate struct {
	ID        int64
	UserID    *int64
	Title     string
	Content   string
	Category  TemplateCategory
	CreatedAt time.Time
}

// TemplateRepository is the ownership-scoped template store plus read access
// to the shared (unowned) library.
type TemplateRepository interface {
	OwnedRepository[MessageTemplate]
	ListShared(ctx context.Context) ([]MessageTemplate, error)
	GetSharedByTitle(ctx context.Context, title string) (*MessageTemplate, error)
}
