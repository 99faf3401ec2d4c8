package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/msomdec/mtaabiz/internal/domain"
)

const maxTitleLength = 255

// TemplateInput carries the writable template fields. A nil field was not
// supplied by the client.
type TemplateInput struct {
	Title    *string
	Content  *string
	Category *string
}

// TemplateService manages message templates. Templates are ownership-scoped
// but not quota-gated.
type TemplateService struct {
	templates domain.TemplateRepository
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(templates domain.TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

func (s *TemplateService) List(ctx context.Context, userID int64) ([]domain.MessageTemplate, error) {
	return s.templates.ListByOwner(ctx, userID)
}

// ListShared returns the system library of templates that have no owner.
func (s *TemplateService) ListShared(ctx context.Context) ([]domain.MessageTemplate, error) {
	return s.templates.ListShared(ctx)
}

func (s *TemplateService) Get(ctx context.Context, userID, id int64) (*domain.MessageTemplate, error) {
	return s.templates.GetForOwner(ctx, userID, id)
}

func (s *TemplateService) Create(ctx context.Context, userID int64, in TemplateInput) (*domain.MessageTemplate, error) {
	t := &domain.MessageTemplate{}
	if err := applyTemplateInput(t, in, false); err != nil {
		return nil, err
	}
	t.UserID = &userID
	if err := s.templates.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update modifies one of the caller's templates. With partial set, only the
// supplied fields change.
func (s *TemplateService) Update(ctx context.Context, userID, id int64, in TemplateInput, partial bool) (*domain.MessageTemplate, error) {
	t, err := s.templates.GetForOwner(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if err := applyTemplateInput(t, in, partial); err != nil {
		return nil, err
	}
	if err := s.templates.UpdateForOwner(ctx, userID, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) Delete(ctx context.Context, userID, id int64) error {
	return s.templates.DeleteForOwner(ctx, userID, id)
}

// SeedShared inserts the shared template library. It is idempotent: a
// shared template whose title already exists is skipped.
func (s *TemplateService) SeedShared(ctx context.Context) (int, error) {
	var added int
	for _, t := range sharedTemplates {
		_, err := s.templates.GetSharedByTitle(ctx, t.Title)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return added, fmt.Errorf("check template %q: %w", t.Title, err)
		}
		if err := s.templates.Create(ctx, &t); err != nil {
			return added, fmt.Errorf("seed template %q: %w", t.Title, err)
		}
		added++
	}
	return added, nil
}

func applyTemplateInput(t *domain.MessageTemplate, in TemplateInput, partial bool) error {
	if in.Title != nil || !partial {
		title, err := requiredString("title", in.Title, maxTitleLength)
		if err != nil {
			return err
		}
		t.Title = title
	}

	if in.Content != nil || !partial {
		if in.Content == nil || strings.TrimSpace(*in.Content) == "" {
			return domain.NewValidationError("content", "this field is required")
		}
		t.Content = *in.Content
	}

	if in.Category != nil || !partial {
		if in.Category == nil {
			return domain.NewValidationError("category", "this field is required")
		}
		c := domain.TemplateCategory(strings.ToUpper(strings.TrimSpace(*in.Category)))
		if !c.Valid() {
			return domain.NewValidationError("category", fmt.Sprintf("%q is not a valid choice", *in.Category))
		}
		t.Category = c
	}
	return nil
}

var sharedTemplates = []domain.MessageTemplate{
	{
		Title:    "Payment reminder",
		Content:  "Hello {client}, this is a friendly reminder that invoice {invoice} for {amount} is due on {due_date}. Thank you!",
		Category: domain.TemplateCategoryReminder,
	},
	{
		Title:    "Overdue notice",
		Content:  "Hello {client}, invoice {invoice} for {amount} was due on {due_date}. Please arrange payment at your earliest convenience.",
		Category: domain.TemplateCategoryReminder,
	},
	{
		Title:    "Thank you for your payment",
		Content:  "Hi {client}, we have received your payment of {amount}. Thank you for your business!",
		Category: domain.TemplateCategoryFollowUp,
	},
	{
		Title:    "Checking in",
		Content:  "Hi {client}, just checking in to see how everything is going. Let us know if you need anything.",
		Category: domain.TemplateCategoryFollowUp,
	},
	{
		Title:    "New stock announcement",
		Content:  "Hello {client}! New stock has just arrived. Visit us this week for early access.",
		Category: domain.TemplateCategoryMarketing,
	},
	{
		Title:    "Weekend offer",
		Content:  "This weekend only: enjoy a special discount on selected items. Reply to this message to reserve yours.",
		Category: domain.TemplateCategoryMarketing,
	},
}
