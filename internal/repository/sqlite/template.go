package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
)

const templateColumns = `id, user_id, title, content, category, created_at`

// TemplateRepository implements domain.TemplateRepository using SQLite.
type TemplateRepository struct {
	db querier
}

// NewTemplateRepository creates a new SQLite-backed TemplateRepository.
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db.SqlDB}
}

// ListByOwner never returns shared templates: user_id = ? is false for NULL.
func (r *TemplateRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.MessageTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE user_id = ? ORDER BY id DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()
	return scanTemplates(rows)
}

func (r *TemplateRepository) ListShared(ctx context.Context) ([]domain.MessageTemplate, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE user_id IS NULL ORDER BY category, title`)
	if err != nil {
		return nil, fmt.Errorf("list shared templates: %w", err)
	}
	defer rows.Close()
	return scanTemplates(rows)
}

func (r *TemplateRepository) GetForOwner(ctx context.Context, ownerID, id int64) (*domain.MessageTemplate, error) {
	return r.getOne(ctx, "id = ? AND user_id = ?", id, ownerID)
}

func (r *TemplateRepository) GetSharedByTitle(ctx context.Context, title string) (*domain.MessageTemplate, error) {
	return r.getOne(ctx, "title = ? AND user_id IS NULL", title)
}

func (r *TemplateRepository) Create(ctx context.Context, t *domain.MessageTemplate) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO message_templates (user_id, title, content, category, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		t.UserID, t.Title, t.Content, string(t.Category), now,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}

	t.ID = id
	t.CreatedAt = now
	return nil
}

func (r *TemplateRepository) UpdateForOwner(ctx context.Context, ownerID int64, t *domain.MessageTemplate) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE message_templates SET title = ?, content = ?, category = ?
		 WHERE id = ? AND user_id = ?`,
		t.Title, t.Content, string(t.Category), t.ID, ownerID,
	)
	if err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	return expectOneRow(result)
}

func (r *TemplateRepository) DeleteForOwner(ctx context.Context, ownerID, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM message_templates WHERE id = ? AND user_id = ?", id, ownerID)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	return expectOneRow(result)
}

func (r *TemplateRepository) getOne(ctx context.Context, where string, args ...any) (*domain.MessageTemplate, error) {
	t, err := scanTemplate(r.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE `+where, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

func scanTemplate(row rowScanner) (*domain.MessageTemplate, error) {
	var (
		t        domain.MessageTemplate
		category string
	)
	if err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Content, &category, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan template: %w", err)
	}
	t.Category = domain.TemplateCategory(category)
	return &t, nil
}

func scanTemplates(rows *sql.Rows) ([]domain.MessageTemplate, error) {
	var templates []domain.MessageTemplate
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, *t)
	}
	return templates, rows.Err()
}
