package domain

import "context"

// Database defines lifecycle operations for the underlying database.
// Each implementation (SQLite, Postgres, etc.) owns its own migration
// files and strategy, ensuring the entire backend is swappable.
type Database interface {
	Migrate(ctx context.Context) error
	Close() error
}

// Repositories groups the repositories that share one unit of work.
type Repositories interface {
	Users() UserRepository
	Profiles() ProfileRepository
	Invoices() InvoiceRepository
	Templates() TemplateRepository
}

// Transactor runs fn against repositories bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
// Repositories passed to fn must not escape it.
type Transactor interface {
	Repositories
	WithinTx(ctx context.Context, fn func(repos Repositories) error) error
}
