package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/msomdec/mtaabiz/internal/metrics"
	"github.com/msomdec/mtaabiz/internal/service"
)

const defaultStatusPollInterval = 5 * time.Second

// Dependencies are the services the HTTP layer is built from. Metrics and
// AuthLimiter are optional.
type Dependencies struct {
	Auth      *service.AuthService
	Profiles  *service.ProfileService
	Invoices  *service.InvoiceService
	Templates *service.TemplateService

	Metrics            *metrics.Metrics
	AuthLimiter        *service.KeyedLimiter
	StatusPollInterval time.Duration
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, deps Dependencies) {
	authHandler := NewAuthHandler(deps.Auth)
	poll := deps.StatusPollInterval
	if poll <= 0 {
		poll = defaultStatusPollInterval
	}
	statusHandler := NewStatusHandler(deps.Profiles, poll)
	invoiceHandler := NewInvoiceHandler(deps.Invoices)
	templateHandler := NewTemplateHandler(deps.Templates)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(deps.Auth, h)
	}
	limited := func(h http.HandlerFunc) http.Handler {
		if deps.AuthLimiter == nil {
			return h
		}
		return RateLimit(deps.AuthLimiter, h)
	}

	mux.HandleFunc("GET /healthz", HandleHealthz)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics.Handler())
	}

	// Auth
	mux.Handle("POST /api/auth/register", limited(authHandler.HandleRegister))
	mux.Handle("POST /api/auth/login", limited(authHandler.HandleLogin))
	mux.Handle("GET /api/auth/user", requireAuth(authHandler.HandleUser))
	mux.HandleFunc("POST /api/auth/logout", authHandler.HandleLogout)

	// Plan
	mux.Handle("GET /api/status", requireAuth(statusHandler.HandleStatus))
	mux.Handle("GET /api/status/stream", requireAuth(statusHandler.HandleStatusStream))
	mux.Handle("POST /api/profile/upgrade-test", requireAuth(statusHandler.HandleUpgradeTest))

	// Invoices
	mux.Handle("GET /api/invoices", requireAuth(invoiceHandler.HandleList))
	mux.Handle("POST /api/invoices", requireAuth(invoiceHandler.HandleCreate))
	mux.Handle("GET /api/invoices/{id}", requireAuth(invoiceHandler.HandleGet))
	mux.Handle("PUT /api/invoices/{id}", requireAuth(invoiceHandler.HandleUpdate))
	mux.Handle("PATCH /api/invoices/{id}", requireAuth(invoiceHandler.HandleUpdate))
	mux.Handle("DELETE /api/invoices/{id}", requireAuth(invoiceHandler.HandleDelete))

	// Message templates
	mux.Handle("GET /api/messages", requireAuth(templateHandler.HandleList))
	mux.Handle("POST /api/messages", requireAuth(templateHandler.HandleCreate))
	mux.Handle("GET /api/messages/library", requireAuth(templateHandler.HandleLibrary))
	mux.Handle("GET /api/messages/{id}", requireAuth(templateHandler.HandleGet))
	mux.Handle("PUT /api/messages/{id}", requireAuth(templateHandler.HandleUpdate))
	mux.Handle("PATCH /api/messages/{id}", requireAuth(templateHandler.HandleUpdate))
	mux.Handle("DELETE /api/messages/{id}", requireAuth(templateHandler.HandleDelete))
}

// NewServer returns the full handler chain: routes wrapped in request
// logging and security headers.
func NewServer(logger *slog.Logger, deps Dependencies) http.Handler {
	mux := http.NewServeMux()
	RegisterRoutes(mux, deps)

	var observer RequestObserver
	if deps.Metrics != nil {
		observer = deps.Metrics
	}
	return RequestLogger(logger, observer, SecurityHeaders(mux))
}
