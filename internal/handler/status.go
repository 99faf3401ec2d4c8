package handler

import (
	"net/http"
	"time"

	"github.com/msomdec/mtaabiz/internal/domain"
	"github.com/msomdec/mtaabiz/internal/service"
	"github.com/msomdec/mtaabiz/internal/view"
	"github.com/starfederation/datastar-go/datastar"
)

// StatusHandler reports and changes the caller's plan.
type StatusHandler struct {
	profiles     *service.ProfileService
	pollInterval time.Duration
}

// NewStatusHandler creates a new StatusHandler. pollInterval controls how
// often the status stream re-checks usage.
func NewStatusHandler(profiles *service.ProfileService, pollInterval time.Duration) *StatusHandler {
	return &StatusHandler{profiles: profiles, pollInterval: pollInterval}
}

// HandleStatus returns the caller's plan usage.
// GET /api/status
// Response: {"is_pro": false, "invoice_count": 0, "limit": 5}
func (h *StatusHandler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	status, err := h.profiles.Status(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "get status", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(status))
}

// HandleUpgradeTest marks the caller as PRO without payment.
// POST /api/profile/upgrade-test
func (h *StatusHandler) HandleUpgradeTest(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if _, err := h.profiles.SetPro(r.Context(), user.ID, true); err != nil {
		writeServiceError(w, r, "upgrade profile", err)
		return
	}
	loggerFrom(r.Context()).Info("profile upgraded", "user_id", user.ID)

	status, err := h.profiles.Status(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "get status", err)
		return
	}
	writeJSON(w, http.StatusOK, toStatusDTO(status))
}

// HandleStatusStream pushes the caller's usage as Datastar signals plus the
// quota badge fragment, then again whenever it changes, until the client
// goes away.
// GET /api/status/stream
func (h *StatusHandler) HandleStatusStream(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	ctx := r.Context()

	status, err := h.profiles.Status(ctx, user.ID)
	if err != nil {
		writeServiceError(w, r, "get status", err)
		return
	}

	sse := datastar.NewSSE(w, r)
	if err := patchStatus(sse, status); err != nil {
		loggerFrom(ctx).Warn("stream status", "error", err)
		return
	}

	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			next, err := h.profiles.Status(ctx, user.ID)
			if err != nil {
				if ctx.Err() == nil {
					loggerFrom(ctx).Error("get status", "error", err)
				}
				return
			}
			if *next == *status {
				continue
			}
			status = next
			if err := patchStatus(sse, status); err != nil {
				return
			}
		}
	}
}

func patchStatus(sse *datastar.ServerSentEventGenerator, status *domain.Status) error {
	if err := sse.MarshalAndPatchSignals(toStatusDTO(status)); err != nil {
		return err
	}
	return sse.PatchElementTempl(view.QuotaBadge(*status))
}
