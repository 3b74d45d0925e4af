// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mealworks/lunch-portal/internal/model"
	"github.com/mealworks/lunch-portal/internal/service"
	"github.com/mealworks/lunch-portal/internal/session"
)

// PortalHandler holds all HTTP handlers for the portal API.
type PortalHandler struct {
	svc   *service.PortalService
	store *session.Store
}

// NewPortalHandler constructs a PortalHandler.
func NewPortalHandler(svc *service.PortalService, store *session.Store) *PortalHandler {
	return &PortalHandler{svc: svc, store: store}
}

// Routes mounts all portal endpoints on a router.
func (h *PortalHandler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/events", h.ListEvents)
		r.Post("/events", h.CreateEvent)
		r.Get("/events/{id}", h.GetEvent)
		r.Post("/events/{id}/signup", h.SignUp)
		r.Get("/events/{id}/registrations", h.ListRegistrations)
		r.Get("/events/{id}/registrations/export", h.ExportRegistrations)
		r.Delete("/registrations/{id}", h.CancelRegistration)
		r.Get("/users/{id}/registrations", h.UserRegistrations)
		r.Get("/schedule", h.Schedule)
		r.Get("/delivery-days", h.DeliveryDays)
		r.Post("/slots/{id}/signup", h.AssignSlot)
		r.Post("/refresh", h.Refresh)
	})
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, session.ErrEventFull):
		writeError(w, http.StatusConflict, "event is fully booked")
	case errors.Is(err, session.ErrAlreadyRegistered):
		writeError(w, http.StatusConflict, "you are already registered for this event")
	case errors.Is(err, session.ErrSlotTaken):
		writeError(w, http.StatusConflict, "slot already has a volunteer")
	case errors.Is(err, session.ErrBackend):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// eventListResponse carries the event list plus the degraded flag so
// the UI can show an inline banner when running on fallback data.
type eventListResponse struct {
	Events   []service.EventView `json:"events"`
	Degraded bool                `json:"degraded"`
	Error    string              `json:"error,omitempty"`
}

// ─── Handlers ─────────────────────────────────────────────────────────────────

// ListEvents handles GET /api/events
// Returns all events annotated with availability, plus the degraded
// flag when the store fell back to sample data.
func (h *PortalHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events := h.svc.ListEvents()
	if events == nil {
		events = []service.EventView{}
	}
	degraded, lastErr := h.store.Degraded()
	writeJSON(w, http.StatusOK, eventListResponse{Events: events, Degraded: degraded, Error: lastErr})
}

// GetEvent handles GET /api/events/{id}
func (h *PortalHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	view, err := h.svc.GetEvent(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SignUp handles POST /api/events/{id}/signup
func (h *PortalHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	reg, err := h.svc.SignUp(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// Schedule handles GET /api/schedule?date=YYYY-MM-DD
// Returns the lunches, grouped delivery slots, and calendar indicator
// flags for one date.
func (h *PortalHandler) Schedule(w http.ResponseWriter, r *http.Request) {
	date, ok := model.ParseDate(r.URL.Query().Get("date"))
	if !ok {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Schedule(date))
}

// DeliveryDays handles GET /api/delivery-days
func (h *PortalHandler) DeliveryDays(w http.ResponseWriter, r *http.Request) {
	days := h.svc.DeliveryDays()
	if days == nil {
		days = []model.DeliveryDay{}
	}
	writeJSON(w, http.StatusOK, days)
}

// AssignSlot handles POST /api/slots/{id}/signup
func (h *PortalHandler) AssignSlot(w http.ResponseWriter, r *http.Request) {
	var req model.SignUpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.svc.AssignSlot(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "assigned"})
}

// Refresh handles POST /api/refresh
// Re-fetches the event list from the backend without a page reload.
func (h *PortalHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.store.Load(r.Context())
	degraded, lastErr := h.store.Degraded()
	writeJSON(w, http.StatusOK, map[string]any{"degraded": degraded, "error": lastErr})
}

// CreateEvent handles POST /api/events
// Admin creation of a new lunch event.
func (h *PortalHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req model.CreateEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	event, err := h.svc.CreateEvent(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, event)
}

// ListRegistrations handles GET /api/events/{id}/registrations?q=
// Admin registration list with optional search.
func (h *PortalHandler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.SearchAttendees(chi.URLParam(r, "id"), r.URL.Query().Get("q"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// ExportRegistrations handles GET /api/events/{id}/registrations/export
// Streams the registration list as CSV.
func (h *PortalHandler) ExportRegistrations(w http.ResponseWriter, r *http.Request) {
	data, err := h.svc.ExportAttendeesCSV(chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="registrations.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// UserRegistrations handles GET /api/users/{id}/registrations
// Backs the "view your registrations" link; the answer comes from the
// backend, which is authoritative across sessions.
func (h *PortalHandler) UserRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.svc.MyRegistrations(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if regs == nil {
		regs = []model.Registration{}
	}
	writeJSON(w, http.StatusOK, regs)
}

// CancelRegistration handles DELETE /api/registrations/{id}
func (h *PortalHandler) CancelRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.CancelRegistration(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
