package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/mealworks/lunch-portal/internal/backend"
	"github.com/mealworks/lunch-portal/internal/model"
	"github.com/mealworks/lunch-portal/internal/service"
	"github.com/mealworks/lunch-portal/internal/session"
)

type fakeGateway struct {
	fetchOK     bool
	registerRes backend.Result[backend.Receipt]
}

func (f *fakeGateway) FetchEvents(ctx context.Context) backend.Result[[]model.Event] {
	if !f.fetchOK {
		return backend.Result[[]model.Event]{Success: false, Error: "backend down"}
	}
	return backend.Result[[]model.Event]{Success: true, Data: []model.Event{
		{
			ID: "1", Title: "Italian Pasta Day",
			Date:     model.NewDate(2025, time.June, 15),
			Capacity: 30, Registered: 18,
		},
		{
			ID: "2", Title: "Taco Tuesday",
			Date:     model.NewDate(2025, time.June, 17),
			Capacity: 40, Registered: 40,
		},
	}}
}

func (f *fakeGateway) RegisterForEvent(ctx context.Context, req model.RegistrationRequest) backend.Result[backend.Receipt] {
	return f.registerRes
}

func (f *fakeGateway) UserRegistrations(ctx context.Context, userID string) backend.Result[[]model.Registration] {
	return backend.Result[[]model.Registration]{Success: true, Data: []model.Registration{{ID: "srv-42", EventID: "1", Name: userID}}}
}

func (f *fakeGateway) CancelRegistration(ctx context.Context, id string) backend.Result[struct{}] {
	return backend.Result[struct{}]{Success: true}
}

func newTestRouter(t *testing.T, gw session.Gateway) chi.Router {
	t.Helper()
	store := session.NewStore(gw, zerolog.Nop())
	store.Load(context.Background())
	h := NewPortalHandler(service.NewPortalService(store), store)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	h.Routes(r)
	return r
}

func doJSON(t *testing.T, r chi.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheck(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{fetchOK: true})
	w := doJSON(t, r, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestListEvents(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{fetchOK: true})
	w := doJSON(t, r, http.MethodGet, "/api/events", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Events []struct {
			ID        string       `json:"id"`
			Status    model.Status `json:"status"`
			Remaining int          `json:"remaining_capacity"`
		} `json:"events"`
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Degraded {
		t.Error("store should not be degraded")
	}
	if len(resp.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(resp.Events))
	}
	for _, e := range resp.Events {
		switch e.ID {
		case "1":
			if e.Status != model.StatusAvailable || e.Remaining != 12 {
				t.Errorf("event 1 annotation: %+v", e)
			}
		case "2":
			if e.Status != model.StatusFull || e.Remaining != 0 {
				t.Errorf("event 2 annotation: %+v", e)
			}
		}
	}
}

func TestListEventsDegraded(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{fetchOK: false})
	w := doJSON(t, r, http.MethodGet, "/api/events", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 even when degraded", w.Code)
	}

	var resp struct {
		Events   []json.RawMessage `json:"events"`
		Degraded bool              `json:"degraded"`
		Error    string            `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Degraded || resp.Error == "" {
		t.Error("degraded flag and error should be surfaced")
	}
	if len(resp.Events) == 0 {
		t.Error("fallback sample events should still be served")
	}
}

func TestSignUp(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: true}}
	r := newTestRouter(t, gw)

	w := doJSON(t, r, http.MethodPost, "/api/events/1/signup", `{"name":"user@x"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	var reg model.Registration
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if reg.EventID != "1" || reg.Name != "user@x" {
		t.Errorf("registration wrong: %+v", reg)
	}

	// The event list reflects the optimistic mutation.
	w = doJSON(t, r, http.MethodGet, "/api/events/1", "")
	var view struct {
		Registered int      `json:"registered"`
		Attendees  []string `json:"attendees"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Registered != 19 {
		t.Errorf("registered = %d, want 19", view.Registered)
	}
}

func TestSignUpFullEvent(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: true}}
	r := newTestRouter(t, gw)

	w := doJSON(t, r, http.MethodPost, "/api/events/2/signup", `{"name":"user@x"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
	if !strings.Contains(w.Body.String(), "fully booked") {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestSignUpDuplicate(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: true}}
	r := newTestRouter(t, gw)

	if w := doJSON(t, r, http.MethodPost, "/api/events/1/signup", `{"name":"user@x"}`); w.Code != http.StatusCreated {
		t.Fatalf("first signup: %d", w.Code)
	}
	w := doJSON(t, r, http.MethodPost, "/api/events/1/signup", `{"name":"user@x"}`)
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", w.Code)
	}
}

func TestSignUpUnknownEvent(t *testing.T) {
	gw := &fakeGateway{fetchOK: true}
	r := newTestRouter(t, gw)
	w := doJSON(t, r, http.MethodPost, "/api/events/missing/signup", `{"name":"user@x"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestSignUpBackendFailure(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: false, Error: "upstream rejected"}}
	r := newTestRouter(t, gw)

	w := doJSON(t, r, http.MethodPost, "/api/events/1/signup", `{"name":"user@x"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}

	// The optimistic mutation must have been rolled back.
	w = doJSON(t, r, http.MethodGet, "/api/events/1", "")
	var view struct {
		Registered int `json:"registered"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Registered != 18 {
		t.Errorf("registered = %d after rollback, want 18", view.Registered)
	}
}

func TestSchedule(t *testing.T) {
	gw := &fakeGateway{fetchOK: true}
	r := newTestRouter(t, gw)

	w := doJSON(t, r, http.MethodGet, "/api/schedule?date=2025-06-17", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var day struct {
		Events       []json.RawMessage `json:"events"`
		HasEvents    bool              `json:"has_events"`
		HasAvailable bool              `json:"has_available"`
		HasFull      bool              `json:"has_full"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &day); err != nil {
		t.Fatal(err)
	}
	if len(day.Events) != 1 || !day.HasEvents || day.HasAvailable || !day.HasFull {
		t.Errorf("schedule wrong: %s", w.Body.String())
	}
}

func TestScheduleBadDate(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{fetchOK: true})
	w := doJSON(t, r, http.MethodGet, "/api/schedule?date=garbage", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestSlotSignUpAndConflict(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: true}}
	r := newTestRouter(t, gw)

	// Find a seeded slot id from the delivery schedule.
	w := doJSON(t, r, http.MethodGet, "/api/delivery-days", "")
	if w.Code != http.StatusOK {
		t.Fatalf("delivery-days status = %d", w.Code)
	}
	var days []struct {
		Slots []struct {
			ID string `json:"id"`
		} `json:"time_slots"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &days); err != nil {
		t.Fatal(err)
	}
	if len(days) == 0 || len(days[0].Slots) == 0 {
		t.Fatal("expected seeded delivery slots")
	}
	slotID := days[0].Slots[0].ID

	if w := doJSON(t, r, http.MethodPost, "/api/slots/"+slotID+"/signup", `{"name":"Bob Minor"}`); w.Code != http.StatusOK {
		t.Fatalf("slot signup status = %d: %s", w.Code, w.Body.String())
	}
	if w := doJSON(t, r, http.MethodPost, "/api/slots/"+slotID+"/signup", `{"name":"Sue Fayer"}`); w.Code != http.StatusConflict {
		t.Fatalf("second slot signup status = %d, want 409", w.Code)
	}
}

func TestCreateEvent(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{fetchOK: true})

	body := `{"title":"BBQ Bonanza","date":"2025-07-01","time":"12:00 PM","capacity":50}`
	w := doJSON(t, r, http.MethodPost, "/api/events", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}

	if w := doJSON(t, r, http.MethodPost, "/api/events", `{"title":"","capacity":0}`); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid create status = %d, want 400", w.Code)
	}
}

func TestRegistrationListAndExport(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: true}}
	r := newTestRouter(t, gw)

	body := `{"name":"John Doe","email":"john.doe@company.com","department":"Engineering"}`
	if w := doJSON(t, r, http.MethodPost, "/api/events/1/signup", body); w.Code != http.StatusCreated {
		t.Fatalf("signup: %d", w.Code)
	}

	w := doJSON(t, r, http.MethodGet, "/api/events/1/registrations?q=engineering", "")
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var regs []model.Registration
	if err := json.Unmarshal(w.Body.Bytes(), &regs); err != nil {
		t.Fatal(err)
	}
	if len(regs) != 1 || regs[0].Name != "John Doe" {
		t.Errorf("search result wrong: %+v", regs)
	}

	w = doJSON(t, r, http.MethodGet, "/api/events/1/registrations/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("export status = %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if !strings.Contains(w.Body.String(), "John Doe") {
		t.Error("export missing the attendee row")
	}
}

func TestCancelRegistration(t *testing.T) {
	gw := &fakeGateway{fetchOK: true, registerRes: backend.Result[backend.Receipt]{Success: true}}
	r := newTestRouter(t, gw)

	w := doJSON(t, r, http.MethodPost, "/api/events/1/signup", `{"name":"user@x"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: %d", w.Code)
	}
	var reg model.Registration
	if err := json.Unmarshal(w.Body.Bytes(), &reg); err != nil {
		t.Fatal(err)
	}

	if w := doJSON(t, r, http.MethodDelete, "/api/registrations/"+reg.ID, ""); w.Code != http.StatusNoContent {
		t.Fatalf("cancel status = %d, want 204", w.Code)
	}
	if w := doJSON(t, r, http.MethodDelete, "/api/registrations/"+reg.ID, ""); w.Code != http.StatusNotFound {
		t.Fatalf("second cancel status = %d, want 404", w.Code)
	}
}

func TestUserRegistrations(t *testing.T) {
	r := newTestRouter(t, &fakeGateway{fetchOK: true})

	w := doJSON(t, r, http.MethodGet, "/api/users/user@x/registrations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var regs []model.Registration
	if err := json.Unmarshal(w.Body.Bytes(), &regs); err != nil {
		t.Fatal(err)
	}
	if len(regs) != 1 || regs[0].Name != "user@x" {
		t.Errorf("registrations wrong: %+v", regs)
	}
}

func TestRefresh(t *testing.T) {
	gw := &fakeGateway{fetchOK: false}
	r := newTestRouter(t, gw)

	gw.fetchOK = true
	w := doJSON(t, r, http.MethodPost, "/api/refresh", "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d", w.Code)
	}
	var resp struct {
		Degraded bool `json:"degraded"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Degraded {
		t.Error("refresh against a healthy backend should clear the degraded flag")
	}
}
