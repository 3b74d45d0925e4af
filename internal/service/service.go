// Package service implements business logic, validation, and
// orchestration between HTTP handlers and the session store.
package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mealworks/lunch-portal/internal/model"
	"github.com/mealworks/lunch-portal/internal/schedule"
	"github.com/mealworks/lunch-portal/internal/session"
)

// EventView is the read-only annotated shape exposed to the
// presentation layer: the event plus its derived availability.
type EventView struct {
	model.Event
	Status    model.Status `json:"status"`
	Remaining int          `json:"remaining_capacity"`
}

// DaySchedule aggregates everything a calendar day renders: the
// lunches, the delivery slots grouped by time window, and the cell
// indicator flags.
type DaySchedule struct {
	Date         model.Date           `json:"date"`
	Events       []EventView          `json:"events"`
	SlotGroups   []schedule.TimeGroup `json:"slot_groups"`
	HasEvents    bool                 `json:"has_events"`
	HasAvailable bool                 `json:"has_available"`
	HasFull      bool                 `json:"has_full"`
}

// PortalService orchestrates portal operations over the session store.
type PortalService struct {
	store *session.Store
}

// NewPortalService constructs a PortalService.
func NewPortalService(store *session.Store) *PortalService {
	return &PortalService{store: store}
}

// ListEvents returns all events annotated with availability.
func (s *PortalService) ListEvents() []EventView {
	return annotate(s.store.Events())
}

// GetEvent returns a single annotated event by ID.
func (s *PortalService) GetEvent(id string) (*EventView, error) {
	if id == "" {
		return nil, fmt.Errorf("event id is required")
	}
	e, err := s.store.Event(id)
	if err != nil {
		return nil, err
	}
	v := annotate([]model.Event{*e})[0]
	return &v, nil
}

// Schedule builds the full view for one calendar date.
func (s *PortalService) Schedule(date model.Date) DaySchedule {
	events := s.store.Events()
	return DaySchedule{
		Date:         date,
		Events:       annotate(schedule.EventsOn(events, date)),
		SlotGroups:   schedule.GroupSlotsByTime(s.store.SlotsOn(date)),
		HasEvents:    schedule.HasEventsOn(events, date),
		HasAvailable: schedule.HasAvailableOn(events, date),
		HasFull:      schedule.HasFullOn(events, date),
	}
}

// DeliveryDays returns the delivery schedule with slots grouped by
// time window per day.
func (s *PortalService) DeliveryDays() []model.DeliveryDay {
	return s.store.DeliveryDays()
}

// SignUp validates the request and registers the actor for an event.
func (s *PortalService) SignUp(ctx context.Context, eventID string, req model.SignUpRequest) (*model.Registration, error) {
	if eventID == "" {
		return nil, fmt.Errorf("event id is required")
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, fmt.Errorf("name is required")
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email != "" && !isValidEmail(req.Email) {
		return nil, fmt.Errorf("email is not a valid email address")
	}
	return s.store.SignUp(ctx, eventID, req)
}

// AssignSlot validates the volunteer name and claims a delivery slot.
func (s *PortalService) AssignSlot(ctx context.Context, slotID, volunteer string) error {
	if slotID == "" {
		return fmt.Errorf("slot id is required")
	}
	volunteer = strings.TrimSpace(volunteer)
	if volunteer == "" {
		return fmt.Errorf("volunteer name is required")
	}
	return s.store.AssignSlot(ctx, slotID, volunteer)
}

// CreateEvent validates the admin request and adds the event to the
// session.
func (s *PortalService) CreateEvent(req model.CreateEventRequest) (*model.Event, error) {
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		return nil, fmt.Errorf("event title is required")
	}
	if req.Capacity <= 0 {
		return nil, fmt.Errorf("capacity must be a positive integer")
	}
	if req.Capacity > 100_000 {
		return nil, fmt.Errorf("capacity cannot exceed 100,000")
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("a valid event date is required")
	}

	e := model.Event{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Date:        req.Date,
		Time:        req.Time,
		Location:    req.Location,
		Menu:        req.Menu,
		Capacity:    req.Capacity,
		Registered:  0,
		Description: req.Description,
	}
	s.store.AddEvent(e)
	return &e, nil
}

// MyRegistrations returns everything a user has signed up for,
// according to the backend.
func (s *PortalService) MyRegistrations(ctx context.Context, userID string) ([]model.Registration, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	return s.store.UserRegistrations(ctx, userID)
}

// CancelRegistration removes a registration, backend first.
func (s *PortalService) CancelRegistration(ctx context.Context, registrationID string) error {
	if registrationID == "" {
		return fmt.Errorf("registration id is required")
	}
	return s.store.CancelRegistration(ctx, registrationID)
}

// SearchAttendees returns an event's registrations whose name, email,
// or department contains the query, case-insensitively. An empty query
// returns everyone.
func (s *PortalService) SearchAttendees(eventID, query string) ([]model.Registration, error) {
	if _, err := s.store.Event(eventID); err != nil {
		return nil, err
	}
	regs := s.store.Registrations(eventID)
	if query == "" {
		return regs, nil
	}
	q := strings.ToLower(query)
	var out []model.Registration
	for _, reg := range regs {
		if strings.Contains(strings.ToLower(reg.Name), q) ||
			strings.Contains(strings.ToLower(reg.Email), q) ||
			strings.Contains(strings.ToLower(reg.Department), q) {
			out = append(out, reg)
		}
	}
	return out, nil
}

// ExportAttendeesCSV renders an event's registration list as CSV for
// the admin "Export List" action.
func (s *PortalService) ExportAttendeesCSV(eventID string) ([]byte, error) {
	regs, err := s.SearchAttendees(eventID, "")
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"Name", "Email", "Department", "Registered At", "Dietary Restrictions"})
	for _, reg := range regs {
		_ = w.Write([]string{
			reg.Name,
			reg.Email,
			reg.Department,
			reg.RegisteredAt.Format("2006-01-02 15:04:05"),
			reg.DietaryNote,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func annotate(events []model.Event) []EventView {
	views := make([]EventView, len(events))
	for i, e := range events {
		views[i] = EventView{Event: e, Status: e.Status(), Remaining: e.Remaining()}
	}
	return views
}

// isValidEmail does a basic structural check (no external deps).
func isValidEmail(email string) bool {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return false
	}
	return len(parts[0]) > 0 && strings.Contains(parts[1], ".")
}
