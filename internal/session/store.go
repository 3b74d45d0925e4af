// Package session holds the portal's in-memory state for a browsing
// session: the event list, the delivery schedule, and the canonical
// registration records. All sign-up mutations are applied here first
// (optimistically) and then forwarded to the backend; if the backend
// rejects the submit, the local mutation is rolled back.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mealworks/lunch-portal/internal/backend"
	"github.com/mealworks/lunch-portal/internal/model"
	"github.com/mealworks/lunch-portal/internal/schedule"
)

// ErrNotFound is returned when a requested item does not exist.
var ErrNotFound = errors.New("not found")

// ErrEventFull is returned when an event has no remaining capacity.
var ErrEventFull = errors.New("event is fully booked")

// ErrAlreadyRegistered is returned when the same person signs up twice
// for one event.
var ErrAlreadyRegistered = errors.New("already registered for this event")

// ErrSlotTaken is returned when a delivery slot already has a
// volunteer.
var ErrSlotTaken = errors.New("slot already has a volunteer")

// ErrBackend wraps a backend rejection; the local mutation has been
// rolled back by the time callers see it.
var ErrBackend = errors.New("backend rejected the request")

// Gateway is the slice of the backend client the store depends on.
type Gateway interface {
	FetchEvents(ctx context.Context) backend.Result[[]model.Event]
	RegisterForEvent(ctx context.Context, req model.RegistrationRequest) backend.Result[backend.Receipt]
	UserRegistrations(ctx context.Context, userID string) backend.Result[[]model.Registration]
	CancelRegistration(ctx context.Context, registrationID string) backend.Result[struct{}]
}

// Store owns the session state. It is safe for concurrent handlers:
// each sign-up is a single critical section over the capacity check and
// the mutation, so two requests cannot both take the last seat.
type Store struct {
	gateway Gateway
	log     zerolog.Logger
	now     func() time.Time

	mu            sync.RWMutex
	events        []model.Event
	days          []model.DeliveryDay
	registrations []model.Registration
	degraded      bool
	lastErr       string
}

// NewStore constructs an empty store; call Load to seed it.
func NewStore(gateway Gateway, log zerolog.Logger) *Store {
	return &Store{
		gateway: gateway,
		log:     log.With().Str("component", "session").Logger(),
		now:     time.Now,
	}
}

// Load seeds the store from the backend. A fetch failure is
// recoverable: the store falls back to the bundled sample dataset and
// flags itself degraded so the UI can show an inline error with a
// retry, instead of failing the whole page.
//
// The backend contract only exposes lunch events; the delivery
// schedule is seeded from the sample dataset either way.
func (s *Store) Load(ctx context.Context) {
	res := s.gateway.FetchEvents(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	today := model.DateOf(s.now())
	if len(s.days) == 0 {
		s.days = SampleDeliveryDays(today)
	}

	if !res.Success {
		s.log.Warn().Str("error", res.Error).Msg("event fetch failed, using sample data")
		if len(s.events) == 0 {
			s.events = SampleEvents(today)
		}
		s.degraded = true
		s.lastErr = res.Error
		return
	}

	s.events = res.Data
	s.degraded = false
	s.lastErr = ""
	s.log.Info().Int("events", len(s.events)).Msg("event list loaded")
}

// Degraded reports whether the store is running on fallback data, and
// the error that caused it.
func (s *Store) Degraded() (bool, string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.degraded, s.lastErr
}

// SignUp registers actor for an event. The transition is valid only
// while the event is open: full events and duplicate names are
// rejected before any state changes and before any backend call. On
// success the mutation is applied locally, then submitted upstream
// exactly once; a rejected submit rolls the mutation back.
func (s *Store) SignUp(ctx context.Context, eventID string, actor model.SignUpRequest) (*model.Registration, error) {
	s.mu.Lock()
	i := s.eventIndex(eventID)
	if i < 0 {
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	e := &s.events[i]
	if e.HasAttendee(actor.Name) {
		s.mu.Unlock()
		return nil, ErrAlreadyRegistered
	}
	if e.IsFull() {
		s.mu.Unlock()
		return nil, ErrEventFull
	}

	e.Registered++
	e.Attendees = append(e.Attendees, actor.Name)
	reg := model.Registration{
		ID:           uuid.New().String(),
		EventID:      eventID,
		Name:         actor.Name,
		Email:        actor.Email,
		Department:   actor.Department,
		DietaryNote:  actor.DietaryNote,
		RegisteredAt: s.now().UTC(),
	}
	s.registrations = append(s.registrations, reg)
	s.mu.Unlock()

	userID := actor.Email
	if userID == "" {
		userID = actor.Name
	}
	res := s.gateway.RegisterForEvent(ctx, model.RegistrationRequest{
		EventID:     eventID,
		UserID:      userID,
		UserName:    actor.Name,
		DietaryNote: actor.DietaryNote,
	})
	if !res.Success {
		s.rollbackSignUp(reg.ID)
		s.log.Warn().Str("event_id", eventID).Str("error", res.Error).Msg("registration submit failed, rolled back")
		return nil, fmt.Errorf("%w: %s", ErrBackend, res.Error)
	}

	// Adopt the backend's registration id so a later cancel targets
	// the right upstream record.
	if res.Data.RegistrationID != "" {
		s.mu.Lock()
		for j := range s.registrations {
			if s.registrations[j].ID == reg.ID {
				s.registrations[j].ID = res.Data.RegistrationID
				break
			}
		}
		s.mu.Unlock()
		reg.ID = res.Data.RegistrationID
	}

	s.log.Info().Str("event_id", eventID).Str("name", actor.Name).Msg("registration confirmed")
	return &reg, nil
}

// rollbackSignUp reverts the local effects of one optimistic sign-up.
func (s *Store) rollbackSignUp(registrationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reg model.Registration
	found := false
	for j := range s.registrations {
		if s.registrations[j].ID == registrationID {
			reg = s.registrations[j]
			s.registrations = append(s.registrations[:j], s.registrations[j+1:]...)
			found = true
			break
		}
	}
	if !found {
		return
	}
	if i := s.eventIndex(reg.EventID); i >= 0 {
		e := &s.events[i]
		if e.Registered > 0 {
			e.Registered--
		}
		e.Attendees = removeLast(e.Attendees, reg.Name)
	}
}

// AssignSlot claims a delivery slot for volunteer. A slot holds at most
// one assignee, so a second attempt is rejected without touching the
// backend. The assignment is submitted upstream as a registration
// against the slot id, and reverted if the submit fails.
func (s *Store) AssignSlot(ctx context.Context, slotID, volunteer string) error {
	s.mu.Lock()
	slot := s.findSlot(slotID)
	if slot == nil {
		s.mu.Unlock()
		return ErrNotFound
	}
	if slot.IsFull() {
		s.mu.Unlock()
		return ErrSlotTaken
	}
	slot.Volunteer = volunteer
	s.mu.Unlock()

	res := s.gateway.RegisterForEvent(ctx, model.RegistrationRequest{
		EventID:  slotID,
		UserID:   volunteer,
		UserName: volunteer,
	})
	if !res.Success {
		s.mu.Lock()
		if slot := s.findSlot(slotID); slot != nil && slot.Volunteer == volunteer {
			slot.Volunteer = ""
		}
		s.mu.Unlock()
		s.log.Warn().Str("slot_id", slotID).Str("error", res.Error).Msg("slot submit failed, rolled back")
		return fmt.Errorf("%w: %s", ErrBackend, res.Error)
	}

	s.log.Info().Str("slot_id", slotID).Str("volunteer", volunteer).Msg("slot assigned")
	return nil
}

// CancelRegistration removes a registration. The backend is asked
// first; only a confirmed cancel mutates local state, so there is
// nothing to roll back.
func (s *Store) CancelRegistration(ctx context.Context, registrationID string) error {
	s.mu.RLock()
	found := false
	for j := range s.registrations {
		if s.registrations[j].ID == registrationID {
			found = true
			break
		}
	}
	s.mu.RUnlock()
	if !found {
		return ErrNotFound
	}

	res := s.gateway.CancelRegistration(ctx, registrationID)
	if !res.Success {
		return fmt.Errorf("%w: %s", ErrBackend, res.Error)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for j := range s.registrations {
		if s.registrations[j].ID != registrationID {
			continue
		}
		reg := s.registrations[j]
		s.registrations = append(s.registrations[:j], s.registrations[j+1:]...)
		if i := s.eventIndex(reg.EventID); i >= 0 {
			e := &s.events[i]
			if e.Registered > 0 {
				e.Registered--
			}
			e.Attendees = removeLast(e.Attendees, reg.Name)
		}
		break
	}
	s.log.Info().Str("registration_id", registrationID).Msg("registration cancelled")
	return nil
}

// AddEvent appends an admin-created event to the session. The backend
// contract has no event-creation endpoint, so the event lives in this
// session only.
func (s *Store) AddEvent(e model.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

// Events returns a snapshot of all events in stored order.
func (s *Store) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEvents(s.events)
}

// Event returns one event by id.
func (s *Store) Event(id string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.eventIndex(id)
	if i < 0 {
		return nil, ErrNotFound
	}
	e := copyEvents(s.events[i : i+1])[0]
	return &e, nil
}

// EventsOn returns the events on one calendar date, in stored order.
func (s *Store) EventsOn(date model.Date) []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyEvents(schedule.EventsOn(s.events, date))
}

// DeliveryDays returns a snapshot of the delivery schedule.
func (s *Store) DeliveryDays() []model.DeliveryDay {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.DeliveryDay, len(s.days))
	for i, day := range s.days {
		out[i] = model.DeliveryDay{Date: day.Date, Slots: append([]model.TimeSlot(nil), day.Slots...)}
	}
	return out
}

// SlotsOn returns the delivery slots on one calendar date.
func (s *Store) SlotsOn(date model.Date) []model.TimeSlot {
	return schedule.SlotsOn(s.DeliveryDays(), date)
}

// Status reports the availability of an event or slot by id.
func (s *Store) Status(id string) (model.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.eventIndex(id); i >= 0 {
		return s.events[i].Status(), nil
	}
	if slot := s.findSlot(id); slot != nil {
		return slot.Status(), nil
	}
	return "", ErrNotFound
}

// UserRegistrations asks the backend for everything a user has signed
// up for across sessions. The backend is authoritative here: local
// records only cover this session.
func (s *Store) UserRegistrations(ctx context.Context, userID string) ([]model.Registration, error) {
	res := s.gateway.UserRegistrations(ctx, userID)
	if !res.Success {
		return nil, fmt.Errorf("%w: %s", ErrBackend, res.Error)
	}
	return res.Data, nil
}

// Registrations returns the canonical records for one event, in
// sign-up order.
func (s *Store) Registrations(eventID string) []model.Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Registration
	for _, reg := range s.registrations {
		if reg.EventID == eventID {
			out = append(out, reg)
		}
	}
	return out
}

// eventIndex finds an event position; callers must hold the lock.
func (s *Store) eventIndex(id string) int {
	for i := range s.events {
		if s.events[i].ID == id {
			return i
		}
	}
	return -1
}

// findSlot finds a slot across all delivery days; callers must hold
// the lock. The returned pointer aliases store state.
func (s *Store) findSlot(id string) *model.TimeSlot {
	for i := range s.days {
		for j := range s.days[i].Slots {
			if s.days[i].Slots[j].ID == id {
				return &s.days[i].Slots[j]
			}
		}
	}
	return nil
}

func copyEvents(events []model.Event) []model.Event {
	out := make([]model.Event, len(events))
	for i, e := range events {
		e.Attendees = append([]string(nil), e.Attendees...)
		out[i] = e
	}
	return out
}

// removeLast drops the last occurrence of name, mirroring the append
// performed on sign-up.
func removeLast(names []string, name string) []string {
	for i := len(names) - 1; i >= 0; i-- {
		if names[i] == name {
			return append(names[:i], names[i+1:]...)
		}
	}
	return names
}
