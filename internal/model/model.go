// Package model defines the core domain types for the lunch signup and
// meal delivery volunteer portal.
package model

import "time"

// Status classifies an item for display. It is always derived from the
// IsFull predicate so list badges and sign-up buttons cannot disagree.
type Status string

const (
	StatusAvailable Status = "available"
	StatusFull      Status = "full"
)

// Event represents a company lunch with finite capacity and a roster of
// registered attendees.
type Event struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Date        Date     `json:"date"`
	Time        string   `json:"time"`
	Location    string   `json:"location"`
	Menu        string   `json:"menu"`
	Capacity    int      `json:"capacity"`
	Registered  int      `json:"registered"`
	Attendees   []string `json:"attendees,omitempty"`
	Description string   `json:"description"`
}

// Remaining returns the number of open seats. It never goes negative,
// even when a backend anomaly reports more registrations than capacity.
func (e *Event) Remaining() int {
	if e.Registered >= e.Capacity {
		return 0
	}
	return e.Capacity - e.Registered
}

// IsFull returns true when no seats remain. A zero-capacity event is
// always full.
func (e *Event) IsFull() bool {
	return e.Registered >= e.Capacity
}

// Status returns the display classification for the event.
func (e *Event) Status() Status {
	if e.IsFull() {
		return StatusFull
	}
	return StatusAvailable
}

// HasAttendee reports whether name already appears on the roster.
func (e *Event) HasAttendee(name string) bool {
	for _, a := range e.Attendees {
		if a == name {
			return true
		}
	}
	return false
}

// Recipient is an elderly neighbor receiving meal deliveries.
type Recipient struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// TimeSlot is a fixed delivery window tied to one recipient. A slot is
// either unassigned (Volunteer empty) or held by exactly one volunteer;
// there is no capacity field because one assignment fills the slot.
type TimeSlot struct {
	ID        string    `json:"id"`
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Recipient Recipient `json:"recipient"`
	Volunteer string    `json:"volunteer,omitempty"`
}

// IsFull returns true when the slot already has a volunteer.
func (s *TimeSlot) IsFull() bool {
	return s.Volunteer != ""
}

// Status returns the display classification for the slot.
func (s *TimeSlot) Status() Status {
	if s.IsFull() {
		return StatusFull
	}
	return StatusAvailable
}

// TimeKey is the grouping key used by the calendar view to stack slots
// sharing the same window.
func (s *TimeSlot) TimeKey() string {
	return s.StartTime + " - " + s.EndTime
}

// DeliveryDay owns the ordered delivery slots for a single date.
type DeliveryDay struct {
	Date  Date       `json:"date"`
	Slots []TimeSlot `json:"time_slots"`
}

// Registration is the canonical attendee record kept per sign-up. The
// Event.Attendees display list is maintained in lockstep with these
// records, so Registered == len(Attendees) always holds locally.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Department   string    `json:"department"`
	DietaryNote  string    `json:"dietary_restrictions,omitempty"`
	RegisteredAt time.Time `json:"registered_at"`
}

// RegistrationRequest is the payload submitted to the backend when a
// user signs up for an event or a delivery slot.
type RegistrationRequest struct {
	EventID     string `json:"eventId"`
	UserID      string `json:"userId"`
	UserName    string `json:"userName"`
	DietaryNote string `json:"dietaryRestrictions,omitempty"`
}

// CreateEventRequest is the admin payload for creating a new lunch.
type CreateEventRequest struct {
	Title       string `json:"title"`
	Date        Date   `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Menu        string `json:"menu"`
	Capacity    int    `json:"capacity"`
	Description string `json:"description"`
}

// SignUpRequest is the portal payload for registering the current user.
type SignUpRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Department  string `json:"department,omitempty"`
	DietaryNote string `json:"dietary_restrictions,omitempty"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string `json:"error"`
}
