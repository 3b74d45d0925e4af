// Package schedule provides the pure date-filtering and grouping
// functions behind the calendar and list views. Every function here is
// deterministic: same inputs, same outputs, no clock reads.
package schedule

import "github.com/mealworks/lunch-portal/internal/model"

// EventsOn returns the events falling on the given calendar date,
// preserving their original relative order. Events with an invalid
// date match nothing.
func EventsOn(events []model.Event, date model.Date) []model.Event {
	var out []model.Event
	for _, e := range events {
		if e.Date.Equal(date) {
			out = append(out, e)
		}
	}
	return out
}

// HasEventsOn reports whether any event falls on the date. Used to
// highlight calendar cells.
func HasEventsOn(events []model.Event, date model.Date) bool {
	for _, e := range events {
		if e.Date.Equal(date) {
			return true
		}
	}
	return false
}

// HasAvailableOn reports whether the date has at least one event with
// open seats.
func HasAvailableOn(events []model.Event, date model.Date) bool {
	for _, e := range events {
		if e.Date.Equal(date) && !e.IsFull() {
			return true
		}
	}
	return false
}

// HasFullOn reports whether the date has at least one fully booked
// event.
func HasFullOn(events []model.Event, date model.Date) bool {
	for _, e := range events {
		if e.Date.Equal(date) && e.IsFull() {
			return true
		}
	}
	return false
}

// SlotsOn returns the delivery slots scheduled on the given date, in
// their stored order. Should more than one day carry the same date,
// their slots are concatenated in day order.
func SlotsOn(days []model.DeliveryDay, date model.Date) []model.TimeSlot {
	var out []model.TimeSlot
	for _, day := range days {
		if day.Date.Equal(date) {
			out = append(out, day.Slots...)
		}
	}
	return out
}

// TimeGroup is one time bucket of the calendar view: all slots sharing
// the same "start - end" window.
type TimeGroup struct {
	Key   string           `json:"time"`
	Slots []model.TimeSlot `json:"slots"`
}

// GroupSlotsByTime buckets slots by their time window. Buckets appear
// in first-seen order and slots keep their relative order within a
// bucket, so the rendered table is stable across refreshes.
func GroupSlotsByTime(slots []model.TimeSlot) []TimeGroup {
	var groups []TimeGroup
	index := make(map[string]int, len(slots))
	for _, slot := range slots {
		key := slot.TimeKey()
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, TimeGroup{Key: key})
		}
		groups[i].Slots = append(groups[i].Slots, slot)
	}
	return groups
}
