package models

// Weekdays lists the seven weekday keys in calendar order. Availability maps
// are always keyed by exactly this set.
var Weekdays = []string{
	"sunday", "monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

// Availability maps a weekday name to the time-slot strings (e.g. "09:00")
// a resident or volunteer is available on that day.
//
// Invariant: all seven weekday keys are present, each mapping to a (possibly
// empty) slot list with no duplicate slot within a day. Use Normalize to
// establish the invariant on externally supplied maps.
type Availability map[string][]string

// NewAvailability returns an empty availability map with all seven weekday
// keys present.
func NewAvailability() Availability {
	a := make(Availability, len(Weekdays))
	for _, day := range Weekdays {
		a[day] = []string{}
	}
	return a
}

// Normalize returns a copy of a with the full-week invariant established:
// all seven weekday keys present, unknown keys dropped, duplicate slots
// within a day removed (first occurrence order preserved). A nil receiver
// yields a fully empty week.
func (a Availability) Normalize() Availability {
	out := NewAvailability()
	if a == nil {
		return out
	}
	for _, day := range Weekdays {
		slots, ok := a[day]
		if !ok {
			continue
		}
		seen := make(map[string]struct{}, len(slots))
		kept := make([]string, 0, len(slots))
		for _, s := range slots {
			if s == "" {
				continue
			}
			if _, dup := seen[s]; dup {
				continue
			}
			seen[s] = struct{}{}
			kept = append(kept, s)
		}
		out[day] = kept
	}
	return out
}

// SlotCount returns the total number of slots across the week.
func (a Availability) SlotCount() int {
	n := 0
	for _, slots := range a {
		n += len(slots)
	}
	return n
}

// Days returns the weekday keys that have at least one slot, in calendar order.
func (a Availability) Days() []string {
	var days []string
	for _, day := range Weekdays {
		if len(a[day]) > 0 {
			days = append(days, day)
		}
	}
	return days
}
