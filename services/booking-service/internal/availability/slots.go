package availability

import (
	"time"

	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
)

// Booked is an existing appointment as the engine sees it.
type Booked struct {
	Start           Clock
	DurationMinutes int
	Status          string
}

// FromAppointments converts stored rows, dropping any whose start time cannot be parsed.
func FromAppointments(appts []model.Appointment) []Booked {
	out := make([]Booked, 0, len(appts))
	for _, a := range appts {
		start, err := ParseClock(a.StartTime)
		if err != nil {
			continue
		}
		out = append(out, Booked{Start: start, DurationMinutes: a.DurationMinutes, Status: a.Status})
	}
	return out
}

// Slots returns the bookable start times for service on day, ascending.
//
// Candidates run every StepMinutes from Open while they start before Close. A candidate
// occupies [start, start+duration+buffer) and must end by Close. On the current day (in
// p.Location) candidates earlier than now are skipped. A candidate is rejected when it
// overlaps any non-cancelled booking's occupied interval or shares its start time.
// At most MaxSlots are returned; a nil service yields nil.
func (p Policy) Slots(day time.Time, service *model.Service, booked []Booked, now time.Time) []Clock {
	if service == nil || p.StepMinutes <= 0 {
		return nil
	}
	loc := p.Location
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := day.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
	isToday := now.In(loc).Format(time.DateOnly) == midnight.Format(time.DateOnly)
	total := p.Occupied(service.DurationMinutes)

	var slots []Clock
	for start := p.Open; start < p.Close; start = start.Add(p.StepMinutes) {
		end := start.Add(total)
		if end > p.Close {
			break
		}
		if isToday && midnight.Add(time.Duration(start)*time.Minute).Before(now) {
			continue
		}
		if p.conflicts(start, end, booked) {
			continue
		}
		slots = append(slots, start)
		if len(slots) >= MaxSlots {
			break
		}
	}
	return slots
}

func (p Policy) conflicts(start, end Clock, booked []Booked) bool {
	for _, b := range booked {
		if b.Status == model.StatusCancelled {
			continue
		}
		bEnd := b.Start.Add(p.Occupied(b.DurationMinutes))
		// Half-open overlap, plus an identical start even for zero-length edge cases.
		if (start < bEnd && end > b.Start) || start == b.Start {
			return true
		}
	}
	return false
}
