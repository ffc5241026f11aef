package availability

import "time"

const (
	DefaultOpen            Clock = 9 * 60
	DefaultClose           Clock = 18 * 60
	DefaultStepMinutes           = 30
	DefaultBufferMinutes         = 30
	DefaultDurationMinutes       = 60
	MaxSlots                     = 100
)

// Policy holds the salon's opening hours and slot arithmetic.
type Policy struct {
	Open          Clock
	Close         Clock
	StepMinutes   int
	BufferMinutes int
	Location      *time.Location
}

func DefaultPolicy(loc *time.Location) Policy {
	if loc == nil {
		loc = time.UTC
	}
	return Policy{
		Open:          DefaultOpen,
		Close:         DefaultClose,
		StepMinutes:   DefaultStepMinutes,
		BufferMinutes: DefaultBufferMinutes,
		Location:      loc,
	}
}

// EffectiveDuration maps a missing or non-positive duration to the one-hour default.
func EffectiveDuration(minutes int) int {
	if minutes <= 0 {
		return DefaultDurationMinutes
	}
	return minutes
}

// Occupied is the length an appointment blocks: service time plus cleanup buffer.
func (p Policy) Occupied(durationMinutes int) int {
	return EffectiveDuration(durationMinutes) + p.BufferMinutes
}

// EndTime is the stored end of an appointment starting at start.
func (p Policy) EndTime(start Clock, durationMinutes int) Clock {
	return start.Add(p.Occupied(durationMinutes))
}
