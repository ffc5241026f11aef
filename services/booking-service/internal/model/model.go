package model

// Appointment status values.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
)

// Service category values; only courses are bookable.
const (
	CategoryCourse  = "course"
	CategoryProduct = "product"
	CategoryAddon   = "addon"
)

type Service struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Category        string  `json:"category"`
	Price           float64 `json:"price"`
	DurationMinutes int     `json:"duration_minutes"` // 0 when the catalog has no value
	IsActive        bool    `json:"is_active"`
	SortOrder       int     `json:"sort_order"`
}

// Appointment dates are YYYY-MM-DD and times HH:MM in the business time zone.
type Appointment struct {
	ID              string `json:"id"`
	CustomerPhone   string `json:"customer_phone"`
	ServiceID       string `json:"service_id"`
	ServiceName     string `json:"service_name,omitempty"`
	Date            string `json:"appointment_date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	Status          string `json:"status"`
	DurationMinutes int    `json:"-"`
}

type Customer struct {
	Phone      string `json:"phone"`
	Name       string `json:"name"`
	Birthday   string `json:"birthday"`
	LineID     string `json:"line_id"`
	Occupation string `json:"occupation,omitempty"`
	Address    string `json:"address,omitempty"`
}

type ReminderTask struct {
	ID            string `json:"id"`
	AppointmentID string `json:"appointment_id"`
	LineUserID    string `json:"line_user_id"`
	ReminderDate  string `json:"reminder_date"`
	ReminderTime  string `json:"reminder_time"`
	ScheduledDate string `json:"scheduled_date"`
	ScheduledTime string `json:"scheduled_time"`
	ServiceName   string `json:"service_name"`
}
