package events

// TopicAppointmentBooked carries AppointmentBooked payloads.
const TopicAppointmentBooked = "booking.appointment.booked.v1"

// AppointmentBooked is emitted after a pending appointment is stored. LineUserID is empty
// when the customer never linked a LINE account; consumers skip the push then.
type AppointmentBooked struct {
	AppointmentID string `json:"appointment_id"`
	CustomerPhone string `json:"customer_phone"`
	CustomerName  string `json:"customer_name,omitempty"`
	LineUserID    string `json:"line_user_id,omitempty"`
	ServiceID     string `json:"service_id"`
	ServiceName   string `json:"service_name"`
	Date          string `json:"appointment_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
}
