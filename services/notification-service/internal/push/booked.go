package push

import (
	"context"
	"encoding/json"

	"github.com/hanguang-studio/salonbook/libs/events"
	"github.com/hanguang-studio/salonbook/libs/line"
	"github.com/segmentio/kafka-go"
)

// HandleBooked consumes booking.appointment.booked.v1. Malformed or recipient-less
// events are dropped; push failures are not retried.
func (s *Sender) HandleBooked(ctx context.Context, msg kafka.Message) error {
	var e events.AppointmentBooked
	if err := json.Unmarshal(msg.Value, &e); err != nil {
		s.logger.Error("invalid booked event payload", "err", err)
		return nil
	}
	if e.LineUserID == "" || e.AppointmentID == "" {
		s.logger.Warn("booked event without recipient", "appointment_id", e.AppointmentID)
		return nil
	}
	_ = s.SendBookingConfirmation(ctx, Booking{
		AppointmentID: e.AppointmentID,
		UserID:        e.LineUserID,
		Details: line.BookingDetails{
			CustomerName: e.CustomerName,
			Date:         e.Date,
			Time:         e.StartTime,
			ServiceName:  e.ServiceName,
		},
	})
	return nil
}
