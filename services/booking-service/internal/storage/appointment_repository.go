package storage

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
)

type AppointmentRepository struct {
	q db.Querier
}

func NewAppointmentRepository(q db.Querier) *AppointmentRepository {
	return &AppointmentRepository{q: q}
}

const appointmentColumns = `a.id::text, a.customer_phone, a.service_id::text, COALESCE(s.name, ''), a.appointment_date::text,
	to_char(a.start_time, 'HH24:MI'), to_char(a.end_time, 'HH24:MI'), a.status, COALESCE(s.duration_minutes, 0)`

// ListByDate returns the day's pending, confirmed and cancelled appointments joined with
// their service duration. Cancelled rows are returned so callers decide how to treat them.
func (r *AppointmentRepository) ListByDate(ctx context.Context, date string) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.appointment_date = $1
			AND a.status IN ('pending', 'confirmed', 'cancelled')
		ORDER BY a.start_time ASC
	`, date)
}

// ListUpcoming returns a customer's pending and confirmed appointments on or after fromDate.
func (r *AppointmentRepository) ListUpcoming(ctx context.Context, phone, fromDate string) ([]model.Appointment, error) {
	return r.list(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.customer_phone = $1
			AND a.status IN ('pending', 'confirmed')
			AND a.appointment_date >= $2
		ORDER BY a.appointment_date ASC, a.start_time ASC
	`, phone, fromDate)
}

func (r *AppointmentRepository) list(ctx context.Context, sql string, args ...any) ([]model.Appointment, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []model.Appointment
	for rows.Next() {
		var a model.Appointment
		if err := rows.Scan(&a.ID, &a.CustomerPhone, &a.ServiceID, &a.ServiceName, &a.Date,
			&a.StartTime, &a.EndTime, &a.Status, &a.DurationMinutes); err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Create inserts a with the id already assigned by the caller.
func (r *AppointmentRepository) Create(ctx context.Context, a model.Appointment) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO appointments
			(id, customer_phone, service_id, appointment_date, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, a.ID, a.CustomerPhone, a.ServiceID, a.Date, a.StartTime, a.EndTime, a.Status)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", mapErr(err))
	}
	return nil
}
