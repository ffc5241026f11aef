package storage

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
)

// Appointment is the slice of an appointment row the LINE flows need.
type Appointment struct {
	ID          string
	Status      string
	Date        string
	StartTime   string
	ServiceName string
}

type AppointmentRepository struct {
	q db.Querier
}

func NewAppointmentRepository(q db.Querier) *AppointmentRepository {
	return &AppointmentRepository{q: q}
}

func (r *AppointmentRepository) Get(ctx context.Context, id string) (Appointment, error) {
	if !db.IsUUID(id) {
		return Appointment{}, ErrNotFound
	}
	var a Appointment
	err := r.q.QueryRow(ctx, `
		SELECT a.id::text, a.status, a.appointment_date::text, to_char(a.start_time, 'HH24:MI'), COALESCE(s.name, '')
		FROM appointments a
		LEFT JOIN services s ON s.id = a.service_id
		WHERE a.id = $1
	`, id).Scan(&a.ID, &a.Status, &a.Date, &a.StartTime, &a.ServiceName)
	if err != nil {
		if db.IsNotFound(err) {
			return Appointment{}, ErrNotFound
		}
		return Appointment{}, fmt.Errorf("get appointment %s: %w", id, err)
	}
	return a, nil
}

func (r *AppointmentRepository) UpdateStatus(ctx context.Context, id, status string) error {
	if !db.IsUUID(id) {
		return ErrNotFound
	}
	tag, err := r.q.Exec(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update appointment %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
