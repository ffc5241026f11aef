package storage

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
)

type ReminderRepository struct {
	q db.Querier
}

func NewReminderRepository(q db.Querier) *ReminderRepository {
	return &ReminderRepository{q: q}
}

// Recipient returns the LINE user id recorded on the appointment's reminder task.
// found is false when the appointment has no reminder task.
func (r *ReminderRepository) Recipient(ctx context.Context, appointmentID string) (userID string, found bool, err error) {
	if !db.IsUUID(appointmentID) {
		return "", false, nil
	}
	err = r.q.QueryRow(ctx, `
		SELECT line_user_id
		FROM reminder_tasks
		WHERE appointment_id = $1
		ORDER BY reminder_date
		LIMIT 1
	`, appointmentID).Scan(&userID)
	if err != nil {
		if db.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("reminder recipient for %s: %w", appointmentID, err)
	}
	return userID, true, nil
}

// MarkSentForAppointment retires every pending reminder of the appointment.
func (r *ReminderRepository) MarkSentForAppointment(ctx context.Context, appointmentID string) error {
	if !db.IsUUID(appointmentID) {
		return nil
	}
	_, err := r.q.Exec(ctx, `
		UPDATE reminder_tasks
		SET sent = true, sent_at = now()
		WHERE appointment_id = $1 AND sent = false
	`, appointmentID)
	return err
}
