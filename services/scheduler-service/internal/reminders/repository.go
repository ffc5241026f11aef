package reminders

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
)

// SendTime is the reminder_time every task is written with.
const SendTime = "12:00:00"

// Task is an unsent day-before reminder.
type Task struct {
	ID            string
	AppointmentID string
	LineUserID    string
	ScheduledDate string
	ScheduledTime string
	ServiceName   string
}

type Repository struct {
	q db.Querier
}

func NewRepository(q db.Querier) *Repository {
	return &Repository{q: q}
}

// Due lists the unsent tasks whose reminder falls on date.
func (r *Repository) Due(ctx context.Context, date string) ([]Task, error) {
	rows, err := r.q.Query(ctx, `
		SELECT id::text, appointment_id::text, line_user_id, scheduled_date::text,
		       to_char(scheduled_time, 'HH24:MI'), service_name
		FROM reminder_tasks
		WHERE reminder_date = $1 AND reminder_time = $2 AND sent = false
		ORDER BY scheduled_time, id
	`, date, SendTime)
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.AppointmentID, &t.LineUserID, &t.ScheduledDate, &t.ScheduledTime, &t.ServiceName); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// AppointmentStatus returns the status of the appointment, or found=false when it is gone.
func (r *Repository) AppointmentStatus(ctx context.Context, appointmentID string) (status string, found bool, err error) {
	if !db.IsUUID(appointmentID) {
		return "", false, nil
	}
	err = r.q.QueryRow(ctx, `
		SELECT status FROM appointments WHERE id = $1
	`, appointmentID).Scan(&status)
	if err != nil {
		if db.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("appointment status %s: %w", appointmentID, err)
	}
	return status, true, nil
}

func (r *Repository) MarkSent(ctx context.Context, taskID string) error {
	_, err := r.q.Exec(ctx, `
		UPDATE reminder_tasks
		SET sent = true, sent_at = now()
		WHERE id = $1
	`, taskID)
	return err
}
