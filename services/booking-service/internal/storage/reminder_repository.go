package storage

import (
	"context"
	"fmt"

	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/services/booking-service/internal/model"
)

type ReminderRepository struct {
	q db.Querier
}

func NewReminderRepository(q db.Querier) *ReminderRepository {
	return &ReminderRepository{q: q}
}

func (r *ReminderRepository) Insert(ctx context.Context, t model.ReminderTask) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO reminder_tasks
			(id, appointment_id, line_user_id, reminder_date, reminder_time,
			 scheduled_date, scheduled_time, service_name, sent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, false)
	`, t.ID, t.AppointmentID, t.LineUserID, t.ReminderDate, t.ReminderTime,
		t.ScheduledDate, t.ScheduledTime, t.ServiceName)
	if err != nil {
		return fmt.Errorf("insert reminder task: %w", mapErr(err))
	}
	return nil
}
