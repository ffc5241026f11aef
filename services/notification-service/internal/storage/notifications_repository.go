package storage

import (
	"context"
	"encoding/json"

	"github.com/hanguang-studio/salonbook/libs/db"
)

// Notification is one outbound LINE message, kept for support lookups.
type Notification struct {
	AppointmentID string
	Kind          string
	Recipient     string
	Payload       map[string]any
	Status        string
	Error         string
}

type NotificationRepository struct {
	q db.Querier
}

func NewNotificationRepository(q db.Querier) *NotificationRepository {
	return &NotificationRepository{q: q}
}

func (r *NotificationRepository) Insert(ctx context.Context, n Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return err
	}

	_, err = r.q.Exec(ctx, `
		INSERT INTO line_notifications (appointment_id, kind, recipient, payload, status, error)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5, NULLIF($6, ''))
	`, n.AppointmentID, n.Kind, n.Recipient, payload, n.Status, n.Error)
	return err
}
