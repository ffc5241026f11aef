package outbox

import (
	"context"

	"github.com/hanguang-studio/salonbook/libs/db"
	"github.com/hanguang-studio/salonbook/libs/events"
)

// Notifier queues booking notifications as outbox events for the relay.
type Notifier struct {
	q    db.Querier
	repo *Repository
}

func NewNotifier(q db.Querier, repo *Repository) *Notifier {
	return &Notifier{q: q, repo: repo}
}

func (n *Notifier) NotifyBooked(ctx context.Context, e events.AppointmentBooked) error {
	_, err := n.repo.Insert(ctx, n.q, Event{
		AggregateType: "appointment",
		AggregateID:   e.AppointmentID,
		EventType:     events.TopicAppointmentBooked,
		Payload:       e,
	})
	return err
}
