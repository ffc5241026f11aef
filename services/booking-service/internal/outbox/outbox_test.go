package outbox

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/hanguang-studio/salonbook/libs/events"
	"github.com/hanguang-studio/salonbook/libs/kafkax"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

var recordCols = []string{"id", "event_id", "aggregate_id", "event_type", "payload", "traceparent", "tracestate", "created_at"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPublishBatchWritesAndMarks(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(50).
		WillReturnRows(pgxmock.NewRows(recordCols).
			AddRow(int64(1), "evt-1", "appt-1", events.TopicAppointmentBooked, []byte(`{"appointment_id":"appt-1"}`), "", "", now).
			AddRow(int64(2), "evt-2", "appt-2", events.TopicAppointmentBooked, []byte(`{"appointment_id":"appt-2"}`), "", "", now))
	mock.ExpectExec("UPDATE outbox_events").
		WithArgs([]int64{1, 2}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	w := &fakeWriter{}
	p := NewPublisher(mock, NewRepository(), w, discardLogger(), PublisherConfig{})
	n, err := p.PublishBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.msgs, 2)
	assert.Equal(t, events.TopicAppointmentBooked, w.msgs[0].Topic)
	assert.Equal(t, "appt-1", string(w.msgs[0].Key))
	assert.Equal(t, "evt-2", kafkax.HeaderValue(w.msgs[1].Headers, kafkax.HeaderEventID))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPublishBatchKafkaFailureLeavesRowsPending(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").
		WithArgs(10).
		WillReturnRows(pgxmock.NewRows(recordCols).
			AddRow(int64(7), "evt-7", "appt-7", events.TopicAppointmentBooked, []byte(`{}`), "", "", time.Now()))
	mock.ExpectRollback()

	p := NewPublisher(mock, NewRepository(), &fakeWriter{err: errors.New("broker down")}, discardLogger(), PublisherConfig{BatchSize: 10})
	_, err = p.PublishBatch(context.Background())
	require.EqualError(t, err, "broker down")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNotifierInsertsOutboxEvent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO outbox_events").
		WithArgs(pgxmock.AnyArg(), "appointment", "appt-1", events.TopicAppointmentBooked, pgxmock.AnyArg(), "", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	n := NewNotifier(mock, NewRepository())
	err = n.NotifyBooked(context.Background(), events.AppointmentBooked{AppointmentID: "appt-1", ServiceName: "美甲"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
