package storage

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	apptID  = "5f2d8c1a-0b7e-4c39-a6d4-8e1f0c2b9a77"
	otherID = "c41e7a90-2d6b-4f8a-b153-9e0a7d6c2f18"
	goneID  = "0e9b3d27-6c14-4a58-8f20-b7d1e4a6c395"
)

func TestAppointmentGetAndUpdate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewAppointmentRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery(`SELECT a.id::text, a.status .+ WHERE a.id = \$1`).
		WithArgs(apptID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "status", "date", "start", "service"}).
			AddRow(apptID, "pending", "2026-03-05", "10:00", "剪髮"))
	a, err := repo.Get(ctx, apptID)
	require.NoError(t, err)
	assert.Equal(t, Appointment{ID: apptID, Status: "pending", Date: "2026-03-05", StartTime: "10:00", ServiceName: "剪髮"}, a)

	mock.ExpectQuery(`SELECT a.id::text, a.status .+ WHERE a.id = \$1`).
		WithArgs(otherID).
		WillReturnError(pgx.ErrNoRows)
	_, err = repo.Get(ctx, otherID)
	assert.ErrorIs(t, err, ErrNotFound)

	mock.ExpectExec("UPDATE appointments").
		WithArgs(apptID, "confirmed").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.UpdateStatus(ctx, apptID, "confirmed"))

	mock.ExpectExec("UPDATE appointments").
		WithArgs(goneID, "cancelled").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	assert.ErrorIs(t, repo.UpdateStatus(ctx, goneID, "cancelled"), ErrNotFound)

	_, err = repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.UpdateStatus(ctx, "not-a-uuid", "cancelled"), ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReminderRecipient(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	repo := NewReminderRepository(mock)
	ctx := context.Background()

	mock.ExpectQuery("SELECT line_user_id").
		WithArgs(apptID).
		WillReturnRows(pgxmock.NewRows([]string{"line_user_id"}).AddRow("U1"))
	u, found, err := repo.Recipient(ctx, apptID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "U1", u)

	mock.ExpectQuery("SELECT line_user_id").
		WithArgs(otherID).
		WillReturnError(pgx.ErrNoRows)
	_, found, err = repo.Recipient(ctx, otherID)
	require.NoError(t, err)
	assert.False(t, found)

	mock.ExpectExec("UPDATE reminder_tasks").
		WithArgs(apptID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, repo.MarkSentForAppointment(ctx, apptID))

	_, found, err = repo.Recipient(ctx, "not-a-uuid")
	require.NoError(t, err)
	assert.False(t, found)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO line_notifications").
		WithArgs(apptID, "booking_confirmation", "U1", []byte(`{"service_name":"剪髮"}`), "sent", "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	err = NewNotificationRepository(mock).Insert(context.Background(), Notification{
		AppointmentID: apptID,
		Kind:          "booking_confirmation",
		Recipient:     "U1",
		Payload:       map[string]any{"service_name": "剪髮"},
		Status:        "sent",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
