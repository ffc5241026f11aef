package line

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "2026年3月5日", FormatDate("2026-03-05"))
	assert.Equal(t, "2026年12月25日", FormatDate("2026-12-25"))
	assert.Equal(t, "tomorrow", FormatDate("tomorrow"))
}

func TestPostbackDataRoundTrip(t *testing.T) {
	data := PostbackData(ActionConfirm, "5b7a")
	assert.Equal(t, "action=confirm&appointment_id=5b7a", data)

	action, id := ParsePostback(data)
	assert.Equal(t, ActionConfirm, action)
	assert.Equal(t, "5b7a", id)

	action, id = ParsePostback("action=cancel")
	assert.Equal(t, ActionCancel, action)
	assert.Empty(t, id)
}

func TestReminderButtons(t *testing.T) {
	msg := ReminderButtons(ReminderDetails{
		AppointmentID: "appt-7",
		Date:          "2026-03-05",
		Time:          "14:30",
		ServiceName:   "臉部保養",
	})
	assert.Equal(t, "template", msg.Type)
	assert.Equal(t, "預約提醒", msg.AltText)
	require.NotNil(t, msg.Template)
	assert.Equal(t, "buttons", msg.Template.Type)
	assert.Contains(t, msg.Template.Text, "📅 日期：2026年3月5日")
	assert.Contains(t, msg.Template.Text, "明天 14:30 有預約「臉部保養」")
	require.Len(t, msg.Template.Actions, 2)
	assert.Equal(t, "確認預約", msg.Template.Actions[0].Label)
	assert.Equal(t, "action=confirm&appointment_id=appt-7", msg.Template.Actions[0].Data)
	assert.Equal(t, "action=cancel&appointment_id=appt-7", msg.Template.Actions[1].Data)
}

func TestBookingConfirmationDefaultsName(t *testing.T) {
	msg := BookingConfirmation(BookingDetails{Date: "2026-03-05", Time: "10:00", ServiceName: "美甲"})
	assert.Equal(t, "text", msg.Type)
	assert.Contains(t, msg.Text, "親愛的客戶，您好！")
	assert.Contains(t, msg.Text, "⏰ 時間：10:00")

	msg = BookingConfirmation(BookingDetails{CustomerName: "林小姐", Date: "2026-03-05", Time: "10:00", ServiceName: "美甲"})
	assert.Contains(t, msg.Text, "林小姐，您好！")
}
