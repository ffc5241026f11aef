package line

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Message is a Messaging API message object. Only the text and buttons-template
// shapes are produced here.
type Message struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	AltText  string    `json:"altText,omitempty"`
	Template *Template `json:"template,omitempty"`
}

type Template struct {
	Type    string   `json:"type"`
	Text    string   `json:"text"`
	Actions []Action `json:"actions"`
}

type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Data  string `json:"data"`
}

const (
	ActionConfirm = "confirm"
	ActionCancel  = "cancel"
)

func Text(s string) Message {
	return Message{Type: "text", Text: s}
}

// BookingDetails describes a freshly created appointment.
type BookingDetails struct {
	CustomerName string
	Date         string // YYYY-MM-DD
	Time         string // HH:MM
	ServiceName  string
}

func BookingConfirmation(d BookingDetails) Message {
	name := strings.TrimSpace(d.CustomerName)
	if name == "" {
		name = "親愛的客戶"
	}
	return Text(fmt.Sprintf("🎉 預約成功通知\n\n%s，您好！\n\n您的預約已成功建立：\n\n📅 日期：%s\n⏰ 時間：%s\n💆 服務：%s\n\n我們期待為您服務！\n如有任何問題，歡迎隨時聯繫我們。",
		name, FormatDate(d.Date), d.Time, d.ServiceName))
}

// ReminderDetails feeds the day-before reminder with confirm and cancel buttons.
type ReminderDetails struct {
	AppointmentID string
	Date          string
	Time          string
	ServiceName   string
}

func ReminderButtons(d ReminderDetails) Message {
	text := fmt.Sprintf("🔔 預約提醒\n\n提醒您：明天 %s 有預約「%s」\n\n📅 日期：%s\n⏰ 時間：%s\n💆 服務：%s",
		d.Time, d.ServiceName, FormatDate(d.Date), d.Time, d.ServiceName)
	return Message{
		Type:    "template",
		AltText: "預約提醒",
		Template: &Template{
			Type: "buttons",
			Text: text,
			Actions: []Action{
				{Type: "postback", Label: "確認預約", Data: PostbackData(ActionConfirm, d.AppointmentID)},
				{Type: "postback", Label: "取消預約", Data: PostbackData(ActionCancel, d.AppointmentID)},
			},
		},
	}
}

// FormatDate renders YYYY-MM-DD as 2026年3月5日. Unparseable input is returned unchanged.
func FormatDate(date string) string {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(date))
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

func PostbackData(action, appointmentID string) string {
	return url.Values{
		"action":         {action},
		"appointment_id": {appointmentID},
	}.Encode()
}

// ParsePostback extracts action and appointment_id from a postback data string.
func ParsePostback(data string) (action, appointmentID string) {
	values, err := url.ParseQuery(data)
	if err != nil {
		return "", ""
	}
	return values.Get("action"), values.Get("appointment_id")
}
