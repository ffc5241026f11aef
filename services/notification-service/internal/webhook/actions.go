package webhook

import "github.com/hanguang-studio/salonbook/libs/line"

// Appointment status values as stored by booking-service.
const (
	statusPending   = "pending"
	statusConfirmed = "confirmed"
	statusCancelled = "cancelled"
)

// Reply texts sent back to the customer.
const (
	ReplyNotFound          = "找不到預約記錄，請聯繫客服。"
	ReplyPermissionDenied  = "您沒有權限操作此預約。"
	ReplyCannotConfirm     = "此預約無法確認（可能已確認或已取消）。"
	ReplyConfirmFailed     = "確認預約失敗，請稍後再試。"
	ReplyConfirmed         = "✅ 預約已確認！\n\n我們期待明天為您服務！\n如有任何問題，歡迎隨時聯繫我們。"
	ReplyAlreadyCancelled  = "此預約已經取消。"
	ReplyConfirmedNoCancel = "此預約已確認，無法取消。如需取消，請聯繫客服。"
	ReplyCannotCancel      = "此預約無法取消，請聯繫客服。"
	ReplyCancelFailed      = "取消預約失敗，請稍後再試。"
	ReplyCancelled         = "❌ 預約已取消\n\n您的預約時段已釋出，其他人可以預約。\n如需重新預約，歡迎再次使用預約系統。"
)

// Transition is the outcome of applying an action to an appointment status.
// When Allowed is false Next is empty and Reply explains the rejection.
type Transition struct {
	Allowed bool
	Next    string
	Reply   string
	// FailReply is sent instead of Reply when persisting Next fails.
	FailReply string
}

// Decide applies the confirm/cancel table. Only pending appointments move.
func Decide(action, status string) Transition {
	switch action {
	case line.ActionConfirm:
		if status != statusPending {
			return Transition{Reply: ReplyCannotConfirm}
		}
		return Transition{Allowed: true, Next: statusConfirmed, Reply: ReplyConfirmed, FailReply: FailReply(line.ActionConfirm)}
	case line.ActionCancel:
		switch status {
		case statusPending:
			return Transition{Allowed: true, Next: statusCancelled, Reply: ReplyCancelled, FailReply: FailReply(line.ActionCancel)}
		case statusCancelled:
			return Transition{Reply: ReplyAlreadyCancelled}
		case statusConfirmed:
			return Transition{Reply: ReplyConfirmedNoCancel}
		default:
			return Transition{Reply: ReplyCannotCancel}
		}
	}
	return Transition{}
}

// FailReply is the try-again text for an action that could not be carried out.
func FailReply(action string) string {
	if action == line.ActionCancel {
		return ReplyCancelFailed
	}
	return ReplyConfirmFailed
}
