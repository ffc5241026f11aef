package line

import (
	"encoding/json"
	"fmt"
)

// WebhookBody is the envelope LINE posts to the webhook URL.
type WebhookBody struct {
	Destination string  `json:"destination"`
	Events      []Event `json:"events"`
}

type Event struct {
	Type       string    `json:"type"`
	ReplyToken string    `json:"replyToken"`
	Timestamp  int64     `json:"timestamp"`
	Source     Source    `json:"source"`
	Postback   *Postback `json:"postback,omitempty"`
}

type Source struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

type Postback struct {
	Data string `json:"data"`
}

func ParseWebhook(body []byte) (WebhookBody, error) {
	var wb WebhookBody
	if err := json.Unmarshal(body, &wb); err != nil {
		return WebhookBody{}, fmt.Errorf("decode webhook body: %w", err)
	}
	return wb, nil
}
