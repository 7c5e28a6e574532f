package model

import "time"

const ChannelWhatsApp = "whatsapp"

// Outbox states. A message moves pending → sending → sent | failed and
// never goes back to pending.
const (
	MessagePending = "pending"
	MessageSending = "sending"
	MessageSent    = "sent"
	MessageFailed  = "failed"
)

// ScheduledMessage is an outbound customer message waiting in the outbox
// until SendAt. The dispatcher claims it (sending) before delivery and
// then records sent or failed.
type ScheduledMessage struct {
	ID         string     `json:"id"`
	IdeaID     string     `json:"ideaId"`
	CustomerID string     `json:"customerId"`
	Channel    string     `json:"channel"`
	Recipient  string     `json:"recipient"`
	Body       string     `json:"body"`
	SendAt     time.Time  `json:"sendAt"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	SentAt     *time.Time `json:"sentAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}
