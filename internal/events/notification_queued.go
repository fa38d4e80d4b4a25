package events

import "time"

const NotificationQueuedTopic = "hr.leave.notifications.v1"

// Kind nilai-nilai template pesan keluar.
const (
	NotificationKindSubmitted  = "submitted"
	NotificationKindApproved   = "approved"
	NotificationKindRejected   = "rejected"
	NotificationKindWithdrawn  = "withdrawn"
	NotificationKindReverted   = "reverted"
	NotificationKindSynced     = "synced"
	NotificationKindSyncFailed = "sync_failed"
)

type NotificationQueuedEvent struct {
	EventType      string    `json:"event_type"`
	RequestID      string    `json:"request_id"`
	RequestNumber  string    `json:"request_number"`
	Kind           string    `json:"kind"`
	RecipientID    string    `json:"recipient_id"`
	RecipientPhone string    `json:"recipient_phone"`
	Body           string    `json:"body"`
	OccurredAt     time.Time `json:"occurred_at"`
}
