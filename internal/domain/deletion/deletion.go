package deletion

import "time"

// ScheduledDeletion is a durable reminder to retract a sent message once DeleteAt passes.
type ScheduledDeletion struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatId"`
	MessageID int64     `json:"messageId"`
	DeleteAt  time.Time `json:"deleteAt"`
}

// NewScheduledDeletion schedules retraction at sentAt plus ttl.
func NewScheduledDeletion(chatID, messageID int64, sentAt time.Time, ttl time.Duration) *ScheduledDeletion {
	return &ScheduledDeletion{
		ChatID:    chatID,
		MessageID: messageID,
		DeleteAt:  sentAt.Add(ttl).UTC(),
	}
}

// IsDue reports whether the deletion should be attempted at now.
func (d *ScheduledDeletion) IsDue(now time.Time) bool {
	return !d.DeleteAt.After(now)
}
