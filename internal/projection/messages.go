package projection

import (
	"time"

	"github.com/fathima-sithara/snip/internal/domain"
)

const MessageTimeLayout = "15:04"

type Direction string

const (
	Sent     Direction = "sent"
	Received Direction = "received"
)

type MessageRow struct {
	ID        string    `json:"id,omitempty"`
	Direction Direction `json:"direction"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	Timestamp int64     `json:"timestamp"`
	TimeLabel string    `json:"time_label"`
}

// Message tags m as Sent when me wrote it and Received otherwise.
func Message(me string, m domain.DirectMessage, loc *time.Location) MessageRow {
	dir := Received
	if m.SenderID == me {
		dir = Sent
	}
	return MessageRow{
		ID:        m.ID,
		Direction: dir,
		SenderID:  m.SenderID,
		Text:      m.Text,
		Timestamp: m.Timestamp,
		TimeLabel: FormatMillis(m.Timestamp, MessageTimeLayout, loc),
	}
}

// FormatMillis renders epoch milliseconds with layout in loc (UTC when nil).
func FormatMillis(ms int64, layout string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.UnixMilli(ms).In(loc).Format(layout)
}
