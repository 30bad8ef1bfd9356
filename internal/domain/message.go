package domain

// DirectMessage is one entry of a two-party chat room. Records are
// append-only; ID is the position assigned by the channel on append.
type DirectMessage struct {
	ID         string `json:"id,omitempty"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}
