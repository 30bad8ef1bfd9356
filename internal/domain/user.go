package domain

// UserProfile is the public record kept for every registered user.
// JoinedAt is milliseconds since epoch.
type UserProfile struct {
	UserID   string `bson:"_id" json:"user_id"`
	Name     string `bson:"name" json:"name"`
	Email    string `bson:"email" json:"email"`
	JoinedAt int64  `bson:"joined_at" json:"joined_at"`
}
