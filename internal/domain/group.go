package domain

type Group struct {
	GroupID         string   `bson:"_id,omitempty" json:"group_id"`
	Name            string   `bson:"name" json:"name"`
	CreatedBy       string   `bson:"created_by" json:"created_by"`
	CreatedAt       int64    `bson:"created_at" json:"created_at"`
	Members         []string `bson:"members" json:"members"`
	LastMessage     string   `bson:"last_message" json:"last_message"`
	LastMessageTime int64    `bson:"last_message_time" json:"last_message_time"`
}

// HasMember reports whether id is listed in g.Members.
func (g Group) HasMember(id string) bool {
	for _, m := range g.Members {
		if m == id {
			return true
		}
	}
	return false
}
