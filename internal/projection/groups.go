package projection

import (
	"sort"
	"time"

	"github.com/fathima-sithara/snip/internal/domain"
)

const (
	NoMessagesPreview = "No messages yet"
	GroupTimeLayout   = "Jan 02, 15:04"
)

type GroupRow struct {
	GroupID     string `json:"group_id"`
	Name        string `json:"name"`
	Preview     string `json:"preview"`
	DisplayTime int64  `json:"display_time"`
	TimeLabel   string `json:"time_label"`
	MemberCount int    `json:"member_count"`
}

// Groups orders by last message time, newest first. Equal times keep the
// order the store returned them in.
func Groups(groups []domain.Group, loc *time.Location) []GroupRow {
	sorted := make([]domain.Group, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastMessageTime > sorted[j].LastMessageTime
	})

	rows := make([]GroupRow, 0, len(sorted))
	for _, g := range sorted {
		shown := g.LastMessageTime
		if shown <= 0 {
			shown = g.CreatedAt
		}
		preview := g.LastMessage
		if preview == "" {
			preview = NoMessagesPreview
		}
		rows = append(rows, GroupRow{
			GroupID:     g.GroupID,
			Name:        g.Name,
			Preview:     preview,
			DisplayTime: shown,
			TimeLabel:   FormatMillis(shown, GroupTimeLayout, loc),
			MemberCount: len(g.Members),
		})
	}
	return rows
}
