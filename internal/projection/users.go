// Package projection turns raw backend records into display rows.
// Every function here is pure and leaves its input untouched.
package projection

import "github.com/fathima-sithara/snip/internal/domain"

// Placeholder replaces a missing name or email.
const Placeholder = "Unknown"

type UserRow struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// Users drops the caller and records without an id, keeping store order.
func Users(me string, profiles []domain.UserProfile) []UserRow {
	rows := make([]UserRow, 0, len(profiles))
	for _, p := range profiles {
		if p.UserID == "" || p.UserID == me {
			continue
		}
		rows = append(rows, UserRow{
			UserID: p.UserID,
			Name:   orPlaceholder(p.Name),
			Email:  orPlaceholder(p.Email),
		})
	}
	return rows
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
