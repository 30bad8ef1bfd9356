package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/projection"
)

type userList struct {
	rows    []projection.UserRow
	cursor  int
	loading bool
}

func (l *userList) set(rows []projection.UserRow) {
	l.rows = rows
	if l.cursor >= len(rows) {
		l.cursor = max(len(rows)-1, 0)
	}
}

func (l *userList) move(d int) {
	if len(l.rows) == 0 {
		return
	}
	l.cursor = min(max(l.cursor+d, 0), len(l.rows)-1)
}

func (l userList) selected() (projection.UserRow, bool) {
	if l.cursor < 0 || l.cursor >= len(l.rows) {
		return projection.UserRow{}, false
	}
	return l.rows[l.cursor], true
}

func (m Model) updateUsers(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.users.move(-1)
	case "down", "j":
		m.users.move(1)
	case "enter", "l", "right":
		if row, ok := m.users.selected(); ok {
			return m.openChat(row)
		}
	case "g":
		return m.openGroups()
	case "r":
		m.users.loading = true
		return m, loadUsers(m.app, m.me)
	case "L":
		m.closeSubscriptions()
		return m, signOut(m.gate)
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) openChat(row projection.UserRow) (tea.Model, tea.Cmd) {
	c, err := m.app.OpenChat(context.Background(), m.me, row.UserID)
	if err != nil {
		m.setError(err)
		return m, nil
	}
	m.clearNotice()
	m.chat.open(c, row.Name)
	m.screen = screenChat
	return m, tea.Batch(waitForChat(c), recipientName(m.app, c))
}

func (m Model) viewUsers() string {
	var b strings.Builder
	who := m.me
	if m.profile != nil {
		who = m.profile.Name
	}
	b.WriteString(headerStyle.Render("Chats") + "  " + mutedStyle.Render("signed in as "+who) + "\n\n")

	switch {
	case m.users.loading && len(m.users.rows) == 0:
		b.WriteString(mutedStyle.Render("Loading users..."))
	case len(m.users.rows) == 0:
		b.WriteString(mutedStyle.Render("No other users yet"))
	default:
		for i, row := range m.users.rows {
			line := fmt.Sprintf("%s  %s", row.Name, mutedStyle.Render(row.Email))
			if i == m.users.cursor {
				b.WriteString(selectedItemStyle.Render(line))
			} else {
				b.WriteString(unselectedItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n" + mutedStyle.Render("enter chat · g groups · r refresh · L sign out · q quit"))
	return b.String()
}
