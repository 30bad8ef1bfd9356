package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/projection"
)

type groupList struct {
	feed    *app.GroupFeed
	rows    []projection.GroupRow
	cursor  int
	loading bool
}

func (l *groupList) set(rows []projection.GroupRow) {
	l.rows = rows
	if l.cursor >= len(rows) {
		l.cursor = max(len(rows)-1, 0)
	}
}

func (l *groupList) move(d int) {
	if len(l.rows) == 0 {
		return
	}
	l.cursor = min(max(l.cursor+d, 0), len(l.rows)-1)
}

func (l *groupList) close() {
	if l.feed != nil {
		l.feed.Close()
		l.feed = nil
	}
}

func (m Model) openGroups() (tea.Model, tea.Cmd) {
	m.groups.close()
	f := m.app.WatchGroups(context.Background(), m.me)
	m.groups = groupList{feed: f, loading: true}
	m.clearNotice()
	m.screen = screenGroups
	return m, waitForGroups(f)
}

func (m Model) updateGroups(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		m.groups.move(-1)
	case "down", "j":
		m.groups.move(1)
	case "n":
		m.clearNotice()
		m.create.reset(m.users.rows)
		m.screen = screenCreateGroup
		if len(m.users.rows) == 0 {
			return m, loadUsers(m.app, m.me)
		}
	case "esc":
		m.groups.close()
		m.clearNotice()
		m.screen = screenUsers
	}
	return m, nil
}

func (m Model) viewGroups() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Groups") + "\n\n")
	switch {
	case m.groups.loading:
		b.WriteString(mutedStyle.Render("Loading groups..."))
	case len(m.groups.rows) == 0:
		b.WriteString(mutedStyle.Render("No groups yet. Press n to create one."))
	default:
		for i, g := range m.groups.rows {
			line := fmt.Sprintf("%s  %s  %s\n%s",
				g.Name,
				mutedStyle.Render(g.TimeLabel),
				mutedStyle.Render(fmt.Sprintf("%d members", g.MemberCount)),
				mutedStyle.Render(g.Preview),
			)
			if i == m.groups.cursor {
				b.WriteString(selectedItemStyle.Render(line))
			} else {
				b.WriteString(unselectedItemStyle.Render(line))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("\n" + mutedStyle.Render("n new group · esc back"))
	return b.String()
}

// createForm picks a name and members for a new group.
type createForm struct {
	name       textinput.Model
	candidates []projection.UserRow
	selected   map[string]bool
	cursor     int
	onList     bool
}

func newCreateForm() createForm {
	return createForm{name: newInput("Group name", 64, false), selected: map[string]bool{}}
}

func (f *createForm) reset(users []projection.UserRow) {
	f.name.SetValue("")
	f.name.Focus()
	f.onList = false
	f.cursor = 0
	f.selected = map[string]bool{}
	f.candidates = users
}

func (f *createForm) setCandidates(users []projection.UserRow) {
	f.candidates = users
	if f.cursor >= len(users) {
		f.cursor = max(len(users)-1, 0)
	}
}

func (f *createForm) toggle() {
	if f.cursor >= len(f.candidates) {
		return
	}
	id := f.candidates[f.cursor].UserID
	f.selected[id] = !f.selected[id]
}

// members lists the selected ids in display order.
func (f createForm) members() []string {
	var out []string
	for _, u := range f.candidates {
		if f.selected[u.UserID] {
			out = append(out, u.UserID)
		}
	}
	return out
}

func (m Model) updateCreate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.clearNotice()
		m.screen = screenGroups
		return m, nil
	case "tab":
		m.create.onList = !m.create.onList
		if m.create.onList {
			m.create.name.Blur()
		} else {
			m.create.name.Focus()
		}
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.clearNotice()
		return m, createGroup(m.app, m.me, m.create.name.Value(), m.create.members())
	}

	if m.create.onList {
		switch msg.String() {
		case "up", "k":
			if m.create.cursor > 0 {
				m.create.cursor--
			}
		case "down", "j":
			if m.create.cursor < len(m.create.candidates)-1 {
				m.create.cursor++
			}
		case " ", "space", "x":
			m.create.toggle()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.create.name, cmd = m.create.name.Update(msg)
	return m, cmd
}

func (m Model) viewCreate() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("New group") + "\n\n")
	b.WriteString(m.create.name.View() + "\n\n")
	if len(m.create.candidates) == 0 {
		b.WriteString(mutedStyle.Render("Loading users..."))
	}
	for i, u := range m.create.candidates {
		mark := "[ ]"
		if m.create.selected[u.UserID] {
			mark = "[x]"
		}
		line := mark + " " + u.Name
		if m.create.onList && i == m.create.cursor {
			b.WriteString(selectedItemStyle.Render(line))
		} else {
			b.WriteString(unselectedItemStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n" + mutedStyle.Render("tab switch field · space select · enter create · esc cancel"))
	return b.String()
}
