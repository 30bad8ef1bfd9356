package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/projection"
)

type chatView struct {
	chat  *app.Chat
	title string
	rows  []projection.MessageRow
	input textinput.Model
	vp    viewport.Model
}

func newChatView() chatView {
	in := newInput("Type a message...", 1000, false)
	in.Width = 50
	return chatView{input: in, vp: viewport.New(80, 20)}
}

func (v *chatView) open(c *app.Chat, title string) {
	v.close()
	v.chat = c
	v.title = title
	v.rows = nil
	v.input.SetValue("")
	v.input.Focus()
	v.refresh()
}

// close cancels the room subscription. Safe to call when nothing is open.
func (v *chatView) close() {
	if v.chat != nil {
		v.chat.Close()
		v.chat = nil
	}
	v.input.Blur()
}

func (v *chatView) resize(width, height int) {
	v.vp.Width = max(width-4, 20)
	v.vp.Height = max(height-8, 3)
	v.input.Width = max(width-6, 10)
	v.refresh()
}

func (v *chatView) append(row projection.MessageRow) {
	v.rows = append(v.rows, row)
	v.refresh()
}

func (v *chatView) refresh() {
	lines := make([]string, 0, len(v.rows))
	for _, r := range v.rows {
		who := receivedStyle.Render(v.title)
		if r.Direction == projection.Sent {
			who = sentStyle.Render("You")
		}
		lines = append(lines, mutedStyle.Render(r.TimeLabel)+" "+who+": "+r.Text)
	}
	v.vp.SetContent(strings.Join(lines, "\n"))
	v.vp.GotoBottom()
}

func (m Model) updateChat(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.chat.close()
		m.clearNotice()
		m.screen = screenUsers
		return m, nil
	case "enter":
		text := m.chat.input.Value()
		m.chat.input.SetValue("")
		if strings.TrimSpace(text) == "" || m.chat.chat == nil {
			return m, nil
		}
		return m, send(m.chat.chat, text)
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.chat.vp, cmd = m.chat.vp.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.chat.input, cmd = m.chat.input.Update(msg)
	return m, cmd
}

func (m Model) viewChat() string {
	body := m.chat.vp.View()
	if len(m.chat.rows) == 0 {
		body = mutedStyle.Render("No messages yet. Say hi!")
	}
	return headerStyle.Render(m.chat.title) + "\n" +
		body + "\n\n" +
		m.chat.input.View() + "\n" +
		mutedStyle.Render("enter send · pgup/pgdown scroll · esc back")
}
