package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

func newInput(placeholder string, limit int, secret bool) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = limit
	in.Width = 32
	if secret {
		in.EchoMode = textinput.EchoPassword
	}
	return in
}

// form is a column of inputs with one focused at a time.
type form struct {
	inputs  []textinput.Model
	focused int
}

func newForm(inputs ...textinput.Model) form {
	f := form{inputs: inputs}
	f.focus(0)
	return f
}

func (f *form) focus(i int) {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}
	f.focused = (i + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focused].Focus()
}

func (f *form) next() { f.focus(f.focused + 1) }
func (f *form) prev() { f.focus(f.focused - 1) }

func (f *form) value(i int) string { return f.inputs[i].Value() }

func (f *form) reset() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
	f.focus(0)
}

func (f *form) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)
	return cmd
}

func (f form) view() string {
	lines := make([]string, 0, len(f.inputs))
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	return strings.Join(lines, "\n")
}
