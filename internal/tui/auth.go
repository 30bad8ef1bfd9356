package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/app"
)

const (
	loginEmail = iota
	loginPassword
)

const (
	signupName = iota
	signupEmail
	signupPassword
	signupConfirm
)

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.login.next()
		return m, nil
	case "shift+tab", "up":
		m.login.prev()
		return m, nil
	case "ctrl+n":
		m.clearNotice()
		m.signup.reset()
		m.screen = screenSignup
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.clearNotice()
		return m, signIn(m.app, m.login.value(loginEmail), m.login.value(loginPassword))
	}
	return m, m.login.update(msg)
}

func (m Model) updateSignup(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "tab", "down":
		m.signup.next()
		return m, nil
	case "shift+tab", "up":
		m.signup.prev()
		return m, nil
	case "esc":
		m.clearNotice()
		m.login.reset()
		m.screen = screenLogin
		return m, nil
	case "enter":
		if m.busy {
			return m, nil
		}
		m.busy = true
		m.clearNotice()
		return m, signUp(m.app, app.SignupForm{
			Name:            m.signup.value(signupName),
			Email:           m.signup.value(signupEmail),
			Password:        m.signup.value(signupPassword),
			ConfirmPassword: m.signup.value(signupConfirm),
		})
	}
	return m, m.signup.update(msg)
}

func (m Model) viewLogin() string {
	status := "Sign in to continue"
	if m.busy {
		status = "Signing in..."
	}
	return boxStyle.Render(
		titleStyle.Render("snip") + "\n" +
			mutedStyle.Render(status) + "\n\n" +
			m.login.view() + "\n\n" +
			mutedStyle.Render("enter sign in · tab next field · ctrl+n create account · ctrl+c quit"),
	)
}

func (m Model) viewSignup() string {
	status := "Create an account"
	if m.busy {
		status = "Creating account..."
	}
	return boxStyle.Render(
		titleStyle.Render("snip") + "\n" +
			mutedStyle.Render(status) + "\n\n" +
			m.signup.view() + "\n\n" +
			mutedStyle.Render("enter sign up · tab next field · esc back to login"),
	)
}
