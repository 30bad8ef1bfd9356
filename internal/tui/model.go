// Package tui is the terminal client. The Session Gate picks the first
// screen; the chat and group screens hold a live subscription that is
// cancelled when the screen is left.
package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/session"
	"go.uber.org/zap"
)

type screen int

const (
	screenLogin screen = iota
	screenSignup
	screenUsers
	screenChat
	screenGroups
	screenCreateGroup
)

type Options struct {
	App  *app.App
	Gate *session.Gate
	// Email returns the signed-in account's address. It names the profile
	// created for accounts that have none.
	Email func() string
	Log   *zap.Logger
}

type Model struct {
	app   *app.App
	gate  *session.Gate
	email func() string
	log   *zap.Logger

	screen  screen
	width   int
	height  int
	notice  string
	isError bool
	busy    bool

	me      string
	profile *domain.UserProfile

	login  form
	signup form
	users  userList
	chat   chatView
	groups groupList
	create createForm
}

func New(opts Options) Model {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Email == nil {
		opts.Email = func() string { return "" }
	}
	m := Model{
		app:    opts.App,
		gate:   opts.Gate,
		email:  opts.Email,
		log:    opts.Log,
		screen: screenLogin,
		login: newForm(
			newInput("Email", 128, false),
			newInput("Password", 64, true),
		),
		signup: newForm(
			newInput("Name", 64, false),
			newInput("Email", 128, false),
			newInput("Password", 64, true),
			newInput("Confirm password", 64, true),
		),
		chat:   newChatView(),
		create: newCreateForm(),
	}
	if m.gate.Start() == session.Authenticated {
		m.me, _ = m.gate.UserID()
		m.screen = screenUsers
		m.users.loading = true
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.screen == screenUsers {
		return tea.Batch(textinput.Blink, m.sessionStarted())
	}
	return textinput.Blink
}

// sessionStarted loads what the users screen needs right after sign-in.
func (m Model) sessionStarted() tea.Cmd {
	return tea.Batch(ensureProfile(m.app, m.me, m.email()), loadUsers(m.app, m.me))
}

func (m *Model) setError(err error) {
	m.notice = errs.UserMessage(err)
	m.isError = true
}

func (m *Model) setNotice(s string) {
	m.notice = s
	m.isError = false
}

func (m *Model) clearNotice() { m.setNotice("") }

func (m *Model) closeSubscriptions() {
	m.chat.close()
	m.groups.close()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.chat.resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.closeSubscriptions()
			return m, tea.Quit
		}
		switch m.screen {
		case screenLogin:
			return m.updateLogin(msg)
		case screenSignup:
			return m.updateSignup(msg)
		case screenUsers:
			return m.updateUsers(msg)
		case screenChat:
			return m.updateChat(msg)
		case screenGroups:
			return m.updateGroups(msg)
		case screenCreateGroup:
			return m.updateCreate(msg)
		}

	case authDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.me = msg.userID
		m.setNotice(msg.warning)
		m.login.reset()
		m.signup.reset()
		m.screen = screenUsers
		m.users = userList{loading: true}
		return m, m.sessionStarted()

	case profileMsg:
		if msg.err != nil {
			m.log.Warn("profile bootstrap failed", zap.String("user_id", m.me), zap.Error(msg.err))
			m.setError(msg.err)
			return m, nil
		}
		m.profile = msg.profile
		return m, nil

	case usersMsg:
		m.users.loading = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.users.set(msg.rows)
		m.create.setCandidates(msg.rows)
		return m, nil

	case recipientMsg:
		if msg.chat == m.chat.chat {
			m.chat.title = msg.name
			m.chat.refresh()
		}
		return m, nil

	case chatUpdateMsg:
		if msg.chat != m.chat.chat || !msg.ok {
			return m, nil
		}
		if msg.update.Err != nil {
			// The feed is over; leaving and reopening the chat retries.
			m.setError(msg.update.Err)
			return m, nil
		}
		m.chat.append(msg.update.Row)
		return m, waitForChat(msg.chat)

	case sentMsg:
		if msg.err != nil && !errors.Is(msg.err, app.ErrEmptyMessage) {
			m.setError(msg.err)
		}
		return m, nil

	case groupUpdateMsg:
		if msg.feed != m.groups.feed || !msg.ok {
			return m, nil
		}
		m.groups.loading = false
		if msg.update.Err != nil {
			m.setError(msg.update.Err)
		} else {
			m.groups.set(msg.update.Rows)
		}
		return m, waitForGroups(msg.feed)

	case groupCreatedMsg:
		m.busy = false
		if msg.err != nil {
			m.setError(msg.err)
			return m, nil
		}
		m.screen = screenGroups
		m.setNotice("Group created")
		return m, nil

	case signedOutMsg:
		m.me = ""
		m.profile = nil
		m.users = userList{}
		m.groups = groupList{}
		m.login.reset()
		m.screen = screenLogin
		m.clearNotice()
		if msg.err != nil {
			m.log.Warn("sign out reported an error", zap.Error(msg.err))
			m.setError(msg.err)
		}
		return m, nil
	}

	return m.updateFocused(msg)
}

// updateFocused forwards cursor blinks and similar to the focused input.
func (m Model) updateFocused(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.screen {
	case screenLogin:
		cmd = m.login.update(msg)
	case screenSignup:
		cmd = m.signup.update(msg)
	case screenChat:
		m.chat.input, cmd = m.chat.input.Update(msg)
	case screenCreateGroup:
		m.create.name, cmd = m.create.name.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	var body string
	switch m.screen {
	case screenLogin:
		body = m.viewLogin()
	case screenSignup:
		body = m.viewSignup()
	case screenUsers:
		body = m.viewUsers()
	case screenChat:
		body = m.viewChat()
	case screenGroups:
		body = m.viewGroups()
	case screenCreateGroup:
		body = m.viewCreate()
	}
	if m.notice != "" {
		style := mutedStyle
		if m.isError {
			style = errorStyle
		}
		body += "\n\n" + style.Render(m.notice)
	}
	return body
}
