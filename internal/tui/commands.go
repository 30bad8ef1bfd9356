package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fathima-sithara/snip/internal/app"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/projection"
	"github.com/fathima-sithara/snip/internal/session"
)

const requestTimeout = 15 * time.Second

type authDoneMsg struct {
	userID  string
	warning string
	err     error
}

type profileMsg struct {
	profile *domain.UserProfile
	err     error
}

type usersMsg struct {
	rows []projection.UserRow
	err  error
}

type recipientMsg struct {
	chat *app.Chat
	name string
}

type chatUpdateMsg struct {
	chat   *app.Chat
	update app.ChatUpdate
	ok     bool
}

type sentMsg struct{ err error }

type groupUpdateMsg struct {
	feed   *app.GroupFeed
	update app.GroupUpdate
	ok     bool
}

type groupCreatedMsg struct {
	id  string
	err error
}

type signedOutMsg struct{ err error }

func signIn(a *app.App, email, password string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		id, err := a.SignIn(ctx, email, password)
		return authDoneMsg{userID: id, err: err}
	}
}

func signUp(a *app.App, f app.SignupForm) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := a.SignUp(ctx, f)
		if p == nil {
			return authDoneMsg{err: err}
		}
		msg := authDoneMsg{userID: p.UserID}
		if err != nil {
			msg.warning = errs.UserMessage(err)
		}
		return msg
	}
}

func ensureProfile(a *app.App, me, email string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		p, err := a.EnsureProfile(ctx, me, email)
		return profileMsg{profile: p, err: err}
	}
}

func loadUsers(a *app.App, me string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		rows, err := a.Users(ctx, me)
		return usersMsg{rows: rows, err: err}
	}
}

func recipientName(a *app.App, c *app.Chat) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return recipientMsg{chat: c, name: a.RecipientName(ctx, c.Peer)}
	}
}

func waitForChat(c *app.Chat) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-c.Updates()
		return chatUpdateMsg{chat: c, update: u, ok: ok}
	}
}

func send(c *app.Chat, text string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return sentMsg{err: c.Send(ctx, text)}
	}
}

func waitForGroups(f *app.GroupFeed) tea.Cmd {
	return func() tea.Msg {
		u, ok := <-f.Updates()
		return groupUpdateMsg{feed: f, update: u, ok: ok}
	}
}

func createGroup(a *app.App, me, name string, members []string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		id, err := a.CreateGroup(ctx, me, name, members)
		return groupCreatedMsg{id: id, err: err}
	}
}

func signOut(g *session.Gate) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		return signedOutMsg{err: g.SignOut(ctx)}
	}
}
