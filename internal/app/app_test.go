package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fathima-sithara/snip/internal/backend/backendtest"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/fathima-sithara/snip/internal/projection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.May, 1, 12, 30, 0, 0, time.UTC)

type harness struct {
	app      *App
	auth     *backendtest.Auth
	profiles *backendtest.Profiles
	chats    *backendtest.Channel
	groups   *backendtest.Groups
	events   *backendtest.Events
}

func newHarness(profiles ...domain.UserProfile) *harness {
	h := &harness{
		auth:     backendtest.NewAuth(),
		profiles: backendtest.NewProfiles(profiles...),
		chats:    backendtest.NewChannel(),
		groups:   backendtest.NewGroups(),
		events:   &backendtest.Events{},
	}
	h.app = New(Deps{
		Auth:     h.auth,
		Profiles: h.profiles,
		Groups:   h.groups,
		Chats:    h.chats,
		Events:   h.events,
		Location: time.UTC,
		Now:      func() time.Time { return fixedNow },
	})
	return h
}

func firstMessage(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	return errs.UserMessage(err)
}

func TestSignUpValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	valid := SignupForm{Name: "Ann", Email: "ann@x.io", Password: "secret1", ConfirmPassword: "secret1"}

	cases := []struct {
		name string
		edit func(*SignupForm)
		want string
	}{
		{"name", func(f *SignupForm) { f.Name = "   " }, "Name is required"},
		{"email", func(f *SignupForm) { f.Email = "" }, "Email is required"},
		{"password", func(f *SignupForm) { f.Password = ""; f.ConfirmPassword = "" }, "Password is required"},
		{"short", func(f *SignupForm) { f.Password = "abc"; f.ConfirmPassword = "abc" }, "Password must be at least 6 characters"},
		{"mismatch", func(f *SignupForm) { f.ConfirmPassword = "secret2" }, "Passwords do not match"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := valid
			tc.edit(&f)
			_, err := h.app.SignUp(ctx, f)
			assert.Equal(t, tc.want, firstMessage(t, err))
		})
	}
	assert.Zero(t, h.auth.Count(), "invalid forms never reach the provider")
}

func TestSignUpWritesProfile(t *testing.T) {
	h := newHarness()
	p, err := h.app.SignUp(context.Background(), SignupForm{Name: " Ann ", Email: "Ann@X.io", Password: "secret1", ConfirmPassword: "secret1"})
	require.NoError(t, err)

	stored, err := h.profiles.Get(context.Background(), p.UserID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Ann", stored.Name)
	assert.Equal(t, "ann@x.io", stored.Email)
	assert.Equal(t, fixedNow.UnixMilli(), stored.JoinedAt)
}

func TestSignUpSurfacesProviderAndStoreErrors(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	form := SignupForm{Name: "Ann", Email: "ann@x.io", Password: "secret1", ConfirmPassword: "secret1"}

	_, err := h.app.SignUp(ctx, form)
	require.NoError(t, err)
	_, err = h.app.SignUp(ctx, form)
	assert.Equal(t, "Email already in use", firstMessage(t, err))

	h.profiles.PutErr = errs.NewStoreError(errs.StoreIndexNotReady, "profiles.put", errors.New("building"))
	form.Email = "bea@x.io"
	p, err := h.app.SignUp(ctx, form)
	assert.Equal(t, errs.IndexNotReadyMessage, firstMessage(t, err))
	require.NotNil(t, p, "account exists even though the profile write failed")
	_, err = h.app.SignIn(ctx, "bea@x.io", "secret1")
	assert.NoError(t, err)
}

func TestSignInRequiresFields(t *testing.T) {
	h := newHarness()
	for _, in := range [][2]string{{"", "pw"}, {"a@b.c", ""}, {"  ", "  "}} {
		_, err := h.app.SignIn(context.Background(), in[0], in[1])
		assert.Equal(t, "Please fill in all fields", firstMessage(t, err))
	}
	_, err := h.app.SignIn(context.Background(), "ghost@x.io", "pw")
	assert.Equal(t, "Login failed: invalid email or password", firstMessage(t, err))
}

func TestEnsureProfile(t *testing.T) {
	existing := domain.UserProfile{UserID: "u1", Name: "Keep", Email: "k@x.io", JoinedAt: 5}
	h := newHarness(existing)
	ctx := context.Background()

	p, err := h.app.EnsureProfile(ctx, "u1", "other@x.io")
	require.NoError(t, err)
	assert.Equal(t, existing, *p)

	p, err = h.app.EnsureProfile(ctx, "u2", "carol@x.io")
	require.NoError(t, err)
	assert.Equal(t, "carol", p.Name)

	p, err = h.app.EnsureProfile(ctx, "u3", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultProfileName, p.Name)

	stored, _ := h.profiles.Get(ctx, "u3")
	require.NotNil(t, stored)
}

func TestUsersAndRecipientName(t *testing.T) {
	h := newHarness(
		domain.UserProfile{UserID: "u1", Name: "Me", JoinedAt: 3},
		domain.UserProfile{UserID: "u2", Name: "Bob", JoinedAt: 2},
		domain.UserProfile{UserID: "u3", JoinedAt: 1},
	)
	ctx := context.Background()

	rows, err := h.app.Users(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, projection.Placeholder, rows[1].Name)

	assert.Equal(t, "Bob", h.app.RecipientName(ctx, "u2"))
	assert.Equal(t, DefaultRecipientName, h.app.RecipientName(ctx, "u3"))
	assert.Equal(t, DefaultRecipientName, h.app.RecipientName(ctx, "nobody"))

	h.profiles.GetErr = errs.NewStoreError(errs.StoreNetwork, "profiles.get", errors.New("down"))
	assert.Equal(t, DefaultRecipientName, h.app.RecipientName(ctx, "u2"))
}

func recv(t *testing.T, c *Chat) projection.MessageRow {
	t.Helper()
	select {
	case u, ok := <-c.Updates():
		require.True(t, ok, "updates closed")
		require.NoError(t, u.Err)
		return u.Row
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a message")
	}
	return projection.MessageRow{}
}

func TestChatBothSidesShareRoom(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	alice, err := h.app.OpenChat(ctx, "alice", "bob")
	require.NoError(t, err)
	defer alice.Close()
	bob, err := h.app.OpenChat(ctx, "bob", "alice")
	require.NoError(t, err)
	defer bob.Close()
	assert.Equal(t, "alice_bob", alice.Key)
	assert.Equal(t, alice.Key, bob.Key)

	require.NoError(t, alice.Send(ctx, "  hello  "))
	require.NoError(t, bob.Send(ctx, "hey"))

	a1, a2 := recv(t, alice), recv(t, alice)
	assert.Equal(t, projection.Sent, a1.Direction)
	assert.Equal(t, "hello", a1.Text)
	assert.Equal(t, "12:30", a1.TimeLabel)
	assert.Equal(t, projection.Received, a2.Direction)

	b1 := recv(t, bob)
	assert.Equal(t, projection.Received, b1.Direction)
	assert.Equal(t, "hello", b1.Text)

	sent := h.events.Messages()
	require.Len(t, sent, 2)
	assert.Equal(t, "alice_bob", sent[0].RoomKey)
}

func TestChatReplaysHistory(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.app.Send(ctx, "alice", "bob", "earlier")
	require.NoError(t, err)

	c, err := h.app.OpenChat(ctx, "bob", "alice")
	require.NoError(t, err)
	defer c.Close()
	row := recv(t, c)
	assert.Equal(t, "earlier", row.Text)
	assert.Equal(t, projection.Received, row.Direction)
}

func TestChatCloseIdempotent(t *testing.T) {
	h := newHarness()
	c, err := h.app.OpenChat(context.Background(), "alice", "bob")
	require.NoError(t, err)

	c.Close()
	c.Close()
	_, ok := <-c.Updates()
	assert.False(t, ok)
}

func TestChatDeliversReadFailure(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	_, err := h.app.Send(ctx, "alice", "bob", "before")
	require.NoError(t, err)

	c, err := h.app.OpenChat(ctx, "bob", "alice")
	require.NoError(t, err)
	defer c.Close()
	assert.Equal(t, "before", recv(t, c).Text)

	h.chats.FailReads(errs.NewStoreError(errs.StoreNetwork, "chats.read", errors.New("connection refused")))
	select {
	case u, ok := <-c.Updates():
		require.True(t, ok)
		require.Error(t, u.Err)
		assert.Equal(t, "Network error, please try again", errs.UserMessage(u.Err))
	case <-time.After(2 * time.Second):
		t.Fatal("read failure never arrived")
	}
}

func TestSendRejects(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.app.Send(ctx, "alice", "bob", "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = h.app.Send(ctx, "alice", "alice", "hi")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	_, err = h.app.OpenChat(ctx, "alice", "alice")
	assert.ErrorIs(t, err, errs.ErrInvalidArgument)

	h.chats.AppendErr = errs.NewStoreError(errs.StoreNetwork, "chats.append", errors.New("offline"))
	_, err = h.app.Send(ctx, "alice", "bob", "hi")
	assert.True(t, errs.IsStoreKind(err, errs.StoreNetwork))
	assert.Empty(t, h.events.Messages(), "failed appends publish nothing")
}

func TestCreateGroupValidation(t *testing.T) {
	h := newHarness()
	ctx := context.Background()

	_, err := h.app.CreateGroup(ctx, "u1", "  ", []string{"u2"})
	assert.Equal(t, "Group name is required", firstMessage(t, err))

	_, err = h.app.CreateGroup(ctx, "u1", "crew", nil)
	assert.Equal(t, "Please select at least one member", firstMessage(t, err))
	assert.Empty(t, h.groups.All())
}

func TestCreateGroupAddsCreator(t *testing.T) {
	h := newHarness()
	id, err := h.app.CreateGroup(context.Background(), "u1", " crew ", []string{"u3", "u2", "u3", ""})
	require.NoError(t, err)

	all := h.groups.All()
	require.Len(t, all, 1)
	g := all[0]
	assert.Equal(t, id, g.GroupID)
	assert.Equal(t, "crew", g.Name)
	assert.Equal(t, []string{"u3", "u2", "u1"}, g.Members)
	assert.Equal(t, int64(0), g.LastMessageTime)
	assert.Equal(t, fixedNow.UnixMilli(), g.CreatedAt)

	created := h.events.Groups()
	require.Len(t, created, 1)
	assert.Equal(t, id, created[0].GroupID)
}

func TestWatchGroups(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	h.groups = backendtest.NewGroups(
		domain.Group{GroupID: "old", Name: "old", Members: []string{"u1"}, CreatedAt: 100},
		domain.Group{GroupID: "busy", Name: "busy", Members: []string{"u1", "u2"}, CreatedAt: 50, LastMessageTime: 200, LastMessage: "yo"},
		domain.Group{GroupID: "other", Name: "other", Members: []string{"u9"}},
	)
	h.app.groups = h.groups

	feed := h.app.WatchGroups(ctx, "u1")
	defer feed.Close()

	next := func() GroupUpdate {
		select {
		case u := <-feed.Updates():
			return u
		case <-time.After(2 * time.Second):
			t.Fatal("no group update")
		}
		return GroupUpdate{}
	}

	u := next()
	require.NoError(t, u.Err)
	require.Len(t, u.Rows, 2)
	assert.Equal(t, "busy", u.Rows[0].GroupID)
	assert.Equal(t, int64(100), u.Rows[1].DisplayTime)
	assert.Equal(t, projection.NoMessagesPreview, u.Rows[1].Preview)

	_, err := h.app.CreateGroup(ctx, "u2", "new", []string{"u1"})
	require.NoError(t, err)
	u = next()
	require.NoError(t, u.Err)
	assert.Len(t, u.Rows, 3)
}

func TestWatchGroupsDeliversErrors(t *testing.T) {
	h := newHarness()
	h.groups.WatchErr = errs.NewStoreError(errs.StoreIndexNotReady, "groups.find", errors.New("no index"))

	_, err := h.app.Groups(context.Background(), "u1")
	assert.Equal(t, errs.IndexNotReadyMessage, firstMessage(t, err))
}

func TestGroupsSnapshot(t *testing.T) {
	h := newHarness()
	h.groups = backendtest.NewGroups(domain.Group{GroupID: "g", Name: "g", Members: []string{"u1"}})
	h.app.groups = h.groups

	rows, err := h.app.Groups(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "g", rows[0].GroupID)
}
