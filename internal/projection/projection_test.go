package projection

import (
	"testing"
	"time"

	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsersDropsMalformedAndSelf(t *testing.T) {
	in := []domain.UserProfile{
		{UserID: "", Name: "x"},
		{UserID: "u2", Name: "Bob"},
	}
	rows := Users("u1", in)

	require.Len(t, rows, 1)
	assert.Equal(t, "u2", rows[0].UserID)
	assert.Equal(t, "Bob", rows[0].Name)
}

func TestUsersExcludesCaller(t *testing.T) {
	in := []domain.UserProfile{
		{UserID: "u3", Name: "Cara", JoinedAt: 3},
		{UserID: "u1", Name: "Me", JoinedAt: 2},
		{UserID: "u2", Name: "Bob", JoinedAt: 1},
		{UserID: "u1", Name: "Me again"},
	}
	rows := Users("u1", in)

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.UserID)
	}
	assert.Equal(t, []string{"u3", "u2"}, ids)
}

func TestUsersPlaceholders(t *testing.T) {
	rows := Users("me", []domain.UserProfile{{UserID: "u9"}})

	require.Len(t, rows, 1)
	assert.Equal(t, Placeholder, rows[0].Name)
	assert.Equal(t, Placeholder, rows[0].Email)
}

func TestUsersIdempotent(t *testing.T) {
	in := []domain.UserProfile{
		{UserID: "u2", Name: ""},
		{UserID: "u1", Name: "Me"},
		{UserID: "u3", Name: "Cara", Email: "c@x.io"},
	}
	snapshot := append([]domain.UserProfile(nil), in...)

	first := Users("u1", in)
	second := Users("u1", in)

	assert.Equal(t, first, second)
	assert.Equal(t, snapshot, in)
}

func TestGroupsOrderingAndDisplayTime(t *testing.T) {
	in := []domain.Group{
		{GroupID: "g1", LastMessageTime: 0, CreatedAt: 100},
		{GroupID: "g2", LastMessageTime: 200, CreatedAt: 50, LastMessage: "hi"},
	}
	rows := Groups(in, time.UTC)

	require.Len(t, rows, 2)
	assert.Equal(t, "g2", rows[0].GroupID)
	assert.Equal(t, int64(200), rows[0].DisplayTime)
	assert.Equal(t, "hi", rows[0].Preview)
	assert.Equal(t, "g1", rows[1].GroupID)
	assert.Equal(t, int64(100), rows[1].DisplayTime)
	assert.Equal(t, NoMessagesPreview, rows[1].Preview)

	assert.Equal(t, "g1", in[0].GroupID, "input must not be reordered")
}

func TestGroupsTiesKeepStoreOrder(t *testing.T) {
	in := []domain.Group{
		{GroupID: "a", LastMessageTime: 10},
		{GroupID: "b", LastMessageTime: 20},
		{GroupID: "c", LastMessageTime: 10},
		{GroupID: "d", LastMessageTime: 20},
	}
	rows := Groups(in, nil)

	got := make([]string, 0, len(rows))
	for _, r := range rows {
		got = append(got, r.GroupID)
	}
	assert.Equal(t, []string{"b", "d", "a", "c"}, got)
}

func TestGroupsTimeLabel(t *testing.T) {
	ts := time.Date(2024, time.March, 5, 14, 7, 0, 0, time.UTC).UnixMilli()
	rows := Groups([]domain.Group{{GroupID: "g", CreatedAt: ts, Members: []string{"a", "b"}}}, time.UTC)

	require.Len(t, rows, 1)
	assert.Equal(t, "Mar 05, 14:07", rows[0].TimeLabel)
	assert.Equal(t, 2, rows[0].MemberCount)
}

func TestMessageDirection(t *testing.T) {
	ts := time.Date(2024, time.January, 1, 9, 5, 0, 0, time.UTC).UnixMilli()
	m := domain.DirectMessage{SenderID: "u1", ReceiverID: "u2", Text: "yo", Timestamp: ts}

	mine := Message("u1", m, time.UTC)
	theirs := Message("u2", m, time.UTC)

	assert.Equal(t, Sent, mine.Direction)
	assert.Equal(t, Received, theirs.Direction)
	assert.Equal(t, "09:05", mine.TimeLabel)
	assert.Equal(t, "yo", theirs.Text)
}
