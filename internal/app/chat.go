package app

import (
	"context"
	"strings"
	"sync"

	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/events"
	"github.com/fathima-sithara/snip/internal/metrics"
	"github.com/fathima-sithara/snip/internal/projection"
	"github.com/fathima-sithara/snip/internal/room"
	"go.uber.org/zap"
)

// ChatUpdate is one row of the room, or the error that ended the feed.
type ChatUpdate struct {
	Row projection.MessageRow
	Err error
}

// Chat is an open direct-message room. Updates arrive in commit order,
// starting with the room's history. A read failure is the last update;
// reopen the chat to retry.
type Chat struct {
	Key  string
	Me   string
	Peer string

	app     *App
	updates chan ChatUpdate
	done    chan struct{}
	sub  backend.Subscription
	once sync.Once
}

func (a *App) OpenChat(ctx context.Context, me, peer string) (*Chat, error) {
	key, err := room.Key(me, peer)
	if err != nil {
		return nil, err
	}
	c := &Chat{
		Key:  key,
		Me:   me,
		Peer: peer,
		app:  a,
		updates: make(chan ChatUpdate, 64),
		done:    make(chan struct{}),
	}
	c.sub = a.chats.Subscribe(ctx, key, func(m domain.DirectMessage, err error) {
		u := ChatUpdate{Err: err}
		if err != nil {
			a.log.Warn("chat feed failed", zap.String("room", key), zap.Error(err))
		} else {
			u.Row = projection.Message(me, m, a.loc)
		}
		select {
		case c.updates <- u:
		case <-c.done:
		}
	})
	metrics.Subscriptions.WithLabelValues("chat").Inc()
	return c, nil
}

func (c *Chat) Updates() <-chan ChatUpdate { return c.updates }

func (c *Chat) Send(ctx context.Context, text string) error {
	_, err := c.app.Send(ctx, c.Me, c.Peer, text)
	return err
}

// Close cancels the room subscription and closes Updates.
func (c *Chat) Close() {
	c.once.Do(func() {
		close(c.done)
		c.sub.Cancel()
		close(c.updates)
		metrics.Subscriptions.WithLabelValues("chat").Dec()
	})
}

// Send appends text from me to the room shared with peer. Nothing is shown
// locally until the channel echoes it back.
func (a *App) Send(ctx context.Context, me, peer, text string) (*domain.DirectMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	key, err := room.Key(me, peer)
	if err != nil {
		return nil, err
	}
	m := domain.DirectMessage{SenderID: me, ReceiverID: peer, Text: text, Timestamp: a.nowMillis()}
	if err := a.chats.Append(ctx, key, m); err != nil {
		a.log.Error("message append failed", zap.String("room", key), zap.Error(err))
		return nil, err
	}
	metrics.MessagesSent.Inc()

	if a.events != nil {
		ev := events.MessageSent{RoomKey: key, SenderID: me, ReceiverID: peer, Text: text, Timestamp: m.Timestamp}
		if err := a.events.MessageSent(ctx, ev); err != nil {
			a.log.Warn("message.sent publish failed", zap.String("room", key), zap.Error(err))
		}
	}
	return &m, nil
}
