// Package realtime keeps direct-message rooms in Redis Streams. Each room
// is one stream; XADD appends and XREAD follows it in commit order.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/fathima-sithara/snip/internal/backend"
	"github.com/fathima-sithara/snip/internal/domain"
	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	fieldSender    = "sender_id"
	fieldReceiver  = "receiver_id"
	fieldText      = "text"
	fieldTimestamp = "timestamp"
)

type Options struct {
	Prefix string
	// Block bounds one XREAD wait and therefore how long Cancel may take.
	Block time.Duration
	Batch int64
	// RetryFor bounds how long failed reads are retried before the
	// subscriber is told.
	RetryFor time.Duration
}

type Channel struct {
	rdb  *redis.Client
	opts Options
	log  *zap.Logger
}

func NewChannel(rdb *redis.Client, opts Options, log *zap.Logger) *Channel {
	if opts.Block <= 0 {
		opts.Block = time.Second
	}
	if opts.Batch <= 0 {
		opts.Batch = 100
	}
	if opts.RetryFor <= 0 {
		opts.RetryFor = 10 * time.Second
	}
	return &Channel{rdb: rdb, opts: opts, log: log}
}

func (c *Channel) streamKey(roomKey string) string {
	if c.opts.Prefix == "" {
		return "chats:" + roomKey
	}
	return fmt.Sprintf("%s:chats:%s", c.opts.Prefix, roomKey)
}

func (c *Channel) Append(ctx context.Context, roomKey string, m domain.DirectMessage) error {
	if roomKey == "" {
		return errs.InvalidArgument("empty room key")
	}
	if m.SenderID == "" || m.ReceiverID == "" || m.SenderID == m.ReceiverID {
		return errs.InvalidArgument("message needs distinct sender and receiver")
	}
	if strings.TrimSpace(m.Text) == "" {
		return errs.InvalidArgument("message text is empty")
	}

	err := c.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: c.streamKey(roomKey),
		Values: map[string]any{
			fieldSender:    m.SenderID,
			fieldReceiver:  m.ReceiverID,
			fieldText:      m.Text,
			fieldTimestamp: strconv.FormatInt(m.Timestamp, 10),
		},
	}).Err()
	if err != nil {
		return errs.NewStoreError(errs.StoreNetwork, "chats.append", err)
	}
	return nil
}

// Subscribe replays the room and then follows it. A failed read is retried
// with exponential backoff for up to Options.RetryFor; after that the
// failure is handed to onAppend as a network StoreError and the
// subscription ends.
func (c *Channel) Subscribe(ctx context.Context, roomKey string, onAppend func(domain.DirectMessage, error)) backend.Subscription {
	key := c.streamKey(roomKey)
	return backend.Go(ctx, func(ctx context.Context) {
		lastID := "0"
		bo := backoff.NewExponentialBackOff()
		bo.MaxInterval = 2 * time.Second
		bo.MaxElapsedTime = c.opts.RetryFor

		for ctx.Err() == nil {
			var streams []redis.XStream
			read := func() error {
				res, err := c.rdb.XRead(ctx, &redis.XReadArgs{
					Streams: []string{key, lastID},
					Count:   c.opts.Batch,
					Block:   c.opts.Block,
				}).Result()
				if errors.Is(err, redis.Nil) {
					streams = nil
					return nil
				}
				if err != nil {
					if ctx.Err() != nil {
						return backoff.Permanent(err)
					}
					return err
				}
				streams = res
				return nil
			}
			notify := func(err error, wait time.Duration) {
				c.log.Warn("chat stream read failed", zap.String("stream", key), zap.Duration("retry_in", wait), zap.Error(err))
			}
			if err := backoff.RetryNotify(read, backoff.WithContext(bo, ctx), notify); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Error("chat stream unavailable", zap.String("stream", key), zap.Error(err))
				onAppend(domain.DirectMessage{}, errs.NewStoreError(errs.StoreNetwork, "chats.read", err))
				return
			}

			for _, s := range streams {
				for _, xm := range s.Messages {
					lastID = xm.ID
					m, ok := decode(xm)
					if !ok {
						c.log.Warn("skipping malformed chat entry", zap.String("stream", key), zap.String("id", xm.ID))
						continue
					}
					if ctx.Err() != nil {
						return
					}
					onAppend(m, nil)
				}
			}
		}
	})
}

func decode(xm redis.XMessage) (domain.DirectMessage, bool) {
	str := func(k string) string {
		s, _ := xm.Values[k].(string)
		return s
	}
	m := domain.DirectMessage{
		ID:         xm.ID,
		SenderID:   str(fieldSender),
		ReceiverID: str(fieldReceiver),
		Text:       str(fieldText),
	}
	if m.SenderID == "" || m.Text == "" {
		return m, false
	}
	if ts := str(fieldTimestamp); ts != "" {
		n, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return m, false
		}
		m.Timestamp = n
	}
	return m, true
}
