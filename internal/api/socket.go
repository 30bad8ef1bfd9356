package api

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/fathima-sithara/snip/internal/errs"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
	maxFrame     = 64 * 1024
)

type frame struct {
	Type    string `json:"type"`
	Message any    `json:"message,omitempty"`
	Groups  any    `json:"groups,omitempty"`
	Error   string `json:"error,omitempty"`
}

// socket serialises writes to one connection through writePump.
type socket struct {
	id   string
	ws   *websocket.Conn
	send chan frame
	done chan struct{}
	once sync.Once
	log  *zap.Logger
}

func newSocket(conn *websocket.Conn, log *zap.Logger) *socket {
	id := uuid.NewString()
	return &socket{
		id:   id,
		ws:   conn,
		send: make(chan frame, 256),
		done: make(chan struct{}),
		log:  log.With(zap.String("socket_id", id)),
	}
}

func (s *socket) push(f frame) bool {
	select {
	case s.send <- f:
		return true
	case <-s.done:
		return false
	}
}

func (s *socket) pushError(err error) bool {
	return s.push(frame{Type: "error", Error: errs.UserMessage(err)})
}

func (s *socket) stop() {
	s.once.Do(func() { close(s.done) })
}

func (s *socket) readPump(onFrame func([]byte)) {
	defer s.stop()
	s.ws.SetReadLimit(maxFrame)
	_ = s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("socket read ended", zap.Error(err))
			}
			return
		}
		if onFrame != nil {
			onFrame(data)
		}
	}
}

func (s *socket) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = s.ws.Close()
	}()
	for {
		select {
		case <-s.done:
			s.flush()
			_ = s.ws.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		case f := <-s.send:
			if err := s.write(f); err != nil {
				s.stop()
				return
			}
		case <-ticker.C:
			if err := s.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.stop()
				return
			}
		}
	}
}

func (s *socket) write(f frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	_ = s.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return s.ws.WriteMessage(websocket.TextMessage, b)
}

// flush writes whatever was queued before stop.
func (s *socket) flush() {
	for {
		select {
		case f := <-s.send:
			if s.write(f) != nil {
				return
			}
		default:
			return
		}
	}
}

// ChatSocket streams the room shared with :peer and sends every
// {"text": "..."} frame the client writes.
func (h *Handler) ChatSocket(conn *websocket.Conn) {
	me, _ := conn.Locals(localUserID).(string)
	peer := conn.Params("peer")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSocket(conn, h.log.With(zap.String("user_id", me), zap.String("peer", peer)))
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.writePump()
	}()

	chat, err := h.app.OpenChat(ctx, me, peer)
	if err != nil {
		s.pushError(err)
		s.stop()
		wg.Wait()
		return
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for u := range chat.Updates() {
			if u.Err != nil {
				s.pushError(u.Err)
				s.stop()
				return
			}
			if !s.push(frame{Type: "message", Message: u.Row}) {
				return
			}
		}
	}()

	s.readPump(func(data []byte) {
		var req sendReq
		if err := json.Unmarshal(data, &req); err != nil {
			s.push(frame{Type: "error", Error: "invalid frame"})
			return
		}
		if err := chat.Send(ctx, req.Text); err != nil {
			s.pushError(err)
		}
	})

	chat.Close()
	wg.Wait()
}

// GroupsSocket pushes the caller's shaped group list on every change.
func (h *Handler) GroupsSocket(conn *websocket.Conn) {
	me, _ := conn.Locals(localUserID).(string)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := newSocket(conn, h.log.With(zap.String("user_id", me)))
	feed := h.app.WatchGroups(ctx, me)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.writePump()
	}()
	go func() {
		defer wg.Done()
		for u := range feed.Updates() {
			var ok bool
			if u.Err != nil {
				ok = s.pushError(u.Err)
			} else {
				ok = s.push(frame{Type: "groups", Groups: u.Rows})
			}
			if !ok {
				return
			}
		}
	}()

	s.readPump(nil)
	feed.Close()
	wg.Wait()
}
