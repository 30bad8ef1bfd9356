// Package events announces chat activity on Kafka for downstream
// consumers such as push notifiers.
package events

import (
	"context"
	"encoding/json"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

type MessageSent struct {
	RoomKey    string `json:"room_key"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
	Text       string `json:"text"`
	Timestamp  int64  `json:"timestamp"`
}

type GroupCreated struct {
	GroupID   string   `json:"group_id"`
	Name      string   `json:"name"`
	CreatedBy string   `json:"created_by"`
	Members   []string `json:"members"`
	CreatedAt int64    `json:"created_at"`
}

// Publisher is what the app layer needs. A nil Publisher disables events.
type Publisher interface {
	MessageSent(ctx context.Context, e MessageSent) error
	GroupCreated(ctx context.Context, e GroupCreated) error
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Producer struct {
	messages writer
	groups   writer
}

func NewProducer(brokers []string, messageTopic, groupTopic string) *Producer {
	newWriter := func(topic string) *kafkago.Writer {
		return &kafkago.Writer{
			Addr:         kafkago.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafkago.Hash{},
			RequiredAcks: kafkago.RequireAll,
			BatchTimeout: 50 * time.Millisecond,
		}
	}
	return &Producer{messages: newWriter(messageTopic), groups: newWriter(groupTopic)}
}

// MessageSent is keyed by room so one room's events stay on one partition.
func (p *Producer) MessageSent(ctx context.Context, e MessageSent) error {
	return publish(ctx, p.messages, e.RoomKey, e)
}

func (p *Producer) GroupCreated(ctx context.Context, e GroupCreated) error {
	return publish(ctx, p.groups, e.GroupID, e)
}

func publish(ctx context.Context, w writer, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(key),
		Value: b,
		Time:  time.Now(),
	})
}

func (p *Producer) Close() error {
	err := p.messages.Close()
	if gerr := p.groups.Close(); gerr != nil && err == nil {
		err = gerr
	}
	return err
}
