package realtime

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// EventChannel Redis 广播频道
const EventChannel = "planner:events"

// Event 推送给客户端的消息
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	At   time.Time       `json:"at"`
}

// envelope 跨实例广播时携带目标用户
type envelope struct {
	UserID string `json:"user_id"`
	Event  Event  `json:"event"`
}

// PubSub 跨实例广播（*redis.Client 实现）
type PubSub interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) <-chan []byte
}

// Broker 把业务事件投递到用户的 WebSocket 连接。
// 配置了 PubSub 时经 Redis 广播，所有实例各自投递给本地连接；否则直接投递本地 Hub。
type Broker struct {
	hub    *Hub
	pubsub PubSub
	logger *zap.Logger
	now    func() time.Time
}

// NewBroker pubsub 可为 nil
func NewBroker(hub *Hub, pubsub PubSub, logger *zap.Logger) *Broker {
	return &Broker{hub: hub, pubsub: pubsub, logger: logger, now: time.Now}
}

// Publish 序列化并广播事件
func (b *Broker) Publish(ctx context.Context, userID, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := envelope{
		UserID: userID,
		Event:  Event{Type: event, Data: data, At: b.now().UTC()},
	}

	if b.pubsub == nil {
		b.dispatch(env)
		return nil
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return b.pubsub.Publish(ctx, EventChannel, raw)
}

// Run 订阅 Redis 频道并转发到本地 Hub，ctx 结束时返回；未配置 PubSub 时立即返回
func (b *Broker) Run(ctx context.Context) {
	if b.pubsub == nil {
		return
	}
	for raw := range b.pubsub.Subscribe(ctx, EventChannel) {
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			b.logger.Warn("无法解析广播事件", zap.Error(err))
			continue
		}
		b.dispatch(env)
	}
}

func (b *Broker) dispatch(env envelope) {
	msg, err := json.Marshal(env.Event)
	if err != nil {
		b.logger.Error("序列化推送事件失败", zap.String("type", env.Event.Type), zap.Error(err))
		return
	}
	b.hub.SendToUser(env.UserID, msg)
}
