package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// ExportNotifyMessage 通过 Redis Pub/Sub 转发给前端 WebSocket，字段名与前端解析保持一致。
type ExportNotifyMessage struct {
	Type          string   `json:"type"`
	Status        string   `json:"status"`
	ResumeID      string   `json:"resume_id"`
	TemplateID    string   `json:"template_id,omitempty"`
	CorrelationID string   `json:"correlation_id"`
	ErrorCode     int      `json:"error_code"`
	ErrorMessage  string   `json:"error_message"`
	MissingLines  []string `json:"missing_lines,omitempty"`
}

// Notifier delivers export notifications to one user.
type Notifier interface {
	Notify(ctx context.Context, userID uint, msg ExportNotifyMessage) error
}

// NotifyChannel is the pub/sub channel the websocket handler subscribes to.
func NotifyChannel(userID uint) string {
	return fmt.Sprintf("user_notify:%d", userID)
}

// RedisNotifier publishes notifications on NotifyChannel.
type RedisNotifier struct {
	client redis.UniversalClient
}

func NewRedisNotifier(client redis.UniversalClient) *RedisNotifier {
	return &RedisNotifier{client: client}
}

func (n *RedisNotifier) Notify(ctx context.Context, userID uint, msg ExportNotifyMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification payload: %w", err)
	}
	channel := NotifyChannel(userID)
	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("publish redis notification to %q: %w", channel, err)
	}
	return nil
}
