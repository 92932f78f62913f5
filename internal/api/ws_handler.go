package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"resumeBuilder/internal/api/middleware"
	"resumeBuilder/internal/auth"
	"resumeBuilder/internal/worker"
)

const (
	wsAuthTimeout  = 10 * time.Second
	wsPingInterval = 30 * time.Second
	wsPongWait     = 2 * wsPingInterval
	wsWriteWait    = 5 * time.Second
)

// NotifySubscriber 订阅导出通知频道，由 redis.UniversalClient 实现。
type NotifySubscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// WsHandler 把 worker 发布的导出结果推送给已登录的编辑页。
type WsHandler struct {
	subscriber NotifySubscriber
	validator  middleware.TokenValidator
	logger     *slog.Logger
	upgrader   websocket.Upgrader
}

// NewWsHandler 构造 WebSocket 处理器。allowedOrigins 为空时只接受同源连接。
func NewWsHandler(subscriber NotifySubscriber, validator middleware.TokenValidator, logger *slog.Logger, allowedOrigins []string) *WsHandler {
	return &WsHandler{
		subscriber: subscriber,
		validator:  validator,
		logger:     logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if len(allowed) > 0 {
			return slices.Contains(allowed, origin)
		}
		u, err := url.Parse(origin)
		return err == nil && strings.EqualFold(u.Host, r.Host)
	}
}

// wsAuthMessage 是未携带令牌时必须发送的第一条消息：{"type":"auth","token":"..."}。
type wsAuthMessage struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

// wsReady 在认证成功后发送一次。
type wsReady struct {
	Type     string `json:"type"`
	ResumeID string `json:"resume_id,omitempty"`
}

// HandleConnection 升级连接、完成认证，然后转发当前用户的导出通知。
// 查询参数 resume 限定只推送该简历的事件。
func (h *WsHandler) HandleConnection(c *gin.Context) {
	log := middleware.LoggerOr(c, h.logger).With(slog.String("client_ip", c.ClientIP()))
	resumeID := c.Query("resume")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("upgrade websocket failed", slog.Any("error", err))
		return
	}
	defer conn.Close()

	userID, err := h.authenticate(c.Request, conn)
	if err != nil {
		closeWith(conn, websocket.ClosePolicyViolation, middleware.MsgInvalidToken)
		log.Warn("websocket authentication failed", slog.Any("error", err))
		return
	}
	log = log.With(slog.Uint64("user_id", uint64(userID)))

	if err := writeJSONFrame(conn, wsReady{Type: "ready", ResumeID: resumeID}); err != nil {
		log.Warn("write ready frame failed", slog.Any("error", err))
		return
	}

	g, ctx := errgroup.WithContext(c.Request.Context())
	g.Go(func() error { return drain(conn) })
	g.Go(func() error {
		defer conn.Close()
		return h.forward(ctx, conn, userID, resumeID, log)
	})

	if err := g.Wait(); err != nil && !isNormalClose(err) {
		log.Info("websocket connection closed", slog.Any("error", err))
		return
	}
	log.Info("websocket connection closed")
}

// authenticate 优先使用升级请求上的令牌，否则在 wsAuthTimeout 内等待 auth 消息。
func (h *WsHandler) authenticate(r *http.Request, conn *websocket.Conn) (uint, error) {
	raw := middleware.ExtractToken(r)
	if raw == "" {
		_ = conn.SetReadDeadline(time.Now().Add(wsAuthTimeout))
		var msg wsAuthMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return 0, fmt.Errorf("read auth message: %w", err)
		}
		if msg.Type != "auth" || msg.Token == "" {
			return 0, errors.New("first message must be an auth message")
		}
		raw = msg.Token
	}

	claims, err := h.validator.ValidateTokenType(raw, auth.TokenTypeAccess)
	if err != nil {
		return 0, fmt.Errorf("validate token: %w", err)
	}
	return claims.UserID, nil
}

// drain 读取并丢弃客户端消息，只为处理 pong 与发现断开。
func drain(conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return err
		}
	}
}

// forward 是连接上唯一的数据帧写者。
func (h *WsHandler) forward(ctx context.Context, conn *websocket.Conn, userID uint, resumeID string, log *slog.Logger) error {
	channel := worker.NotifyChannel(userID)
	pubsub := h.subscriber.Subscribe(ctx, channel)
	defer pubsub.Close()

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			closeWith(conn, websocket.CloseGoingAway, "server closing")
			return nil
		case msg, ok := <-messages:
			if !ok {
				return errors.New("notification channel closed")
			}
			if !wantsNotification(msg.Payload, resumeID) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				return fmt.Errorf("write notification: %w", err)
			}
			log.Debug("export notification forwarded", slog.String("channel", channel))
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait)); err != nil {
				return fmt.Errorf("write ping: %w", err)
			}
		}
	}
}

// wantsNotification 过滤其他简历的事件；无法解析的负载直接丢弃。
func wantsNotification(payload, resumeID string) bool {
	var msg worker.ExportNotifyMessage
	if err := json.Unmarshal([]byte(payload), &msg); err != nil {
		return false
	}
	return resumeID == "" || msg.ResumeID == resumeID
}

func writeJSONFrame(conn *websocket.Conn, v any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteJSON(v)
}

func closeWith(conn *websocket.Conn, code int, text string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(wsWriteWait))
}

func isNormalClose(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
}
