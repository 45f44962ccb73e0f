package realtime

import (
	"context"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// userMessage 投递给某个用户全部连接的消息
type userMessage struct {
	userID string
	data   []byte
}

// Hub 按用户分组管理 WebSocket 连接
// 所有 map 操作都在 Run 的单个 goroutine 内完成
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	deliver    chan userMessage
	count      chan chan int
	done       chan struct{}

	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHub allowOrigins 为空时不校验 Origin
func NewHub(allowOrigins []string, logger *zap.Logger) *Hub {
	h := &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliver:    make(chan userMessage, 256),
		count:      make(chan chan int),
		done:       make(chan struct{}),
		logger:     logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(allowOrigins) == 0 {
				return true
			}
			return slices.Contains(allowOrigins, origin)
		},
	}
	return h
}

// Run 事件循环；ctx 结束时关闭所有连接
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for _, set := range h.clients {
				for c := range set {
					close(c.send)
				}
			}
			h.clients = make(map[string]map[*Client]struct{})
			return

		case c := <-h.register:
			set, ok := h.clients[c.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[c.userID] = set
			}
			set[c] = struct{}{}

		case c := <-h.unregister:
			h.remove(c)

		case msg := <-h.deliver:
			for c := range h.clients[msg.userID] {
				select {
				case c.send <- msg.data:
				default:
					// 消费过慢的连接直接断开，客户端重连后以 GET 状态补齐
					h.logger.Warn("WebSocket 发送缓冲已满，断开连接", zap.String("user_id", msg.userID))
					h.remove(c)
				}
			}

		case reply := <-h.count:
			n := 0
			for _, set := range h.clients {
				n += len(set)
			}
			reply <- n
		}
	}
}

func (h *Hub) remove(c *Client) {
	set, ok := h.clients[c.userID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
}

// SendToUser 异步投递；Hub 积压时丢弃并返回 false
func (h *Hub) SendToUser(userID string, data []byte) bool {
	select {
	case h.deliver <- userMessage{userID: userID, data: data}:
		return true
	default:
		h.logger.Warn("Hub 投递队列已满，丢弃消息", zap.String("user_id", userID))
		return false
	}
}

// Connections 当前连接总数；Hub 已停止时为 0
func (h *Hub) Connections() int {
	reply := make(chan int, 1)
	select {
	case h.count <- reply:
		return <-reply
	case <-h.done:
		return 0
	}
}

func (h *Hub) attach(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// ServeWS 升级连接并注册到 Hub；升级失败时 upgrader 已写入 HTTP 错误响应
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}

	c := newClient(h, conn, userID)
	if !h.attach(c) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		conn.Close()
		return nil
	}

	go c.writePump()
	go c.readPump()
	return nil
}
