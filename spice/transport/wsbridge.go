package transport

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
)

// wsConn 把 gorilla websocket 适配为 Conn。
// gorilla 的写端不允许并发，发送路径加锁串行化。
type wsConn struct {
	c   *websocket.Conn
	wmu sync.Mutex
}

// NewWSConn 包装一条已建立的 websocket 连接。
func NewWSConn(c *websocket.Conn) Conn {
	return &wsConn{c: c}
}

func (w *wsConn) Send(msg Message) error {
	w.wmu.Lock()
	defer w.wmu.Unlock()
	return pkgerrors.Wrap(w.c.WriteJSON(msg), "websocket 发送失败")
}

func (w *wsConn) Receive() (Message, error) {
	var msg Message
	if err := w.c.ReadJSON(&msg); err != nil {
		return Message{}, pkgerrors.Wrap(err, "websocket 接收失败")
	}
	return msg, nil
}

func (w *wsConn) Close() error {
	return w.c.Close()
}

// ServeWebsocket 升级 HTTP 请求并在连接上服务后端。
// 连接断开或收到 dispose 后返回；后端本身的生命周期由调用方管理。
func ServeWebsocket(w http.ResponseWriter, r *http.Request, up *websocket.Upgrader, b backend.SpiceBackend, logger *zap.SugaredLogger) error {
	conn, err := up.Upgrade(w, r, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "websocket 升级失败")
	}
	defer conn.Close()
	return ServeBackend(NewWSConn(conn), b, logger)
}

// DialWorker 连接远端 worker 并返回客户端。
func DialWorker(ctx context.Context, url string, opts Options) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "连接 worker 失败: %s", url)
	}
	return NewClient(NewWSConn(conn), opts), nil
}
