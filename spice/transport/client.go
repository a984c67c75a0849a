package transport

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Caller 是传输层对调用方的最小面：缓存装饰器与客户端都实现它。
type Caller interface {
	Call(ctx context.Context, op string, args ...any) (json.RawMessage, error)
	Dispose() error
}

// Options 客户端行为配置。
type Options struct {
	// Timeout 单笔请求超时，零值不限时。调用方 context 的取消独立生效。
	Timeout time.Duration
	// OwnWorker 为真时 Dispose 负责 worker 生命周期：
	// 先尽力投递 dispose 信号再关闭连接。
	OwnWorker bool
	Logger    *zap.SugaredLogger

	// startSettler 启动结算例程的钩子，测试注入失败场景。
	// 留空时直接起 goroutine。
	startSettler func(loop func()) error
}

// call 是一笔在途请求。settle 经由 once 保证恰好一条路径胜出：
// 响应、超时、取消、终态清理，后到者全部空操作。
type call struct {
	op    string
	id    uint64
	once  sync.Once
	done  chan struct{}
	value json.RawMessage
	err   error
}

func (c *call) settle(value json.RawMessage, err error) {
	c.once.Do(func() {
		c.value = value
		c.err = err
		close(c.done)
	})
}

type settlement struct {
	call *call
	msg  Message
}

// Client 把一个远端 SpiceBackend 暴露为本地 Caller。
//
// 结算路径是硬约束：响应到达只把请求从 pending 挪进结算队列，
// 真正交付由专职结算例程完成，交付前在锁下复查终态标记。
// 因此响应在途（甚至已收到但未交付）时调用 Dispose，这笔请求
// 确定性地以 disposed 失败，绝不会竞态地带着响应值成功。
type Client struct {
	conn   Conn
	opts   Options
	logger *zap.SugaredLogger

	mu       sync.Mutex
	terminal *Error // 终态后所有结算/新请求都以它为准
	noSched  bool   // 结算例程未能启动，传输失效关闭
	nextID   uint64
	pending  map[uint64]*call

	settleCh chan settlement
}

// NewClient 在一条连接上启动客户端。连接的接收例程与结算例程
// 随之启动；结算例程无法启动时客户端进入失效关闭态，所有请求
// 以 scheduler-unavailable 拒绝，而不是退化成同步结算。
func NewClient(conn Conn, opts Options) *Client {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	c := &Client{
		conn:     conn,
		opts:     opts,
		logger:   logger,
		pending:  map[uint64]*call{},
		settleCh: make(chan settlement, 64),
	}

	start := opts.startSettler
	if start == nil {
		start = func(loop func()) error {
			go loop()
			return nil
		}
	}
	if err := start(c.settleLoop); err != nil {
		logger.Errorw("结算例程启动失败, 传输进入失效关闭态", "err", err)
		c.noSched = true
		return c
	}
	go c.recvLoop()
	return c
}

// Call 发送请求并等待结算。
func (c *Client) Call(ctx context.Context, op string, args ...any) (json.RawMessage, error) {
	rawArgs, err := EncodeArgs(op, args)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.noSched {
		c.mu.Unlock()
		return nil, &Error{Fail: FailScheduler, Op: op}
	}
	if c.terminal != nil {
		fail := *c.terminal
		c.mu.Unlock()
		fail.Op = op
		return nil, &fail
	}
	c.nextID++
	cs := &call{op: op, id: c.nextID, done: make(chan struct{})}
	c.pending[cs.id] = cs
	c.mu.Unlock()

	if err := c.conn.Send(Message{Type: TypeRequest, ID: cs.id, Op: op, Args: rawArgs}); err != nil {
		c.drop(cs.id)
		cs.settle(nil, &Error{Fail: FailCrashed, Op: op, ID: cs.id, Cause: err})
		<-cs.done
		return cs.value, cs.err
	}

	var timeoutC <-chan time.Time
	if c.opts.Timeout > 0 {
		timer := time.NewTimer(c.opts.Timeout)
		defer timer.Stop()
		timeoutC = timer.C
	}

	select {
	case <-cs.done:
	case <-ctx.Done():
		c.drop(cs.id)
		cs.settle(nil, &Error{Fail: FailAborted, Op: op, ID: cs.id, Cause: ctx.Err()})
		<-cs.done
	case <-timeoutC:
		c.drop(cs.id)
		cs.settle(nil, &Error{Fail: FailTimeout, Op: op, ID: cs.id})
		<-cs.done
	}
	return cs.value, cs.err
}

// Dispose 终止传输：拒绝所有在途与待结算请求。幂等。
func (c *Client) Dispose() error {
	c.teardown(&Error{Fail: FailDisposed}, true)
	return nil
}

// drop 把请求移出 pending。胜出路径调用一次，其余路径空操作。
func (c *Client) drop(id uint64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// recvLoop 接收响应并入队结算。接收失败视为 worker 终止。
func (c *Client) recvLoop() {
	for {
		msg, err := c.conn.Receive()
		if err != nil {
			c.teardown(&Error{Fail: FailCrashed, Cause: err}, false)
			close(c.settleCh)
			return
		}
		switch msg.Type {
		case TypeResponse:
			c.mu.Lock()
			cs, ok := c.pending[msg.ID]
			if ok {
				delete(c.pending, msg.ID)
			}
			term := c.terminal
			c.mu.Unlock()
			if !ok {
				continue // 超时/取消已胜出的迟到响应
			}
			if term != nil {
				fail := *term
				fail.Op, fail.ID = cs.op, cs.id
				cs.settle(nil, &fail)
				continue
			}
			c.settleCh <- settlement{call: cs, msg: msg}
		default:
			c.teardown(&Error{Fail: FailDecode, Cause: errUnknownMessage(msg.Type)}, false)
			close(c.settleCh)
			return
		}
	}
}

// settleLoop 专职交付。锁下复查终态标记后才放行响应值。
func (c *Client) settleLoop() {
	for s := range c.settleCh {
		c.mu.Lock()
		term := c.terminal
		c.mu.Unlock()
		if term != nil {
			fail := *term
			fail.Op, fail.ID = s.call.op, s.call.id
			s.call.settle(nil, &fail)
			continue
		}
		if s.msg.OK {
			s.call.settle(s.msg.Value, nil)
		} else {
			s.call.settle(nil, FromWireError(s.msg.Error))
		}
	}
}

// teardown 进入终态：标记在先，之后逐笔拒绝 pending。
// 已入结算队列的请求由结算例程按终态标记拒绝。
func (c *Client) teardown(term *Error, closing bool) {
	c.mu.Lock()
	if c.terminal != nil {
		c.mu.Unlock()
		return
	}
	c.terminal = term
	orphans := make([]*call, 0, len(c.pending))
	for id := range c.pending {
		orphans = append(orphans, c.pending[id])
		delete(c.pending, id)
	}
	c.mu.Unlock()

	for _, cs := range orphans {
		fail := *term
		fail.Op, fail.ID = cs.op, cs.id
		cs.settle(nil, &fail)
	}

	if closing {
		if c.opts.OwnWorker {
			// 尽力通知 worker 清理服务端资源，失败不影响终止
			if err := c.conn.Send(Message{Type: TypeDispose}); err != nil {
				c.logger.Debugw("dispose 信号投递失败", "err", err)
			}
		}
		_ = c.conn.Close()
	}
}

type errUnknownMessage string

func (e errUnknownMessage) Error() string {
	return "未知消息类型: " + string(e)
}

// CallAs 调用并把结果解码为 T。
func CallAs[T any](ctx context.Context, c Caller, op string, args ...any) (T, error) {
	var out T
	raw, err := c.Call(ctx, op, args...)
	if err != nil {
		return out, err
	}
	if len(raw) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, &Error{Fail: FailDecode, Op: op, Cause: err}
	}
	return out, nil
}
