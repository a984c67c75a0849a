package transport

import (
	"sync"

	pkgerrors "github.com/pkg/errors"
)

// Conn 是一条消息通道的最小抽象：进程内管道或 websocket 桥。
// Receive 阻塞直到有消息或通道终止；终止后返回错误。
type Conn interface {
	Send(msg Message) error
	Receive() (Message, error)
	Close() error
}

// errConnClosed 管道任意一端关闭后双方收发都得到它。
var errConnClosed = pkgerrors.New("连接已关闭")

// pipeConn 是基于通道的进程内 Conn。同进程 worker 和测试都用它。
type pipeConn struct {
	send chan Message
	recv chan Message
	done chan struct{}
	once *sync.Once
}

// NewPipe 创建一对背靠背的进程内连接。任一端 Close 终止双向通信。
func NewPipe() (Conn, Conn) {
	a2b := make(chan Message, 16)
	b2a := make(chan Message, 16)
	done := make(chan struct{})
	once := &sync.Once{}
	a := &pipeConn{send: a2b, recv: b2a, done: done, once: once}
	b := &pipeConn{send: b2a, recv: a2b, done: done, once: once}
	return a, b
}

func (p *pipeConn) Send(msg Message) error {
	select {
	case p.send <- msg:
		return nil
	case <-p.done:
		return errConnClosed
	}
}

func (p *pipeConn) Receive() (Message, error) {
	select {
	case msg := <-p.recv:
		return msg, nil
	case <-p.done:
		// 关闭前已入队的消息仍然交付
		select {
		case msg := <-p.recv:
			return msg, nil
		default:
			return Message{}, errConnClosed
		}
	}
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.done) })
	return nil
}
