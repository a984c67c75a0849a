package transport

import (
	"errors"
	"fmt"
)

// FailKind 区分传输层失败场景：调用方据此分辨"这一笔超时了"
// 和"整个 worker 死了"。
type FailKind string

const (
	FailDisposed  FailKind = "disposed"
	FailTimeout   FailKind = "timeout"
	FailAborted   FailKind = "aborted"
	FailCrashed   FailKind = "worker-crashed"
	FailDecode    FailKind = "deserialization-failed"
	FailScheduler FailKind = "scheduler-unavailable"
)

// Error 是传输层失败。Op/ID 随行，日志里能定位到具体哪一笔请求。
type Error struct {
	Fail  FailKind
	Op    string
	ID    uint64
	Cause error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("transport %s: op=%s id=%d", e.Fail, e.Op, e.ID)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// IsFail 报告 err 是否为指定场景的传输层失败。
func IsFail(err error, kind FailKind) bool {
	var tErr *Error
	return errors.As(err, &tErr) && tErr.Fail == kind
}
