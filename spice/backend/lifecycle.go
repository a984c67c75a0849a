package backend

import "sync/atomic"

// State 表示后端生命周期状态。
type State int32

const (
	StateNew State = iota
	StateIniting
	StateReady
	StateDisposing
	StateClosed
)

// Lifecycle 把后端实例的状态约束收拢为四个原语：
// BeginInit/FinishInit 与 BeginDispose/FinishDispose。
// 两个后端共用同一套转移策略，Init 失败是终态，实例不可复用。
type Lifecycle struct {
	state atomic.Int32
}

// NewLifecycle 创建生命周期管理器，初始状态为 StateNew。
func NewLifecycle() *Lifecycle {
	l := &Lifecycle{}
	l.state.Store(int32(StateNew))
	return l
}

// State 返回当前状态。
func (l *Lifecycle) State() State {
	return State(l.state.Load())
}

func (l *Lifecycle) cas(oldState, newState State) bool {
	return l.state.CompareAndSwap(int32(oldState), int32(newState))
}

// BeginInit 进入 StateIniting。只允许从 StateNew 出发，
// 并发的第二个 Init 在这里被拒绝。
func (l *Lifecycle) BeginInit() error {
	if !l.cas(StateNew, StateIniting) {
		return &SpiceError{
			Kind:    ErrInit,
			Message: "后端已初始化或已关闭, 不能重复 Init",
		}
	}
	return nil
}

// FinishInit 按 Init 结果落到 StateReady 或 StateClosed。
func (l *Lifecycle) FinishInit(err error) {
	if err != nil {
		l.state.Store(int32(StateClosed))
		return
	}
	l.state.Store(int32(StateReady))
}

// BeginDispose 尝试进入 StateDisposing。
// proceed=false 且 err=nil 表示无事可做（从未初始化或已关闭）；
// 与 Init/Dispose 并发竞争时返回错误。
func (l *Lifecycle) BeginDispose() (proceed bool, err error) {
	if l.cas(StateReady, StateDisposing) {
		return true, nil
	}
	if l.cas(StateNew, StateClosed) {
		return false, nil
	}
	if l.State() == StateClosed {
		return false, nil
	}
	return false, &SpiceError{Kind: ErrInit, Message: "后端正在初始化或释放中"}
}

// FinishDispose 落到终态 StateClosed。
func (l *Lifecycle) FinishDispose() {
	l.state.Store(int32(StateClosed))
}

// Ready 在非 StateReady 时返回统一的未就绪错误。
func (l *Lifecycle) Ready() error {
	if l.State() != StateReady {
		return &SpiceError{Kind: ErrInit, Message: "后端未就绪: 需要先 Init 且未 Dispose"}
	}
	return nil
}
