// Package transport 提供后端的 worker/RPC 远程化：请求/响应协议、
// dispose 抢占式结算的客户端、持有后端串行处理请求的工作端、
// 缓存装饰器与 websocket 桥。
package transport

import (
	"encoding/json"

	pkgerrors "github.com/pkg/errors"

	"github.com/rybosome/gospice/spice/backend"
)

// 线上消息类型。
const (
	TypeRequest  = "tspice:request"
	TypeResponse = "tspice:response"
	TypeDispose  = "tspice:dispose"
)

// Message 是线上统一消息。Request 填 ID/Op/Args，Response 填
// ID/OK/Value|Error，Dispose 只有 Type。
// 二进制内核字节走 encoding/json 的 []byte 约定，落线即 base64。
type Message struct {
	Type  string            `json:"type"`
	ID    uint64            `json:"id,omitempty"`
	Op    string            `json:"op,omitempty"`
	Args  []json.RawMessage `json:"args,omitempty"`
	OK    bool              `json:"ok,omitempty"`
	Value json.RawMessage   `json:"value,omitempty"`
	Error *WireError        `json:"error,omitempty"`
}

// WireError 是跨线传递的结构化错误。
type WireError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
	Short   string `json:"short,omitempty"`
	Long    string `json:"long,omitempty"`
	Trace   string `json:"trace,omitempty"`
}

// EncodeArgs 把调用参数逐个序列化为线上形态。
func EncodeArgs(op string, args []any) ([]json.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make([]json.RawMessage, len(args))
	for i, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "序列化 %s() 第 %d 个参数失败", op, i)
		}
		out[i] = raw
	}
	return out, nil
}

// ToWireError 把后端错误降解为线上形态，保留类别与 SPICE 结构化字段。
func ToWireError(err error) *WireError {
	if err == nil {
		return nil
	}
	if sErr, ok := err.(*backend.SpiceError); ok {
		return &WireError{
			Kind:    string(sErr.Kind),
			Message: sErr.Message,
			Short:   sErr.Short,
			Long:    sErr.Long,
			Trace:   sErr.Trace,
		}
	}
	return &WireError{Kind: string(backend.ErrInternal), Message: err.Error()}
}

// FromWireError 恢复为本地错误类型。未知类别归入 internal。
func FromWireError(we *WireError) error {
	if we == nil {
		return nil
	}
	kind := backend.ErrKind(we.Kind)
	switch kind {
	case backend.ErrValidation, backend.ErrSpice, backend.ErrStaging,
		backend.ErrInit, backend.ErrTransport, backend.ErrInternal:
	default:
		kind = backend.ErrInternal
	}
	return &backend.SpiceError{
		Kind:    kind,
		Message: we.Message,
		Short:   we.Short,
		Long:    we.Long,
		Trace:   we.Trace,
	}
}

// ---- 复合返回值的线上形态 -----------------------------------------------

// Found 包裹 found 形态的返回值：未命中时 Value 缺省。
type Found[T any] struct {
	Found bool `json:"found"`
	Value T    `json:"value,omitempty"`
}

// StateValue spkezr/spkez/spkgeo 等"状态+光行时"结果。
type StateValue struct {
	State backend.State6 `json:"state"`
	Lt    float64        `json:"lt"`
}

// PosValue spkpos/spkezp/spkgps 的"位置+光行时"结果。
type PosValue struct {
	Pos backend.Vector3 `json:"pos"`
	Lt  float64         `json:"lt"`
}

// IntervalValue wnfetd 的单个区间。
type IntervalValue struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// PlaneNormal pl2nvc 的法向量+常数项。
type PlaneNormal struct {
	Normal backend.Vector3 `json:"normal"`
	Konst  float64         `json:"konst"`
}
