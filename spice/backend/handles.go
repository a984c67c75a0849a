package backend

import (
	"encoding/json"
	"fmt"
	"sync"
)

// HandleKind 标识句柄指向的资源种类。
type HandleKind uint8

const (
	KindInvalid HandleKind = iota
	KindDAF
	KindDAS
	KindDLA
	KindSPK
	KindIntCell
	KindDoubleCell
	KindCharCell
	KindWindow
)

func (k HandleKind) String() string {
	switch k {
	case KindDAF:
		return "DAF"
	case KindDAS:
		return "DAS"
	case KindDLA:
		return "DLA"
	case KindSPK:
		return "SPK"
	case KindIntCell:
		return "IntCell"
	case KindDoubleCell:
		return "DoubleCell"
	case KindCharCell:
		return "CharCell"
	case KindWindow:
		return "Window"
	default:
		return "Invalid"
	}
}

// Handle 是后端签发的不透明资源句柄。
// 对外永远不暴露底层库原生编号，防止调用方伪造出恰好碰撞的句柄。
type Handle struct {
	index uint32
	gen   uint32
}

// IsZero 报告句柄是否为零值（从未签发）。
func (h Handle) IsZero() bool {
	return h.gen == 0
}

func (h Handle) String() string {
	return fmt.Sprintf("handle(%d:%d)", h.index, h.gen)
}

// handleWire 是句柄的 RPC 线上形态。世代计数随行，伪造或过期的
// 句柄在工作端查找时照常被拒绝。
type handleWire struct {
	Index uint32 `json:"index"`
	Gen   uint32 `json:"gen"`
}

func (h Handle) MarshalJSON() ([]byte, error) {
	return json.Marshal(handleWire{Index: h.index, Gen: h.gen})
}

func (h *Handle) UnmarshalJSON(data []byte) error {
	var w handleWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	h.index = w.Index
	h.gen = w.Gen
	return nil
}

type handleSlot struct {
	kind   HandleKind
	native int32
	gen    uint32
	live   bool
}

// Registry 是句柄竞技场：本地自增槽位 + 世代计数。
// 槽位复用时世代递增，已关闭/过期句柄在查找时即被拒绝。
type Registry struct {
	mu    sync.Mutex
	slots []handleSlot
	free  []uint32
	live  int
}

// NewRegistry 创建空句柄注册表。
func NewRegistry() *Registry {
	return &Registry{}
}

// Register 签发新句柄。
func (r *Registry) Register(kind HandleKind, native int32) Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		r.slots = append(r.slots, handleSlot{})
		idx = uint32(len(r.slots) - 1)
	}

	slot := &r.slots[idx]
	slot.gen++
	slot.kind = kind
	slot.native = native
	slot.live = true
	r.live++

	return Handle{index: idx, gen: slot.gen}
}

// Lookup 解引用句柄并校验种类。
// 未知、已关闭或种类不符的句柄一律报错，绝不落到错误的资源上。
func (r *Registry) Lookup(h Handle, kinds ...HandleKind) (int32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	slot, err := r.locate(h, kinds)
	if err != nil {
		return 0, err
	}
	return slot.native, nil
}

// Close 关闭句柄：先调用底层关闭例程，成功后才移除映射。
func (r *Registry) Close(h Handle, kinds []HandleKind, closeFn func(native int32) error) error {
	r.mu.Lock()
	slot, err := r.locate(h, kinds)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	native := slot.native
	r.mu.Unlock()

	if closeFn != nil {
		if err := closeFn(native); err != nil {
			return err
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// 关闭窗口内句柄可能被并发释放，二次定位失败视为已关闭。
	slot, err = r.locate(h, nil)
	if err != nil {
		return nil
	}
	slot.live = false
	slot.gen++ // 世代前移，旧句柄立即失效
	r.free = append(r.free, h.index)
	r.live--
	return nil
}

// Len 返回存活句柄数，供清理断言使用。
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

func (r *Registry) locate(h Handle, kinds []HandleKind) (*handleSlot, error) {
	if h.IsZero() || int(h.index) >= len(r.slots) {
		return nil, Validation(fmt.Sprintf("未知句柄 %s", h))
	}
	slot := &r.slots[h.index]
	if !slot.live || slot.gen != h.gen {
		return nil, Validation(fmt.Sprintf("句柄 %s 已关闭或已过期", h))
	}
	if len(kinds) > 0 {
		ok := false
		for _, k := range kinds {
			if slot.kind == k {
				ok = true
				break
			}
		}
		if !ok {
			return nil, Validation(fmt.Sprintf("句柄种类不符: got=%s want=%v", slot.kind, kinds))
		}
	}
	return slot, nil
}
