package codec

import (
	"context"
	"fmt"

	"github.com/rybosome/gospice/spice/backend"
)

// Allocator 是模块内存分配器（malloc/free 导出）。
type Allocator interface {
	Malloc(ctx context.Context, size uint32) (uint32, error)
	Free(ctx context.Context, ptr uint32) error
}

// Arena 是作用域分配器：记录本次调用内的全部临时分配，
// Release 在所有退出路径（含错误路径）统一释放。
// 用法固定为:
//
//	a := codec.NewArena(alloc)
//	defer a.Release(ctx)
type Arena struct {
	alloc Allocator
	ptrs  []uint32
}

// NewArena 创建空作用域分配器。
func NewArena(alloc Allocator) *Arena {
	return &Arena{alloc: alloc}
}

// Alloc 分配 size 字节暂存内存。
func (a *Arena) Alloc(ctx context.Context, size uint32) (uint32, error) {
	if size == 0 {
		size = 1
	}
	ptr, err := a.alloc.Malloc(ctx, size)
	if err != nil {
		return 0, err
	}
	if ptr == 0 {
		return 0, &backend.SpiceError{
			Kind:    backend.ErrInternal,
			Message: fmt.Sprintf("模块内存分配失败: size=%d", size),
		}
	}
	a.ptrs = append(a.ptrs, ptr)
	return ptr, nil
}

// AllocAligned8 分配 8 字节对齐的暂存内存，最多垫 7 字节。
// 底层库按自然对齐访问双精度数组，未对齐访问在部分 WASM 目标上
// 要么陷落要么静默读出错误值。
func (a *Arena) AllocAligned8(ctx context.Context, size uint32) (uint32, error) {
	ptr, err := a.Alloc(ctx, size+7)
	if err != nil {
		return 0, err
	}
	if rem := ptr % 8; rem != 0 {
		ptr += 8 - rem
	}
	return ptr, nil
}

// Release 释放全部暂存分配。回收失败不中断后续释放。
func (a *Arena) Release(ctx context.Context) {
	for i := len(a.ptrs) - 1; i >= 0; i-- {
		_ = a.alloc.Free(ctx, a.ptrs[i])
	}
	a.ptrs = a.ptrs[:0]
}
