package wasmspice

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/tetratelabs/wazero"
	wazeroapi "github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// wasmModule 是后端对已实例化 WASM 模块的最小依赖面。
// 测试用内存假模块替换，生产实现基于 wazero。
type wasmModule interface {
	// Call 调用具名导出函数。导出缺失属于错误而不是 panic。
	Call(ctx context.Context, name string, args ...uint64) ([]uint64, error)
	Memory() codec.Memory
	Malloc(ctx context.Context, size uint32) (uint32, error)
	Free(ctx context.Context, ptr uint32) error
	Close(ctx context.Context) error
}

// newWasmModule 是模块装载工厂，测试替换为假实现。
var newWasmModule = loadWazeroModule

// instantiateAttempts 实例化瞬时失败的最大尝试次数。
const instantiateAttempts = 3

// requiredExports 是模块必须携带的导出，缺一则拒绝启动。
var requiredExports = []string{"malloc", "free", "tspice_last_error", "tspice_tkvrsn"}

func loadWazeroModule(ctx context.Context, cfg backend.Config, mountDir string) (wasmModule, error) {
	wasmBytes, err := os.ReadFile(cfg.ModulePath)
	if err != nil {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrInit,
			Message: fmt.Sprintf("WASM 工件读取失败: %s", cfg.ModulePath),
			Cause:   err,
		}
	}
	if len(wasmBytes) < 4 || string(wasmBytes[:4]) != "\x00asm" {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrInit,
			Message: fmt.Sprintf("不是合法的 WASM 工件: %s", cfg.ModulePath),
		}
	}

	runtime := wazero.NewRuntime(ctx)
	wasi_snapshot_preview1.MustInstantiate(ctx, runtime)

	compiled, err := runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		_ = runtime.Close(ctx)
		return nil, &backend.SpiceError{Kind: backend.ErrInit, Message: "WASM 模块编译失败", Cause: err}
	}

	modCfg := wazero.NewModuleConfig().
		WithName("tspice").
		WithStdout(io.Discard).
		WithStderr(io.Discard).
		WithFSConfig(wazero.NewFSConfig().WithDirMount(mountDir, "/kernels"))

	var mod wazeroapi.Module
	for attempt := 1; ; attempt++ {
		mod, err = runtime.InstantiateModule(ctx, compiled, modCfg)
		if err == nil {
			break
		}
		if attempt >= instantiateAttempts {
			_ = runtime.Close(ctx)
			return nil, &backend.SpiceError{Kind: backend.ErrInit, Message: "WASM 模块实例化失败", Cause: err}
		}
	}

	for _, name := range requiredExports {
		if mod.ExportedFunction(name) == nil {
			_ = runtime.Close(ctx)
			return nil, &backend.SpiceError{
				Kind:    backend.ErrInit,
				Message: fmt.Sprintf("module missing export %q", name),
			}
		}
	}

	return &wazeroModule{runtime: runtime, mod: mod}, nil
}

type wazeroModule struct {
	runtime wazero.Runtime
	mod     wazeroapi.Module
}

func (w *wazeroModule) Call(ctx context.Context, name string, args ...uint64) ([]uint64, error) {
	fn := w.mod.ExportedFunction(name)
	if fn == nil {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrInternal,
			Message: fmt.Sprintf("module missing export %q", name),
		}
	}
	res, err := fn.Call(ctx, args...)
	if err != nil {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrInternal,
			Message: fmt.Sprintf("WASM 调用 %s 异常终止", name),
			Cause:   err,
		}
	}
	return res, nil
}

func (w *wazeroModule) Memory() codec.Memory {
	return wazeroMemory{mem: w.mod.Memory()}
}

func (w *wazeroModule) Malloc(ctx context.Context, size uint32) (uint32, error) {
	res, err := w.Call(ctx, "malloc", uint64(size))
	if err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, &backend.SpiceError{Kind: backend.ErrInternal, Message: "malloc 未返回指针"}
	}
	return uint32(res[0]), nil
}

func (w *wazeroModule) Free(ctx context.Context, ptr uint32) error {
	_, err := w.Call(ctx, "free", uint64(ptr))
	return err
}

func (w *wazeroModule) Close(ctx context.Context) error {
	return w.runtime.Close(ctx)
}

// wazeroMemory 把 wazero 线性内存适配为编解码层的 Memory。
type wazeroMemory struct {
	mem wazeroapi.Memory
}

func (m wazeroMemory) Size() uint32 {
	return m.mem.Size()
}

func (m wazeroMemory) Read(offset, count uint32) ([]byte, error) {
	data, ok := m.mem.Read(offset, count)
	if !ok {
		return nil, codec.RangeError("read", offset, count, m.mem.Size())
	}
	// wazero 返回的是底层内存视图，复制一份避免被后续调用改写
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

func (m wazeroMemory) Write(offset uint32, data []byte) error {
	if !m.mem.Write(offset, data) {
		return codec.RangeError("write", offset, uint32(len(data)), m.mem.Size())
	}
	return nil
}
