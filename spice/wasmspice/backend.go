// Package wasmspice 通过 wazero 运行编译为 WASM/WASI 的 CSPICE，
// 提供与原生后端完全一致的契约实现。所有参数经线性内存编组，
// 内核文件经挂载目录进入客体文件系统。
package wasmspice

import (
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func init() {
	backend.Register(backend.BackendWasm, func() backend.SpiceBackend {
		return &Backend{lifecycle: backend.NewLifecycle()}
	})
}

type Backend struct {
	lifecycle *backend.Lifecycle
	// 客体内 CSPICE 同样是全局状态机，公开操作全部串行。
	mu      sync.Mutex
	mod     wasmModule
	handles *backend.Registry
	stager  *vfsStager
	tempDir string
	logger  *zap.SugaredLogger
	lastErr backend.SpiceErrorDetail
	// spkOut 记录打开中的 SPK 写句柄对应的虚拟输出目标，
	// 关闭即定稿：文件被暂存层收编，可按原拼写再装载。
	spkOut map[int32]spkTarget
}

// spkTarget 是一个待定稿的 SPK 写出目标。
type spkTarget struct {
	canonical string
	spelling  string
}

// New 创建未初始化的 WASM 后端。
func New() *Backend {
	return &Backend{lifecycle: backend.NewLifecycle()}
}

func (b *Backend) Name() backend.BackendName {
	return backend.BackendWasm
}

func (b *Backend) Init(ctx context.Context, cfg backend.Config) error {
	if err := b.lifecycle.BeginInit(); err != nil {
		return err
	}
	err := b.doInit(ctx, cfg)
	b.lifecycle.FinishInit(err)
	return err
}

func (b *Backend) doInit(ctx context.Context, cfg backend.Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	tempDir, err := os.MkdirTemp(cfg.TempDir, "gospice-wasmvfs-")
	if err != nil {
		return &backend.SpiceError{Kind: backend.ErrInit, Message: "挂载目录创建失败", Cause: err}
	}

	mod, err := newWasmModule(ctx, cfg, tempDir)
	if err != nil {
		_ = os.RemoveAll(tempDir)
		return err
	}

	b.mod = mod
	b.tempDir = tempDir
	b.stager = newVFSStager(tempDir, logger)
	b.handles = backend.NewRegistry()
	b.spkOut = map[int32]spkTarget{}
	b.logger = logger
	logger.Debugw("WASM 后端已就绪", "module", cfg.ModulePath, "mount", tempDir)
	return nil
}

func (b *Backend) Dispose() error {
	proceed, err := b.lifecycle.BeginDispose()
	if !proceed {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.stager.ReleaseAll()
	err = b.mod.Close(context.Background())
	_ = os.RemoveAll(b.tempDir)
	b.lifecycle.FinishDispose()
	return err
}

func (b *Backend) LastSpiceError() (backend.SpiceErrorDetail, error) {
	if err := b.ready(); err != nil {
		return backend.SpiceErrorDetail{}, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr, nil
}

func (b *Backend) ready() error {
	return b.lifecycle.Ready()
}

func (b *Backend) mem() codec.Memory {
	return b.mod.Memory()
}

// exec 是所有操作的统一入口：就绪检查、串行化、临时分配的
// 作用域回收都在这里完成，操作体只做编组与调用。
func (b *Backend) exec(fn func(ctx context.Context, a *codec.Arena) error) error {
	if err := b.ready(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	ctx := context.Background()
	a := codec.NewArena(b.mod)
	defer a.Release(ctx)
	return fn(ctx, a)
}

// call 调用一个按约定返回状态码的导出函数。尾参数是本层追加的
// 1841 字节错误缓冲；非零状态读取缓冲并补齐结构化错误字段。
func (b *Backend) call(ctx context.Context, a *codec.Arena, fn string, args ...uint64) error {
	errPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), codec.SpiceMsgLen)
	if err != nil {
		return err
	}
	res, err := b.mod.Call(ctx, fn, append(args, uint64(errPtr))...)
	if err != nil {
		return err
	}
	if len(res) == 0 || int32(uint32(res[0])) == 0 {
		return nil
	}

	message, readErr := codec.ReadCString(b.mem(), errPtr, codec.SpiceMsgLen)
	if readErr != nil || message == "" {
		message = fmt.Sprintf("%s 调用失败", fn)
	}
	detail := b.fetchLastError(ctx, a)
	b.lastErr = detail
	return backend.FromDetail(message, detail)
}

// fetchLastError 读取客体侧保存的最近一次底层错误字段。
// 读取本身失败时退回空 detail，不掩盖原始错误。
func (b *Backend) fetchLastError(ctx context.Context, a *codec.Arena) backend.SpiceErrorDetail {
	var detail backend.SpiceErrorDetail
	shortPtr, err1 := codec.AllocOutBuf(ctx, a, b.mem(), codec.SpiceMsgLen)
	longPtr, err2 := codec.AllocOutBuf(ctx, a, b.mem(), codec.SpiceMsgLen)
	tracePtr, err3 := codec.AllocOutBuf(ctx, a, b.mem(), codec.SpiceMsgLen)
	if err1 != nil || err2 != nil || err3 != nil {
		return detail
	}
	if _, err := b.mod.Call(ctx, "tspice_last_error", uint64(shortPtr), uint64(longPtr), uint64(tracePtr)); err != nil {
		b.logger.Warnw("读取底层错误详情失败", "err", err)
		return detail
	}
	detail.Short, _ = codec.ReadCString(b.mem(), shortPtr, codec.SpiceMsgLen)
	detail.Long, _ = codec.ReadCString(b.mem(), longPtr, codec.SpiceMsgLen)
	detail.Trace, _ = codec.ReadCString(b.mem(), tracePtr, codec.SpiceMsgLen)
	return detail
}

func (b *Backend) Tkvrsn() (version string, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_tkvrsn", uint64(outPtr), uint64(outStrLen)); err != nil {
			return err
		}
		version, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	return version, err
}

// outStrLen 通用字符串输出缓冲长度。
const outStrLen = 256

// ---- 编组小工具 ---------------------------------------------------------

func (b *Backend) inStr(ctx context.Context, a *codec.Arena, s string) (uint64, error) {
	ptr, err := codec.WriteCString(ctx, a, b.mem(), s)
	return uint64(ptr), err
}

func (b *Backend) outF64(ctx context.Context, a *codec.Arena, n int) (uint32, error) {
	return a.AllocAligned8(ctx, uint32(8*n))
}

func (b *Backend) outI32(ctx context.Context, a *codec.Arena, n int) (uint32, error) {
	return a.AllocAligned8(ctx, uint32(4*n))
}

func (b *Backend) inF64s(ctx context.Context, a *codec.Arena, vals []float64) (uint32, error) {
	ptr, err := a.AllocAligned8(ctx, uint32(8*len(vals)))
	if err != nil {
		return 0, err
	}
	if err := codec.WriteF64s(b.mem(), ptr, vals); err != nil {
		return 0, err
	}
	return ptr, nil
}

func (b *Backend) inI32s(ctx context.Context, a *codec.Arena, vals []int32) (uint32, error) {
	ptr, err := a.AllocAligned8(ctx, uint32(4*len(vals)))
	if err != nil {
		return 0, err
	}
	if err := codec.WriteI32s(b.mem(), ptr, vals); err != nil {
		return 0, err
	}
	return ptr, nil
}

func (b *Backend) readVec3(ptr uint32) (backend.Vector3, error) {
	var out backend.Vector3
	vals, err := codec.ReadF64s(b.mem(), ptr, 3)
	if err != nil {
		return out, err
	}
	copy(out[:], vals)
	return out, nil
}

func (b *Backend) readState6(ptr uint32) (backend.State6, error) {
	var out backend.State6
	vals, err := codec.ReadF64s(b.mem(), ptr, 6)
	if err != nil {
		return out, err
	}
	copy(out[:], vals)
	return out, nil
}

func (b *Backend) readMat(ptr uint32, n int) ([]float64, error) {
	return codec.ReadF64s(b.mem(), ptr, n)
}

func (b *Backend) readBool(ptr uint32) (bool, error) {
	v, err := codec.ReadI32(b.mem(), ptr)
	return v != 0, err
}
