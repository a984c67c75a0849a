// Package nativespice 提供进程内直连 CSPICE 的后端实现。
// 真实运行时需要 -tags cspice 与本机 CSPICE 库；默认构建只保留
// 可注入测试替身的骨架。
package nativespice

import (
	"context"

	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
	"github.com/rybosome/gospice/spice/staging"
)

func init() {
	backend.Register(backend.BackendNative, func() backend.SpiceBackend {
		return &Backend{lifecycle: backend.NewLifecycle()}
	})
}

// Backend 把底层运行时包装为统一后端契约：
// 生命周期管理、句柄签发、内核暂存与参数校验都在这一层完成，
// 运行时只承担与底层库一比一的调用。
type Backend struct {
	lifecycle *backend.Lifecycle
	rt        nativeRuntime
	handles   *backend.Registry
	hostfs    *staging.HostFS
	stager    *staging.Stager
	logger    *zap.SugaredLogger
}

// New 创建未初始化的原生后端。
func New() *Backend {
	return &Backend{lifecycle: backend.NewLifecycle()}
}

func (b *Backend) Name() backend.BackendName {
	return backend.BackendNative
}

// Init 创建底层运行时与内核暂存目录。只允许从初始状态调用一次。
func (b *Backend) Init(ctx context.Context, cfg backend.Config) error {
	if err := b.lifecycle.BeginInit(); err != nil {
		return err
	}
	err := b.doInit(ctx, cfg)
	b.lifecycle.FinishInit(err)
	return err
}

func (b *Backend) doInit(ctx context.Context, cfg backend.Config) error {
	if err := ctx.Err(); err != nil {
		return &backend.SpiceError{Kind: backend.ErrInit, Message: "初始化被取消", Cause: err}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	rt, err := newNativeRuntime(cfg)
	if err != nil {
		return err
	}

	hostfs, err := staging.NewHostFS(cfg.TempDir)
	if err != nil {
		_ = rt.Dispose()
		return &backend.SpiceError{Kind: backend.ErrInit, Message: "暂存目录创建失败", Cause: err}
	}

	b.rt = rt
	b.hostfs = hostfs
	b.stager = staging.New(hostfs, logger)
	b.handles = backend.NewRegistry()
	b.logger = logger
	logger.Debugw("原生后端已就绪", "tempRoot", hostfs.Root())
	return nil
}

// Dispose 释放全部暂存内核与底层运行时。重复调用无害。
func (b *Backend) Dispose() error {
	proceed, err := b.lifecycle.BeginDispose()
	if !proceed {
		return err
	}

	b.stager.ReleaseAll()
	err = b.rt.Dispose()
	b.hostfs.Destroy()
	b.lifecycle.FinishDispose()
	return err
}

func (b *Backend) Tkvrsn() (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	return b.rt.Tkvrsn()
}

func (b *Backend) LastSpiceError() (backend.SpiceErrorDetail, error) {
	if err := b.ready(); err != nil {
		return backend.SpiceErrorDetail{}, err
	}
	return b.rt.LastError(), nil
}

func (b *Backend) ready() error {
	return b.lifecycle.Ready()
}

// resolveRead 把可能的虚拟内核路径换成物理位置；普通路径原样返回。
func (b *Backend) resolveRead(path string) string {
	p, _, _ := b.stager.ResolveUnload(path)
	return p
}

// ---- 运行时返回值到契约类型的转换 ---------------------------------------

func toVec3(fn string, v []float64) (backend.Vector3, error) {
	var out backend.Vector3
	if err := codec.ExpectLen(fn, "vector", v, 3); err != nil {
		return out, err
	}
	copy(out[:], v)
	return out, nil
}

func toState6(fn string, s []float64) (backend.State6, error) {
	var out backend.State6
	if err := codec.ExpectLen(fn, "state", s, 6); err != nil {
		return out, err
	}
	copy(out[:], s)
	return out, nil
}

func toMat3(fn string, m []float64) (backend.Matrix3x3, error) {
	var out backend.Matrix3x3
	if err := codec.ExpectLen(fn, "matrix", m, 9); err != nil {
		return out, err
	}
	copy(out[:], m)
	return out, nil
}

func toMat6(fn string, m []float64) (backend.Matrix6x6, error) {
	var out backend.Matrix6x6
	if err := codec.ExpectLen(fn, "matrix", m, 36); err != nil {
		return out, err
	}
	copy(out[:], m)
	return out, nil
}

func toSpkDescr(fn string, d []float64) (backend.SpkDescriptor, error) {
	var out backend.SpkDescriptor
	if err := codec.ExpectLen(fn, "descriptor", d, codec.SpkDescrLen); err != nil {
		return out, err
	}
	copy(out[:], d)
	return out, nil
}

func toPlane(fn string, p []float64) (backend.Plane, error) {
	var out backend.Plane
	if err := codec.ExpectLen(fn, "plane", p, 4); err != nil {
		return out, err
	}
	copy(out[:], p)
	return out, nil
}
