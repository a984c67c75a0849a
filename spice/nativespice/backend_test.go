package nativespice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

// fakeRuntime 嵌入接口并只覆写用到的方法，未覆写的调用会 panic，
// 便于暴露测试未预期的下传。
type fakeRuntime struct {
	nativeRuntime

	furnshed  []string
	furnshErr error
	unloaded  []string
	kdata     []backend.KernelInfo
	disposed  bool

	spkHandles map[int32]bool
	nextSpk    int32

	intCells map[int32][]int32
	nextCell int32

	dpool   map[string][]float64
	ipool   map[string][]int32
	cpool   map[string][]string
	watched map[string][]string
	updated map[string]bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		spkHandles: map[int32]bool{},
		intCells:   map[int32][]int32{},
		nextSpk:    100,
		nextCell:   1,
		dpool:      map[string][]float64{},
		ipool:      map[string][]int32{},
		cpool:      map[string][]string{},
		watched:    map[string][]string{},
		updated:    map[string]bool{},
	}
}

func (f *fakeRuntime) Dispose() error {
	f.disposed = true
	return nil
}

func (f *fakeRuntime) Tkvrsn() (string, error) {
	return "CSPICE_N0067", nil
}

func (f *fakeRuntime) LastError() backend.SpiceErrorDetail {
	return backend.SpiceErrorDetail{}
}

func (f *fakeRuntime) Furnsh(path string) error {
	if f.furnshErr != nil {
		return f.furnshErr
	}
	f.furnshed = append(f.furnshed, path)
	return nil
}

func (f *fakeRuntime) Unload(path string) error {
	f.unloaded = append(f.unloaded, path)
	return nil
}

func (f *fakeRuntime) Kclear() error {
	f.furnshed = nil
	return nil
}

func (f *fakeRuntime) Kdata(which int, kind string) (backend.KernelInfo, bool, error) {
	if which < 0 || which >= len(f.kdata) {
		return backend.KernelInfo{}, false, nil
	}
	return f.kdata[which], true, nil
}

func (f *fakeRuntime) Spkopn(path, ifname string, ncomch int32) (int32, error) {
	h := f.nextSpk
	f.nextSpk++
	f.spkHandles[h] = true
	return h, nil
}

func (f *fakeRuntime) Spkcls(handle int32) error {
	if !f.spkHandles[handle] {
		return backend.Validation("spkcls: 未知原生句柄")
	}
	delete(f.spkHandles, handle)
	return nil
}

func (f *fakeRuntime) NewIntCell(capacity int32) (int32, error) {
	id := f.nextCell
	f.nextCell++
	f.intCells[id] = make([]int32, 0, capacity)
	return id, nil
}

func (f *fakeRuntime) Insrti(item int32, cell int32) error {
	c, ok := f.intCells[cell]
	if !ok {
		return backend.Validation("insrti: 未知原生 cell")
	}
	if len(c) == cap(c) {
		return backend.FromDetail("insrti 调用失败", backend.SpiceErrorDetail{Short: "SPICE(CELLTOOSMALL)"})
	}
	f.intCells[cell] = append(c, item)
	return nil
}

func (f *fakeRuntime) Card(cell int32) (int32, error) {
	c, ok := f.intCells[cell]
	if !ok {
		return 0, backend.Validation("card: 未知原生 cell")
	}
	return int32(len(c)), nil
}

func (f *fakeRuntime) CellGetInt(cell int32, index int32) (int32, error) {
	return f.intCells[cell][index], nil
}

func (f *fakeRuntime) FreeCell(cell int32) error {
	delete(f.intCells, cell)
	return nil
}

// swapRuntime 注入假运行时并在测试结束时还原工厂。
func swapRuntime(t *testing.T, rt *fakeRuntime) {
	t.Helper()
	old := newNativeRuntime
	newNativeRuntime = func(_ backend.Config) (nativeRuntime, error) {
		return rt, nil
	}
	t.Cleanup(func() { newNativeRuntime = old })
}

func newReadyBackend(t *testing.T, rt *fakeRuntime) *Backend {
	t.Helper()
	swapRuntime(t, rt)
	b := New()
	cfg := backend.Config{Name: backend.BackendNative, TempDir: t.TempDir()}
	if err := b.Init(context.Background(), cfg); err != nil {
		t.Fatalf("Init 应成功: %v", err)
	}
	t.Cleanup(func() { _ = b.Dispose() })
	return b
}

func TestInitAndDisposeLifecycle(t *testing.T) {
	rt := newFakeRuntime()
	swapRuntime(t, rt)

	b := New()
	if _, err := b.Tkvrsn(); err == nil {
		t.Fatal("未初始化时调用应报错")
	}

	cfg := backend.Config{Name: backend.BackendNative, TempDir: t.TempDir()}
	if err := b.Init(context.Background(), cfg); err != nil {
		t.Fatalf("Init 应成功: %v", err)
	}
	if err := b.Init(context.Background(), cfg); err == nil {
		t.Fatal("重复 Init 应报错")
	}

	v, err := b.Tkvrsn()
	if err != nil || v != "CSPICE_N0067" {
		t.Fatalf("Tkvrsn 结果不符: %q, %v", v, err)
	}

	if err := b.Dispose(); err != nil {
		t.Fatalf("Dispose 应成功: %v", err)
	}
	if !rt.disposed {
		t.Fatal("Dispose 应下传到运行时")
	}
	if err := b.Dispose(); err != nil {
		t.Fatalf("重复 Dispose 应无害: %v", err)
	}
	if _, err := b.Tkvrsn(); err == nil {
		t.Fatal("关闭后调用应报错")
	}
}

func TestFactoryRegistration(t *testing.T) {
	b, err := backend.New(backend.Config{Name: backend.BackendNative})
	if err != nil {
		t.Fatalf("工厂应认识 native 后端: %v", err)
	}
	if b.Name() != backend.BackendNative {
		t.Fatalf("后端名不符: %s", b.Name())
	}
}

func TestFurnshBytesStagesAndLoads(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	if err := b.Furnsh(backend.KernelBytes("/kernels/meta/base.tm", []byte("\\begindata"))); err != nil {
		t.Fatalf("字节内核装载应成功: %v", err)
	}
	if len(rt.furnshed) != 1 {
		t.Fatalf("应恰好装载一个物理文件, 实得 %d", len(rt.furnshed))
	}
	physical := rt.furnshed[0]
	if strings.Contains(physical, "/kernels/") {
		t.Fatalf("下传给底层库的应是物理路径: %s", physical)
	}
	if filepath.Base(physical) == "base.tm" {
		t.Fatal("物理文件名应加唯一前缀避免碰撞")
	}

	// 枚举时回写虚拟标识
	rt.kdata = []backend.KernelInfo{{File: physical, Filtyp: "META", Source: "", Handle: 0}}
	info, found, err := b.Kdata(0, "ALL")
	if err != nil || !found {
		t.Fatalf("Kdata 应命中: %v", err)
	}
	if info.File != "/kernels/meta/base.tm" {
		t.Fatalf("暂存内核应报告虚拟路径, 实得 %s", info.File)
	}
}

func TestFurnshBytesRollbackOnLoadFailure(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	rt.furnshErr = backend.FromDetail("furnsh 调用失败", backend.SpiceErrorDetail{Short: "SPICE(BADKERNEL)"})
	err := b.Furnsh(backend.KernelBytes("bad.bsp", []byte{1, 2, 3}))
	if err == nil {
		t.Fatal("装载失败应上抛")
	}

	// 暂存必须已回收：同名再次装载不应命中"已有暂存"错误
	rt.furnshErr = nil
	if err := b.Furnsh(backend.KernelBytes("bad.bsp", []byte{1, 2, 3})); err != nil {
		t.Fatalf("回滚后同名装载应成功: %v", err)
	}
}

func TestUnloadVirtualSpellingReleasesStaging(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	if err := b.Furnsh(backend.KernelBytes("sat.bsp", []byte{0x44})); err != nil {
		t.Fatalf("装载应成功: %v", err)
	}
	physical := rt.furnshed[0]

	// 等价拼写也应命中同一条暂存
	if err := b.Unload("/kernels/sat.bsp"); err != nil {
		t.Fatalf("卸载应成功: %v", err)
	}
	if len(rt.unloaded) != 1 || rt.unloaded[0] != physical {
		t.Fatalf("卸载应下传物理路径: %v", rt.unloaded)
	}

	// 释放后同名可以重新装载
	if err := b.Furnsh(backend.KernelBytes("sat.bsp", []byte{0x45})); err != nil {
		t.Fatalf("释放后重新装载应成功: %v", err)
	}
}

func TestSpkHandleLifecycle(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	h, err := b.Spkopn("/tmp/out.bsp", "out", 0)
	if err != nil {
		t.Fatalf("Spkopn 应成功: %v", err)
	}
	if err := b.Spkcls(h); err != nil {
		t.Fatalf("Spkcls 应成功: %v", err)
	}
	if err := b.Spkcls(h); err == nil {
		t.Fatal("重复关闭同一句柄应报错")
	}
	if len(rt.spkHandles) != 0 {
		t.Fatalf("原生句柄应已全部关闭: %v", rt.spkHandles)
	}
}

func TestSpkw08ValidatesStates(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	h, err := b.Spkopn("/tmp/out.bsp", "out", 0)
	if err != nil {
		t.Fatalf("Spkopn 应成功: %v", err)
	}

	err = b.Spkw08(h, 301, 3, "J2000", 0, 100, "seg", 3, []float64{1, 2, 3}, 0, 50)
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) || sErr.Kind != backend.ErrValidation {
		t.Fatalf("非 6 倍长度应返回校验错误, 实得 %v", err)
	}
	if err := b.Spkw08(h, 301, 3, "J2000", 0, 100, "seg", 3, nil, 0, 50); err == nil {
		t.Fatal("空 states 应被拒绝")
	}
}

func TestIntCellRoundTripAndKindSafety(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	cell, err := b.NewIntCell(2)
	if err != nil {
		t.Fatalf("NewIntCell 应成功: %v", err)
	}
	if err := b.Insrti(7, cell); err != nil {
		t.Fatalf("插入应成功: %v", err)
	}
	if err := b.Insrti(3, cell); err != nil {
		t.Fatalf("插入应成功: %v", err)
	}
	if err := b.Insrti(9, cell); err == nil {
		t.Fatal("超出容量的插入应报错而不是扩容")
	}

	n, err := b.Card(cell)
	if err != nil || n != 2 {
		t.Fatalf("Card 结果不符: %d, %v", n, err)
	}
	v, err := b.CellGetInt(cell, 1)
	if err != nil || v != 3 {
		t.Fatalf("CellGetInt 结果不符: %d, %v", v, err)
	}

	// int cell 句柄不能当 window 用
	if err := b.Wninsd(0, 1, cell); err == nil {
		t.Fatal("种类不符的句柄应被拒绝")
	}

	if err := b.FreeCell(cell); err != nil {
		t.Fatalf("FreeCell 应成功: %v", err)
	}
	if _, err := b.Card(cell); err == nil {
		t.Fatal("释放后的句柄应失效")
	}
}

func TestValidationRejectsOutOfRangeInt(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	_, _, err := b.Spkez(1<<40, 0, "J2000", "NONE", 399)
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) || sErr.Kind != backend.ErrValidation {
		t.Fatalf("超出 int32 的编号应返回校验错误, 实得 %v", err)
	}
}

func TestRefurnshSameVirtualPathReplacesStaging(t *testing.T) {
	rt := newFakeRuntime()
	b := newReadyBackend(t, rt)

	if err := b.Furnsh(backend.KernelBytes("naif0012.tls", []byte("v1"))); err != nil {
		t.Fatalf("首次装载应成功: %v", err)
	}
	first, ok := b.stager.Staged("/kernels/naif0012.tls")
	if !ok {
		t.Fatal("首次装载后应有暂存映射")
	}

	if err := b.Furnsh(backend.KernelBytes("naif0012.tls", []byte("v2"))); err != nil {
		t.Fatalf("重复装载同一虚拟路径应成功: %v", err)
	}
	if len(rt.unloaded) != 1 || rt.unloaded[0] != first {
		t.Fatalf("应先卸载旧物理文件 %q, 实得 %v", first, rt.unloaded)
	}

	second, ok := b.stager.Staged("/kernels/naif0012.tls")
	if !ok || second == first {
		t.Fatalf("重新暂存应换新物理文件: 旧=%q 新=%q", first, second)
	}
	if len(rt.furnshed) != 2 || rt.furnshed[1] != second {
		t.Fatalf("新物理文件应下传装载: %v", rt.furnshed)
	}
	data, err := os.ReadFile(second)
	if err != nil || string(data) != "v2" {
		t.Fatalf("新字节应已落盘: %q, %v", data, err)
	}
	if _, err := os.Stat(first); !os.IsNotExist(err) {
		t.Fatalf("旧物理文件应已删除: %v", err)
	}
}
