package wasmspice

import (
	"context"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
	"github.com/rybosome/gospice/spice/staging"
)

// fakeModule 是纯内存的模块替身：线性内存 + 顺序分配器 +
// 按导出名分发的处理函数表。
type fakeModule struct {
	mem      *fakeMemory
	next     uint32
	frees    []uint32
	handlers map[string]func(args []uint64) uint64
	calls    []string
	closed   bool

	// 失败注入：命中的导出返回非零状态并写入错误缓冲
	failExport string
}

type fakeMemory struct {
	data []byte
}

func (m *fakeMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *fakeMemory) Read(offset, count uint32) ([]byte, error) {
	if uint64(offset)+uint64(count) > uint64(len(m.data)) {
		return nil, codec.RangeError("read", offset, count, m.Size())
	}
	out := make([]byte, count)
	copy(out, m.data[offset:offset+count])
	return out, nil
}

func (m *fakeMemory) Write(offset uint32, data []byte) error {
	if uint64(offset)+uint64(len(data)) > uint64(len(m.data)) {
		return codec.RangeError("write", offset, uint32(len(data)), m.Size())
	}
	copy(m.data[offset:], data)
	return nil
}

func newFakeModule() *fakeModule {
	f := &fakeModule{
		mem:      &fakeMemory{data: make([]byte, 1<<20)},
		next:     8,
		handlers: map[string]func(args []uint64) uint64{},
	}
	f.handlers["tspice_last_error"] = func(args []uint64) uint64 {
		f.writeCStr(uint32(args[0]), "SPICE(FAKEERROR)")
		f.writeCStr(uint32(args[1]), "injected failure long message")
		f.writeCStr(uint32(args[2]), "fake_entry")
		return 0
	}
	return f
}

func (f *fakeModule) writeCStr(ptr uint32, s string) {
	copy(f.mem.data[ptr:], append([]byte(s), 0))
}

func (f *fakeModule) Call(_ context.Context, name string, args ...uint64) ([]uint64, error) {
	f.calls = append(f.calls, name)
	h, ok := f.handlers[name]
	if !ok {
		return nil, &backend.SpiceError{Kind: backend.ErrInternal, Message: "module missing export " + name}
	}
	if name == f.failExport {
		// 约定：状态调用的尾参数是错误缓冲
		f.writeCStr(uint32(args[len(args)-1]), "fake failure: "+name)
		return []uint64{1}, nil
	}
	return []uint64{h(args)}, nil
}

func (f *fakeModule) Memory() codec.Memory { return f.mem }

func (f *fakeModule) Malloc(_ context.Context, size uint32) (uint32, error) {
	ptr := f.next
	f.next += size
	return ptr, nil
}

func (f *fakeModule) Free(_ context.Context, ptr uint32) error {
	f.frees = append(f.frees, ptr)
	return nil
}

func (f *fakeModule) Close(_ context.Context) error {
	f.closed = true
	return nil
}

func (f *fakeModule) readCStr(ptr uint32) string {
	s, _ := codec.ReadCString(f.mem, ptr, codec.SpiceMsgLen)
	return s
}

func swapModule(t *testing.T, f *fakeModule) {
	t.Helper()
	old := newWasmModule
	newWasmModule = func(_ context.Context, _ backend.Config, _ string) (wasmModule, error) {
		return f, nil
	}
	t.Cleanup(func() { newWasmModule = old })
}

func newReadyBackend(t *testing.T, f *fakeModule) *Backend {
	t.Helper()
	swapModule(t, f)
	b := New()
	cfg := backend.Config{Name: backend.BackendWasm, ModulePath: "fake.wasm", TempDir: t.TempDir()}
	if err := b.Init(context.Background(), cfg); err != nil {
		t.Fatalf("Init 应成功: %v", err)
	}
	t.Cleanup(func() { _ = b.Dispose() })
	return b
}

func TestStr2etMarshalsThroughLinearMemory(t *testing.T) {
	f := newFakeModule()
	var gotUTC string
	f.handlers["tspice_str2et"] = func(args []uint64) uint64 {
		gotUTC = f.readCStr(uint32(args[0]))
		if err := codec.WriteF64s(f.mem, uint32(args[1]), []float64{42.5}); err != nil {
			t.Fatalf("写输出失败: %v", err)
		}
		return 0
	}

	b := newReadyBackend(t, f)
	et, err := b.Str2et("2000 JAN 01 12:00:00")
	if err != nil {
		t.Fatalf("Str2et 应成功: %v", err)
	}
	if et != 42.5 {
		t.Fatalf("输出未按小端双精度读回: %v", et)
	}
	if gotUTC != "2000 JAN 01 12:00:00" {
		t.Fatalf("输入字符串编组不符: %q", gotUTC)
	}
}

func TestCallReleasesAllAllocations(t *testing.T) {
	f := newFakeModule()
	f.handlers["tspice_str2et"] = func(args []uint64) uint64 {
		_ = codec.WriteF64s(f.mem, uint32(args[1]), []float64{1})
		return 0
	}

	b := newReadyBackend(t, f)
	f.frees = nil
	if _, err := b.Str2et("x"); err != nil {
		t.Fatalf("Str2et 应成功: %v", err)
	}
	// 输入串 + 输出 f64 + 错误缓冲
	if len(f.frees) != 3 {
		t.Fatalf("作用域结束应释放全部 3 次分配, 实得 %d", len(f.frees))
	}
}

func TestFailedStatusSurfacesStructuredError(t *testing.T) {
	f := newFakeModule()
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 { return 0 }
	f.failExport = "tspice_furnsh"

	b := newReadyBackend(t, f)
	err := b.Furnsh(backend.KernelBytes("bad.bsp", []byte{1}))
	if err == nil {
		t.Fatal("非零状态应转换为错误")
	}
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) {
		t.Fatalf("错误类型不符: %T", err)
	}
	if sErr.Kind != backend.ErrSpice {
		t.Fatalf("错误种类不符: %s", sErr.Kind)
	}
	if sErr.Short != "SPICE(FAKEERROR)" || sErr.Trace != "fake_entry" {
		t.Fatalf("结构化字段缺失: %+v", sErr)
	}
	if !strings.Contains(sErr.Message, "fake failure") {
		t.Fatalf("错误缓冲内容未进入消息: %q", sErr.Message)
	}

	detail, derr := b.LastSpiceError()
	if derr != nil || detail.Short != "SPICE(FAKEERROR)" {
		t.Fatalf("LastSpiceError 应保留最近错误: %+v, %v", detail, derr)
	}
}

func TestFurnshBytesLandsInMountDir(t *testing.T) {
	f := newFakeModule()
	var guestPath string
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 {
		guestPath = f.readCStr(uint32(args[0]))
		return 0
	}

	swapModule(t, f)
	b := New()
	tempDir := t.TempDir()
	if err := b.Init(context.Background(), backend.Config{Name: backend.BackendWasm, TempDir: tempDir}); err != nil {
		t.Fatalf("Init 应成功: %v", err)
	}
	t.Cleanup(func() { _ = b.Dispose() })

	if err := b.Furnsh(backend.KernelBytes("meta/base.tm", []byte("\\begindata"))); err != nil {
		t.Fatalf("装载应成功: %v", err)
	}
	if guestPath != "/kernels/meta/base.tm" {
		t.Fatalf("客体应收到规范虚拟路径, 实得 %q", guestPath)
	}

	// 宿主侧挂载目录内应有同相对路径的文件
	matches, err := filepath.Glob(filepath.Join(tempDir, "gospice-wasmvfs-*", "meta", "base.tm"))
	if err != nil || len(matches) != 1 {
		t.Fatalf("挂载目录内应落地内核文件: %v, %v", matches, err)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil || string(data) != "\\begindata" {
		t.Fatalf("落地内容不符: %q, %v", data, err)
	}
}

func TestUnloadReleasesStagedKernel(t *testing.T) {
	f := newFakeModule()
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 { return 0 }
	f.handlers["tspice_unload"] = func(args []uint64) uint64 { return 0 }

	b := newReadyBackend(t, f)
	if err := b.Furnsh(backend.KernelBytes("sat.bsp", []byte{7})); err != nil {
		t.Fatalf("装载应成功: %v", err)
	}
	if !b.stager.Staged("/kernels/sat.bsp") {
		t.Fatal("装载后应有暂存记录")
	}
	if err := b.Unload("/kernels/sat.bsp"); err != nil {
		t.Fatalf("卸载应成功: %v", err)
	}
	if b.stager.Staged("/kernels/sat.bsp") {
		t.Fatal("卸载后暂存记录应被释放")
	}
	// 同名可以重新装载
	if err := b.Furnsh(backend.KernelBytes("sat.bsp", []byte{8})); err != nil {
		t.Fatalf("释放后重新装载应成功: %v", err)
	}
}

func TestWindowHandleRoundTrip(t *testing.T) {
	f := newFakeModule()
	intervals := map[int32][]float64{}
	var nextID int32 = 1
	f.handlers["tspice_window_new"] = func(args []uint64) uint64 {
		id := nextID
		nextID++
		intervals[id] = nil
		_ = codec.WriteI32s(f.mem, uint32(args[1]), []int32{id})
		return 0
	}
	f.handlers["tspice_wninsd"] = func(args []uint64) uint64 {
		id := int32(uint32(args[2]))
		intervals[id] = append(intervals[id], f64FromBits(args[0]), f64FromBits(args[1]))
		return 0
	}
	f.handlers["tspice_wncard"] = func(args []uint64) uint64 {
		id := int32(uint32(args[0]))
		_ = codec.WriteI32s(f.mem, uint32(args[1]), []int32{int32(len(intervals[id]) / 2)})
		return 0
	}
	f.handlers["tspice_wnfetd"] = func(args []uint64) uint64 {
		id := int32(uint32(args[0]))
		n := int(uint32(args[1]))
		_ = codec.WriteF64s(f.mem, uint32(args[2]), []float64{intervals[id][2*n]})
		_ = codec.WriteF64s(f.mem, uint32(args[3]), []float64{intervals[id][2*n+1]})
		return 0
	}
	f.handlers["tspice_window_free"] = func(args []uint64) uint64 {
		delete(intervals, int32(uint32(args[0])))
		return 0
	}

	b := newReadyBackend(t, f)
	w, err := b.NewWindow(10)
	if err != nil {
		t.Fatalf("NewWindow 应成功: %v", err)
	}
	if err := b.Wninsd(1, 2, w); err != nil {
		t.Fatalf("Wninsd 应成功: %v", err)
	}
	n, err := b.Wncard(w)
	if err != nil || n != 1 {
		t.Fatalf("Wncard 结果不符: %d, %v", n, err)
	}
	left, right, err := b.Wnfetd(w, 0)
	if err != nil || left != 1 || right != 2 {
		t.Fatalf("Wnfetd 结果不符: %v %v %v", left, right, err)
	}
	if err := b.FreeWindow(w); err != nil {
		t.Fatalf("FreeWindow 应成功: %v", err)
	}
	if _, err := b.Wncard(w); err == nil {
		t.Fatal("释放后的句柄应失效")
	}
	if len(intervals) != 0 {
		t.Fatalf("客体侧窗口应已释放: %v", intervals)
	}
}

func TestDisposeClosesModuleAndRemovesMount(t *testing.T) {
	f := newFakeModule()
	swapModule(t, f)
	b := New()
	tempDir := t.TempDir()
	if err := b.Init(context.Background(), backend.Config{Name: backend.BackendWasm, TempDir: tempDir}); err != nil {
		t.Fatalf("Init 应成功: %v", err)
	}
	mount := b.tempDir
	if err := b.Dispose(); err != nil {
		t.Fatalf("Dispose 应成功: %v", err)
	}
	if !f.closed {
		t.Fatal("Dispose 应关闭模块")
	}
	if _, err := os.Stat(mount); !os.IsNotExist(err) {
		t.Fatalf("挂载目录应被移除: %v", err)
	}
	if err := b.Dispose(); err != nil {
		t.Fatalf("重复 Dispose 应无害: %v", err)
	}
	if _, err := b.Tkvrsn(); err == nil {
		t.Fatal("关闭后调用应报错")
	}
}

func f64FromBits(bits uint64) float64 {
	return math.Float64frombits(bits)
}

func (f *fakeModule) writeU32(ptr uint32, v uint32) {
	binary.LittleEndian.PutUint32(f.mem.data[ptr:], v)
}

func TestRefurnshSameVirtualPathReplacesBytes(t *testing.T) {
	f := newFakeModule()
	var furnshed, unloaded []string
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 {
		furnshed = append(furnshed, f.readCStr(uint32(args[0])))
		return 0
	}
	f.handlers["tspice_unload"] = func(args []uint64) uint64 {
		unloaded = append(unloaded, f.readCStr(uint32(args[0])))
		return 0
	}

	b := newReadyBackend(t, f)
	if err := b.Furnsh(backend.KernelBytes("naif0012.tls", []byte("v1"))); err != nil {
		t.Fatalf("首次装载应成功: %v", err)
	}
	if err := b.Furnsh(backend.KernelBytes("naif0012.tls", []byte("v2"))); err != nil {
		t.Fatalf("重复装载同一虚拟路径应成功: %v", err)
	}

	if len(unloaded) != 1 || unloaded[0] != "/kernels/naif0012.tls" {
		t.Fatalf("应先在客体里卸掉旧文件: %v", unloaded)
	}
	if len(furnshed) != 2 || furnshed[1] != "/kernels/naif0012.tls" {
		t.Fatalf("新文件应再次装载: %v", furnshed)
	}
	data, err := os.ReadFile(filepath.Join(b.tempDir, "naif0012.tls"))
	if err != nil || string(data) != "v2" {
		t.Fatalf("挂载目录应已换成新字节: %q, %v", data, err)
	}
}

func TestUnloadByHostSpellingReleasesStaging(t *testing.T) {
	f := newFakeModule()
	var furnshed, unloaded []string
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 {
		furnshed = append(furnshed, f.readCStr(uint32(args[0])))
		return 0
	}
	f.handlers["tspice_unload"] = func(args []uint64) uint64 {
		unloaded = append(unloaded, f.readCStr(uint32(args[0])))
		return 0
	}

	host := filepath.Join(t.TempDir(), "naif0012.tls")
	if err := os.WriteFile(host, []byte("KPL/LSK"), 0o644); err != nil {
		t.Fatalf("准备宿主内核失败: %v", err)
	}
	canonical, err := staging.Canonicalize(host)
	if err != nil {
		t.Fatalf("规范化失败: %v", err)
	}

	b := newReadyBackend(t, f)
	if err := b.Furnsh(backend.Kernel(host)); err != nil {
		t.Fatalf("宿主路径装载应成功: %v", err)
	}
	if len(furnshed) != 1 || furnshed[0] != canonical {
		t.Fatalf("客体应收到规范虚拟路径: %v", furnshed)
	}

	// 同一拼写的卸载要解析回客体路径并释放暂存
	if err := b.Unload(host); err != nil {
		t.Fatalf("按宿主拼写卸载应成功: %v", err)
	}
	if len(unloaded) != 1 || unloaded[0] != canonical {
		t.Fatalf("客体卸载路径应与装载路径一致: %v", unloaded)
	}
	if b.stager.Staged(canonical) {
		t.Fatal("卸载后暂存映射应已释放")
	}
}

func TestKdataReportsCallerSpelling(t *testing.T) {
	f := newFakeModule()
	var guestPath string
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 {
		guestPath = f.readCStr(uint32(args[0]))
		return 0
	}
	f.handlers["tspice_kdata"] = func(args []uint64) uint64 {
		f.writeCStr(uint32(args[2]), guestPath)
		f.writeCStr(uint32(args[3]), "LSK")
		f.writeCStr(uint32(args[4]), guestPath)
		f.writeU32(uint32(args[6]), 12)
		f.writeU32(uint32(args[7]), 1)
		return 0
	}

	host := filepath.Join(t.TempDir(), "naif0012.tls")
	if err := os.WriteFile(host, []byte("KPL/LSK"), 0o644); err != nil {
		t.Fatalf("准备宿主内核失败: %v", err)
	}

	b := newReadyBackend(t, f)
	if err := b.Furnsh(backend.Kernel(host)); err != nil {
		t.Fatalf("宿主路径装载应成功: %v", err)
	}

	info, found, err := b.Kdata(0, "ALL")
	if err != nil || !found {
		t.Fatalf("Kdata 应命中: %v, %v", found, err)
	}
	if info.File != host {
		t.Fatalf("清单应回写调用方拼写: got=%q want=%q", info.File, host)
	}
}

func TestClosedSpkOutputCanBeReloaded(t *testing.T) {
	f := newFakeModule()
	var furnshed []string
	f.handlers["tspice_spkopn"] = func(args []uint64) uint64 {
		f.writeU32(uint32(args[3]), 77)
		return 0
	}
	f.handlers["tspice_spkcls"] = func(args []uint64) uint64 { return 0 }
	f.handlers["tspice_furnsh"] = func(args []uint64) uint64 {
		furnshed = append(furnshed, f.readCStr(uint32(args[0])))
		return 0
	}

	b := newReadyBackend(t, f)
	h, err := b.Spkopn("out.bsp", "test segment", 0)
	if err != nil {
		t.Fatalf("Spkopn 应成功: %v", err)
	}
	// 客体在挂载目录写出文件
	if err := os.WriteFile(filepath.Join(b.tempDir, "out.bsp"), []byte("DAF/SPK"), 0o644); err != nil {
		t.Fatalf("模拟客体写出失败: %v", err)
	}
	if err := b.Spkcls(h); err != nil {
		t.Fatalf("Spkcls 应成功: %v", err)
	}

	// 关闭即定稿：原拼写可直接再装载，不经过宿主文件系统
	if err := b.Furnsh(backend.Kernel("out.bsp")); err != nil {
		t.Fatalf("写出内核定稿后应可再装载: %v", err)
	}
	if len(furnshed) != 1 || furnshed[0] != "/kernels/out.bsp" {
		t.Fatalf("装载应走客体路径: %v", furnshed)
	}
	if spelling, ok := b.stager.SpellingFor("/kernels/out.bsp"); !ok || spelling != "out.bsp" {
		t.Fatalf("定稿内核应按拼写登记: %q, %v", spelling, ok)
	}
}
