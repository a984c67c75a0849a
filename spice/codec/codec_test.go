package codec

import (
	"context"
	"strings"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

// fakeMemory 纯内存实现，带严格越界检查。
type fakeMemory struct {
	data []byte
}

func newFakeMemory(size int) *fakeMemory {
	return &fakeMemory{data: make([]byte, size)}
}

func (m *fakeMemory) Size() uint32 { return uint32(len(m.data)) }

func (m *fakeMemory) Read(offset, count uint32) ([]byte, error) {
	end := uint64(offset) + uint64(count)
	if end > uint64(len(m.data)) {
		return nil, RangeError("read", offset, count, m.Size())
	}
	out := make([]byte, count)
	copy(out, m.data[offset:end])
	return out, nil
}

func (m *fakeMemory) Write(offset uint32, data []byte) error {
	end := uint64(offset) + uint64(len(data))
	if end > uint64(len(m.data)) {
		return RangeError("write", offset, uint32(len(data)), m.Size())
	}
	copy(m.data[offset:end], data)
	return nil
}

// fakeAlloc 顺移分配器，记录释放情况。
type fakeAlloc struct {
	next   uint32
	freed  []uint32
	failAt int
	calls  int
}

func (a *fakeAlloc) Malloc(_ context.Context, size uint32) (uint32, error) {
	a.calls++
	if a.failAt > 0 && a.calls == a.failAt {
		return 0, backend.Validation("注入的分配失败")
	}
	if a.next == 0 {
		a.next = 8
	}
	ptr := a.next
	a.next += size
	return ptr, nil
}

func (a *fakeAlloc) Free(_ context.Context, ptr uint32) error {
	a.freed = append(a.freed, ptr)
	return nil
}

func TestF64RoundTripAndBounds(t *testing.T) {
	mem := newFakeMemory(64)
	want := []float64{1.5, -2.25, 3e100}
	if err := WriteF64s(mem, 8, want); err != nil {
		t.Fatalf("WriteF64s 失败: %v", err)
	}
	got, err := ReadF64s(mem, 8, 3)
	if err != nil {
		t.Fatalf("ReadF64s 失败: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("回读不一致: i=%d got=%v want=%v", i, got[i], want[i])
		}
	}

	// 指针越过堆尾必须显式报错
	if _, err := ReadF64s(mem, 48, 3); err == nil {
		t.Fatal("堆尾越界读取应当报错")
	}
}

func TestI32RoundTrip(t *testing.T) {
	mem := newFakeMemory(64)
	want := []int32{-1, 0, 2147483647, -2147483648}
	if err := WriteI32s(mem, 4, want); err != nil {
		t.Fatalf("WriteI32s 失败: %v", err)
	}
	got, err := ReadI32s(mem, 4, len(want))
	if err != nil {
		t.Fatalf("ReadI32s 失败: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("回读不一致: i=%d got=%d want=%d", i, got[i], want[i])
		}
	}
}

func TestArenaReleasesAllAllocations(t *testing.T) {
	ctx := context.Background()
	alloc := &fakeAlloc{}
	a := NewArena(alloc)

	p1, err := a.Alloc(ctx, 16)
	if err != nil {
		t.Fatalf("Alloc 失败: %v", err)
	}
	p2, err := a.Alloc(ctx, 32)
	if err != nil {
		t.Fatalf("Alloc 失败: %v", err)
	}

	a.Release(ctx)
	if len(alloc.freed) != 2 {
		t.Fatalf("释放数量错误: got=%d want=2", len(alloc.freed))
	}
	// 逆序释放
	if alloc.freed[0] != p2 || alloc.freed[1] != p1 {
		t.Fatalf("释放顺序错误: %v", alloc.freed)
	}

	// 二次 Release 幂等
	a.Release(ctx)
	if len(alloc.freed) != 2 {
		t.Fatal("重复 Release 不应重复释放")
	}
}

func TestArenaReleaseOnErrorPath(t *testing.T) {
	ctx := context.Background()
	alloc := &fakeAlloc{failAt: 2}
	a := NewArena(alloc)

	if _, err := a.Alloc(ctx, 8); err != nil {
		t.Fatalf("第一次 Alloc 失败: %v", err)
	}
	if _, err := a.Alloc(ctx, 8); err == nil {
		t.Fatal("第二次 Alloc 应命中注入失败")
	}

	a.Release(ctx)
	if len(alloc.freed) != 1 {
		t.Fatalf("错误路径也必须释放已分配内存: got=%d want=1", len(alloc.freed))
	}
}

func TestAllocAligned8(t *testing.T) {
	ctx := context.Background()
	alloc := &fakeAlloc{next: 13} // 刻意从非对齐地址开始
	a := NewArena(alloc)

	ptr, err := a.AllocAligned8(ctx, 48)
	if err != nil {
		t.Fatalf("AllocAligned8 失败: %v", err)
	}
	if ptr%8 != 0 {
		t.Fatalf("指针未 8 字节对齐: %d", ptr)
	}
}

func TestCStringRoundTrip(t *testing.T) {
	ctx := context.Background()
	mem := newFakeMemory(128)
	alloc := &fakeAlloc{}
	a := NewArena(alloc)
	defer a.Release(ctx)

	ptr, err := WriteCString(ctx, a, mem, "J2000")
	if err != nil {
		t.Fatalf("WriteCString 失败: %v", err)
	}
	got, err := ReadCString(mem, ptr, 32)
	if err != nil {
		t.Fatalf("ReadCString 失败: %v", err)
	}
	if got != "J2000" {
		t.Fatalf("回读字符串错误: got=%q", got)
	}

	if _, err := WriteCString(ctx, a, mem, "bad\x00str"); err == nil {
		t.Fatal("含 NUL 字符串应被拒绝")
	}
}

func TestReadCStringMissingNUL(t *testing.T) {
	mem := newFakeMemory(16)
	for i := range mem.data {
		mem.data[i] = 'A'
	}
	if _, err := ReadCString(mem, 0, 16); err == nil {
		t.Fatal("缺 NUL 的定宽缓冲应当报错")
	}
}

func TestCheckI32(t *testing.T) {
	if _, err := CheckI32("spkez()", 1<<40); err == nil {
		t.Fatal("超出 32 位范围应当报错")
	}
	v, err := CheckI32("spkez()", -399)
	if err != nil {
		t.Fatalf("合法值不应报错: %v", err)
	}
	if v != -399 {
		t.Fatalf("转换值错误: got=%d", v)
	}
}

func TestExpectLenMessageFormat(t *testing.T) {
	err := ExpectLen("spkezr", "state", []float64{1, 2, 3}, 6)
	if err == nil {
		t.Fatal("长度不符应当报错")
	}
	if !strings.Contains(err.Error(), "Expected spkezr() to return 6-element state") {
		t.Fatalf("错误信息格式不符: %v", err)
	}
}

func TestDescrRoundTrip(t *testing.T) {
	mem := newFakeMemory(128)

	spk := backend.SpkDescriptor{399, 0, 1, 8, 12345.5}
	if err := WriteSpkDescr(mem, 8, spk); err != nil {
		t.Fatalf("WriteSpkDescr 失败: %v", err)
	}
	gotSpk, err := ReadSpkDescr(mem, 8)
	if err != nil {
		t.Fatalf("ReadSpkDescr 失败: %v", err)
	}
	if gotSpk != spk {
		t.Fatalf("SPK 描述符回读不一致: got=%v want=%v", gotSpk, spk)
	}

	dla := backend.DlaDescriptor{
		Bwdptr: -1, Fwdptr: 2, Ibase: 3, Isize: 4,
		Dbase: 5, Dsize: 6, Cbase: 7, Csize: 8,
	}
	if err := WriteDlaDescr(mem, 64, dla); err != nil {
		t.Fatalf("WriteDlaDescr 失败: %v", err)
	}
	gotDla, err := ReadDlaDescr(mem, 64)
	if err != nil {
		t.Fatalf("ReadDlaDescr 失败: %v", err)
	}
	if gotDla != dla {
		t.Fatalf("DLA 描述符回读不一致: got=%v want=%v", gotDla, dla)
	}

	// 描述符尾部越过堆尾
	if _, err := ReadDlaDescr(mem, 100); err == nil {
		t.Fatal("描述符越界读取应当报错")
	}
}
