package backend

import (
	"strings"
	"testing"
)

func TestRegistryIssueAndLookup(t *testing.T) {
	r := NewRegistry()
	h := r.Register(KindDAF, 42)
	if h.IsZero() {
		t.Fatal("签发句柄不应为零值")
	}

	native, err := r.Lookup(h, KindDAF)
	if err != nil {
		t.Fatalf("Lookup 失败: %v", err)
	}
	if native != 42 {
		t.Fatalf("原生编号错误: got=%d want=42", native)
	}
	if r.Len() != 1 {
		t.Fatalf("存活句柄数错误: got=%d want=1", r.Len())
	}
}

func TestRegistryKindMismatch(t *testing.T) {
	r := NewRegistry()
	h := r.Register(KindDLA, 7)

	if _, err := r.Lookup(h, KindDAF); err == nil {
		t.Fatal("种类不符的查找应当报错")
	} else if !strings.Contains(err.Error(), "种类不符") {
		t.Fatalf("错误信息缺少种类说明: %v", err)
	}

	// 多种类白名单内应当命中
	if _, err := r.Lookup(h, KindDAF, KindDLA); err != nil {
		t.Fatalf("白名单内查找失败: %v", err)
	}
}

func TestRegistryCloseInvalidatesAndRejectsStale(t *testing.T) {
	r := NewRegistry()
	h := r.Register(KindSPK, 9)

	var closedNative int32
	err := r.Close(h, []HandleKind{KindSPK}, func(native int32) error {
		closedNative = native
		return nil
	})
	if err != nil {
		t.Fatalf("Close 失败: %v", err)
	}
	if closedNative != 9 {
		t.Fatalf("关闭回调拿到的原生编号错误: got=%d want=9", closedNative)
	}
	if r.Len() != 0 {
		t.Fatalf("关闭后存活句柄数应为 0: got=%d", r.Len())
	}

	if _, err := r.Lookup(h, KindSPK); err == nil {
		t.Fatal("已关闭句柄的查找应当报错")
	}

	// 槽位复用后，旧句柄因世代不符依然被拒绝
	h2 := r.Register(KindDAF, 10)
	if _, err := r.Lookup(h, KindSPK); err == nil {
		t.Fatal("过期句柄不应命中复用槽位")
	}
	if _, err := r.Lookup(h2, KindDAF); err != nil {
		t.Fatalf("新句柄查找失败: %v", err)
	}
}

func TestRegistryCloseWrongKindLeavesResource(t *testing.T) {
	r := NewRegistry()
	h := r.Register(KindDLA, 3)

	called := false
	err := r.Close(h, []HandleKind{KindDAF}, func(int32) error {
		called = true
		return nil
	})
	if err == nil {
		t.Fatal("种类不符的关闭应当报错")
	}
	if called {
		t.Fatal("种类不符时不应触碰底层关闭例程")
	}
	if r.Len() != 1 {
		t.Fatalf("失败的关闭不应移除句柄: got=%d want=1", r.Len())
	}
}
