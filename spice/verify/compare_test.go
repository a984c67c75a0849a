package verify

import (
	"math"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

func TestAngleWrapComparison(t *testing.T) {
	if m := CompareValues(math.Pi, -math.Pi, CompareOptions{AngleWrapPi: true}); len(m) != 0 {
		t.Fatalf("π 与 −π 在角归一下应相等: %v", m)
	}
	if m := CompareValues(math.Pi, -math.Pi, CompareOptions{}); len(m) == 0 {
		t.Fatal("未开角归一时 π 与 −π 不应相等")
	}
	if m := CompareValues(2*math.Pi, 0.0, CompareOptions{AngleWrapPi: true}); len(m) != 0 {
		t.Fatalf("2π 与 0 在角归一下应相等: %v", m)
	}
}

func TestToleranceDefaults(t *testing.T) {
	if m := CompareValues(1.0, 1.0+5e-7, CompareOptions{}); len(m) != 0 {
		t.Fatalf("默认绝对容差内应相等: %v", m)
	}
	if m := CompareValues(1.0, 1.01, CompareOptions{}); len(m) == 0 {
		t.Fatal("超差应报不等")
	}
	if m := CompareValues(1e9, 1e9+1e-4, CompareOptions{}); len(m) != 0 {
		t.Fatalf("相对容差应随量级放宽: %v", m)
	}
	// 显式容差覆盖默认
	if m := CompareValues(1.0, 1.2, CompareOptions{Atol: 0.5}); len(m) != 0 {
		t.Fatalf("显式绝对容差应生效: %v", m)
	}
}

func TestNestedMismatchCarriesPath(t *testing.T) {
	got := map[string]any{"state": []float64{1, 2, 3}, "lt": 0.5}
	want := map[string]any{"state": []float64{1, 2, 9}, "lt": 0.5}
	m := CompareValues(got, want, CompareOptions{})
	if len(m) != 1 {
		t.Fatalf("应恰有一处差异: %v", m)
	}
	if m[0].Path != "$.state[2]" {
		t.Fatalf("差异路径不符: %s", m[0].Path)
	}
}

func TestMissingAndExtraFields(t *testing.T) {
	got := map[string]any{"a": 1.0, "extra": true}
	want := map[string]any{"a": 1.0, "b": 2.0}
	m := CompareValues(got, want, CompareOptions{})
	if len(m) != 2 {
		t.Fatalf("缺失与多余字段都应报告: %v", m)
	}
}

func TestStructsCompareAfterNormalization(t *testing.T) {
	got := backend.State6{1, 2, 3, 4, 5, 6}
	want := []float64{1, 2, 3, 4, 5, 6 + 1e-9}
	if m := CompareValues(got, want, CompareOptions{}); len(m) != 0 {
		t.Fatalf("定长数组与切片经归一后应可比: %v", m)
	}
}

func TestCompareErrorsShortOnly(t *testing.T) {
	got := &backend.SpiceError{Kind: backend.ErrSpice, Message: "A 后端失败", Short: "SPICE(SPKINSUFFDATA)"}
	want := &backend.SpiceError{Kind: backend.ErrSpice, Message: "判准器失败", Short: "SPICE(SPKINSUFFDATA)"}
	if m := CompareErrors(got, want, CompareOptions{ErrorShortOnly: true}); len(m) != 0 {
		t.Fatalf("短码一致时应判等: %v", m)
	}
	if m := CompareErrors(got, want, CompareOptions{}); len(m) == 0 {
		t.Fatal("完整比较下消息不同应报差异")
	}
	if m := CompareErrors(got, nil, CompareOptions{ErrorShortOnly: true}); len(m) == 0 {
		t.Fatal("仅一侧失败必须报差异")
	}
}
