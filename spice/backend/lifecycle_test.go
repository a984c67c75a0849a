package backend

import "testing"

func TestLifecycleInitDisposePolicy(t *testing.T) {
	lc := NewLifecycle()
	if lc.State() != StateNew {
		t.Fatalf("初始状态错误: got=%v want=%v", lc.State(), StateNew)
	}

	if err := lc.BeginInit(); err != nil {
		t.Fatalf("首次 BeginInit 应成功: %v", err)
	}
	if err := lc.BeginInit(); err == nil {
		t.Fatal("Initing 中的第二个 BeginInit 应被拒绝")
	}
	if err := lc.Ready(); err == nil {
		t.Fatal("Initing 阶段 Ready 应报错")
	}

	lc.FinishInit(nil)
	if err := lc.Ready(); err != nil {
		t.Fatalf("Ready 态不应报错: %v", err)
	}

	proceed, err := lc.BeginDispose()
	if err != nil || !proceed {
		t.Fatalf("Ready 态 BeginDispose 应放行: proceed=%v err=%v", proceed, err)
	}
	lc.FinishDispose()
	if lc.State() != StateClosed {
		t.Fatalf("FinishDispose 后状态错误: %v", lc.State())
	}

	// 关闭后的 Dispose 无事可做，Init 被拒绝
	proceed, err = lc.BeginDispose()
	if err != nil || proceed {
		t.Fatalf("Closed 态 BeginDispose 应为无害空操作: proceed=%v err=%v", proceed, err)
	}
	if err := lc.BeginInit(); err == nil {
		t.Fatal("Closed 态 BeginInit 应被拒绝")
	}
}

func TestLifecycleFailedInitIsTerminal(t *testing.T) {
	lc := NewLifecycle()
	if err := lc.BeginInit(); err != nil {
		t.Fatalf("BeginInit 应成功: %v", err)
	}
	lc.FinishInit(&SpiceError{Kind: ErrInit, Message: "装载失败"})

	if lc.State() != StateClosed {
		t.Fatalf("失败的 Init 应落到终态: %v", lc.State())
	}
	if err := lc.BeginInit(); err == nil {
		t.Fatal("失败后不允许再次 Init")
	}
	if proceed, err := lc.BeginDispose(); err != nil || proceed {
		t.Fatalf("失败后的 Dispose 应为无害空操作: proceed=%v err=%v", proceed, err)
	}
}

func TestLifecycleDisposeBeforeInit(t *testing.T) {
	lc := NewLifecycle()
	proceed, err := lc.BeginDispose()
	if err != nil || proceed {
		t.Fatalf("未初始化的 Dispose 应为无害空操作: proceed=%v err=%v", proceed, err)
	}
	if err := lc.BeginInit(); err == nil {
		t.Fatal("Dispose 关闭后不允许 Init")
	}
}
