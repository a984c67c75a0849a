package wasmspice

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

func TestLoadRejectsMissingArtifact(t *testing.T) {
	cfg := backend.Config{ModulePath: filepath.Join(t.TempDir(), "absent.wasm")}
	_, err := loadWazeroModule(context.Background(), cfg, t.TempDir())
	if err == nil {
		t.Fatal("不存在的工件应拒绝装载")
	}
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) || sErr.Kind != backend.ErrInit {
		t.Fatalf("错误种类不符: %v", err)
	}
}

func TestLoadRejectsNonWasmBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bogus.wasm")
	if err := os.WriteFile(path, []byte("ELF rubbish"), 0o644); err != nil {
		t.Fatalf("写测试文件失败: %v", err)
	}
	_, err := loadWazeroModule(context.Background(), backend.Config{ModulePath: path}, t.TempDir())
	if err == nil {
		t.Fatal("缺少魔数的文件应在编译前被拒绝")
	}
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) || sErr.Kind != backend.ErrInit {
		t.Fatalf("错误种类不符: %v", err)
	}
	if !strings.Contains(sErr.Message, "不是合法的 WASM 工件") {
		t.Fatalf("错误消息不符: %q", sErr.Message)
	}
}

func TestInitSurfacesLoaderFailure(t *testing.T) {
	old := newWasmModule
	newWasmModule = func(context.Context, backend.Config, string) (wasmModule, error) {
		return nil, &backend.SpiceError{Kind: backend.ErrInit, Message: `module missing export "malloc"`}
	}
	t.Cleanup(func() { newWasmModule = old })

	b := New()
	err := b.Init(context.Background(), backend.Config{Name: backend.BackendWasm, TempDir: t.TempDir()})
	if err == nil {
		t.Fatal("装载失败应阻止 Init")
	}
	if !strings.Contains(err.Error(), "missing export") {
		t.Fatalf("应透传装载错误: %v", err)
	}
	// 失败的 Init 进入终态, 实例不可复用
	if err := b.Init(context.Background(), backend.Config{Name: backend.BackendWasm, TempDir: t.TempDir()}); err == nil {
		t.Fatal("失败后的实例不应接受重复 Init")
	}
	if err := b.Dispose(); err != nil {
		t.Fatalf("终态 Dispose 应无害: %v", err)
	}
}
