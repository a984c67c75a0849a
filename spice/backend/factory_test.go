package backend

import (
	"context"
	"testing"
)

type stubBackend struct {
	SpiceBackend
	name BackendName
}

func (s *stubBackend) Name() BackendName                     { return s.name }
func (s *stubBackend) Init(context.Context, Config) error    { return nil }
func (s *stubBackend) Dispose() error                        { return nil }

func TestNewFactoryRegistered(t *testing.T) {
	const name = BackendName("stub-for-test")
	Register(name, func() SpiceBackend {
		return &stubBackend{name: name}
	})

	b, err := New(Config{Name: name})
	if err != nil {
		t.Fatalf("创建后端失败: %v", err)
	}
	if b == nil {
		t.Fatal("创建后端返回 nil")
	}
	if b.Name() != name {
		t.Fatalf("后端类型错误: got=%s want=%s", b.Name(), name)
	}
}

func TestNewFactoryUnsupportedBackend(t *testing.T) {
	b, err := New(Config{Name: BackendName("no-such-backend")})
	if err == nil {
		t.Fatal("不支持的后端类型应返回错误")
	}
	if b != nil {
		t.Fatal("不支持的后端类型不应返回实例")
	}

	se, ok := err.(*SpiceError)
	if !ok {
		t.Fatalf("错误类型不正确: %T", err)
	}
	if se.Kind != ErrInit {
		t.Fatalf("错误分类不正确: got=%s want=%s", se.Kind, ErrInit)
	}
}

func TestRegisteredListsKnownBackends(t *testing.T) {
	const name = BackendName("another-stub")
	Register(name, func() SpiceBackend {
		return &stubBackend{name: name}
	})

	names := Registered()
	found := false
	for _, n := range names {
		if n == name {
			found = true
		}
	}
	if !found {
		t.Fatalf("Registered 应包含 %s: %v", name, names)
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("Registered 应按名称排序: %v", names)
		}
	}
}

func TestOpenCreatesAndInits(t *testing.T) {
	const name = BackendName("open-stub")
	Register(name, func() SpiceBackend {
		return &stubBackend{name: name}
	})

	b, err := Open(context.Background(), Config{Name: name})
	if err != nil {
		t.Fatalf("Open 应成功: %v", err)
	}
	if b.Name() != name {
		t.Fatalf("后端类型错误: %s", b.Name())
	}

	if _, err := Open(context.Background(), Config{Name: "no-such-backend"}); err == nil {
		t.Fatal("未注册类型的 Open 应报错")
	}
}
