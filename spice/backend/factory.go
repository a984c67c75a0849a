package backend

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"
)

// Constructor 是后端构造器函数签名。
// 每次调用必须返回独立实例，禁止模块级单例缓存。
type Constructor func() SpiceBackend

var (
	registryMu sync.RWMutex
	registry   = map[BackendName]Constructor{}
)

// Register 注册后端构造器。同名重复注册以后者为准。
func Register(name BackendName, ctor Constructor) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Registered 返回已注册的后端类型，按名称排序。
func Registered() []BackendName {
	registryMu.RLock()
	names := lo.Keys(registry)
	registryMu.RUnlock()
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// New 根据配置创建后端实例（未初始化）。
func New(cfg Config) (SpiceBackend, error) {
	registryMu.RLock()
	ctor, ok := registry[cfg.Name]
	registryMu.RUnlock()
	if !ok || ctor == nil {
		known := lo.Map(Registered(), func(n BackendName, _ int) string { return string(n) })
		return nil, &SpiceError{
			Kind:    ErrInit,
			Message: fmt.Sprintf("不支持的后端类型: %q (可用: %s)", cfg.Name, strings.Join(known, ", ")),
		}
	}
	return ctor(), nil
}

// Open 创建并初始化后端。Init 失败时实例已处于终态，直接丢弃。
func Open(ctx context.Context, cfg Config) (SpiceBackend, error) {
	b, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if err := b.Init(ctx, cfg); err != nil {
		return nil, err
	}
	return b, nil
}
