package transport

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/samber/lo"
)

// mutatingOps 改变后端实例状态的操作：内核池、SPK 写入、
// 文件句柄与 cell/window 生命周期。默认永不缓存。
var mutatingOps = []string{
	"furnsh", "unload", "kclear",
	// cvpool 消费一次性更新标志，写族改池内容
	"pdpool", "pipool", "pcpool", "swpool", "cvpool",
	"boddef", "timdef",
	"spkcov", "spkobj",
	"spkopn", "spkopa", "spkw08", "spkcls",
	"dafopr", "dafcls", "dafbfs", "daffna",
	"dasopr", "dascls",
	"dlaopn", "dlabfs", "dlafns", "dlacls",
	"insrti", "insrtd", "insrtc", "freeCell", "freeWindow", "wninsd",
	"getmsg",
}

// mutatingPrefixes 兜住整族的新建操作。
var mutatingPrefixes = []string{"new"}

// Cacheable 报告默认安全策略下该操作是否可缓存。
func Cacheable(op string) bool {
	if lo.Contains(mutatingOps, op) {
		return false
	}
	return !lo.SomeBy(mutatingPrefixes, func(p string) bool {
		return strings.HasPrefix(op, p)
	})
}

// CacheOptions 缓存装饰器配置。
type CacheOptions struct {
	// UnsafeForceCache 无视安全策略缓存一切操作。
	// 只应在调用方确知内核池状态恒定时打开。
	UnsafeForceCache bool
	Logger           *zap.SugaredLogger
}

type cacheEntry struct {
	done  chan struct{}
	value json.RawMessage
	err   error
}

// Cached 是 Caller 上的缓存装饰器：并发的相同调用共享同一笔
// 在途请求，成功结果被记住，失败从不被记住。变更类操作直通
// 底层并使既有记忆整体失效——内核池状态变了，旧答案不再可信。
type Cached struct {
	inner Caller
	opts  CacheOptions

	mu      sync.Mutex
	entries map[string]*cacheEntry
}

// NewCached 包装底层传输。
func NewCached(inner Caller, opts CacheOptions) *Cached {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}
	return &Cached{inner: inner, opts: opts, entries: map[string]*cacheEntry{}}
}

func (c *Cached) Call(ctx context.Context, op string, args ...any) (json.RawMessage, error) {
	if !Cacheable(op) && !c.opts.UnsafeForceCache {
		value, err := c.inner.Call(ctx, op, args...)
		c.flush()
		return value, err
	}

	key, err := cacheKey(op, args)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		c.mu.Unlock()
		select {
		case <-e.done:
			return e.value, e.err
		case <-ctx.Done():
			// 放弃等待不影响共享的在途请求
			return nil, &Error{Fail: FailAborted, Op: op, Cause: ctx.Err()}
		}
	}
	e := &cacheEntry{done: make(chan struct{})}
	c.entries[key] = e
	c.mu.Unlock()

	e.value, e.err = c.inner.Call(ctx, op, args...)
	if e.err != nil {
		// 失败不留痕，下次调用重试
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
	}
	close(e.done)
	return e.value, e.err
}

// Dispose 透传给底层传输并清空记忆。
func (c *Cached) Dispose() error {
	c.flush()
	return c.inner.Dispose()
}

func (c *Cached) flush() {
	c.mu.Lock()
	c.entries = map[string]*cacheEntry{}
	c.mu.Unlock()
}

// cacheKey 生成顺序与类型稳定的缓存键。参数按位置序列化，
// JSON 数组形态天然保序。
func cacheKey(op string, args []any) (string, error) {
	raw, err := EncodeArgs(op, args)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(op)
	for _, r := range raw {
		sb.WriteByte('\x00')
		sb.Write(r)
	}
	return sb.String(), nil
}
