package transport

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/pkg/errors"
)

// countingCaller 记录每个操作的实际下游调用次数。
type countingCaller struct {
	mu    sync.Mutex
	calls map[string]int
	// errOnce 首次命中该操作时报错一次
	errOnce map[string]bool
	// gate 非空时下游调用阻塞到其关闭
	gate chan struct{}
}

func newCountingCaller() *countingCaller {
	return &countingCaller{calls: map[string]int{}, errOnce: map[string]bool{}}
}

func (c *countingCaller) Call(_ context.Context, op string, args ...any) (json.RawMessage, error) {
	c.mu.Lock()
	c.calls[op]++
	fail := c.errOnce[op]
	c.errOnce[op] = false
	gate := c.gate
	c.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if fail {
		return nil, pkgerrors.New("下游瞬时失败")
	}
	return json.RawMessage(`1`), nil
}

func (c *countingCaller) Dispose() error { return nil }

func (c *countingCaller) count(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

func TestReadOnlyOpsAreMemoized(t *testing.T) {
	inner := newCountingCaller()
	cached := NewCached(inner, CacheOptions{})

	for i := 0; i < 3; i++ {
		if _, err := cached.Call(context.Background(), "str2et", "2000 JAN 01"); err != nil {
			t.Fatalf("调用应成功: %v", err)
		}
	}
	if n := inner.count("str2et"); n != 1 {
		t.Fatalf("相同只读调用应命中缓存, 下游调用了 %d 次", n)
	}
	// 参数不同是另一个键
	if _, err := cached.Call(context.Background(), "str2et", "2001 JAN 01"); err != nil {
		t.Fatalf("调用应成功: %v", err)
	}
	if n := inner.count("str2et"); n != 2 {
		t.Fatalf("不同参数不应共享缓存: %d", n)
	}
}

func TestMutatingOpsNeverCached(t *testing.T) {
	inner := newCountingCaller()
	cached := NewCached(inner, CacheOptions{})

	for i := 0; i < 2; i++ {
		if _, err := cached.Call(context.Background(), "furnsh", "same-kernel"); err != nil {
			t.Fatalf("调用应成功: %v", err)
		}
	}
	if n := inner.count("furnsh"); n != 2 {
		t.Fatalf("变更类操作必须每次直达下游: %d", n)
	}
}

func TestUnsafeForceCacheOverridesPolicy(t *testing.T) {
	inner := newCountingCaller()
	cached := NewCached(inner, CacheOptions{UnsafeForceCache: true})

	for i := 0; i < 2; i++ {
		if _, err := cached.Call(context.Background(), "furnsh", "same-kernel"); err != nil {
			t.Fatalf("调用应成功: %v", err)
		}
	}
	if n := inner.count("furnsh"); n != 1 {
		t.Fatalf("强制缓存开启后应命中缓存: %d", n)
	}
}

func TestFailedCallsAreNotRemembered(t *testing.T) {
	inner := newCountingCaller()
	inner.errOnce["tkvrsn"] = true
	cached := NewCached(inner, CacheOptions{})

	if _, err := cached.Call(context.Background(), "tkvrsn"); err == nil {
		t.Fatal("首次调用应失败")
	}
	if _, err := cached.Call(context.Background(), "tkvrsn"); err != nil {
		t.Fatalf("失败不应被记住, 重试应成功: %v", err)
	}
	if n := inner.count("tkvrsn"); n != 2 {
		t.Fatalf("失败后的重试应到达下游: %d", n)
	}
}

func TestConcurrentIdenticalCallsShareOneFlight(t *testing.T) {
	inner := newCountingCaller()
	inner.gate = make(chan struct{})
	cached := NewCached(inner, CacheOptions{})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := cached.Call(context.Background(), "vnorm", []float64{1, 0, 0}); err != nil {
				t.Errorf("调用应成功: %v", err)
			}
		}()
	}
	close(start)
	// 等首个调用占住键位后放行下游
	for inner.count("vnorm") == 0 {
		time.Sleep(time.Millisecond)
	}
	close(inner.gate)
	wg.Wait()

	if n := inner.count("vnorm"); n != 1 {
		t.Fatalf("并发相同调用应共享同一笔在途请求: %d", n)
	}
}

func TestMutationFlushesMemo(t *testing.T) {
	inner := newCountingCaller()
	cached := NewCached(inner, CacheOptions{})

	if _, err := cached.Call(context.Background(), "ktotal", "ALL"); err != nil {
		t.Fatalf("调用应成功: %v", err)
	}
	if _, err := cached.Call(context.Background(), "furnsh", "k"); err != nil {
		t.Fatalf("调用应成功: %v", err)
	}
	if _, err := cached.Call(context.Background(), "ktotal", "ALL"); err != nil {
		t.Fatalf("调用应成功: %v", err)
	}
	if n := inner.count("ktotal"); n != 2 {
		t.Fatalf("内核池变更后旧记忆应失效: %d", n)
	}
}

func TestCacheablePolicy(t *testing.T) {
	for _, op := range []string{"furnsh", "unload", "kclear", "spkw08", "insrti", "newIntCell", "newWindow",
		"pdpool", "pipool", "pcpool", "swpool", "cvpool"} {
		if Cacheable(op) {
			t.Fatalf("%s 不应可缓存", op)
		}
	}
	for _, op := range []string{"str2et", "spkezr", "vnorm", "tkvrsn", "bodn2c", "gdpool", "dtpool", "expool"} {
		if !Cacheable(op) {
			t.Fatalf("%s 应可缓存", op)
		}
	}
}
