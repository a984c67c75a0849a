package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

// fakeBackend 只实现测试触达的方法，其余落在内嵌接口上。
type fakeBackend struct {
	backend.SpiceBackend
	kernels []string
	pool    map[string][]float64
}

func (f *fakeBackend) Str2et(utc string) (float64, error) {
	if utc == "" {
		return 0, backend.Validation("str2et(): 空时间串")
	}
	return 42.5, nil
}

func (f *fakeBackend) Spkezr(target string, et float64, ref, abcorr, observer string) (backend.State6, float64, error) {
	if target == "NOWHERE" {
		return backend.State6{}, 0, backend.FromDetail("spkezr 调用失败", backend.SpiceErrorDetail{
			Short: "SPICE(SPKINSUFFDATA)",
			Long:  "insufficient ephemeris data",
			Trace: "spkezr_c",
		})
	}
	return backend.State6{1, 2, 3, 4, 5, 6}, 0.01, nil
}

func (f *fakeBackend) Bodn2c(name string) (int, bool, error) {
	if name == "EARTH" {
		return 399, true, nil
	}
	return 0, false, nil
}

func (f *fakeBackend) Furnsh(kernel backend.KernelSource) error {
	f.kernels = append(f.kernels, kernel.Path)
	return nil
}

func (f *fakeBackend) Ktotal(kind string) (int, error) {
	return len(f.kernels), nil
}

func (f *fakeBackend) Pdpool(name string, values []float64) error {
	if f.pool == nil {
		f.pool = map[string][]float64{}
	}
	f.pool[name] = values
	return nil
}

func (f *fakeBackend) Gdpool(name string, start, room int) ([]float64, bool, error) {
	vals, ok := f.pool[name]
	return vals, ok, nil
}

func newLocalPair(t *testing.T) (*Client, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	c := NewLocalClient(fb, Options{})
	t.Cleanup(func() { _ = c.Dispose() })
	return c, fb
}

func TestRoundTripScalarResult(t *testing.T) {
	c, _ := newLocalPair(t)
	et, err := CallAs[float64](context.Background(), c, "str2et", "2000 JAN 01 12:00:00")
	if err != nil {
		t.Fatalf("调用应成功: %v", err)
	}
	if et != 42.5 {
		t.Fatalf("结果不符: %v", et)
	}
}

func TestRoundTripCompositeResult(t *testing.T) {
	c, _ := newLocalPair(t)
	sv, err := CallAs[StateValue](context.Background(), c, "spkezr", "EARTH", 0.0, "J2000", "NONE", "SUN")
	if err != nil {
		t.Fatalf("调用应成功: %v", err)
	}
	if sv.State != (backend.State6{1, 2, 3, 4, 5, 6}) || sv.Lt != 0.01 {
		t.Fatalf("复合结果不符: %+v", sv)
	}
}

func TestRoundTripFoundResult(t *testing.T) {
	c, _ := newLocalPair(t)
	hit, err := CallAs[Found[int]](context.Background(), c, "bodn2c", "EARTH")
	if err != nil || !hit.Found || hit.Value != 399 {
		t.Fatalf("命中结果不符: %+v, %v", hit, err)
	}
	miss, err := CallAs[Found[int]](context.Background(), c, "bodn2c", "XENU")
	if err != nil || miss.Found {
		t.Fatalf("未命中应返回 found=false: %+v, %v", miss, err)
	}
}

func TestSpiceErrorSurvivesWire(t *testing.T) {
	c, _ := newLocalPair(t)
	_, err := CallAs[StateValue](context.Background(), c, "spkezr", "NOWHERE", 0.0, "J2000", "NONE", "SUN")
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) {
		t.Fatalf("错误类型不符: %T", err)
	}
	if sErr.Kind != backend.ErrSpice || sErr.Short != "SPICE(SPKINSUFFDATA)" || sErr.Trace != "spkezr_c" {
		t.Fatalf("结构化字段未跨线保留: %+v", sErr)
	}
}

func TestKernelBytesCrossWireAsBase64(t *testing.T) {
	c, fb := newLocalPair(t)
	_, err := c.Call(context.Background(), "furnsh",
		backend.KernelBytes("meta/base.tm", []byte{0x00, 0xFF, 0x10}))
	if err != nil {
		t.Fatalf("装载应成功: %v", err)
	}
	n, err := CallAs[int](context.Background(), c, "ktotal", "ALL")
	if err != nil || n != 1 {
		t.Fatalf("内核应到达 worker: %d, %v", n, err)
	}
	if len(fb.kernels) != 1 || fb.kernels[0] != "meta/base.tm" {
		t.Fatalf("虚拟路径丢失: %v", fb.kernels)
	}
}

func TestPoolValuesCrossWire(t *testing.T) {
	c, fb := newLocalPair(t)
	if _, err := c.Call(context.Background(), "pdpool",
		"BODY399_RADII", []float64{6378.1366, 6378.1366, 6356.7519}); err != nil {
		t.Fatalf("写入应成功: %v", err)
	}
	if len(fb.pool["BODY399_RADII"]) != 3 {
		t.Fatalf("值数组未到达 worker: %v", fb.pool)
	}
	hit, err := CallAs[Found[[]float64]](context.Background(), c, "gdpool", "BODY399_RADII", 0, 10)
	if err != nil || !hit.Found || len(hit.Value) != 3 || hit.Value[2] != 6356.7519 {
		t.Fatalf("读回结果不符: %+v, %v", hit, err)
	}
	miss, err := CallAs[Found[[]float64]](context.Background(), c, "gdpool", "NO_SUCH_VAR", 0, 10)
	if err != nil || miss.Found {
		t.Fatalf("未知变量应 found=false: %+v, %v", miss, err)
	}
}

func TestUnknownOpRejected(t *testing.T) {
	c, _ := newLocalPair(t)
	_, err := c.Call(context.Background(), "spkw99")
	var sErr *backend.SpiceError
	if !errors.As(err, &sErr) || sErr.Kind != backend.ErrValidation {
		t.Fatalf("未知操作应报校验错误: %v", err)
	}
}

func TestArityMismatchRejected(t *testing.T) {
	c, _ := newLocalPair(t)
	if _, err := c.Call(context.Background(), "str2et"); err == nil {
		t.Fatal("参数不足应报错")
	}
	if _, err := c.Call(context.Background(), "str2et", "x", "y"); err == nil {
		t.Fatal("参数过多应报错")
	}
	if _, err := c.Call(context.Background(), "str2et", 12); err == nil {
		t.Fatal("参数类型不符应报错")
	}
}

func TestWorkerExitsOnDisposeSignal(t *testing.T) {
	local, remote := NewPipe()
	exited := make(chan struct{})
	go func() {
		_ = ServeBackend(remote, &fakeBackend{}, nil)
		close(exited)
	}()
	if err := local.Send(Message{Type: TypeDispose}); err != nil {
		t.Fatalf("发送应成功: %v", err)
	}
	<-exited
}
