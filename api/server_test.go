package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/rybosome/gospice/spice/backend"
)

type fakeBackend struct {
	backend.SpiceBackend
	kernels []backend.KernelSource
}

func (f *fakeBackend) Name() backend.BackendName { return backend.BackendNative }

func (f *fakeBackend) Tkvrsn() (string, error) { return "CSPICE_N0067", nil }

func (f *fakeBackend) Str2et(utc string) (float64, error) {
	if utc == "garbage" {
		return 0, backend.FromDetail("str2et 调用失败", backend.SpiceErrorDetail{Short: "SPICE(UNPARSEDTIME)"})
	}
	return 100.5, nil
}

func (f *fakeBackend) Spkezr(target string, et float64, ref, abcorr, observer string) (backend.State6, float64, error) {
	return backend.State6{1, 2, 3, 4, 5, 6}, 0.02, nil
}

func (f *fakeBackend) Furnsh(k backend.KernelSource) error {
	f.kernels = append(f.kernels, k)
	return nil
}

func (f *fakeBackend) Ktotal(kind string) (int, error) { return len(f.kernels), nil }

func (f *fakeBackend) Kdata(which int, kind string) (backend.KernelInfo, bool, error) {
	if which >= len(f.kernels) {
		return backend.KernelInfo{}, false, nil
	}
	return backend.KernelInfo{File: f.kernels[which].Path, Filtyp: "SPK", Source: ""}, true, nil
}

func newTestServer(t *testing.T) (*echo.Echo, *fakeBackend) {
	t.Helper()
	fb := &fakeBackend{}
	s := NewServer(Options{Backend: fb})
	t.Cleanup(s.Close)
	e := echo.New()
	s.Register(e)
	return e, fb
}

func doReq(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	return out
}

func TestGetState(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doReq(e, http.MethodGet, "/api/v1/state?target=EARTH&observer=SUN&utc=2000+JAN+01", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("状态码不符: %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["result"] != true || body["et"] != 100.5 || body["lt"] != 0.02 {
		t.Fatalf("响应不符: %v", body)
	}
	state, ok := body["state"].([]any)
	if !ok || len(state) != 6 {
		t.Fatalf("状态向量不符: %v", body["state"])
	}
}

func TestGetStateRequiresParams(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doReq(e, http.MethodGet, "/api/v1/state?target=EARTH", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("缺参应 400: %d", rec.Code)
	}
}

func TestGetStateSurfacesSpiceError(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doReq(e, http.MethodGet, "/api/v1/state?target=EARTH&observer=SUN&utc=garbage", "")
	body := decodeBody(t, rec)
	if body["result"] != false {
		t.Fatalf("底层失败应回 result=false: %v", body)
	}
	if errText, _ := body["err"].(string); !strings.Contains(errText, "str2et") {
		t.Fatalf("错误消息不符: %v", body["err"])
	}
}

func TestKernelInventoryAndPackLoad(t *testing.T) {
	kernelSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("kernel-bytes"))
	}))
	defer kernelSrv.Close()

	e, fb := newTestServer(t)

	rec := doReq(e, http.MethodGet, "/api/v1/kernels", "")
	if body := decodeBody(t, rec); body["total"] != 0.0 {
		t.Fatalf("初始清单应为空: %v", body)
	}

	packJSON := `{"kernels":[{"url":"` + kernelSrv.URL + `/naif0012.tls","path":"lsk/naif0012.tls"}]}`
	rec = doReq(e, http.MethodPost, "/api/v1/kernels", packJSON)
	if body := decodeBody(t, rec); body["result"] != true || body["loaded"] != 1.0 {
		t.Fatalf("装载响应不符: %v", body)
	}
	if len(fb.kernels) != 1 || fb.kernels[0].Path != "lsk/naif0012.tls" {
		t.Fatalf("内核未到达后端: %+v", fb.kernels)
	}

	rec = doReq(e, http.MethodGet, "/api/v1/kernels", "")
	body := decodeBody(t, rec)
	if body["total"] != 1.0 {
		t.Fatalf("装载后清单应有 1 项: %v", body)
	}
	kernels, _ := body["kernels"].([]any)
	if len(kernels) != 1 {
		t.Fatalf("清单项不符: %v", body["kernels"])
	}
	first, _ := kernels[0].(map[string]any)
	if first["file"] != "lsk/naif0012.tls" {
		t.Fatalf("虚拟路径未回写: %v", first)
	}
}

func TestPostKernelsRejectsEmptyPack(t *testing.T) {
	e, _ := newTestServer(t)
	rec := doReq(e, http.MethodPost, "/api/v1/kernels", `{"kernels":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("空清单应 400: %d", rec.Code)
	}
}

func TestGetVersion(t *testing.T) {
	e, _ := newTestServer(t)
	body := decodeBody(t, doReq(e, http.MethodGet, "/api/v1/version", ""))
	if body["toolkit"] != "CSPICE_N0067" || body["backend"] != "native" {
		t.Fatalf("版本响应不符: %v", body)
	}
}
