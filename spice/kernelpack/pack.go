// Package kernelpack 实现声明式内核清单：一个 JSON 文档列出一组
// 内核的取回地址与装载时使用的虚拟路径，按需整体抓取。
package kernelpack

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/Masterminds/semver/v3"
	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
)

// SDKVersion 随发布 tag 同步，供清单的 requires 约束检查。
const SDKVersion = "1.0.0"

// maxKernelBytes 单内核抓取上限。行星历内核大的也就几十 MB，
// 超过视为清单或服务端出错。
const maxKernelBytes = 256 << 20

// Entry 清单中的一个内核：url 是字节来源，path 是装载时的虚拟标识。
type Entry struct {
	URL  string `json:"url"`
	Path string `json:"path"`
}

// Pack 内核清单。BaseURL 非空时相对 url 基于它解析。
type Pack struct {
	BaseURL string `json:"baseUrl,omitempty"`
	// Requires 是对 SDK 版本的 semver 约束，如 ">= 1.0"。
	Requires string  `json:"requires,omitempty"`
	Kernels  []Entry `json:"kernels"`
}

// Parse 解析清单文档并做结构校验。
func Parse(raw []byte) (Pack, error) {
	var p Pack
	if err := json.Unmarshal(raw, &p); err != nil {
		return Pack{}, pkgerrors.Wrap(err, "内核清单不是合法 JSON")
	}
	if len(p.Kernels) == 0 {
		return Pack{}, pkgerrors.New("内核清单为空")
	}
	for i, k := range p.Kernels {
		if k.URL == "" || k.Path == "" {
			return Pack{}, pkgerrors.Errorf("清单第 %d 项缺少 url 或 path", i)
		}
	}
	return p, nil
}

// CheckRequires 校验清单的版本约束。约束为空直接通过。
func (p Pack) CheckRequires(sdkVersion string) error {
	if p.Requires == "" {
		return nil
	}
	constraint, err := semver.NewConstraint(p.Requires)
	if err != nil {
		return pkgerrors.Wrapf(err, "清单 requires 约束不合法: %q", p.Requires)
	}
	ver, err := semver.NewVersion(sdkVersion)
	if err != nil {
		return pkgerrors.Wrapf(err, "SDK 版本号不合法: %q", sdkVersion)
	}
	if !constraint.Check(ver) {
		return pkgerrors.Errorf("清单要求 SDK %q, 当前 %s", p.Requires, sdkVersion)
	}
	return nil
}

// resolveURL 解析单项的取回地址。
func (p Pack) resolveURL(entry Entry) (string, error) {
	if p.BaseURL == "" {
		return entry.URL, nil
	}
	base, err := url.Parse(p.BaseURL)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "baseUrl 不合法: %q", p.BaseURL)
	}
	ref, err := url.Parse(entry.URL)
	if err != nil {
		return "", pkgerrors.Wrapf(err, "内核 url 不合法: %q", entry.URL)
	}
	return base.ResolveReference(ref).String(), nil
}

// Fetcher 按清单抓取内核字节。
type Fetcher struct {
	// Client 留空使用 http.DefaultClient。
	Client *http.Client
	Logger *zap.SugaredLogger
}

func (f *Fetcher) client() *http.Client {
	if f.Client != nil {
		return f.Client
	}
	return http.DefaultClient
}

// Fetch 抓取清单中的全部内核，返回可直接 furnsh 的内核来源。
// 任一项失败整体失败，不装载半套内核。
func (f *Fetcher) Fetch(ctx context.Context, p Pack) ([]backend.KernelSource, error) {
	if err := p.CheckRequires(SDKVersion); err != nil {
		return nil, err
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	out := make([]backend.KernelSource, 0, len(p.Kernels))
	for _, entry := range p.Kernels {
		target, err := p.resolveURL(entry)
		if err != nil {
			return nil, err
		}
		bytes, err := f.fetchOne(ctx, target)
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "抓取内核失败: %s", entry.Path)
		}
		logger.Debugw("内核已抓取", "path", entry.Path, "url", target, "bytes", len(bytes))
		out = append(out, backend.KernelBytes(entry.Path, bytes))
	}
	return out, nil
}

func (f *Fetcher) fetchOne(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "构造请求失败")
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "请求失败")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Errorf("HTTP %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxKernelBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "读取响应失败")
	}
	if len(data) > maxKernelBytes {
		return nil, pkgerrors.Errorf("内核超过 %d 字节上限", maxKernelBytes)
	}
	if len(data) == 0 {
		return nil, pkgerrors.New("响应为空")
	}
	return data, nil
}

// FetchAndLoad 抓取清单并逐个装入后端。
func (f *Fetcher) FetchAndLoad(ctx context.Context, p Pack, b backend.KernelAPI) error {
	sources, err := f.Fetch(ctx, p)
	if err != nil {
		return err
	}
	for _, src := range sources {
		if err := b.Furnsh(src); err != nil {
			return pkgerrors.Wrapf(err, "装载内核失败: %s", src.Path)
		}
	}
	return nil
}
