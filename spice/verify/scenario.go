package verify

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"path"
	"sort"
	"strings"

	pkgerrors "github.com/pkg/errors"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/transport"
)

// Scenario 一条差分验证场景：装载哪些内核、调用什么、怎么比。
type Scenario struct {
	Name    string         `json:"name"`
	Setup   OracleSetup    `json:"setup"`
	Call    string         `json:"call"`
	Args    []any          `json:"args"`
	Options CompareOptions `json:"options"`
}

// LoadScenarios 从文件系统目录读取全部 *.json 场景，按文件名排序。
func LoadScenarios(fsys fs.FS, dir string) ([]Scenario, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "读取场景目录失败: %s", dir)
	}
	var out []Scenario
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, pkgerrors.Wrapf(err, "读取场景失败: %s", e.Name())
		}
		var s Scenario
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, pkgerrors.Wrapf(err, "场景不是合法 JSON: %s", e.Name())
		}
		if s.Name == "" {
			s.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		if s.Call == "" {
			return nil, pkgerrors.Errorf("场景缺少 call 字段: %s", e.Name())
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Run 对照执行：同一调用喂给被测后端和判准器，比较双方结果。
// 两侧通过同一 RPC 分发口径调用，结果形态天然一致。
func (s Scenario) Run(ctx context.Context, b backend.SpiceBackend, oracle *Oracle) ([]Mismatch, error) {
	client := transport.NewLocalClient(b, transport.Options{})
	defer func() { _ = client.Dispose() }()

	for _, k := range s.Setup.Kernels {
		if _, err := client.Call(ctx, "furnsh", backend.Kernel(k)); err != nil {
			return nil, pkgerrors.Wrapf(err, "场景 %s 装载内核失败: %s", s.Name, k)
		}
	}
	defer func() { _, _ = client.Call(ctx, "kclear") }()

	gotRaw, gotErr := client.Call(ctx, s.Call, s.Args...)

	var setup *OracleSetup
	if len(s.Setup.Kernels) > 0 {
		setup = &s.Setup
	}
	wantRaw, wantErr := oracle.Run(ctx, OracleRequest{Setup: setup, Call: s.Call, Args: s.Args})

	// 两侧都失败时比较错误本身
	if gotErr != nil || wantErr != nil {
		return CompareErrors(asSpiceError(gotErr), asSpiceError(wantErr), s.Options), nil
	}

	var got, want any
	if len(gotRaw) > 0 {
		if err := json.Unmarshal(gotRaw, &got); err != nil {
			return nil, pkgerrors.Wrapf(err, "场景 %s 被测结果解码失败", s.Name)
		}
	}
	if len(wantRaw) > 0 {
		if err := json.Unmarshal(wantRaw, &want); err != nil {
			return nil, pkgerrors.Wrapf(err, "场景 %s 判准结果解码失败", s.Name)
		}
	}
	return CompareValues(got, want, s.Options), nil
}

func asSpiceError(err error) *backend.SpiceError {
	if err == nil {
		return nil
	}
	var sErr *backend.SpiceError
	if errors.As(err, &sErr) {
		return sErr
	}
	return &backend.SpiceError{Kind: backend.ErrInternal, Message: err.Error()}
}
