// Package verify 提供后端差分验证：结构化数值比较、raw-CSPICE
// 子进程判准器客户端与场景执行器。
package verify

import (
	"encoding/json"
	"fmt"
	"math"

	pkgerrors "github.com/pkg/errors"

	"github.com/rybosome/gospice/spice/backend"
)

// 默认比较容差。
const (
	DefaultAtol = 1e-6
	DefaultRtol = 1e-12
)

// CompareOptions 控制数值与错误比较。
type CompareOptions struct {
	// Atol/Rtol 为零时取默认值。
	Atol float64 `json:"atol,omitempty"`
	Rtol float64 `json:"rtol,omitempty"`
	// AngleWrapPi 开启后数值先按 2π 周期归一再比较，
	// π 与 −π 视为同一角。
	AngleWrapPi bool `json:"angleWrapPi,omitempty"`
	// ErrorShortOnly 错误比较只看 SPICE 短码。
	ErrorShortOnly bool `json:"errorShort,omitempty"`
}

func (o CompareOptions) atol() float64 {
	if o.Atol > 0 {
		return o.Atol
	}
	return DefaultAtol
}

func (o CompareOptions) rtol() float64 {
	if o.Rtol > 0 {
		return o.Rtol
	}
	return DefaultRtol
}

// Mismatch 一处比较差异。Path 是 JSON 路径风格的定位串。
type Mismatch struct {
	Path   string
	Got    any
	Want   any
	Reason string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: got=%v want=%v (%s)", m.Path, m.Got, m.Want, m.Reason)
}

// CompareValues 深度比较两个任意值。数值按容差，字符串/布尔精确，
// 容器逐元素。返回全部差异，空切片即相等。
func CompareValues(got, want any, opts CompareOptions) []Mismatch {
	g, err := normalize(got)
	if err != nil {
		return []Mismatch{{Path: "$", Got: got, Want: want, Reason: err.Error()}}
	}
	w, err := normalize(want)
	if err != nil {
		return []Mismatch{{Path: "$", Got: got, Want: want, Reason: err.Error()}}
	}
	var out []Mismatch
	compareAt("$", g, w, opts, &out)
	return out
}

// normalize 经 JSON 往返把任意 Go 值折叠为
// map[string]any / []any / float64 / string / bool / nil 的统一形态。
func normalize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "比较值无法序列化")
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, pkgerrors.Wrap(err, "比较值无法反序列化")
	}
	return out, nil
}

func compareAt(path string, got, want any, opts CompareOptions, out *[]Mismatch) {
	switch w := want.(type) {
	case nil:
		if got != nil {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "期望空值"})
		}
	case float64:
		g, ok := got.(float64)
		if !ok {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "类型不符"})
			return
		}
		if !numEqual(g, w, opts) {
			*out = append(*out, Mismatch{Path: path, Got: g, Want: w, Reason: "超出容差"})
		}
	case string:
		if got != want {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "字符串不等"})
		}
	case bool:
		if got != want {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "布尔不等"})
		}
	case []any:
		g, ok := got.([]any)
		if !ok {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "类型不符"})
			return
		}
		if len(g) != len(w) {
			*out = append(*out, Mismatch{Path: path, Got: len(g), Want: len(w), Reason: "长度不等"})
			return
		}
		for i := range w {
			compareAt(fmt.Sprintf("%s[%d]", path, i), g[i], w[i], opts, out)
		}
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "类型不符"})
			return
		}
		for k, wv := range w {
			gv, present := g[k]
			if !present {
				*out = append(*out, Mismatch{Path: path + "." + k, Got: nil, Want: wv, Reason: "字段缺失"})
				continue
			}
			compareAt(path+"."+k, gv, wv, opts, out)
		}
		for k := range g {
			if _, present := w[k]; !present {
				*out = append(*out, Mismatch{Path: path + "." + k, Got: g[k], Want: nil, Reason: "多余字段"})
			}
		}
	default:
		if got != want {
			*out = append(*out, Mismatch{Path: path, Got: got, Want: want, Reason: "值不等"})
		}
	}
}

func numEqual(got, want float64, opts CompareOptions) bool {
	if math.IsNaN(got) || math.IsNaN(want) {
		return math.IsNaN(got) && math.IsNaN(want)
	}
	diff := got - want
	if opts.AngleWrapPi {
		diff = wrapAngle(diff)
	}
	return math.Abs(diff) <= opts.atol()+opts.rtol()*math.Abs(want)
}

// wrapAngle 把角度差折到 (−π, π]。
func wrapAngle(diff float64) float64 {
	diff = math.Mod(diff, 2*math.Pi)
	switch {
	case diff > math.Pi:
		diff -= 2 * math.Pi
	case diff <= -math.Pi:
		diff += 2 * math.Pi
	}
	return diff
}

// CompareErrors 比较两侧失败结果。ErrorShortOnly 时只要求短码一致。
func CompareErrors(got, want *backend.SpiceError, opts CompareOptions) []Mismatch {
	if got == nil || want == nil {
		if got == want {
			return nil
		}
		return []Mismatch{{Path: "$error", Got: got, Want: want, Reason: "仅一侧失败"}}
	}
	if opts.ErrorShortOnly {
		if got.Short != want.Short {
			return []Mismatch{{Path: "$error.short", Got: got.Short, Want: want.Short, Reason: "短码不等"}}
		}
		return nil
	}
	var out []Mismatch
	if got.Short != want.Short {
		out = append(out, Mismatch{Path: "$error.short", Got: got.Short, Want: want.Short, Reason: "短码不等"})
	}
	if got.Message != want.Message {
		out = append(out, Mismatch{Path: "$error.message", Got: got.Message, Want: want.Message, Reason: "消息不等"})
	}
	return out
}
