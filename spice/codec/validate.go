package codec

import (
	"fmt"
	"math"

	"github.com/rybosome/gospice/spice/backend"
)

// CheckI32 校验整数落在底层库 32 位有符号整数范围内。
// 越界必须在调用前失败，而不是让 C 边界截断后破坏内存。
func CheckI32(ctx string, v int) (int32, error) {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return 0, backend.Validation(fmt.Sprintf(
			"%s: 整数超出 32 位有符号范围 (%d)", ctx, v))
	}
	return int32(v), nil
}

// ExpectLen 校验原生层返回数组长度与期望一致。
// 这是对原生层形状漂移的刻意防御。
func ExpectLen[T any](fn string, what string, got []T, want int) error {
	if len(got) != want {
		return backend.Validation(fmt.Sprintf(
			"Expected %s() to return %d-element %s, got %d", fn, want, what, len(got)))
	}
	return nil
}

// ExpectFinite 校验返回值为有限浮点数。
func ExpectFinite(fn string, what string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return backend.Validation(fmt.Sprintf(
			"Expected %s() to return finite %s, got %v", fn, what, v))
	}
	return nil
}
