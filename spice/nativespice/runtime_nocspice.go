//go:build !cspice

package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
)

func init() {
	// 未启用 cspice 标签时没有可用的原生库，工厂明确返回错误。
	newNativeRuntime = func(_ backend.Config) (nativeRuntime, error) {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrInit,
			Message: "原生 CSPICE backend 不可用：需要 -tags cspice",
		}
	}
}
