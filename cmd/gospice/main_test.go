package main

import (
	"fmt"
	"testing"

	"github.com/rybosome/gospice/spice/backend"
)

type cliBackend struct {
	backend.SpiceBackend
}

func (b *cliBackend) Str2et(utc string) (float64, error) {
	if utc == "garbage" {
		return 0, backend.Validation(fmt.Sprintf("无法解析的时间字符串: %s", utc))
	}
	return 42.5, nil
}

func (b *cliBackend) Spkezr(target string, et float64, ref, abcorr, observer string) (backend.State6, float64, error) {
	return backend.State6{1, 2, 3, 4, 5, 6}, 0.01, nil
}

func TestRunEt(t *testing.T) {
	out, err := runEt(&cliBackend{}, []string{"2024-01-01T00:00:00"})
	if err != nil {
		t.Fatalf("et 命令失败: %v", err)
	}
	m := out.(map[string]interface{})
	if m["et"].(float64) != 42.5 {
		t.Fatalf("et 结果错误: %v", m["et"])
	}
}

func TestRunEtRejectsBadArity(t *testing.T) {
	if _, err := runEt(&cliBackend{}, nil); err == nil {
		t.Fatalf("缺少 UTC 参数应当报错")
	}
}

func TestRunState(t *testing.T) {
	out, err := runState(&cliBackend{}, []string{
		"-target", "MARS", "-observer", "EARTH", "2024-01-01T00:00:00",
	})
	if err != nil {
		t.Fatalf("state 命令失败: %v", err)
	}
	m := out.(map[string]interface{})
	if m["frame"] != "J2000" || m["abcorr"] != "NONE" {
		t.Fatalf("默认参考系/光行差错误: %v %v", m["frame"], m["abcorr"])
	}
	if m["state"].(backend.State6)[2] != 3 {
		t.Fatalf("状态向量错误: %v", m["state"])
	}
}

func TestRunStateRequiresBodies(t *testing.T) {
	if _, err := runState(&cliBackend{}, []string{"2024-01-01T00:00:00"}); err == nil {
		t.Fatalf("缺少 -target/-observer 应当报错")
	}
}
