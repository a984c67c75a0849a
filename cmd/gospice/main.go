// Command gospice 把内核装进选定的后端，并以 JSON 形式
// 在标准输出回答时间转换与星历查询。
//
//	gospice -kernel naif0012.tls et "2024-01-01T00:00:00"
//	gospice -backend wasm -wasm tspice.wasm -pack pack.json \
//	    state -target MARS -observer EARTH "2024-01-01T00:00:00"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/kernelpack"
	_ "github.com/rybosome/gospice/spice/nativespice"
	_ "github.com/rybosome/gospice/spice/wasmspice"
)

type kernelList []string

func (k *kernelList) String() string { return strings.Join(*k, ",") }

func (k *kernelList) Set(v string) error {
	*k = append(*k, v)
	return nil
}

func usage() {
	fmt.Fprintf(os.Stderr, `用法: gospice [选项] <命令> [命令参数]

命令:
  et <utc>       UTC 字符串转历表秒
  state <utc>    目标相对观测者的状态向量（需 -target/-observer）

选项:
`)
	flag.PrintDefaults()
	os.Exit(2)
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "gospice: "+format+"\n", args...)
	os.Exit(1)
}

func main() {
	var (
		backendName = flag.String("backend", "native", "后端类型: native 或 wasm")
		wasmPath    = flag.String("wasm", "", "WASM 后端使用的 .wasm 工件路径")
		packRef     = flag.String("pack", "", "内核包 JSON 的路径或 URL")
		verbose     = flag.Bool("v", false, "输出调试日志")
		kernels     kernelList
	)
	flag.Var(&kernels, "kernel", "要装载的内核文件，可重复指定")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}

	logger := zap.NewNop().Sugar()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			fatal("初始化日志失败: %v", err)
		}
		defer l.Sync()
		logger = l.Sugar()
	}

	ctx := context.Background()

	cfg := backend.Config{
		Name:       backend.BackendName(*backendName),
		ModulePath: *wasmPath,
		Logger:     logger,
	}
	b, err := backend.New(cfg)
	if err != nil {
		fatal("%v", err)
	}
	if err := b.Init(ctx, cfg); err != nil {
		fatal("后端初始化失败: %v", err)
	}
	defer b.Dispose()

	for _, k := range kernels {
		if err := b.Furnsh(backend.Kernel(k)); err != nil {
			fatal("装载内核 %s 失败: %v", k, err)
		}
	}
	if *packRef != "" {
		if err := loadPack(ctx, *packRef, b, logger); err != nil {
			fatal("装载内核包 %s 失败: %v", *packRef, err)
		}
	}

	var out interface{}
	switch cmd, args := flag.Arg(0), flag.Args()[1:]; cmd {
	case "et":
		out, err = runEt(b, args)
	case "state":
		out, err = runState(b, args)
	default:
		usage()
	}
	if err != nil {
		fatal("%v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fatal("序列化结果失败: %v", err)
	}
}

func loadPack(ctx context.Context, ref string, b backend.SpiceBackend, logger *zap.SugaredLogger) error {
	var raw []byte
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("拉取内核包返回 HTTP %d", resp.StatusCode)
		}
		raw, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
	} else {
		var err error
		raw, err = os.ReadFile(ref)
		if err != nil {
			return err
		}
	}
	pack, err := kernelpack.Parse(raw)
	if err != nil {
		return err
	}
	f := &kernelpack.Fetcher{Logger: logger}
	return f.FetchAndLoad(ctx, pack, b)
}

func runEt(b backend.SpiceBackend, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("et", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("et 需要一个 UTC 字符串参数")
	}
	utc := fs.Arg(0)
	et, err := b.Str2et(utc)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"utc": utc, "et": et}, nil
}

func runState(b backend.SpiceBackend, args []string) (interface{}, error) {
	fs := flag.NewFlagSet("state", flag.ContinueOnError)
	var (
		target   = fs.String("target", "", "目标天体")
		observer = fs.String("observer", "", "观测天体")
		frame    = fs.String("frame", "J2000", "参考系")
		abcorr   = fs.String("abcorr", "NONE", "光行差修正")
	)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if *target == "" || *observer == "" {
		return nil, fmt.Errorf("state 需要 -target 与 -observer")
	}
	if fs.NArg() != 1 {
		return nil, fmt.Errorf("state 需要一个 UTC 字符串参数")
	}
	utc := fs.Arg(0)
	et, err := b.Str2et(utc)
	if err != nil {
		return nil, err
	}
	state, lt, err := b.Spkezr(*target, et, *frame, *abcorr, *observer)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"target":    *target,
		"observer":  *observer,
		"frame":     *frame,
		"abcorr":    *abcorr,
		"utc":       utc,
		"et":        et,
		"state":     state,
		"lightTime": lt,
	}, nil
}
