package verify

import (
	"bytes"
	"context"
	"encoding/json"
	"os/exec"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
)

// Oracle 是 raw-CSPICE 判准器子进程的客户端。每次调用拉起一个
// 进程：stdin 喂一份 JSON 请求，stdout 读回一份 JSON 结果。
// 进程间无状态共享，setup 里的内核每次重新装载。
type Oracle struct {
	// Bin 判准器可执行文件路径。
	Bin    string
	Logger *zap.SugaredLogger
}

// OracleSetup 调用前的内核装载清单。
type OracleSetup struct {
	Kernels []string `json:"kernels"`
}

// OracleRequest 一次判准调用。
type OracleRequest struct {
	Setup *OracleSetup `json:"setup,omitempty"`
	Call  string       `json:"call"`
	Args  []any        `json:"args"`
}

type oracleWireError struct {
	Message    string `json:"message"`
	SpiceShort string `json:"spiceShort,omitempty"`
	SpiceLong  string `json:"spiceLong,omitempty"`
	SpiceTrace string `json:"spiceTrace,omitempty"`
}

type oracleResponse struct {
	OK     bool             `json:"ok"`
	Result json.RawMessage  `json:"result,omitempty"`
	Error  *oracleWireError `json:"error,omitempty"`
}

// Run 执行一次判准调用。判准器自身报告的失败转换为
// *backend.SpiceError 返回，进程级故障用普通错误区分。
func (o *Oracle) Run(ctx context.Context, req OracleRequest) (json.RawMessage, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "序列化判准请求失败")
	}

	cmd := exec.CommandContext(ctx, o.Bin)
	cmd.Stdin = bytes.NewReader(payload)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if o.Logger != nil {
		o.Logger.Debugw("执行判准调用", "bin", o.Bin, "call", req.Call)
	}
	if err := cmd.Run(); err != nil {
		return nil, pkgerrors.Wrapf(err, "判准器执行失败: %s", stderr.String())
	}

	var resp oracleResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, pkgerrors.Wrapf(err, "判准器输出不是合法 JSON: %q", stdout.String())
	}
	if !resp.OK {
		if resp.Error == nil {
			return nil, pkgerrors.New("判准器报告失败但未携带错误")
		}
		return nil, &backend.SpiceError{
			Kind:    backend.ErrSpice,
			Message: resp.Error.Message,
			Short:   resp.Error.SpiceShort,
			Long:    resp.Error.SpiceLong,
			Trace:   resp.Error.SpiceTrace,
		}
	}
	return resp.Result, nil
}
