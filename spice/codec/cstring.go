package codec

import (
	"bytes"
	"context"
	"fmt"

	"github.com/rybosome/gospice/spice/backend"
)

// SpiceMsgLen 底层库错误消息缓冲长度（含 NUL）。
const SpiceMsgLen = 1841

// WriteCString 把 UTF-8 字符串以 NUL 结尾写入暂存内存并返回指针。
// 字符串内含 NUL 字节时拒绝：C 边界会把它截断成另一个值。
func WriteCString(ctx context.Context, a *Arena, mem Memory, s string) (uint32, error) {
	if bytes.IndexByte([]byte(s), 0) >= 0 {
		return 0, backend.Validation("字符串参数含有 NUL 字节")
	}
	buf := append([]byte(s), 0)
	ptr, err := a.Alloc(ctx, uint32(len(buf)))
	if err != nil {
		return 0, err
	}
	if err := mem.Write(ptr, buf); err != nil {
		return 0, err
	}
	return ptr, nil
}

// AllocOutBuf 分配定宽字符串输出缓冲并清零首字节。
func AllocOutBuf(ctx context.Context, a *Arena, mem Memory, maxBytes uint32) (uint32, error) {
	if maxBytes == 0 {
		return 0, backend.Validation("输出缓冲长度必须大于 0")
	}
	ptr, err := a.Alloc(ctx, maxBytes)
	if err != nil {
		return 0, err
	}
	if err := mem.Write(ptr, []byte{0}); err != nil {
		return 0, err
	}
	return ptr, nil
}

// ReadCString 从定宽缓冲读取 NUL 结尾字符串。
// 缓冲内没有 NUL 时视为越界损坏，显式报错。
func ReadCString(mem Memory, ptr, maxBytes uint32) (string, error) {
	b, err := mem.Read(ptr, maxBytes)
	if err != nil {
		return "", err
	}
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		return "", backend.Validation(fmt.Sprintf(
			"定宽缓冲缺少 NUL 终止符: ptr=%d max=%d", ptr, maxBytes))
	}
	return string(b[:i]), nil
}
