package codec

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/rybosome/gospice/spice/backend"
)

// Memory 是线性内存读写抽象。
// 生产实现由 wazero 模块内存适配，测试可注入纯内存实现。
// 所有访问越界时必须显式报错，不允许静默返回零值：
// 静默零值会掩盖描述符损坏。
type Memory interface {
	Size() uint32
	Read(offset, count uint32) ([]byte, error)
	Write(offset uint32, data []byte) error
}

// RangeError 构造堆访问越界错误。
func RangeError(op string, offset, count, size uint32) error {
	return backend.Validation(fmt.Sprintf(
		"%s 堆访问越界: offset=%d count=%d size=%d", op, offset, count, size))
}

// ReadU32 读取小端 32 位无符号整数。
func ReadU32(mem Memory, offset uint32) (uint32, error) {
	b, err := mem.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// WriteU32 写入小端 32 位无符号整数。
func WriteU32(mem Memory, offset uint32, v uint32) error {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return mem.Write(offset, b[:])
}

// ReadI32s 按 4 字节步长读取 count 个有符号 32 位整数。
func ReadI32s(mem Memory, offset uint32, count int) ([]int32, error) {
	if count < 0 {
		return nil, backend.Validation(fmt.Sprintf("ReadI32s count 非法: %d", count))
	}
	b, err := mem.Read(offset, uint32(count)*4)
	if err != nil {
		return nil, err
	}
	out := make([]int32, count)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out, nil
}

// WriteI32s 按 4 字节步长写入有符号 32 位整数序列。
func WriteI32s(mem Memory, offset uint32, vals []int32) error {
	b := make([]byte, len(vals)*4)
	for i, v := range vals {
		binary.LittleEndian.PutUint32(b[i*4:], uint32(v))
	}
	return mem.Write(offset, b)
}

// ReadF64s 按 8 字节步长读取 count 个双精度数。
func ReadF64s(mem Memory, offset uint32, count int) ([]float64, error) {
	if count < 0 {
		return nil, backend.Validation(fmt.Sprintf("ReadF64s count 非法: %d", count))
	}
	b, err := mem.Read(offset, uint32(count)*8)
	if err != nil {
		return nil, err
	}
	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return out, nil
}

// WriteF64s 按 8 字节步长写入双精度数序列。
func WriteF64s(mem Memory, offset uint32, vals []float64) error {
	b := make([]byte, len(vals)*8)
	for i, v := range vals {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(v))
	}
	return mem.Write(offset, b)
}

// ReadF64 读取单个双精度数。
func ReadF64(mem Memory, offset uint32) (float64, error) {
	vals, err := ReadF64s(mem, offset, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}

// ReadI32 读取单个有符号 32 位整数。
func ReadI32(mem Memory, offset uint32) (int32, error) {
	vals, err := ReadI32s(mem, offset, 1)
	if err != nil {
		return 0, err
	}
	return vals[0], nil
}
