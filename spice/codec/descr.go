package codec

import (
	"github.com/rybosome/gospice/spice/backend"
)

// SPK 段描述符固定为 5 个双精度（40 字节）。
const SpkDescrLen = 5

// DLA 段描述符固定为 8 个有符号 32 位整数（32 字节）。
const DlaDescrLen = 8

// ReadSpkDescr 从堆读取 SPK 描述符。
func ReadSpkDescr(mem Memory, ptr uint32) (backend.SpkDescriptor, error) {
	var d backend.SpkDescriptor
	vals, err := ReadF64s(mem, ptr, SpkDescrLen)
	if err != nil {
		return d, err
	}
	copy(d[:], vals)
	return d, nil
}

// WriteSpkDescr 把 SPK 描述符写入堆。
func WriteSpkDescr(mem Memory, ptr uint32, d backend.SpkDescriptor) error {
	return WriteF64s(mem, ptr, d[:])
}

// ReadDlaDescr 从堆读取 DLA 描述符。
// 字段顺序固定: bwdptr, fwdptr, ibase, isize, dbase, dsize, cbase, csize。
func ReadDlaDescr(mem Memory, ptr uint32) (backend.DlaDescriptor, error) {
	var d backend.DlaDescriptor
	vals, err := ReadI32s(mem, ptr, DlaDescrLen)
	if err != nil {
		return d, err
	}
	d.Bwdptr = vals[0]
	d.Fwdptr = vals[1]
	d.Ibase = vals[2]
	d.Isize = vals[3]
	d.Dbase = vals[4]
	d.Dsize = vals[5]
	d.Cbase = vals[6]
	d.Csize = vals[7]
	return d, nil
}

// WriteDlaDescr 把 DLA 描述符写入堆。
func WriteDlaDescr(mem Memory, ptr uint32, d backend.DlaDescriptor) error {
	return WriteI32s(mem, ptr, []int32{
		d.Bwdptr, d.Fwdptr,
		d.Ibase, d.Isize,
		d.Dbase, d.Dsize,
		d.Cbase, d.Csize,
	})
}
