package wasmspice

import (
	"context"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// 内核池字符值与监视名单统一按该定长槽位编组。
const poolStrLen = outStrLen

func checkPoolWindow(op string, start, room int) (int32, int32, error) {
	if start < 0 {
		return 0, 0, backend.Validation(op + "(): start 不能为负")
	}
	if room <= 0 {
		return 0, 0, backend.Validation(op + "(): room 必须为正")
	}
	s, err := codec.CheckI32(op+"(start)", start)
	if err != nil {
		return 0, 0, err
	}
	r, err := codec.CheckI32(op+"(room)", room)
	if err != nil {
		return 0, 0, err
	}
	return s, r, nil
}

// inPackedStrs 把字符串打包为 n 个定长槽位写进客体内存。
func (b *Backend) inPackedStrs(ctx context.Context, a *codec.Arena, vals []string) (uint32, error) {
	buf := make([]byte, len(vals)*poolStrLen)
	for i, v := range vals {
		if len(v) >= poolStrLen {
			v = v[:poolStrLen-1]
		}
		copy(buf[i*poolStrLen:], v)
	}
	ptr, err := a.AllocAligned8(ctx, uint32(len(buf)))
	if err != nil {
		return 0, err
	}
	return ptr, b.mem().Write(ptr, buf)
}

// readPackedStrs 读出定长槽位中前 n 个字符串。
func (b *Backend) readPackedStrs(ptr uint32, n int) ([]string, error) {
	out := make([]string, n)
	for i := range out {
		s, err := codec.ReadCString(b.mem(), ptr+uint32(i*poolStrLen), poolStrLen)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

func (b *Backend) Gdpool(name string, start, room int) (vals []float64, found bool, err error) {
	s, r, err := checkPoolWindow("gdpool", start, room)
	if err != nil {
		return nil, false, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		nPtr, err := b.outI32(ctx, a, 2) // n, found
		if err != nil {
			return err
		}
		valsPtr, err := b.outF64(ctx, a, int(r))
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_gdpool", namePtr,
			uint64(uint32(s)), uint64(uint32(r)),
			uint64(nPtr), uint64(valsPtr), uint64(nPtr+4)); err != nil {
			return err
		}
		found, err = b.readBool(nPtr + 4)
		if err != nil || !found {
			return err
		}
		n, err := codec.ReadI32(b.mem(), nPtr)
		if err != nil {
			return err
		}
		vals, err = codec.ReadF64s(b.mem(), valsPtr, int(n))
		return err
	})
	return vals, found, err
}

func (b *Backend) Gipool(name string, start, room int) (vals []int, found bool, err error) {
	s, r, err := checkPoolWindow("gipool", start, room)
	if err != nil {
		return nil, false, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		nPtr, err := b.outI32(ctx, a, 2)
		if err != nil {
			return err
		}
		valsPtr, err := b.outI32(ctx, a, int(r))
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_gipool", namePtr,
			uint64(uint32(s)), uint64(uint32(r)),
			uint64(nPtr), uint64(valsPtr), uint64(nPtr+4)); err != nil {
			return err
		}
		found, err = b.readBool(nPtr + 4)
		if err != nil || !found {
			return err
		}
		n, err := codec.ReadI32(b.mem(), nPtr)
		if err != nil {
			return err
		}
		raw, err := codec.ReadI32s(b.mem(), valsPtr, int(n))
		if err != nil {
			return err
		}
		vals = make([]int, len(raw))
		for i, v := range raw {
			vals[i] = int(v)
		}
		return nil
	})
	return vals, found, err
}

// packedPoolGet 覆盖 gcpool/gnpool 共同的"定长字符槽位出"调用形态。
func (b *Backend) packedPoolGet(fn, name string, s, r int32) (vals []string, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		nPtr, err := b.outI32(ctx, a, 2)
		if err != nil {
			return err
		}
		valsPtr, err := a.AllocAligned8(ctx, uint32(int(r)*poolStrLen))
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, namePtr,
			uint64(uint32(s)), uint64(uint32(r)), uint64(poolStrLen),
			uint64(nPtr), uint64(valsPtr), uint64(nPtr+4)); err != nil {
			return err
		}
		found, err = b.readBool(nPtr + 4)
		if err != nil || !found {
			return err
		}
		n, err := codec.ReadI32(b.mem(), nPtr)
		if err != nil {
			return err
		}
		vals, err = b.readPackedStrs(valsPtr, int(n))
		return err
	})
	return vals, found, err
}

func (b *Backend) Gcpool(name string, start, room int) ([]string, bool, error) {
	s, r, err := checkPoolWindow("gcpool", start, room)
	if err != nil {
		return nil, false, err
	}
	return b.packedPoolGet("tspice_gcpool", name, s, r)
}

func (b *Backend) Gnpool(template string, start, room int) ([]string, bool, error) {
	s, r, err := checkPoolWindow("gnpool", start, room)
	if err != nil {
		return nil, false, err
	}
	return b.packedPoolGet("tspice_gnpool", template, s, r)
}

func (b *Backend) Dtpool(name string) (info backend.PoolVarInfo, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2) // found, n
		if err != nil {
			return err
		}
		typPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), 2)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_dtpool", namePtr,
			uint64(outPtr), uint64(outPtr+4), uint64(typPtr), 2); err != nil {
			return err
		}
		found, err = b.readBool(outPtr)
		if err != nil || !found {
			return err
		}
		n, err := codec.ReadI32(b.mem(), outPtr+4)
		if err != nil {
			return err
		}
		typ, err := codec.ReadCString(b.mem(), typPtr, 2)
		if err != nil {
			return err
		}
		info = backend.PoolVarInfo{N: int(n), Type: typ}
		return nil
	})
	return info, found, err
}

func (b *Backend) Pdpool(name string, values []float64) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		var valsPtr uint32
		if len(values) > 0 {
			if valsPtr, err = b.inF64s(ctx, a, values); err != nil {
				return err
			}
		}
		return b.call(ctx, a, "tspice_pdpool", namePtr,
			uint64(uint32(len(values))), uint64(valsPtr))
	})
}

func (b *Backend) Pipool(name string, values []int) error {
	cvals := make([]int32, len(values))
	for i, v := range values {
		c, err := codec.CheckI32("pipool(values)", v)
		if err != nil {
			return err
		}
		cvals[i] = c
	}
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		var valsPtr uint32
		if len(cvals) > 0 {
			if valsPtr, err = b.inI32s(ctx, a, cvals); err != nil {
				return err
			}
		}
		return b.call(ctx, a, "tspice_pipool", namePtr,
			uint64(uint32(len(cvals))), uint64(valsPtr))
	})
}

func (b *Backend) Pcpool(name string, values []string) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		var valsPtr uint32
		if len(values) > 0 {
			if valsPtr, err = b.inPackedStrs(ctx, a, values); err != nil {
				return err
			}
		}
		return b.call(ctx, a, "tspice_pcpool", namePtr,
			uint64(uint32(len(values))), uint64(poolStrLen), uint64(valsPtr))
	})
}

func (b *Backend) Swpool(agent string, names []string) error {
	if len(names) == 0 {
		return backend.Validation("swpool(): 监视名单不能为空")
	}
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		agentPtr, err := b.inStr(ctx, a, agent)
		if err != nil {
			return err
		}
		namesPtr, err := b.inPackedStrs(ctx, a, names)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_swpool", agentPtr,
			uint64(uint32(len(names))), uint64(poolStrLen), uint64(namesPtr))
	})
}

func (b *Backend) Cvpool(agent string) (update bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		agentPtr, err := b.inStr(ctx, a, agent)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_cvpool", agentPtr, uint64(outPtr)); err != nil {
			return err
		}
		update, err = b.readBool(outPtr)
		return err
	})
	return update, err
}

func (b *Backend) Expool(name string) (found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_expool", namePtr, uint64(outPtr)); err != nil {
			return err
		}
		found, err = b.readBool(outPtr)
		return err
	})
	return found, err
}
