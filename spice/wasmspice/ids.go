package wasmspice

import (
	"context"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// nameToCode 覆盖"名称进、编号加命中标志出"的调用形态。
func (b *Backend) nameToCode(fn, name string) (code int, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2) // code, found
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, namePtr, uint64(outPtr), uint64(outPtr+4)); err != nil {
			return err
		}
		found, err = b.readBool(outPtr + 4)
		if err != nil || !found {
			return err
		}
		c, err := codec.ReadI32(b.mem(), outPtr)
		code = int(c)
		return err
	})
	return code, found, err
}

// codeToName 覆盖"编号进、名称加命中标志出"的调用形态。
func (b *Backend) codeToName(fn string, code int32) (name string, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		foundPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn,
			uint64(uint32(code)), uint64(namePtr), uint64(outStrLen), uint64(foundPtr)); err != nil {
			return err
		}
		found, err = b.readBool(foundPtr)
		if err != nil || !found {
			return err
		}
		name, err = codec.ReadCString(b.mem(), namePtr, outStrLen)
		return err
	})
	return name, found, err
}

func (b *Backend) Bodn2c(name string) (int, bool, error) {
	return b.nameToCode("tspice_bodn2c", name)
}

func (b *Backend) Bodc2n(code int) (string, bool, error) {
	c, err := codec.CheckI32("bodc2n(code)", code)
	if err != nil {
		return "", false, err
	}
	return b.codeToName("tspice_bodc2n", c)
}

func (b *Backend) Bodc2s(code int) (name string, err error) {
	c, err := codec.CheckI32("bodc2s(code)", code)
	if err != nil {
		return "", err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_bodc2s",
			uint64(uint32(c)), uint64(namePtr), uint64(outStrLen)); err != nil {
			return err
		}
		name, err = codec.ReadCString(b.mem(), namePtr, outStrLen)
		return err
	})
	return name, err
}

func (b *Backend) Bods2c(name string) (int, bool, error) {
	return b.nameToCode("tspice_bods2c", name)
}

func (b *Backend) Boddef(name string, code int) error {
	c, err := codec.CheckI32("boddef(code)", code)
	if err != nil {
		return err
	}
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := b.inStr(ctx, a, name)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_boddef", namePtr, uint64(uint32(c)))
	})
}

func (b *Backend) Bodfnd(body int, item string) (found bool, err error) {
	id, err := codec.CheckI32("bodfnd(body)", body)
	if err != nil {
		return false, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		itemPtr, err := b.inStr(ctx, a, item)
		if err != nil {
			return err
		}
		foundPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_bodfnd",
			uint64(uint32(id)), itemPtr, uint64(foundPtr)); err != nil {
			return err
		}
		found, err = b.readBool(foundPtr)
		return err
	})
	return found, err
}

// maxBodvarVals 是 bodvcd 单变量的取值上限，与原生侧一致。
const maxBodvarVals = 80

func (b *Backend) Bodvar(body int, item string) (vals []float64, err error) {
	id, err := codec.CheckI32("bodvar(body)", body)
	if err != nil {
		return nil, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		itemPtr, err := b.inStr(ctx, a, item)
		if err != nil {
			return err
		}
		valsPtr, err := b.outF64(ctx, a, maxBodvarVals)
		if err != nil {
			return err
		}
		dimPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_bodvar",
			uint64(uint32(id)), itemPtr, uint64(maxBodvarVals), uint64(dimPtr), uint64(valsPtr)); err != nil {
			return err
		}
		dim, err := codec.ReadI32(b.mem(), dimPtr)
		if err != nil {
			return err
		}
		vals, err = codec.ReadF64s(b.mem(), valsPtr, int(dim))
		return err
	})
	return vals, err
}

func (b *Backend) Namfrm(name string) (int, bool, error) {
	return b.nameToCode("tspice_namfrm", name)
}

func (b *Backend) Frmnam(code int) (string, bool, error) {
	c, err := codec.CheckI32("frmnam(code)", code)
	if err != nil {
		return "", false, err
	}
	return b.codeToName("tspice_frmnam", c)
}

// frameIdent 覆盖 cidfrm/ccifrm 的"编号加名称"输出形态。
func (b *Backend) frameIdent(fn string, args ...uint64) (ident backend.FrameIdent, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		namePtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2) // frcode, found
		if err != nil {
			return err
		}
		callArgs := append(append([]uint64{}, args...),
			uint64(outPtr), uint64(namePtr), uint64(outStrLen), uint64(outPtr+4))
		if err := b.call(ctx, a, fn, callArgs...); err != nil {
			return err
		}
		found, err = b.readBool(outPtr + 4)
		if err != nil || !found {
			return err
		}
		code, err := codec.ReadI32(b.mem(), outPtr)
		if err != nil {
			return err
		}
		name, err := codec.ReadCString(b.mem(), namePtr, outStrLen)
		if err != nil {
			return err
		}
		ident = backend.FrameIdent{Code: int(code), Name: name}
		return nil
	})
	return ident, found, err
}

func (b *Backend) Cidfrm(center int) (backend.FrameIdent, bool, error) {
	c, err := codec.CheckI32("cidfrm(center)", center)
	if err != nil {
		return backend.FrameIdent{}, false, err
	}
	return b.frameIdent("tspice_cidfrm", uint64(uint32(c)))
}

func (b *Backend) Cnmfrm(centerName string) (ident backend.FrameIdent, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		cnPtr, err := b.inStr(ctx, a, centerName)
		if err != nil {
			return err
		}
		namePtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_cnmfrm",
			cnPtr, uint64(outPtr), uint64(namePtr), uint64(outStrLen), uint64(outPtr+4)); err != nil {
			return err
		}
		found, err = b.readBool(outPtr + 4)
		if err != nil || !found {
			return err
		}
		code, err := codec.ReadI32(b.mem(), outPtr)
		if err != nil {
			return err
		}
		name, err := codec.ReadCString(b.mem(), namePtr, outStrLen)
		if err != nil {
			return err
		}
		ident = backend.FrameIdent{Code: int(code), Name: name}
		return nil
	})
	return ident, found, err
}

func (b *Backend) Frinfo(frcode int) (info backend.FrameInfo, found bool, err error) {
	c, err := codec.CheckI32("frinfo(frcode)", frcode)
	if err != nil {
		return backend.FrameInfo{}, false, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		outPtr, err := b.outI32(ctx, a, 4) // center, class, clssid, found
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_frinfo",
			uint64(uint32(c)), uint64(outPtr), uint64(outPtr+4), uint64(outPtr+8), uint64(outPtr+12)); err != nil {
			return err
		}
		found, err = b.readBool(outPtr + 12)
		if err != nil || !found {
			return err
		}
		vals, err := codec.ReadI32s(b.mem(), outPtr, 3)
		if err != nil {
			return err
		}
		info = backend.FrameInfo{Center: int(vals[0]), Class: int(vals[1]), ClassID: int(vals[2])}
		return nil
	})
	return info, found, err
}

func (b *Backend) Ccifrm(frclass, clssid int) (backend.FrameIdent, bool, error) {
	cl, err := codec.CheckI32("ccifrm(frclass)", frclass)
	if err != nil {
		return backend.FrameIdent{}, false, err
	}
	id, err := codec.CheckI32("ccifrm(clssid)", clssid)
	if err != nil {
		return backend.FrameIdent{}, false, err
	}
	return b.frameIdent("tspice_ccifrm", uint64(uint32(cl)), uint64(uint32(id)))
}
