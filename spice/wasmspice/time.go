package wasmspice

import (
	"context"
	"math"

	"github.com/rybosome/gospice/spice/codec"
)

// strToF64 覆盖"一个字符串进、一个双精度出"的调用形态。
func (b *Backend) strToF64(fn, in string) (out float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		inPtr, err := b.inStr(ctx, a, in)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, inPtr, uint64(outPtr)); err != nil {
			return err
		}
		out, err = codec.ReadF64(b.mem(), outPtr)
		return err
	})
	return out, err
}

func (b *Backend) Str2et(utc string) (float64, error) {
	return b.strToF64("tspice_str2et", utc)
}

func (b *Backend) Et2utc(et float64, format string, prec int) (out string, err error) {
	p, err := codec.CheckI32("et2utc(prec)", prec)
	if err != nil {
		return "", err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		fmtPtr, err := b.inStr(ctx, a, format)
		if err != nil {
			return err
		}
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_et2utc",
			math.Float64bits(et), fmtPtr, uint64(uint32(p)), uint64(outPtr), uint64(outStrLen)); err != nil {
			return err
		}
		out, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	return out, err
}

func (b *Backend) Timout(et float64, picture string) (out string, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		picPtr, err := b.inStr(ctx, a, picture)
		if err != nil {
			return err
		}
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_timout",
			math.Float64bits(et), picPtr, uint64(outPtr), uint64(outStrLen)); err != nil {
			return err
		}
		out, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	return out, err
}

func (b *Backend) Tparse(str string) (float64, error) {
	return b.strToF64("tspice_tparse", str)
}

func (b *Backend) Deltet(epoch float64, eptype string) (out float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		typePtr, err := b.inStr(ctx, a, eptype)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_deltet",
			math.Float64bits(epoch), typePtr, uint64(outPtr)); err != nil {
			return err
		}
		out, err = codec.ReadF64(b.mem(), outPtr)
		return err
	})
	return out, err
}

func (b *Backend) Unitim(epoch float64, insys, outsys string) (out float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		inPtr, err := b.inStr(ctx, a, insys)
		if err != nil {
			return err
		}
		outsysPtr, err := b.inStr(ctx, a, outsys)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_unitim",
			math.Float64bits(epoch), inPtr, outsysPtr, uint64(outPtr)); err != nil {
			return err
		}
		out, err = codec.ReadF64(b.mem(), outPtr)
		return err
	})
	return out, err
}

func (b *Backend) Tpictr(sample string) (pictur string, ok bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		samplePtr, err := b.inStr(ctx, a, sample)
		if err != nil {
			return err
		}
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		okPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_tpictr",
			samplePtr, uint64(outPtr), uint64(outStrLen), uint64(okPtr)); err != nil {
			return err
		}
		ok, err = b.readBool(okPtr)
		if err != nil || !ok {
			return err
		}
		pictur, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	if err != nil || !ok {
		return "", false, err
	}
	return pictur, true, nil
}

func (b *Backend) Timdef(action, item, value string) (out string, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		actionPtr, err := b.inStr(ctx, a, action)
		if err != nil {
			return err
		}
		itemPtr, err := b.inStr(ctx, a, item)
		if err != nil {
			return err
		}
		valuePtr, err := b.inStr(ctx, a, value)
		if err != nil {
			return err
		}
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_timdef",
			actionPtr, itemPtr, valuePtr, uint64(outPtr), uint64(outStrLen)); err != nil {
			return err
		}
		out, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	return out, err
}

func (b *Backend) Scs2e(sc int, sclkch string) (et float64, err error) {
	id, err := codec.CheckI32("scs2e(sc)", sc)
	if err != nil {
		return 0, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		sclkPtr, err := b.inStr(ctx, a, sclkch)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_scs2e",
			uint64(uint32(id)), sclkPtr, uint64(outPtr)); err != nil {
			return err
		}
		et, err = codec.ReadF64(b.mem(), outPtr)
		return err
	})
	return et, err
}

func (b *Backend) Sce2s(sc int, et float64) (out string, err error) {
	id, err := codec.CheckI32("sce2s(sc)", sc)
	if err != nil {
		return "", err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_sce2s",
			uint64(uint32(id)), math.Float64bits(et), uint64(outPtr), uint64(outStrLen)); err != nil {
			return err
		}
		out, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	return out, err
}
