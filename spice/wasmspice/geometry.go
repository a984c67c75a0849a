package wasmspice

import (
	"context"
	"math"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// subPoint 覆盖 subpnt/subslr 的共用输出布局：spoint(3) + trgepc + srfvec(3)。
func (b *Backend) subPoint(fn, method, target string, et float64, fixref, abcorr, observer string) (sp backend.SubPoint, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		args, err := b.strArgs(ctx, a, method, target)
		if err != nil {
			return err
		}
		tail, err := b.strArgs(ctx, a, fixref, abcorr, observer)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 7)
		if err != nil {
			return err
		}
		callArgs := append(args, math.Float64bits(et))
		callArgs = append(callArgs, tail...)
		callArgs = append(callArgs, uint64(outPtr), uint64(outPtr+24), uint64(outPtr+32))
		if err := b.call(ctx, a, fn, callArgs...); err != nil {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 7)
		if err != nil {
			return err
		}
		copy(sp.Spoint[:], vals[:3])
		sp.Trgepc = vals[3]
		copy(sp.Srfvec[:], vals[4:])
		return nil
	})
	return sp, err
}

// strArgs 编组一组输入字符串。
func (b *Backend) strArgs(ctx context.Context, a *codec.Arena, ss ...string) ([]uint64, error) {
	out := make([]uint64, 0, len(ss))
	for _, s := range ss {
		p, err := b.inStr(ctx, a, s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (b *Backend) Subpnt(method, target string, et float64, fixref, abcorr, observer string) (backend.SubPoint, error) {
	return b.subPoint("tspice_subpnt", method, target, et, fixref, abcorr, observer)
}

func (b *Backend) Subslr(method, target string, et float64, fixref, abcorr, observer string) (backend.SubPoint, error) {
	return b.subPoint("tspice_subslr", method, target, et, fixref, abcorr, observer)
}

func (b *Backend) Sincpt(method, target string, et float64, fixref, abcorr, observer, dref string, dvec backend.Vector3) (icpt backend.SurfaceIntercept, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		strs, err := b.strArgs(ctx, a, method, target, fixref, abcorr, observer, dref)
		if err != nil {
			return err
		}
		dvecPtr, err := b.inF64s(ctx, a, dvec[:])
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 7) // spoint(3), trgepc, srfvec(3)
		if err != nil {
			return err
		}
		foundPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		callArgs := []uint64{strs[0], strs[1], math.Float64bits(et), strs[2], strs[3], strs[4], strs[5],
			uint64(dvecPtr), uint64(outPtr), uint64(outPtr + 24), uint64(outPtr + 32), uint64(foundPtr)}
		if err := b.call(ctx, a, "tspice_sincpt", callArgs...); err != nil {
			return err
		}
		found, err = b.readBool(foundPtr)
		if err != nil || !found {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 7)
		if err != nil {
			return err
		}
		copy(icpt.Spoint[:], vals[:3])
		icpt.Trgepc = vals[3]
		copy(icpt.Srfvec[:], vals[4:])
		return nil
	})
	if err != nil || !found {
		return backend.SurfaceIntercept{}, false, err
	}
	return icpt, true, nil
}

// illum 覆盖 ilumin/illumg/illumf 的共用输出布局：
// trgepc + srfvec(3) + phase + incdnc + emissn（+ 两个标志）。
func (b *Backend) illum(fn string, strs []string, et float64, spoint backend.Vector3, withFlags bool) (ill backend.Illumination, visibl, lit bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		strPtrs, err := b.strArgs(ctx, a, strs...)
		if err != nil {
			return err
		}
		spointPtr, err := b.inF64s(ctx, a, spoint[:])
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 7)
		if err != nil {
			return err
		}
		var flagsPtr uint32
		callArgs := []uint64{strPtrs[0], strPtrs[1]}
		rest := strPtrs[2:]
		if len(strs) == 6 { // 带光源参数的形态
			callArgs = append(callArgs, strPtrs[2])
			rest = strPtrs[3:]
		}
		callArgs = append(callArgs, math.Float64bits(et))
		for _, p := range rest {
			callArgs = append(callArgs, p)
		}
		callArgs = append(callArgs, uint64(spointPtr),
			uint64(outPtr), uint64(outPtr+8), uint64(outPtr+32), uint64(outPtr+40), uint64(outPtr+48))
		if withFlags {
			flagsPtr, err = b.outI32(ctx, a, 2)
			if err != nil {
				return err
			}
			callArgs = append(callArgs, uint64(flagsPtr), uint64(flagsPtr+4))
		}
		if err := b.call(ctx, a, fn, callArgs...); err != nil {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 7)
		if err != nil {
			return err
		}
		ill.Trgepc = vals[0]
		copy(ill.Srfvec[:], vals[1:4])
		ill.Phase = vals[4]
		ill.Incdnc = vals[5]
		ill.Emissn = vals[6]
		if withFlags {
			visibl, err = b.readBool(flagsPtr)
			if err != nil {
				return err
			}
			lit, err = b.readBool(flagsPtr + 4)
			if err != nil {
				return err
			}
		}
		return nil
	})
	return ill, visibl, lit, err
}

func (b *Backend) Ilumin(method, target string, et float64, fixref, abcorr, observer string, spoint backend.Vector3) (backend.Illumination, error) {
	ill, _, _, err := b.illum("tspice_ilumin", []string{method, target, fixref, abcorr, observer}, et, spoint, false)
	return ill, err
}

func (b *Backend) Illumg(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint backend.Vector3) (backend.Illumination, error) {
	ill, _, _, err := b.illum("tspice_illumg", []string{method, target, ilusrc, fixref, abcorr, observer}, et, spoint, false)
	return ill, err
}

func (b *Backend) Illumf(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint backend.Vector3) (backend.IlluminationFlags, error) {
	ill, visibl, lit, err := b.illum("tspice_illumf", []string{method, target, ilusrc, fixref, abcorr, observer}, et, spoint, true)
	if err != nil {
		return backend.IlluminationFlags{}, err
	}
	return backend.IlluminationFlags{Illumination: ill, Visibl: visibl, Lit: lit}, nil
}

func (b *Backend) Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer string, et float64) (code int, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		strs, err := b.strArgs(ctx, a, targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		callArgs := append(strs, math.Float64bits(et), uint64(outPtr))
		if err := b.call(ctx, a, "tspice_occult", callArgs...); err != nil {
			return err
		}
		v, err := codec.ReadI32(b.mem(), outPtr)
		code = int(v)
		return err
	})
	return code, err
}

func (b *Backend) Nvc2pl(normal backend.Vector3, konst float64) (plane backend.Plane, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		normalPtr, err := b.inF64s(ctx, a, normal[:])
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 4)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_nvc2pl",
			uint64(normalPtr), math.Float64bits(konst), uint64(outPtr)); err != nil {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 4)
		if err != nil {
			return err
		}
		copy(plane[:], vals)
		return nil
	})
	return plane, err
}

func (b *Backend) Pl2nvc(plane backend.Plane) (normal backend.Vector3, konst float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		planePtr, err := b.inF64s(ctx, a, plane[:])
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 4)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_pl2nvc",
			uint64(planePtr), uint64(outPtr), uint64(outPtr+24)); err != nil {
			return err
		}
		normal, err = b.readVec3(outPtr)
		if err != nil {
			return err
		}
		konst, err = codec.ReadF64(b.mem(), outPtr+24)
		return err
	})
	return normal, konst, err
}
