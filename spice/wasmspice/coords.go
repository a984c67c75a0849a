package wasmspice

import (
	"context"
	"math"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// vecToScalars 覆盖 reclat/recsph 等"向量进、三标量出"的形态。
func (b *Backend) vecToScalars(fn string, in []float64, extra ...uint64) (out [3]float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		inPtr, err := b.inF64s(ctx, a, in)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 3)
		if err != nil {
			return err
		}
		callArgs := append([]uint64{uint64(inPtr)}, extra...)
		callArgs = append(callArgs, uint64(outPtr), uint64(outPtr+8), uint64(outPtr+16))
		if err := b.call(ctx, a, fn, callArgs...); err != nil {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 3)
		if err != nil {
			return err
		}
		copy(out[:], vals)
		return nil
	})
	return out, err
}

// scalarsToVec 覆盖 latrec/sphrec/georec 的"标量进、向量出"形态。
func (b *Backend) scalarsToVec(fn string, scalars ...float64) (out backend.Vector3, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		outPtr, err := b.outF64(ctx, a, 3)
		if err != nil {
			return err
		}
		args := make([]uint64, 0, len(scalars)+1)
		for _, s := range scalars {
			args = append(args, math.Float64bits(s))
		}
		args = append(args, uint64(outPtr))
		if err := b.call(ctx, a, fn, args...); err != nil {
			return err
		}
		out, err = b.readVec3(outPtr)
		return err
	})
	return out, err
}

// vecsToVec 覆盖向量运算的"若干向量进、向量出"形态。
func (b *Backend) vecsToVec(fn string, ins ...[]float64) (out backend.Vector3, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		args := make([]uint64, 0, len(ins)+1)
		for _, in := range ins {
			p, err := b.inF64s(ctx, a, in)
			if err != nil {
				return err
			}
			args = append(args, uint64(p))
		}
		outPtr, err := b.outF64(ctx, a, 3)
		if err != nil {
			return err
		}
		args = append(args, uint64(outPtr))
		if err := b.call(ctx, a, fn, args...); err != nil {
			return err
		}
		out, err = b.readVec3(outPtr)
		return err
	})
	return out, err
}

// vecsToScalar 覆盖 vnorm/vdot 的"向量进、标量出"形态。
func (b *Backend) vecsToScalar(fn string, ins ...[]float64) (out float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		args := make([]uint64, 0, len(ins)+1)
		for _, in := range ins {
			p, err := b.inF64s(ctx, a, in)
			if err != nil {
				return err
			}
			args = append(args, uint64(p))
		}
		outPtr, err := b.outF64(ctx, a, 1)
		if err != nil {
			return err
		}
		args = append(args, uint64(outPtr))
		if err := b.call(ctx, a, fn, args...); err != nil {
			return err
		}
		out, err = codec.ReadF64(b.mem(), outPtr)
		return err
	})
	return out, err
}

// matOut 覆盖"任意参数进、3x3 矩阵出"的形态。
func (b *Backend) matOut(fn string, build func(ctx context.Context, a *codec.Arena) ([]uint64, error)) (m backend.Matrix3x3, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		args, err := build(ctx, a)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 9)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, append(args, uint64(outPtr))...); err != nil {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 9)
		if err != nil {
			return err
		}
		copy(m[:], vals)
		return nil
	})
	return m, err
}

func (b *Backend) Reclat(rect backend.Vector3) (backend.Latitudinal, error) {
	out, err := b.vecToScalars("tspice_reclat", rect[:])
	if err != nil {
		return backend.Latitudinal{}, err
	}
	return backend.Latitudinal{Radius: out[0], Lon: out[1], Lat: out[2]}, nil
}

func (b *Backend) Latrec(radius, lon, lat float64) (backend.Vector3, error) {
	return b.scalarsToVec("tspice_latrec", radius, lon, lat)
}

func (b *Backend) Recsph(rect backend.Vector3) (backend.Spherical, error) {
	out, err := b.vecToScalars("tspice_recsph", rect[:])
	if err != nil {
		return backend.Spherical{}, err
	}
	return backend.Spherical{R: out[0], Colat: out[1], Slon: out[2]}, nil
}

func (b *Backend) Sphrec(r, colat, slon float64) (backend.Vector3, error) {
	return b.scalarsToVec("tspice_sphrec", r, colat, slon)
}

func (b *Backend) Georec(lon, lat, alt, re, f float64) (backend.Vector3, error) {
	return b.scalarsToVec("tspice_georec", lon, lat, alt, re, f)
}

func (b *Backend) Recgeo(rect backend.Vector3, re, f float64) (backend.Geodetic, error) {
	out, err := b.vecToScalars("tspice_recgeo", rect[:], math.Float64bits(re), math.Float64bits(f))
	if err != nil {
		return backend.Geodetic{}, err
	}
	return backend.Geodetic{Lon: out[0], Lat: out[1], Alt: out[2]}, nil
}

func (b *Backend) Vnorm(v backend.Vector3) (float64, error) {
	return b.vecsToScalar("tspice_vnorm", v[:])
}

func (b *Backend) Vhat(v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_vhat", v[:])
}

func (b *Backend) Vdot(a, v backend.Vector3) (float64, error) {
	return b.vecsToScalar("tspice_vdot", a[:], v[:])
}

func (b *Backend) Vcrss(a, v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_vcrss", a[:], v[:])
}

func (b *Backend) Vadd(a, v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_vadd", a[:], v[:])
}

func (b *Backend) Vsub(a, v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_vsub", a[:], v[:])
}

func (b *Backend) Vminus(v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_vminus", v[:])
}

func (b *Backend) Vscl(s float64, v backend.Vector3) (out backend.Vector3, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		vPtr, err := b.inF64s(ctx, a, v[:])
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 3)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_vscl",
			math.Float64bits(s), uint64(vPtr), uint64(outPtr)); err != nil {
			return err
		}
		out, err = b.readVec3(outPtr)
		return err
	})
	return out, err
}

func (b *Backend) Mxv(m backend.Matrix3x3, v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_mxv", m[:], v[:])
}

func (b *Backend) Mtxv(m backend.Matrix3x3, v backend.Vector3) (backend.Vector3, error) {
	return b.vecsToVec("tspice_mtxv", m[:], v[:])
}

func (b *Backend) Mxm(x, y backend.Matrix3x3) (backend.Matrix3x3, error) {
	return b.matOut("tspice_mxm", func(ctx context.Context, a *codec.Arena) ([]uint64, error) {
		xPtr, err := b.inF64s(ctx, a, x[:])
		if err != nil {
			return nil, err
		}
		yPtr, err := b.inF64s(ctx, a, y[:])
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(xPtr), uint64(yPtr)}, nil
	})
}

func (b *Backend) Rotate(angle float64, iaxis int) (backend.Matrix3x3, error) {
	axis, err := codec.CheckI32("rotate(iaxis)", iaxis)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return b.matOut("tspice_rotate", func(ctx context.Context, a *codec.Arena) ([]uint64, error) {
		return []uint64{math.Float64bits(angle), uint64(uint32(axis))}, nil
	})
}

func (b *Backend) Rotmat(m backend.Matrix3x3, angle float64, iaxis int) (backend.Matrix3x3, error) {
	axis, err := codec.CheckI32("rotmat(iaxis)", iaxis)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return b.matOut("tspice_rotmat", func(ctx context.Context, a *codec.Arena) ([]uint64, error) {
		mPtr, err := b.inF64s(ctx, a, m[:])
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(mPtr), math.Float64bits(angle), uint64(uint32(axis))}, nil
	})
}

func (b *Backend) Axisar(axis backend.Vector3, angle float64) (backend.Matrix3x3, error) {
	return b.matOut("tspice_axisar", func(ctx context.Context, a *codec.Arena) ([]uint64, error) {
		axisPtr, err := b.inF64s(ctx, a, axis[:])
		if err != nil {
			return nil, err
		}
		return []uint64{uint64(axisPtr), math.Float64bits(angle)}, nil
	})
}
