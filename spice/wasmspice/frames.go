package wasmspice

import (
	"context"
	"math"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func (b *Backend) xform(fn, from, to string, et float64, n int) (out []float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		fromPtr, err := b.inStr(ctx, a, from)
		if err != nil {
			return err
		}
		toPtr, err := b.inStr(ctx, a, to)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, n)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, fromPtr, toPtr, math.Float64bits(et), uint64(outPtr)); err != nil {
			return err
		}
		out, err = b.readMat(outPtr, n)
		return err
	})
	return out, err
}

func (b *Backend) Pxform(from, to string, et float64) (backend.Matrix3x3, error) {
	var m backend.Matrix3x3
	vals, err := b.xform("tspice_pxform", from, to, et, 9)
	if err != nil {
		return m, err
	}
	copy(m[:], vals)
	return m, nil
}

func (b *Backend) Sxform(from, to string, et float64) (backend.Matrix6x6, error) {
	var m backend.Matrix6x6
	vals, err := b.xform("tspice_sxform", from, to, et, 36)
	if err != nil {
		return m, err
	}
	copy(m[:], vals)
	return m, nil
}
