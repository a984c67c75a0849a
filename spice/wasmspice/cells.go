package wasmspice

import (
	"context"
	"math"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

var anyCellKinds = []backend.HandleKind{
	backend.KindIntCell,
	backend.KindDoubleCell,
	backend.KindCharCell,
	backend.KindWindow,
}

var plainCellKinds = []backend.HandleKind{
	backend.KindIntCell,
	backend.KindDoubleCell,
	backend.KindCharCell,
}

// newContainer 覆盖 cell/window 创建的"容量进、客体编号出"形态。
func (b *Backend) newContainer(fn string, kind backend.HandleKind, args ...uint64) (backend.Handle, error) {
	var handle backend.Handle
	err := b.exec(func(ctx context.Context, a *codec.Arena) error {
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, append(args, uint64(outPtr))...); err != nil {
			return err
		}
		native, err := codec.ReadI32(b.mem(), outPtr)
		if err != nil {
			return err
		}
		handle = b.handles.Register(kind, native)
		return nil
	})
	return handle, err
}

func (b *Backend) NewIntCell(capacity int) (backend.Handle, error) {
	cap32, err := codec.CheckI32("newIntCell(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.newContainer("tspice_cell_new_int", backend.KindIntCell, uint64(uint32(cap32)))
}

func (b *Backend) NewDoubleCell(capacity int) (backend.Handle, error) {
	cap32, err := codec.CheckI32("newDoubleCell(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.newContainer("tspice_cell_new_double", backend.KindDoubleCell, uint64(uint32(cap32)))
}

func (b *Backend) NewCharCell(capacity, length int) (backend.Handle, error) {
	cap32, err := codec.CheckI32("newCharCell(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	len32, err := codec.CheckI32("newCharCell(length)", length)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.newContainer("tspice_cell_new_char", backend.KindCharCell, uint64(uint32(cap32)), uint64(uint32(len32)))
}

func (b *Backend) Insrti(item int, cell backend.Handle) error {
	v, err := codec.CheckI32("insrti(item)", item)
	if err != nil {
		return err
	}
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, backend.KindIntCell)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_insrti", uint64(uint32(v)), uint64(uint32(native)))
	})
}

func (b *Backend) Insrtd(item float64, cell backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, backend.KindDoubleCell)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_insrtd", math.Float64bits(item), uint64(uint32(native)))
	})
}

func (b *Backend) Insrtc(item string, cell backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, backend.KindCharCell)
		if err != nil {
			return err
		}
		itemPtr, err := b.inStr(ctx, a, item)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_insrtc", itemPtr, uint64(uint32(native)))
	})
}

// containerCount 覆盖 card/size/wncard 的"编号进、计数出"形态。
func (b *Backend) containerCount(fn string, cell backend.Handle, kinds []backend.HandleKind) (count int, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, kinds...)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, uint64(uint32(native)), uint64(outPtr)); err != nil {
			return err
		}
		n, err := codec.ReadI32(b.mem(), outPtr)
		count = int(n)
		return err
	})
	return count, err
}

func (b *Backend) Card(cell backend.Handle) (int, error) {
	return b.containerCount("tspice_card", cell, anyCellKinds)
}

func (b *Backend) Size(cell backend.Handle) (int, error) {
	return b.containerCount("tspice_size", cell, anyCellKinds)
}

func (b *Backend) CellGetInt(cell backend.Handle, index int) (item int, err error) {
	i, err := codec.CheckI32("cellGetInt(index)", index)
	if err != nil {
		return 0, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, backend.KindIntCell)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_cell_get_int",
			uint64(uint32(native)), uint64(uint32(i)), uint64(outPtr)); err != nil {
			return err
		}
		v, err := codec.ReadI32(b.mem(), outPtr)
		item = int(v)
		return err
	})
	return item, err
}

func (b *Backend) CellGetDouble(cell backend.Handle, index int) (item float64, err error) {
	i, err := codec.CheckI32("cellGetDouble(index)", index)
	if err != nil {
		return 0, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, backend.KindDoubleCell)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_cell_get_double",
			uint64(uint32(native)), uint64(uint32(i)), uint64(outPtr)); err != nil {
			return err
		}
		item, err = codec.ReadF64(b.mem(), outPtr)
		return err
	})
	return item, err
}

func (b *Backend) CellGetChar(cell backend.Handle, index int) (item string, err error) {
	i, err := codec.CheckI32("cellGetChar(index)", index)
	if err != nil {
		return "", err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cell, backend.KindCharCell)
		if err != nil {
			return err
		}
		outPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_cell_get_char",
			uint64(uint32(native)), uint64(uint32(i)), uint64(outPtr), uint64(outStrLen)); err != nil {
			return err
		}
		item, err = codec.ReadCString(b.mem(), outPtr, outStrLen)
		return err
	})
	return item, err
}

func (b *Backend) FreeCell(cell backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		return b.handles.Close(cell, plainCellKinds, func(native int32) error {
			return b.call(ctx, a, "tspice_cell_free", uint64(uint32(native)))
		})
	})
}

func (b *Backend) NewWindow(capacity int) (backend.Handle, error) {
	cap32, err := codec.CheckI32("newWindow(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.newContainer("tspice_window_new", backend.KindWindow, uint64(uint32(cap32)))
}

func (b *Backend) Wninsd(left, right float64, window backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(window, backend.KindWindow)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_wninsd",
			math.Float64bits(left), math.Float64bits(right), uint64(uint32(native)))
	})
}

func (b *Backend) Wncard(window backend.Handle) (int, error) {
	return b.containerCount("tspice_wncard", window, []backend.HandleKind{backend.KindWindow})
}

func (b *Backend) Wnfetd(window backend.Handle, n int) (left, right float64, err error) {
	i, err := codec.CheckI32("wnfetd(n)", n)
	if err != nil {
		return 0, 0, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(window, backend.KindWindow)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 2)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_wnfetd",
			uint64(uint32(native)), uint64(uint32(i)), uint64(outPtr), uint64(outPtr+8)); err != nil {
			return err
		}
		vals, err := codec.ReadF64s(b.mem(), outPtr, 2)
		if err != nil {
			return err
		}
		left, right = vals[0], vals[1]
		return nil
	})
	return left, right, err
}

func (b *Backend) FreeWindow(window backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		return b.handles.Close(window, []backend.HandleKind{backend.KindWindow}, func(native int32) error {
			return b.call(ctx, a, "tspice_window_free", uint64(uint32(native)))
		})
	})
}
