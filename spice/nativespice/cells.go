package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// anyCellKinds 是 Card/Size 接受的全部容器种类。
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

func (b *Backend) NewIntCell(capacity int) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	cap32, err := codec.CheckI32("newIntCell(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.NewIntCell(cap32)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindIntCell, native), nil
}

func (b *Backend) NewDoubleCell(capacity int) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	cap32, err := codec.CheckI32("newDoubleCell(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.NewDoubleCell(cap32)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindDoubleCell, native), nil
}

func (b *Backend) NewCharCell(capacity, length int) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	cap32, err := codec.CheckI32("newCharCell(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	len32, err := codec.CheckI32("newCharCell(length)", length)
	if err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.NewCharCell(cap32, len32)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindCharCell, native), nil
}

func (b *Backend) Insrti(item int, cell backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	v, err := codec.CheckI32("insrti(item)", item)
	if err != nil {
		return err
	}
	native, err := b.handles.Lookup(cell, backend.KindIntCell)
	if err != nil {
		return err
	}
	return b.rt.Insrti(v, native)
}

func (b *Backend) Insrtd(item float64, cell backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	native, err := b.handles.Lookup(cell, backend.KindDoubleCell)
	if err != nil {
		return err
	}
	return b.rt.Insrtd(item, native)
}

func (b *Backend) Insrtc(item string, cell backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	native, err := b.handles.Lookup(cell, backend.KindCharCell)
	if err != nil {
		return err
	}
	return b.rt.Insrtc(item, native)
}

func (b *Backend) Card(cell backend.Handle) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	native, err := b.handles.Lookup(cell, anyCellKinds...)
	if err != nil {
		return 0, err
	}
	n, err := b.rt.Card(native)
	return int(n), err
}

func (b *Backend) Size(cell backend.Handle) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	native, err := b.handles.Lookup(cell, anyCellKinds...)
	if err != nil {
		return 0, err
	}
	n, err := b.rt.CellSize(native)
	return int(n), err
}

func (b *Backend) CellGetInt(cell backend.Handle, index int) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	i, err := codec.CheckI32("cellGetInt(index)", index)
	if err != nil {
		return 0, err
	}
	native, err := b.handles.Lookup(cell, backend.KindIntCell)
	if err != nil {
		return 0, err
	}
	v, err := b.rt.CellGetInt(native, i)
	return int(v), err
}

func (b *Backend) CellGetDouble(cell backend.Handle, index int) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	i, err := codec.CheckI32("cellGetDouble(index)", index)
	if err != nil {
		return 0, err
	}
	native, err := b.handles.Lookup(cell, backend.KindDoubleCell)
	if err != nil {
		return 0, err
	}
	return b.rt.CellGetDouble(native, i)
}

func (b *Backend) CellGetChar(cell backend.Handle, index int) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	i, err := codec.CheckI32("cellGetChar(index)", index)
	if err != nil {
		return "", err
	}
	native, err := b.handles.Lookup(cell, backend.KindCharCell)
	if err != nil {
		return "", err
	}
	return b.rt.CellGetChar(native, i)
}

func (b *Backend) FreeCell(cell backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.handles.Close(cell, plainCellKinds, b.rt.FreeCell)
}

func (b *Backend) NewWindow(capacity int) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	cap32, err := codec.CheckI32("newWindow(capacity)", capacity)
	if err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.NewWindow(cap32)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindWindow, native), nil
}

func (b *Backend) Wninsd(left, right float64, window backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	native, err := b.handles.Lookup(window, backend.KindWindow)
	if err != nil {
		return err
	}
	return b.rt.Wninsd(left, right, native)
}

func (b *Backend) Wncard(window backend.Handle) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	native, err := b.handles.Lookup(window, backend.KindWindow)
	if err != nil {
		return 0, err
	}
	n, err := b.rt.Wncard(native)
	return int(n), err
}

func (b *Backend) Wnfetd(window backend.Handle, n int) (float64, float64, error) {
	if err := b.ready(); err != nil {
		return 0, 0, err
	}
	i, err := codec.CheckI32("wnfetd(n)", n)
	if err != nil {
		return 0, 0, err
	}
	native, err := b.handles.Lookup(window, backend.KindWindow)
	if err != nil {
		return 0, 0, err
	}
	return b.rt.Wnfetd(native, i)
}

func (b *Backend) FreeWindow(window backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.handles.Close(window, []backend.HandleKind{backend.KindWindow}, b.rt.FreeWindow)
}
