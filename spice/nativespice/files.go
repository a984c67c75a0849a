package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func (b *Backend) Exists(path string) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}
	return b.rt.Exists(b.resolveRead(path))
}

func (b *Backend) Getfat(path string) (backend.FileArch, error) {
	if err := b.ready(); err != nil {
		return backend.FileArch{}, err
	}
	return b.rt.Getfat(b.resolveRead(path))
}

func (b *Backend) Dafopr(path string) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.Dafopr(b.resolveRead(path))
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindDAF, native), nil
}

func (b *Backend) Dafcls(handle backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.handles.Close(handle, []backend.HandleKind{backend.KindDAF}, b.rt.Dafcls)
}

func (b *Backend) Dafbfs(handle backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	native, err := b.handles.Lookup(handle, backend.KindDAF)
	if err != nil {
		return err
	}
	return b.rt.Dafbfs(native)
}

func (b *Backend) Daffna(handle backend.Handle) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}
	native, err := b.handles.Lookup(handle, backend.KindDAF)
	if err != nil {
		return false, err
	}
	return b.rt.Daffna(native)
}

func (b *Backend) Dasopr(path string) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.Dasopr(b.resolveRead(path))
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindDAS, native), nil
}

func (b *Backend) Dascls(handle backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.handles.Close(handle, []backend.HandleKind{backend.KindDAS}, b.rt.Dascls)
}

func (b *Backend) Dlaopn(path, ftype, ifname string, ncomch int) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	nc, err := codec.CheckI32("dlaopn(ncomch)", ncomch)
	if err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.Dlaopn(path, ftype, ifname, nc)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindDLA, native), nil
}

func (b *Backend) Dlabfs(handle backend.Handle) (backend.DlaDescriptor, bool, error) {
	if err := b.ready(); err != nil {
		return backend.DlaDescriptor{}, false, err
	}
	native, err := b.handles.Lookup(handle, backend.KindDLA)
	if err != nil {
		return backend.DlaDescriptor{}, false, err
	}
	return b.rt.Dlabfs(native)
}

func (b *Backend) Dlafns(handle backend.Handle, descr backend.DlaDescriptor) (backend.DlaDescriptor, bool, error) {
	if err := b.ready(); err != nil {
		return backend.DlaDescriptor{}, false, err
	}
	native, err := b.handles.Lookup(handle, backend.KindDLA)
	if err != nil {
		return backend.DlaDescriptor{}, false, err
	}
	return b.rt.Dlafns(native, descr)
}

func (b *Backend) Dlacls(handle backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.handles.Close(handle, []backend.HandleKind{backend.KindDLA}, b.rt.Dlacls)
}
