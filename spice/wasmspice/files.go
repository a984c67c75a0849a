package wasmspice

import (
	"context"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func (b *Backend) Exists(path string) (exists bool, err error) {
	guest, _, _ := b.stager.Resolve(path)
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_exists", pathPtr, uint64(outPtr)); err != nil {
			return err
		}
		exists, err = b.readBool(outPtr)
		return err
	})
	return exists, err
}

func (b *Backend) Getfat(path string) (arch backend.FileArch, err error) {
	guest, _, _ := b.stager.Resolve(path)
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		archPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		typePtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_getfat",
			pathPtr, uint64(archPtr), uint64(typePtr), uint64(outStrLen)); err != nil {
			return err
		}
		arch.Arch, err = codec.ReadCString(b.mem(), archPtr, outStrLen)
		if err != nil {
			return err
		}
		arch.Type, err = codec.ReadCString(b.mem(), typePtr, outStrLen)
		return err
	})
	return arch, err
}

// openFile 覆盖 dafopr/dasopr 的"路径进、原生句柄出"形态。
func (b *Backend) openFile(fn, path string, kind backend.HandleKind) (backend.Handle, error) {
	guest, _, _ := b.stager.Resolve(path)
	var handle backend.Handle
	err := b.exec(func(ctx context.Context, a *codec.Arena) error {
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, pathPtr, uint64(outPtr)); err != nil {
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

func (b *Backend) closeFile(fn string, handle backend.Handle, kind backend.HandleKind) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		return b.handles.Close(handle, []backend.HandleKind{kind}, func(native int32) error {
			return b.call(ctx, a, fn, uint64(uint32(native)))
		})
	})
}

func (b *Backend) Dafopr(path string) (backend.Handle, error) {
	return b.openFile("tspice_dafopr", path, backend.KindDAF)
}

func (b *Backend) Dafcls(handle backend.Handle) error {
	return b.closeFile("tspice_dafcls", handle, backend.KindDAF)
}

func (b *Backend) Dafbfs(handle backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(handle, backend.KindDAF)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_dafbfs", uint64(uint32(native)))
	})
}

func (b *Backend) Daffna(handle backend.Handle) (found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(handle, backend.KindDAF)
		if err != nil {
			return err
		}
		foundPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_daffna", uint64(uint32(native)), uint64(foundPtr)); err != nil {
			return err
		}
		found, err = b.readBool(foundPtr)
		return err
	})
	return found, err
}

func (b *Backend) Dasopr(path string) (backend.Handle, error) {
	return b.openFile("tspice_dasopr", path, backend.KindDAS)
}

func (b *Backend) Dascls(handle backend.Handle) error {
	return b.closeFile("tspice_dascls", handle, backend.KindDAS)
}

func (b *Backend) Dlaopn(path, ftype, ifname string, ncomch int) (backend.Handle, error) {
	nc, err := codec.CheckI32("dlaopn(ncomch)", ncomch)
	if err != nil {
		return backend.Handle{}, err
	}
	guest, err := b.stager.EnsureWritable(path)
	if err != nil {
		return backend.Handle{}, err
	}
	var handle backend.Handle
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		strs, err := b.strArgs(ctx, a, guest, ftype, ifname)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_dlaopn",
			strs[0], strs[1], strs[2], uint64(uint32(nc)), uint64(outPtr)); err != nil {
			return err
		}
		native, err := codec.ReadI32(b.mem(), outPtr)
		if err != nil {
			return err
		}
		handle = b.handles.Register(backend.KindDLA, native)
		return nil
	})
	return handle, err
}

func (b *Backend) Dlabfs(handle backend.Handle) (descr backend.DlaDescriptor, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(handle, backend.KindDLA)
		if err != nil {
			return err
		}
		descrPtr, err := b.outI32(ctx, a, codec.DlaDescrLen)
		if err != nil {
			return err
		}
		foundPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_dlabfs",
			uint64(uint32(native)), uint64(descrPtr), uint64(foundPtr)); err != nil {
			return err
		}
		found, err = b.readBool(foundPtr)
		if err != nil || !found {
			return err
		}
		descr, err = codec.ReadDlaDescr(b.mem(), descrPtr)
		return err
	})
	if err != nil || !found {
		return backend.DlaDescriptor{}, false, err
	}
	return descr, true, nil
}

func (b *Backend) Dlafns(handle backend.Handle, descr backend.DlaDescriptor) (next backend.DlaDescriptor, found bool, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(handle, backend.KindDLA)
		if err != nil {
			return err
		}
		curPtr, err := b.outI32(ctx, a, codec.DlaDescrLen)
		if err != nil {
			return err
		}
		if err := codec.WriteDlaDescr(b.mem(), curPtr, descr); err != nil {
			return err
		}
		nextPtr, err := b.outI32(ctx, a, codec.DlaDescrLen)
		if err != nil {
			return err
		}
		foundPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_dlafns",
			uint64(uint32(native)), uint64(curPtr), uint64(nextPtr), uint64(foundPtr)); err != nil {
			return err
		}
		found, err = b.readBool(foundPtr)
		if err != nil || !found {
			return err
		}
		next, err = codec.ReadDlaDescr(b.mem(), nextPtr)
		return err
	})
	if err != nil || !found {
		return backend.DlaDescriptor{}, false, err
	}
	return next, true, nil
}

func (b *Backend) Dlacls(handle backend.Handle) error {
	return b.closeFile("tspice_dlacls", handle, backend.KindDLA)
}
