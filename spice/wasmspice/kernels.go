package wasmspice

import (
	"context"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
	"github.com/rybosome/gospice/spice/staging"
)

// Furnsh 装载内核。字节内核写入挂载目录后以虚拟路径装载；
// 纯路径内核从宿主读出字节再走同一条路，客体文件系统里
// 永远只有 /kernels 下的内容。已在挂载目录里的文件（此前的字节
// 内核、客体写出后收编的内核）按登记拼写直接装载，不再经过宿主。
func (b *Backend) Furnsh(kernel backend.KernelSource) error {
	bytes := kernel.Bytes
	if len(bytes) == 0 {
		if guest, _, hit := b.stager.Resolve(kernel.Path); hit {
			return b.exec(func(ctx context.Context, a *codec.Arena) error {
				pathPtr, err := b.inStr(ctx, a, guest)
				if err != nil {
					return err
				}
				return b.call(ctx, a, "tspice_furnsh", pathPtr)
			})
		}
		data, err := readHostKernel(kernel.Path)
		if err != nil {
			return err
		}
		bytes = data
	}

	canonical, err := staging.Canonicalize(kernel.Path)
	if err != nil {
		return err
	}

	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		// 同一虚拟路径重复装载：先卸掉客体里的旧文件再落新字节
		if b.stager.Staged(canonical) {
			pathPtr, err := b.inStr(ctx, a, canonical)
			if err != nil {
				return err
			}
			if err := b.call(ctx, a, "tspice_unload", pathPtr); err != nil {
				return err
			}
			if err := b.stager.Release(canonical); err != nil {
				return err
			}
		}
		guest, err := b.stager.Stage(canonical, kernel.Path, bytes)
		if err != nil {
			return err
		}
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_furnsh", pathPtr); err != nil {
			if relErr := b.stager.Release(canonical); relErr != nil {
				b.logger.Warnw("装载失败后的暂存回收失败", "virtual", canonical, "err", relErr)
			}
			return err
		}
		return nil
	})
}

func (b *Backend) Unload(path string) error {
	guest, canonical, staged := b.stager.Resolve(path)
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_unload", pathPtr); err != nil {
			return err
		}
		if staged {
			return b.stager.Release(canonical)
		}
		return nil
	})
}

func (b *Backend) Kclear() error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		if err := b.call(ctx, a, "tspice_kclear"); err != nil {
			return err
		}
		b.stager.ReleaseAll()
		return nil
	})
}

func (b *Backend) Ktotal(kind string) (count int, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		kindPtr, err := b.inStr(ctx, a, kind)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_ktotal", kindPtr, uint64(outPtr)); err != nil {
			return err
		}
		n, err := codec.ReadI32(b.mem(), outPtr)
		count = int(n)
		return err
	})
	return count, err
}

func (b *Backend) Kdata(which int, kind string) (info backend.KernelInfo, found bool, err error) {
	w, err := codec.CheckI32("kdata(which)", which)
	if err != nil {
		return info, false, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		kindPtr, err := b.inStr(ctx, a, kind)
		if err != nil {
			return err
		}
		filePtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		typPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		srcPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2) // handle, found
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_kdata",
			uint64(uint32(w)), kindPtr,
			uint64(filePtr), uint64(typPtr), uint64(srcPtr), uint64(outStrLen),
			uint64(outPtr), uint64(outPtr+4)); err != nil {
			return err
		}
		ok, err := b.readBool(outPtr + 4)
		if err != nil || !ok {
			return err
		}
		found = true
		info.File, err = codec.ReadCString(b.mem(), filePtr, outStrLen)
		if err != nil {
			return err
		}
		// 暂存内核回写调用方当初的拼写而不是客体路径
		if spelling, ok := b.stager.SpellingFor(info.File); ok {
			info.File = spelling
		}
		info.Filtyp, err = codec.ReadCString(b.mem(), typPtr, outStrLen)
		if err != nil {
			return err
		}
		info.Source, err = codec.ReadCString(b.mem(), srcPtr, outStrLen)
		if err != nil {
			return err
		}
		info.Handle, err = codec.ReadI32(b.mem(), outPtr)
		return err
	})
	if err != nil || !found {
		return backend.KernelInfo{}, false, err
	}
	return info, true, nil
}

func (b *Backend) Kinfo(file string) (tag backend.KernelTag, found bool, err error) {
	guest, _, _ := b.stager.Resolve(file)
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		filePtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		typPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		srcPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2) // handle, found
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_kinfo",
			filePtr, uint64(typPtr), uint64(srcPtr), uint64(outStrLen),
			uint64(outPtr), uint64(outPtr+4)); err != nil {
			return err
		}
		ok, err := b.readBool(outPtr + 4)
		if err != nil || !ok {
			return err
		}
		found = true
		tag.Filtyp, err = codec.ReadCString(b.mem(), typPtr, outStrLen)
		if err != nil {
			return err
		}
		tag.Source, err = codec.ReadCString(b.mem(), srcPtr, outStrLen)
		if err != nil {
			return err
		}
		tag.Handle, err = codec.ReadI32(b.mem(), outPtr)
		return err
	})
	if err != nil || !found {
		return backend.KernelTag{}, false, err
	}
	return tag, true, nil
}
