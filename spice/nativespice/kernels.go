package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/staging"
)

// Furnsh 装载内核。字节内核先落地到暂存目录再交给底层库，
// 装载失败立即回收暂存文件，池内不残留半成品。
func (b *Backend) Furnsh(kernel backend.KernelSource) error {
	if err := b.ready(); err != nil {
		return err
	}

	if len(kernel.Bytes) == 0 {
		return b.rt.Furnsh(kernel.Path)
	}

	canonical, err := staging.Canonicalize(kernel.Path)
	if err != nil {
		return err
	}
	// 同一虚拟路径重复装载：先卸掉旧物理文件再落新字节
	if prior, ok := b.stager.Staged(canonical); ok {
		if err := b.rt.Unload(prior); err != nil {
			return err
		}
		if err := b.stager.Release(canonical); err != nil {
			return err
		}
	}
	physical, err := b.stager.Stage(canonical, kernel.Bytes)
	if err != nil {
		return err
	}
	if err := b.rt.Furnsh(physical); err != nil {
		if relErr := b.stager.Release(canonical); relErr != nil {
			b.logger.Warnw("装载失败后的暂存回收失败", "virtual", canonical, "err", relErr)
		}
		return err
	}
	return nil
}

// Unload 卸载内核。虚拟拼写先解析回物理位置，卸载成功后释放暂存。
func (b *Backend) Unload(path string) error {
	if err := b.ready(); err != nil {
		return err
	}

	physical, canonical, staged := b.stager.ResolveUnload(path)
	if err := b.rt.Unload(physical); err != nil {
		return err
	}
	if staged {
		return b.stager.Release(canonical)
	}
	return nil
}

// Kclear 清空内核池并释放全部暂存文件。
func (b *Backend) Kclear() error {
	if err := b.ready(); err != nil {
		return err
	}
	if err := b.rt.Kclear(); err != nil {
		return err
	}
	b.stager.ReleaseAll()
	return nil
}

func (b *Backend) Ktotal(kind string) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Ktotal(kind)
}

// Kdata 枚举已装载内核。暂存内核回写虚拟标识，调用方看到的
// 始终是自己 Furnsh 时用的路径而不是临时文件名。
func (b *Backend) Kdata(which int, kind string) (backend.KernelInfo, bool, error) {
	if err := b.ready(); err != nil {
		return backend.KernelInfo{}, false, err
	}
	info, found, err := b.rt.Kdata(which, kind)
	if err != nil || !found {
		return backend.KernelInfo{}, false, err
	}
	if virtual, ok := b.stager.VirtualFor(info.File); ok {
		info.File = virtual
	}
	return info, true, nil
}

func (b *Backend) Kinfo(file string) (backend.KernelTag, bool, error) {
	if err := b.ready(); err != nil {
		return backend.KernelTag{}, false, err
	}
	return b.rt.Kinfo(b.resolveRead(file))
}
