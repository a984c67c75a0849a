package wasmspice

import (
	"context"
	"math"

	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// stateByName 覆盖 spkezr/spkpos 的"名称定位、状态加光行时输出"形态。
func (b *Backend) stateByName(fn, target string, et float64, ref, abcorr, observer string, n int) (out []float64, lt float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		targetPtr, err := b.inStr(ctx, a, target)
		if err != nil {
			return err
		}
		refPtr, err := b.inStr(ctx, a, ref)
		if err != nil {
			return err
		}
		abcorrPtr, err := b.inStr(ctx, a, abcorr)
		if err != nil {
			return err
		}
		obsPtr, err := b.inStr(ctx, a, observer)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, n+1) // state + lt
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn,
			targetPtr, math.Float64bits(et), refPtr, abcorrPtr, obsPtr,
			uint64(outPtr), uint64(outPtr+uint32(8*n))); err != nil {
			return err
		}
		out, err = codec.ReadF64s(b.mem(), outPtr, n)
		if err != nil {
			return err
		}
		lt, err = codec.ReadF64(b.mem(), outPtr+uint32(8*n))
		return err
	})
	return out, lt, err
}

// stateByCode 覆盖 spkez/spkezp/spkgeo/spkgps 的按编号形态。
func (b *Backend) stateByCode(fn string, target int32, et float64, strArgs []string, observer int32, n int) (out []float64, lt float64, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		args := []uint64{uint64(uint32(target)), math.Float64bits(et)}
		for _, s := range strArgs {
			p, err := b.inStr(ctx, a, s)
			if err != nil {
				return err
			}
			args = append(args, p)
		}
		args = append(args, uint64(uint32(observer)))
		outPtr, err := b.outF64(ctx, a, n+1)
		if err != nil {
			return err
		}
		args = append(args, uint64(outPtr), uint64(outPtr+uint32(8*n)))
		if err := b.call(ctx, a, fn, args...); err != nil {
			return err
		}
		out, err = codec.ReadF64s(b.mem(), outPtr, n)
		if err != nil {
			return err
		}
		lt, err = codec.ReadF64(b.mem(), outPtr+uint32(8*n))
		return err
	})
	return out, lt, err
}

func (b *Backend) Spkezr(target string, et float64, ref, abcorr, observer string) (backend.State6, float64, error) {
	var state backend.State6
	vals, lt, err := b.stateByName("tspice_spkezr", target, et, ref, abcorr, observer, 6)
	if err != nil {
		return state, 0, err
	}
	copy(state[:], vals)
	return state, lt, nil
}

func (b *Backend) Spkpos(target string, et float64, ref, abcorr, observer string) (backend.Vector3, float64, error) {
	var pos backend.Vector3
	vals, lt, err := b.stateByName("tspice_spkpos", target, et, ref, abcorr, observer, 3)
	if err != nil {
		return pos, 0, err
	}
	copy(pos[:], vals)
	return pos, lt, nil
}

func (b *Backend) Spkez(target int, et float64, ref, abcorr string, observer int) (backend.State6, float64, error) {
	var state backend.State6
	targ, err := codec.CheckI32("spkez(target)", target)
	if err != nil {
		return state, 0, err
	}
	obs, err := codec.CheckI32("spkez(observer)", observer)
	if err != nil {
		return state, 0, err
	}
	vals, lt, err := b.stateByCode("tspice_spkez", targ, et, []string{ref, abcorr}, obs, 6)
	if err != nil {
		return state, 0, err
	}
	copy(state[:], vals)
	return state, lt, nil
}

func (b *Backend) Spkezp(target int, et float64, ref, abcorr string, observer int) (backend.Vector3, float64, error) {
	var pos backend.Vector3
	targ, err := codec.CheckI32("spkezp(target)", target)
	if err != nil {
		return pos, 0, err
	}
	obs, err := codec.CheckI32("spkezp(observer)", observer)
	if err != nil {
		return pos, 0, err
	}
	vals, lt, err := b.stateByCode("tspice_spkezp", targ, et, []string{ref, abcorr}, obs, 3)
	if err != nil {
		return pos, 0, err
	}
	copy(pos[:], vals)
	return pos, lt, nil
}

func (b *Backend) Spkgeo(target int, et float64, ref string, observer int) (backend.State6, float64, error) {
	var state backend.State6
	targ, err := codec.CheckI32("spkgeo(target)", target)
	if err != nil {
		return state, 0, err
	}
	obs, err := codec.CheckI32("spkgeo(observer)", observer)
	if err != nil {
		return state, 0, err
	}
	vals, lt, err := b.stateByCode("tspice_spkgeo", targ, et, []string{ref}, obs, 6)
	if err != nil {
		return state, 0, err
	}
	copy(state[:], vals)
	return state, lt, nil
}

func (b *Backend) Spkgps(target int, et float64, ref string, observer int) (backend.Vector3, float64, error) {
	var pos backend.Vector3
	targ, err := codec.CheckI32("spkgps(target)", target)
	if err != nil {
		return pos, 0, err
	}
	obs, err := codec.CheckI32("spkgps(observer)", observer)
	if err != nil {
		return pos, 0, err
	}
	vals, lt, err := b.stateByCode("tspice_spkgps", targ, et, []string{ref}, obs, 3)
	if err != nil {
		return pos, 0, err
	}
	copy(pos[:], vals)
	return pos, lt, nil
}

func (b *Backend) Spkssb(target int, et float64, ref string) (state backend.State6, err error) {
	targ, err := codec.CheckI32("spkssb(target)", target)
	if err != nil {
		return state, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		refPtr, err := b.inStr(ctx, a, ref)
		if err != nil {
			return err
		}
		outPtr, err := b.outF64(ctx, a, 6)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_spkssb",
			uint64(uint32(targ)), math.Float64bits(et), refPtr, uint64(outPtr)); err != nil {
			return err
		}
		state, err = b.readState6(outPtr)
		return err
	})
	return state, err
}

func (b *Backend) Spkcov(spk string, idcode int, cover backend.Handle) error {
	id, err := codec.CheckI32("spkcov(idcode)", idcode)
	if err != nil {
		return err
	}
	guest, _, _ := b.stager.Resolve(spk)
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(cover, backend.KindWindow)
		if err != nil {
			return err
		}
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_spkcov", pathPtr, uint64(uint32(id)), uint64(uint32(native)))
	})
}

func (b *Backend) Spkobj(spk string, ids backend.Handle) error {
	guest, _, _ := b.stager.Resolve(spk)
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(ids, backend.KindIntCell)
		if err != nil {
			return err
		}
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_spkobj", pathPtr, uint64(uint32(native)))
	})
}

func (b *Backend) Spksfs(body int, et float64) (seg backend.SpkSegment, found bool, err error) {
	id, err := codec.CheckI32("spksfs(body)", body)
	if err != nil {
		return seg, false, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		descrPtr, err := b.outF64(ctx, a, codec.SpkDescrLen)
		if err != nil {
			return err
		}
		identPtr, err := codec.AllocOutBuf(ctx, a, b.mem(), outStrLen)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 2) // handle, found
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_spksfs",
			uint64(uint32(id)), math.Float64bits(et),
			uint64(outPtr), uint64(descrPtr), uint64(identPtr), uint64(outStrLen), uint64(outPtr+4)); err != nil {
			return err
		}
		found, err = b.readBool(outPtr + 4)
		if err != nil || !found {
			return err
		}
		seg.DafHandle, err = codec.ReadI32(b.mem(), outPtr)
		if err != nil {
			return err
		}
		seg.Descr, err = codec.ReadSpkDescr(b.mem(), descrPtr)
		if err != nil {
			return err
		}
		seg.Ident, err = codec.ReadCString(b.mem(), identPtr, outStrLen)
		return err
	})
	if err != nil || !found {
		return backend.SpkSegment{}, false, err
	}
	return seg, true, nil
}

func (b *Backend) Spkpds(body, center int, frame string, typ int, first, last float64) (descr backend.SpkDescriptor, err error) {
	bd, err := codec.CheckI32("spkpds(body)", body)
	if err != nil {
		return descr, err
	}
	ct, err := codec.CheckI32("spkpds(center)", center)
	if err != nil {
		return descr, err
	}
	tp, err := codec.CheckI32("spkpds(type)", typ)
	if err != nil {
		return descr, err
	}
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		framePtr, err := b.inStr(ctx, a, frame)
		if err != nil {
			return err
		}
		descrPtr, err := b.outF64(ctx, a, codec.SpkDescrLen)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_spkpds",
			uint64(uint32(bd)), uint64(uint32(ct)), framePtr, uint64(uint32(tp)),
			math.Float64bits(first), math.Float64bits(last), uint64(descrPtr)); err != nil {
			return err
		}
		descr, err = codec.ReadSpkDescr(b.mem(), descrPtr)
		return err
	})
	return descr, err
}

func (b *Backend) Spkuds(descr backend.SpkDescriptor) (parts backend.SpkParts, err error) {
	err = b.exec(func(ctx context.Context, a *codec.Arena) error {
		descrPtr, err := b.outF64(ctx, a, codec.SpkDescrLen)
		if err != nil {
			return err
		}
		if err := codec.WriteSpkDescr(b.mem(), descrPtr, descr); err != nil {
			return err
		}
		intPtr, err := b.outI32(ctx, a, 6) // body, center, frame, type, baddr, eaddr
		if err != nil {
			return err
		}
		dpPtr, err := b.outF64(ctx, a, 2) // first, last
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, "tspice_spkuds",
			uint64(descrPtr),
			uint64(intPtr), uint64(intPtr+4), uint64(intPtr+8), uint64(intPtr+12),
			uint64(dpPtr), uint64(dpPtr+8),
			uint64(intPtr+16), uint64(intPtr+20)); err != nil {
			return err
		}
		ints, err := codec.ReadI32s(b.mem(), intPtr, 6)
		if err != nil {
			return err
		}
		dps, err := codec.ReadF64s(b.mem(), dpPtr, 2)
		if err != nil {
			return err
		}
		parts = backend.SpkParts{
			Body:   int(ints[0]),
			Center: int(ints[1]),
			Frame:  int(ints[2]),
			Type:   int(ints[3]),
			First:  dps[0],
			Last:   dps[1],
			Baddr:  int(ints[4]),
			Eaddr:  int(ints[5]),
		}
		return nil
	})
	return parts, err
}

// openSpk 覆盖 spkopn/spkopa 的打开形态，写目标的父目录先行创建。
// target 非空时按原生句柄记账，关闭时交给暂存层定稿。
func (b *Backend) openSpk(fn string, target *spkTarget, args func(ctx context.Context, a *codec.Arena) ([]uint64, error)) (backend.Handle, error) {
	var handle backend.Handle
	err := b.exec(func(ctx context.Context, a *codec.Arena) error {
		callArgs, err := args(ctx, a)
		if err != nil {
			return err
		}
		outPtr, err := b.outI32(ctx, a, 1)
		if err != nil {
			return err
		}
		if err := b.call(ctx, a, fn, append(callArgs, uint64(outPtr))...); err != nil {
			return err
		}
		native, err := codec.ReadI32(b.mem(), outPtr)
		if err != nil {
			return err
		}
		handle = b.handles.Register(backend.KindSPK, native)
		if target != nil {
			b.spkOut[native] = *target
		}
		return nil
	})
	return handle, err
}

func (b *Backend) Spkopn(path, ifname string, ncomch int) (backend.Handle, error) {
	nc, err := codec.CheckI32("spkopn(ncomch)", ncomch)
	if err != nil {
		return backend.Handle{}, err
	}
	guest, err := b.stager.EnsureWritable(path)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.openSpk("tspice_spkopn", &spkTarget{canonical: guest, spelling: path}, func(ctx context.Context, a *codec.Arena) ([]uint64, error) {
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return nil, err
		}
		ifnamePtr, err := b.inStr(ctx, a, ifname)
		if err != nil {
			return nil, err
		}
		return []uint64{pathPtr, ifnamePtr, uint64(uint32(nc))}, nil
	})
}

func (b *Backend) Spkopa(path string) (backend.Handle, error) {
	guest, _, _ := b.stager.Resolve(path)
	return b.openSpk("tspice_spkopa", nil, func(ctx context.Context, a *codec.Arena) ([]uint64, error) {
		pathPtr, err := b.inStr(ctx, a, guest)
		if err != nil {
			return nil, err
		}
		return []uint64{pathPtr}, nil
	})
}

func (b *Backend) Spkw08(handle backend.Handle, body, center int, frame string, first, last float64,
	segid string, degree int, states []float64, epoch1, step float64) error {
	if len(states) == 0 || len(states)%6 != 0 {
		return backend.Validation("spkw08(): states 长度必须是 6 的非零整数倍")
	}
	bd, err := codec.CheckI32("spkw08(body)", body)
	if err != nil {
		return err
	}
	ct, err := codec.CheckI32("spkw08(center)", center)
	if err != nil {
		return err
	}
	dg, err := codec.CheckI32("spkw08(degree)", degree)
	if err != nil {
		return err
	}
	n, err := codec.CheckI32("spkw08(n)", len(states)/6)
	if err != nil {
		return err
	}
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		native, err := b.handles.Lookup(handle, backend.KindSPK)
		if err != nil {
			return err
		}
		framePtr, err := b.inStr(ctx, a, frame)
		if err != nil {
			return err
		}
		segidPtr, err := b.inStr(ctx, a, segid)
		if err != nil {
			return err
		}
		statesPtr, err := b.inF64s(ctx, a, states)
		if err != nil {
			return err
		}
		return b.call(ctx, a, "tspice_spkw08",
			uint64(uint32(native)), uint64(uint32(bd)), uint64(uint32(ct)), framePtr,
			math.Float64bits(first), math.Float64bits(last), segidPtr, uint64(uint32(dg)),
			uint64(uint32(n)), uint64(statesPtr), math.Float64bits(epoch1), math.Float64bits(step))
	})
}

func (b *Backend) Spkcls(handle backend.Handle) error {
	return b.exec(func(ctx context.Context, a *codec.Arena) error {
		return b.handles.Close(handle, []backend.HandleKind{backend.KindSPK}, func(native int32) error {
			if err := b.call(ctx, a, "tspice_spkcls", uint64(uint32(native))); err != nil {
				return err
			}
			// 写出目标随关闭定稿，之后可按原拼写 Furnsh 回来
			if target, ok := b.spkOut[native]; ok {
				delete(b.spkOut, native)
				b.stager.Adopt(target.canonical, target.spelling)
			}
			return nil
		})
	})
}
