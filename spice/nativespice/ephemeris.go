package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func (b *Backend) Spkezr(target string, et float64, ref, abcorr, observer string) (backend.State6, float64, error) {
	if err := b.ready(); err != nil {
		return backend.State6{}, 0, err
	}
	state, lt, err := b.rt.Spkezr(target, et, ref, abcorr, observer)
	if err != nil {
		return backend.State6{}, 0, err
	}
	out, err := toState6("spkezr", state)
	return out, lt, err
}

func (b *Backend) Spkpos(target string, et float64, ref, abcorr, observer string) (backend.Vector3, float64, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, 0, err
	}
	pos, lt, err := b.rt.Spkpos(target, et, ref, abcorr, observer)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	out, err := toVec3("spkpos", pos)
	return out, lt, err
}

func (b *Backend) Spkez(target int, et float64, ref, abcorr string, observer int) (backend.State6, float64, error) {
	if err := b.ready(); err != nil {
		return backend.State6{}, 0, err
	}
	targ, err := codec.CheckI32("spkez(target)", target)
	if err != nil {
		return backend.State6{}, 0, err
	}
	obs, err := codec.CheckI32("spkez(observer)", observer)
	if err != nil {
		return backend.State6{}, 0, err
	}
	state, lt, err := b.rt.Spkez(targ, et, ref, abcorr, obs)
	if err != nil {
		return backend.State6{}, 0, err
	}
	out, err := toState6("spkez", state)
	return out, lt, err
}

func (b *Backend) Spkezp(target int, et float64, ref, abcorr string, observer int) (backend.Vector3, float64, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, 0, err
	}
	targ, err := codec.CheckI32("spkezp(target)", target)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	obs, err := codec.CheckI32("spkezp(observer)", observer)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	pos, lt, err := b.rt.Spkezp(targ, et, ref, abcorr, obs)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	out, err := toVec3("spkezp", pos)
	return out, lt, err
}

func (b *Backend) Spkgeo(target int, et float64, ref string, observer int) (backend.State6, float64, error) {
	if err := b.ready(); err != nil {
		return backend.State6{}, 0, err
	}
	targ, err := codec.CheckI32("spkgeo(target)", target)
	if err != nil {
		return backend.State6{}, 0, err
	}
	obs, err := codec.CheckI32("spkgeo(observer)", observer)
	if err != nil {
		return backend.State6{}, 0, err
	}
	state, lt, err := b.rt.Spkgeo(targ, et, ref, obs)
	if err != nil {
		return backend.State6{}, 0, err
	}
	out, err := toState6("spkgeo", state)
	return out, lt, err
}

func (b *Backend) Spkgps(target int, et float64, ref string, observer int) (backend.Vector3, float64, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, 0, err
	}
	targ, err := codec.CheckI32("spkgps(target)", target)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	obs, err := codec.CheckI32("spkgps(observer)", observer)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	pos, lt, err := b.rt.Spkgps(targ, et, ref, obs)
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	out, err := toVec3("spkgps", pos)
	return out, lt, err
}

func (b *Backend) Spkssb(target int, et float64, ref string) (backend.State6, error) {
	if err := b.ready(); err != nil {
		return backend.State6{}, err
	}
	targ, err := codec.CheckI32("spkssb(target)", target)
	if err != nil {
		return backend.State6{}, err
	}
	state, err := b.rt.Spkssb(targ, et, ref)
	if err != nil {
		return backend.State6{}, err
	}
	return toState6("spkssb", state)
}

func (b *Backend) Spkcov(spk string, idcode int, cover backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	id, err := codec.CheckI32("spkcov(idcode)", idcode)
	if err != nil {
		return err
	}
	native, err := b.handles.Lookup(cover, backend.KindWindow)
	if err != nil {
		return err
	}
	return b.rt.Spkcov(b.resolveRead(spk), id, native)
}

func (b *Backend) Spkobj(spk string, ids backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	native, err := b.handles.Lookup(ids, backend.KindIntCell)
	if err != nil {
		return err
	}
	return b.rt.Spkobj(b.resolveRead(spk), native)
}

func (b *Backend) Spksfs(body int, et float64) (backend.SpkSegment, bool, error) {
	if err := b.ready(); err != nil {
		return backend.SpkSegment{}, false, err
	}
	id, err := codec.CheckI32("spksfs(body)", body)
	if err != nil {
		return backend.SpkSegment{}, false, err
	}
	handle, descr, ident, found, err := b.rt.Spksfs(id, et)
	if err != nil || !found {
		return backend.SpkSegment{}, false, err
	}
	d, err := toSpkDescr("spksfs", descr)
	if err != nil {
		return backend.SpkSegment{}, false, err
	}
	return backend.SpkSegment{DafHandle: handle, Descr: d, Ident: ident}, true, nil
}

func (b *Backend) Spkpds(body, center int, frame string, typ int, first, last float64) (backend.SpkDescriptor, error) {
	if err := b.ready(); err != nil {
		return backend.SpkDescriptor{}, err
	}
	bd, err := codec.CheckI32("spkpds(body)", body)
	if err != nil {
		return backend.SpkDescriptor{}, err
	}
	ct, err := codec.CheckI32("spkpds(center)", center)
	if err != nil {
		return backend.SpkDescriptor{}, err
	}
	tp, err := codec.CheckI32("spkpds(type)", typ)
	if err != nil {
		return backend.SpkDescriptor{}, err
	}
	descr, err := b.rt.Spkpds(bd, ct, frame, tp, first, last)
	if err != nil {
		return backend.SpkDescriptor{}, err
	}
	return toSpkDescr("spkpds", descr)
}

func (b *Backend) Spkuds(descr backend.SpkDescriptor) (backend.SpkParts, error) {
	if err := b.ready(); err != nil {
		return backend.SpkParts{}, err
	}
	return b.rt.Spkuds(descr[:])
}

func (b *Backend) Spkopn(path, ifname string, ncomch int) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	nc, err := codec.CheckI32("spkopn(ncomch)", ncomch)
	if err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.Spkopn(path, ifname, nc)
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindSPK, native), nil
}

func (b *Backend) Spkopa(path string) (backend.Handle, error) {
	if err := b.ready(); err != nil {
		return backend.Handle{}, err
	}
	native, err := b.rt.Spkopa(b.resolveRead(path))
	if err != nil {
		return backend.Handle{}, err
	}
	return b.handles.Register(backend.KindSPK, native), nil
}

// Spkw08 写入等间距离散状态段。states 必须是非空且 6 的整数倍的
// 平铺数组，段参数先在本层校验再下传。
func (b *Backend) Spkw08(handle backend.Handle, body, center int, frame string, first, last float64,
	segid string, degree int, states []float64, epoch1, step float64) error {
	if err := b.ready(); err != nil {
		return err
	}
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
	if _, err := codec.CheckI32("spkw08(n)", len(states)/6); err != nil {
		return err
	}
	native, err := b.handles.Lookup(handle, backend.KindSPK)
	if err != nil {
		return err
	}
	return b.rt.Spkw08(native, bd, ct, frame, first, last, segid, dg, states, epoch1, step)
}

func (b *Backend) Spkcls(handle backend.Handle) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.handles.Close(handle, []backend.HandleKind{backend.KindSPK}, b.rt.Spkcls)
}
