package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func (b *Backend) Reclat(rect backend.Vector3) (backend.Latitudinal, error) {
	if err := b.ready(); err != nil {
		return backend.Latitudinal{}, err
	}
	radius, lon, lat, err := b.rt.Reclat(rect[:])
	if err != nil {
		return backend.Latitudinal{}, err
	}
	return backend.Latitudinal{Radius: radius, Lon: lon, Lat: lat}, nil
}

func (b *Backend) Latrec(radius, lon, lat float64) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	rect, err := b.rt.Latrec(radius, lon, lat)
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("latrec", rect)
}

func (b *Backend) Recsph(rect backend.Vector3) (backend.Spherical, error) {
	if err := b.ready(); err != nil {
		return backend.Spherical{}, err
	}
	r, colat, slon, err := b.rt.Recsph(rect[:])
	if err != nil {
		return backend.Spherical{}, err
	}
	return backend.Spherical{R: r, Colat: colat, Slon: slon}, nil
}

func (b *Backend) Sphrec(r, colat, slon float64) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	rect, err := b.rt.Sphrec(r, colat, slon)
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("sphrec", rect)
}

func (b *Backend) Georec(lon, lat, alt, re, f float64) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	rect, err := b.rt.Georec(lon, lat, alt, re, f)
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("georec", rect)
}

func (b *Backend) Recgeo(rect backend.Vector3, re, f float64) (backend.Geodetic, error) {
	if err := b.ready(); err != nil {
		return backend.Geodetic{}, err
	}
	lon, lat, alt, err := b.rt.Recgeo(rect[:], re, f)
	if err != nil {
		return backend.Geodetic{}, err
	}
	return backend.Geodetic{Lon: lon, Lat: lat, Alt: alt}, nil
}

func (b *Backend) Vnorm(v backend.Vector3) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Vnorm(v[:])
}

func (b *Backend) Vhat(v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Vhat(v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("vhat", out)
}

func (b *Backend) Vdot(a, v backend.Vector3) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Vdot(a[:], v[:])
}

func (b *Backend) Vcrss(a, v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Vcrss(a[:], v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("vcrss", out)
}

func (b *Backend) Vadd(a, v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Vadd(a[:], v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("vadd", out)
}

func (b *Backend) Vsub(a, v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Vsub(a[:], v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("vsub", out)
}

func (b *Backend) Vminus(v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Vminus(v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("vminus", out)
}

func (b *Backend) Vscl(s float64, v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Vscl(s, v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("vscl", out)
}

func (b *Backend) Mxv(m backend.Matrix3x3, v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Mxv(m[:], v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("mxv", out)
}

func (b *Backend) Mtxv(m backend.Matrix3x3, v backend.Vector3) (backend.Vector3, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, err
	}
	out, err := b.rt.Mtxv(m[:], v[:])
	if err != nil {
		return backend.Vector3{}, err
	}
	return toVec3("mtxv", out)
}

func (b *Backend) Mxm(a, m backend.Matrix3x3) (backend.Matrix3x3, error) {
	if err := b.ready(); err != nil {
		return backend.Matrix3x3{}, err
	}
	out, err := b.rt.Mxm(a[:], m[:])
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return toMat3("mxm", out)
}

func (b *Backend) Rotate(angle float64, iaxis int) (backend.Matrix3x3, error) {
	if err := b.ready(); err != nil {
		return backend.Matrix3x3{}, err
	}
	axis, err := codec.CheckI32("rotate(iaxis)", iaxis)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	out, err := b.rt.Rotate(angle, axis)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return toMat3("rotate", out)
}

func (b *Backend) Rotmat(m backend.Matrix3x3, angle float64, iaxis int) (backend.Matrix3x3, error) {
	if err := b.ready(); err != nil {
		return backend.Matrix3x3{}, err
	}
	axis, err := codec.CheckI32("rotmat(iaxis)", iaxis)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	out, err := b.rt.Rotmat(m[:], angle, axis)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return toMat3("rotmat", out)
}

func (b *Backend) Axisar(axis backend.Vector3, angle float64) (backend.Matrix3x3, error) {
	if err := b.ready(); err != nil {
		return backend.Matrix3x3{}, err
	}
	out, err := b.rt.Axisar(axis[:], angle)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return toMat3("axisar", out)
}
