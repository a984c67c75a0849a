package nativespice

import "github.com/rybosome/gospice/spice/backend"

func (b *Backend) Pxform(from, to string, et float64) (backend.Matrix3x3, error) {
	if err := b.ready(); err != nil {
		return backend.Matrix3x3{}, err
	}
	m, err := b.rt.Pxform(from, to, et)
	if err != nil {
		return backend.Matrix3x3{}, err
	}
	return toMat3("pxform", m)
}

func (b *Backend) Sxform(from, to string, et float64) (backend.Matrix6x6, error) {
	if err := b.ready(); err != nil {
		return backend.Matrix6x6{}, err
	}
	m, err := b.rt.Sxform(from, to, et)
	if err != nil {
		return backend.Matrix6x6{}, err
	}
	return toMat6("sxform", m)
}
