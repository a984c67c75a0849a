package nativespice

import "github.com/rybosome/gospice/spice/backend"

func (b *Backend) subPoint(fn string, spoint []float64, trgepc float64, srfvec []float64) (backend.SubPoint, error) {
	sp, err := toVec3(fn, spoint)
	if err != nil {
		return backend.SubPoint{}, err
	}
	sv, err := toVec3(fn, srfvec)
	if err != nil {
		return backend.SubPoint{}, err
	}
	return backend.SubPoint{Spoint: sp, Trgepc: trgepc, Srfvec: sv}, nil
}

func (b *Backend) Subpnt(method, target string, et float64, fixref, abcorr, observer string) (backend.SubPoint, error) {
	if err := b.ready(); err != nil {
		return backend.SubPoint{}, err
	}
	spoint, trgepc, srfvec, err := b.rt.Subpnt(method, target, et, fixref, abcorr, observer)
	if err != nil {
		return backend.SubPoint{}, err
	}
	return b.subPoint("subpnt", spoint, trgepc, srfvec)
}

func (b *Backend) Subslr(method, target string, et float64, fixref, abcorr, observer string) (backend.SubPoint, error) {
	if err := b.ready(); err != nil {
		return backend.SubPoint{}, err
	}
	spoint, trgepc, srfvec, err := b.rt.Subslr(method, target, et, fixref, abcorr, observer)
	if err != nil {
		return backend.SubPoint{}, err
	}
	return b.subPoint("subslr", spoint, trgepc, srfvec)
}

func (b *Backend) Sincpt(method, target string, et float64, fixref, abcorr, observer, dref string, dvec backend.Vector3) (backend.SurfaceIntercept, bool, error) {
	if err := b.ready(); err != nil {
		return backend.SurfaceIntercept{}, false, err
	}
	spoint, trgepc, srfvec, found, err := b.rt.Sincpt(method, target, et, fixref, abcorr, observer, dref, dvec[:])
	if err != nil || !found {
		return backend.SurfaceIntercept{}, false, err
	}
	sp, err := toVec3("sincpt", spoint)
	if err != nil {
		return backend.SurfaceIntercept{}, false, err
	}
	sv, err := toVec3("sincpt", srfvec)
	if err != nil {
		return backend.SurfaceIntercept{}, false, err
	}
	return backend.SurfaceIntercept{Spoint: sp, Trgepc: trgepc, Srfvec: sv}, true, nil
}

func (b *Backend) Ilumin(method, target string, et float64, fixref, abcorr, observer string, spoint backend.Vector3) (backend.Illumination, error) {
	if err := b.ready(); err != nil {
		return backend.Illumination{}, err
	}
	trgepc, srfvec, phase, incdnc, emissn, err := b.rt.Ilumin(method, target, et, fixref, abcorr, observer, spoint[:])
	if err != nil {
		return backend.Illumination{}, err
	}
	sv, err := toVec3("ilumin", srfvec)
	if err != nil {
		return backend.Illumination{}, err
	}
	return backend.Illumination{Trgepc: trgepc, Srfvec: sv, Phase: phase, Incdnc: incdnc, Emissn: emissn}, nil
}

func (b *Backend) Illumg(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint backend.Vector3) (backend.Illumination, error) {
	if err := b.ready(); err != nil {
		return backend.Illumination{}, err
	}
	trgepc, srfvec, phase, incdnc, emissn, err := b.rt.Illumg(method, target, ilusrc, et, fixref, abcorr, observer, spoint[:])
	if err != nil {
		return backend.Illumination{}, err
	}
	sv, err := toVec3("illumg", srfvec)
	if err != nil {
		return backend.Illumination{}, err
	}
	return backend.Illumination{Trgepc: trgepc, Srfvec: sv, Phase: phase, Incdnc: incdnc, Emissn: emissn}, nil
}

func (b *Backend) Illumf(method, target, ilusrc string, et float64, fixref, abcorr, observer string, spoint backend.Vector3) (backend.IlluminationFlags, error) {
	if err := b.ready(); err != nil {
		return backend.IlluminationFlags{}, err
	}
	trgepc, srfvec, phase, incdnc, emissn, visibl, lit, err := b.rt.Illumf(method, target, ilusrc, et, fixref, abcorr, observer, spoint[:])
	if err != nil {
		return backend.IlluminationFlags{}, err
	}
	sv, err := toVec3("illumf", srfvec)
	if err != nil {
		return backend.IlluminationFlags{}, err
	}
	return backend.IlluminationFlags{
		Illumination: backend.Illumination{Trgepc: trgepc, Srfvec: sv, Phase: phase, Incdnc: incdnc, Emissn: emissn},
		Visibl:       visibl,
		Lit:          lit,
	}, nil
}

func (b *Backend) Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer string, et float64) (int, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	code, err := b.rt.Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, observer, et)
	return int(code), err
}

func (b *Backend) Nvc2pl(normal backend.Vector3, konst float64) (backend.Plane, error) {
	if err := b.ready(); err != nil {
		return backend.Plane{}, err
	}
	p, err := b.rt.Nvc2pl(normal[:], konst)
	if err != nil {
		return backend.Plane{}, err
	}
	return toPlane("nvc2pl", p)
}

func (b *Backend) Pl2nvc(plane backend.Plane) (backend.Vector3, float64, error) {
	if err := b.ready(); err != nil {
		return backend.Vector3{}, 0, err
	}
	normal, konst, err := b.rt.Pl2nvc(plane[:])
	if err != nil {
		return backend.Vector3{}, 0, err
	}
	n, err := toVec3("pl2nvc", normal)
	return n, konst, err
}
