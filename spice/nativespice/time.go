package nativespice

import "github.com/rybosome/gospice/spice/codec"

func (b *Backend) Str2et(utc string) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Str2et(utc)
}

func (b *Backend) Et2utc(et float64, format string, prec int) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	p, err := codec.CheckI32("et2utc(prec)", prec)
	if err != nil {
		return "", err
	}
	return b.rt.Et2utc(et, format, p)
}

func (b *Backend) Timout(et float64, picture string) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	return b.rt.Timout(et, picture)
}

func (b *Backend) Tparse(str string) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Tparse(str)
}

func (b *Backend) Deltet(epoch float64, eptype string) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Deltet(epoch, eptype)
}

func (b *Backend) Unitim(epoch float64, insys, outsys string) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	return b.rt.Unitim(epoch, insys, outsys)
}

func (b *Backend) Tpictr(sample string) (string, bool, error) {
	if err := b.ready(); err != nil {
		return "", false, err
	}
	return b.rt.Tpictr(sample)
}

func (b *Backend) Timdef(action, item, value string) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	return b.rt.Timdef(action, item, value)
}

func (b *Backend) Scs2e(sc int, sclkch string) (float64, error) {
	if err := b.ready(); err != nil {
		return 0, err
	}
	id, err := codec.CheckI32("scs2e(sc)", sc)
	if err != nil {
		return 0, err
	}
	return b.rt.Scs2e(id, sclkch)
}

func (b *Backend) Sce2s(sc int, et float64) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	id, err := codec.CheckI32("sce2s(sc)", sc)
	if err != nil {
		return "", err
	}
	return b.rt.Sce2s(id, et)
}
