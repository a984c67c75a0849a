package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

func (b *Backend) Bodn2c(name string) (int, bool, error) {
	if err := b.ready(); err != nil {
		return 0, false, err
	}
	code, found, err := b.rt.Bodn2c(name)
	return int(code), found, err
}

func (b *Backend) Bodc2n(code int) (string, bool, error) {
	if err := b.ready(); err != nil {
		return "", false, err
	}
	c, err := codec.CheckI32("bodc2n(code)", code)
	if err != nil {
		return "", false, err
	}
	return b.rt.Bodc2n(c)
}

func (b *Backend) Bodc2s(code int) (string, error) {
	if err := b.ready(); err != nil {
		return "", err
	}
	c, err := codec.CheckI32("bodc2s(code)", code)
	if err != nil {
		return "", err
	}
	return b.rt.Bodc2s(c)
}

func (b *Backend) Bods2c(name string) (int, bool, error) {
	if err := b.ready(); err != nil {
		return 0, false, err
	}
	code, found, err := b.rt.Bods2c(name)
	return int(code), found, err
}

func (b *Backend) Boddef(name string, code int) error {
	if err := b.ready(); err != nil {
		return err
	}
	c, err := codec.CheckI32("boddef(code)", code)
	if err != nil {
		return err
	}
	return b.rt.Boddef(name, c)
}

func (b *Backend) Bodfnd(body int, item string) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}
	id, err := codec.CheckI32("bodfnd(body)", body)
	if err != nil {
		return false, err
	}
	return b.rt.Bodfnd(id, item)
}

func (b *Backend) Bodvar(body int, item string) ([]float64, error) {
	if err := b.ready(); err != nil {
		return nil, err
	}
	id, err := codec.CheckI32("bodvar(body)", body)
	if err != nil {
		return nil, err
	}
	return b.rt.Bodvar(id, item)
}

func (b *Backend) Namfrm(name string) (int, bool, error) {
	if err := b.ready(); err != nil {
		return 0, false, err
	}
	code, found, err := b.rt.Namfrm(name)
	return int(code), found, err
}

func (b *Backend) Frmnam(code int) (string, bool, error) {
	if err := b.ready(); err != nil {
		return "", false, err
	}
	c, err := codec.CheckI32("frmnam(code)", code)
	if err != nil {
		return "", false, err
	}
	return b.rt.Frmnam(c)
}

func (b *Backend) Cidfrm(center int) (backend.FrameIdent, bool, error) {
	if err := b.ready(); err != nil {
		return backend.FrameIdent{}, false, err
	}
	c, err := codec.CheckI32("cidfrm(center)", center)
	if err != nil {
		return backend.FrameIdent{}, false, err
	}
	frcode, frname, found, err := b.rt.Cidfrm(c)
	if err != nil || !found {
		return backend.FrameIdent{}, false, err
	}
	return backend.FrameIdent{Code: int(frcode), Name: frname}, true, nil
}

func (b *Backend) Cnmfrm(centerName string) (backend.FrameIdent, bool, error) {
	if err := b.ready(); err != nil {
		return backend.FrameIdent{}, false, err
	}
	frcode, frname, found, err := b.rt.Cnmfrm(centerName)
	if err != nil || !found {
		return backend.FrameIdent{}, false, err
	}
	return backend.FrameIdent{Code: int(frcode), Name: frname}, true, nil
}

func (b *Backend) Frinfo(frcode int) (backend.FrameInfo, bool, error) {
	if err := b.ready(); err != nil {
		return backend.FrameInfo{}, false, err
	}
	c, err := codec.CheckI32("frinfo(frcode)", frcode)
	if err != nil {
		return backend.FrameInfo{}, false, err
	}
	center, class, clssid, found, err := b.rt.Frinfo(c)
	if err != nil || !found {
		return backend.FrameInfo{}, false, err
	}
	return backend.FrameInfo{Center: int(center), Class: int(class), ClassID: int(clssid)}, true, nil
}

func (b *Backend) Ccifrm(frclass, clssid int) (backend.FrameIdent, bool, error) {
	if err := b.ready(); err != nil {
		return backend.FrameIdent{}, false, err
	}
	cl, err := codec.CheckI32("ccifrm(frclass)", frclass)
	if err != nil {
		return backend.FrameIdent{}, false, err
	}
	id, err := codec.CheckI32("ccifrm(clssid)", clssid)
	if err != nil {
		return backend.FrameIdent{}, false, err
	}
	frcode, frname, found, err := b.rt.Ccifrm(cl, id)
	if err != nil || !found {
		return backend.FrameIdent{}, false, err
	}
	return backend.FrameIdent{Code: int(frcode), Name: frname}, true, nil
}
