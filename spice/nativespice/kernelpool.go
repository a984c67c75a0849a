package nativespice

import (
	"github.com/rybosome/gospice/spice/backend"
	"github.com/rybosome/gospice/spice/codec"
)

// 内核池读取的窗口参数检查：start 从 0 起，room 至少取 1 个。
func checkPoolWindow(op string, start, room int) (int32, int32, error) {
	if start < 0 {
		return 0, 0, backend.Validation(op + "(): start 不能为负")
	}
	if room <= 0 {
		return 0, 0, backend.Validation(op + "(): room 必须为正")
	}
	s, err := codec.CheckI32(op+"(start)", start)
	if err != nil {
		return 0, 0, err
	}
	r, err := codec.CheckI32(op+"(room)", room)
	if err != nil {
		return 0, 0, err
	}
	return s, r, nil
}

func (b *Backend) Gdpool(name string, start, room int) ([]float64, bool, error) {
	if err := b.ready(); err != nil {
		return nil, false, err
	}
	s, r, err := checkPoolWindow("gdpool", start, room)
	if err != nil {
		return nil, false, err
	}
	return b.rt.Gdpool(name, s, r)
}

func (b *Backend) Gipool(name string, start, room int) ([]int, bool, error) {
	if err := b.ready(); err != nil {
		return nil, false, err
	}
	s, r, err := checkPoolWindow("gipool", start, room)
	if err != nil {
		return nil, false, err
	}
	vals, found, err := b.rt.Gipool(name, s, r)
	if err != nil || !found {
		return nil, found, err
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		out[i] = int(v)
	}
	return out, true, nil
}

func (b *Backend) Gcpool(name string, start, room int) ([]string, bool, error) {
	if err := b.ready(); err != nil {
		return nil, false, err
	}
	s, r, err := checkPoolWindow("gcpool", start, room)
	if err != nil {
		return nil, false, err
	}
	return b.rt.Gcpool(name, s, r)
}

func (b *Backend) Gnpool(template string, start, room int) ([]string, bool, error) {
	if err := b.ready(); err != nil {
		return nil, false, err
	}
	s, r, err := checkPoolWindow("gnpool", start, room)
	if err != nil {
		return nil, false, err
	}
	return b.rt.Gnpool(template, s, r)
}

func (b *Backend) Dtpool(name string) (backend.PoolVarInfo, bool, error) {
	var info backend.PoolVarInfo
	if err := b.ready(); err != nil {
		return info, false, err
	}
	n, typ, found, err := b.rt.Dtpool(name)
	if err != nil || !found {
		return info, found, err
	}
	info.N = int(n)
	info.Type = typ
	return info, true, nil
}

func (b *Backend) Pdpool(name string, values []float64) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.rt.Pdpool(name, values)
}

func (b *Backend) Pipool(name string, values []int) error {
	if err := b.ready(); err != nil {
		return err
	}
	cvals := make([]int32, len(values))
	for i, v := range values {
		c, err := codec.CheckI32("pipool(values)", v)
		if err != nil {
			return err
		}
		cvals[i] = c
	}
	return b.rt.Pipool(name, cvals)
}

func (b *Backend) Pcpool(name string, values []string) error {
	if err := b.ready(); err != nil {
		return err
	}
	return b.rt.Pcpool(name, values)
}

func (b *Backend) Swpool(agent string, names []string) error {
	if err := b.ready(); err != nil {
		return err
	}
	if len(names) == 0 {
		return backend.Validation("swpool(): 监视名单不能为空")
	}
	return b.rt.Swpool(agent, names)
}

func (b *Backend) Cvpool(agent string) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}
	return b.rt.Cvpool(agent)
}

func (b *Backend) Expool(name string) (bool, error) {
	if err := b.ready(); err != nil {
		return false, err
	}
	return b.rt.Expool(name)
}
