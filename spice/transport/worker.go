package transport

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/rybosome/gospice/spice/backend"
)

// ServeBackend 在一条连接上服务后端，直到对端关闭或发来 dispose。
// 请求严格串行处理：后端单实例不可重入，这里就是串行化点。
func ServeBackend(conn Conn, b backend.SpiceBackend, logger *zap.SugaredLogger) error {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	for {
		msg, err := conn.Receive()
		if err != nil {
			return nil
		}
		switch msg.Type {
		case TypeDispose:
			logger.Debugw("收到 dispose 信号, worker 退出")
			return nil
		case TypeRequest:
			value, callErr := dispatch(b, msg.Op, msg.Args)
			resp := Message{Type: TypeResponse, ID: msg.ID}
			if callErr != nil {
				resp.Error = ToWireError(callErr)
			} else {
				resp.OK = true
				resp.Value = value
			}
			if err := conn.Send(resp); err != nil {
				return nil
			}
		default:
			logger.Warnw("忽略未知消息", "type", msg.Type)
		}
	}
}

// NewLocalClient 在进程内起 worker goroutine 服务给定后端，
// 返回连到它的客户端。
func NewLocalClient(b backend.SpiceBackend, opts Options) *Client {
	local, remote := NewPipe()
	go func() { _ = ServeBackend(remote, b, opts.Logger) }()
	return NewClient(local, opts)
}

func dispatch(b backend.SpiceBackend, op string, args []json.RawMessage) (json.RawMessage, error) {
	handler, ok := opTable[op]
	if !ok {
		return nil, backend.Validation(fmt.Sprintf("未知操作: %s", op))
	}
	r := &argReader{op: op, args: args}
	value, err := handler(b, r)
	if err != nil {
		return nil, err
	}
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, &backend.SpiceError{
			Kind:    backend.ErrInternal,
			Message: fmt.Sprintf("序列化 %s() 结果失败", op),
			Cause:   err,
		}
	}
	return raw, nil
}

// argReader 顺序解码请求参数。首个失败记下后续全部短路，
// finish 统一回报解码错误与参数个数不符。
type argReader struct {
	op   string
	args []json.RawMessage
	i    int
	err  error
}

func decodeArg[T any](r *argReader) T {
	var out T
	if r.err != nil {
		return out
	}
	if r.i >= len(r.args) {
		r.err = backend.Validation(fmt.Sprintf("%s() 参数不足: 需要第 %d 个", r.op, r.i+1))
		return out
	}
	if err := json.Unmarshal(r.args[r.i], &out); err != nil {
		r.err = backend.Validation(fmt.Sprintf("%s() 第 %d 个参数解码失败: %v", r.op, r.i, err))
		return out
	}
	r.i++
	return out
}

func (r *argReader) str() string                     { return decodeArg[string](r) }
func (r *argReader) f64() float64                    { return decodeArg[float64](r) }
func (r *argReader) num() int                        { return decodeArg[int](r) }
func (r *argReader) handle() backend.Handle          { return decodeArg[backend.Handle](r) }
func (r *argReader) kernel() backend.KernelSource    { return decodeArg[backend.KernelSource](r) }
func (r *argReader) vec3() backend.Vector3           { return decodeArg[backend.Vector3](r) }
func (r *argReader) mat3() backend.Matrix3x3         { return decodeArg[backend.Matrix3x3](r) }
func (r *argReader) plane() backend.Plane            { return decodeArg[backend.Plane](r) }
func (r *argReader) descr() backend.SpkDescriptor    { return decodeArg[backend.SpkDescriptor](r) }
func (r *argReader) dla() backend.DlaDescriptor      { return decodeArg[backend.DlaDescriptor](r) }
func (r *argReader) f64s() []float64                 { return decodeArg[[]float64](r) }
func (r *argReader) nums() []int                     { return decodeArg[[]int](r) }
func (r *argReader) strs() []string                  { return decodeArg[[]string](r) }

func (r *argReader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.i != len(r.args) {
		return backend.Validation(fmt.Sprintf("%s() 参数过多: 期望 %d 个, 实得 %d 个", r.op, r.i, len(r.args)))
	}
	return nil
}

type opHandler func(b backend.SpiceBackend, r *argReader) (any, error)

// found 把 (value, found) 双返回折叠为线上形态。
func found[T any](value T, ok bool) Found[T] {
	if !ok {
		return Found[T]{}
	}
	return Found[T]{Found: true, Value: value}
}

var opTable = map[string]opHandler{
	// ---- 元信息 ----
	"tkvrsn": func(b backend.SpiceBackend, r *argReader) (any, error) {
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Tkvrsn()
	},
	"getmsg": func(b backend.SpiceBackend, r *argReader) (any, error) {
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.LastSpiceError()
	},

	// ---- 内核池 ----
	"furnsh": func(b backend.SpiceBackend, r *argReader) (any, error) {
		k := r.kernel()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Furnsh(k)
	},
	"unload": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Unload(path)
	},
	"kclear": func(b backend.SpiceBackend, r *argReader) (any, error) {
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Kclear()
	},
	"ktotal": func(b backend.SpiceBackend, r *argReader) (any, error) {
		kind := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Ktotal(kind)
	},
	"kdata": func(b backend.SpiceBackend, r *argReader) (any, error) {
		which, kind := r.num(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		info, ok, err := b.Kdata(which, kind)
		return found(info, ok), err
	},
	"kinfo": func(b backend.SpiceBackend, r *argReader) (any, error) {
		file := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		tag, ok, err := b.Kinfo(file)
		return found(tag, ok), err
	},

	// ---- 内核池变量 ----
	"gdpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, start, room := r.str(), r.num(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		vals, ok, err := b.Gdpool(name, start, room)
		return found(vals, ok), err
	},
	"gipool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, start, room := r.str(), r.num(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		vals, ok, err := b.Gipool(name, start, room)
		return found(vals, ok), err
	},
	"gcpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, start, room := r.str(), r.num(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		vals, ok, err := b.Gcpool(name, start, room)
		return found(vals, ok), err
	},
	"gnpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		template, start, room := r.str(), r.num(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		vals, ok, err := b.Gnpool(template, start, room)
		return found(vals, ok), err
	},
	"dtpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		info, ok, err := b.Dtpool(name)
		return found(info, ok), err
	},
	"pdpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, values := r.str(), r.f64s()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Pdpool(name, values)
	},
	"pipool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, values := r.str(), r.nums()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Pipool(name, values)
	},
	"pcpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, values := r.str(), r.strs()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Pcpool(name, values)
	},
	"swpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		agent, names := r.str(), r.strs()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Swpool(agent, names)
	},
	"cvpool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		agent := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Cvpool(agent)
	},
	"expool": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Expool(name)
	},

	// ---- 时间 ----
	"str2et": func(b backend.SpiceBackend, r *argReader) (any, error) {
		utc := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Str2et(utc)
	},
	"et2utc": func(b backend.SpiceBackend, r *argReader) (any, error) {
		et, format, prec := r.f64(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Et2utc(et, format, prec)
	},
	"timout": func(b backend.SpiceBackend, r *argReader) (any, error) {
		et, picture := r.f64(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Timout(et, picture)
	},
	"tparse": func(b backend.SpiceBackend, r *argReader) (any, error) {
		str := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Tparse(str)
	},
	"deltet": func(b backend.SpiceBackend, r *argReader) (any, error) {
		epoch, eptype := r.f64(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Deltet(epoch, eptype)
	},
	"unitim": func(b backend.SpiceBackend, r *argReader) (any, error) {
		epoch, insys, outsys := r.f64(), r.str(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Unitim(epoch, insys, outsys)
	},
	"tpictr": func(b backend.SpiceBackend, r *argReader) (any, error) {
		sample := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		pic, ok, err := b.Tpictr(sample)
		return found(pic, ok), err
	},
	"timdef": func(b backend.SpiceBackend, r *argReader) (any, error) {
		action, item, value := r.str(), r.str(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Timdef(action, item, value)
	},
	"scs2e": func(b backend.SpiceBackend, r *argReader) (any, error) {
		sc, sclkch := r.num(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Scs2e(sc, sclkch)
	},
	"sce2s": func(b backend.SpiceBackend, r *argReader) (any, error) {
		sc, et := r.num(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Sce2s(sc, et)
	},

	// ---- 编号/名称 ----
	"bodn2c": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		code, ok, err := b.Bodn2c(name)
		return found(code, ok), err
	},
	"bodc2n": func(b backend.SpiceBackend, r *argReader) (any, error) {
		code := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		name, ok, err := b.Bodc2n(code)
		return found(name, ok), err
	},
	"bodc2s": func(b backend.SpiceBackend, r *argReader) (any, error) {
		code := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Bodc2s(code)
	},
	"bods2c": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		code, ok, err := b.Bods2c(name)
		return found(code, ok), err
	},
	"boddef": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name, code := r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Boddef(name, code)
	},
	"bodfnd": func(b backend.SpiceBackend, r *argReader) (any, error) {
		body, item := r.num(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Bodfnd(body, item)
	},
	"bodvar": func(b backend.SpiceBackend, r *argReader) (any, error) {
		body, item := r.num(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Bodvar(body, item)
	},
	"namfrm": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		code, ok, err := b.Namfrm(name)
		return found(code, ok), err
	},
	"frmnam": func(b backend.SpiceBackend, r *argReader) (any, error) {
		code := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		name, ok, err := b.Frmnam(code)
		return found(name, ok), err
	},
	"cidfrm": func(b backend.SpiceBackend, r *argReader) (any, error) {
		center := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		ident, ok, err := b.Cidfrm(center)
		return found(ident, ok), err
	},
	"cnmfrm": func(b backend.SpiceBackend, r *argReader) (any, error) {
		name := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		ident, ok, err := b.Cnmfrm(name)
		return found(ident, ok), err
	},
	"frinfo": func(b backend.SpiceBackend, r *argReader) (any, error) {
		frcode := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		info, ok, err := b.Frinfo(frcode)
		return found(info, ok), err
	},
	"ccifrm": func(b backend.SpiceBackend, r *argReader) (any, error) {
		frclass, clssid := r.num(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		ident, ok, err := b.Ccifrm(frclass, clssid)
		return found(ident, ok), err
	},

	// ---- 参考系 ----
	"pxform": func(b backend.SpiceBackend, r *argReader) (any, error) {
		from, to, et := r.str(), r.str(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Pxform(from, to, et)
	},
	"sxform": func(b backend.SpiceBackend, r *argReader) (any, error) {
		from, to, et := r.str(), r.str(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Sxform(from, to, et)
	},

	// ---- 星历 ----
	"spkezr": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref, abcorr, obs := r.str(), r.f64(), r.str(), r.str(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		state, lt, err := b.Spkezr(target, et, ref, abcorr, obs)
		return StateValue{State: state, Lt: lt}, err
	},
	"spkpos": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref, abcorr, obs := r.str(), r.f64(), r.str(), r.str(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		pos, lt, err := b.Spkpos(target, et, ref, abcorr, obs)
		return PosValue{Pos: pos, Lt: lt}, err
	},
	"spkez": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref, abcorr, obs := r.num(), r.f64(), r.str(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		state, lt, err := b.Spkez(target, et, ref, abcorr, obs)
		return StateValue{State: state, Lt: lt}, err
	},
	"spkezp": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref, abcorr, obs := r.num(), r.f64(), r.str(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		pos, lt, err := b.Spkezp(target, et, ref, abcorr, obs)
		return PosValue{Pos: pos, Lt: lt}, err
	},
	"spkgeo": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref, obs := r.num(), r.f64(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		state, lt, err := b.Spkgeo(target, et, ref, obs)
		return StateValue{State: state, Lt: lt}, err
	},
	"spkgps": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref, obs := r.num(), r.f64(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		pos, lt, err := b.Spkgps(target, et, ref, obs)
		return PosValue{Pos: pos, Lt: lt}, err
	},
	"spkssb": func(b backend.SpiceBackend, r *argReader) (any, error) {
		target, et, ref := r.num(), r.f64(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Spkssb(target, et, ref)
	},
	"spkcov": func(b backend.SpiceBackend, r *argReader) (any, error) {
		spk, idcode, cover := r.str(), r.num(), r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Spkcov(spk, idcode, cover)
	},
	"spkobj": func(b backend.SpiceBackend, r *argReader) (any, error) {
		spk, ids := r.str(), r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Spkobj(spk, ids)
	},
	"spksfs": func(b backend.SpiceBackend, r *argReader) (any, error) {
		body, et := r.num(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		seg, ok, err := b.Spksfs(body, et)
		return found(seg, ok), err
	},
	"spkpds": func(b backend.SpiceBackend, r *argReader) (any, error) {
		body, center, frame, typ, first, last := r.num(), r.num(), r.str(), r.num(), r.f64(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Spkpds(body, center, frame, typ, first, last)
	},
	"spkuds": func(b backend.SpiceBackend, r *argReader) (any, error) {
		descr := r.descr()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Spkuds(descr)
	},
	"spkopn": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path, ifname, ncomch := r.str(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Spkopn(path, ifname, ncomch)
	},
	"spkopa": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Spkopa(path)
	},
	"spkw08": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		body, center, frame := r.num(), r.num(), r.str()
		first, last := r.f64(), r.f64()
		segid, degree := r.str(), r.num()
		states := r.f64s()
		epoch1, step := r.f64(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Spkw08(handle, body, center, frame, first, last, segid, degree, states, epoch1, step)
	},
	"spkcls": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Spkcls(handle)
	},

	// ---- 观测几何 ----
	"subpnt": func(b backend.SpiceBackend, r *argReader) (any, error) {
		method, target, et := r.str(), r.str(), r.f64()
		fixref, abcorr, obs := r.str(), r.str(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Subpnt(method, target, et, fixref, abcorr, obs)
	},
	"subslr": func(b backend.SpiceBackend, r *argReader) (any, error) {
		method, target, et := r.str(), r.str(), r.f64()
		fixref, abcorr, obs := r.str(), r.str(), r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Subslr(method, target, et, fixref, abcorr, obs)
	},
	"sincpt": func(b backend.SpiceBackend, r *argReader) (any, error) {
		method, target, et := r.str(), r.str(), r.f64()
		fixref, abcorr, obs, dref := r.str(), r.str(), r.str(), r.str()
		dvec := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		hit, ok, err := b.Sincpt(method, target, et, fixref, abcorr, obs, dref, dvec)
		return found(hit, ok), err
	},
	"ilumin": func(b backend.SpiceBackend, r *argReader) (any, error) {
		method, target, et := r.str(), r.str(), r.f64()
		fixref, abcorr, obs := r.str(), r.str(), r.str()
		spoint := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Ilumin(method, target, et, fixref, abcorr, obs, spoint)
	},
	"illumg": func(b backend.SpiceBackend, r *argReader) (any, error) {
		method, target, ilusrc, et := r.str(), r.str(), r.str(), r.f64()
		fixref, abcorr, obs := r.str(), r.str(), r.str()
		spoint := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Illumg(method, target, ilusrc, et, fixref, abcorr, obs, spoint)
	},
	"illumf": func(b backend.SpiceBackend, r *argReader) (any, error) {
		method, target, ilusrc, et := r.str(), r.str(), r.str(), r.f64()
		fixref, abcorr, obs := r.str(), r.str(), r.str()
		spoint := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Illumf(method, target, ilusrc, et, fixref, abcorr, obs, spoint)
	},
	"occult": func(b backend.SpiceBackend, r *argReader) (any, error) {
		targ1, shape1, frame1 := r.str(), r.str(), r.str()
		targ2, shape2, frame2 := r.str(), r.str(), r.str()
		abcorr, obs, et := r.str(), r.str(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Occult(targ1, shape1, frame1, targ2, shape2, frame2, abcorr, obs, et)
	},
	"nvc2pl": func(b backend.SpiceBackend, r *argReader) (any, error) {
		normal, konst := r.vec3(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Nvc2pl(normal, konst)
	},
	"pl2nvc": func(b backend.SpiceBackend, r *argReader) (any, error) {
		plane := r.plane()
		if err := r.finish(); err != nil {
			return nil, err
		}
		normal, konst, err := b.Pl2nvc(plane)
		return PlaneNormal{Normal: normal, Konst: konst}, err
	},

	// ---- 坐标/向量 ----
	"reclat": func(b backend.SpiceBackend, r *argReader) (any, error) {
		rect := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Reclat(rect)
	},
	"latrec": func(b backend.SpiceBackend, r *argReader) (any, error) {
		radius, lon, lat := r.f64(), r.f64(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Latrec(radius, lon, lat)
	},
	"recsph": func(b backend.SpiceBackend, r *argReader) (any, error) {
		rect := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Recsph(rect)
	},
	"sphrec": func(b backend.SpiceBackend, r *argReader) (any, error) {
		rad, colat, slon := r.f64(), r.f64(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Sphrec(rad, colat, slon)
	},
	"georec": func(b backend.SpiceBackend, r *argReader) (any, error) {
		lon, lat, alt, re, f := r.f64(), r.f64(), r.f64(), r.f64(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Georec(lon, lat, alt, re, f)
	},
	"recgeo": func(b backend.SpiceBackend, r *argReader) (any, error) {
		rect := r.vec3()
		re, f := r.f64(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Recgeo(rect, re, f)
	},
	"vnorm": func(b backend.SpiceBackend, r *argReader) (any, error) {
		v := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vnorm(v)
	},
	"vhat": func(b backend.SpiceBackend, r *argReader) (any, error) {
		v := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vhat(v)
	},
	"vdot": func(b backend.SpiceBackend, r *argReader) (any, error) {
		a, v := r.vec3(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vdot(a, v)
	},
	"vcrss": func(b backend.SpiceBackend, r *argReader) (any, error) {
		a, v := r.vec3(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vcrss(a, v)
	},
	"vadd": func(b backend.SpiceBackend, r *argReader) (any, error) {
		a, v := r.vec3(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vadd(a, v)
	},
	"vsub": func(b backend.SpiceBackend, r *argReader) (any, error) {
		a, v := r.vec3(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vsub(a, v)
	},
	"vminus": func(b backend.SpiceBackend, r *argReader) (any, error) {
		v := r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vminus(v)
	},
	"vscl": func(b backend.SpiceBackend, r *argReader) (any, error) {
		s, v := r.f64(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Vscl(s, v)
	},
	"mxv": func(b backend.SpiceBackend, r *argReader) (any, error) {
		m, v := r.mat3(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Mxv(m, v)
	},
	"mtxv": func(b backend.SpiceBackend, r *argReader) (any, error) {
		m, v := r.mat3(), r.vec3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Mtxv(m, v)
	},
	"mxm": func(b backend.SpiceBackend, r *argReader) (any, error) {
		a, m := r.mat3(), r.mat3()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Mxm(a, m)
	},
	"rotate": func(b backend.SpiceBackend, r *argReader) (any, error) {
		angle, iaxis := r.f64(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Rotate(angle, iaxis)
	},
	"rotmat": func(b backend.SpiceBackend, r *argReader) (any, error) {
		m, angle, iaxis := r.mat3(), r.f64(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Rotmat(m, angle, iaxis)
	},
	"axisar": func(b backend.SpiceBackend, r *argReader) (any, error) {
		axis, angle := r.vec3(), r.f64()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Axisar(axis, angle)
	},

	// ---- 文件访问 ----
	"exists": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Exists(path)
	},
	"getfat": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Getfat(path)
	},
	"dafopr": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Dafopr(path)
	},
	"dafcls": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Dafcls(handle)
	},
	"dafbfs": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Dafbfs(handle)
	},
	"daffna": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Daffna(handle)
	},
	"dasopr": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path := r.str()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Dasopr(path)
	},
	"dascls": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Dascls(handle)
	},
	"dlaopn": func(b backend.SpiceBackend, r *argReader) (any, error) {
		path, ftype, ifname, ncomch := r.str(), r.str(), r.str(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Dlaopn(path, ftype, ifname, ncomch)
	},
	"dlabfs": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		descr, ok, err := b.Dlabfs(handle)
		return found(descr, ok), err
	},
	"dlafns": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle, descr := r.handle(), r.dla()
		if err := r.finish(); err != nil {
			return nil, err
		}
		next, ok, err := b.Dlafns(handle, descr)
		return found(next, ok), err
	},
	"dlacls": func(b backend.SpiceBackend, r *argReader) (any, error) {
		handle := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Dlacls(handle)
	},

	// ---- cell/window ----
	"newIntCell": func(b backend.SpiceBackend, r *argReader) (any, error) {
		capacity := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.NewIntCell(capacity)
	},
	"newDoubleCell": func(b backend.SpiceBackend, r *argReader) (any, error) {
		capacity := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.NewDoubleCell(capacity)
	},
	"newCharCell": func(b backend.SpiceBackend, r *argReader) (any, error) {
		capacity, length := r.num(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.NewCharCell(capacity, length)
	},
	"insrti": func(b backend.SpiceBackend, r *argReader) (any, error) {
		item, cell := r.num(), r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Insrti(item, cell)
	},
	"insrtd": func(b backend.SpiceBackend, r *argReader) (any, error) {
		item, cell := r.f64(), r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Insrtd(item, cell)
	},
	"insrtc": func(b backend.SpiceBackend, r *argReader) (any, error) {
		item, cell := r.str(), r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Insrtc(item, cell)
	},
	"card": func(b backend.SpiceBackend, r *argReader) (any, error) {
		cell := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Card(cell)
	},
	"size": func(b backend.SpiceBackend, r *argReader) (any, error) {
		cell := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Size(cell)
	},
	"cellGetInt": func(b backend.SpiceBackend, r *argReader) (any, error) {
		cell, index := r.handle(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.CellGetInt(cell, index)
	},
	"cellGetDouble": func(b backend.SpiceBackend, r *argReader) (any, error) {
		cell, index := r.handle(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.CellGetDouble(cell, index)
	},
	"cellGetChar": func(b backend.SpiceBackend, r *argReader) (any, error) {
		cell, index := r.handle(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.CellGetChar(cell, index)
	},
	"freeCell": func(b backend.SpiceBackend, r *argReader) (any, error) {
		cell := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.FreeCell(cell)
	},
	"newWindow": func(b backend.SpiceBackend, r *argReader) (any, error) {
		capacity := r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.NewWindow(capacity)
	},
	"wninsd": func(b backend.SpiceBackend, r *argReader) (any, error) {
		left, right, window := r.f64(), r.f64(), r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.Wninsd(left, right, window)
	},
	"wncard": func(b backend.SpiceBackend, r *argReader) (any, error) {
		window := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return b.Wncard(window)
	},
	"wnfetd": func(b backend.SpiceBackend, r *argReader) (any, error) {
		window, n := r.handle(), r.num()
		if err := r.finish(); err != nil {
			return nil, err
		}
		left, right, err := b.Wnfetd(window, n)
		return IntervalValue{Left: left, Right: right}, err
	},
	"freeWindow": func(b backend.SpiceBackend, r *argReader) (any, error) {
		window := r.handle()
		if err := r.finish(); err != nil {
			return nil, err
		}
		return nil, b.FreeWindow(window)
	},
}
